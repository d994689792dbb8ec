package secretstore

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// DefaultIndexService names the keyring item that lists stored entries;
	// go-keyring itself cannot enumerate.
	DefaultIndexService = "credkit.index"
	indexAccount        = "entries"
)

type keyringEnvelope struct {
	Label          string        `json:"label,omitempty"`
	Secret         []byte        `json:"secret"`
	Synchronizable bool          `json:"synchronizable"`
	Accessibility  Accessibility `json:"accessibility,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	ModifiedAt     time.Time     `json:"modified_at"`
}

type indexEntry struct {
	Service        string        `json:"service"`
	Account        string        `json:"account"`
	Label          string        `json:"label,omitempty"`
	Synchronizable bool          `json:"synchronizable"`
	Accessibility  Accessibility `json:"accessibility,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	ModifiedAt     time.Time     `json:"modified_at"`
}

// KeyringStore keeps items in the OS keyring through go-keyring (macOS
// security, Secret Service, Windows credential manager). The keyring has no
// synchronization attribute, so the scope is encoded in the stored account.
type KeyringStore struct {
	mu           sync.Mutex
	indexService string
	now          func() time.Time
}

// NewKeyringStore returns a store whose index lives under DefaultIndexService.
func NewKeyringStore() *KeyringStore {
	return NewKeyringStoreWithIndex(DefaultIndexService)
}

// NewKeyringStoreWithIndex lets independent stores share one keyring.
func NewKeyringStoreWithIndex(indexService string) *KeyringStore {
	return &KeyringStore{indexService: indexService, now: time.Now}
}

func scopedAccount(account string, synchronizable bool) string {
	if synchronizable {
		return "synced:" + account
	}
	return "local:" + account
}

func (k *KeyringStore) Put(item Item) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	index, err := k.loadIndex()
	if err != nil {
		return err
	}

	now := k.now().UTC()
	env := keyringEnvelope{
		Label:          item.Label,
		Secret:         item.Secret,
		Synchronizable: item.Synchronizable,
		Accessibility:  item.Accessibility,
		CreatedAt:      now,
		ModifiedAt:     now,
	}
	pos := -1
	for i, e := range index {
		if e.Service == item.Service && e.Account == item.Account && e.Synchronizable == item.Synchronizable {
			pos = i
			env.CreatedAt = e.CreatedAt
			break
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return unavailable("put", item.Service, item.Account, err)
	}
	if err := keyring.Set(item.Service, scopedAccount(item.Account, item.Synchronizable), string(data)); err != nil {
		return unavailable("put", item.Service, item.Account, err)
	}

	ie := indexEntry{
		Service:        item.Service,
		Account:        item.Account,
		Label:          env.Label,
		Synchronizable: env.Synchronizable,
		Accessibility:  env.Accessibility,
		CreatedAt:      env.CreatedAt,
		ModifiedAt:     env.ModifiedAt,
	}
	if pos >= 0 {
		index[pos] = ie
	} else {
		index = append(index, ie)
	}
	return k.saveIndex(index)
}

func (k *KeyringStore) Get(service, account string, sync Sync) (Item, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, scope := range sync.Scopes() {
		raw, err := keyring.Get(service, scopedAccount(account, scope))
		if errors.Is(err, keyring.ErrNotFound) {
			continue
		}
		if err != nil {
			return Item{}, unavailable("get", service, account, err)
		}
		var env keyringEnvelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return Item{}, unavailable("get", service, account, err)
		}
		secret := env.Secret
		if secret == nil {
			secret = []byte{}
		}
		return Item{
			Service:        service,
			Account:        account,
			Label:          env.Label,
			Secret:         secret,
			Synchronizable: scope,
			Accessibility:  env.Accessibility,
			CreatedAt:      env.CreatedAt,
			ModifiedAt:     env.ModifiedAt,
		}, nil
	}
	return Item{}, ErrNotFound
}

func (k *KeyringStore) Enumerate(f Filter) ([]Entry, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	index, err := k.loadIndex()
	if err != nil {
		return nil, err
	}
	out := []Entry{}
	for _, ie := range index {
		e := Entry{
			Service:        ie.Service,
			Account:        ie.Account,
			Label:          ie.Label,
			Synchronizable: ie.Synchronizable,
			Accessibility:  ie.Accessibility,
			CreatedAt:      ie.CreatedAt,
			ModifiedAt:     ie.ModifiedAt,
		}
		if f.Match(e) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (k *KeyringStore) Delete(service, account string, sync Sync) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	found := false
	for _, scope := range sync.Scopes() {
		err := keyring.Delete(service, scopedAccount(account, scope))
		if errors.Is(err, keyring.ErrNotFound) {
			continue
		}
		if err != nil {
			return unavailable("delete", service, account, err)
		}
		found = true
	}
	if !found {
		return ErrNotFound
	}

	index, err := k.loadIndex()
	if err != nil {
		return err
	}
	kept := index[:0]
	for _, ie := range index {
		if ie.Service == service && ie.Account == account && sync.Matches(ie.Synchronizable) {
			continue
		}
		kept = append(kept, ie)
	}
	return k.saveIndex(kept)
}

func (k *KeyringStore) loadIndex() ([]indexEntry, error) {
	raw, err := keyring.Get(k.indexService, indexAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("index", "", "", err)
	}
	var index []indexEntry
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		return nil, unavailable("index", "", "", err)
	}
	return index, nil
}

func (k *KeyringStore) saveIndex(index []indexEntry) error {
	data, err := json.Marshal(index)
	if err != nil {
		return unavailable("index", "", "", err)
	}
	if err := keyring.Set(k.indexService, indexAccount, string(data)); err != nil {
		return unavailable("index", "", "", err)
	}
	return nil
}
