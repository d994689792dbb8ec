package secretstore

import (
	"sort"
	"sync"
	"time"

	"github.com/awnumar/memguard"
)

type itemKey struct {
	service        string
	account        string
	synchronizable bool
}

type memoryItem struct {
	entry Entry
	// sealed is nil for an empty secret; memguard refuses empty enclaves.
	sealed *memguard.Enclave
}

// MemoryStore keeps items in process memory with each secret sealed in a
// memguard enclave. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[itemKey]*memoryItem
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[itemKey]*memoryItem), now: time.Now}
}

func (s *MemoryStore) Put(item Item) error {
	var sealed *memguard.Enclave
	if len(item.Secret) > 0 {
		// NewEnclave wipes its argument.
		sealed = memguard.NewEnclave(append([]byte{}, item.Secret...))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := itemKey{item.Service, item.Account, item.Synchronizable}
	now := s.now().UTC()
	entry := item.Entry()
	entry.CreatedAt, entry.ModifiedAt = now, now
	if old, ok := s.items[k]; ok {
		entry.CreatedAt = old.entry.CreatedAt
	}
	s.items[k] = &memoryItem{entry: entry, sealed: sealed}
	return nil
}

func (s *MemoryStore) Get(service, account string, sync Sync) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, scope := range sync.Scopes() {
		mi, ok := s.items[itemKey{service, account, scope}]
		if !ok {
			continue
		}
		secret := []byte{}
		if mi.sealed != nil {
			buf, err := mi.sealed.Open()
			if err != nil {
				return Item{}, unavailable("get", service, account, err)
			}
			secret = append(secret, buf.Bytes()...)
			buf.Destroy()
		}
		e := mi.entry
		return Item{
			Service:        e.Service,
			Account:        e.Account,
			Label:          e.Label,
			Secret:         secret,
			Synchronizable: e.Synchronizable,
			Accessibility:  e.Accessibility,
			CreatedAt:      e.CreatedAt,
			ModifiedAt:     e.ModifiedAt,
		}, nil
	}
	return Item{}, ErrNotFound
}

func (s *MemoryStore) Enumerate(f Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Entry{}
	for _, mi := range s.items {
		if f.Match(mi.entry) {
			out = append(out, mi.entry)
		}
	}
	sortEntries(out)
	return out, nil
}

func (s *MemoryStore) Delete(service, account string, sync Sync) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, scope := range sync.Scopes() {
		k := itemKey{service, account, scope}
		if _, ok := s.items[k]; ok {
			delete(s.items, k)
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Service != b.Service {
			return a.Service < b.Service
		}
		if a.Account != b.Account {
			return a.Account < b.Account
		}
		return !a.Synchronizable && b.Synchronizable
	})
}
