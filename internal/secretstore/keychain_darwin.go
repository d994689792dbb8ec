//go:build darwin

package secretstore

import (
	"errors"

	gokeychain "github.com/keybase/go-keychain"
)

// Raw values of the kSecAttrAccessible constants. Tokens outside this table
// leave the item at the keychain default.
var accessibleByToken = map[Accessibility]gokeychain.Accessible{
	"ak":   gokeychain.AccessibleWhenUnlocked,
	"ck":   gokeychain.AccessibleAfterFirstUnlock,
	"dk":   gokeychain.AccessibleAlways,
	"akpu": gokeychain.AccessibleWhenPasscodeSetThisDeviceOnly,
	"aku":  gokeychain.AccessibleWhenUnlockedThisDeviceOnly,
	"cku":  gokeychain.AccessibleAfterFirstUnlockThisDeviceOnly,
	"dku":  gokeychain.AccessibleAccessibleAlwaysThisDeviceOnly,
}

// KeychainStore keeps generic-password items in the macOS Keychain, using
// the keychain's own synchronizable and accessibility attributes.
type KeychainStore struct{}

// NewKeychainStore creates a Keychain-backed store.
func NewKeychainStore() *KeychainStore { return &KeychainStore{} }

func keychainSync(synchronizable bool) gokeychain.Synchronizable {
	if synchronizable {
		return gokeychain.SynchronizableYes
	}
	return gokeychain.SynchronizableNo
}

func genericPassword(service, account string, synchronizable bool) gokeychain.Item {
	item := gokeychain.NewItem()
	item.SetSecClass(gokeychain.SecClassGenericPassword)
	if service != "" {
		item.SetService(service)
	}
	if account != "" {
		item.SetAccount(account)
	}
	item.SetSynchronizable(keychainSync(synchronizable))
	return item
}

func (s *KeychainStore) Put(item Item) error {
	query := genericPassword(item.Service, item.Account, item.Synchronizable)

	update := gokeychain.NewItem()
	update.SetData(item.Secret)
	if item.Label != "" {
		update.SetLabel(item.Label)
	}
	accessible, known := accessibleByToken[item.Accessibility]
	if known {
		update.SetAccessible(accessible)
	}

	err := gokeychain.UpdateItem(query, update)
	if errors.Is(err, gokeychain.ErrorItemNotFound) {
		add := genericPassword(item.Service, item.Account, item.Synchronizable)
		add.SetData(item.Secret)
		if item.Label != "" {
			add.SetLabel(item.Label)
		}
		if known {
			add.SetAccessible(accessible)
		}
		err = gokeychain.AddItem(add)
	}
	if err != nil {
		return unavailable("put", item.Service, item.Account, err)
	}
	return nil
}

func (s *KeychainStore) Get(service, account string, sync Sync) (Item, error) {
	for _, scope := range sync.Scopes() {
		query := genericPassword(service, account, scope)
		query.SetMatchLimit(gokeychain.MatchLimitOne)
		query.SetReturnAttributes(true)
		query.SetReturnData(true)

		results, err := gokeychain.QueryItem(query)
		if errors.Is(err, gokeychain.ErrorItemNotFound) || (err == nil && len(results) == 0) {
			continue
		}
		if err != nil {
			return Item{}, unavailable("get", service, account, err)
		}
		r := results[0]
		secret := r.Data
		if secret == nil {
			secret = []byte{}
		}
		return Item{
			Service:        r.Service,
			Account:        r.Account,
			Label:          r.Label,
			Secret:         secret,
			Synchronizable: scope,
			CreatedAt:      r.CreationDate,
			ModifiedAt:     r.ModificationDate,
		}, nil
	}
	return Item{}, ErrNotFound
}

func (s *KeychainStore) Enumerate(f Filter) ([]Entry, error) {
	out := []Entry{}
	for _, scope := range f.Sync.Scopes() {
		query := genericPassword(f.Service, f.Account, scope)
		query.SetMatchLimit(gokeychain.MatchLimitAll)
		query.SetReturnAttributes(true)

		results, err := gokeychain.QueryItem(query)
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			continue
		}
		if err != nil {
			return nil, unavailable("enumerate", f.Service, f.Account, err)
		}
		for _, r := range results {
			out = append(out, Entry{
				Service:        r.Service,
				Account:        r.Account,
				Label:          r.Label,
				Synchronizable: scope,
				CreatedAt:      r.CreationDate,
				ModifiedAt:     r.ModificationDate,
			})
		}
	}
	sortEntries(out)
	return out, nil
}

func (s *KeychainStore) Delete(service, account string, sync Sync) error {
	found := false
	for _, scope := range sync.Scopes() {
		err := gokeychain.DeleteItem(genericPassword(service, account, scope))
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
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
	return nil
}
