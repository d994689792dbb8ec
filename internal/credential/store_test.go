package credential

import (
	"sort"
	"sync"

	"github.com/n1/credkit/internal/secretstore"
)

type fakeKey struct {
	service, account string
	synced           bool
}

// fakeStore is a plain map-backed secretstore.Store that counts calls.
type fakeStore struct {
	mu    sync.Mutex
	items map[fakeKey]secretstore.Item
	calls int
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[fakeKey]secretstore.Item{}}
}

func (s *fakeStore) Put(item secretstore.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	item.Secret = append([]byte{}, item.Secret...)
	s.items[fakeKey{item.Service, item.Account, item.Synchronizable}] = item
	return nil
}

func (s *fakeStore) Get(service, account string, sync secretstore.Sync) (secretstore.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return secretstore.Item{}, s.err
	}
	for _, scope := range sync.Scopes() {
		if it, ok := s.items[fakeKey{service, account, scope}]; ok {
			it.Secret = append([]byte{}, it.Secret...)
			return it, nil
		}
	}
	return secretstore.Item{}, secretstore.ErrNotFound
}

func (s *fakeStore) Enumerate(f secretstore.Filter) ([]secretstore.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := []secretstore.Entry{}
	for _, it := range s.items {
		if f.Match(it.Entry()) {
			out = append(out, it.Entry())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Service != out[j].Service {
			return out[i].Service < out[j].Service
		}
		return out[i].Account < out[j].Account
	})
	return out, nil
}

func (s *fakeStore) Delete(service, account string, sync secretstore.Sync) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	found := false
	for _, scope := range sync.Scopes() {
		k := fakeKey{service, account, scope}
		if _, ok := s.items[k]; ok {
			delete(s.items, k)
			found = true
		}
	}
	if !found {
		return secretstore.ErrNotFound
	}
	return nil
}
