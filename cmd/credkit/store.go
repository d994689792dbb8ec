package main

import (
	"io"

	"github.com/n1/credkit/internal/config"
	"github.com/n1/credkit/internal/secretstore"
)

// openStore returns the store named by cfg and, when it holds resources,
// a closer for them.
func openStore(cfg config.File) (secretstore.Store, io.Closer, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return secretstore.NewMemoryStore(), nil, nil
	case config.StoreKeyring:
		return secretstore.NewKeyringStore(), nil, nil
	case config.StoreSQLite:
		s, err := secretstore.OpenSQLStore(expandPath(cfg.Database))
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.StoreKeychain:
		return keychainStore()
	default:
		return secretstore.Default, nil, nil
	}
}
