package secretstore

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/n1/credkit/internal/crypto"
	"github.com/n1/credkit/internal/dao"
	"github.com/n1/credkit/internal/log"
	"github.com/n1/credkit/internal/migrations"
	"github.com/n1/credkit/internal/sqlite"
	"github.com/n1/credkit/internal/storeid"
)

// itemKeyContext separates the item-sealing key from other uses of the
// master key.
const itemKeyContext = "credkit/items/v1"

// SQLStore keeps items in a sqlite database with every secret sealed by a
// key derived from the database's master key.
type SQLStore struct {
	db    *sql.DB
	items *dao.SecureItemDAO
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *sql.DB, masterKey []byte) (*SQLStore, error) {
	key, err := crypto.DeriveKey(masterKey, itemKeyContext)
	if err != nil {
		return nil, fmt.Errorf("derive item key: %w", err)
	}
	return &SQLStore{db: db, items: dao.NewSecureItemDAO(db, key)}, nil
}

// OpenSQLStore opens (creating if needed) the database at path, migrates it
// and loads its master key from the OS keyring, generating one for a new
// database.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file '%s': %w", path, err)
	}
	store, err := openSQLStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func openSQLStore(db *sql.DB) (*SQLStore, error) {
	if err := migrations.Bootstrap(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	id, err := storeid.Ensure(db)
	if err != nil {
		return nil, err
	}
	mk, err := loadOrCreateMasterKey(id)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db, mk)
}

func loadOrCreateMasterKey(id string) ([]byte, error) {
	name := storeid.MasterKeyName(id)

	encoded, err := keyring.Get(storeid.KeyringService, name)
	if err == nil {
		mk, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(mk) != crypto.KeySize {
			return nil, fmt.Errorf("master key %s is corrupt", name)
		}
		log.Debug().Str("store_id", id).Msg("Loaded master key")
		return mk, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("failed to get master key from keyring: %w", err)
	}

	mk, err := crypto.NewMasterKey()
	if err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	if err := keyring.Set(storeid.KeyringService, name, base64.StdEncoding.EncodeToString(mk)); err != nil {
		return nil, fmt.Errorf("failed to store master key in keyring: %w", err)
	}
	log.Info().Str("store_id", id).Msg("Generated master key for new credential database")
	return mk, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Put(item Item) error {
	err := s.items.Put(dao.ItemRecord{
		Service:        item.Service,
		Account:        item.Account,
		Synchronizable: item.Synchronizable,
		Label:          item.Label,
		Accessibility:  string(item.Accessibility),
		Secret:         item.Secret,
	})
	if err != nil {
		return unavailable("put", item.Service, item.Account, err)
	}
	return nil
}

func (s *SQLStore) Get(service, account string, sync Sync) (Item, error) {
	for _, scope := range sync.Scopes() {
		rec, err := s.items.Get(service, account, scope)
		if errors.Is(err, dao.ErrNotFound) {
			continue
		}
		if err != nil {
			return Item{}, unavailable("get", service, account, err)
		}
		secret := rec.Secret
		if secret == nil {
			secret = []byte{}
		}
		return Item{
			Service:        rec.Service,
			Account:        rec.Account,
			Label:          rec.Label,
			Secret:         secret,
			Synchronizable: rec.Synchronizable,
			Accessibility:  Accessibility(rec.Accessibility),
			CreatedAt:      rec.CreatedAt,
			ModifiedAt:     rec.UpdatedAt,
		}, nil
	}
	return Item{}, ErrNotFound
}

func (s *SQLStore) Enumerate(f Filter) ([]Entry, error) {
	recs, err := s.items.List(dao.ItemQuery{Service: f.Service, Account: f.Account, Scopes: f.Sync.Scopes()})
	if err != nil {
		return nil, unavailable("enumerate", f.Service, f.Account, err)
	}
	out := make([]Entry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Entry{
			Service:        rec.Service,
			Account:        rec.Account,
			Label:          rec.Label,
			Synchronizable: rec.Synchronizable,
			Accessibility:  Accessibility(rec.Accessibility),
			CreatedAt:      rec.CreatedAt,
			ModifiedAt:     rec.UpdatedAt,
		})
	}
	return out, nil
}

func (s *SQLStore) Delete(service, account string, sync Sync) error {
	found := false
	for _, scope := range sync.Scopes() {
		err := s.items.Delete(service, account, scope)
		if errors.Is(err, dao.ErrNotFound) {
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
