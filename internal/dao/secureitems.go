package dao

import (
	"database/sql"
	"fmt"

	"github.com/n1/credkit/internal/crypto"
)

// SecureItemDAO wraps ItemDAO and seals secrets with AES-GCM. Each sealed
// secret is bound to its identity and scope, so a row copied onto another
// identity fails to open.
type SecureItemDAO struct {
	dao *ItemDAO
	key []byte
}

// NewSecureItemDAO creates a new SecureItemDAO
func NewSecureItemDAO(db *sql.DB, key []byte) *SecureItemDAO {
	return &SecureItemDAO{
		dao: NewItemDAO(db),
		key: key,
	}
}

func identity(service, account string, synchronizable bool) []byte {
	scope := "local"
	if synchronizable {
		scope = "synced"
	}
	return []byte(service + "\x00" + account + "\x00" + scope)
}

// Get retrieves a record and opens its secret.
func (d *SecureItemDAO) Get(service, account string, synchronizable bool) (*ItemRecord, error) {
	rec, err := d.dao.Get(service, account, synchronizable)
	if err != nil {
		return nil, err
	}

	plaintext, err := crypto.DecryptBlob(d.key, rec.Secret, identity(service, account, synchronizable))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt item %s/%s: %w", service, account, err)
	}
	rec.Secret = plaintext
	return rec, nil
}

// Put seals the secret and stores the record.
func (d *SecureItemDAO) Put(rec ItemRecord) error {
	sealed, err := crypto.EncryptBlob(d.key, rec.Secret, identity(rec.Service, rec.Account, rec.Synchronizable))
	if err != nil {
		return fmt.Errorf("failed to encrypt item %s/%s: %w", rec.Service, rec.Account, err)
	}
	rec.Secret = sealed
	return d.dao.Put(rec)
}

// Delete removes a record.
func (d *SecureItemDAO) Delete(service, account string, synchronizable bool) error {
	return d.dao.Delete(service, account, synchronizable)
}

// List returns matching records without secrets.
func (d *SecureItemDAO) List(q ItemQuery) ([]ItemRecord, error) {
	return d.dao.List(q)
}
