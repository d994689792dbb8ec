// Package storeid gives each credential database a stable UUID. The UUID,
// not the file path, names the database's master key in the OS keyring, so
// moving the file does not orphan its key.
package storeid

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// MetadataKey is the metadata row holding the store UUID.
	MetadataKey = "store_uuid"

	// KeyringService is the keyring service under which master keys live.
	KeyringService = "credkit"

	keyNamePrefix = "credkit_store_"
)

// New generates a fresh store ID.
func New() string { return uuid.New().String() }

// MasterKeyName is the keyring account holding the master key of store id.
func MasterKeyName(id string) string { return keyNamePrefix + id }

// errNoID marks a database that has not been given an ID yet.
var errNoID = errors.New("store UUID not found in metadata")

// Get reads the store ID. The metadata table must exist (see migrations).
func Get(db *sql.DB) (string, error) {
	var id string
	err := db.QueryRow("SELECT value FROM metadata WHERE key = ?", MetadataKey).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errNoID
		}
		return "", fmt.Errorf("failed to query store UUID: %w", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("corrupt store UUID %q: %w", id, err)
	}
	return id, nil
}

// Ensure returns the store ID, generating and recording one on first use.
// A recorded ID that is not a UUID is an error.
func Ensure(db *sql.DB) (string, error) {
	id, err := Get(db)
	if !errors.Is(err, errNoID) {
		return id, err
	}

	id = New()
	if _, err := db.Exec("INSERT INTO metadata (key, value) VALUES (?, ?)", MetadataKey, id); err != nil {
		return "", fmt.Errorf("failed to store UUID: %w", err)
	}
	return id, nil
}
