package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey derives a KeySize subkey of master for one purpose. Distinct
// purposes yield independent keys.
func DeriveKey(master []byte, purpose string) ([]byte, error) {
	if len(master) < KeySize {
		return nil, fmt.Errorf("master key too short: %d bytes", len(master))
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}
