package crypto

import "crypto/rand"

// KeySize is the length of master and derived keys (AES-256).
const KeySize = 32

// NewMasterKey returns a fresh random key of KeySize bytes.
func NewMasterKey() ([]byte, error) {
	buf := make([]byte, KeySize)
	_, err := rand.Read(buf)
	return buf, err
}
