package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// blobVersion prefixes every sealed blob so the layout can change later.
const blobVersion byte = 1

var (
	// ErrInvalidData is returned when the data to be decrypted is invalid
	ErrInvalidData = errors.New("invalid encrypted data")
)

// EncryptBlob seals plaintext with AES-GCM. The associated data is
// authenticated but not stored; DecryptBlob must be given the same bytes.
// The returned blob format is: version (1 byte) + nonce (12 bytes) + ciphertext
func EncryptBlob(key, plaintext, associated []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 1+gcm.NonceSize(), 1+gcm.NonceSize()+len(plaintext)+gcm.Overhead())
	out[0] = blobVersion
	nonce := out[1:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(out, nonce, plaintext, associated), nil
}

// DecryptBlob opens a blob produced by EncryptBlob.
func DecryptBlob(key, blob, associated []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(blob) < 1+gcm.NonceSize() || blob[0] != blobVersion {
		return nil, ErrInvalidData
	}
	nonce, ciphertext := blob[1:1+gcm.NonceSize()], blob[1+gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, associated)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	// Ensure we return an empty slice rather than nil for empty plaintext
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
