//go:build !darwin

package main

import (
	"errors"
	"io"

	"github.com/n1/credkit/internal/secretstore"
)

func keychainStore() (secretstore.Store, io.Closer, error) {
	return nil, nil, errors.New("the keychain store is only available on macOS")
}
