package main

import (
	"io"

	"github.com/n1/credkit/internal/secretstore"
)

func keychainStore() (secretstore.Store, io.Closer, error) {
	return secretstore.NewKeychainStore(), nil, nil
}
