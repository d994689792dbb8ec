package credential

import (
	"errors"
	"fmt"

	"github.com/n1/credkit/internal/secretstore"
)

var (
	// ErrInvalidArgument is matched by every *ArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when no record matches in the queried scope.
	ErrNotFound = secretstore.ErrNotFound
	// ErrStoreUnavailable matches failures reported by the backing store.
	ErrStoreUnavailable = secretstore.ErrUnavailable
)

// ArgumentError reports a required query field that was not set.
type ArgumentError struct {
	Op    string
	Field string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("credential %s: missing %s", e.Op, e.Field)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
