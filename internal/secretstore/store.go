// Package secretstore defines the storage contract that credential queries
// run against, along with the backends that implement it.
//
// A store keeps at most one item per (service, account, synchronizable).
// Synchronizable items are the ones a platform may replicate to other
// devices; everything else is local-only.
package secretstore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no item matches in the requested scope.
	ErrNotFound = errors.New("secret not found")
	// ErrUnavailable marks failures of the backing store itself.
	ErrUnavailable = errors.New("secret store unavailable")
)

// Accessibility is an opaque policy token telling the backing store when a
// secret may be released. The empty token selects the store's own default.
type Accessibility string

// Sync selects which synchronization scope an operation targets.
type Sync int

const (
	SyncAny Sync = iota
	SyncYes
	SyncNo
)

func (s Sync) String() string {
	switch s {
	case SyncYes:
		return "yes"
	case SyncNo:
		return "no"
	default:
		return "any"
	}
}

// ParseSync accepts "any", "yes" and "no" (and the empty string as "any").
func ParseSync(s string) (Sync, error) {
	switch s {
	case "", "any":
		return SyncAny, nil
	case "yes":
		return SyncYes, nil
	case "no":
		return SyncNo, nil
	}
	return SyncAny, fmt.Errorf("invalid sync mode %q (want any, yes or no)", s)
}

// Matches reports whether an item with the given synchronizable flag is in scope.
func (s Sync) Matches(synchronizable bool) bool {
	switch s {
	case SyncYes:
		return synchronizable
	case SyncNo:
		return !synchronizable
	default:
		return true
	}
}

// Scopes lists the synchronizable values covered by s.
func (s Sync) Scopes() []bool {
	switch s {
	case SyncYes:
		return []bool{true}
	case SyncNo:
		return []bool{false}
	default:
		return []bool{false, true}
	}
}

// Item is a stored secret with its metadata.
type Item struct {
	Service        string
	Account        string
	Label          string
	Secret         []byte
	Synchronizable bool
	Accessibility  Accessibility
	CreatedAt      time.Time
	ModifiedAt     time.Time
}

// Entry is the metadata of an item without its secret.
type Entry struct {
	Service        string
	Account        string
	Label          string
	Synchronizable bool
	Accessibility  Accessibility
	CreatedAt      time.Time
	ModifiedAt     time.Time
}

// Entry strips the secret from it.
func (it Item) Entry() Entry {
	return Entry{
		Service:        it.Service,
		Account:        it.Account,
		Label:          it.Label,
		Synchronizable: it.Synchronizable,
		Accessibility:  it.Accessibility,
		CreatedAt:      it.CreatedAt,
		ModifiedAt:     it.ModifiedAt,
	}
}

// Filter narrows an enumeration. Empty Service or Account match anything.
type Filter struct {
	Service string
	Account string
	Sync    Sync
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if f.Service != "" && f.Service != e.Service {
		return false
	}
	if f.Account != "" && f.Account != e.Account {
		return false
	}
	return f.Sync.Matches(e.Synchronizable)
}

// Store is the capability credential queries depend on.
//
// Put inserts or replaces the item keyed by (Service, Account, Synchronizable).
// Get and Delete return ErrNotFound when nothing matches in scope; with
// SyncAny, Delete removes the item from both scopes. Enumerate never returns
// secrets and returns an empty slice when nothing matches.
type Store interface {
	Put(item Item) error
	Get(service, account string, sync Sync) (Item, error)
	Enumerate(f Filter) ([]Entry, error)
	Delete(service, account string, sync Sync) error
}

var Default Store // set in init of each platform file

// Error wraps a backend failure. It matches ErrUnavailable with errors.Is.
type Error struct {
	Op      string
	Service string
	Account string
	Err     error
}

func (e *Error) Error() string {
	if e.Service == "" && e.Account == "" {
		return fmt.Sprintf("secret store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("secret store %s %s/%s: %v", e.Op, e.Service, e.Account, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrUnavailable }

func unavailable(op, service, account string, err error) error {
	return &Error{Op: op, Service: service, Account: account, Err: err}
}
