// Package credential implements credential queries: validated save, fetch,
// enumerate and delete operations over a secretstore.Store, plus a small
// facade for the common password cases.
package credential

import (
	"time"

	"github.com/n1/credkit/internal/payload"
	"github.com/n1/credkit/internal/secretstore"
)

// SyncMode selects the synchronization scope of a query.
type SyncMode = secretstore.Sync

const (
	SyncAny = secretstore.SyncAny
	SyncYes = secretstore.SyncYes
	SyncNo  = secretstore.SyncNo
)

// Record is the mutable state of a Query. The secret bytes and the secret
// object are two views of one payload: the bytes are kept and the object is
// decoded from them on demand.
type Record struct {
	Service       string
	Account       string
	Label         string
	SyncMode      SyncMode
	Accessibility secretstore.Accessibility

	// Set by Fetch.
	CreatedAt  time.Time
	ModifiedAt time.Time

	secret    []byte
	hasSecret bool
}

// SetSecret sets the payload to a copy of b.
func (r *Record) SetSecret(b []byte) {
	r.secret = append([]byte{}, b...)
	r.hasSecret = true
}

// Secret returns the payload bytes, or nil when no payload is set.
func (r *Record) Secret() []byte {
	if !r.hasSecret {
		return nil
	}
	return r.secret
}

// HasSecret reports whether a payload is set.
func (r *Record) HasSecret() bool { return r.hasSecret }

func (r *Record) SetPassword(password string) { r.SetSecret([]byte(password)) }

// Password returns the payload as a string and whether one is set.
func (r *Record) Password() (string, bool) {
	if !r.hasSecret {
		return "", false
	}
	return string(r.secret), true
}

// SetObject encodes m and makes it the payload.
func (r *Record) SetObject(m payload.Map) error {
	data, err := payload.Marshal(m)
	if err != nil {
		return err
	}
	r.secret = data
	r.hasSecret = true
	return nil
}

// Object decodes the payload into a new map on every call, so changes to a
// returned map never reach the stored bytes. It returns nil without error
// when no payload is set.
func (r *Record) Object() (payload.Map, error) {
	if !r.hasSecret {
		return nil, nil
	}
	return payload.Unmarshal(r.secret)
}
