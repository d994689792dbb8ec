package credential

import (
	"github.com/n1/credkit/internal/log"
	"github.com/n1/credkit/internal/secretstore"
)

// Query is a single credential operation. Set the identity fields on the
// embedded Record, then call Save, Fetch, FetchAll or Delete. A Query is
// not safe for concurrent use.
type Query struct {
	Record

	store secretstore.Store
	ctx   *Context
}

// NewQuery returns an empty query against store that takes its defaults
// from DefaultContext.
func NewQuery(store secretstore.Store) *Query {
	return &Query{store: store, ctx: DefaultContext}
}

// WithContext makes q read its defaults from ctx.
func (q *Query) WithContext(ctx *Context) *Query {
	q.ctx = ctx
	return q
}

func (q *Query) requireIdentity(op string) error {
	if q.Service == "" {
		return &ArgumentError{Op: op, Field: "service"}
	}
	if q.Account == "" {
		return &ArgumentError{Op: op, Field: "account"}
	}
	return nil
}

func (q *Query) accessibility() secretstore.Accessibility {
	if q.Accessibility != "" {
		return q.Accessibility
	}
	if q.ctx != nil {
		return q.ctx.Accessibility()
	}
	return ""
}

// Save stores the payload under the query's identity.
//
// With SyncYes or SyncNo the record in that scope is created or replaced.
// With SyncAny every existing record of the identity is updated in place,
// and a local record is created when there is none. An empty Label keeps
// the label already stored.
func (q *Query) Save() error {
	if err := q.requireIdentity("save"); err != nil {
		return err
	}
	if !q.hasSecret {
		return &ArgumentError{Op: "save", Field: "secret"}
	}

	existing, err := q.store.Enumerate(secretstore.Filter{
		Service: q.Service,
		Account: q.Account,
		Sync:    q.SyncMode,
	})
	if err != nil {
		return err
	}
	current := make(map[bool]secretstore.Entry, len(existing))
	for _, e := range existing {
		if e.Service == q.Service && e.Account == q.Account {
			current[e.Synchronizable] = e
		}
	}

	var scopes []bool
	switch q.SyncMode {
	case SyncYes:
		scopes = []bool{true}
	case SyncNo:
		scopes = []bool{false}
	default:
		for _, scope := range SyncAny.Scopes() {
			if _, ok := current[scope]; ok {
				scopes = append(scopes, scope)
			}
		}
		if len(scopes) == 0 {
			scopes = []bool{false}
		}
	}

	acc := q.accessibility()
	for _, scope := range scopes {
		item := secretstore.Item{
			Service:        q.Service,
			Account:        q.Account,
			Label:          q.Label,
			Secret:         q.secret,
			Synchronizable: scope,
			Accessibility:  acc,
		}
		old, update := current[scope]
		if update {
			if item.Label == "" {
				item.Label = old.Label
			}
			if item.Accessibility == "" {
				item.Accessibility = old.Accessibility
			}
		}
		if err := q.store.Put(item); err != nil {
			return err
		}
		log.Debug().
			Str("service", q.Service).
			Str("account", q.Account).
			Bool("synchronizable", scope).
			Bool("update", update).
			Msg("Saved credential")
	}
	return nil
}

// Fetch loads the record matching the query's identity and scope. On
// success the payload, Label, Accessibility and timestamps are replaced by
// the stored values; on failure the query is left unchanged.
func (q *Query) Fetch() error {
	if err := q.requireIdentity("fetch"); err != nil {
		return err
	}

	item, err := q.store.Get(q.Service, q.Account, q.SyncMode)
	if err != nil {
		log.Debug().
			Str("service", q.Service).
			Str("account", q.Account).
			Stringer("sync", q.SyncMode).
			Err(err).
			Msg("Fetch failed")
		return err
	}

	q.SetSecret(item.Secret)
	q.Label = item.Label
	q.Accessibility = item.Accessibility
	q.CreatedAt = item.CreatedAt
	q.ModifiedAt = item.ModifiedAt
	return nil
}

// FetchAll lists the metadata of every record in scope. Empty Service or
// Account match anything. Secrets are never returned.
func (q *Query) FetchAll() ([]secretstore.Entry, error) {
	entries, err := q.store.Enumerate(secretstore.Filter{
		Service: q.Service,
		Account: q.Account,
		Sync:    q.SyncMode,
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []secretstore.Entry{}
	}
	return entries, nil
}

// Delete removes the record matching the query's identity. With SyncAny
// the records in both scopes are removed.
func (q *Query) Delete() error {
	if err := q.requireIdentity("delete"); err != nil {
		return err
	}
	if err := q.store.Delete(q.Service, q.Account, q.SyncMode); err != nil {
		return err
	}
	log.Debug().
		Str("service", q.Service).
		Str("account", q.Account).
		Stringer("sync", q.SyncMode).
		Msg("Deleted credential")
	return nil
}
