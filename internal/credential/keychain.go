package credential

import (
	"errors"

	"github.com/n1/credkit/internal/secretstore"
)

// Keychain offers one-call access to password-style credentials in any
// synchronization scope.
type Keychain struct {
	store secretstore.Store
	ctx   *Context
}

// New returns a Keychain over store. A nil ctx selects DefaultContext.
func New(store secretstore.Store, ctx *Context) *Keychain {
	if ctx == nil {
		ctx = DefaultContext
	}
	return &Keychain{store: store, ctx: ctx}
}

// Query returns a query for (service, account) sharing k's store and context.
func (k *Keychain) Query(service, account string) *Query {
	q := NewQuery(k.store).WithContext(k.ctx)
	q.Service = service
	q.Account = account
	return q
}

// SetSecret saves secret for (service, account), updating any existing
// record in place.
func (k *Keychain) SetSecret(secret []byte, service, account string) error {
	q := k.Query(service, account)
	q.SetSecret(secret)
	return q.Save()
}

// SetPassword is SetSecret for a string password.
func (k *Keychain) SetPassword(password, service, account string) error {
	return k.SetSecret([]byte(password), service, account)
}

// Secret returns the stored secret, or nil without error when there is none.
func (k *Keychain) Secret(service, account string) ([]byte, error) {
	q := k.Query(service, account)
	if err := q.Fetch(); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return q.Secret(), nil
}

// Password is Secret as a string; ok is false when nothing is stored.
func (k *Keychain) Password(service, account string) (password string, ok bool, err error) {
	secret, err := k.Secret(service, account)
	if err != nil || secret == nil {
		return "", false, err
	}
	return string(secret), true, nil
}

// DeleteSecret removes the credential from both scopes. It reports false
// when nothing was stored.
func (k *Keychain) DeleteSecret(service, account string) (bool, error) {
	err := k.Query(service, account).Delete()
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AllAccounts lists the metadata of every stored credential.
func (k *Keychain) AllAccounts() ([]secretstore.Entry, error) {
	return k.AccountsForService("")
}

// AccountsForService lists the credentials stored under service.
func (k *Keychain) AccountsForService(service string) ([]secretstore.Entry, error) {
	return k.Query(service, "").FetchAll()
}

// Accessibility returns the default token of k's context.
func (k *Keychain) Accessibility() secretstore.Accessibility { return k.ctx.Accessibility() }

// SetAccessibility changes the default token of k's context.
func (k *Keychain) SetAccessibility(token secretstore.Accessibility) { k.ctx.SetAccessibility(token) }

func defaultKeychain() *Keychain { return New(secretstore.Default, DefaultContext) }

// The package-level helpers below operate on secretstore.Default and
// DefaultContext.

// SetSecret saves secret for (service, account) in the default store.
func SetSecret(secret []byte, service, account string) error {
	return defaultKeychain().SetSecret(secret, service, account)
}

// SetPassword saves a string password in the default store.
func SetPassword(password, service, account string) error {
	return defaultKeychain().SetPassword(password, service, account)
}

// Secret returns the stored secret, or nil when there is none.
func Secret(service, account string) ([]byte, error) {
	return defaultKeychain().Secret(service, account)
}

// Password returns the stored password and whether one exists.
func Password(service, account string) (string, bool, error) {
	return defaultKeychain().Password(service, account)
}

// DeleteSecret removes a credential and reports whether one existed.
func DeleteSecret(service, account string) (bool, error) {
	return defaultKeychain().DeleteSecret(service, account)
}

// AllAccounts lists every credential in the default store.
func AllAccounts() ([]secretstore.Entry, error) {
	return defaultKeychain().AllAccounts()
}

// AccountsForService lists the credentials stored under service.
func AccountsForService(service string) ([]secretstore.Entry, error) {
	return defaultKeychain().AccountsForService(service)
}

// Accessibility returns the process-wide default token.
func Accessibility() secretstore.Accessibility { return DefaultContext.Accessibility() }

// SetAccessibility changes the process-wide default token.
func SetAccessibility(token secretstore.Accessibility) { DefaultContext.SetAccessibility(token) }
