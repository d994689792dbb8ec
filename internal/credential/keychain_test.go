package credential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n1/credkit/internal/secretstore"
)

func TestKeychainConvenienceMethods(t *testing.T) {
	k := New(newFakeStore(), NewContext(""))

	require.NoError(t, k.SetPassword("SSToolkitTestPassword", testService, testAccount))

	pw, ok, err := k.Password(testService, testAccount)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SSToolkitTestPassword", pw)

	all, err := k.AllAccounts()
	require.NoError(t, err)
	assert.True(t, containsAccount(all, testService, testAccount))

	byService, err := k.AccountsForService(testService)
	require.NoError(t, err)
	assert.True(t, containsAccount(byService, testService, testAccount))

	deleted, err := k.DeleteSecret(testService, testAccount)
	require.NoError(t, err)
	assert.True(t, deleted)

	secret, err := k.Secret(testService, testAccount)
	require.NoError(t, err)
	assert.Nil(t, secret)

	_, ok, err = k.Password(testService, testAccount)
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err = k.DeleteSecret(testService, testAccount)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestKeychainSecretBytes(t *testing.T) {
	k := New(newFakeStore(), NewContext(""))
	raw := []byte{0x00, 0xde, 0xad, 0xbe, 0xef}

	require.NoError(t, k.SetSecret(raw, testService, testAccount))
	got, err := k.Secret(testService, testAccount)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestKeychainMissingFields(t *testing.T) {
	k := New(newFakeStore(), NewContext(""))

	assert.ErrorIs(t, k.SetPassword("x", "", testAccount), ErrInvalidArgument)
	_, err := k.Secret(testService, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = k.DeleteSecret("", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestKeychainPropagatesStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.err = &secretstore.Error{Op: "get", Err: errors.New("locked")}
	k := New(store, NewContext(""))

	_, err := k.Secret(testService, testAccount)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, _, err = k.Password(testService, testAccount)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = k.DeleteSecret(testService, testAccount)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestKeychainAccessibility(t *testing.T) {
	store := newFakeStore()
	ctx := NewContext("")
	k := New(store, ctx)
	assert.Empty(t, k.Accessibility())

	k.SetAccessibility("ak")
	assert.Equal(t, secretstore.Accessibility("ak"), ctx.Accessibility())

	require.NoError(t, k.SetPassword("x", testService, testAccount))
	q := k.Query(testService, testAccount)
	require.NoError(t, q.Fetch())
	assert.Equal(t, secretstore.Accessibility("ak"), q.Accessibility)
}

func TestPackageLevelFunctions(t *testing.T) {
	store := newFakeStore()
	prevStore, prevAcc := secretstore.Default, DefaultContext.Accessibility()
	secretstore.Default = store
	t.Cleanup(func() {
		secretstore.Default = prevStore
		DefaultContext.SetAccessibility(prevAcc)
	})

	SetAccessibility("cku")
	assert.Equal(t, secretstore.Accessibility("cku"), Accessibility())

	require.NoError(t, SetPassword("pw", testService, testAccount))
	require.NoError(t, SetSecret([]byte("raw"), testService, "other"))

	pw, ok, err := Password(testService, testAccount)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pw", pw)

	raw, err := Secret(testService, "other")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), raw)

	it, err := store.Get(testService, testAccount, SyncAny)
	require.NoError(t, err)
	assert.Equal(t, secretstore.Accessibility("cku"), it.Accessibility)

	all, err := AllAccounts()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byService, err := AccountsForService(testService)
	require.NoError(t, err)
	assert.Len(t, byService, 2)

	deleted, err := DeleteSecret(testService, testAccount)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestSaveFetchListDeleteScenario(t *testing.T) {
	store := newFakeStore()

	q := NewQuery(store)
	q.Service, q.Account, q.Label = "Svc", "Acct", "L"
	q.SetPassword("Pwd")
	require.NoError(t, q.Save())

	q = NewQuery(store)
	q.Service, q.Account = "Svc", "Acct"
	require.NoError(t, q.Fetch())
	pw, _ := q.Password()
	assert.Equal(t, "Pwd", pw)

	q = NewQuery(store)
	q.Service = "Svc"
	entries, err := q.FetchAll()
	require.NoError(t, err)
	assert.True(t, containsAccount(entries, "Svc", "Acct"))

	q = NewQuery(store)
	q.Service, q.Account = "Svc", "Acct"
	require.NoError(t, q.Delete())
	assert.ErrorIs(t, q.Fetch(), ErrNotFound)
}

func TestContextConcurrentAccess(t *testing.T) {
	ctx := NewContext("ak")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			ctx.SetAccessibility("ck")
		}
	}()
	for i := 0; i < 1000; i++ {
		_ = ctx.Accessibility()
	}
	<-done
	assert.Equal(t, secretstore.Accessibility("ck"), ctx.Accessibility())
}
