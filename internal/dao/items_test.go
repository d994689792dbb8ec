package dao

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/n1/credkit/internal/crypto"
	"github.com/n1/credkit/internal/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "items_dao_test.db")
	t.Logf("Test database path: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err, "Opening database failed")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Bootstrap(db), "Creating schema failed")
	return db
}

func TestItemDAO(t *testing.T) {
	db := setupTestDB(t)
	dao := NewItemDAO(db)

	_, err := dao.Get("svc", "acct", false)
	assert.ErrorIs(t, err, ErrNotFound, "Expected ErrNotFound for missing item")

	rec := ItemRecord{Service: "svc", Account: "acct", Label: "L", Accessibility: "ak", Secret: []byte("pwd")}
	require.NoError(t, dao.Put(rec), "Put failed")

	got, err := dao.Get("svc", "acct", false)
	require.NoError(t, err, "Get failed")
	assert.Equal(t, "L", got.Label)
	assert.Equal(t, "ak", got.Accessibility)
	assert.Equal(t, []byte("pwd"), got.Secret)
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set")

	_, err = dao.Get("svc", "acct", true)
	assert.ErrorIs(t, err, ErrNotFound, "Local item must not be visible in the synced scope")

	rec.Secret = []byte("new")
	rec.Label = "L2"
	require.NoError(t, dao.Put(rec), "Update failed")

	updated, err := dao.Get("svc", "acct", false)
	require.NoError(t, err)
	assert.Equal(t, got.ID, updated.ID, "Update should keep the row")
	assert.Equal(t, []byte("new"), updated.Secret)
	assert.Equal(t, "L2", updated.Label)
	assert.Equal(t, got.CreatedAt, updated.CreatedAt, "CreatedAt should not change")

	synced := ItemRecord{Service: "svc", Account: "acct", Synchronizable: true, Secret: []byte("cloud")}
	require.NoError(t, dao.Put(synced))
	require.NoError(t, dao.Put(ItemRecord{Service: "other", Account: "x", Secret: []byte("1")}))

	all, err := dao.List(ItemQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, r := range all {
		assert.Nil(t, r.Secret, "List must not load secrets")
	}

	bySvc, err := dao.List(ItemQuery{Service: "svc"})
	require.NoError(t, err)
	assert.Len(t, bySvc, 2)

	onlySynced, err := dao.List(ItemQuery{Service: "svc", Scopes: []bool{true}})
	require.NoError(t, err)
	require.Len(t, onlySynced, 1)
	assert.True(t, onlySynced[0].Synchronizable)

	none, err := dao.List(ItemQuery{Service: "nope"})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)

	require.NoError(t, dao.Delete("svc", "acct", false), "Delete failed")
	assert.ErrorIs(t, dao.Delete("svc", "acct", false), ErrNotFound, "Second delete should miss")

	_, err = dao.Get("svc", "acct", true)
	assert.NoError(t, err, "Synced item survives deleting the local one")
}

func TestSecureItemDAO(t *testing.T) {
	db := setupTestDB(t)

	key, err := crypto.NewMasterKey()
	require.NoError(t, err)
	dao := NewSecureItemDAO(db, key)

	require.NoError(t, dao.Put(ItemRecord{Service: "svc", Account: "acct", Secret: []byte("secure_value")}))

	rec, err := dao.Get("svc", "acct", false)
	require.NoError(t, err)
	assert.Equal(t, []byte("secure_value"), rec.Secret)

	var raw []byte
	require.NoError(t, db.QueryRow("SELECT secret FROM items WHERE service = 'svc'").Scan(&raw))
	assert.NotEqual(t, []byte("secure_value"), raw, "Secret should be sealed in the database")

	wrongKey, err := crypto.NewMasterKey()
	require.NoError(t, err)
	_, err = NewSecureItemDAO(db, wrongKey).Get("svc", "acct", false)
	assert.Error(t, err, "Get with wrong key should fail")

	// Moving a sealed secret onto another identity must not decrypt.
	_, err = db.Exec("UPDATE items SET account = 'stolen' WHERE service = 'svc'")
	require.NoError(t, err)
	_, err = dao.Get("svc", "stolen", false)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestItemDAODatabaseErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dao := NewItemDAO(db)
	boom := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT id, service, account").WillReturnError(boom)
	_, err = dao.Get("svc", "acct", false)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectExec("INSERT INTO items").WillReturnError(boom)
	assert.ErrorIs(t, dao.Put(ItemRecord{Service: "svc", Account: "acct", Secret: []byte("x")}), boom)

	mock.ExpectExec("DELETE FROM items").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, dao.Delete("svc", "acct", false), ErrNotFound)

	mock.ExpectQuery("SELECT id, service, account").WillReturnError(boom)
	_, err = dao.List(ItemQuery{})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
