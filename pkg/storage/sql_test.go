package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

func openTestSQLite(t *testing.T, opts ...SQLStoreOption) *SQLStore {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLStore(db, append([]SQLStoreOption{WithSQLDialect(DialectSQLite)}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, store.CreateTable(context.Background()))
	return store
}

func TestSQLStore_SQLite(t *testing.T) {
	runStoreContract(t, openTestSQLite(t))
}

func TestSQLStore_SQLiteCustomTable(t *testing.T) {
	store := openTestSQLite(t, WithSQLTableName("prefs"))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "selectedTeam", `"teamA"`))
	v, ok, err := store.Get(ctx, "selectedTeam")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"teamA"`, v)
}

func TestSQLStore_CreateTableIdempotent(t *testing.T) {
	store := openTestSQLite(t)
	assert.NoError(t, store.CreateTable(context.Background()))
}

func TestSQLStore_InvalidTableName(t *testing.T) {
	_, err := NewSQLStore(nil, WithSQLTableName("kv; DROP TABLE users"))
	assert.Error(t, err)
}

func TestSQLStore_PostgresQueries(t *testing.T) {
	store, err := NewSQLStore(nil)
	require.NoError(t, err)

	assert.Equal(t, DialectPostgreSQL, store.Dialect())
	assert.Equal(t, "pgx", store.Dialect().DriverName())
	assert.Equal(t, "SELECT store_value FROM teamstore_kv WHERE store_key = $1", normalizeQuery(store.selectQuery()))
	assert.Equal(t, "DELETE FROM teamstore_kv WHERE store_key = $1", normalizeQuery(store.deleteQuery()))
	assert.Contains(t, normalizeQuery(store.upsertQuery()), "VALUES ($1, $2, NOW()) ON CONFLICT (store_key) DO UPDATE")
}

func TestSQLStore_SQLiteQueries(t *testing.T) {
	store, err := NewSQLStore(nil, WithSQLDialect(DialectSQLite))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", store.Dialect().String())
	assert.Equal(t, "SELECT store_value FROM teamstore_kv WHERE store_key = ?", normalizeQuery(store.selectQuery()))
	assert.Contains(t, normalizeQuery(store.upsertQuery()), "VALUES (?, ?, CURRENT_TIMESTAMP)")
}

// TestSQLStore_Postgres runs against a live database when
// TEAMSTORE_TEST_POSTGRES_DSN is set.
func TestSQLStore_Postgres(t *testing.T) {
	dsn := os.Getenv("TEAMSTORE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEAMSTORE_TEST_POSTGRES_DSN not set")
	}

	store, err := Open(context.Background(), dsn, WithTableName("teamstore_kv_test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	runStoreContract(t, store)
}
