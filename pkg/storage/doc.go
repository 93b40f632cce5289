// Package storage defines the persistent key-value store that backs a
// selection, plus the backends teamstore ships with.
//
// A Store is a synchronous, string-keyed get/set API. Values are opaque
// strings; the selection package stores JSON text in them. Backends:
//
//   - Unavailable: the store of a context with no persistence (pre-render,
//     headless). IsAvailable reports false and selections never touch it.
//   - MemoryStore: process-local map, for tests and single-process use.
//   - FileStore: one JSON document on disk, the closest analogue of an
//     origin-scoped browser storage area.
//   - RedisStore: go-redis client, shared across processes.
//   - SQLStore: database/sql with SQLite (modernc.org/sqlite) or
//     PostgreSQL (pgx) dialects.
//   - S3Store: one object per key in an S3 bucket.
//
// Open selects a backend from a DSN:
//
//	store, err := storage.Open(ctx, "sqlite:///var/lib/teamstore/state.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package storage
