// persistence_sqlite.go: optional durable snapshot storage
//
// SaveToSQLite/LoadFromSQLite give a cache an on-disk home via
// database/sql and the pure-Go-free mattn/go-sqlite3 driver, storing
// the same gob snapshot serialize.go produces in a table with one row
// per name, so a process can keep several named caches in one file.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

const createSnapshotTableSQL = `
CREATE TABLE IF NOT EXISTS cachebox_snapshots (
	name       TEXT PRIMARY KEY,
	policy     INTEGER NOT NULL,
	saved_at   INTEGER NOT NULL,
	data       BLOB NOT NULL
)`

// SaveToSQLite serializes cache and upserts it into a
// cachebox_snapshots table in the sqlite3 database at path, under name.
func SaveToSQLite[K comparable, V any](cache Cache[K, V], path, name string, savedAtNanos int64) error {
	data, err := Save(cache)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return NewErrSerialization("open sqlite database", err)
	}
	defer db.Close()

	if _, err := db.Exec(createSnapshotTableSQL); err != nil {
		return NewErrSerialization("create snapshot table", err)
	}

	_, err = db.Exec(
		`INSERT INTO cachebox_snapshots (name, policy, saved_at, data)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET policy=excluded.policy, saved_at=excluded.saved_at, data=excluded.data`,
		name, int(cache.Policy()), savedAtNanos, data,
	)
	if err != nil {
		return NewErrSerialization("write snapshot row", err)
	}
	return nil
}

// LoadFromSQLite reads the named snapshot back from path and replays it
// into cache, the inverse of SaveToSQLite.
func LoadFromSQLite[K comparable, V any](cache Cache[K, V], path, name string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return NewErrSerialization("open sqlite database", err)
	}
	defer db.Close()

	var data []byte
	row := db.QueryRow(`SELECT data FROM cachebox_snapshots WHERE name = ?`, name)
	if err := row.Scan(&data); err != nil {
		return NewErrSerialization("read snapshot row", err)
	}

	return Load(cache, data)
}
