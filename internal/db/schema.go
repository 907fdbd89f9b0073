package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// note: as per SQLites's manual suggestions, we do not use 'AUTOINCREMENT' on
// the 'INTEGER PRIMARY KEY' columns.
var schema_stmts = []string{
	`PRAGMA journal_mode=WAL;`,
	`PRAGMA foreign_keys=ON;`,
	`CREATE TABLE IF NOT EXISTS exports (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		depth INTEGER NOT NULL DEFAULT 0,
		node_count INTEGER NOT NULL DEFAULT 0,
		UNIQUE(name)
	);`,
	`CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY,
		export_id INTEGER NOT NULL REFERENCES exports(id) ON UPDATE CASCADE ON DELETE CASCADE,
		parent_id INTEGER REFERENCES nodes(id) ON DELETE CASCADE,
		ply INTEGER NOT NULL,
		ord INTEGER NOT NULL,
		from_sq INTEGER NOT NULL,
		to_sq INTEGER NOT NULL,
		CHECK (from_sq BETWEEN 0 AND 63),
		CHECK (to_sq BETWEEN 0 AND 63)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(export_id, parent_id, ord);`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_parent_id ON nodes(parent_id);`,
}

type Store struct {
	db *sqlx.DB
}

func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// keep it predictable; foreign_keys is a per-connection pragma.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	for _, stmt := range schema_stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
