// Package sqlite opens the embedded campus database for single-node
// deployments.
package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

type Sqlite struct {
	Db *sql.DB
}

// New opens (creating if needed) the database at dsn. SQLite permits one
// writer, so the pool is pinned to a single connection; WAL keeps feed
// reads from queueing behind sends, and the busy timeout covers the
// remaining lock contention.
func New(dsn string) (*Sqlite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Sqlite{Db: db}, nil
}

func (s *Sqlite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}
