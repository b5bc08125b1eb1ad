// Package postgres connects to an external campus database for
// deployments that outgrow the embedded store.
package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

type Postgres struct {
	Db *sql.DB
}

// New opens a pool against dsn and verifies the server is reachable
// before handing it out.
func New(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{Db: db}, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}
