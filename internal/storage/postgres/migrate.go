package postgres

import (
	"os"
	"strings"
)

// Migrate applies the schema file statement by statement; statements are
// idempotent, so re-running is safe.
func (s *Postgres) Migrate(schemaPath string) error {
	b, err := os.ReadFile(schemaPath)
	if err != nil {
		return err
	}
	stmts := strings.Split(string(b), ";")

	for _, stmt := range stmts {
		st := strings.TrimSpace(stmt)
		if st == "" {
			continue
		}
		if _, err = s.Db.Exec(st); err != nil {
			return err
		}
	}
	return nil
}
