package sqlite

import (
	"os"
	"strings"
)

// Migrate applies the schema file statement by statement. Every statement
// is idempotent (CREATE ... IF NOT EXISTS), so re-running is safe.
func (s *Sqlite) Migrate(schemaPath string) error {
	b, err := os.ReadFile(schemaPath)
	if err != nil {
		return err
	}
	stmts := strings.Split(string(b), ";\n")

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
