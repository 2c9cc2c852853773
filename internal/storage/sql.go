package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"todoboard-backend/internal/db"
)

// SQL stores keys in the kv_store table of a postgres or sqlite database.
type SQL struct {
	db *sql.DB

	getQuery    string
	upsertQuery string
	deleteQuery string
}

// NewSQL creates the kv_store table if needed.
func NewSQL(database *sql.DB, driver db.Driver) (*SQL, error) {
	p := func(n int) string { return db.Placeholder(driver, n) }

	s := &SQL{
		db: database,

		getQuery: `SELECT value FROM kv_store WHERE key = ` + p(1),

		upsertQuery: `
			INSERT INTO kv_store (key, value, updated_at)
			VALUES (` + p(1) + `, ` + p(2) + `, CURRENT_TIMESTAMP)
			ON CONFLICT (key) DO UPDATE SET
				value = EXCLUDED.value,
				updated_at = CURRENT_TIMESTAMP`,

		deleteQuery: `DELETE FROM kv_store WHERE key = ` + p(1),
	}

	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create kv_store: %w", err)
	}

	return s, nil
}

func (s *SQL) GetItem(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(s.getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) SetItem(key, value string) error {
	if _, err := s.db.Exec(s.upsertQuery, key, value); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQL) RemoveItem(key string) error {
	if _, err := s.db.Exec(s.deleteQuery, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}
