package db

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL, for history shared between
// benchmark hosts.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore connects to dsn and creates the history tables if needed.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := connect("postgres", dsn, dialect{timestamp: "TIMESTAMPTZ", float: "DOUBLE PRECISION"})
	if err != nil {
		return nil, err
	}
	return newPostgresStore(db), nil
}

func newPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{sqlStore{db: db, dollar: true}}
}
