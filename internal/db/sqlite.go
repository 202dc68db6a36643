package db

import (
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the run history in a local file.
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens or creates the history file at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := connect("sqlite", path, dialect{timestamp: "DATETIME", float: "REAL"})
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{sqlStore{db: db}}, nil
}
