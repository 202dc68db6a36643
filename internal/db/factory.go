package db

import (
	"fmt"
	"strings"
)

// DefaultSQLitePath is the history file used when no DSN is configured.
const DefaultSQLitePath = ".kernbench.db"

// Backend kinds accepted by Open.
const (
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// Open connects to the run history. kind is "sqlite" or "postgres"; when it
// is empty the DSN decides: a postgres:// or postgresql:// URL selects
// Postgres and anything else is taken as a SQLite path.
func Open(kind, dsn string) (Store, error) {
	switch resolveKind(kind, dsn) {
	case KindPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("history.dsn is required for the postgres history store")
		}
		return NewPostgresStore(dsn)
	case KindSQLite:
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		return NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported history store %q", kind)
	}
}

func resolveKind(kind, dsn string) string {
	switch k := strings.ToLower(kind); k {
	case "sqlite3":
		return KindSQLite
	case "postgresql":
		return KindPostgres
	case "":
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			return KindPostgres
		}
		return KindSQLite
	default:
		return k
	}
}
