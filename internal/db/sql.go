package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"kernbench/internal/benchmark"
)

// dialect carries the column types that differ between drivers.
type dialect struct {
	timestamp string
	float     string
}

func (d dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at ` + d.timestamp + ` NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			locator TEXT NOT NULL,
			version TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL,
			trials INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			family TEXT NOT NULL,
			size INTEGER NOT NULL,
			variant TEXT NOT NULL,
			mean ` + d.float + ` NOT NULL,
			spread ` + d.float + ` NOT NULL,
			min_value ` + d.float + ` NOT NULL,
			max_value ` + d.float + ` NOT NULL,
			samples INTEGER NOT NULL,
			PRIMARY KEY (run_id, family, size, variant)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC)`,
	}
}

// connect opens the database, checks that it answers and creates the
// history tables.
func connect(driver, dsn string, d dialect) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s history: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("reach %s history: %w", driver, err)
	}
	for _, stmt := range d.schema() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create %s history schema: %w", driver, err)
		}
	}
	return db, nil
}

// likePrefix escapes the LIKE wildcards in a user supplied ID prefix.
var likePrefix = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// sqlStore holds the queries shared by the SQLite and Postgres stores. Queries
// are written with ? placeholders and rebound for the driver.
type sqlStore struct {
	db     *sql.DB
	dollar bool
}

func (s *sqlStore) rebind(q string) string {
	if !s.dollar {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// SaveRun stores run and every row of table in one transaction.
func (s *sqlStore) SaveRun(ctx context.Context, run Run, table *benchmark.Table) error {
	if table != nil {
		run.Mode = string(table.Mode)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO runs (id, started_at, label, locator, version, mode, trials, skipped) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.StartedAt, run.Label, run.Locator, run.Version, run.Mode, run.Trials, run.Skipped)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	insert := s.rebind(`INSERT INTO results (run_id, family, size, variant, mean, spread, min_value, max_value, samples) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, k := range table.Keys() {
		r, _ := table.Get(k)
		if _, err := tx.ExecContext(ctx, insert,
			run.ID, k.Family, k.Size, string(k.Variant), r.Mean, r.Spread, r.Min, r.Max, r.N); err != nil {
			return fmt.Errorf("insert result %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *sqlStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, started_at, label, locator, version, mode, trials, skipped FROM runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Label, &r.Locator, &r.Version, &r.Mode, &r.Trials, &r.Skipped); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadRun returns a run and its result table.
func (s *sqlStore) LoadRun(ctx context.Context, id string) (Run, *benchmark.Table, error) {
	run, err := s.findRun(ctx, id)
	if err != nil {
		return Run{}, nil, err
	}
	mode, err := benchmark.ParseMode(run.Mode)
	if err != nil {
		return Run{}, nil, fmt.Errorf("run %s: %w", run.ID, err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT family, size, variant, mean, spread, min_value, max_value, samples FROM results WHERE run_id = ? ORDER BY family, size, variant`), run.ID)
	if err != nil {
		return Run{}, nil, err
	}
	defer rows.Close()

	table := benchmark.NewTable(mode)
	for rows.Next() {
		var (
			k       benchmark.Key
			variant string
			sum     benchmark.Summary
		)
		if err := rows.Scan(&k.Family, &k.Size, &variant, &sum.Mean, &sum.Spread, &sum.Min, &sum.Max, &sum.N); err != nil {
			return Run{}, nil, err
		}
		if k.Variant, err = benchmark.ParseVariant(variant); err != nil {
			return Run{}, nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		if err := table.Put(k, sum); err != nil {
			return Run{}, nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, err
	}
	return run, table, nil
}

func (s *sqlStore) findRun(ctx context.Context, id string) (Run, error) {
	if id == "" {
		return Run{}, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, started_at, label, locator, version, mode, trials, skipped FROM runs WHERE id LIKE ? ESCAPE '\' ORDER BY started_at DESC LIMIT 2`),
		likePrefix.Replace(id)+"%")
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Label, &r.Locator, &r.Version, &r.Mode, &r.Trials, &r.Skipped); err != nil {
			return Run{}, err
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return found[0], nil
	}
	return Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
}
