package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kernbench/internal/benchmark"
)

func withMockStore(t *testing.T, fn func(*PostgresStore, sqlmock.Sqlmock)) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	store := newPostgresStore(db)
	fn(store, mock)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

var runColumns = []string{"id", "started_at", "label", "locator", "version", "mode", "trials", "skipped"}

func TestPostgresStore_Mocked(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := Run{ID: "0b5c", StartedAt: started, Label: "pr", Locator: "/bin/kb", Version: "2.0", Trials: 5}

	t.Run("SaveRun Success", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			tbl := benchmark.NewTable(benchmark.ModeStdev)
			require.NoError(t, tbl.Put(benchmark.Key{Family: "sesolve", Size: 8, Variant: benchmark.VariantDIA},
				benchmark.Summary{Mean: 1, Spread: 0.1, N: 5}))

			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO runs .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\)`).
				WithArgs("0b5c", started, "pr", "/bin/kb", "2.0", "stdev", 5, 0).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`INSERT INTO results`).
				WithArgs("0b5c", "sesolve", 8, "dia", 1.0, 0.1, 0.0, 0.0, 5).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			assert.NoError(t, store.SaveRun(ctx, run, tbl))
		})
	})

	t.Run("SaveRun Rolls Back On Error", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO runs`).WillReturnError(errors.New("insert error"))
			mock.ExpectRollback()

			err := store.SaveRun(ctx, run, benchmark.NewTable(benchmark.ModeStdev))
			assert.ErrorContains(t, err, "insert error")
		})
	})

	t.Run("ListRuns Success", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			rows := sqlmock.NewRows(runColumns).
				AddRow("0b5c", started, "pr", "/bin/kb", "2.0", "stdev", 5, 0)
			mock.ExpectQuery(`SELECT .* FROM runs ORDER BY started_at DESC LIMIT \$1`).
				WithArgs(10).
				WillReturnRows(rows)

			runs, err := store.ListRuns(ctx, 10)
			assert.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, "pr", runs[0].Label)
		})
	})

	t.Run("LoadRun Success", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`SELECT .* FROM runs WHERE id LIKE \$1`).
				WithArgs("0b5c%").
				WillReturnRows(sqlmock.NewRows(runColumns).
					AddRow("0b5c", started, "pr", "/bin/kb", "2.0", "minmax", 5, 0))
			mock.ExpectQuery(`SELECT family, size, variant, mean, spread, min_value, max_value, samples FROM results WHERE run_id = \$1`).
				WithArgs("0b5c").
				WillReturnRows(sqlmock.NewRows([]string{"family", "size", "variant", "mean", "spread", "min_value", "max_value", "samples"}).
					AddRow("vec", 32, "csr", 2.0, 1.0, 1.5, 2.5, 4).
					AddRow("vec", 32, "dia", 1.0, 0.0, 1.0, 1.0, 4))

			got, tbl, err := store.LoadRun(ctx, "0b5c")
			require.NoError(t, err)
			assert.Equal(t, "0b5c", got.ID)
			assert.Equal(t, benchmark.ModeMinMax, tbl.Mode)
			s, ok := tbl.Get(benchmark.Key{Family: "vec", Size: 32, Variant: benchmark.VariantCSR})
			require.True(t, ok)
			assert.Equal(t, benchmark.Summary{Mean: 2, Spread: 1, Min: 1.5, Max: 2.5, N: 4}, s)
		})
	})

	t.Run("LoadRun Ambiguous Prefix", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`FROM runs WHERE id LIKE`).
				WithArgs("0%").
				WillReturnRows(sqlmock.NewRows(runColumns).
					AddRow("0b5c", started, "", "", "", "stdev", 0, 0).
					AddRow("0a11", started, "", "", "", "stdev", 0, 0))

			_, _, err := store.LoadRun(ctx, "0")
			assert.ErrorContains(t, err, "ambiguous")
		})
	})

	t.Run("LoadRun Escapes Wildcards", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`FROM runs WHERE id LIKE \$1 ESCAPE`).
				WithArgs(`0b\_5\%%`).
				WillReturnRows(sqlmock.NewRows(runColumns))

			_, _, err := store.LoadRun(ctx, "0b_5%")
			assert.True(t, errors.Is(err, ErrRunNotFound))
		})
	})

	t.Run("LoadRun Not Found", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`FROM runs WHERE id LIKE`).
				WithArgs("ffff%").
				WillReturnRows(sqlmock.NewRows(runColumns))

			_, _, err := store.LoadRun(ctx, "ffff")
			assert.True(t, errors.Is(err, ErrRunNotFound))
		})
	})
}

func TestRebind(t *testing.T) {
	s := &sqlStore{dollar: true}
	assert.Equal(t, "a = $1 AND b = $2", s.rebind("a = ? AND b = ?"))
	s.dollar = false
	assert.Equal(t, "a = ?", s.rebind("a = ?"))
}

func TestConnect_CreatesSchema(t *testing.T) {
	stub, mock, err := sqlmock.NewWithDSN("kernbench-schema")
	require.NoError(t, err)
	defer stub.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs .*started_at TIMESTAMPTZ`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS results .*mean DOUBLE PRECISION`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_runs_started`).
		WillReturnError(errors.New("permission denied"))

	_, err = connect("sqlmock", "kernbench-schema", dialect{timestamp: "TIMESTAMPTZ", float: "DOUBLE PRECISION"})
	assert.ErrorContains(t, err, "create sqlmock history schema: permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}
