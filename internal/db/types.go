package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"kernbench/internal/benchmark"
)

// ErrRunNotFound is returned when a run id matches no stored run.
var ErrRunNotFound = errors.New("run not found")

// Run describes one stored benchmark run.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Label     string    `json:"label"`
	Locator   string    `json:"locator"`
	Version   string    `json:"version"`
	Mode      string    `json:"mode"`
	Trials    int       `json:"trials"`
	Skipped   int       `json:"skipped"`
}

// NewRun returns a run with a fresh id and the current time.
func NewRun(label, locator, version string) Run {
	return Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Label:     label,
		Locator:   locator,
		Version:   version,
	}
}

// Store persists benchmark runs and their result tables.
type Store interface {
	Close() error
	SaveRun(ctx context.Context, run Run, table *benchmark.Table) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	// LoadRun accepts a full id or a unique prefix of one.
	LoadRun(ctx context.Context, id string) (Run, *benchmark.Table, error)
}
