// Package artifact records pipeline runs and the artifacts each stage
// produces. The store backs run status queries, re-runs of individual
// stages, and the export command.
package artifact

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a run or artifact does not exist.
var ErrNotFound = errors.New("artifact: not found")

// Run is one pipeline invocation.
type Run struct {
	ID        string
	Slug      string
	StartedAt time.Time
}

// Record is one stored artifact: a named blob of stage output.
type Record struct {
	RunID     string
	Stage     string
	Name      string
	MIMEType  string
	Data      []byte
	CreatedAt time.Time
}

// StageStatus marks the outcome of one stage within a run.
type StageStatus struct {
	RunID      string
	Stage      string
	Completed  bool
	Error      string
	FinishedAt time.Time
}

// Store persists runs, artifacts, and per-stage completion.
// Implementations: SQLiteStore (production), MemoryStore (testing).
type Store interface {
	io.Closer

	// CreateRun registers a new run.
	CreateRun(ctx context.Context, run Run) error

	// GetRun returns a run by ID, or ErrNotFound.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns returns all runs, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// SetRunSlug records the slug of a run once intake has resolved it.
	SetRunSlug(ctx context.Context, runID, slug string) error

	// PutArtifact stores an artifact, replacing any previous artifact with
	// the same (run, name).
	PutArtifact(ctx context.Context, rec Record) error

	// GetArtifact returns one artifact, or ErrNotFound.
	GetArtifact(ctx context.Context, runID, name string) (*Record, error)

	// ListArtifacts returns all artifacts of a run in insertion order.
	ListArtifacts(ctx context.Context, runID string) ([]Record, error)

	// SetStageStatus records a stage outcome, replacing any previous status
	// for the same (run, stage).
	SetStageStatus(ctx context.Context, st StageStatus) error

	// StageStatuses returns the recorded stage outcomes of a run.
	StageStatuses(ctx context.Context, runID string) ([]StageStatus, error)
}
