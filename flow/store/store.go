// Package store provides persistence backends for workflow state and
// checkpoints.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID or checkpoint label does not exist.
var ErrNotFound = errors.New("not found")

// Store provides persistence for workflow state and checkpoints.
//
// It enables:
//   - Step-by-step state persistence during execution
//   - Latest state retrieval for resumption
//   - Named checkpoint save/load for pause points
//
// Implementations can use:
//   - In-memory storage (for testing, see memory.go)
//   - Embedded SQLite (single process, see sqlite.go)
//   - MySQL (shared server, see mysql.go)
//
// Type parameter S is the state type to persist.
type Store[S any] interface {
	// SaveStep persists the state after a phase execution step.
	// Each step is identified by runID + step number.
	//
	// Parameters:
	//   - runID: Unique identifier for this workflow execution
	//   - step: Sequential step number (starts at 1)
	//   - phase: Name of the phase that produced this state
	//   - state: The current workflow state after merging the update
	//
	// Returns error if persistence fails.
	SaveStep(ctx context.Context, runID string, step int, phase string, state S) error

	// LoadLatest retrieves the most recent state for a given run.
	// Used to resume execution from the last saved step.
	//
	// Returns:
	//   - state: The most recent persisted state
	//   - step: The step number of the returned state
	//   - error: ErrNotFound if runID doesn't exist, or other persistence errors
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// SaveCheckpoint creates a named snapshot of workflow state.
	// Checkpoints record pause points so a session survives process restarts.
	//
	// Parameters:
	//   - cpID: Unique checkpoint label (caller-defined)
	//   - state: The workflow state to snapshot
	//   - step: The step number at which this checkpoint was created
	//
	// Saving under an existing label overwrites the previous snapshot.
	SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error

	// LoadCheckpoint retrieves a previously saved checkpoint.
	//
	// Returns:
	//   - state: The checkpointed state
	//   - step: The step number when the checkpoint was created
	//   - error: ErrNotFound if cpID doesn't exist, or other persistence errors
	LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error)

	// History returns the full ordered step history for a run.
	// Used for audit display and evaluation reports.
	//
	// Returns an empty slice (not ErrNotFound) for an unknown runID.
	History(ctx context.Context, runID string) ([]StepRecord[S], error)
}

// StepRecord represents a single execution step in the workflow history.
type StepRecord[S any] struct {
	// Step is the sequential step number (1-indexed).
	Step int

	// Phase names the phase that produced this state.
	Phase string

	// State is the workflow state after this step completed.
	State S
}

// Checkpoint represents a named snapshot of workflow state.
// Used by Store implementations to persist and restore checkpoints.
type Checkpoint[S any] struct {
	// ID is the unique checkpoint label.
	ID string

	// State is the snapshotted workflow state.
	State S

	// Step is the step number when this checkpoint was created.
	Step int
}
