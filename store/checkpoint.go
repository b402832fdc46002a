package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrNotFound is returned when a checkpoint does not exist.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is a snapshot of a run's state taken after a stage was merged.
type Checkpoint struct {
	ID        string          `json:"id"`
	RunID     string          `json:"run_id"`
	NodeName  string          `json:"node_name"`
	State     json.RawMessage `json:"state"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int             `json:"version"`
}

// CheckpointStore defines the interface for checkpoint persistence.
// List returns the checkpoints of a run ordered by Version.
type CheckpointStore interface {
	// Save stores a checkpoint
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns all checkpoints for a given run
	List(ctx context.Context, runID string) ([]*Checkpoint, error)

	// Delete removes a checkpoint
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints for a run
	Clear(ctx context.Context, runID string) error
}

// Latest returns the checkpoint with the highest version for runID.
func Latest(ctx context.Context, s CheckpointStore, runID string) (*Checkpoint, error) {
	cps, err := s.List(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(cps) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return cps[len(cps)-1], nil
}

// SortByVersion orders checkpoints by version, then timestamp.
func SortByVersion(cps []*Checkpoint) {
	slices.SortStableFunc(cps, func(a, b *Checkpoint) int {
		if a.Version != b.Version {
			return a.Version - b.Version
		}
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// DecodeState unmarshals the checkpoint's state into v.
func (c *Checkpoint) DecodeState(v any) error {
	if len(c.State) == 0 {
		return fmt.Errorf("checkpoint %s has no state", c.ID)
	}
	return json.Unmarshal(c.State, v)
}
