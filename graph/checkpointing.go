package graph

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/store"
)

// CheckpointListener persists the merged state after every completed node.
// Versions increase by one per saved checkpoint, in merge order.
type CheckpointListener[S any] struct {
	store store.CheckpointStore
	runID string

	mu      sync.Mutex
	version int
}

// NewCheckpointListener creates a listener that saves checkpoints for runID into s.
func NewCheckpointListener[S any](s store.CheckpointStore, runID string) *CheckpointListener[S] {
	return &CheckpointListener[S]{store: s, runID: runID}
}

// OnNodeEvent implements NodeListener.
func (cl *CheckpointListener[S]) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error) {
	if event != NodeEventComplete {
		return
	}
	if saveErr := cl.save(ctx, nodeName, state); saveErr != nil {
		log.Warn("checkpoint after %s not saved: %v", nodeName, saveErr)
	}
}

func (cl *CheckpointListener[S]) save(ctx context.Context, nodeName string, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	// The lock spans the save so versions land in the store in order.
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.version++

	return cl.store.Save(context.WithoutCancel(ctx), &store.Checkpoint{
		ID:        uuid.NewString(),
		RunID:     cl.runID,
		NodeName:  nodeName,
		State:     data,
		Timestamp: time.Now(),
		Version:   cl.version,
		Metadata: map[string]any{
			"event": "step",
		},
	})
}
