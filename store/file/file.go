package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/trendreport/store"
)

// FileCheckpointStore writes one JSON file per checkpoint under
// <dir>/<run id>/<checkpoint id>.json.
type FileCheckpointStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileCheckpointStore creates the directory if needed and returns a store rooted at it.
func NewFileCheckpointStore(dir string) (*FileCheckpointStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{dir: dir}, nil
}

func (s *FileCheckpointStore) runDir(runID string) string {
	if runID == "" {
		runID = "_"
	}
	return filepath.Join(s.dir, runID)
}

// Save stores a checkpoint
func (s *FileCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	if strings.ContainsAny(checkpoint.ID, `/\`) || checkpoint.ID == "" {
		return fmt.Errorf("invalid checkpoint id %q", checkpoint.ID)
	}
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.runDir(checkpoint.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	tmp := filepath.Join(dir, checkpoint.ID+".json.tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, checkpoint.ID+".json"))
}

// Load retrieves a checkpoint by ID
func (s *FileCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*", checkpointID+".json"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, checkpointID)
	}
	return readCheckpoint(matches[0])
}

// List returns all checkpoints for a given run
func (s *FileCheckpointStore) List(_ context.Context, runID string) ([]*store.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.runDir(runID))
	if errors.Is(err, fs.ErrNotExist) {
		return []*store.Checkpoint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints for run %s: %w", runID, err)
	}

	out := make([]*store.Checkpoint, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		cp, err := readCheckpoint(filepath.Join(s.runDir(runID), e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	store.SortByVersion(out)
	return out, nil
}

// Delete removes a checkpoint
func (s *FileCheckpointStore) Delete(_ context.Context, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*", checkpointID+".json"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("failed to delete checkpoint: %w", err)
		}
	}
	return nil
}

// Clear removes all checkpoints for a run
func (s *FileCheckpointStore) Clear(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.RemoveAll(s.runDir(runID))
}

func readCheckpoint(path string) (*store.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", path, err)
	}
	return &cp, nil
}
