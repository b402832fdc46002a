package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/trendreport/store"
)

func TestFileCheckpointStore(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "checkpoints")
	fs, err := NewFileCheckpointStore(dir)
	require.NoError(t, err)
	_, err = os.Stat(dir)
	require.NoError(t, err)

	ctx := context.Background()
	for i, node := range []string{"compose_sections", "qa_gate"} {
		require.NoError(t, fs.Save(ctx, &store.Checkpoint{
			ID:        node,
			RunID:     "run-1",
			NodeName:  node,
			State:     json.RawMessage(`{"n":1}`),
			Timestamp: time.Now(),
			Version:   i + 1,
		}))
	}

	cp, err := fs.Load(ctx, "qa_gate")
	require.NoError(t, err)
	assert.Equal(t, 2, cp.Version)
	assert.JSONEq(t, `{"n":1}`, string(cp.State))

	list, err := fs.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "compose_sections", list[0].NodeName)

	empty, err := fs.List(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, fs.Delete(ctx, "qa_gate"))
	_, err = fs.Load(ctx, "qa_gate")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, fs.Clear(ctx, "run-1"))
	list, err = fs.List(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileCheckpointStore_RejectsPathIDs(t *testing.T) {
	t.Parallel()

	fs, err := NewFileCheckpointStore(t.TempDir())
	require.NoError(t, err)
	err = fs.Save(context.Background(), &store.Checkpoint{ID: "../escape", RunID: "r"})
	assert.Error(t, err)
}
