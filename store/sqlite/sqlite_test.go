package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/trendreport/store"
)

func TestSqliteCheckpointStore(t *testing.T) {
	s, err := NewSqliteCheckpointStore(SqliteOptions{Path: filepath.Join(t.TempDir(), "audit.db")})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Save(ctx, &store.Checkpoint{
		ID:        "b",
		RunID:     "run-1",
		NodeName:  "export_report",
		State:     json.RawMessage(`{"report_path":"out/report.pdf"}`),
		Metadata:  map[string]any{"event": "step"},
		Timestamp: ts,
		Version:   2,
	}))
	require.NoError(t, s.Save(ctx, &store.Checkpoint{
		ID:        "a",
		RunID:     "run-1",
		NodeName:  "parse_request",
		Timestamp: ts,
		Version:   1,
	}))

	cp, err := s.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "export_report", cp.NodeName)
	assert.Equal(t, "step", cp.Metadata["event"])
	assert.True(t, ts.Equal(cp.Timestamp))

	var st struct {
		ReportPath string `json:"report_path"`
	}
	require.NoError(t, cp.DecodeState(&st))
	assert.Equal(t, "out/report.pdf", st.ReportPath)

	list, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)

	// Saving the same id again overwrites it.
	require.NoError(t, s.Save(ctx, &store.Checkpoint{ID: "a", RunID: "run-1", NodeName: "parse_request", Timestamp: ts, Version: 5}))
	latest, err := store.Latest(ctx, s, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "a", latest.ID)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Clear(ctx, "run-1"))
	list, err = s.List(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
