package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mstanoev/agentcoord/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(t *testing.T) Snapshot {
	t.Helper()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(42 * time.Second)
	wf := &models.Workflow{
		ID:          "wf-1",
		Name:        "sample",
		Status:      models.StatusCompleted,
		CreatedAt:   created,
		CompletedAt: &completed,
		Metadata:    map[string]interface{}{"owner": "tests"},
		Tasks: map[string]*models.WorkflowTask{
			"t1": {
				ID:         "t1",
				Name:       "t1",
				AgentType:  "echo",
				Priority:   models.PriorityHigh,
				Status:     models.StatusCompleted,
				Result:     "done",
				StartTime:  &created,
				EndTime:    &completed,
				MaxRetries: 3,
			},
		},
	}
	return FromWorkflows([]*models.Workflow{wf})
}

func TestFileStore_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	fs := NewFileStore(path)

	require.NoError(t, fs.Save(sampleSnapshot(t)))

	loaded, err := fs.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Workflows, 1)

	ws := loaded.Workflows[0]
	assert.Equal(t, "wf-1", ws.ID)
	assert.Equal(t, "COMPLETED", ws.Status)
	require.NotNil(t, ws.CompletedAt)
	assert.InDelta(t, ws.CreatedAt+42, *ws.CompletedAt, 0.001)

	task := ws.Tasks["t1"]
	assert.Equal(t, "high", task.Priority)
	assert.Equal(t, "done", task.Result)
	assert.Equal(t, 3, task.MaxRetries)
}

func TestFileStore_RoundtripPreservesEntities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	fs := NewFileStore(path)
	require.NoError(t, fs.Save(sampleSnapshot(t)))

	loaded, err := fs.Load()
	require.NoError(t, err)

	workflows := loaded.ToWorkflows()
	require.Len(t, workflows, 1)
	wf := workflows[0]
	assert.Equal(t, models.StatusCompleted, wf.Status)
	require.NotNil(t, wf.CompletedAt)
	assert.WithinDuration(t, wf.CreatedAt.Add(42*time.Second), *wf.CompletedAt, time.Millisecond)
	assert.Equal(t, models.PriorityHigh, wf.Tasks["t1"].Priority)
}

func TestFileStore_MissingFileIsEmptyState(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))

	snap, err := fs.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Workflows)
}

func TestFileStore_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestFileStore_SaveReplacesPreviousContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	fs := NewFileStore(path)

	require.NoError(t, fs.Save(sampleSnapshot(t)))
	require.NoError(t, fs.Save(Snapshot{}))

	loaded, err := fs.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Workflows)

	// No temp files left behind after the rename.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}
