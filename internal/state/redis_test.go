package state

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mstanoev/agentcoord/pkg/state"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreFromClient(client)
}

func redisSnapshot(ids ...string) state.Snapshot {
	snap := state.Snapshot{}
	for _, id := range ids {
		snap.Workflows = append(snap.Workflows, state.WorkflowState{
			ID:        id,
			Name:      id,
			Status:    "COMPLETED",
			CreatedAt: 1709280000,
			Tasks: map[string]state.TaskState{
				"t1": {ID: "t1", AgentType: "echo", Priority: "medium", Status: "COMPLETED", MaxRetries: 3},
			},
		})
	}
	return snap
}

func TestRedisStore_SaveLoadRoundtrip(t *testing.T) {
	rs := newTestRedisStore(t)

	require.NoError(t, rs.Save(redisSnapshot("wf-1", "wf-2")))

	loaded, err := rs.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Workflows, 2)

	byID := map[string]state.WorkflowState{}
	for _, wf := range loaded.Workflows {
		byID[wf.ID] = wf
	}
	require.Contains(t, byID, "wf-1")
	assert.Equal(t, "COMPLETED", byID["wf-1"].Status)
	assert.Equal(t, float64(1709280000), byID["wf-1"].CreatedAt)
	assert.Equal(t, 3, byID["wf-1"].Tasks["t1"].MaxRetries)
}

func TestRedisStore_SaveReplacesStaleEntries(t *testing.T) {
	rs := newTestRedisStore(t)

	require.NoError(t, rs.Save(redisSnapshot("wf-old")))
	require.NoError(t, rs.Save(redisSnapshot("wf-new")))

	loaded, err := rs.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Workflows, 1)
	assert.Equal(t, "wf-new", loaded.Workflows[0].ID)
}

func TestRedisStore_EmptySaveClearsEverything(t *testing.T) {
	rs := newTestRedisStore(t)

	require.NoError(t, rs.Save(redisSnapshot("wf-1")))
	require.NoError(t, rs.Save(state.Snapshot{}))

	loaded, err := rs.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Workflows)
}

func TestRedisStore_LoadFromEmptyServer(t *testing.T) {
	rs := newTestRedisStore(t)

	loaded, err := rs.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Workflows)
}
