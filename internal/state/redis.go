package state

import (
	"context"
	"encoding/json"

	"github.com/mstanoev/agentcoord/pkg/state"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const snapshotKey = "agentcoord:workflows"

// RedisStore keeps the snapshot in a single hash, one field per workflow.
// Save rewrites the hash in a transaction pipeline so readers see either the
// old or the new snapshot, never a mix.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Save(snapshot state.Snapshot) error {
	ctx := context.Background()
	fields := make(map[string]interface{}, len(snapshot.Workflows))
	for _, wf := range snapshot.Workflows {
		doc, err := json.Marshal(wf)
		if err != nil {
			return errors.Wrapf(err, "marshal workflow %s", wf.ID)
		}
		fields[wf.ID] = doc
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, snapshotKey)
	if len(fields) > 0 {
		pipe.HSet(ctx, snapshotKey, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "save snapshot")
	}
	return nil
}

func (s *RedisStore) Load() (state.Snapshot, error) {
	ctx := context.Background()
	docs, err := s.client.HGetAll(ctx, snapshotKey).Result()
	if err != nil {
		return state.Snapshot{}, errors.Wrap(err, "load snapshot")
	}
	snap := state.Snapshot{}
	for id, doc := range docs {
		var wf state.WorkflowState
		if err := json.Unmarshal([]byte(doc), &wf); err != nil {
			return state.Snapshot{}, errors.Wrapf(err, "parse persisted workflow %s", id)
		}
		snap.Workflows = append(snap.Workflows, wf)
	}
	return snap, nil
}
