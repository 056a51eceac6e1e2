// Package state provides the database-backed StateStore implementations.
// The file backend in pkg/state is the default; these exist for deployments
// that already run Postgres or Redis and want snapshots there instead.
package state

import (
	"encoding/json"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/mstanoev/agentcoord/pkg/state"
	"github.com/pkg/errors"
)

// PostgresStore persists one row per workflow in workflow_snapshots,
// replacing the full set inside a transaction so Load never observes a
// half-written snapshot.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Save(snapshot state.Snapshot) (err error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin snapshot transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errors.Wrapf(err, "rollback also failed: %v", rollbackErr)
			}
			return
		}
		err = tx.Commit()
	}()

	if _, err = tx.Exec("DELETE FROM workflow_snapshots"); err != nil {
		return errors.Wrap(err, "clear previous snapshot")
	}
	for _, wf := range snapshot.Workflows {
		doc, marshalErr := json.Marshal(wf)
		if marshalErr != nil {
			err = errors.Wrapf(marshalErr, "marshal workflow %s", wf.ID)
			return err
		}
		if _, err = tx.Exec(
			"INSERT INTO workflow_snapshots (id, document, saved_at) VALUES ($1, $2, CURRENT_TIMESTAMP)",
			wf.ID, doc); err != nil {
			return errors.Wrapf(err, "save workflow %s", wf.ID)
		}
	}
	return nil
}

func (s *PostgresStore) Load() (state.Snapshot, error) {
	var docs [][]byte
	if err := s.db.Select(&docs, "SELECT document FROM workflow_snapshots ORDER BY id"); err != nil {
		return state.Snapshot{}, errors.Wrap(err, "load snapshot")
	}
	snap := state.Snapshot{}
	for _, doc := range docs {
		var wf state.WorkflowState
		if err := json.Unmarshal(doc, &wf); err != nil {
			return state.Snapshot{}, errors.Wrap(err, "parse persisted workflow")
		}
		snap.Workflows = append(snap.Workflows, wf)
	}
	return snap, nil
}
