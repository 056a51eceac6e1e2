package coordinator

import (
	"testing"

	"github.com/mstanoev/agentcoord/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schedulerWorkflow(tasks ...*models.WorkflowTask) (*models.Workflow, map[string]struct{}) {
	wf := &models.Workflow{
		ID:    "wf",
		Tasks: make(map[string]*models.WorkflowTask, len(tasks)),
	}
	remaining := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		wf.Tasks[t.ID] = t
		remaining[t.ID] = struct{}{}
	}
	return wf, remaining
}

func TestNextBatch_PriorityThenIDOrdering(t *testing.T) {
	wf, remaining := schedulerWorkflow(
		&models.WorkflowTask{ID: "b", Status: models.StatusPending, Priority: models.PriorityLow},
		&models.WorkflowTask{ID: "a", Status: models.StatusPending, Priority: models.PriorityLow},
		&models.WorkflowTask{ID: "c", Status: models.StatusPending, Priority: models.PriorityCritical},
		&models.WorkflowTask{ID: "d", Status: models.StatusPending, Priority: models.PriorityHigh},
	)

	batch, err := nextBatch(wf, remaining, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "a"}, batch)
}

func TestNextBatch_DependenciesGate(t *testing.T) {
	wf, remaining := schedulerWorkflow(
		&models.WorkflowTask{ID: "a", Status: models.StatusCompleted},
		&models.WorkflowTask{ID: "b", Status: models.StatusPending, Dependencies: []string{"a"}},
		&models.WorkflowTask{ID: "c", Status: models.StatusPending, Dependencies: []string{"b"}},
	)

	batch, err := nextBatch(wf, remaining, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, batch)
}

func TestNextBatch_CycleIsUnsatisfiable(t *testing.T) {
	wf, remaining := schedulerWorkflow(
		&models.WorkflowTask{ID: "a", Status: models.StatusPending, Dependencies: []string{"b"}},
		&models.WorkflowTask{ID: "b", Status: models.StatusPending, Dependencies: []string{"a"}},
	)

	_, err := nextBatch(wf, remaining, 5)
	assert.ErrorIs(t, err, ErrCircularDependency)
	assert.Contains(t, err.Error(), "wf")
}

func TestNextBatch_ExhaustedFailureBlocksDependents(t *testing.T) {
	// A failed with no retries left; its dependent can never run, which
	// surfaces as an unsatisfiable graph on the next pass.
	failed := &models.WorkflowTask{
		ID: "a", Status: models.StatusFailed, RetryCount: 1, MaxRetries: 1,
	}
	wf, remaining := schedulerWorkflow(
		failed,
		&models.WorkflowTask{ID: "b", Status: models.StatusPending, Dependencies: []string{"a"}},
	)
	delete(remaining, "a") // terminal, already settled

	_, err := nextBatch(wf, remaining, 5)
	assert.ErrorIs(t, err, ErrCircularDependency)
}

func TestNextBatch_RestoredFailedTaskIsRetried(t *testing.T) {
	// A task restored from a snapshot mid-retry is schedulable again.
	wf, remaining := schedulerWorkflow(
		&models.WorkflowTask{ID: "a", Status: models.StatusFailed, RetryCount: 1, MaxRetries: 3},
	)

	batch, err := nextBatch(wf, remaining, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, batch)
}

func TestNextBatch_CapsBatchSize(t *testing.T) {
	wf, remaining := schedulerWorkflow(
		&models.WorkflowTask{ID: "a", Status: models.StatusPending},
		&models.WorkflowTask{ID: "b", Status: models.StatusPending},
		&models.WorkflowTask{ID: "c", Status: models.StatusPending},
	)

	batch, err := nextBatch(wf, remaining, 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestNextBatch_EmptyRemaining(t *testing.T) {
	wf, _ := schedulerWorkflow()
	batch, err := nextBatch(wf, map[string]struct{}{}, 5)
	require.NoError(t, err)
	assert.Empty(t, batch)
}
