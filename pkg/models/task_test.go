package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)

	p, err = ParsePriority("critical")
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}

func TestPriorityRankOrdering(t *testing.T) {
	assert.Greater(t, PriorityCritical.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
}

func TestTaskDuration(t *testing.T) {
	task := &WorkflowTask{}
	assert.Nil(t, task.Duration())

	start := time.Now()
	end := start.Add(3 * time.Second)
	task.StartTime = &start
	task.EndTime = &end
	require.NotNil(t, task.Duration())
	assert.Equal(t, 3*time.Second, *task.Duration())
}

func TestWorkflowCloneIsDeep(t *testing.T) {
	now := time.Now()
	wf := &Workflow{
		ID:        "wf",
		Status:    StatusRunning,
		CreatedAt: now,
		Metadata:  map[string]interface{}{"k": "v"},
		Tasks: map[string]*WorkflowTask{
			"a": {ID: "a", Dependencies: []string{"x"}, StartTime: &now},
		},
	}

	cp := wf.Clone()
	cp.Status = StatusFailed
	cp.Metadata["k"] = "mutated"
	cp.Tasks["a"].Status = StatusCompleted
	cp.Tasks["a"].Dependencies[0] = "y"
	*cp.Tasks["a"].StartTime = now.Add(time.Hour)

	assert.Equal(t, StatusRunning, wf.Status)
	assert.Equal(t, "v", wf.Metadata["k"])
	assert.Equal(t, Status(""), wf.Tasks["a"].Status)
	assert.Equal(t, "x", wf.Tasks["a"].Dependencies[0])
	assert.True(t, wf.Tasks["a"].StartTime.Equal(now))
}
