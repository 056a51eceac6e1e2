package coordinator

import (
	"time"

	"github.com/mstanoev/agentcoord/pkg/models"
)

// WorkflowResults is the caller-facing view of a workflow run. It is always
// well-formed, including for FAILED workflows, with per-task error strings
// populated for diagnosis.
type WorkflowResults struct {
	WorkflowID  string                 `json:"workflow_id"`
	Status      models.Status          `json:"status"`
	Tasks       map[string]TaskOutcome `json:"tasks"`
	CreatedAt   time.Time              `json:"created_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type TaskOutcome struct {
	Status   models.Status  `json:"status"`
	Result   interface{}    `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration *time.Duration `json:"duration,omitempty"`
}

// GetWorkflowResults builds the results view for a workflow. Duration is
// only set when both attempt timestamps are.
func (c *Coordinator) GetWorkflowResults(workflowID string) (*WorkflowResults, error) {
	wf, err := c.store.Get(workflowID)
	if err != nil {
		return nil, err
	}
	results := &WorkflowResults{
		WorkflowID:  workflowID,
		Status:      wf.Status,
		Tasks:       make(map[string]TaskOutcome, len(wf.Tasks)),
		CreatedAt:   wf.CreatedAt,
		CompletedAt: wf.CompletedAt,
		Metadata:    wf.Metadata,
	}
	for id, task := range wf.Tasks {
		results.Tasks[id] = TaskOutcome{
			Status:   task.Status,
			Result:   task.Result,
			Error:    task.Error,
			Duration: task.Duration(),
		}
	}
	return results, nil
}
