package models

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether a workflow or task in this status will not
// transition again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Workflow represents a named DAG of tasks executed as a unit.
type Workflow struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Status      Status                   `json:"status"`
	CreatedAt   time.Time                `json:"created_at"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
	Metadata    map[string]interface{}   `json:"metadata,omitempty"`
	Tasks       map[string]*WorkflowTask `json:"tasks"`
}

// Clone returns a deep copy. The store hands out clones so callers never
// hold references into engine-owned state.
func (w *Workflow) Clone() *Workflow {
	cp := *w
	if w.CompletedAt != nil {
		t := *w.CompletedAt
		cp.CompletedAt = &t
	}
	if w.Metadata != nil {
		cp.Metadata = make(map[string]interface{}, len(w.Metadata))
		for k, v := range w.Metadata {
			cp.Metadata[k] = v
		}
	}
	cp.Tasks = make(map[string]*WorkflowTask, len(w.Tasks))
	for id, t := range w.Tasks {
		cp.Tasks[id] = t.Clone()
	}
	return &cp
}
