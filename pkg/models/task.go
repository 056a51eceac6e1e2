package models

import (
	"fmt"
	"time"
)

type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// ParsePriority validates a priority string from a workflow definition.
// An empty string defaults to medium.
func ParsePriority(s string) (TaskPriority, error) {
	switch TaskPriority(s) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return TaskPriority(s), nil
	}
	return "", fmt.Errorf("invalid priority %q; must be 'low', 'medium', 'high' or 'critical'", s)
}

// Rank orders priorities for scheduling tie-breaks, higher first.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// WorkflowTask represents a single unit of work bound to one agent type.
type WorkflowTask struct {
	ID           string       `json:"id"`           // Unique within the owning workflow
	Name         string       `json:"name"`         // Descriptive name, opaque to the scheduler
	AgentType    string       `json:"agent_type"`   // Key into the agent registry
	Priority     TaskPriority `json:"priority"`     // Tie-break hint among executable tasks
	Dependencies []string     `json:"dependencies"` // Task IDs that must complete first
	Status       Status       `json:"status"`
	Result       interface{}  `json:"result,omitempty"`
	Error        string       `json:"error,omitempty"`
	StartTime    *time.Time   `json:"start_time,omitempty"` // Nullable; brackets the latest attempt
	EndTime      *time.Time   `json:"end_time,omitempty"`
	RetryCount   int          `json:"retry_count"`
	MaxRetries   int          `json:"max_retries"`
}

// Duration returns end-start when both timestamps are set.
func (t *WorkflowTask) Duration() *time.Duration {
	if t.StartTime == nil || t.EndTime == nil {
		return nil
	}
	d := t.EndTime.Sub(*t.StartTime)
	return &d
}

func (t *WorkflowTask) Clone() *WorkflowTask {
	cp := *t
	if t.StartTime != nil {
		ts := *t.StartTime
		cp.StartTime = &ts
	}
	if t.EndTime != nil {
		ts := *t.EndTime
		cp.EndTime = &ts
	}
	cp.Dependencies = append([]string(nil), t.Dependencies...)
	return &cp
}
