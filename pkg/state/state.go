// Package state persists coordinator snapshots. Durability is best-effort:
// the engine treats a failed save as a logged warning, never as a reason to
// abort an in-flight workflow, and a missing or unreadable snapshot at
// startup simply means starting fresh.
package state

// StateStore is the persistence seam. Backends replace the previous
// contents atomically on Save and return the last saved snapshot on Load.
type StateStore interface {
	Save(snapshot Snapshot) error
	Load() (Snapshot, error)
}

// Snapshot is the persisted form of the whole workflow store. Enum values
// are serialized as strings and timestamps as epoch seconds.
type Snapshot struct {
	Workflows []WorkflowState `json:"workflows"`
}

type WorkflowState struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Status      string                 `json:"status"`
	CreatedAt   float64                `json:"created_at"`
	CompletedAt *float64               `json:"completed_at"`
	Metadata    map[string]interface{} `json:"metadata"`
	Tasks       map[string]TaskState   `json:"tasks"`
}

type TaskState struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	AgentType    string      `json:"agent_type"`
	Priority     string      `json:"priority"`
	Dependencies []string    `json:"dependencies"`
	Status       string      `json:"status"`
	Result       interface{} `json:"result"`
	Error        string      `json:"error"`
	StartTime    *float64    `json:"start_time"`
	EndTime      *float64    `json:"end_time"`
	RetryCount   int         `json:"retry_count"`
	MaxRetries   int         `json:"max_retries"`
}
