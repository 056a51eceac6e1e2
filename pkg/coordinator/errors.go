package coordinator

import "github.com/pkg/errors"

// Sentinel errors for the coordinator contract. Callers match them with
// errors.Is; wrapped forms carry the offending workflow/task/agent id.
var (
	ErrDuplicateWorkflow  = errors.New("workflow already exists")
	ErrWorkflowNotFound   = errors.New("workflow not found")
	ErrUnknownAgentType   = errors.New("no agent registered for type")
	ErrCircularDependency = errors.New("circular dependency detected")
	ErrUnknownDependency  = errors.New("dependency does not exist in workflow")
	ErrWorkflowRunning    = errors.New("workflow is already running")
	ErrEmptyConflictSet   = errors.New("empty conflict set")
	ErrTaskTimeout        = errors.New("task timed out")
)
