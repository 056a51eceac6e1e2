package coordinator

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// TaskResult is the opaque output of an agent invocation.
type TaskResult interface{}

// TaskPayload is the input handed to an agent for one task.
type TaskPayload struct {
	ID         string      `json:"id"`
	Content    string      `json:"content"`
	Priority   string      `json:"priority"`
	WorkflowID string      `json:"workflow_id"`
	Metadata   interface{} `json:"metadata,omitempty"`
}

// Agent executes a task payload. Implementations must be safe for concurrent
// invocation: the executor calls them from multiple goroutines.
type Agent interface {
	Execute(ctx context.Context, payload TaskPayload) (TaskResult, error)
}

// AgentFunc adapts a plain function to the Agent interface.
type AgentFunc func(ctx context.Context, payload TaskPayload) (TaskResult, error)

func (f AgentFunc) Execute(ctx context.Context, payload TaskPayload) (TaskResult, error) {
	return f(ctx, payload)
}

// AgentRegistry maps agent-type identifiers to implementations. It is owned
// by a Coordinator instance, not shared process-wide, so independent
// coordinators can coexist.
type AgentRegistry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{agents: make(map[string]Agent)}
}

// Register binds an agent implementation to a type. Re-registering a type
// replaces the previous implementation.
func (r *AgentRegistry) Register(agentType string, agent Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agentType] = agent
}

func (r *AgentRegistry) Get(agentType string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[agentType]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAgentType, "%q", agentType)
	}
	return agent, nil
}
