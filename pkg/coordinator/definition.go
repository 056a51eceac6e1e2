package coordinator

import (
	"github.com/google/uuid"
	"github.com/mstanoev/agentcoord/pkg/models"
	"github.com/pkg/errors"
)

// WorkflowDefinition is the declarative input accepted by
// CoordinateWorkflow. Missing id/name get generated/default values.
type WorkflowDefinition struct {
	ID       string                 `json:"id,omitempty"`
	Name     string                 `json:"name,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Tasks    []TaskDefinition       `json:"tasks"`
}

type TaskDefinition struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	AgentType    string   `json:"agent_type"`
	Priority     string   `json:"priority,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	MaxRetries   *int     `json:"max_retries,omitempty"`
}

const defaultWorkflowName = "Unnamed Workflow"

// materialize validates a definition and builds its task entities. Every
// referenced dependency must exist somewhere in the definition; cycles are
// left for the scheduler to detect at execution time.
func (c *Coordinator) materialize(def WorkflowDefinition) (string, []*models.WorkflowTask, error) {
	id := def.ID
	if id == "" {
		id = uuid.NewString()
	}

	ids := make(map[string]struct{}, len(def.Tasks))
	for _, td := range def.Tasks {
		if td.ID == "" {
			return "", nil, errors.New("task id is required")
		}
		if _, dup := ids[td.ID]; dup {
			return "", nil, errors.Errorf("duplicate task id %q", td.ID)
		}
		ids[td.ID] = struct{}{}
	}

	tasks := make([]*models.WorkflowTask, 0, len(def.Tasks))
	for _, td := range def.Tasks {
		priority, err := models.ParsePriority(td.Priority)
		if err != nil {
			return "", nil, errors.Wrapf(err, "task %q", td.ID)
		}
		for _, dep := range td.Dependencies {
			if _, ok := ids[dep]; !ok {
				return "", nil, errors.Wrapf(ErrUnknownDependency, "task %q depends on %q", td.ID, dep)
			}
		}
		maxRetries := c.cfg.DefaultMaxRetries
		if td.MaxRetries != nil {
			maxRetries = *td.MaxRetries
		}
		tasks = append(tasks, &models.WorkflowTask{
			ID:           td.ID,
			Name:         td.Name,
			AgentType:    td.AgentType,
			Priority:     priority,
			Dependencies: append([]string(nil), td.Dependencies...),
			Status:       models.StatusPending,
			MaxRetries:   maxRetries,
		})
	}
	return id, tasks, nil
}
