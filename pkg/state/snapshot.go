package state

import (
	"time"

	"github.com/mstanoev/agentcoord/pkg/models"
)

// FromWorkflows converts live entities into the persisted snapshot form.
func FromWorkflows(workflows []*models.Workflow) Snapshot {
	snap := Snapshot{Workflows: make([]WorkflowState, 0, len(workflows))}
	for _, wf := range workflows {
		ws := WorkflowState{
			ID:          wf.ID,
			Name:        wf.Name,
			Status:      string(wf.Status),
			CreatedAt:   toEpoch(wf.CreatedAt),
			CompletedAt: toEpochPtr(wf.CompletedAt),
			Metadata:    wf.Metadata,
			Tasks:       make(map[string]TaskState, len(wf.Tasks)),
		}
		for id, t := range wf.Tasks {
			ws.Tasks[id] = TaskState{
				ID:           t.ID,
				Name:         t.Name,
				AgentType:    t.AgentType,
				Priority:     string(t.Priority),
				Dependencies: t.Dependencies,
				Status:       string(t.Status),
				Result:       t.Result,
				Error:        t.Error,
				StartTime:    toEpochPtr(t.StartTime),
				EndTime:      toEpochPtr(t.EndTime),
				RetryCount:   t.RetryCount,
				MaxRetries:   t.MaxRetries,
			}
		}
		snap.Workflows = append(snap.Workflows, ws)
	}
	return snap
}

// ToWorkflows converts a loaded snapshot back into live entities.
func (s Snapshot) ToWorkflows() []*models.Workflow {
	workflows := make([]*models.Workflow, 0, len(s.Workflows))
	for _, ws := range s.Workflows {
		wf := &models.Workflow{
			ID:          ws.ID,
			Name:        ws.Name,
			Status:      models.Status(ws.Status),
			CreatedAt:   fromEpoch(ws.CreatedAt),
			CompletedAt: fromEpochPtr(ws.CompletedAt),
			Metadata:    ws.Metadata,
			Tasks:       make(map[string]*models.WorkflowTask, len(ws.Tasks)),
		}
		for id, ts := range ws.Tasks {
			wf.Tasks[id] = &models.WorkflowTask{
				ID:           ts.ID,
				Name:         ts.Name,
				AgentType:    ts.AgentType,
				Priority:     models.TaskPriority(ts.Priority),
				Dependencies: ts.Dependencies,
				Status:       models.Status(ts.Status),
				Result:       ts.Result,
				Error:        ts.Error,
				StartTime:    fromEpochPtr(ts.StartTime),
				EndTime:      fromEpochPtr(ts.EndTime),
				RetryCount:   ts.RetryCount,
				MaxRetries:   ts.MaxRetries,
			}
		}
		workflows = append(workflows, wf)
	}
	return workflows
}

func toEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func toEpochPtr(t *time.Time) *float64 {
	if t == nil {
		return nil
	}
	e := toEpoch(*t)
	return &e
}

func fromEpoch(e float64) time.Time {
	return time.Unix(0, int64(e*float64(time.Second)))
}

func fromEpochPtr(e *float64) *time.Time {
	if e == nil {
		return nil
	}
	t := fromEpoch(*e)
	return &t
}
