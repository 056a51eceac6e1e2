package coordinator

import (
	"sort"

	"github.com/mstanoev/agentcoord/pkg/models"
	"github.com/pkg/errors"
)

// nextBatch computes the set of remaining tasks whose dependencies are all
// COMPLETED, capped at maxConcurrent. The unsatisfiable check runs on every
// pass: a dependency that failed with exhausted retries permanently blocks
// its dependents, which surfaces here exactly like a true cycle.
func nextBatch(wf *models.Workflow, remaining map[string]struct{}, maxConcurrent int) ([]string, error) {
	var executable []string
	for id := range remaining {
		task := wf.Tasks[id]
		if settled(task) || task.Status == models.StatusRunning {
			continue
		}
		if dependenciesSatisfied(task, wf) {
			executable = append(executable, id)
		}
	}

	if len(executable) == 0 {
		if len(remaining) > 0 {
			return nil, errors.Wrapf(ErrCircularDependency, "workflow %q", wf.ID)
		}
		return nil, nil
	}

	// CRITICAL > HIGH > MEDIUM > LOW, then task id for determinism.
	sort.Slice(executable, func(i, j int) bool {
		pi := wf.Tasks[executable[i]].Priority.Rank()
		pj := wf.Tasks[executable[j]].Priority.Rank()
		if pi != pj {
			return pi > pj
		}
		return executable[i] < executable[j]
	})

	if len(executable) > maxConcurrent {
		executable = executable[:maxConcurrent]
	}
	return executable, nil
}

// settled reports whether a task will never be scheduled again: COMPLETED,
// or FAILED with its retry budget spent. A FAILED task with retries left is
// not settled and re-enters scheduling, which resumes restored snapshots
// taken between attempts.
func settled(t *models.WorkflowTask) bool {
	switch t.Status {
	case models.StatusCompleted:
		return true
	case models.StatusFailed:
		return t.RetryCount >= t.MaxRetries
	}
	return false
}

func dependenciesSatisfied(task *models.WorkflowTask, wf *models.Workflow) bool {
	for _, dep := range task.Dependencies {
		depTask, ok := wf.Tasks[dep]
		if !ok {
			return false
		}
		if depTask.Status != models.StatusCompleted {
			return false
		}
	}
	return true
}
