package coordinator

import (
	"sort"
	"sync"
	"time"

	"github.com/mstanoev/agentcoord/pkg/models"
	"github.com/pkg/errors"
)

// WorkflowStore is the in-memory registry of workflows. It owns every
// Workflow/WorkflowTask instance; reads return deep copies. The store
// performs no I/O; the coordinator snapshots it after mutations.
type WorkflowStore struct {
	mu        sync.RWMutex
	workflows map[string]*models.Workflow
}

func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{workflows: make(map[string]*models.Workflow)}
}

func (s *WorkflowStore) Create(id, name string, metadata map[string]interface{}) (*models.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.workflows[id]; exists {
		return nil, errors.Wrapf(ErrDuplicateWorkflow, "%q", id)
	}
	wf := &models.Workflow{
		ID:        id,
		Name:      name,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
		Metadata:  metadata,
		Tasks:     make(map[string]*models.WorkflowTask),
	}
	s.workflows[id] = wf
	return wf.Clone(), nil
}

// AddTask attaches a task to an existing workflow. Every dependency must
// already exist in the workflow; a forward reference is a configuration
// error, not a runtime cycle.
func (s *WorkflowStore) AddTask(workflowID string, task *models.WorkflowTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[workflowID]
	if !ok {
		return errors.Wrapf(ErrWorkflowNotFound, "%q", workflowID)
	}
	for _, dep := range task.Dependencies {
		if _, ok := wf.Tasks[dep]; !ok {
			return errors.Wrapf(ErrUnknownDependency, "task %q depends on %q", task.ID, dep)
		}
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	wf.Tasks[task.ID] = task.Clone()
	return nil
}

// AddTasks attaches a whole task set at once. Dependencies are validated
// against the union of existing and new tasks, so mutually-dependent tasks
// can be registered together; cycles among them are caught at execution.
func (s *WorkflowStore) AddTasks(workflowID string, tasks []*models.WorkflowTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[workflowID]
	if !ok {
		return errors.Wrapf(ErrWorkflowNotFound, "%q", workflowID)
	}
	known := make(map[string]struct{}, len(wf.Tasks)+len(tasks))
	for id := range wf.Tasks {
		known[id] = struct{}{}
	}
	for _, t := range tasks {
		known[t.ID] = struct{}{}
	}
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := known[dep]; !ok {
				return errors.Wrapf(ErrUnknownDependency, "task %q depends on %q", t.ID, dep)
			}
		}
	}
	for _, t := range tasks {
		if t.Status == "" {
			t.Status = models.StatusPending
		}
		wf.Tasks[t.ID] = t.Clone()
	}
	return nil
}

func (s *WorkflowStore) Get(id string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[id]
	if !ok {
		return nil, errors.Wrapf(ErrWorkflowNotFound, "%q", id)
	}
	return wf.Clone(), nil
}

func (s *WorkflowStore) List() []*models.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Workflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		out = append(out, wf.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Replace swaps the full workflow set, used when restoring a snapshot.
func (s *WorkflowStore) Replace(workflows []*models.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows = make(map[string]*models.Workflow, len(workflows))
	for _, wf := range workflows {
		s.workflows[wf.ID] = wf.Clone()
	}
}

func (s *WorkflowStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workflows, id)
}

// mutateWorkflow applies fn to the live workflow under the write lock.
func (s *WorkflowStore) mutateWorkflow(id string, fn func(*models.Workflow)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[id]
	if !ok {
		return errors.Wrapf(ErrWorkflowNotFound, "%q", id)
	}
	fn(wf)
	return nil
}

// mutateTask applies fn to a live task under the write lock. Tasks within a
// batch are disjoint, so batch goroutines never contend on the same task.
func (s *WorkflowStore) mutateTask(workflowID, taskID string, fn func(*models.WorkflowTask)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[workflowID]
	if !ok {
		return errors.Wrapf(ErrWorkflowNotFound, "%q", workflowID)
	}
	task, ok := wf.Tasks[taskID]
	if !ok {
		return errors.Errorf("task %q not found in workflow %q", taskID, workflowID)
	}
	fn(task)
	return nil
}
