package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/mstanoev/agentcoord/pkg/models"
	"github.com/mstanoev/agentcoord/pkg/state"
	"github.com/pkg/errors"
)

// Logger defines the logging interface for the Coordinator.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

// Config carries the execution knobs of a Coordinator instance.
type Config struct {
	MaxConcurrentTasks int
	TaskTimeout        time.Duration
	RetryDelay         time.Duration
	DefaultMaxRetries  int
	ConflictStrategy   ConflictStrategy
	Similarity         SimilarityFunc
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrentTasks: 5,
		TaskTimeout:        300 * time.Second,
		RetryDelay:         time.Second,
		DefaultMaxRetries:  3,
		ConflictStrategy:   MajorityVote,
	}
}

// Coordinator drives workflow execution: it owns the workflow store and the
// agent registry, schedules dependency-satisfied batches, enforces the
// concurrency cap and snapshots state after every transition.
type Coordinator struct {
	cfg      Config
	store    *WorkflowStore
	agents   *AgentRegistry
	resolver *ConflictResolver
	state    state.StateStore
	logger   Logger

	runMu   sync.Mutex
	running map[string]struct{}
}

// NewCoordinator builds a coordinator and restores any persisted state. A
// nil stateStore disables persistence; a nil logger discards output.
func NewCoordinator(cfg Config, stateStore state.StateStore, logger Logger) *Coordinator {
	if cfg.MaxConcurrentTasks <= 0 {
		cfg.MaxConcurrentTasks = DefaultConfig().MaxConcurrentTasks
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultConfig().TaskTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultConfig().RetryDelay
	}
	if cfg.DefaultMaxRetries < 0 {
		cfg.DefaultMaxRetries = 0
	}
	if logger == nil {
		logger = noopLogger{}
	}
	c := &Coordinator{
		cfg:      cfg,
		store:    NewWorkflowStore(),
		agents:   NewAgentRegistry(),
		resolver: NewConflictResolver(cfg.ConflictStrategy, cfg.Similarity),
		state:    stateStore,
		logger:   logger,
		running:  make(map[string]struct{}),
	}
	c.restore()
	return c
}

// RegisterAgent binds an agent implementation to a type identifier.
func (c *Coordinator) RegisterAgent(agentType string, agent Agent) {
	c.agents.Register(agentType, agent)
	c.logger.Infof("Registered agent: %s", agentType)
}

// CreateWorkflow registers a new empty workflow.
func (c *Coordinator) CreateWorkflow(id, name string, metadata map[string]interface{}) (*models.Workflow, error) {
	wf, err := c.store.Create(id, name, metadata)
	if err != nil {
		return nil, err
	}
	c.persist()
	c.logger.Infof("Created workflow: %s", id)
	return wf, nil
}

// AddTask appends a task to a workflow. Its dependencies must already be
// present in the workflow.
func (c *Coordinator) AddTask(workflowID string, task *models.WorkflowTask) error {
	if err := c.store.AddTask(workflowID, task); err != nil {
		return err
	}
	c.persist()
	c.logger.Infof("Added task %s to workflow %s", task.ID, workflowID)
	return nil
}

// GetWorkflow returns a copy of a workflow.
func (c *Coordinator) GetWorkflow(id string) (*models.Workflow, error) {
	return c.store.Get(id)
}

// ListWorkflows returns copies of all workflows, oldest first.
func (c *Coordinator) ListWorkflows() []*models.Workflow {
	return c.store.List()
}

// CoordinateWorkflow materializes a workflow from a declarative definition,
// executes it and returns the results. Execution failures (cycles, task
// errors) are reflected in the results rather than aborting the call; only
// contract violations return a nil results struct.
func (c *Coordinator) CoordinateWorkflow(ctx context.Context, def WorkflowDefinition) (*WorkflowResults, error) {
	id, tasks, err := c.materialize(def)
	if err != nil {
		return nil, err
	}
	name := def.Name
	if name == "" {
		name = defaultWorkflowName
	}
	if _, err := c.store.Create(id, name, def.Metadata); err != nil {
		return nil, err
	}
	if err := c.store.AddTasks(id, tasks); err != nil {
		return nil, err
	}
	c.persist()

	if err := c.ExecuteWorkflow(ctx, id); err != nil && !errors.Is(err, ErrCircularDependency) {
		return nil, err
	}
	return c.GetWorkflowResults(id)
}

// ExecuteWorkflow runs a workflow to termination: PENDING -> RUNNING ->
// {COMPLETED, FAILED, CANCELLED}. Each pass schedules the batch of
// dependency-satisfied tasks, dispatches them concurrently up to the cap and
// waits for the whole batch to settle before computing the next one.
func (c *Coordinator) ExecuteWorkflow(ctx context.Context, workflowID string) error {
	wf, err := c.store.Get(workflowID)
	if err != nil {
		return err
	}

	c.runMu.Lock()
	if _, active := c.running[workflowID]; active {
		c.runMu.Unlock()
		return errors.Wrapf(ErrWorkflowRunning, "%q", workflowID)
	}
	c.running[workflowID] = struct{}{}
	c.runMu.Unlock()
	defer func() {
		c.runMu.Lock()
		delete(c.running, workflowID)
		c.runMu.Unlock()
	}()

	c.setWorkflowStatus(workflowID, models.StatusRunning, false)

	remaining := make(map[string]struct{}, len(wf.Tasks))
	for id := range wf.Tasks {
		remaining[id] = struct{}{}
	}

	for {
		if ctx.Err() != nil {
			c.logger.Infof("Workflow %s cancelled: %v", workflowID, ctx.Err())
			c.setWorkflowStatus(workflowID, models.StatusCancelled, true)
			return ctx.Err()
		}

		wf, err = c.store.Get(workflowID)
		if err != nil {
			c.setWorkflowStatus(workflowID, models.StatusFailed, true)
			return err
		}

		// Settled tasks never run again. Pruning the whole set here also
		// covers tasks that were already settled before the first batch,
		// as after restoring a snapshot taken mid-run.
		for id := range remaining {
			if settled(wf.Tasks[id]) {
				delete(remaining, id)
			}
		}
		if len(remaining) == 0 {
			break
		}

		batch, err := nextBatch(wf, remaining, c.cfg.MaxConcurrentTasks)
		if err != nil {
			c.logger.Errorf("Workflow %s failed: %v", workflowID, err)
			c.setWorkflowStatus(workflowID, models.StatusFailed, true)
			return err
		}

		// Tasks leave the executor settled, except when the context aborts
		// a retry loop; the cancellation check above handles that pass.
		// Dependents of an exhausted failure stay in remaining and surface
		// as unsatisfiable on a later pass.
		c.dispatchBatch(ctx, workflowID, batch)
	}

	c.setWorkflowStatus(workflowID, models.StatusCompleted, true)
	c.logger.Infof("Workflow %s completed", workflowID)
	return nil
}

// dispatchBatch runs a batch's tasks as independent goroutines and waits
// for all of them to settle. A panicking agent fails its task only.
func (c *Coordinator) dispatchBatch(ctx context.Context, workflowID string, batch []string) {
	var wg sync.WaitGroup
	for _, taskID := range batch {
		wg.Add(1)
		go func(taskID string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.logger.Errorf("Task %s panicked: %v", taskID, r)
					c.settleTask(workflowID, taskID, nil, errors.Errorf("task panicked: %v", r))
				}
			}()
			c.runTask(ctx, workflowID, taskID)
		}(taskID)
	}
	wg.Wait()
}

// DelegateTask dispatches a single payload straight to an agent type: one
// attempt under the task timeout, no workflow bookkeeping, no persistence.
func (c *Coordinator) DelegateTask(ctx context.Context, payload TaskPayload, agentType string) (TaskResult, error) {
	agent, err := c.agents.Get(agentType)
	if err != nil {
		return nil, err
	}
	return c.invokeAgent(ctx, agent, payload)
}

// ResolveConflicts reduces competing agent responses to one candidate using
// the configured strategy.
func (c *Coordinator) ResolveConflicts(candidates []Candidate) (Candidate, error) {
	return c.resolver.Resolve(candidates)
}

// CleanupCompletedWorkflows removes COMPLETED/FAILED workflows whose
// completion is older than maxAge and returns the removed count.
func (c *Coordinator) CleanupCompletedWorkflows(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, wf := range c.store.List() {
		if wf.Status != models.StatusCompleted && wf.Status != models.StatusFailed {
			continue
		}
		if wf.CompletedAt == nil || !wf.CompletedAt.Before(cutoff) {
			continue
		}
		c.store.remove(wf.ID)
		removed++
	}
	if removed > 0 {
		c.persist()
		c.logger.Infof("Cleaned up %d completed workflows", removed)
	}
	return removed
}

func (c *Coordinator) setWorkflowStatus(workflowID string, status models.Status, terminal bool) {
	if err := c.store.mutateWorkflow(workflowID, func(wf *models.Workflow) {
		wf.Status = status
		if terminal {
			now := time.Now()
			wf.CompletedAt = &now
		}
	}); err != nil {
		c.logger.Errorf("Failed to update workflow %s status: %v", workflowID, err)
		return
	}
	c.persist()
}

// persist snapshots the store. Failures are logged and swallowed: durability
// is best-effort and must never abort an in-flight workflow.
func (c *Coordinator) persist() {
	if c.state == nil {
		return
	}
	snap := state.FromWorkflows(c.store.List())
	if err := c.state.Save(snap); err != nil {
		c.logger.Warnf("Failed to save workflow state: %v", err)
	}
}

// restore repopulates the store from the persisted snapshot. Missing or
// corrupt state means starting fresh.
func (c *Coordinator) restore() {
	if c.state == nil {
		return
	}
	snap, err := c.state.Load()
	if err != nil {
		c.logger.Warnf("Failed to load workflow state, starting fresh: %v", err)
		return
	}
	if len(snap.Workflows) > 0 {
		c.store.Replace(snap.ToWorkflows())
		c.logger.Infof("Restored %d workflows from persisted state", len(snap.Workflows))
	}
}
