package coordinator

import (
	"context"
	"time"

	"github.com/mstanoev/agentcoord/pkg/models"
	"github.com/pkg/errors"
)

const timedOutMsg = "Task timed out"

// runTask drives a single task through its bounded retry loop. Each attempt
// runs the agent under the configured timeout; agent-raised errors retry
// with linear backoff, while timeouts and unknown agent types are terminal
// on first occurrence. The task ends COMPLETED or FAILED, never in between.
func (c *Coordinator) runTask(ctx context.Context, workflowID, taskID string) {
	wf, err := c.store.Get(workflowID)
	if err != nil {
		c.logger.Errorf("Cannot run task %s: %v", taskID, err)
		return
	}
	task, ok := wf.Tasks[taskID]
	if !ok {
		c.logger.Errorf("Task %s not found in workflow %s", taskID, workflowID)
		return
	}

	agent, err := c.agents.Get(task.AgentType)
	if err != nil {
		// Configuration error: fail without retrying.
		c.settleTask(workflowID, taskID, nil, err)
		return
	}

	payload := TaskPayload{
		ID:         task.ID,
		Content:    task.Name,
		Priority:   string(task.Priority),
		WorkflowID: workflowID,
	}

	for {
		c.markTaskRunning(workflowID, taskID)

		result, attemptErr := c.invokeAgent(ctx, agent, payload)

		if attemptErr == nil {
			c.settleTask(workflowID, taskID, result, nil)
			return
		}
		if errors.Is(attemptErr, ErrTaskTimeout) {
			c.settleTask(workflowID, taskID, nil, errors.New(timedOutMsg))
			return
		}

		retry := c.settleTaskForRetry(workflowID, taskID, attemptErr)
		if !retry {
			return
		}
		if ctx.Err() != nil {
			// Workflow abort: stop at the attempt boundary, leave FAILED.
			c.logger.Infof("Task %s retry abandoned: %v", taskID, ctx.Err())
			return
		}

		var attempt int
		_ = c.store.mutateTask(workflowID, taskID, func(t *models.WorkflowTask) {
			attempt = t.RetryCount
		})
		backoff := time.Duration(attempt) * c.cfg.RetryDelay
		c.logger.Infof("Retrying task %s in workflow %s (attempt %d/%d) after %s",
			taskID, workflowID, attempt, task.MaxRetries, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			c.logger.Infof("Task %s retry abandoned: %v", taskID, ctx.Err())
			return
		}
	}
}

// invokeAgent runs one attempt under the task timeout. The timeout context
// is detached from the workflow context: an aborted workflow lets in-flight
// attempts settle rather than killing them mid-call.
func (c *Coordinator) invokeAgent(ctx context.Context, agent Agent, payload TaskPayload) (TaskResult, error) {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), c.cfg.TaskTimeout)
	defer cancel()

	type outcome struct {
		res TaskResult
		err error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		res, err := agent.Execute(timeoutCtx, payload)
		resultCh <- outcome{res, err}
	}()

	select {
	case r := <-resultCh:
		return r.res, r.err
	case <-timeoutCtx.Done():
		return nil, errors.Wrapf(ErrTaskTimeout, "task %s", payload.ID)
	}
}

func (c *Coordinator) markTaskRunning(workflowID, taskID string) {
	if err := c.store.mutateTask(workflowID, taskID, func(t *models.WorkflowTask) {
		now := time.Now()
		t.Status = models.StatusRunning
		t.StartTime = &now
		t.EndTime = nil
	}); err != nil {
		c.logger.Errorf("Failed to mark task %s running: %v", taskID, err)
	}
}

// settleTask records a terminal attempt outcome and snapshots state.
func (c *Coordinator) settleTask(workflowID, taskID string, result TaskResult, taskErr error) {
	if err := c.store.mutateTask(workflowID, taskID, func(t *models.WorkflowTask) {
		now := time.Now()
		t.EndTime = &now
		if taskErr != nil {
			t.Status = models.StatusFailed
			t.Error = taskErr.Error()
			t.Result = nil
		} else {
			t.Status = models.StatusCompleted
			t.Result = result
			t.Error = ""
		}
	}); err != nil {
		c.logger.Errorf("Failed to settle task %s: %v", taskID, err)
		return
	}
	c.persist()
}

// settleTaskForRetry marks a failed attempt and, when retries remain, bumps
// the retry counter. Returns whether another attempt should run.
func (c *Coordinator) settleTaskForRetry(workflowID, taskID string, taskErr error) bool {
	retry := false
	if err := c.store.mutateTask(workflowID, taskID, func(t *models.WorkflowTask) {
		now := time.Now()
		t.EndTime = &now
		t.Status = models.StatusFailed
		t.Error = taskErr.Error()
		t.Result = nil
		if t.RetryCount < t.MaxRetries {
			t.RetryCount++
			retry = true
		}
	}); err != nil {
		c.logger.Errorf("Failed to record attempt for task %s: %v", taskID, err)
		return false
	}
	c.persist()
	return retry
}
