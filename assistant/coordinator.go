package assistant

import (
	"context"
	"log"
	"time"

	"github.com/intraportal/portal-assistant/domain"
	"github.com/intraportal/portal-assistant/inference"
)

// cancelPollStep is how often the coordinator re-checks a cancelled job while
// waiting out the grace period.
const cancelPollStep = 250 * time.Millisecond

// Coordinator guarantees at-most-one in-flight job per thread. It cancels any
// stale job before admitting new work; the provider's thread is the source of
// truth, no local lock is held.
type Coordinator struct {
	client      inference.Client
	cancelGrace time.Duration
	sleep       SleepFunc
}

// NewCoordinator creates a new run coordinator.
func NewCoordinator(client inference.Client, cancelGrace time.Duration) *Coordinator {
	return &Coordinator{
		client:      client,
		cancelGrace: cancelGrace,
		sleep:       sleepContext,
	}
}

// AdmitTurn clears the thread of stale work, posts the user message and
// starts a new job. It returns the job without waiting for completion.
func (c *Coordinator) AdmitTurn(ctx context.Context, threadID, assistantID, text string) (*domain.Job, error) {
	if err := c.clearStaleJob(ctx, threadID); err != nil {
		return nil, err
	}

	if err := c.client.PostMessage(ctx, threadID, "user", text); err != nil {
		return nil, err
	}

	job, err := c.client.StartJob(ctx, threadID, assistantID)
	if err != nil {
		return nil, &domain.RunStartError{ThreadID: threadID, Err: err}
	}
	return job, nil
}

// clearStaleJob cancels a leftover non-terminal job and waits briefly for the
// provider to acknowledge. Cancellation is best-effort: a stuck job must never
// permanently wedge a user's conversation, so failures only log.
func (c *Coordinator) clearStaleJob(ctx context.Context, threadID string) error {
	jobs, err := c.client.ListJobs(ctx, threadID)
	if err != nil {
		return err
	}

	var stale *domain.Job
	for i := range jobs {
		if !jobs[i].Status.Terminal() {
			stale = &jobs[i]
			break
		}
	}
	if stale == nil {
		return nil
	}

	log.Printf("WARN: cancelling stale job %s on thread %s (status %s)", stale.JobID, threadID, stale.Status)
	if err := c.client.CancelJob(ctx, threadID, stale.JobID); err != nil {
		log.Printf("ERROR: failed to cancel stale job %s: %v", stale.JobID, err)
		return nil
	}

	deadline := time.Now().Add(c.cancelGrace)
	for time.Now().Before(deadline) {
		job, err := c.client.GetJobStatus(ctx, threadID, stale.JobID)
		if err != nil {
			log.Printf("WARN: failed to check cancelled job %s: %v", stale.JobID, err)
			return nil
		}
		if job.Status.Terminal() {
			return nil
		}
		if err := c.sleep(ctx, cancelPollStep); err != nil {
			return err
		}
	}
	// Grace period elapsed without acknowledgement; proceed anyway.
	return nil
}
