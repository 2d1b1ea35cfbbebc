package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/intraportal/portal-assistant/config"
	"github.com/intraportal/portal-assistant/domain"
	"github.com/intraportal/portal-assistant/inference"
)

// SleepFunc suspends for d or until ctx is done. Injectable so the poll loop
// is deterministic under test.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Orchestrator is the public entry point of the subsystem. One call to Ask
// moves through RESOLVE_SESSION -> ENRICH -> ADMIT -> POLL and ends in either
// the assistant's reply or a typed failure.
type Orchestrator struct {
	sessions *SessionManager
	coord    *Coordinator
	client   inference.Client

	pollInterval time.Duration
	maxAttempts  int
	sleep        SleepFunc
}

// NewOrchestrator creates a new conversation orchestrator.
func NewOrchestrator(sessions *SessionManager, coord *Coordinator, client inference.Client, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		sessions:     sessions,
		coord:        coord,
		client:       client,
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.PollMaxAttempts,
		sleep:        sleepContext,
	}
}

// Ask sends one turn of conversation for the user and blocks until the
// assistant replies, the job fails, or the poll budget runs out.
func (o *Orchestrator) Ask(ctx context.Context, profile domain.UserProfile, prompt string) (string, error) {
	session, err := o.sessions.GetOrCreate(ctx, profile.UserID)
	if err != nil {
		return "", err
	}

	text, err := o.enrich(ctx, session.ThreadID, profile, prompt)
	if err != nil {
		return "", err
	}

	job, err := o.coord.AdmitTurn(ctx, session.ThreadID, session.AssistantID, text)
	if err != nil {
		return "", err
	}

	return o.poll(ctx, session.ThreadID, job.JobID)
}

// enrich prepends the user's context to the very first message of a thread.
// Detection is by list length, so this happens at most once per thread.
func (o *Orchestrator) enrich(ctx context.Context, threadID string, profile domain.UserProfile, prompt string) (string, error) {
	messages, err := o.client.ListMessages(ctx, threadID)
	if err != nil {
		return "", err
	}
	if len(messages) > 0 {
		return prompt, nil
	}
	return fmt.Sprintf(
		"The employee you are talking to is %s, %s in the %s department.\n\n%s",
		profile.DisplayName, profile.Role, profile.Department, prompt), nil
}

// poll watches the job until it reaches a terminal status or the retry budget
// is exhausted. A job abandoned on timeout is cancelled by the next turn's
// admit step, not here.
func (o *Orchestrator) poll(ctx context.Context, threadID, jobID string) (string, error) {
	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		job, err := o.client.GetJobStatus(ctx, threadID, jobID)
		if err != nil {
			return "", err
		}

		switch job.Status {
		case domain.JobStatusCompleted:
			return o.lastAssistantMessage(ctx, threadID)

		case domain.JobStatusFailed, domain.JobStatusExpired:
			return "", &domain.RunError{Status: job.Status, Detail: job.Error}

		case domain.JobStatusCancelled:
			return "", domain.ErrSuperseded

		case domain.JobStatusRequiresAction:
			// Tool-call fulfillment is not implemented; abandon the job.
			if err := o.client.CancelJob(ctx, threadID, jobID); err != nil {
				log.Printf("WARN: failed to cancel job %s after requires_action: %v", jobID, err)
			}
			return "", &domain.RunError{Status: job.Status, Detail: "tool calls are not supported"}
		}

		if err := o.sleep(ctx, o.pollInterval); err != nil {
			return "", err
		}
	}
	return "", domain.ErrTimeout
}

func (o *Orchestrator) lastAssistantMessage(ctx context.Context, threadID string) (string, error) {
	messages, err := o.client.ListMessages(ctx, threadID)
	if err != nil {
		return "", err
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "assistant" && strings.TrimSpace(messages[i].Content) != "" {
			return messages[i].Content, nil
		}
	}
	return "", &domain.RunError{Status: domain.JobStatusCompleted, Detail: "job completed without an assistant message"}
}
