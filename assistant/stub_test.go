package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/intraportal/portal-assistant/domain"
)

// stubClient is a scriptable in-memory inference provider. PostMessage
// appends to the thread transcript and a completed job appends the canned
// assistant reply, which is close enough to how the real provider behaves.
type stubClient struct {
	mu sync.Mutex

	// scripted behavior
	assistantErr       error
	createdAssistantID string
	createAssistantErr error
	threadID           string
	createThreadErr    error
	postErr            error
	startErr           error
	statusErr          error
	cancelErr          error
	listJobsErr        error
	listMessagesErr    error

	jobs     []domain.Job       // preexisting jobs returned by ListJobs
	statuses []domain.JobStatus // consumed one per GetJobStatus; the last repeats
	jobError string             // provider error detail on failed/expired
	reply    string             // assistant reply appended when a job completes

	// recorded activity
	messages          []domain.Message
	posted            []string
	cancelled         []string
	createdThreads    int
	createdAssistants int
	startedJobs       int
	replyAdded        bool
}

func newStubClient() *stubClient {
	return &stubClient{
		createdAssistantID: "asst_new",
		threadID:           "thread_1",
		reply:              "stub reply",
	}
}

func (s *stubClient) CreateAssistant(ctx context.Context, name, instructions string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createAssistantErr != nil {
		return "", s.createAssistantErr
	}
	s.createdAssistants++
	return s.createdAssistantID, nil
}

func (s *stubClient) GetAssistant(ctx context.Context, assistantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assistantErr
}

func (s *stubClient) CreateThread(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createThreadErr != nil {
		return "", s.createThreadErr
	}
	s.createdThreads++
	return s.threadID, nil
}

func (s *stubClient) PostMessage(ctx context.Context, threadID, role, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.postErr != nil {
		return s.postErr
	}
	s.posted = append(s.posted, text)
	s.messages = append(s.messages, domain.Message{
		MessageID: "msg_user",
		ThreadID:  threadID,
		Role:      role,
		Content:   text,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *stubClient) StartJob(ctx context.Context, threadID, assistantID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return nil, s.startErr
	}
	s.startedJobs++
	return &domain.Job{JobID: "job_new", ThreadID: threadID, Status: domain.JobStatusQueued}, nil
}

func (s *stubClient) GetJobStatus(ctx context.Context, threadID, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	status := domain.JobStatusCompleted
	if len(s.statuses) > 0 {
		status = s.statuses[0]
		if len(s.statuses) > 1 {
			s.statuses = s.statuses[1:]
		}
	}
	if status == domain.JobStatusCompleted && s.reply != "" && !s.replyAdded {
		s.replyAdded = true
		s.messages = append(s.messages, domain.Message{
			MessageID: "msg_assistant",
			ThreadID:  threadID,
			Role:      "assistant",
			Content:   s.reply,
			CreatedAt: time.Now(),
		})
	}
	return &domain.Job{JobID: jobID, ThreadID: threadID, Status: status, Error: s.jobError}, nil
}

func (s *stubClient) CancelJob(ctx context.Context, threadID, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.cancelled = append(s.cancelled, jobID)
	// Cancelled jobs stop showing up as stale.
	for i := range s.jobs {
		if s.jobs[i].JobID == jobID {
			s.jobs[i].Status = domain.JobStatusCancelled
		}
	}
	return nil
}

func (s *stubClient) ListJobs(ctx context.Context, threadID string) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listJobsErr != nil {
		return nil, s.listJobsErr
	}
	jobs := make([]domain.Job, len(s.jobs))
	copy(jobs, s.jobs)
	return jobs, nil
}

func (s *stubClient) ListMessages(ctx context.Context, threadID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listMessagesErr != nil {
		return nil, s.listMessagesErr
	}
	messages := make([]domain.Message, len(s.messages))
	copy(messages, s.messages)
	return messages, nil
}

// noSleep replaces the poll sleep in tests and counts invocations.
type noSleep struct {
	mu    sync.Mutex
	calls int
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
	return ctx.Err()
}
