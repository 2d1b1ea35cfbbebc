package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/intraportal/portal-assistant/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "test-key", "test-model", 5*time.Second)
}

func TestStartJobPassthrough(t *testing.T) {
	var gotPath, gotAuth, gotBeta string
	var gotBody map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBeta = r.Header.Get("OpenAI-Beta")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{
			"id": "run_1", "thread_id": "thread_1", "status": "queued",
		})
	})

	job, err := client.StartJob(context.Background(), "thread_1", "asst_1")
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	if gotPath != "POST /v1/threads/thread_1/runs" {
		t.Fatalf("unexpected request: %s", gotPath)
	}
	if gotAuth != "Bearer test-key" || gotBeta != "assistants=v2" {
		t.Fatalf("unexpected headers: auth=%q beta=%q", gotAuth, gotBeta)
	}
	if gotBody["assistant_id"] != "asst_1" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
	if job.JobID != "run_1" || job.Status != domain.JobStatusQueued {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestGetJobStatusNormalizesInProgress(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"id": "run_1", "thread_id": "thread_1", "status": "in_progress",
		})
	})

	job, err := client.GetJobStatus(context.Background(), "thread_1", "run_1")
	if err != nil {
		t.Fatalf("GetJobStatus failed: %v", err)
	}
	if job.Status != domain.JobStatusRunning {
		t.Fatalf("expected running, got %s", job.Status)
	}
}

func TestGetJobStatusCarriesLastError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "run_1", "thread_id": "thread_1", "status": "failed",
			"last_error": map[string]string{"code": "rate_limit_exceeded", "message": "too many requests"},
		})
	})

	job, err := client.GetJobStatus(context.Background(), "thread_1", "run_1")
	if err != nil {
		t.Fatalf("GetJobStatus failed: %v", err)
	}
	if job.Status != domain.JobStatusFailed || job.Error != "too many requests" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestListMessagesJoinsContentBlocks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("order") != "asc" {
			t.Errorf("expected order=asc, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"id": "msg_1", "thread_id": "thread_1", "role": "assistant",
					"created_at": 1700000000,
					"content": []map[string]interface{}{
						{"type": "text", "text": map[string]string{"value": "hello"}},
						{"type": "image_file"},
						{"type": "text", "text": map[string]string{"value": "world"}},
					},
				},
			},
		})
	})

	messages, err := client.ListMessages(context.Background(), "thread_1")
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Content != "hello\nworld" {
		t.Fatalf("unexpected content: %q", messages[0].Content)
	}
	if messages[0].Role != "assistant" {
		t.Fatalf("unexpected role: %q", messages[0].Role)
	}
}

func TestProviderErrorIsWrapped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "quota exhausted", "type": "rate_limit"},
		})
	})

	_, err := client.StartJob(context.Background(), "thread_1", "asst_1")
	var transErr *domain.TransportError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if transErr.Op != "start-job" {
		t.Fatalf("unexpected op: %s", transErr.Op)
	}
	// The provider's original message is preserved for diagnostics.
	if got := transErr.Error(); !strings.Contains(got, "quota exhausted") {
		t.Fatalf("original message lost: %s", got)
	}
}

func TestConnectionFailureIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening any more
	client := NewHTTPClient(srv.URL, "", "test-model", time.Second)

	err := client.PostMessage(context.Background(), "thread_1", "user", "hi")
	var transErr *domain.TransportError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
}

func TestCancelJobPath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{
			"id": "run_1", "thread_id": "thread_1", "status": "cancelling",
		})
	})

	if err := client.CancelJob(context.Background(), "thread_1", "run_1"); err != nil {
		t.Fatalf("CancelJob failed: %v", err)
	}
	if gotPath != "POST /v1/threads/thread_1/runs/run_1/cancel" {
		t.Fatalf("unexpected request: %s", gotPath)
	}
}
