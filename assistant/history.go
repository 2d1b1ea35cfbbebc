package assistant

import (
	"context"

	"github.com/intraportal/portal-assistant/domain"
	"github.com/intraportal/portal-assistant/inference"
)

// History is the read-only projection of a user's transcript. It resolves the
// session the same way the write path does but never starts or cancels jobs.
type History struct {
	sessions *SessionManager
	client   inference.Client
}

// NewHistory creates a new history reader.
func NewHistory(sessions *SessionManager, client inference.Client) *History {
	return &History{
		sessions: sessions,
		client:   client,
	}
}

// Get returns the user's transcript alongside the profile fields the UI
// displays. A session is created if absent to keep the read path symmetric
// with the write path.
func (h *History) Get(ctx context.Context, profile domain.UserProfile) (*domain.Transcript, error) {
	session, err := h.sessions.GetOrCreate(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}

	messages, err := h.client.ListMessages(ctx, session.ThreadID)
	if err != nil {
		return nil, err
	}

	return &domain.Transcript{
		User:     profile,
		ThreadID: session.ThreadID,
		Messages: messages,
	}, nil
}
