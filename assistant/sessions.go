// Package assistant implements the conversation orchestrator: session
// resolution, single-flight run admission, bounded polling and history reads.
package assistant

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/intraportal/portal-assistant/config"
	"github.com/intraportal/portal-assistant/domain"
	"github.com/intraportal/portal-assistant/inference"
	"github.com/intraportal/portal-assistant/store"
)

// personaInstructions is the fixed instruction set used when a new assistant
// persona has to be provisioned.
const personaInstructions = `You are the internal employee-portal assistant. ` +
	`Answer questions about the company portal, policies and day-to-day work. ` +
	`Be concise and reply in the language the employee writes in.`

// SessionManager resolves the durable (user -> assistant, thread) binding,
// provisioning the remote side lazily on first contact.
type SessionManager struct {
	store  store.Store
	client inference.Client
	cfg    *config.Config

	group singleflight.Group
}

// NewSessionManager creates a new session manager.
func NewSessionManager(st store.Store, client inference.Client, cfg *config.Config) *SessionManager {
	return &SessionManager{
		store:  st,
		client: client,
		cfg:    cfg,
	}
}

// GetOrCreate returns the user's primary session, creating it on first
// contact. Concurrent callers for the same user are collapsed in-process;
// cross-process races are resolved by the store's unique constraint.
func (m *SessionManager) GetOrCreate(ctx context.Context, userID string) (*domain.Session, error) {
	v, err, _ := m.group.Do(userID, func() (interface{}, error) {
		return m.getOrCreate(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Session), nil
}

func (m *SessionManager) getOrCreate(ctx context.Context, userID string) (*domain.Session, error) {
	session, err := m.store.GetPrimarySession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if session != nil {
		return session, nil
	}

	assistantID, err := m.resolveAssistant(ctx)
	if err != nil {
		return nil, err
	}

	threadID, err := m.client.CreateThread(ctx)
	if err != nil {
		return nil, &domain.ProvisioningError{Op: "create-thread", Err: err}
	}

	session = &domain.Session{
		SessionID:   "ses_" + uuid.New().String()[:8],
		UserID:      userID,
		AssistantID: assistantID,
		ThreadID:    threadID,
		IsPrimary:   true,
		CreatedAt:   time.Now(),
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		if err == store.ErrDuplicateSession {
			// Lost the race to another process; the winner's row is the session.
			winner, rerr := m.store.GetPrimarySession(ctx, userID)
			if rerr == nil && winner != nil {
				return winner, nil
			}
		}
		return nil, &domain.ProvisioningError{Op: "persist-session", Err: err}
	}
	return session, nil
}

// resolveAssistant verifies the configured persona, provisioning a fresh one
// when it is missing or unreachable. This is the only path that invents a new
// assistant id.
func (m *SessionManager) resolveAssistant(ctx context.Context) (string, error) {
	if m.cfg.AssistantID != "" {
		err := m.client.GetAssistant(ctx, m.cfg.AssistantID)
		if err == nil {
			return m.cfg.AssistantID, nil
		}
		log.Printf("WARN: configured assistant %s unreachable: %v", m.cfg.AssistantID, err)
	}

	id, err := m.client.CreateAssistant(ctx, m.cfg.AssistantName, personaInstructions)
	if err != nil {
		return "", &domain.ProvisioningError{Op: "create-assistant", Err: err}
	}
	log.Printf("provisioned new assistant persona %s", id)
	return id, nil
}
