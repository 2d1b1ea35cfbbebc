// Package store defines the storage interface and implementations.
package store

import (
	"context"
	"errors"

	"github.com/intraportal/portal-assistant/domain"
)

// ErrDuplicateSession is returned by CreateSession when another primary
// session already exists for the user. The caller re-reads the winner's row.
var ErrDuplicateSession = errors.New("primary session already exists for user")

// Store defines the interface for session persistence.
type Store interface {
	// CreateSession persists a new session. Returns ErrDuplicateSession when
	// a primary session for the same user already exists.
	CreateSession(ctx context.Context, session *domain.Session) error

	// GetPrimarySession returns the user's primary session, or nil if none.
	GetPrimarySession(ctx context.Context, userID string) (*domain.Session, error)

	// Lifecycle
	Close() error
}
