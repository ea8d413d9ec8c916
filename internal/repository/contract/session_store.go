package contract

import (
	"context"
	"errors"

	"med-agent-be/pkg/store"
)

// ErrSessionStore wraps every backend failure of a SessionStore.
var ErrSessionStore = errors.New("session store unavailable")

// SessionStore keeps the append-ordered message history of each session.
// An unknown session reads as an empty history.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) ([]store.Message, error)
	AppendUser(ctx context.Context, sessionID, text string) error
	AppendAssistant(ctx context.Context, sessionID, text string) error
	Clear(ctx context.Context, sessionID string) error
}
