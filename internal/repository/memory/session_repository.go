package memory

import (
	"context"
	"sync"
	"time"

	"med-agent-be/internal/repository/contract"
	"med-agent-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps histories in process memory. Idle sessions expire
// after the configured TTL.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

var _ contract.SessionStore = &SessionRepository{}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) ([]store.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.load(sessionID)
	out := make([]store.Message, len(history))
	copy(out, history)
	return out, nil
}

func (r *SessionRepository) AppendUser(ctx context.Context, sessionID, text string) error {
	return r.append(sessionID, store.Message{Role: store.RoleUser, Text: text})
}

func (r *SessionRepository) AppendAssistant(ctx context.Context, sessionID, text string) error {
	return r.append(sessionID, store.Message{Role: store.RoleAssistant, Text: text})
}

func (r *SessionRepository) Clear(ctx context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

func (r *SessionRepository) append(sessionID string, msg store.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := append(r.load(sessionID), msg)
	r.cache.Set(sessionID, history, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) load(sessionID string) []store.Message {
	if x, found := r.cache.Get(sessionID); found {
		return x.([]store.Message)
	}
	return nil
}
