package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"med-agent-be/internal/repository/contract"
	"med-agent-be/pkg/store"

	backend "github.com/redis/go-redis/v9"
)

// SessionStore keeps each history as a Redis list of JSON messages.
type SessionStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ contract.SessionStore = &SessionStore{}

type Option func(*SessionStore)

// WithTTL refreshes the expiration of a session on every append.
func WithTTL(ttl time.Duration) Option {
	return func(s *SessionStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *SessionStore) {
		s.prefix = prefix
	}
}

func NewSessionStore(client *backend.Client, opts ...Option) *SessionStore {
	s := &SessionStore{
		client: client,
		prefix: "medagent:session:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) ([]store.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", contract.ErrSessionStore, sessionID, err)
	}

	history := make([]store.Message, 0, len(raw))
	for _, item := range raw {
		var msg store.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("%w: corrupt message in %s: %v", contract.ErrSessionStore, sessionID, err)
		}
		history = append(history, msg)
	}
	return history, nil
}

func (s *SessionStore) AppendUser(ctx context.Context, sessionID, text string) error {
	return s.append(ctx, sessionID, store.Message{Role: store.RoleUser, Text: text})
}

func (s *SessionStore) AppendAssistant(ctx context.Context, sessionID, text string) error {
	return s.append(ctx, sessionID, store.Message{Role: store.RoleAssistant, Text: text})
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: clear %s: %v", contract.ErrSessionStore, sessionID, err)
	}
	return nil
}

func (s *SessionStore) append(ctx context.Context, sessionID string, msg store.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: append to %s: %v", contract.ErrSessionStore, sessionID, err)
	}
	return nil
}
