package service

import (
	"context"
	"sync"

	"med-agent-be/internal/dto"
	"med-agent-be/internal/mapper"
	"med-agent-be/internal/repository/contract"

	"github.com/google/uuid"
)

// TurnHandler is the conversational core.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sessionID, text string) (string, error)
}

type IChatbotService interface {
	SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetChatHistory(ctx context.Context, sessionId string) (*dto.GetChatHistoryResponse, error)
	DeleteSession(ctx context.Context, sessionId string) error
}

type chatbotService struct {
	agent    TurnHandler
	sessions contract.SessionStore
	mapper   *mapper.ChatMapper
	locks    *sessionLocks
}

func NewChatbotService(agent TurnHandler, sessions contract.SessionStore) IChatbotService {
	return &chatbotService{
		agent:    agent,
		sessions: sessions,
		mapper:   mapper.NewChatMapper(),
		locks:    newSessionLocks(),
	}
}

// SendChat runs one turn. Turns of the same session are serialized; a
// missing session id starts a new session.
func (s *chatbotService) SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	sessionId := request.SessionId
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	unlock := s.locks.lock(sessionId)
	defer unlock()

	reply, err := s.agent.HandleTurn(ctx, sessionId, request.Chat)
	if err != nil {
		return nil, err
	}
	return &dto.SendChatResponse{SessionId: sessionId, Reply: reply}, nil
}

func (s *chatbotService) GetChatHistory(ctx context.Context, sessionId string) (*dto.GetChatHistoryResponse, error) {
	messages, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToHistoryResponse(sessionId, messages), nil
}

func (s *chatbotService) DeleteSession(ctx context.Context, sessionId string) error {
	unlock := s.locks.lock(sessionId)
	defer unlock()
	return s.sessions.Clear(ctx, sessionId)
}

// sessionLocks hands out one mutex per session id and forgets it once no
// caller holds or waits for it.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*refLock)}
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	rl, ok := l.locks[id]
	if !ok {
		rl = &refLock{}
		l.locks[id] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.Lock()
	return func() {
		rl.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
