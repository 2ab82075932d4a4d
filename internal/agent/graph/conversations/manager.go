package conversations

import (
	"context"
	"fmt"
	"sync"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

// threadLock is a one-slot semaphore shared by every caller working on one
// thread. A channel is used so waiting can be abandoned with the context.
type threadLock struct {
	sem  chan struct{}
	refs int
}

// Session is exclusive access to one thread's state between Begin and End.
type Session struct {
	State *model.ConversationState
	IsNew bool

	m    *MessagesManager
	id   string
	lock *threadLock
	done bool
}

// MessagesManager owns conversation state across turns. Turns on the same
// thread are serialised; different threads proceed in parallel.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
	historyLimit     int

	mu    sync.Mutex
	locks map[string]*threadLock
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		historyLimit:     config.HistoryLimit,
		locks:            make(map[string]*threadLock),
	}
}

// HistoryLimit is the number of turns kept per thread; zero keeps all.
func (cm *MessagesManager) HistoryLimit() int {
	return cm.historyLimit
}

func (cm *MessagesManager) acquire(ctx context.Context, id string) (*threadLock, error) {
	cm.mu.Lock()
	l, ok := cm.locks[id]
	if !ok {
		l = &threadLock{sem: make(chan struct{}, 1)}
		cm.locks[id] = l
	}
	l.refs++
	cm.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return l, nil
	case <-ctx.Done():
		cm.unref(id, l)
		return nil, ctx.Err()
	}
}

func (cm *MessagesManager) release(id string, l *threadLock) {
	<-l.sem
	cm.unref(id, l)
}

func (cm *MessagesManager) unref(id string, l *threadLock) {
	cm.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(cm.locks, id)
	}
	cm.mu.Unlock()
}

// Begin locks the thread and loads its state, creating a fresh one for an
// unknown id. The caller must call End exactly once.
func (cm *MessagesManager) Begin(ctx context.Context, conversationID string) (*Session, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation id is empty")
	}

	l, err := cm.acquire(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("lock conversation %s: %w", conversationID, err)
	}

	state, ok, err := cm.conversationRepo.Load(ctx, conversationID)
	if err != nil {
		cm.release(conversationID, l)
		return nil, err
	}
	if !ok {
		state = model.NewConversationState(conversationID, "")
		logx.Ctx(ctx).Debug().Msg("Starting new conversation")
	}
	return &Session{State: state, IsNew: !ok, m: cm, id: conversationID, lock: l}, nil
}

// Save persists the session state.
func (s *Session) Save(ctx context.Context) error {
	if s.done {
		return fmt.Errorf("session for %s already ended", s.id)
	}
	return s.m.conversationRepo.Save(ctx, s.State)
}

// End releases the thread lock. It is safe to call more than once.
func (s *Session) End() {
	if s.done {
		return
	}
	s.done = true
	s.m.release(s.id, s.lock)
}

// Reset forgets a thread. It waits for any turn in progress on it.
func (cm *MessagesManager) Reset(ctx context.Context, conversationID string) error {
	l, err := cm.acquire(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("lock conversation %s: %w", conversationID, err)
	}
	defer cm.release(conversationID, l)
	return cm.conversationRepo.Delete(ctx, conversationID)
}

// History returns a copy of the stored turns for a thread.
func (cm *MessagesManager) History(ctx context.Context, conversationID string) ([]model.Turn, error) {
	state, ok, err := cm.conversationRepo.Load(ctx, conversationID)
	if err != nil || !ok {
		return nil, err
	}
	return state.History, nil
}

// activeLocks reports how many thread locks are held or awaited.
func (cm *MessagesManager) activeLocks() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.locks)
}
