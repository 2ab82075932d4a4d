package repo

import (
	"context"
	"sync"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

// MemoryConversationRepository keeps conversations in process memory. It is
// the default registry when no Redis URL is configured.
type MemoryConversationRepository struct {
	mu     sync.RWMutex
	states map[string]*model.ConversationState
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{states: make(map[string]*model.ConversationState)}
}

func (r *MemoryConversationRepository) Load(_ context.Context, conversationID string) (*model.ConversationState, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[conversationID]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (r *MemoryConversationRepository) Save(_ context.Context, state *model.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.ThreadID] = state.Clone()
	return nil
}

func (r *MemoryConversationRepository) Delete(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, conversationID)
	return nil
}

// Len reports how many threads are stored.
func (r *MemoryConversationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
