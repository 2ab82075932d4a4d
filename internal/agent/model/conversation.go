package model

import (
	"context"
	"time"
)

type ConversationRepository interface {
	// Load returns the stored state for a thread; found is false for a new thread.
	Load(ctx context.Context, conversationID string) (state *ConversationState, found bool, err error)

	// Save stores a snapshot of the state.
	Save(ctx context.Context, state *ConversationState) error

	// Delete forgets a thread.
	Delete(ctx context.Context, conversationID string) error
}

// Interaction is one logged question/answer pair.
type Interaction struct {
	At       time.Time
	Query    string
	Answer   string
	ThreadID string
}

// InteractionLog is an append-only durable record of answered queries.
type InteractionLog interface {
	Append(ctx context.Context, rec Interaction) error
}
