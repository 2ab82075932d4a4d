package model

import "slices"

// Intent is the closed label set a query can be routed by.
type Intent string

const (
	IntentFAQ          Intent = "faq"
	IntentOrderStatus  Intent = "order_status"
	IntentOrderDetails Intent = "order_details"
	IntentRefundStatus Intent = "refund_status"
	IntentReview       Intent = "review"

	// IntentUnclassified marks a provider answer outside the label set. It is
	// resolved by the fallback rules before dispatch.
	IntentUnclassified Intent = ""
)

// CandidateIntents is the label set offered to the classifier, in prompt order.
var CandidateIntents = []Intent{
	IntentFAQ,
	IntentOrderStatus,
	IntentRefundStatus,
	IntentReview,
	IntentOrderDetails,
}

// Valid reports whether i is one of the five routable intents.
func (i Intent) Valid() bool {
	return slices.Contains(CandidateIntents, i)
}

func (i Intent) String() string {
	if i == IntentUnclassified {
		return "unclassified"
	}
	return string(i)
}

// Turn is one completed exchange.
type Turn struct {
	User  string `json:"user"`
	Agent string `json:"agent"`
}

// ConversationState is the record threaded through one turn of the pipeline.
// Concurrency model:
//   - The graph receives it as local state; every stage reads and writes it
//     only inside Eino state handlers or compose.ProcessState.
//   - Across turns it is owned by the conversation manager, which holds the
//     thread lock from load until save. Repositories keep copies, never the
//     live pointer.
type ConversationState struct {
	ThreadID       string  `json:"thread_id"`
	Input          string  `json:"input"`
	Classification *Intent `json:"classification,omitempty"`
	ToolOutput     *string `json:"tool_output,omitempty"`
	Output         *string `json:"output,omitempty"`
	History        []Turn  `json:"history"`

	// Context is scratch space for lookups that extract entities across
	// turns. The pipeline stages never read it.
	Context map[string]any `json:"context,omitempty"`
}

// NewConversationState starts a thread with its first query.
func NewConversationState(threadID, input string) *ConversationState {
	return &ConversationState{
		ThreadID: threadID,
		Input:    input,
		History:  []Turn{},
	}
}

// BeginTurn overwrites the input and clears every per-turn field so nothing
// from the previous turn reaches the classifier or the dispatcher.
func (s *ConversationState) BeginTurn(input string) {
	s.Input = input
	s.Classification = nil
	s.ToolOutput = nil
	s.Output = nil
}

// AddTurn appends a completed exchange and keeps the last limit turns.
// A limit of zero keeps everything.
func (s *ConversationState) AddTurn(user, agent string, limit int) {
	s.History = append(s.History, Turn{User: user, Agent: agent})
	if limit > 0 && len(s.History) > limit {
		s.History = slices.Clone(s.History[len(s.History)-limit:])
	}
}

// LastTurn returns the most recent exchange.
func (s *ConversationState) LastTurn() (Turn, bool) {
	if len(s.History) == 0 {
		return Turn{}, false
	}
	return s.History[len(s.History)-1], true
}

// OutputText returns the formatted answer or "" when absent.
func (s *ConversationState) OutputText() string {
	if s.Output == nil {
		return ""
	}
	return *s.Output
}

// Clone returns a deep copy safe to hand to a repository.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Classification != nil {
		v := *s.Classification
		c.Classification = &v
	}
	if s.ToolOutput != nil {
		v := *s.ToolOutput
		c.ToolOutput = &v
	}
	if s.Output != nil {
		v := *s.Output
		c.Output = &v
	}
	c.History = slices.Clone(s.History)
	if c.History == nil {
		c.History = []Turn{}
	}
	if s.Context != nil {
		c.Context = make(map[string]any, len(s.Context))
		for k, v := range s.Context {
			c.Context[k] = v
		}
	}
	return &c
}

// QueryInput represents the input for processing user queries.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}
