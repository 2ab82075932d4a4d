package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-commerce-agent/server/internal/agent/graph/parsers"
	"github.com/Chative-commerce-agent/server/internal/agent/model"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

const (
	NodeClassifier = "Classifier"
	NodeDispatcher = "ToolDispatcher"
	NodeFormatter  = "AnswerFormatter"
	NodeLogger     = "InteractionLogger"
	NodeFinalizer  = "Finalizer"
)

// DispatchErrorPrefix starts the tool output of a failed lookup.
const DispatchErrorPrefix = "Error during tool dispatch: "

// IntentDispatcher runs the lookup registered for an intent.
type IntentDispatcher interface {
	Dispatch(ctx context.Context, intent model.Intent, query string, h model.CommerceHandle) (string, error)
}

// NewClassifierPreHandler starts a turn: the new query replaces the input and
// every per-turn field is cleared.
func NewClassifierPreHandler() func(context.Context, model.QueryInput, *model.ConversationState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.ConversationState) (model.QueryInput, error) {
		if s.ThreadID == "" {
			s.ThreadID = in.ConversationID
		}
		s.BeginTurn(in.Query)
		return in, nil
	}
}

// NewClassifierNode classifies the query. A provider failure is logged and
// the keyword fallback decides, so the node never fails the turn.
func NewClassifierNode(c *Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (model.Intent, error) {
		intent, err := c.Classify(ctx, in.Query)
		if err != nil {
			intent = parsers.FallbackIntent(in.Query)
			logx.Ctx(ctx).Warn().
				Err(err).
				Str("node", NodeClassifier).
				Str("fallback_intent", intent.String()).
				Msg("Classifier provider failed; using keyword fallback")
		}
		return intent, nil
	})
}

// NewClassifierPostHandler records the classification on the state.
func NewClassifierPostHandler() func(context.Context, model.Intent, *model.ConversationState) (model.Intent, error) {
	return func(ctx context.Context, out model.Intent, s *model.ConversationState) (model.Intent, error) {
		intent := out
		s.Classification = &intent
		logx.Ctx(ctx).Debug().Str("node", NodeClassifier).Str("intent", out.String()).Msg("Query classified")
		return out, nil
	}
}

// NewDispatcherNode runs one lookup inside its own data handle. Errors and
// panics become the tool output so the turn still completes.
func NewDispatcherNode(d IntentDispatcher, store model.CommerceStore, timeout time.Duration) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, intent model.Intent) (string, error) {
		var query string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			query = s.Input
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}
		return dispatch(ctx, d, store, timeout, intent, query), nil
	})
}

func dispatch(ctx context.Context, d IntentDispatcher, store model.CommerceStore, timeout time.Duration,
	intent model.Intent, query string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logx.Ctx(ctx).Error().Str("node", NodeDispatcher).Str("intent", intent.String()).
				Interface("panic", r).Msg("Lookup panicked")
			out = DispatchErrorPrefix + fmt.Sprint(r)
		}
	}()

	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	h, err := store.Open(ctx)
	if err != nil {
		logx.Ctx(ctx).Error().Err(err).Str("node", NodeDispatcher).Msg("Failed to open data handle")
		return DispatchErrorPrefix + err.Error()
	}
	defer func() {
		if err := h.Close(); err != nil {
			logx.Ctx(ctx).Warn().Err(err).Str("node", NodeDispatcher).Msg("Failed to close data handle")
		}
	}()

	res, err := d.Dispatch(ctx, intent, query, h)
	if err != nil {
		logx.Ctx(ctx).Error().Err(err).Str("node", NodeDispatcher).Str("intent", intent.String()).Msg("Lookup failed")
		return DispatchErrorPrefix + err.Error()
	}
	return res
}

// NewDispatcherPostHandler records the tool output on the state.
func NewDispatcherPostHandler() func(context.Context, string, *model.ConversationState) (string, error) {
	return func(ctx context.Context, out string, s *model.ConversationState) (string, error) {
		v := out
		s.ToolOutput = &v
		return out, nil
	}
}

// NewFormatterNode rephrases the tool output. On failure the raw output is
// used as the answer.
func NewFormatterNode(f *Formatter) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, raw string) (string, error) {
		if !f.Enabled() {
			return raw, nil
		}
		out, err := f.Format(ctx, raw)
		if err != nil {
			logx.Ctx(ctx).Warn().Err(err).Str("node", NodeFormatter).Msg("Formatter failed; returning raw tool output")
			return raw, nil
		}
		return out, nil
	})
}

// NewFormatterPostHandler records the answer on the state.
func NewFormatterPostHandler() func(context.Context, string, *model.ConversationState) (string, error) {
	return func(ctx context.Context, out string, s *model.ConversationState) (string, error) {
		v := out
		s.Output = &v
		return out, nil
	}
}

// NewLoggerNode appends the exchange to the interaction log. A failed write
// is reported and otherwise ignored.
func NewLoggerNode(l model.InteractionLog) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, answer string) (string, error) {
		if l == nil {
			return answer, nil
		}
		rec := model.Interaction{At: time.Now().UTC(), Answer: answer}
		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			rec.Query = s.Input
			rec.ThreadID = s.ThreadID
			return nil
		})
		if err := l.Append(ctx, rec); err != nil {
			logx.Ctx(ctx).Error().Err(err).Str("node", NodeLogger).Msg("Failed to append interaction log")
		}
		return answer, nil
	})
}

// NewFinalizerNode closes the turn: the exchange joins the history, which is
// trimmed to historyLimit turns.
func NewFinalizerNode(historyLimit int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, answer string) (string, error) {
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			s.AddTurn(s.Input, s.OutputText(), historyLimit)

			intent := model.IntentUnclassified
			if s.Classification != nil {
				intent = *s.Classification
			}
			logx.Ctx(ctx).Info().
				Str("intent", intent.String()).
				Int("history_len", len(s.History)).
				Int("answer_len", len(s.OutputText())).
				Str("answer_preview", preview(s.OutputText(), 80)).
				Msg("Turn completed")
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}
		return answer, nil
	})
}
