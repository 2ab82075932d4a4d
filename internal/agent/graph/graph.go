package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"

	"github.com/Chative-commerce-agent/server/internal/agent/graph/conversations"
	"github.com/Chative-commerce-agent/server/internal/agent/graph/nodes"
	"github.com/Chative-commerce-agent/server/internal/agent/graph/observers"
	"github.com/Chative-commerce-agent/server/internal/agent/model"
	errx "github.com/Chative-commerce-agent/server/internal/core/error"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

const graphName = "TurnPipeline"

// Runner answers one query on a conversation thread.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
}

// Config holds everything needed to compose the turn pipeline end-to-end.
// Every collaborator is passed in; nothing is read from globals.
type Config struct {
	Classifier       *nodes.Classifier
	Dispatcher       nodes.IntentDispatcher
	Formatter        *nodes.Formatter
	Commerce         model.CommerceStore
	InteractionLog   model.InteractionLog
	ConversationRepo model.ConversationRepository
	Conversation     model.ConversationConfig

	// Callbacks observe every run. Nil selects the default observers.
	Callbacks []callbacks.Handler
}

// GraphBuilder handles the construction of the turn graph
type GraphBuilder struct {
	config *Config
	graph  *compose.Graph[model.QueryInput, string]
}

// TurnRunner runs the compiled graph under the thread lock, with the stored
// state as graph local state.
type TurnRunner struct {
	runnable  compose.Runnable[model.QueryInput, string]
	mm        *conversations.MessagesManager
	callbacks []callbacks.Handler
}

type stateKey struct{}

func withState(ctx context.Context, s *model.ConversationState) context.Context {
	return context.WithValue(ctx, stateKey{}, s)
}

func stateFrom(ctx context.Context) *model.ConversationState {
	if s, ok := ctx.Value(stateKey{}).(*model.ConversationState); ok && s != nil {
		return s
	}
	return model.NewConversationState("", "")
}

// Invoke runs classify, dispatch, format, log and done for one query. The
// updated state is saved only after the whole pipeline succeeded. Errors come
// from the conversation registry, never from the stages.
func (r *TurnRunner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	if strings.TrimSpace(in.ConversationID) == "" {
		return "", errx.Invalid("conversation id is required")
	}
	ctx = logx.WithConversation(ctx, in.ConversationID)

	sess, err := r.mm.Begin(ctx, in.ConversationID)
	if err != nil {
		logx.Ctx(ctx).Error().Err(err).Msg("Failed to load conversation")
		return "", err
	}
	defer sess.End()
	if sess.IsNew {
		logx.Ctx(ctx).Debug().Msg("Starting new conversation")
	}

	out, err := r.runnable.Invoke(withState(ctx, sess.State), in, compose.WithCallbacks(r.callbacks...))
	if err != nil {
		logx.Ctx(ctx).Error().Err(err).Msg("Turn pipeline failed")
		return "", fmt.Errorf("run turn pipeline: %w", err)
	}

	if err := sess.Save(ctx); err != nil {
		logx.Ctx(ctx).Error().Err(err).Msg("Failed to save conversation")
		return "", err
	}
	return out, nil
}

// Reset forgets a thread's history.
func (r *TurnRunner) Reset(ctx context.Context, conversationID string) error {
	return r.mm.Reset(ctx, conversationID)
}

// History returns the stored turns of a thread, oldest first.
func (r *TurnRunner) History(ctx context.Context, conversationID string) ([]model.Turn, error) {
	return r.mm.History(ctx, conversationID)
}

// BuildTurnGraph validates cfg, compiles the graph and returns a runner.
func BuildTurnGraph(ctx context.Context, cfg Config) (*TurnRunner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}

	runnable, err := BuildGraph(ctx, &cfg)
	if err != nil {
		return nil, err
	}

	cbs := cfg.Callbacks
	if cbs == nil {
		cbs = observers.NewTurnCallbacks()
	}

	logx.Debug().Msg("Turn graph built successfully")
	return &TurnRunner{
		runnable:  runnable,
		mm:        conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation),
		callbacks: cbs,
	}, nil
}

// BuildGraph constructs and returns the compiled turn graph
func BuildGraph(ctx context.Context, config *Config) (compose.Runnable[model.QueryInput, string], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Classifier == nil {
		return nil, fmt.Errorf("classifier is nil")
	}
	if config.Dispatcher == nil || config.Commerce == nil {
		return nil, fmt.Errorf("dispatcher and commerce store are required")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, string](
			compose.WithGenLocalState(stateFrom),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	return builder.compile(ctx)
}

// addNodes adds the five stages in pipeline order
func (b *GraphBuilder) addNodes() error {
	c := b.config
	steps := []struct {
		key    string
		lambda *compose.Lambda
		opts   []compose.GraphAddNodeOpt
	}{
		{nodes.NodeClassifier, nodes.NewClassifierNode(c.Classifier), []compose.GraphAddNodeOpt{
			compose.WithStatePreHandler(nodes.NewClassifierPreHandler()),
			compose.WithStatePostHandler(nodes.NewClassifierPostHandler()),
		}},
		{nodes.NodeDispatcher, nodes.NewDispatcherNode(c.Dispatcher, c.Commerce, c.Conversation.DispatchTimeout), []compose.GraphAddNodeOpt{
			compose.WithStatePostHandler(nodes.NewDispatcherPostHandler()),
		}},
		{nodes.NodeFormatter, nodes.NewFormatterNode(c.Formatter), []compose.GraphAddNodeOpt{
			compose.WithStatePostHandler(nodes.NewFormatterPostHandler()),
		}},
		{nodes.NodeLogger, nodes.NewLoggerNode(c.InteractionLog), nil},
		{nodes.NodeFinalizer, nodes.NewFinalizerNode(c.Conversation.HistoryLimit), nil},
	}

	for _, s := range steps {
		opts := append([]compose.GraphAddNodeOpt{compose.WithNodeName(s.key)}, s.opts...)
		if err := b.graph.AddLambdaNode(s.key, s.lambda, opts...); err != nil {
			logx.Error().Err(err).Str("node", s.key).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", s.key, err)
		}
	}
	return nil
}

// addEdges chains the stages; no stage can be skipped or reordered.
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeClassifier},
		{nodes.NodeClassifier, nodes.NodeDispatcher},
		{nodes.NodeDispatcher, nodes.NodeFormatter},
		{nodes.NodeFormatter, nodes.NodeLogger},
		{nodes.NodeLogger, nodes.NodeFinalizer},
		{nodes.NodeFinalizer, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, string], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

var _ Runner = (*TurnRunner)(nil)
