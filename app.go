package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"

	"github.com/Chative-commerce-agent/server/internal/agent/graph"
	"github.com/Chative-commerce-agent/server/internal/agent/graph/nodes"
	"github.com/Chative-commerce-agent/server/internal/agent/graph/tools"
	"github.com/Chative-commerce-agent/server/internal/agent/model"
	"github.com/Chative-commerce-agent/server/internal/agent/repo"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

// app holds the wired collaborators of one process.
type app struct {
	cfg AppConfig

	db     *sql.DB
	rdb    *redis.Client
	client *genai.Client

	orders     *repo.OlistStore
	faq        *repo.FAQStore
	dispatcher *tools.Dispatcher
	runner     *graph.TurnRunner
}

// openStores connects the relational store and, when an API key is set, the
// Gemini client behind the FAQ embedder.
func openStores(ctx context.Context, cfg AppConfig) (*app, error) {
	a := &app{cfg: cfg}

	db, err := cfg.SQLite.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.SQLite.File, err)
	}
	a.db = db
	a.orders = repo.NewOlistStore(db)

	if cfg.APIKey != "" {
		client, err := nodes.NewGenAIClient(ctx, cfg.APIKey, cfg.BaseURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.client = client
		a.faq = repo.NewFAQStore(db, nodes.NewGeminiEmbedder(client, cfg.Retrieval.EmbeddingModel))
	} else {
		a.faq = repo.NewFAQStore(db, nil)
	}

	if err := a.orders.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.faq.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.dispatcher = tools.NewDispatcher(a.faq, cfg.Retrieval.TopK)
	return a, nil
}

// newApp wires the full turn pipeline.
func newApp(ctx context.Context, cfg AppConfig) (*app, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	a, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := a.seedFAQ(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.reportReadiness(ctx)

	conversationRepo, err := a.conversationRepo(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	cms, err := nodes.NewChatModels(ctx, a.client, nodes.ChatModelConfig{
		Classifier: &cfg.Classifier,
		Formatter:  &cfg.Formatter,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	var provider nodes.LabelProvider = nodes.KeywordLabelProvider{}
	if cms.Classifier != nil {
		provider = nodes.NewChatLabelProvider(cms.Classifier, cms.ClassifierModelName)
	}
	var formatter *nodes.Formatter
	if cms.Formatter != nil {
		formatter = nodes.NewFormatter(cms.Formatter, cms.FormatterModelName, cfg.Conversation.FormatTimeout)
	} else {
		formatter = nodes.NewFormatter(nil, "", 0)
	}

	runner, err := graph.BuildTurnGraph(ctx, graph.Config{
		Classifier:       nodes.NewClassifier(provider, cfg.Conversation.ClassifyTimeout),
		Dispatcher:       a.dispatcher,
		Formatter:        formatter,
		Commerce:         a.orders,
		InteractionLog:   repo.NewFileInteractionLog(cfg.InteractionLog.File),
		ConversationRepo: conversationRepo,
		Conversation:     cfg.Conversation,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.runner = runner

	logx.Info().
		Str("classifier", cfg.Classifier.Provider).
		Bool("formatter", formatter.Enabled()).
		Bool("redis", cfg.Redis.Enabled()).
		Int("history_limit", cfg.Conversation.HistoryLimit).
		Msg("Agent ready")
	return a, nil
}

// conversationRepo picks Redis when REDIS_URL is set and process memory
// otherwise.
func (a *app) conversationRepo(ctx context.Context) (model.ConversationRepository, error) {
	if !a.cfg.Redis.Enabled() {
		logx.Warn().Msg("REDIS_URL not set; conversations are kept in memory")
		return repo.NewMemoryConversationRepository(), nil
	}
	rdb, err := a.cfg.Redis.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise Redis client: %w", err)
	}
	a.rdb = rdb
	return repo.NewRedisConversationRepository(rdb, a.cfg.Conversation.TTL), nil
}

// seedFAQ loads the configured corpus into an empty FAQ store.
func (a *app) seedFAQ(ctx context.Context) error {
	path := a.cfg.Retrieval.SeedFile
	if path == "" {
		return nil
	}
	entries, err := repo.LoadFAQFile(path)
	if err != nil {
		return err
	}
	n, err := a.faq.Seed(ctx, entries)
	if err != nil {
		return fmt.Errorf("seed faq store: %w", err)
	}
	if n > 0 {
		logx.Info().Int("entries", n).Str("file", path).Msg("FAQ store seeded")
	}
	return nil
}

// reportReadiness warns about empty data sources without failing startup.
func (a *app) reportReadiness(ctx context.Context) {
	if ok, err := a.orders.HasOrders(ctx); err != nil {
		logx.Warn().Err(err).Msg("Order table check failed")
	} else if !ok {
		logx.Warn().Str("file", a.cfg.SQLite.File).Msg("Order table is empty; order lookups will find nothing")
	}
	if n, err := a.faq.Count(ctx); err != nil {
		logx.Warn().Err(err).Msg("FAQ store check failed")
	} else if n == 0 {
		logx.Warn().Msg("FAQ store is empty; faq queries will find nothing")
	}
}

func (a *app) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logx.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logx.Warn().Err(err).Msg("Failed to close database")
		}
	}
}
