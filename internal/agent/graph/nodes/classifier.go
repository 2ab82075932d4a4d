package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/Chative-commerce-agent/server/internal/agent/graph/parsers"
	"github.com/Chative-commerce-agent/server/internal/agent/graph/prompts"
	"github.com/Chative-commerce-agent/server/internal/agent/model"
	errx "github.com/Chative-commerce-agent/server/internal/core/error"
)

// LabelProvider proposes one label from candidates for query. The answer is
// raw text; callers normalise and validate it.
type LabelProvider interface {
	Label(ctx context.Context, query string, candidates []model.Intent) (string, error)
}

// ChatLabelProvider asks a chat model to answer with a single intent word.
type ChatLabelProvider struct {
	chat      einomodel.BaseChatModel
	modelName string
}

func NewChatLabelProvider(chat einomodel.BaseChatModel, modelName string) *ChatLabelProvider {
	return &ChatLabelProvider{chat: chat, modelName: modelName}
}

func (p *ChatLabelProvider) Label(ctx context.Context, query string, candidates []model.Intent) (string, error) {
	msgs, err := prompts.RenderClassify(ctx, query, candidates)
	if err != nil {
		return "", err
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      NodeClassifier,
		Type:      p.modelName,
		Component: components.ComponentOfChatModel,
	})
	out, err := p.chat.Generate(ctx, msgs)
	if err != nil {
		return "", errx.WrapProvider(fmt.Errorf("classify: %w", err))
	}
	if out == nil {
		return "", errx.WrapProvider(fmt.Errorf("classify: empty response"))
	}
	logUsage(ctx, NodeClassifier, p.modelName, out)
	return out.Content, nil
}

// KeywordLabelProvider never proposes a label, so every query is routed by
// the keyword fallback. It needs no network access.
type KeywordLabelProvider struct{}

func (KeywordLabelProvider) Label(context.Context, string, []model.Intent) (string, error) {
	return "", nil
}

// Classifier resolves a query to exactly one routable intent.
type Classifier struct {
	provider LabelProvider
	timeout  time.Duration
}

func NewClassifier(provider LabelProvider, timeout time.Duration) *Classifier {
	if provider == nil {
		provider = KeywordLabelProvider{}
	}
	return &Classifier{provider: provider, timeout: timeout}
}

// Classify asks the provider and falls back to keyword rules when the answer
// is outside the label set. A provider failure, including the timeout, is
// returned as an error with IntentUnclassified.
func (c *Classifier) Classify(ctx context.Context, query string) (model.Intent, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	label, err := c.provider.Label(ctx, query, model.CandidateIntents)
	if err != nil {
		return model.IntentUnclassified, err
	}
	return parsers.ResolveIntent(label, query), nil
}
