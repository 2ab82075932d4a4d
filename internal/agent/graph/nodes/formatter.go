package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/Chative-commerce-agent/server/internal/agent/graph/prompts"
	errx "github.com/Chative-commerce-agent/server/internal/core/error"
)

// Formatter rephrases raw lookup output for end users. A Formatter without a
// chat model passes text through unchanged.
type Formatter struct {
	chat      einomodel.BaseChatModel
	modelName string
	timeout   time.Duration
}

func NewFormatter(chat einomodel.BaseChatModel, modelName string, timeout time.Duration) *Formatter {
	return &Formatter{chat: chat, modelName: modelName, timeout: timeout}
}

func (f *Formatter) Enabled() bool {
	return f != nil && f.chat != nil
}

// Format returns the rephrased text. Provider failures, timeouts and blank
// answers are errors; the caller decides whether to fall back.
func (f *Formatter) Format(ctx context.Context, raw string) (string, error) {
	if !f.Enabled() {
		return raw, nil
	}

	ctx, cancel := withTimeout(ctx, f.timeout)
	defer cancel()

	msgs, err := prompts.RenderFormat(ctx, raw)
	if err != nil {
		return "", err
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      NodeFormatter,
		Type:      f.modelName,
		Component: components.ComponentOfChatModel,
	})
	out, err := f.chat.Generate(ctx, msgs)
	if err != nil {
		return "", errx.WrapProvider(fmt.Errorf("format: %w", err))
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", errx.WrapProvider(fmt.Errorf("format: empty response"))
	}
	logUsage(ctx, NodeFormatter, f.modelName, out)
	return out.Content, nil
}
