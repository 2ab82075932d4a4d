package nodes

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

// withTimeout bounds ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// logUsage reports token usage and USD cost when the provider returned it.
func logUsage(ctx context.Context, node, modelName string, out *schema.Message) {
	u, ok := model.UsageOf(modelName, out)
	if !ok {
		return
	}
	logx.Ctx(ctx).Debug().
		Str("node", node).
		Str("model", u.Model).
		Int("prompt_tokens", u.PromptTokens).
		Int("completion_tokens", u.CompletionTokens).
		Int("total_tokens", u.TotalTokens).
		Float64("total_cost_usd", u.CostUSD).
		Msg("LLM usage")
}

// preview shortens s for log fields.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
