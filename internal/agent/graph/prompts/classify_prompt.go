package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

const classifySystemPrompt = "You are a helpful intent classifier."

//go:embed template/classify_prompt.txt
var classifyUserPrompt string

var classifyTemplate = prompt.FromMessages(
	schema.FString,
	schema.SystemMessage(classifySystemPrompt),
	schema.UserMessage(strings.TrimSpace(classifyUserPrompt)),
)

// RenderClassify builds the classifier messages for query over the given
// label set. Rendering goes through the Eino prompt component so prompt
// callbacks fire.
func RenderClassify(ctx context.Context, query string, candidates []model.Intent) ([]*schema.Message, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("classify prompt: no candidate intents")
	}
	labels := make([]string, len(candidates))
	for i, c := range candidates {
		labels[i] = string(c)
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      "ClassifyPrompt",
		Type:      "ChatTemplate",
		Component: components.ComponentOfPrompt,
	})
	msgs, err := classifyTemplate.Format(ctx, map[string]any{
		"intents": strings.Join(labels, ", "),
		"query":   query,
	})
	if err != nil {
		return nil, fmt.Errorf("classify prompt render: %w", err)
	}
	if len(msgs) != 2 {
		return nil, fmt.Errorf("classify prompt render: got %d messages", len(msgs))
	}
	return msgs, nil
}
