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
)

const formatSystemPrompt = "You rephrase agent answers to sound natural, easy to read, and friendly for end users."

//go:embed template/format_prompt.txt
var formatUserPrompt string

var formatTemplate = prompt.FromMessages(
	schema.FString,
	schema.SystemMessage(formatSystemPrompt),
	schema.UserMessage(strings.TrimRight(formatUserPrompt, "\n")),
)

// RenderFormat builds the rephrasing messages for a raw tool answer.
func RenderFormat(ctx context.Context, text string) ([]*schema.Message, error) {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      "FormatPrompt",
		Type:      "ChatTemplate",
		Component: components.ComponentOfPrompt,
	})
	msgs, err := formatTemplate.Format(ctx, map[string]any{"text": text})
	if err != nil {
		return nil, fmt.Errorf("format prompt render: %w", err)
	}
	if len(msgs) != 2 {
		return nil, fmt.Errorf("format prompt render: got %d messages", len(msgs))
	}
	return msgs, nil
}
