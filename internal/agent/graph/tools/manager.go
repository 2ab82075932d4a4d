package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

// LookupInput is the argument object of every lookup tool.
type LookupInput struct {
	Query string `json:"query"`
}

// GetLookupTools exposes each dispatcher route as an eino tool named after
// its intent. Every call opens its own data handle with the given timeout.
func GetLookupTools(d *Dispatcher, store model.CommerceStore, timeout time.Duration) []tool.BaseTool {
	out := make([]tool.BaseTool, 0, len(model.CandidateIntents))
	for _, intent := range model.CandidateIntents {
		out = append(out, newLookupTool(d, store, intent, timeout))
	}
	return out
}

func newLookupTool(d *Dispatcher, store model.CommerceStore, intent model.Intent, timeout time.Duration) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: string(intent),
			Desc: Descriptions[intent],
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "The customer's question. Order lookups need a 32-character hex order ID in it.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *LookupInput) (string, error) {
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			h, err := store.Open(ctx)
			if err != nil {
				return "", err
			}
			defer h.Close()
			return d.Dispatch(ctx, intent, strings.TrimSpace(in.Query), h)
		},
	)
}

// GetToolInfos collects the schema of each tool.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// NewLookupToolsNode builds a tools node over the lookup tools. Unknown tool
// names answer UnclassifiedMessage instead of failing.
func NewLookupToolsNode(ctx context.Context, tools []tool.BaseTool) (*compose.ToolsNode, error) {
	return compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               tools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().Str("tool_name", name).Msg("Unknown lookup tool")
			return UnclassifiedMessage, nil
		},
	})
}

// LookupCall builds the assistant message that asks for one lookup.
func LookupCall(intent model.Intent, query string) (*schema.Message, error) {
	args, err := json.Marshal(LookupInput{Query: query})
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "lookup-1",
		Type:     "function",
		Function: schema.FunctionCall{Name: string(intent), Arguments: string(args)},
	}}), nil
}

// RunLookup executes one lookup through node and returns the tool output.
func RunLookup(ctx context.Context, node *compose.ToolsNode, intent model.Intent, query string) (string, error) {
	call, err := LookupCall(intent, query)
	if err != nil {
		return "", err
	}
	msgs, err := node.Invoke(ctx, call)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("lookup %s returned no result", intent)
	}
	return msgs[0].Content, nil
}
