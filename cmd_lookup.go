package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/spf13/cobra"

	"github.com/Chative-commerce-agent/server/internal/agent/graph/observers"
	"github.com/Chative-commerce-agent/server/internal/agent/graph/tools"
	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <intent> <query>",
		Short: "Run one lookup directly, skipping classification and formatting",
		Long: `Run one lookup directly, skipping classification and formatting.
An unknown intent lists the available lookups.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStores(cmd.Context(), appCfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := callbacks.InitCallbacks(cmd.Context(), &callbacks.RunInfo{
				Name:      "Lookup",
				Component: compose.ComponentOfToolsNode,
			}, observers.NewAllCallbacks())

			lookups := tools.GetLookupTools(a.dispatcher, a.orders, appCfg.Conversation.DispatchTimeout)
			intent := model.Intent(args[0])
			if !a.dispatcher.Handles(intent) {
				list, err := describeLookups(ctx, lookups)
				if err != nil {
					return err
				}
				return fmt.Errorf("unknown intent %q, available lookups:\n%s", args[0], list)
			}

			node, err := tools.NewLookupToolsNode(ctx, lookups)
			if err != nil {
				return err
			}
			out, err := tools.RunLookup(ctx, node, intent, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	return cmd
}

// describeLookups renders one "name: description" line per lookup tool.
func describeLookups(ctx context.Context, lookups []tool.BaseTool) (string, error) {
	infos, err := tools.GetToolInfos(ctx, lookups)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(infos))
	for _, info := range infos {
		lines = append(lines, fmt.Sprintf("  %s: %s", info.Name, info.Desc))
	}
	return strings.Join(lines, "\n"), nil
}
