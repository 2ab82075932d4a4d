package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Chative-commerce-agent/server/internal/agent/graph"
	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

func newChatCmd() *cobra.Command {
	var threadID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat on one conversation thread (quit or exit to stop)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appCfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if threadID == "" {
				threadID = uuid.NewString()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Conversation %s. Type 'quit' or 'exit' to stop.\n", threadID)
			return chatLoop(cmd, a.runner, threadID)
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "conversation id to resume (default: a new id)")
	return cmd
}

// chatLoop reads one query per line until quit, exit or end of input.
func chatLoop(cmd *cobra.Command, runner graph.Runner, threadID string) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	for {
		fmt.Fprint(out, "You: ")
		if !in.Scan() {
			if err := in.Err(); err != nil && err != io.EOF {
				return err
			}
			fmt.Fprintln(out)
			return nil
		}
		query := strings.TrimSpace(in.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "quit", "exit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		answer, err := runner.Invoke(cmd.Context(), model.QueryInput{ConversationID: threadID, Query: query})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Agent: %s\n", answer)
	}
}

func newAskCmd() *cobra.Command {
	var threadID string
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer a single query and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appCfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if threadID == "" {
				threadID = uuid.NewString()
			}
			answer, err := a.runner.Invoke(cmd.Context(), model.QueryInput{
				ConversationID: threadID,
				Query:          strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "conversation id (default: a new id)")
	return cmd
}
