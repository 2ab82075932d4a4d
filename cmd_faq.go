package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Chative-commerce-agent/server/internal/agent/repo"
)

func newFAQCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faq",
		Short: "Manage the FAQ store",
	}
	cmd.AddCommand(newFAQAddCmd(), newFAQSeedCmd(), newFAQCountCmd())
	return cmd
}

func openFAQ(cmd *cobra.Command) (*app, error) {
	if appCfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required to embed FAQ entries")
	}
	return openStores(cmd.Context(), appCfg)
}

func newFAQAddCmd() *cobra.Command {
	var question, answer string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Embed and store one question/answer pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openFAQ(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ids, err := a.faq.Add(cmd.Context(), repo.FAQEntry{Question: question, Answer: answer})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added FAQ entry %s\n", ids[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "question text")
	cmd.Flags().StringVarP(&answer, "answer", "a", "", "answer text")
	_ = cmd.MarkFlagRequired("question")
	_ = cmd.MarkFlagRequired("answer")
	return cmd
}

func newFAQSeedCmd() *cobra.Command {
	var appendAll bool
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load a YAML list of question/answer pairs",
		Long: `Load a YAML list of question/answer pairs into the FAQ store.
By default nothing is added when the store already has entries.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := repo.LoadFAQFile(args[0])
			if err != nil {
				return err
			}
			a, err := openFAQ(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var n int
			if appendAll {
				ids, err := a.faq.Add(cmd.Context(), entries...)
				if err != nil {
					return err
				}
				n = len(ids)
			} else if n, err = a.faq.Seed(cmd.Context(), entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d FAQ entries from %s\n", n, len(entries), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&appendAll, "append", false, "add entries even when the store is not empty")
	return cmd
}

func newFAQCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored FAQ entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appCfg
			cfg.APIKey = ""
			a, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.faq.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
