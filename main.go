package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

var (
	envFile string
	appCfg  AppConfig
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chative",
		Short: "Order-support agent for the Olist e-commerce dataset",
		Long: `Chative answers customer questions about orders, refunds, reviews and
store policies. Each query is classified, routed to one lookup and rephrased
for the customer.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			appCfg = cfg
			logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newChatCmd(),
		newAskCmd(),
		newServeCmd(),
		newLookupCmd(),
		newFAQCmd(),
		newDBCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logx.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}
