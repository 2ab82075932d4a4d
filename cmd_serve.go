package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Chative-commerce-agent/server/internal/api"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appCfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = appCfg.HTTPAddr
			}
			srv := api.NewServer(a.runner, map[string]api.Check{
				"orders": a.orders.HasOrders,
				"faq": func(ctx context.Context) (bool, error) {
					n, err := a.faq.Count(ctx)
					return n > 0, err
				},
			})
			return srv.Run(cmd.Context(), addr, shutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: HTTP_ADDR)")
	return cmd
}
