package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Relational store maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the order and FAQ tables when missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appCfg
			cfg.APIKey = ""
			a, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			hasOrders, err := a.orders.HasOrders(cmd.Context())
			if err != nil {
				return err
			}
			n, err := a.faq.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready in %s (orders loaded: %t, faq entries: %d)\n", cfg.SQLite.File, hasOrders, n)
			return nil
		},
	})
	return cmd
}
