package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cakehouse/storefront/internal/orders"
)

func newOrderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Look up placed orders",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status <order-number>",
		Short: "Print the status of a placed order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracking, err := a.orders.Track(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTracking(cmd, tracking)
			return nil
		},
	})
	return cmd
}

func printTracking(cmd *cobra.Command, t *orders.Tracking) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "order %s: %s\n", t.OrderNumber, t.StatusLabel)
	if t.DeliveryDate != "" {
		fmt.Fprintf(out, "delivery %s\n", t.DeliveryDate)
	}
	fmt.Fprintf(out, "total %s\n", t.TotalDisplay)
}
