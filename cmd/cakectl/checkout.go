package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cakehouse/storefront/internal/checkout"
	"github.com/cakehouse/storefront/internal/pricing"
	"github.com/cakehouse/storefront/pkg/types"
)

func newQuoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Print the order summary for the saved basket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := a.openBasket(cmd.Context())
			printSummary(cmd.OutOrStdout(), pricing.Quote(store.Items(), a.rates))
			return nil
		},
	}
}

func newCheckoutCmd(a *app) *cobra.Command {
	var (
		form   checkout.Form
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Submit the saved basket as an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store := a.openBasket(ctx)
			out := cmd.OutOrStdout()

			if dryRun {
				req, _, err := a.checkout.Prepare(store.Items(), form)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(req)
			}

			conf, err := a.checkout.Submit(ctx, store, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "order %s placed (%s), total %s\n",
				conf.OrderNumber, conf.Status, types.FormatKSh(conf.Summary.Total))
			if !conf.BasketCleared {
				fmt.Fprintln(out, "warning: the order went through but the basket could not be cleared")
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&form.CustomerName, "name", "", "customer name")
	flags.StringVar(&form.CustomerEmail, "email", "", "customer email")
	flags.StringVar(&form.CustomerPhone, "phone", "", "customer phone")
	flags.StringVar(&form.DeliveryAddress, "address", "", "delivery address")
	flags.StringVar(&form.DeliveryDate, "date", "", "delivery date, YYYY-MM-DD")
	flags.StringVar(&form.DeliveryTime, "time", "", "preferred delivery time")
	flags.StringVar(&form.PaymentMethod, "payment", "COD", "payment method: COD, Card or M-Pesa")
	flags.StringVar(&form.SpecialInstructions, "instructions", "", "delivery instructions")
	flags.BoolVar(&dryRun, "dry-run", false, "print the order request without sending it")
	return cmd
}
