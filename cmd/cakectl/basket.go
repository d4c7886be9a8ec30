package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cakehouse/storefront/internal/basket"
	"github.com/cakehouse/storefront/internal/checkout"
	"github.com/cakehouse/storefront/internal/customization"
	"github.com/cakehouse/storefront/internal/delivery"
	"github.com/cakehouse/storefront/internal/pricing"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/types"
)

func newBasketCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "basket",
		Short: "Inspect and edit the saved basket",
	}
	cmd.AddCommand(
		newBasketListCmd(a),
		newBasketAddCmd(a),
		newBasketCustomCmd(a),
		newBasketRemoveCmd(a),
		newBasketQtyCmd(a),
		newBasketClearCmd(a),
	)
	return cmd
}

func newBasketListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show basket lines and totals",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := a.openBasket(cmd.Context())
			printBasket(cmd.OutOrStdout(), store, a.rates)
			return nil
		},
	}
}

func newBasketAddCmd(a *app) *cobra.Command {
	var (
		quantity int
		options  []string
	)
	cmd := &cobra.Command{
		Use:   "add <cake-id>",
		Short: "Add a catalog cake to the basket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cakeID, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cake, err := a.catalog.Cake(ctx, cakeID)
			if err != nil {
				return err
			}
			if !cake.IsAvailable {
				return fmt.Errorf("%s is not available", cake.Name)
			}
			selections, err := a.selections(cmd, options)
			if err != nil {
				return err
			}

			item := cake.AsLineItem(quantity)
			item.Customizations = selections.ToLineItemCustomizations()

			store := a.openBasket(ctx)
			added, err := store.AddItem(ctx, item)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s x%d (%s)\n", added.Name, added.Quantity, added.CartItemID)
			return nil
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "number of cakes")
	cmd.Flags().StringArrayVarP(&options, "option", "o", nil, "customization as Category=OptionID, repeatable")
	return cmd
}

func newBasketCustomCmd(a *app) *cobra.Command {
	var (
		quantity int
		date     string
		requests string
		options  []string
	)
	cmd := &cobra.Command{
		Use:   "custom <cake-id>",
		Short: "Add a custom cake with a delivery date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cakeID, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cake, err := a.catalog.Cake(ctx, cakeID)
			if err != nil {
				return err
			}
			if !cake.IsAvailable {
				return fmt.Errorf("%s is not available", cake.Name)
			}
			selections, err := a.selections(cmd, options)
			if err != nil {
				return err
			}
			deliveryDate, err := delivery.ParseDate(date, nil)
			if err != nil {
				return err
			}

			wizard := customization.NewWizard(a.window, a.now)
			draft := customization.Draft{
				Cake:            cake,
				Quantity:        quantity,
				DeliveryDate:    deliveryDate,
				SpecialRequests: requests,
				Selections:      selections,
			}
			item, err := wizard.Build(draft)
			if err != nil {
				return err
			}

			store := a.openBasket(ctx)
			added, err := store.AddItem(ctx, item)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s x%d for %s: %s\n",
				added.Name, added.Quantity, added.Metadata.DeliveryDate, types.FormatKSh(pricing.PriceOf(added)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "number of cakes")
	cmd.Flags().StringVar(&date, "date", "", "delivery date, YYYY-MM-DD")
	cmd.Flags().StringVar(&requests, "requests", "", "special requests for the baker")
	cmd.Flags().StringArrayVarP(&options, "option", "o", nil, "customization as Category=OptionID, repeatable")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newBasketRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <cart-item-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a basket line",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.openBasket(cmd.Context())
			if err := store.RemoveItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			printBasket(cmd.OutOrStdout(), store, a.rates)
			return nil
		},
	}
}

func newBasketQtyCmd(a *app) *cobra.Command {
	var relative bool
	cmd := &cobra.Command{
		Use:   "qty <cart-item-id> <quantity>",
		Short: "Set a line quantity, or shift it with --relative",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a whole number: %w", err)
			}
			ctx := cmd.Context()
			store := a.openBasket(ctx)
			if relative {
				err = store.AdjustQuantity(ctx, args[0], n)
			} else {
				err = store.UpdateQuantity(ctx, args[0], n)
			}
			if err != nil {
				return err
			}
			printBasket(cmd.OutOrStdout(), store, a.rates)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&relative, "relative", "r", false, "treat quantity as a delta")
	return cmd
}

func newBasketClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the basket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := a.openBasket(cmd.Context())
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "basket cleared")
			return nil
		},
	}
}

// selections resolves Category=OptionID pairs against the catalog.
func (a *app) selections(cmd *cobra.Command, raw []string) (*customization.Selections, error) {
	selections := customization.NewSelections()
	for _, pair := range raw {
		category, idText, ok := strings.Cut(pair, "=")
		category = strings.TrimSpace(category)
		if !ok || category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("option %q must look like Category=OptionID", pair))
		}
		id, err := parseID(idText)
		if err != nil {
			return nil, err
		}
		if selections.IsSelected(category, id) {
			continue
		}
		opt, err := a.catalog.Option(cmd.Context(), category, id)
		if err != nil {
			return nil, err
		}
		selections.Select(category, opt)
	}
	return selections, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

func printBasket(w io.Writer, store *basket.Store, rates pricing.Rates) {
	items, summary := store.Snapshot(rates)
	if len(items) == 0 {
		fmt.Fprintln(w, "basket is empty")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAKE\tQTY\tUNIT\tTOTAL")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			item.CartItemID,
			item.Name,
			item.Quantity,
			types.FormatKSh(pricing.UnitPrice(item)),
			types.FormatKSh(pricing.PriceOf(item)),
		)
		if desc := checkout.DescribeCustomizations(item.Customizations); desc != "" {
			fmt.Fprintf(tw, "\t  %s\t\t\t\n", desc)
		}
	}
	_ = tw.Flush()
	printSummary(w, summary)
}

func printSummary(w io.Writer, summary pricing.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Items\t%d\t\n", summary.ItemCount)
	fmt.Fprintf(tw, "Subtotal\t%s\t\n", types.FormatKSh(summary.Subtotal))
	fmt.Fprintf(tw, "Delivery\t%s\t\n", types.FormatKSh(summary.DeliveryFee))
	fmt.Fprintf(tw, "VAT\t%s\t\n", types.FormatKSh(summary.Tax))
	fmt.Fprintf(tw, "Total\t%s\t\n", types.FormatKSh(summary.Total))
	_ = tw.Flush()
}
