package root

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"teahouse/internal/engine"
	"teahouse/internal/plugin"
	"teahouse/internal/storage"
	"teahouse/internal/ui"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("id must be an integer")
	}
	return id, nil
}

func printShopItem(cmd *cobra.Command, it storage.ShopItem) {
	stock := fmt.Sprintf("x%d", it.Quantity)
	if it.Quantity <= 0 {
		stock = ui.Bad.Render(stock)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s %s %s\n",
		ui.Muted.Render(fmt.Sprintf("#%d", it.ID)),
		ui.Key.Render(it.Name),
		ui.Muted.Render(it.Category),
		ui.Coins(it.Price),
		stock,
		ui.Muted.Render(it.Description),
	)
}

func newShopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "List or manage the tea shop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, cleanup, err := openPlugin(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			items, err := p.Service().Shop().List(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconShop, "Tea shop"))
			for _, it := range items {
				printShopItem(cmd, it)
			}
			return nil
		},
	}
	cmd.AddCommand(newShopAddCmd(), newShopRestockCmd(), newShopRemoveCmd())
	return cmd
}

func newShopAddCmd() *cobra.Command {
	var (
		qty      int
		category string
		price    float64
		desc     string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a tea, replacing any item with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, cleanup, err := openPlugin(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			shop := p.Service().Shop()
			id, err := shop.Upsert(ctx, storage.ShopItem{Name: args[0], Quantity: qty, Category: category, Price: price, Description: desc})
			if err != nil {
				return err
			}
			it, err := shop.Get(ctx, id)
			if err != nil {
				return err
			}
			if it != nil {
				printShopItem(cmd, *it)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "n", 0, "Stock quantity")
	cmd.Flags().StringVarP(&category, "type", "t", "普通", "Tea category")
	cmd.Flags().Float64VarP(&price, "price", "p", 0, "Unit price")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "Description")
	return cmd
}

func newShopRestockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restock <id> <amount>",
		Short: "Add stock to a tea (negative amounts remove stock)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.New("amount must be an integer")
			}

			ctx := cmd.Context()
			p, cleanup, err := openPlugin(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			it, err := p.Service().Shop().Restock(ctx, id, amount)
			if err != nil {
				return err
			}
			if it == nil {
				return engine.ErrItemNotFound
			}
			printShopItem(cmd, *it)
			return nil
		},
	}
}

func newShopRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a tea from the shop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p, cleanup, err := openPlugin(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := p.Service().Shop().Remove(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d\n", ui.Warn.Render("Removed"), id)
			return nil
		},
	}
}

func newBuyCmd() *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "buy <shop_id>",
		Short: "Buy tea for --user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withUser(ctx, func(_ *plugin.Plugin, s *engine.Session) error {
				res, err := s.Purchase(ctx, id, qty)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s x%d for %s\n", ui.Good.Render(ui.IconTea+" Bought"), ui.Key.Render(res.Item.Name), res.Quantity, ui.Coins(res.Cost))
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Balance", ui.Coins(res.Balance)))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "n", 1, "Quantity")
	return cmd
}

func newBagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bag",
		Short: "Show the backpack of --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withUser(ctx, func(_ *plugin.Plugin, s *engine.Session) error {
				items, err := s.Backpack.List(ctx, s.UserID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.Heading(ui.IconBag, "Backpack of "+s.UserID))
				if len(items) == 0 {
					fmt.Fprintln(out, ui.Muted.Render("(empty)"))
				}
				for _, it := range items {
					fmt.Fprintf(out, "- %s x%d %s %s\n", ui.Key.Render(it.Name), it.Count, ui.Muted.Render(it.Category), ui.Coins(it.Value))
				}
				return nil
			})
		},
	}
}
