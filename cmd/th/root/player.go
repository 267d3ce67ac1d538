package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"teahouse/internal/engine"
	"teahouse/internal/plugin"
	"teahouse/internal/ui"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the store and seed the default shop and tasks",
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
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconDone+" Store ready"), ui.Muted.Render(p.DBPath()), ui.Muted.Render(fmt.Sprintf("(%d shop items)", len(items))))
			return nil
		},
	}
}

func newSignInCmd() *cobra.Command {
	var reward float64
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Daily sign-in for --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withUser(ctx, func(p *plugin.Plugin, s *engine.Session) error {
				amount := p.Config().Economy.SignInReward
				if cmd.Flags().Changed("reward") {
					amount = reward
				}
				res, err := s.SignIn(ctx, amount)
				if errors.Is(err, engine.ErrAlreadySignedIn) {
					fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render(ui.IconWarn+" Already signed in today"))
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconTea+" Signed in"), ui.Muted.Render(res.Date))
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Reward", ui.Coins(res.Reward)))
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Sign-ins", res.Count))
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Balance", ui.Coins(res.Balance)))
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&reward, "reward", 0, "Reward to credit (default from config)")
	return cmd
}

func newWalletCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "Show balance and sign-in record for --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withUser(ctx, func(_ *plugin.Plugin, s *engine.Session) error {
				bal, err := s.Economy.Balance(ctx, s.UserID)
				if err != nil {
					return err
				}
				rec, err := s.SignIns.Get(ctx, s.UserID)
				if err != nil {
					return err
				}
				last := "never"
				if rec != nil && rec.LastDate != nil {
					last = *rec.LastDate
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.Heading(ui.IconCoin, "Wallet of "+s.UserID))
				fmt.Fprintln(out, ui.LabelValue("Balance", ui.Coins(bal)))
				if rec != nil {
					fmt.Fprintln(out, ui.LabelValue("Sign-ins", rec.Count))
					fmt.Fprintln(out, ui.LabelValue("Sign-in coins", ui.Coins(rec.Coins)))
				}
				fmt.Fprintln(out, ui.LabelValue("Last sign-in", last))
				return nil
			})
		},
	}
}
