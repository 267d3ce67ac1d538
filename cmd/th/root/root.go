package root

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"teahouse/internal/plugin"
	"teahouse/internal/ui"
)

type globalFlags struct {
	configPath string
	dbPath     string
	userID     string
}

var flags globalFlags

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "th",
		Short:         "Teahouse: tea house game store for chat bots",
		Long:          "th runs and inspects the tea house store (sign-ins, wallet, backpack, shop and tasks) outside the chat host.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       plugin.Version,
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file (default $TEAHOUSE_CONFIG)")
	pf.StringVar(&flags.dbPath, "db", "", "Database path (overrides config and $TEAHOUSE_DB)")
	pf.StringVarP(&flags.userID, "user", "u", "", "User id to act as")

	cmd.AddCommand(
		newInitCmd(),
		newSignInCmd(),
		newWalletCmd(),
		newShopCmd(),
		newBuyCmd(),
		newBagCmd(),
		newTasksCmd(),
		newProgressCmd(),
		newClaimCmd(),
		newDailyCmd(),
		newResetCmd(),
		newServeCmd(),
		newBoardCmd(),
	)
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		stop()
		os.Exit(1)
	}
}
