package root

import (
	"github.com/spf13/cobra"

	"teahouse/internal/engine"
	"teahouse/internal/plugin"
	"teahouse/internal/tui"
)

func newBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the TUI board for --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withUser(ctx, func(_ *plugin.Plugin, s *engine.Session) error {
				return tui.RunBoard(ctx, s, cmd.OutOrStdout())
			})
		},
	}
}
