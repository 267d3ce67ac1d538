package root

import (
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the plugin and run scheduled task resets until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, cleanup, err := openPlugin(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			p.OnLoaded(ctx)
			p.Start()
			defer p.Stop()

			<-ctx.Done()
			return nil
		},
	}
}
