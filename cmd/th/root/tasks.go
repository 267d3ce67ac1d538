package root

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"teahouse/internal/engine"
	"teahouse/internal/plugin"
	"teahouse/internal/ui"
)

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List tasks of --user (creating catalog tasks and today's challenge)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withUser(ctx, func(_ *plugin.Plugin, s *engine.Session) error {
				if _, err := s.EnsureTemplateTasks(ctx); err != nil {
					return err
				}
				if _, err := s.DailyTask(ctx); err != nil {
					return err
				}
				tasks, err := s.Tasks.ListForUser(ctx, s.UserID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.Heading(ui.IconScroll, "Tasks of "+s.UserID))
				for _, t := range tasks {
					fmt.Fprintf(out, "- %s %s\n", ui.TaskLine(t), ui.Muted.Render(fmt.Sprintf("(+%d)", t.Reward)))
				}
				return nil
			})
		},
	}
}

func newProgressCmd() *cobra.Command {
	var add bool
	cmd := &cobra.Command{
		Use:   "progress <task_id> <n>",
		Short: "Set (or with --add, bump) task progress for --user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.New("n must be an integer")
			}
			ctx := cmd.Context()
			return withUser(ctx, func(_ *plugin.Plugin, s *engine.Session) error {
				record := s.RecordProgress
				if add {
					record = s.AddProgress
				}
				task, err := record(ctx, args[0], n)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.TaskLine(*task))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&add, "add", false, "Add n to the current progress instead of setting it")
	return cmd
}

func newClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <task_id>",
		Short: "Claim the reward of a completed task for --user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withUser(ctx, func(_ *plugin.Plugin, s *engine.Session) error {
				reward, err := s.ClaimReward(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconGift+" Claimed"), ui.Coins(reward))
				return nil
			})
		},
	}
}

func newDailyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Show (assigning if needed) today's challenge for --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withUser(ctx, func(_ *plugin.Plugin, s *engine.Session) error {
				t, err := s.DailyTask(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.IconDice, ui.TaskLine(*t))
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(t.Description))
				return nil
			})
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <daily|weekly>",
		Short: "Reset daily or weekly tasks (--user only, or everyone)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := engine.ParsePeriod(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p, cleanup, err := openPlugin(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if flags.userID != "" {
				if err := p.WithDatabases(ctx, flags.userID, func(s *engine.Session) error {
					return s.Reset(ctx, period)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s tasks of %s\n", ui.Good.Render(ui.IconLoop+" Reset"), engine.PeriodLabel(period), flags.userID)
				return nil
			}

			n, err := p.Service().ResetAll(ctx, period)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s tasks of %d users\n", ui.Good.Render(ui.IconLoop+" Reset"), engine.PeriodLabel(period), n)
			return nil
		},
	}
}
