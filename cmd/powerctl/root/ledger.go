package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLadderCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "ladder",
		Short: "Show the transformation ladder",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := app.Module.Handler.GetTierLadderHandler(ctx, userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, item := range resp.Items {
				mark := "[ ]"
				if item.Unlocked {
					mark = "[x]"
				}
				line := fmt.Sprintf("%s %-8s %-20s %6d", mark, item.TierID, item.Name, item.PointsRequired)
				if item.UnlockedAt != "" {
					line += "  unlocked " + item.UnlockedAt
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "mark tiers unlocked by this user")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a user's power state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			state, err := app.Module.Handler.GetPowerStateHandler(ctx, userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:          %s\n", state.UserID)
			fmt.Fprintf(out, "Total power:   %d\n", state.TotalPowerPoints)
			fmt.Fprintf(out, "Tier:          %s (%s)\n", state.Tier.Name, state.Tier.TierID)
			if state.NextTier != nil {
				fmt.Fprintf(out, "Next tier:     %s in %d points (%.1f%%)\n", state.NextTier.Name, state.PointsToNext, state.ProgressPercentage)
			} else {
				fmt.Fprintln(out, "Next tier:     none, ladder complete")
			}
			fmt.Fprintf(out, "Today:         %d / %d points, minimum met: %t\n", state.DailyPointsToday, state.DailyMinimum, state.DailyMinimumMet)
			fmt.Fprintf(out, "Habits today:  %d / %d\n", state.HabitsCompletedToday, state.HabitsDueToday)
			fmt.Fprintf(out, "Streak:        %d (best %d)\n", state.CurrentStreak, state.BestStreak)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var (
		userID string
		days   int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show daily power snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := app.Module.Handler.GetPowerHistoryHandler(ctx, userID, days)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(resp.Items) == 0 {
				fmt.Fprintln(out, "no snapshots")
				return nil
			}
			for _, item := range resp.Items {
				fmt.Fprintf(out, "%s  %8d  %s\n", item.Date, item.TotalPowerPoints, item.Tier)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().IntVar(&days, "days", 30, "number of days to show")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newHabitStatsCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "habit-stats <habit-id>",
		Short: "Show streak and completion rates for a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := app.Module.Handler.GetHabitStatsHandler(ctx, userID, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Habit:        %s\n", stats.HabitID)
			fmt.Fprintf(out, "Streak:       %d (best %d)\n", stats.CurrentStreak, stats.BestStreak)
			fmt.Fprintf(out, "Completions:  %d for %d points\n", stats.TotalCompletions, stats.TotalPoints)
			fmt.Fprintf(out, "Rate 7/30/90: %.1f%% / %.1f%% / %.1f%%\n", stats.CompletionRate7, stats.CompletionRate30, stats.CompletionRate90)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner of the habit")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
