package root

import (
	"context"
	"errors"
	"fmt"

	"powertrack/contexts/progression/power-engine/adapters/catalogfile"
	postgresadapter "powertrack/contexts/progression/power-engine/adapters/postgres"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute a user's ledger and report mismatches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := app.Module.Handler.VerifyLedgerHandler(ctx, userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User %s: total %d, sum of days %d over %d days\n",
				report.UserID, report.TotalPowerPoints, report.SumOfDailyPoints, report.DaysChecked)
			if report.Consistent {
				fmt.Fprintln(out, "ledger is consistent")
				return nil
			}
			for _, issue := range report.Issues {
				fmt.Fprintln(out, "- "+issue)
			}
			if report.Halted {
				fmt.Fprintln(out, "user is halted")
			}
			return errors.New("ledger is inconsistent")
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newCloseoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "closeout",
		Short: "Grant missed consistency bonuses for yesterday and verify every ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := app.Module.Closeout.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users %d, bonuses granted %d, inconsistent %d, halted %d\n",
				summary.UsersScanned, summary.BonusesGranted, summary.Inconsistent, summary.Halted)
			return nil
		},
	}
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the habit and task catalog",
	}
	var validateOnly bool
	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Upsert categories, habits and tasks from a YAML file into Postgres",
		Long: "import writes the catalog to the configured Postgres database. Without POSTGRES_DSN the ledger " +
			"lives in memory and an import would vanish when powerctl exits: point the api and worker at the " +
			"file with CATALOG_FILE instead, and use --validate-only to check it here.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			catalog, err := catalogfile.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if validateOnly {
				fmt.Fprintf(out, "valid: %d categories, %d habits, %d tasks (nothing written)\n",
					len(catalog.Categories), len(catalog.Habits), len(catalog.Tasks))
				return nil
			}

			app, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()
			if app.Postgres == nil {
				return errors.New("catalog import needs POSTGRES_DSN; the in-memory ledger is seeded from CATALOG_FILE at start-up (use --validate-only to check the file)")
			}

			repo := postgresadapter.NewRepository(app.Postgres.DB, app.Logger)
			if err := catalogfile.Import(ctx, repo, catalog); err != nil {
				return err
			}
			fmt.Fprintf(out, "imported %d categories, %d habits, %d tasks\n",
				len(catalog.Categories), len(catalog.Habits), len(catalog.Tasks))
			return nil
		},
	}
	importCmd.Flags().BoolVar(&validateOnly, "validate-only", false, "parse and validate the file without writing")
	cmd.AddCommand(importCmd)
	return cmd
}
