package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "powerctl",
	Short:         "Operate the powertrack ledger",
	Long:          "powerctl inspects and maintains the power ledger using the same configuration as the api and worker processes.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.AddCommand(
		newLadderCmd(),
		newStatusCmd(),
		newHistoryCmd(),
		newHabitStatsCmd(),
		newVerifyCmd(),
		newCloseoutCmd(),
		newCatalogCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		os.Exit(1)
	}
}
