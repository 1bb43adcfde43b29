package cmd

import (
	"os"

	"snowshift/internal/config"
	"snowshift/internal/ui"

	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	dryRun        bool
	verbose       bool
	assumeYes     bool
	flagAccount   string
	flagRole      string
	flagWarehouse string

	rootCmd = &cobra.Command{
		Use:   "snowshift",
		Short: "Move every database of a Snowflake account to another account",
		Long: `Snowshift migrates the databases of one Snowflake account to another
through a single shared database.

On the source account, merge clones each schema of every database into
one merged database, and share exposes that database to the destination
account. The map command records where every schema and table should
land, and on the destination side create-databases and create-tables
rebuild the original layout from that mapping.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cfgFile != "" {
				os.Setenv(config.EnvConfigFile, cfgFile)
			}
		},
	}
)

// Execute runs the root command and reports any error with context.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.snowshift/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "print the SQL that would run without executing it")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print each statement as it runs")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&flagAccount, "account", "", "Snowflake account identifier (overrides SNOWFLAKE_ACCOUNT)")
	rootCmd.PersistentFlags().StringVar(&flagRole, "role", "", "session role (overrides SNOWFLAKE_ROLE)")
	rootCmd.PersistentFlags().StringVar(&flagWarehouse, "warehouse", "", "warehouse (overrides SNOWFLAKE_WAREHOUSE)")
}
