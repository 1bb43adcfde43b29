package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"snowshift/internal/mapping"
	"snowshift/internal/report"
	"snowshift/internal/ui"

	"github.com/spf13/cobra"
)

var (
	inspectMapping string
	inspectRuns    int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the effective configuration, mapping summary and recent runs",
	Long: `Inspect prints the settings the other commands would run with, after
config file, environment variables and stored credentials are combined.
It never connects to Snowflake.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectMapping, "mapping", "m", "", "Mapping file to summarize (default from config)")
	inspectCmd.Flags().IntVar(&inspectRuns, "runs", 5, "Number of recent runs to show")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if inspectMapping != "" {
		cfg.Migration.MappingFile = inspectMapping
	}

	ui.ShowHeader("Snowshift")

	ui.PrintSection("Connection")
	ui.PrintKeyValue("Account", valueOrUnset(cfg.Snowflake.Account))
	ui.PrintKeyValue("User", valueOrUnset(cfg.Snowflake.Username))
	ui.PrintKeyValue("Password", passwordStatus(cfg.Snowflake.Password))
	ui.PrintKeyValue("Role", valueOrUnset(cfg.Snowflake.Role))
	ui.PrintKeyValue("Warehouse", valueOrUnset(cfg.Snowflake.Warehouse))

	ui.PrintSection("Migration")
	ui.PrintKeyValue("Merged database", cfg.Migration.MergedDatabase)
	ui.PrintKeyValue("Share", cfg.Migration.ShareName)
	ui.PrintKeyValue("Destination account", valueOrUnset(cfg.Migration.DestinationAccount))
	ui.PrintKeyValue("Admin role", valueOrUnset(cfg.Migration.AdminRole))
	ui.PrintKeyValue("Readonly role", valueOrUnset(cfg.Migration.ReadonlyRole))
	ui.PrintKeyValue("Mapping file", cfg.Migration.MappingFile)
	ui.PrintKeyValue("Workers", fmt.Sprintf("%d database, %d schema, %d table",
		cfg.Migration.Workers, cfg.Migration.SchemaWorkers, cfg.Migration.TableWorkers))
	if len(cfg.Migration.ExcludeDatabases) > 0 {
		ui.PrintKeyValue("Excluded", strings.Join(cfg.Migration.ExcludeDatabases, ", "))
	}

	if records, err := mapping.Read(cfg.Migration.MappingFile); err == nil {
		tables := 0
		for _, record := range records {
			tables += len(record.Tables)
		}
		ui.PrintSection("Mapping")
		ui.PrintKeyValue("Records", strconv.Itoa(len(records)))
		ui.PrintKeyValue("Tables", strconv.Itoa(tables))
		ui.PrintKeyValue("Target databases", strings.Join(mapping.DistinctTargetDatabases(records), ", "))
	}

	showRecentRuns()
	return nil
}

func showRecentRuns() {
	store, err := report.NewStore()
	if err != nil {
		return
	}
	runs, err := store.List()
	if err != nil || len(runs) == 0 {
		return
	}
	if inspectRuns > 0 && len(runs) > inspectRuns {
		runs = runs[:inspectRuns]
	}

	ui.PrintSection("Recent runs")
	for _, run := range runs {
		ui.PrintKeyValue(run.Command, fmt.Sprintf("%s  %d done, %d skipped, %d failed",
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Totals.Done, run.Totals.Skipped, run.Totals.Failed))
	}
}

func valueOrUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

func passwordStatus(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "(set)"
}
