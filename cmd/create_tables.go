package cmd

import (
	"fmt"
	"time"

	"snowshift/internal/mapping"
	"snowshift/internal/migrate"
	"snowshift/internal/ui"

	"github.com/spf13/cobra"
)

var (
	createTablesMapping       string
	createTablesSchemaWorkers int
	createTablesTableWorkers  int
)

var createTablesCmd = &cobra.Command{
	Use:   "create-tables",
	Short: "Materialize the shared tables on the destination account",
	Long: `Create-tables reads the mapping file and copies every table out of the
shared database with CREATE TABLE IF NOT EXISTS ... AS SELECT, one batch
per target schema. Missing schemas are created on the fly; schemas whose
tables all exist already are skipped.

Schema batches and the tables inside them both run in parallel. The
warehouse does the copying, so size it for the largest tables.`,
	RunE: runCreateTables,
}

func init() {
	createTablesCmd.Flags().StringVarP(&createTablesMapping, "mapping", "m", "", "Mapping file to read (default from config)")
	createTablesCmd.Flags().IntVar(&createTablesSchemaWorkers, "schema-workers", 0, "Schemas to copy in parallel (default from config)")
	createTablesCmd.Flags().IntVar(&createTablesTableWorkers, "table-workers", 0, "Tables per schema to copy in parallel (default from config)")
	rootCmd.AddCommand(createTablesCmd)
}

func runCreateTables(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if createTablesMapping != "" {
		cfg.Migration.MappingFile = createTablesMapping
	}
	if createTablesSchemaWorkers > 0 {
		cfg.Migration.SchemaWorkers = createTablesSchemaWorkers
	}
	if createTablesTableWorkers > 0 {
		cfg.Migration.TableWorkers = createTablesTableWorkers
	}

	ui.ShowHeader("Create Tables")

	records, err := mapping.Read(cfg.Migration.MappingFile)
	if err != nil {
		return err
	}
	if err := mapping.Validate(records); err != nil {
		return err
	}

	plans := migrate.PlanCreateTables(records)
	tables := 0
	for _, plan := range plans {
		tables += len(plan.Statements)
	}

	if dryRun {
		for _, plan := range plans {
			printPlan(plan.Statements)
		}
		return nil
	}

	service, err := connect(cfg, connectionRequirements...)
	if err != nil {
		return err
	}
	defer service.Close()

	confirmed, err := confirmApply(fmt.Sprintf("Copy %d tables into %d schemas on %s?",
		tables, len(plans), cfg.Snowflake.Account))
	if err != nil {
		return err
	}
	if !confirmed {
		ui.ShowWarning("Create-tables cancelled")
		return nil
	}

	startedAt := time.Now()
	out := ui.NewUI(verbose, false)
	out.StartProgress(fmt.Sprintf("Copying %d tables with %d schema and %d table workers...",
		tables, cfg.Migration.SchemaWorkers, cfg.Migration.TableWorkers))

	summary := migrate.ApplyCreateTables(service, plans, cfg.Migration.SchemaWorkers, cfg.Migration.TableWorkers)

	if summary.Failed() {
		out.StopProgressWith(false, "Some schemas failed")
	} else {
		out.StopProgressWith(true, "Tables ready")
	}

	showSummary(summary)
	saveReport("create-tables", cfg.Snowflake.Account, startedAt, summary)

	if err := runError(summary); err != nil {
		return err
	}

	ui.ShowSuccess(fmt.Sprintf("Materialized %d schemas, %d skipped as already present",
		summary.Count(migrate.StatusDone), summary.Count(migrate.StatusSkipped)))
	return nil
}
