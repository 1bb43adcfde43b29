package cmd

import (
	"fmt"
	"time"

	"snowshift/internal/migrate"
	"snowshift/internal/ui"

	"github.com/spf13/cobra"
)

var (
	mergeDatabase string
	mergeExclude  []string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Clone every database into the merged database on the source account",
	Long: `Merge enumerates the databases of the source account and clones each of
their schemas into one merged database, named DATABASE__SCHEMA so the
layout can be unpacked on the destination side.

System databases, imported marketplace databases and explicitly excluded
databases are left out. A database or schema name that already contains
the __ delimiter aborts planning before any statement runs.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeDatabase, "merged-db", "d", "", "Merged database name (default from config)")
	mergeCmd.Flags().StringSliceVar(&mergeExclude, "exclude", nil, "Source databases to leave out, repeatable")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if mergeDatabase != "" {
		cfg.Migration.MergedDatabase = mergeDatabase
	}
	exclude := append(cfg.Migration.ExcludeDatabases, mergeExclude...)

	ui.ShowHeader("Merge Databases")

	service, err := connect(cfg, connectionRequirements...)
	if err != nil {
		return err
	}
	defer service.Close()

	out := ui.NewUI(verbose, false)
	out.StartProgress("Planning merge...")
	plan, err := migrate.PlanMerge(service, migrate.MergeOptions{
		MergedDatabase: cfg.Migration.MergedDatabase,
		Exclude:        exclude,
	})
	if err != nil {
		out.StopProgressWith(false, "Planning failed")
		return err
	}
	out.StopProgressWith(true, fmt.Sprintf("Planned %d statements across %d databases",
		len(plan.Statements), len(plan.Databases)))

	for _, name := range plan.Imported {
		ui.ShowWarning(fmt.Sprintf("Skipping %s: imported databases cannot be cloned", name))
	}
	for _, name := range plan.Excluded {
		ui.ShowInfo("Excluding database " + name)
	}

	if dryRun {
		printPlan(plan.Statements)
		return nil
	}

	confirmed, err := confirmApply(fmt.Sprintf("Apply %d statements to %s?",
		len(plan.Statements), cfg.Snowflake.Account))
	if err != nil {
		return err
	}
	if !confirmed {
		ui.ShowWarning("Merge cancelled")
		return nil
	}

	startedAt := time.Now()
	summary := applyStatements(service, plan.Statements)

	showSummary(summary)
	saveReport("merge", cfg.Snowflake.Account, startedAt, summary)

	if err := runError(summary); err != nil {
		return err
	}

	ui.ShowSuccess(fmt.Sprintf("Merged %d databases into %s", len(plan.Databases), plan.MergedDatabase))
	return nil
}
