package cmd

import (
	"fmt"
	"time"

	"snowshift/internal/config"
	"snowshift/internal/mapping"
	"snowshift/internal/migrate"
	"snowshift/internal/ui"

	"github.com/spf13/cobra"
)

var (
	createDatabasesMapping      string
	createDatabasesExclude      []string
	createDatabasesWorkers      int
	createDatabasesAdminRole    string
	createDatabasesReadonlyRole string
)

var createDatabasesCmd = &cobra.Command{
	Use:   "create-databases",
	Short: "Create and grant the target databases on the destination account",
	Long: `Create-databases reads the mapping file and creates every distinct
target database on the destination account, granting ownership and full
privileges to the admin role and usage plus select, current and future,
to the readonly role.

Existing databases are kept; CREATE DATABASE IF NOT EXISTS and the
grants are safe to run again.`,
	RunE: runCreateDatabases,
}

func init() {
	createDatabasesCmd.Flags().StringVarP(&createDatabasesMapping, "mapping", "m", "", "Mapping file to read (default from config)")
	createDatabasesCmd.Flags().StringSliceVar(&createDatabasesExclude, "exclude", nil, "Target databases to leave out, repeatable")
	createDatabasesCmd.Flags().IntVar(&createDatabasesWorkers, "workers", 0, "Databases to set up in parallel (default from config)")
	createDatabasesCmd.Flags().StringVar(&createDatabasesAdminRole, "admin-role", "", "Role granted ownership of the created databases (overrides SNOWFLAKE_ADMIN_ROLE)")
	createDatabasesCmd.Flags().StringVar(&createDatabasesReadonlyRole, "readonly-role", "", "Role granted read access (overrides SNOWFLAKE_READONLY_ROLE)")
	rootCmd.AddCommand(createDatabasesCmd)
}

func runCreateDatabases(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if createDatabasesMapping != "" {
		cfg.Migration.MappingFile = createDatabasesMapping
	}
	if createDatabasesWorkers > 0 {
		cfg.Migration.Workers = createDatabasesWorkers
	}
	if createDatabasesAdminRole != "" {
		cfg.Migration.AdminRole = createDatabasesAdminRole
	}
	if createDatabasesReadonlyRole != "" {
		cfg.Migration.ReadonlyRole = createDatabasesReadonlyRole
	}

	ui.ShowHeader("Create Databases")

	if err := config.Validate(cfg, config.RequireAdminRole, config.RequireReadonlyRole); err != nil {
		return err
	}

	records, err := mapping.Read(cfg.Migration.MappingFile)
	if err != nil {
		return err
	}
	if err := mapping.Validate(records); err != nil {
		return err
	}

	exclude := append(cfg.Migration.ExcludeDatabases, createDatabasesExclude...)
	plans, excluded := migrate.PlanCreateDatabases(records, migrate.CreateDatabasesOptions{
		Role:         cfg.Snowflake.Role,
		AdminRole:    cfg.Migration.AdminRole,
		ReadonlyRole: cfg.Migration.ReadonlyRole,
		Exclude:      exclude,
	})

	for _, name := range excluded {
		ui.ShowInfo("Excluding database " + name)
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

	confirmed, err := confirmApply(fmt.Sprintf("Create %d databases on %s?",
		len(plans), cfg.Snowflake.Account))
	if err != nil {
		return err
	}
	if !confirmed {
		ui.ShowWarning("Create-databases cancelled")
		return nil
	}

	startedAt := time.Now()
	out := ui.NewUI(verbose, false)
	out.StartProgress(fmt.Sprintf("Setting up %d databases with %d workers...",
		len(plans), cfg.Migration.Workers))

	summary := migrate.ApplyCreateDatabases(service, plans, cfg.Migration.Workers)

	if summary.Failed() {
		out.StopProgressWith(false, "Some databases failed")
	} else {
		out.StopProgressWith(true, "Databases ready")
	}

	showSummary(summary)
	saveReport("create-databases", cfg.Snowflake.Account, startedAt, summary)

	if err := runError(summary); err != nil {
		return err
	}

	ui.ShowSuccess(fmt.Sprintf("Created and granted %d databases", summary.Count(migrate.StatusDone)))
	return nil
}
