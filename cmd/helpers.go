package cmd

import (
	"fmt"
	"strings"
	"time"

	"snowshift/internal/config"
	"snowshift/internal/migrate"
	"snowshift/internal/report"
	"snowshift/internal/security"
	"snowshift/internal/snowflake"
	"snowshift/internal/ui"
	"snowshift/pkg/errors"
	"snowshift/pkg/models"
)

// connectionRequirements are the settings every command that opens a
// session needs.
var connectionRequirements = []config.Requirement{
	config.RequireAccount,
	config.RequireUser,
	config.RequirePassword,
}

// resolveConfig loads the effective configuration, flags winning over
// environment over file. When the environment carries no password the
// credential store is consulted, so a stored password satisfies
// RequirePassword like an exported one would.
func resolveConfig() (*models.Config, error) {
	cfg, err := config.Resolve()
	if err != nil {
		return nil, err
	}

	if flagAccount != "" {
		cfg.Snowflake.Account = flagAccount
	}
	if flagRole != "" {
		cfg.Snowflake.Role = flagRole
	}
	if flagWarehouse != "" {
		cfg.Snowflake.Warehouse = flagWarehouse
	}

	if cfg.Snowflake.Password == "" && cfg.Snowflake.Account != "" && cfg.Snowflake.Username != "" {
		if store, err := security.NewCredentialStore(); err == nil {
			if password, err := store.GetPassword(cfg.Snowflake.Account, cfg.Snowflake.Username); err == nil {
				cfg.Snowflake.Password = password
			}
		}
	}

	return cfg, nil
}

// snowflakeConfig maps the resolved settings onto a connection config.
func snowflakeConfig(cfg *models.Config) snowflake.Config {
	var timeout time.Duration
	if cfg.Snowflake.Timeout != "" {
		if parsed, err := time.ParseDuration(cfg.Snowflake.Timeout); err == nil {
			timeout = parsed
		}
	}

	return snowflake.Config{
		Account:   cfg.Snowflake.Account,
		Username:  cfg.Snowflake.Username,
		Password:  cfg.Snowflake.Password,
		Warehouse: cfg.Snowflake.Warehouse,
		Role:      cfg.Snowflake.Role,
		Timeout:   timeout,
	}
}

// connect validates the settings the command needs, then opens the
// session. Validation runs first so every missing setting is reported
// before anything touches the network.
func connect(cfg *models.Config, reqs ...config.Requirement) (*snowflake.Service, error) {
	if err := config.Validate(cfg, reqs...); err != nil {
		return nil, err
	}

	out := ui.NewUI(verbose, false)
	out.StartProgress(fmt.Sprintf("Connecting to %s...", cfg.Snowflake.Account))

	service := snowflake.NewService(snowflakeConfig(cfg))
	if err := service.Connect(); err != nil {
		out.StopProgressWith(false, "Connection failed")
		return nil, err
	}

	out.StopProgressWith(true, fmt.Sprintf("Connected to %s as %s", cfg.Snowflake.Account, cfg.Snowflake.Username))
	return service, nil
}

// printPlan writes planned statements to stdout exactly as they would
// execute, one per line.
func printPlan(statements []migrate.Statement) {
	for _, stmt := range statements {
		fmt.Println(stmt.SQL)
	}
}

// confirmApply asks before running statements unless --yes was given.
func confirmApply(message string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	return ui.Confirm(message, true)
}

// applyStatements executes a plan one statement at a time with progress
// output, recording a result per statement. A failure does not stop the
// run; the summary carries it.
func applyStatements(conn migrate.Conn, statements []migrate.Statement) *migrate.Summary {
	out := ui.NewUI(verbose, false)
	pb := ui.NewProgressBar(len(statements))
	summary := &migrate.Summary{}

	for i, stmt := range statements {
		ui.ShowStatementExecution(stmt.Object, i+1, len(statements))
		out.VerbosePrintf("    %s\n", stmt.SQL)

		start := time.Now()
		err := conn.Execute(stmt.SQL)
		duration := time.Since(start)

		pb.Update(i+1, stmt.Object, err == nil)

		result := migrate.Result{Object: stmt.Object, Status: migrate.StatusDone, Duration: duration}
		if err != nil {
			result.Status = migrate.StatusFailed
			result.Reason = "statement failed"
			result.Err = err
			ui.ShowStatementResult(stmt.Object, false, firstLine(err.Error()), "")
		} else {
			ui.ShowStatementResult(stmt.Object, true, "", formatDuration(duration))
		}
		summary.Results = append(summary.Results, result)
	}

	pb.Finish()
	return summary
}

// showSummary renders the per-object outcome table and the totals line.
func showSummary(summary *migrate.Summary) {
	ui.RenderSummary(summaryRows(summary))
	ui.ShowRunTotals(
		summary.Count(migrate.StatusDone),
		summary.Count(migrate.StatusSkipped),
		summary.Count(migrate.StatusFailed),
	)
}

func summaryRows(summary *migrate.Summary) []ui.SummaryRow {
	rows := make([]ui.SummaryRow, 0, len(summary.Results))
	for _, res := range summary.Results {
		reason := res.Reason
		if res.Err != nil {
			reason = fmt.Sprintf("%s: %s", res.Reason, firstLine(res.Err.Error()))
		}
		rows = append(rows, ui.SummaryRow{
			Object:   res.Object,
			Status:   string(res.Status),
			Reason:   reason,
			Duration: formatDuration(res.Duration),
		})
	}
	return rows
}

// saveReport persists the run outcome for snowshift inspect. Reporting
// problems are warned about, never fatal.
func saveReport(command, account string, startedAt time.Time, summary *migrate.Summary) {
	store, err := report.NewStore()
	if err != nil {
		ui.ShowWarning(fmt.Sprintf("Could not open the report store: %v", err))
		return
	}

	path, err := store.Save(report.FromSummary(command, account, startedAt, summary))
	if err != nil {
		ui.ShowWarning(fmt.Sprintf("Could not save the run report: %v", err))
		return
	}

	ui.ShowInfo("Run report saved to " + path)
}

// runError converts a summary with failures into a command error.
func runError(summary *migrate.Summary) error {
	failed := summary.Count(migrate.StatusFailed)
	if failed == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeSQLExecution,
		fmt.Sprintf("%d of %d objects failed", failed, len(summary.Results)))
}

// firstLine trims a message to its first line so it fits a table cell.
func firstLine(message string) string {
	if i := strings.Index(message, "\n"); i >= 0 {
		return message[:i]
	}
	return message
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
