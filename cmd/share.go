package cmd

import (
	"fmt"
	"time"

	"snowshift/internal/migrate"
	"snowshift/internal/ui"
	"snowshift/pkg/models"

	"github.com/spf13/cobra"
)

var (
	shareMergedDatabase     string
	shareName               string
	shareDestinationAccount string
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Expose the merged database to the destination account",
	Long: `Share creates a secure share over the merged database, grants it usage
on the database and every schema plus select on every table, and adds
the destination account to it.

Creating shares usually requires ACCOUNTADMIN or a role with the
CREATE SHARE privilege.`,
	RunE: runShare,
}

func init() {
	shareCmd.Flags().StringVarP(&shareMergedDatabase, "merged-db", "d", "", "Merged database name (default from config)")
	shareCmd.Flags().StringVar(&shareName, "share", "", "Share name (default from config)")
	shareCmd.Flags().StringVar(&shareDestinationAccount, "destination-account", "", "Account to add to the share")
	rootCmd.AddCommand(shareCmd)
}

func runShare(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if shareMergedDatabase != "" {
		cfg.Migration.MergedDatabase = shareMergedDatabase
		cfg.Migration.ShareName = shareMergedDatabase + models.DefaultShareSuffix
	}
	if shareName != "" {
		cfg.Migration.ShareName = shareName
	}
	if shareDestinationAccount != "" {
		cfg.Migration.DestinationAccount = shareDestinationAccount
	}

	ui.ShowHeader("Share Merged Database")

	statements, err := migrate.PlanShare(migrate.ShareOptions{
		MergedDatabase:     cfg.Migration.MergedDatabase,
		ShareName:          cfg.Migration.ShareName,
		DestinationAccount: cfg.Migration.DestinationAccount,
	})
	if err != nil {
		return err
	}

	if dryRun {
		printPlan(statements)
		return nil
	}

	service, err := connect(cfg, connectionRequirements...)
	if err != nil {
		return err
	}
	defer service.Close()

	confirmed, err := confirmApply(fmt.Sprintf("Share %s with %s?",
		cfg.Migration.MergedDatabase, cfg.Migration.DestinationAccount))
	if err != nil {
		return err
	}
	if !confirmed {
		ui.ShowWarning("Share cancelled")
		return nil
	}

	startedAt := time.Now()
	out := ui.NewUI(verbose, false)
	out.StartProgress(fmt.Sprintf("Granting %s to share %s...",
		cfg.Migration.MergedDatabase, cfg.Migration.ShareName))

	summary := migrate.Apply(service, statements)

	if summary.Failed() {
		out.StopProgressWith(false, "Share incomplete")
	} else {
		out.StopProgressWith(true, "Share ready")
	}

	showSummary(summary)
	saveReport("share", cfg.Snowflake.Account, startedAt, summary)

	if err := runError(summary); err != nil {
		return err
	}

	ui.ShowSuccess(fmt.Sprintf("Share %s is available to %s",
		cfg.Migration.ShareName, cfg.Migration.DestinationAccount))
	return nil
}
