package cmd

import (
	"fmt"

	"snowshift/internal/config"
	"snowshift/internal/security"
	"snowshift/internal/ui"
	"snowshift/pkg/errors"
	"snowshift/pkg/models"

	"github.com/spf13/cobra"
)

var (
	authUser     string
	authNoVerify bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Snowflake credentials",
	Long: `Auth keeps the Snowflake password in the system keyring, or in an
encrypted file under ~/.snowshift when no keyring is available, so
commands can run without SNOWFLAKE_PASSWORD in the environment.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Prompt for and store the password for the configured account",
	RunE:  runAuthSet,
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored password for the configured account",
	RunE:  runAuthClear,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials",
	RunE:  runAuthList,
}

func init() {
	authCmd.PersistentFlags().StringVar(&authUser, "user", "", "User the password belongs to (overrides SNOWFLAKE_USER)")
	authSetCmd.Flags().BoolVar(&authNoVerify, "no-verify", false, "Store the password without testing the connection")
	authCmd.AddCommand(authSetCmd, authClearCmd, authListCmd)
	rootCmd.AddCommand(authCmd)
}

// authConfig resolves the account and user a credential command targets.
func authConfig() (*models.Config, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	if authUser != "" {
		cfg.Snowflake.Username = authUser
	}
	if err := config.Validate(cfg, config.RequireAccount, config.RequireUser); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	cfg, err := authConfig()
	if err != nil {
		return err
	}

	password, err := ui.Password(
		fmt.Sprintf("Password for %s on %s:", cfg.Snowflake.Username, cfg.Snowflake.Account),
		"Stored in the system keyring, or an encrypted file when none is available")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New(errors.ErrCodeInvalidInput, "password must not be empty")
	}

	store, err := security.NewCredentialStore()
	if err != nil {
		return err
	}
	if err := store.StorePassword(cfg.Snowflake.Account, cfg.Snowflake.Username, password); err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Stored password for %s on %s", cfg.Snowflake.Username, cfg.Snowflake.Account))

	if authNoVerify {
		return nil
	}

	cfg.Snowflake.Password = password
	service, err := connect(cfg, connectionRequirements...)
	if err != nil {
		ui.ShowWarning("The password is stored, but the connection test failed")
		return err
	}
	defer service.Close()

	if err := service.TestConnection(); err != nil {
		ui.ShowWarning("The password is stored, but the connection test failed")
		return err
	}
	return nil
}

func runAuthClear(cmd *cobra.Command, args []string) error {
	cfg, err := authConfig()
	if err != nil {
		return err
	}

	store, err := security.NewCredentialStore()
	if err != nil {
		return err
	}
	if err := store.DeletePassword(cfg.Snowflake.Account, cfg.Snowflake.Username); err != nil {
		return err
	}

	ui.ShowSuccess(fmt.Sprintf("Removed the stored password for %s on %s",
		cfg.Snowflake.Username, cfg.Snowflake.Account))
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	store, err := security.NewCredentialStore()
	if err != nil {
		return err
	}

	keys, err := store.ListKeys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		ui.ShowInfo("No stored credentials")
		return nil
	}

	ui.PrintSection("Stored credentials")
	for _, key := range keys {
		fmt.Printf("  %s\n", key)
	}
	return nil
}
