package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"snowshift/internal/common"
	"snowshift/internal/config"
	"snowshift/internal/ui"
	"snowshift/pkg/errors"

	"github.com/spf13/cobra"
)

var initForce bool

// envTemplate is written next to the config file as a starting point
// for a .env file. The password intentionally has no sample value.
const envTemplate = `# snowshift environment template. Copy the lines you need into a .env
# file in your working directory, or export them; they override the
# config file.
SNOWFLAKE_ACCOUNT=xy12345.eu-west-1
SNOWFLAKE_USER=MIGRATION_USER
SNOWFLAKE_PASSWORD=
SNOWFLAKE_ROLE=ACCOUNTADMIN
SNOWFLAKE_WAREHOUSE=WH_MIGRATION
SNOWFLAKE_ADMIN_ROLE=
SNOWFLAKE_READONLY_ROLE=
DESTINATION_ACCOUNT=
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the snowshift config file",
	Long: `Init writes the connection and migration settings to
~/.snowshift/config.yaml. Values are prompted for interactively; with
--yes the prompts are skipped and environment variables and defaults are
written as they stand.

The password is never written to the config file. Store it with
'snowshift auth set' or export SNOWFLAKE_PASSWORD.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if config.Exists() && !initForce {
		return errors.New(errors.ErrCodeFileOperation,
			fmt.Sprintf("config file %s already exists", config.GetConfigFile())).
			WithSuggestions("Pass --force to overwrite it")
	}

	cfg, err := config.Resolve()
	if err != nil {
		return err
	}

	ui.ShowHeader("Snowshift Setup")

	if !assumeYes {
		fields := []struct {
			message string
			help    string
			target  *string
		}{
			{"Snowflake account identifier", "For example xy12345.eu-west-1", &cfg.Snowflake.Account},
			{"Username", "", &cfg.Snowflake.Username},
			{"Role", "Needs to see every database that will be merged", &cfg.Snowflake.Role},
			{"Warehouse", "", &cfg.Snowflake.Warehouse},
			{"Merged database name", "", &cfg.Migration.MergedDatabase},
			{"Destination account", "Leave empty to pass --destination-account later", &cfg.Migration.DestinationAccount},
			{"Admin role on the destination account", "Created databases are granted to it", &cfg.Migration.AdminRole},
			{"Readonly role on the destination account", "", &cfg.Migration.ReadonlyRole},
		}
		for _, field := range fields {
			value, err := ui.Input(field.message+":", *field.target, field.help)
			if err != nil {
				return err
			}
			*field.target = value
		}
	}

	cfg.Snowflake.Password = ""
	if err := config.Save(cfg); err != nil {
		return err
	}
	ui.ShowSuccess("Wrote " + config.GetConfigFile())

	envPath := filepath.Join(filepath.Dir(config.GetConfigFile()), "env.example")
	if err := os.WriteFile(envPath, []byte(envTemplate), common.FilePermissionNormal); err != nil {
		return err
	}
	ui.ShowInfo("Wrote " + envPath)

	ui.ShowInfo("Store the password with 'snowshift auth set' or export SNOWFLAKE_PASSWORD")
	return nil
}
