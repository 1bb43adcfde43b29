package config

import (
	"fmt"
	"os"
	"path/filepath"

	"snowshift/internal/common"
	"snowshift/pkg/errors"
	"snowshift/pkg/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Environment variable names understood by every command.
const (
	EnvConfigFile         = "SNOWSHIFT_CONFIG"
	EnvAccount            = "SNOWFLAKE_ACCOUNT"
	EnvUser               = "SNOWFLAKE_USER"
	EnvPassword           = "SNOWFLAKE_PASSWORD"
	EnvRole               = "SNOWFLAKE_ROLE"
	EnvWarehouse          = "SNOWFLAKE_WAREHOUSE"
	EnvAdminRole          = "SNOWFLAKE_ADMIN_ROLE"
	EnvReadonlyRole       = "SNOWFLAKE_READONLY_ROLE"
	EnvDestinationUser    = "DESTINATION_USER"
	EnvDestinationAccount = "DESTINATION_ACCOUNT"
)

func GetConfigPath() string {
	if configPath := os.Getenv(EnvConfigFile); configPath != "" {
		return filepath.Dir(configPath)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, common.AppDirName)
}

func GetConfigFile() string {
	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		// Validate the path to prevent directory traversal
		cleaned, err := common.CleanPath(configFile)
		if err != nil {
			return filepath.Join(GetConfigPath(), "config.yaml")
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

// Load reads the config file. A missing file yields an empty config, not an
// error; required settings are checked later by Validate.
func Load() (*models.Config, error) {
	configFile := GetConfigFile()

	cleanedPath, err := common.CleanPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	if _, err := os.Stat(cleanedPath); os.IsNotExist(err) {
		return &models.Config{}, nil
	}

	v := viper.New()
	v.SetConfigFile(cleanedPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config models.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

func Save(config *models.Config) error {
	configPath := GetConfigPath()
	if err := os.MkdirAll(configPath, common.DirPermissionSecure); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigFile(), data, common.FilePermissionSecure); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func Exists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}

// Resolve assembles the effective configuration: config file first, then a
// .env file if present, then process environment variables, then defaults.
func Resolve() (*models.Config, error) {
	// A missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	config, err := Load()
	if err != nil {
		return nil, err
	}

	applyEnv(config)
	config.ApplyDefaults()
	return config, nil
}

// applyEnv overlays environment variables onto the file config. Env wins.
func applyEnv(config *models.Config) {
	if v := os.Getenv(EnvAccount); v != "" {
		config.Snowflake.Account = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		config.Snowflake.Username = v
	} else if v := os.Getenv(EnvDestinationUser); v != "" {
		// The destination-side scripts historically named their user this way.
		config.Snowflake.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		config.Snowflake.Password = v
	}
	if v := os.Getenv(EnvRole); v != "" {
		config.Snowflake.Role = v
	}
	if v := os.Getenv(EnvWarehouse); v != "" {
		config.Snowflake.Warehouse = v
	}
	if v := os.Getenv(EnvAdminRole); v != "" {
		config.Migration.AdminRole = v
	}
	if v := os.Getenv(EnvReadonlyRole); v != "" {
		config.Migration.ReadonlyRole = v
	}
	if v := os.Getenv(EnvDestinationAccount); v != "" {
		config.Migration.DestinationAccount = v
	}
}

// Requirement ties a setting to the environment variable an operator would
// set to satisfy it.
type Requirement struct {
	EnvVar  string
	present func(*models.Config) bool
}

var (
	RequireAccount = Requirement{EnvAccount, func(c *models.Config) bool {
		return c.Snowflake.Account != ""
	}}
	RequireUser = Requirement{EnvUser, func(c *models.Config) bool {
		return c.Snowflake.Username != ""
	}}
	RequirePassword = Requirement{EnvPassword, func(c *models.Config) bool {
		return c.Snowflake.Password != ""
	}}
	RequireAdminRole = Requirement{EnvAdminRole, func(c *models.Config) bool {
		return c.Migration.AdminRole != ""
	}}
	RequireReadonlyRole = Requirement{EnvReadonlyRole, func(c *models.Config) bool {
		return c.Migration.ReadonlyRole != ""
	}}
	RequireDestinationAccount = Requirement{EnvDestinationAccount, func(c *models.Config) bool {
		return c.Migration.DestinationAccount != ""
	}}
)

// Validate checks every requirement and reports all missing settings in one
// error, before anything connects to Snowflake.
func Validate(config *models.Config, reqs ...Requirement) error {
	var missing []string
	for _, r := range reqs {
		if !r.present(config) {
			missing = append(missing, r.EnvVar)
		}
	}
	if len(missing) > 0 {
		return errors.MissingConfigError(missing)
	}
	return nil
}
