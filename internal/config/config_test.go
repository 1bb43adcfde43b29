package config

import (
	"os"
	"path/filepath"
	"testing"

	"snowshift/pkg/errors"
	"snowshift/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the loader reads so tests are hermetic.
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		EnvConfigFile, EnvAccount, EnvUser, EnvPassword, EnvRole,
		EnvWarehouse, EnvAdminRole, EnvReadonlyRole,
		EnvDestinationUser, EnvDestinationAccount,
	}
	for _, v := range vars {
		old, had := os.LookupEnv(v)
		os.Unsetenv(v)
		if had {
			value := old
			name := v
			t.Cleanup(func() { os.Setenv(name, value) })
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	clearEnv(t)
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".snowshift")
	assert.Equal(t, expected, GetConfigPath())
}

func TestGetConfigFileOverride(t *testing.T) {
	clearEnv(t)
	os.Setenv(EnvConfigFile, "/tmp/custom/config.yaml")
	defer os.Unsetenv(EnvConfigFile)

	assert.Equal(t, "/tmp/custom/config.yaml", GetConfigFile())
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	tempDir, err := os.MkdirTemp("", "snowshift-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	defer os.Setenv("HOME", originalHome)

	testConfig := &models.Config{
		Snowflake: models.Snowflake{
			Account:   "test123.us-east-1",
			Username:  "migration_user",
			Role:      "ACCOUNTADMIN",
			Warehouse: "WH_MIGRATION",
		},
		Migration: models.Migration{
			MergedDatabase: "MERGED_DB",
			AdminRole:      "ROLE_ADMIN",
			ReadonlyRole:   "ROLE_READONLY",
		},
	}

	err = Save(testConfig)
	assert.NoError(t, err)
	assert.True(t, Exists())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, testConfig.Snowflake.Account, loaded.Snowflake.Account)
	assert.Equal(t, testConfig.Migration.MergedDatabase, loaded.Migration.MergedDatabase)
	assert.Equal(t, testConfig.Migration.AdminRole, loaded.Migration.AdminRole)
}

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	clearEnv(t)
	tempDir, err := os.MkdirTemp("", "snowshift-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	defer os.Setenv("HOME", originalHome)

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &models.Config{}, loaded)
}

func TestResolveEnvWins(t *testing.T) {
	clearEnv(t)
	tempDir, err := os.MkdirTemp("", "snowshift-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	defer os.Setenv("HOME", originalHome)

	fileConfig := &models.Config{
		Snowflake: models.Snowflake{Account: "from-file", Username: "file_user"},
	}
	require.NoError(t, Save(fileConfig))

	os.Setenv(EnvAccount, "from-env")
	defer os.Unsetenv(EnvAccount)
	os.Setenv(EnvAdminRole, "ROLE_ADMIN")
	defer os.Unsetenv(EnvAdminRole)

	resolved, err := Resolve()
	require.NoError(t, err)

	assert.Equal(t, "from-env", resolved.Snowflake.Account)
	assert.Equal(t, "file_user", resolved.Snowflake.Username)
	assert.Equal(t, "ROLE_ADMIN", resolved.Migration.AdminRole)
	// Defaults fill the rest.
	assert.Equal(t, models.DefaultRole, resolved.Snowflake.Role)
	assert.Equal(t, models.DefaultWarehouse, resolved.Snowflake.Warehouse)
	assert.Equal(t, models.DefaultMergedDatabase, resolved.Migration.MergedDatabase)
}

func TestResolveDestinationUserFallback(t *testing.T) {
	clearEnv(t)
	tempDir, err := os.MkdirTemp("", "snowshift-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	defer os.Setenv("HOME", originalHome)

	os.Setenv(EnvDestinationUser, "dest_user")
	defer os.Unsetenv(EnvDestinationUser)

	resolved, err := Resolve()
	require.NoError(t, err)
	assert.Equal(t, "dest_user", resolved.Snowflake.Username)
}

func TestValidateReportsAllMissing(t *testing.T) {
	clearEnv(t)
	config := &models.Config{}

	err := Validate(config,
		RequireAccount, RequireUser, RequirePassword,
		RequireAdminRole, RequireReadonlyRole,
	)
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeConfigMissing, appErr.Code)
	assert.Equal(t,
		"missing required configuration: SNOWFLAKE_ACCOUNT, SNOWFLAKE_USER, SNOWFLAKE_PASSWORD, SNOWFLAKE_ADMIN_ROLE, SNOWFLAKE_READONLY_ROLE",
		appErr.Message)
}

func TestValidatePartialMissing(t *testing.T) {
	clearEnv(t)
	config := &models.Config{
		Snowflake: models.Snowflake{
			Account:  "xy12345",
			Username: "user",
			Password: "secret",
		},
	}

	err := Validate(config,
		RequireAccount, RequireUser, RequirePassword,
		RequireAdminRole, RequireReadonlyRole,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNOWFLAKE_ADMIN_ROLE")
	assert.Contains(t, err.Error(), "SNOWFLAKE_READONLY_ROLE")
	assert.NotContains(t, err.Error(), "SNOWFLAKE_ACCOUNT,")
}

func TestValidateAllPresent(t *testing.T) {
	clearEnv(t)
	config := &models.Config{
		Snowflake: models.Snowflake{
			Account:  "xy12345",
			Username: "user",
			Password: "secret",
		},
		Migration: models.Migration{
			AdminRole:    "ROLE_ADMIN",
			ReadonlyRole: "ROLE_READONLY",
		},
	}

	assert.NoError(t, Validate(config,
		RequireAccount, RequireUser, RequirePassword,
		RequireAdminRole, RequireReadonlyRole,
	))
}
