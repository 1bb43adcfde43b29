package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowshift/internal/config"
	"snowshift/internal/mapping"
)

func writeTestMapping(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.jsonl")
	records := []mapping.Record{
		{
			SourceDatabase:     "SALES",
			SourceSchema:       "PUBLIC",
			TargetDatabaseName: "SALES",
			TargetSchema:       "SALES.PUBLIC",
			Tables: []mapping.Table{
				{SourceTable: "MERGED_DB.SALES__PUBLIC.ORDERS", TargetTable: "SALES.PUBLIC.ORDERS"},
				{SourceTable: "MERGED_DB.SALES__PUBLIC.CUSTOMERS", TargetTable: "SALES.PUBLIC.CUSTOMERS"},
			},
		},
		{
			SourceDatabase:     "HR",
			SourceSchema:       "PAYROLL",
			TargetDatabaseName: "HR",
			TargetSchema:       "HR.PAYROLL",
			Tables: []mapping.Table{
				{SourceTable: "MERGED_DB.HR__PAYROLL.SALARIES", TargetTable: "HR.PAYROLL.SALARIES"},
			},
		},
	}
	require.NoError(t, mapping.Write(path, records))
	return path
}

func TestCreateDatabasesCommandFlags(t *testing.T) {
	flag := createDatabasesCmd.Flags().Lookup("mapping")
	require.NotNil(t, flag)
	assert.Equal(t, "m", flag.Shorthand)

	assert.NotNil(t, createDatabasesCmd.Flags().Lookup("exclude"))
	assert.NotNil(t, createDatabasesCmd.Flags().Lookup("workers"))
	assert.NotNil(t, createDatabasesCmd.Flags().Lookup("admin-role"))
	assert.NotNil(t, createDatabasesCmd.Flags().Lookup("readonly-role"))
}

func TestCreateDatabasesDryRun(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvRole, "ACCOUNTADMIN")
	t.Setenv(config.EnvAdminRole, "MIGRATION_ADMIN")
	t.Setenv(config.EnvReadonlyRole, "MIGRATION_READONLY")

	path := writeTestMapping(t)
	t.Cleanup(func() {
		dryRun = false
		createDatabasesMapping = ""
	})

	var execErr error
	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"create-databases", "--dry-run", "--mapping", path})
		execErr = rootCmd.Execute()
	})
	require.NoError(t, execErr)

	assert.Contains(t, output, "USE ROLE ACCOUNTADMIN")
	assert.Contains(t, output, "CREATE DATABASE IF NOT EXISTS SALES")
	assert.Contains(t, output, "CREATE DATABASE IF NOT EXISTS HR")
	assert.Contains(t, output, "GRANT OWNERSHIP ON DATABASE SALES TO ROLE MIGRATION_ADMIN")
	assert.Contains(t, output, "GRANT ALL PRIVILEGES ON DATABASE SALES TO ROLE MIGRATION_ADMIN")
	assert.Contains(t, output, "GRANT USAGE ON FUTURE SCHEMAS IN DATABASE HR TO ROLE MIGRATION_READONLY")
	assert.Contains(t, output, "GRANT SELECT ON FUTURE TABLES IN DATABASE HR TO ROLE MIGRATION_READONLY")
}

func TestCreateDatabasesReportsMissingRoles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvAdminRole, "")
	t.Setenv(config.EnvReadonlyRole, "")
	t.Cleanup(func() {
		dryRun = false
		createDatabasesMapping = ""
	})

	var execErr error
	captureOutput(t, func() {
		rootCmd.SetArgs([]string{"create-databases", "--dry-run"})
		execErr = rootCmd.Execute()
	})

	require.Error(t, execErr)
	assert.Contains(t, execErr.Error(), "SNOWFLAKE_ADMIN_ROLE")
	assert.Contains(t, execErr.Error(), "SNOWFLAKE_READONLY_ROLE")
}
