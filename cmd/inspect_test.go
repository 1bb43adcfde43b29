package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowshift/internal/config"
	"snowshift/internal/migrate"
	"snowshift/internal/report"
)

func TestInspectCommandFlags(t *testing.T) {
	assert.NotNil(t, inspectCmd.Flags().Lookup("mapping"))
	assert.NotNil(t, inspectCmd.Flags().Lookup("runs"))
}

func TestInspectShowsEffectiveConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SNOWSHIFT_USE_KEYCHAIN", "false")
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvAccount, "xy12345")
	t.Setenv(config.EnvUser, "LOADER")
	t.Setenv(config.EnvPassword, "")

	var execErr error
	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"inspect"})
		execErr = rootCmd.Execute()
	})
	require.NoError(t, execErr)

	assert.Contains(t, output, "xy12345")
	assert.Contains(t, output, "LOADER")
	assert.Contains(t, output, "(not set)")
	assert.Contains(t, output, "MERGED_DB")
	assert.Contains(t, output, "mapping.jsonl")
	assert.Contains(t, output, "8 database, 2 schema, 4 table")
}

func TestInspectShowsRecentRuns(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SNOWSHIFT_USE_KEYCHAIN", "false")
	t.Setenv(config.EnvConfigFile, "")

	store, err := report.NewStore()
	require.NoError(t, err)
	summary := &migrate.Summary{Results: []migrate.Result{
		{Object: "SALES", Status: migrate.StatusDone, Duration: time.Second},
	}}
	_, err = store.Save(report.FromSummary("merge", "xy12345", time.Now(), summary))
	require.NoError(t, err)

	var execErr error
	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"inspect"})
		execErr = rootCmd.Execute()
	})
	require.NoError(t, execErr)

	assert.Contains(t, output, "Recent runs")
	assert.Contains(t, output, "merge")
	assert.Contains(t, output, "1 done, 0 skipped, 0 failed")
}
