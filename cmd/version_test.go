package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var execErr error
	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"version"})
		execErr = rootCmd.Execute()
	})

	require.NoError(t, execErr)
	assert.Contains(t, output, "snowshift version dev")
	assert.Contains(t, output, "Built at: unknown")
}
