package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func TestRootCommand(t *testing.T) {
	cmd := rootCmd
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetErr(b)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.NoError(t, err)

	output := b.String()
	assert.Contains(t, output, "snowshift")
	assert.Contains(t, output, "Move every database of a Snowflake account")
}

func TestRootCommandHelp(t *testing.T) {
	cmd := rootCmd
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetErr(b)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	assert.NoError(t, err)

	output := b.String()
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "merge")
	assert.Contains(t, output, "share")
	assert.Contains(t, output, "map")
	assert.Contains(t, output, "create-databases")
	assert.Contains(t, output, "create-tables")
	assert.Contains(t, output, "auth")
	assert.Contains(t, output, "init")
	assert.Contains(t, output, "inspect")
	assert.Contains(t, output, "version")
}

func TestRootCommandGlobalFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	names := map[string]*pflag.Flag{}
	flags.VisitAll(func(f *pflag.Flag) { names[f.Name] = f })

	for _, name := range []string{"config", "dry-run", "verbose", "yes", "account", "role", "warehouse"} {
		assert.Contains(t, names, name, "missing global flag %s", name)
	}

	assert.Equal(t, "false", names["dry-run"].DefValue)
	assert.Equal(t, "v", names["verbose"].Shorthand)
	assert.Equal(t, "y", names["yes"].Shorthand)
}

func TestInvalidCommand(t *testing.T) {
	cmd := rootCmd
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetErr(b)
	cmd.SetArgs([]string{"invalid-command"})

	err := cmd.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
