package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "strata", cmd.Use)
	assert.Contains(t, cmd.Long, "change-sets")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"migrate", "validate", "plan", "status", "inspect"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestDatabaseCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"migrate", "plan", "status", "inspect"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			dbFlag := sub.Flags().Lookup("db")
			require.NotNil(t, dbFlag)
			assert.Equal(t, "", dbFlag.DefValue)
		})
	}

	validateCmd, _, err := cmd.Find([]string{"validate"})
	require.NoError(t, err)
	assert.Nil(t, validateCmd.Flags().Lookup("db"))
}

func TestInvalidFormat(t *testing.T) {
	dir := workspace(t)
	manifest := writeFile(t, dir, "schema.yaml", libraryManifest)

	_, errOut, err := execute(t, "--format", "xml", "validate", manifest)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, errOut, `invalid format "xml"`)
}

func TestValidFormats(t *testing.T) {
	for _, f := range []string{"text", "json", "yaml"} {
		assert.True(t, isValidFormat(f), f)
	}
	assert.False(t, isValidFormat("JSON"))
	assert.False(t, isValidFormat(""))
}

func TestVerboseEnablesDebugLogging(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	setupLogging(buf, false)
	slog.Info("hidden")
	slog.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	setupLogging(buf, true)
	slog.Debug("detail", "id", "init")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "id=init")
}

func TestVerboseMigrateLogsChangeSets(t *testing.T) {
	dir := workspace(t)
	manifest := writeFile(t, dir, "schema.yaml", libraryManifest)

	_, errOut, err := execute(t, "--verbose", "migrate", manifest, "--db", dir+"/app.db")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Loading manifest")
	assert.Contains(t, errOut, `msg="change-set applied" id=init`)
}
