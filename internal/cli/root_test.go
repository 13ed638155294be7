package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "casesync", cmd.Use)
	assert.Contains(t, cmd.Long, "exactly one")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{{"journal"}, {"journal", "list"}, {"journal", "show"}, {"bofh"}}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "p", configFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	logFormatFlag := cmd.PersistentFlags().Lookup("log-format")
	require.NotNil(t, logFormatFlag)
	assert.Equal(t, "text", logFormatFlag.DefValue)
}

func TestModeFlags(t *testing.T) {
	cmd := NewRootCommand()
	for name, short := range map[string]string{"import": "i", "dump": "d", "tag": "t", "check": "c"} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, short, f.Shorthand, name)
	}
	assert.NotNil(t, cmd.Flags().Lookup("dry-run"))
}

func TestRootUsageErrors(t *testing.T) {
	cfg := writeConfig(t, map[string]any{"remote": map[string]any{"url": "http://localhost:1"}})

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no config", []string{"-i", "persons.xml"}, "--config is required"},
		{"no mode", []string{"-p", cfg}, "exactly one of"},
		{"two modes", []string{"-p", cfg, "-i", "persons.xml", "-c"}, "exactly one of"},
		{"tag without dump", []string{"-p", cfg, "-c", "-t", "PERSON"}, "--tag requires --dump"},
		{"bad format", []string{"-p", cfg, "-c", "--format", "yaml"}, "invalid format"},
		{"bad log format", []string{"-p", cfg, "-c", "--log-format", "xml"}, "invalid log format"},
		{"unknown flag", []string{"--nope"}, "invalid flags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestRootMissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "-p", "/nonexistent/casesync.cue", "-c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
