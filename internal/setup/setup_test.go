package setup

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBinary(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "mcp-server")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

func TestConfigure_PreservesOtherEntries(t *testing.T) {
	dir := t.TempDir()
	desktop := filepath.Join(dir, "Claude", "claude_desktop_config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(desktop), 0755))
	require.NoError(t, os.WriteFile(desktop, []byte(`{
		"globalShortcut": "Ctrl+Space",
		"mcpServers": {"filesystem": {"command": "npx", "args": ["-y", "fs"]}}
	}`), 0644))

	binary := fakeBinary(t, dir)
	configFile := filepath.Join(dir, "config.yaml")

	err := Configure(Options{
		BinaryPath:        binary,
		ConfigFile:        configFile,
		LogLevel:          "debug",
		DesktopConfigPath: desktop,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(desktop)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"Ctrl+Space"`, string(raw["globalShortcut"]))

	cfg, err := LoadDesktopConfig(desktop)
	require.NoError(t, err)
	require.Contains(t, cfg.MCPServers, "filesystem")
	entry := cfg.MCPServers[ServerName]
	assert.Equal(t, binary, entry.Command)
	assert.Equal(t, "stderr", entry.Env["CARDIO_RISK_LOGGING_OUTPUT"])
	assert.Equal(t, configFile, entry.Env["CARDIO_RISK_CONFIG_FILE"])
	assert.Equal(t, "debug", entry.Env["CARDIO_RISK_LOGGING_LEVEL"])
}

func TestLoadDesktopConfig_Missing(t *testing.T) {
	cfg, err := LoadDesktopConfig(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Empty(t, cfg.MCPServers)
}

func TestValidate(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		valid, issues := Validate(Options{DesktopConfigPath: filepath.Join(t.TempDir(), "c.json")})
		assert.False(t, valid)
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0], "not configured")
	})

	t.Run("valid registration", func(t *testing.T) {
		dir := t.TempDir()
		desktop := filepath.Join(dir, "c.json")
		configFile := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 9000\n"), 0644))
		require.NoError(t, Configure(Options{BinaryPath: fakeBinary(t, dir), ConfigFile: configFile, DesktopConfigPath: desktop}))

		valid, issues := Validate(Options{DesktopConfigPath: desktop})
		assert.True(t, valid, issues)
	})

	t.Run("missing binary and invalid config", func(t *testing.T) {
		dir := t.TempDir()
		desktop := filepath.Join(dir, "c.json")
		configFile := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 70000\n"), 0644))
		require.NoError(t, Configure(Options{BinaryPath: filepath.Join(dir, "gone"), ConfigFile: configFile, DesktopConfigPath: desktop}))

		valid, issues := Validate(Options{DesktopConfigPath: desktop})
		assert.False(t, valid)
		require.Len(t, issues, 2)
		assert.Contains(t, issues[0], "binary not found")
		assert.Contains(t, issues[1], "invalid server port")
	})
}

func TestCLI(t *testing.T) {
	dir := t.TempDir()
	desktop := filepath.Join(dir, "c.json")
	binary := fakeBinary(t, dir)

	t.Run("declined prompt writes nothing", func(t *testing.T) {
		var out bytes.Buffer
		cli := NewCLI(strings.NewReader("n\n"), &out)
		require.NoError(t, cli.Run([]string{"claude-desktop", "--binary", binary, "--desktop-config", desktop}))
		assert.Contains(t, out.String(), "Configuration cancelled.")
		_, err := os.Stat(desktop)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("register then status", func(t *testing.T) {
		var out bytes.Buffer
		cli := NewCLI(strings.NewReader(""), &out)
		require.NoError(t, cli.Run([]string{"claude-desktop", "--binary", binary, "--desktop-config", desktop, "--yes"}))
		assert.Contains(t, out.String(), "configured successfully")

		out.Reset()
		require.NoError(t, cli.Run([]string{"status", "--desktop-config", desktop}))
		assert.Contains(t, out.String(), "✓ Configured")
		assert.Contains(t, out.String(), binary)

		out.Reset()
		require.NoError(t, cli.Run([]string{"validate", "--desktop-config", desktop}))
		assert.Contains(t, out.String(), "valid")
	})

	t.Run("unknown command shows help", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, NewCLI(strings.NewReader(""), &out).Run([]string{"wizard"}))
		assert.Contains(t, out.String(), "Unknown command: wizard")
		assert.Contains(t, out.String(), "mcp-server setup <command>")
	})
}
