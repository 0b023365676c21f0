// Package setup registers the MCP server binary with a desktop MCP client.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/cardio-risk-mcp-server/internal/config"
)

// ServerName is the key of this server in the client's mcpServers map
const ServerName = "cardio-risk"

const binaryName = "mcp-server"

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// DesktopConfig is the client configuration file. Keys other than mcpServers are kept
// as they were read.
type DesktopConfig struct {
	MCPServers map[string]MCPServerConfig
	other      map[string]json.RawMessage
}

// Options contains options for the setup process.
type Options struct {
	BinaryPath        string // Path to the server binary
	ConfigFile        string // config.yaml passed to the server
	LogLevel          string
	DesktopConfigPath string // Overrides the per-OS client config location
	AutoConfirm       bool   // Skip confirmation prompts
}

// DesktopConfigPath returns the path to the desktop client's config file.
func DesktopConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "Claude")
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

func (o Options) desktopConfigPath() (string, error) {
	if o.DesktopConfigPath != "" {
		return o.DesktopConfigPath, nil
	}
	return DesktopConfigPath()
}

// LoadDesktopConfig loads the client configuration. A missing file is an empty config.
func LoadDesktopConfig(path string) (*DesktopConfig, error) {
	cfg := &DesktopConfig{
		MCPServers: make(map[string]MCPServerConfig),
		other:      make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg.other); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := cfg.other["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &cfg.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(cfg.other, "mcpServers")
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]MCPServerConfig)
	}
	return cfg, nil
}

// SaveDesktopConfig writes the client configuration, creating its directory.
func SaveDesktopConfig(path string, cfg *DesktopConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]any, len(cfg.other)+1)
	for k, v := range cfg.other {
		out[k] = v
	}
	out["mcpServers"] = cfg.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ServerEntry builds the mcpServers entry for opts. Logs go to stderr because stdout
// carries the protocol.
func ServerEntry(opts Options) (MCPServerConfig, error) {
	entry := MCPServerConfig{
		Command: opts.BinaryPath,
		Env: map[string]string{
			"CARDIO_RISK_LOGGING_OUTPUT": "stderr",
		},
	}
	if opts.ConfigFile != "" {
		abs, err := filepath.Abs(opts.ConfigFile)
		if err != nil {
			return entry, fmt.Errorf("failed to resolve config file: %w", err)
		}
		entry.Env["CARDIO_RISK_CONFIG_FILE"] = abs
	}
	if opts.LogLevel != "" {
		entry.Env["CARDIO_RISK_LOGGING_LEVEL"] = opts.LogLevel
	}
	return entry, nil
}

// Configure adds or updates this server in the desktop client config.
func Configure(opts Options) error {
	path, err := opts.desktopConfigPath()
	if err != nil {
		return err
	}

	cfg, err := LoadDesktopConfig(path)
	if err != nil {
		return err
	}

	if opts.BinaryPath == "" {
		opts.BinaryPath, err = findBinary()
		if err != nil {
			return fmt.Errorf("could not find server binary: %w", err)
		}
	}

	entry, err := ServerEntry(opts)
	if err != nil {
		return err
	}
	cfg.MCPServers[ServerName] = entry

	return SaveDesktopConfig(path, cfg)
}

// findBinary attempts to find the server binary in common locations.
func findBinary() (string, error) {
	if path, err := exec.LookPath(binaryName); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	locations := []string{
		"./" + binaryName,
		"./build/" + binaryName,
		filepath.Join(home, ".local", "bin", binaryName),
		"/usr/local/bin/" + binaryName,
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			if abs, err := filepath.Abs(loc); err == nil {
				return abs, nil
			}
			return loc, nil
		}
	}

	return "", fmt.Errorf("binary '%s' not found in common locations", binaryName)
}

// Status represents the current setup status.
type Status struct {
	DesktopConfigPath string
	Configured        bool
	ServerPath        string
	ConfigFile        string
	Issues            []string
}

// GetStatus inspects the registered entry, its binary and its config file.
func GetStatus(opts Options) (*Status, error) {
	path, err := opts.desktopConfigPath()
	if err != nil {
		return nil, err
	}
	status := &Status{DesktopConfigPath: path, Issues: []string{}}

	cfg, err := LoadDesktopConfig(path)
	if err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Could not load desktop config: %v", err))
		return status, nil
	}

	entry, ok := cfg.MCPServers[ServerName]
	if !ok {
		return status, nil
	}
	status.Configured = true
	status.ServerPath = entry.Command
	status.ConfigFile = entry.Env["CARDIO_RISK_CONFIG_FILE"]

	if info, err := os.Stat(entry.Command); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Server binary not found: %s", entry.Command))
	} else if info.Mode()&0111 == 0 {
		status.Issues = append(status.Issues, fmt.Sprintf("Server binary is not executable: %s", entry.Command))
	}

	if status.ConfigFile != "" {
		manager, err := config.NewManager(status.ConfigFile)
		if err != nil {
			status.Issues = append(status.Issues, fmt.Sprintf("Config file cannot be loaded: %v", err))
		} else if err := manager.Validate(); err != nil {
			status.Issues = append(status.Issues, fmt.Sprintf("Config file is invalid: %v", err))
		}
	}

	return status, nil
}

// Validate reports whether the registered server can start.
func Validate(opts Options) (bool, []string) {
	status, err := GetStatus(opts)
	if err != nil {
		return false, []string{err.Error()}
	}
	if !status.Configured {
		return false, append(status.Issues, "Cardiovascular risk server is not configured in the desktop client")
	}
	return len(status.Issues) == 0, status.Issues
}
