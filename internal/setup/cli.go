package setup

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// CLI provides command-line interface for setup operations.
type CLI struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewCLI creates a new setup CLI instance.
func NewCLI(in io.Reader, out io.Writer) *CLI {
	return &CLI{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run executes the setup command based on the provided arguments.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "claude-desktop":
		return c.setupDesktop(args[1:])
	case "status":
		return c.showStatus(args[1:])
	case "validate":
		return c.validate(args[1:])
	case "help", "--help", "-h":
		return c.showHelp()
	default:
		fmt.Fprintf(c.out, "Unknown command: %s\n\n", args[0])
		return c.showHelp()
	}
}

func (c *CLI) showHelp() error {
	fmt.Fprint(c.out, `
Cardiovascular Risk MCP Server Setup

Usage:
  mcp-server setup <command> [options]

Commands:
  claude-desktop  Register the server with the desktop client
  status          Show current setup status
  validate        Validate the registered server and its config file

Options:
  --binary PATH          server binary (default: this executable)
  --config PATH          config.yaml passed to the server
  --log-level LEVEL      log level passed to the server
  --desktop-config PATH  client config file (default: per-OS location)
  --yes                  skip the confirmation prompt
`)
	return nil
}

func (c *CLI) parse(name string, args []string) (Options, error) {
	var opts Options
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	fs.StringVar(&opts.BinaryPath, "binary", "", "server binary")
	fs.StringVar(&opts.ConfigFile, "config", "", "config.yaml passed to the server")
	fs.StringVar(&opts.LogLevel, "log-level", "", "log level passed to the server")
	fs.StringVar(&opts.DesktopConfigPath, "desktop-config", "", "client config file")
	fs.BoolVar(&opts.AutoConfirm, "yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func (c *CLI) setupDesktop(args []string) error {
	opts, err := c.parse("claude-desktop", args)
	if err != nil {
		return err
	}

	if opts.BinaryPath == "" {
		if execPath, err := os.Executable(); err == nil {
			opts.BinaryPath = execPath
		}
	}

	configPath, err := opts.desktopConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Desktop Client Configuration")
	fmt.Fprintln(c.out, "============================")
	fmt.Fprintf(c.out, "Config file: %s\n", configPath)
	fmt.Fprintf(c.out, "Server binary: %s\n", opts.BinaryPath)
	if opts.ConfigFile != "" {
		fmt.Fprintf(c.out, "Server config: %s\n", opts.ConfigFile)
	}
	fmt.Fprintln(c.out)

	if !opts.AutoConfirm {
		fmt.Fprint(c.out, "Proceed with configuration? [Y/n]: ")
		response, _ := c.reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "" && response != "y" && response != "yes" {
			fmt.Fprintln(c.out, "Configuration cancelled.")
			return nil
		}
	}

	if err := Configure(opts); err != nil {
		return fmt.Errorf("failed to configure desktop client: %w", err)
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "✓ Desktop client configured successfully!")
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Next steps:")
	fmt.Fprintln(c.out, "  1. Restart the desktop client to load the new configuration")
	fmt.Fprintln(c.out, "  2. Try: \"Assess my cardiovascular risk: I have chest pain and my LDL is 165\"")
	fmt.Fprintln(c.out)
	return nil
}

func (c *CLI) showStatus(args []string) error {
	opts, err := c.parse("status", args)
	if err != nil {
		return err
	}
	status, err := GetStatus(opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Cardiovascular Risk MCP Server Status")
	fmt.Fprintln(c.out, "=====================================")
	fmt.Fprintf(c.out, "Desktop config: %s\n", status.DesktopConfigPath)
	if !status.Configured {
		fmt.Fprintln(c.out, "Status: ✗ Not configured")
		return nil
	}
	fmt.Fprintln(c.out, "Status: ✓ Configured")
	fmt.Fprintf(c.out, "Binary: %s\n", status.ServerPath)
	if status.ConfigFile != "" {
		fmt.Fprintf(c.out, "Server config: %s\n", status.ConfigFile)
	}

	if len(status.Issues) > 0 {
		fmt.Fprintln(c.out, "Issues:")
		for _, issue := range status.Issues {
			fmt.Fprintf(c.out, "  ⚠ %s\n", issue)
		}
	}
	return nil
}

func (c *CLI) validate(args []string) error {
	opts, err := c.parse("validate", args)
	if err != nil {
		return err
	}

	valid, issues := Validate(opts)
	if valid {
		fmt.Fprintln(c.out, "✓ Configuration is valid!")
		return nil
	}
	fmt.Fprintln(c.out, "✗ Configuration has issues:")
	for _, issue := range issues {
		fmt.Fprintf(c.out, "  - %s\n", issue)
	}
	return fmt.Errorf("%d setup issue(s)", len(issues))
}
