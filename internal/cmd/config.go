package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify Roundtable configuration",
	Long: `View or modify Roundtable configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  roundtable config set router.debounce_ms 1500
  roundtable config set supervisor.pty_settle_ms 10000
  roundtable config set logging.level debug

Valid keys:
  workspace.dir                - Workspace directory for session files
  router.debounce_ms           - Quiet window before an outbox write routes
  supervisor.pipe_settle_ms    - Boot delay before priming pipe participants
  supervisor.pty_settle_ms     - Boot delay before priming pty participants
  supervisor.submit_delay_ms   - Pause between pty text and carriage return
  supervisor.output_buffer_size - Per-participant output buffer in bytes
  supervisor.mirror_output     - Mirror participant output to <name>.log
  logging.enabled              - Write structured logs to the workspace
  logging.level                - Minimum log level (debug/info/warn/error)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/roundtable/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println("Current configuration:")
	fmt.Println()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Config file: (none - using defaults)\n")
	}
	fmt.Println()

	fmt.Println("workspace:")
	fmt.Printf("  dir: %s\n", cfg.Workspace.Dir)
	fmt.Printf("  chat_file: %s\n", cfg.Workspace.ChatFile)
	fmt.Printf("  plan_file: %s\n", cfg.Workspace.PlanFile)

	fmt.Println("router:")
	fmt.Printf("  debounce_ms: %d\n", cfg.Router.DebounceMs)

	fmt.Println("supervisor:")
	fmt.Printf("  pipe_settle_ms: %d\n", cfg.Supervisor.PipeSettleMs)
	fmt.Printf("  pty_settle_ms: %d\n", cfg.Supervisor.PtySettleMs)
	fmt.Printf("  pty_rows: %d\n", cfg.Supervisor.PtyRows)
	fmt.Printf("  pty_cols: %d\n", cfg.Supervisor.PtyCols)
	fmt.Printf("  submit_delay_ms: %d\n", cfg.Supervisor.SubmitDelayMs)
	fmt.Printf("  output_buffer_size: %d\n", cfg.Supervisor.OutputBufferSize)
	fmt.Printf("  mirror_output: %v\n", cfg.Supervisor.MirrorOutput)

	fmt.Println("logging:")
	fmt.Printf("  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Printf("  level: %s\n", cfg.Logging.Level)

	if len(cfg.Participants) == 0 {
		fmt.Println("participants: (none configured)")
	} else {
		fmt.Println("participants:")
		for _, p := range cfg.Participants {
			transport := p.Transport
			if transport == "" {
				transport = config.TransportPipe
			}
			fmt.Printf("  - %s: %s %s (%s)\n", p.Name, p.Command, strings.Join(p.Args, " "), transport)
		}
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Validate the key exists
	validKeys := map[string]string{
		"workspace.dir":                 "string",
		"router.debounce_ms":            "int",
		"supervisor.pipe_settle_ms":     "int",
		"supervisor.pty_settle_ms":      "int",
		"supervisor.submit_delay_ms":    "int",
		"supervisor.output_buffer_size": "int",
		"supervisor.mirror_output":      "bool",
		"logging.enabled":               "bool",
		"logging.level":                 "string",
	}

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'roundtable config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue interface{}
	switch keyType {
	case "string":
		if key == "logging.level" {
			lower := strings.ToLower(value)
			valid := false
			for _, l := range config.ValidLogLevels() {
				if lower == l {
					valid = true
				}
			}
			if !valid {
				return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
					key, value, strings.Join(config.ValidLogLevels(), ", "))
			}
			value = lower
		}
		typedValue = value
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set the value in viper
	viper.Set(key, typedValue)

	// Write to config file
	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Set %s = %v\n", key, typedValue)
	fmt.Printf("Config saved to %s\n", configFile)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'roundtable config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Generate a commented config file
	configContent := `# Roundtable Configuration

# Workspace settings
workspace:
  # Directory for the chat log, outbox files, and plan.
  # Empty means the current directory; ~ expands to your home directory.
  dir: ""
  chat_file: chat.jsonl
  plan_file: PLAN_FINAL.md

# Message routing
router:
  # Quiet window after an outbox write before the message routes (ms)
  debounce_ms: 1000

# Process supervision
supervisor:
  # Boot delay before a pipe participant receives its priming (ms)
  pipe_settle_ms: 1500
  # Boot delay before a pty participant receives its priming (ms)
  pty_settle_ms: 7000
  # Pseudo-terminal dimensions for pty participants
  pty_rows: 40
  pty_cols: 120
  # Pause between pty text delivery and the carriage return (ms)
  submit_delay_ms: 250
  # Per-participant output buffer (bytes)
  output_buffer_size: 100000
  # Mirror each participant's output into <name>.log in the workspace
  mirror_output: true

# Structured logging
logging:
  enabled: true
  level: info

# Participants: one entry per agent CLI at the table.
# Transport is "pipe" for line-oriented tools and "pty" for interactive
# full-screen ones.
participants:
  - name: alpha
    command: claude
    args: ["--print"]
    transport: pipe
  - name: beta
    command: codex
    transport: pty
    # settle_ms: 10000       # override the transport default
    # restart:
    #   enabled: true
    #   max_attempts: 3
    #   initial_delay_ms: 1000
    #   multiplier: 2.0
    #   max_delay_ms: 30000
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	fmt.Println("Edit the participants list to match the agent CLIs on your machine.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Println("\nSearch paths:")
	fmt.Printf("  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Printf("  2. $HOME/.config/roundtable/config.yaml\n")
	fmt.Printf("  3. ./config.yaml (current directory)\n")
	fmt.Println("\nEnvironment variables: ROUNDTABLE_* (e.g., ROUNDTABLE_ROUTER_DEBOUNCE_MS)")

	return nil
}
