package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Roundtable configuration
type Config struct {
	Workspace    WorkspaceConfig     `mapstructure:"workspace"`
	Router       RouterConfig        `mapstructure:"router"`
	Supervisor   SupervisorConfig    `mapstructure:"supervisor"`
	Prompt       PromptConfig        `mapstructure:"prompt"`
	Logging      LoggingConfig       `mapstructure:"logging"`
	Participants []ParticipantConfig `mapstructure:"participants"`
}

// WorkspaceConfig controls where session data lives
type WorkspaceConfig struct {
	// Dir is the workspace directory holding the chat log, drop-files,
	// and the plan artifact. Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir"`
	// ChatFile is the append-only chat log file name within the workspace
	ChatFile string `mapstructure:"chat_file"`
	// PlanFile is the shared plan artifact file name within the workspace.
	// Any participant may write it; a non-empty plan file signals convergence.
	PlanFile string `mapstructure:"plan_file"`
}

// RouterConfig controls drop-file watching behavior
type RouterConfig struct {
	// DebounceMs is the quiet window in milliseconds a drop-file must go
	// without writes before its content is treated as a complete message.
	// Agents write incrementally, so reading too early yields truncated turns.
	DebounceMs int `mapstructure:"debounce_ms"`
}

// SupervisorConfig controls agent process lifecycle behavior
type SupervisorConfig struct {
	// PipeSettleMs is the default delay in milliseconds between spawning a
	// pipe-transport process and delivering its priming text
	PipeSettleMs int `mapstructure:"pipe_settle_ms"`
	// PtySettleMs is the default settle delay for pty-transport processes.
	// Interactive agent CLIs need more boot time than plain pipe readers.
	PtySettleMs int `mapstructure:"pty_settle_ms"`
	// PtyRows is the row count of the emulated terminal
	PtyRows int `mapstructure:"pty_rows"`
	// PtyCols is the column count of the emulated terminal
	PtyCols int `mapstructure:"pty_cols"`
	// SubmitDelayMs is the pause in milliseconds between writing text to a
	// pty and sending the carriage return that submits it
	SubmitDelayMs int `mapstructure:"submit_delay_ms"`
	// OutputBufferSize is the size of each participant's output ring buffer in bytes
	OutputBufferSize int `mapstructure:"output_buffer_size"`
	// StopTimeoutSeconds bounds how long a graceful termination may block
	// before the process is killed outright
	StopTimeoutSeconds int `mapstructure:"stop_timeout_seconds"`
	// MirrorOutput writes each participant's raw output to {workspace}/{name}.log
	MirrorOutput bool `mapstructure:"mirror_output"`
}

// PromptConfig controls priming text generation
type PromptConfig struct {
	// Template is the priming template. Recognized placeholders:
	// {challenge}, {self_name}, {peer_names}, {outbox_file}, {plan_file},
	// {workspace}. Unrecognized placeholders are left as literal text.
	Template string `mapstructure:"template"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// ParticipantConfig defines one agent process taking part in the session
type ParticipantConfig struct {
	// Name uniquely identifies the participant (case-insensitive)
	Name string `mapstructure:"name"`
	// Command is the executable to launch
	Command string `mapstructure:"command"`
	// Args are the arguments passed to the command
	Args []string `mapstructure:"args"`
	// Transport is "pipe" or "pty"
	Transport string `mapstructure:"transport"`
	// Color is the display color used when rendering this participant's messages
	Color string `mapstructure:"color"`
	// SettleMs overrides the transport's default settle delay (0 = transport default)
	SettleMs int `mapstructure:"settle_ms"`
	// Restart configures automatic restart on unexpected exit
	Restart RestartConfig `mapstructure:"restart"`
}

// RestartConfig controls automatic restart of an exited participant
type RestartConfig struct {
	// Enabled turns auto-restart on
	Enabled bool `mapstructure:"enabled"`
	// MaxAttempts is the number of restarts permitted before the
	// participant reaches a terminal "max retries reached" status
	MaxAttempts int `mapstructure:"max_attempts"`
	// InitialDelayMs seeds the exponential backoff
	InitialDelayMs int `mapstructure:"initial_delay_ms"`
	// Multiplier scales the delay after each attempt
	Multiplier float64 `mapstructure:"multiplier"`
	// MaxDelayMs caps the backoff delay
	MaxDelayMs int `mapstructure:"max_delay_ms"`
}

// Transport mode values accepted in participant configuration.
const (
	TransportPipe = "pipe"
	TransportPty  = "pty"
)

// DefaultTemplate is the priming template used when none is configured.
const DefaultTemplate = `You are {self_name}, collaborating with {peer_names} on the following challenge:

{challenge}

Discuss the problem with your peers. To say something, write your complete message into your outbox file at {outbox_file} - the orchestrator routes it to everyone else and relays their replies to you. When the group has converged, write the final agreed plan into {plan_file}. Your working directory is {workspace}.`

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Dir:      "", // Empty means current directory
			ChatFile: "chat.jsonl",
			PlanFile: "PLAN_FINAL.md",
		},
		Router: RouterConfig{
			DebounceMs: 1000,
		},
		Supervisor: SupervisorConfig{
			PipeSettleMs:       1500,
			PtySettleMs:        7000,
			PtyRows:            40,
			PtyCols:            120,
			SubmitDelayMs:      250,
			OutputBufferSize:   100000, // 100KB
			StopTimeoutSeconds: 5,
			MirrorOutput:       true,
		},
		Prompt: PromptConfig{
			Template: DefaultTemplate,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Participants: []ParticipantConfig{},
	}
}

// DefaultRestart returns the restart policy applied when a participant
// enables restart without overriding the backoff parameters.
func DefaultRestart() RestartConfig {
	return RestartConfig{
		Enabled:        false,
		MaxAttempts:    3,
		InitialDelayMs: 1000,
		Multiplier:     2.0,
		MaxDelayMs:     30000,
	}
}

// Debounce returns the router quiet window as a time.Duration
func (c *RouterConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// PipeSettle returns the pipe settle delay as a time.Duration
func (c *SupervisorConfig) PipeSettle() time.Duration {
	return time.Duration(c.PipeSettleMs) * time.Millisecond
}

// PtySettle returns the pty settle delay as a time.Duration
func (c *SupervisorConfig) PtySettle() time.Duration {
	return time.Duration(c.PtySettleMs) * time.Millisecond
}

// SubmitDelay returns the pty submit pause as a time.Duration
func (c *SupervisorConfig) SubmitDelay() time.Duration {
	return time.Duration(c.SubmitDelayMs) * time.Millisecond
}

// StopTimeout returns the graceful stop bound as a time.Duration
func (c *SupervisorConfig) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutSeconds) * time.Second
}

// Settle returns the participant's settle delay, falling back to the
// transport default from the supervisor config.
func (p *ParticipantConfig) Settle(sup *SupervisorConfig) time.Duration {
	if p.SettleMs > 0 {
		return time.Duration(p.SettleMs) * time.Millisecond
	}
	if p.Transport == TransportPty {
		return sup.PtySettle()
	}
	return sup.PipeSettle()
}

// InitialDelay returns the backoff seed as a time.Duration
func (r *RestartConfig) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelayMs) * time.Millisecond
}

// MaxDelay returns the backoff cap as a time.Duration
func (r *RestartConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMs) * time.Millisecond
}

// ResolveDir returns the resolved workspace directory path.
// If Dir is empty, it returns baseDir. If Dir starts with ~, it expands to
// the user's home directory. A relative path is resolved against baseDir.
func (w *WorkspaceConfig) ResolveDir(baseDir string) string {
	if w.Dir == "" {
		return baseDir
	}

	path := w.Dir
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return path
}

// ChatPath returns the absolute path of the chat log for a resolved workspace.
func (w *WorkspaceConfig) ChatPath(dir string) string {
	return filepath.Join(dir, w.ChatFile)
}

// PlanPath returns the absolute path of the plan artifact for a resolved workspace.
func (w *WorkspaceConfig) PlanPath(dir string) string {
	return filepath.Join(dir, w.PlanFile)
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Workspace defaults
	viper.SetDefault("workspace.dir", defaults.Workspace.Dir)
	viper.SetDefault("workspace.chat_file", defaults.Workspace.ChatFile)
	viper.SetDefault("workspace.plan_file", defaults.Workspace.PlanFile)

	// Router defaults
	viper.SetDefault("router.debounce_ms", defaults.Router.DebounceMs)

	// Supervisor defaults
	viper.SetDefault("supervisor.pipe_settle_ms", defaults.Supervisor.PipeSettleMs)
	viper.SetDefault("supervisor.pty_settle_ms", defaults.Supervisor.PtySettleMs)
	viper.SetDefault("supervisor.pty_rows", defaults.Supervisor.PtyRows)
	viper.SetDefault("supervisor.pty_cols", defaults.Supervisor.PtyCols)
	viper.SetDefault("supervisor.submit_delay_ms", defaults.Supervisor.SubmitDelayMs)
	viper.SetDefault("supervisor.output_buffer_size", defaults.Supervisor.OutputBufferSize)
	viper.SetDefault("supervisor.stop_timeout_seconds", defaults.Supervisor.StopTimeoutSeconds)
	viper.SetDefault("supervisor.mirror_output", defaults.Supervisor.MirrorOutput)

	// Prompt defaults
	viper.SetDefault("prompt.template", defaults.Prompt.Template)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Participants that enable restart inherit the default backoff for
	// any parameter they leave unset
	for i := range cfg.Participants {
		applyRestartDefaults(&cfg.Participants[i].Restart)
		if cfg.Participants[i].Transport == "" {
			cfg.Participants[i].Transport = TransportPipe
		}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// applyRestartDefaults fills zero-valued backoff parameters from DefaultRestart.
func applyRestartDefaults(r *RestartConfig) {
	d := DefaultRestart()
	if r.MaxAttempts == 0 {
		r.MaxAttempts = d.MaxAttempts
	}
	if r.InitialDelayMs == 0 {
		r.InitialDelayMs = d.InitialDelayMs
	}
	if r.Multiplier == 0 {
		r.Multiplier = d.Multiplier
	}
	if r.MaxDelayMs == 0 {
		r.MaxDelayMs = d.MaxDelayMs
	}
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "roundtable")
	}
	// Fall back to ~/.config/roundtable
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roundtable"
	}
	return filepath.Join(home, ".config", "roundtable")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidTransports returns the list of valid transport mode values
func ValidTransports() []string {
	return []string{TransportPipe, TransportPty}
}

// IsValidTransport checks if the given transport mode is valid
func IsValidTransport(transport string) bool {
	for _, valid := range ValidTransports() {
		if transport == valid {
			return true
		}
	}
	return false
}
