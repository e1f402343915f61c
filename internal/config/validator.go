package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "participants[0].transport")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// participantNameRegex validates participant name characters.
// Names become drop-file and mirror-log file names, so they must stay
// filesystem safe.
var participantNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateWorkspace()...)
	errors = append(errors, c.validateRouter()...)
	errors = append(errors, c.validateSupervisor()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateParticipants()...)

	return errors
}

// validateWorkspace validates the WorkspaceConfig
func (c *Config) validateWorkspace() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Workspace.ChatFile) == "" {
		errors = append(errors, ValidationError{
			Field:   "workspace.chat_file",
			Value:   c.Workspace.ChatFile,
			Message: "cannot be empty",
		})
	}
	if strings.TrimSpace(c.Workspace.PlanFile) == "" {
		errors = append(errors, ValidationError{
			Field:   "workspace.plan_file",
			Value:   c.Workspace.PlanFile,
			Message: "cannot be empty",
		})
	}
	if strings.ContainsRune(c.Workspace.Dir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "workspace.dir",
			Value:   c.Workspace.Dir,
			Message: "path contains invalid null character",
		})
	}

	return errors
}

// validateRouter validates the RouterConfig
func (c *Config) validateRouter() []ValidationError {
	var errors []ValidationError

	const minDebounce = 50    // 50ms minimum
	const maxDebounce = 60000 // 1 minute maximum

	if c.Router.DebounceMs < minDebounce {
		errors = append(errors, ValidationError{
			Field:   "router.debounce_ms",
			Value:   c.Router.DebounceMs,
			Message: fmt.Sprintf("must be at least %dms", minDebounce),
		})
	}
	if c.Router.DebounceMs > maxDebounce {
		errors = append(errors, ValidationError{
			Field:   "router.debounce_ms",
			Value:   c.Router.DebounceMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxDebounce),
		})
	}

	return errors
}

// validateSupervisor validates the SupervisorConfig
func (c *Config) validateSupervisor() []ValidationError {
	var errors []ValidationError

	// Settle delays must be non-negative (0 means prime immediately)
	if c.Supervisor.PipeSettleMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "supervisor.pipe_settle_ms",
			Value:   c.Supervisor.PipeSettleMs,
			Message: "must be non-negative",
		})
	}
	if c.Supervisor.PtySettleMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "supervisor.pty_settle_ms",
			Value:   c.Supervisor.PtySettleMs,
			Message: "must be non-negative",
		})
	}

	// Pty dimensions validation
	const minPtyCols = 20
	const maxPtyCols = 500
	const minPtyRows = 4
	const maxPtyRows = 200

	if c.Supervisor.PtyCols < minPtyCols {
		errors = append(errors, ValidationError{
			Field:   "supervisor.pty_cols",
			Value:   c.Supervisor.PtyCols,
			Message: fmt.Sprintf("must be at least %d columns", minPtyCols),
		})
	}
	if c.Supervisor.PtyCols > maxPtyCols {
		errors = append(errors, ValidationError{
			Field:   "supervisor.pty_cols",
			Value:   c.Supervisor.PtyCols,
			Message: fmt.Sprintf("exceeds maximum of %d columns", maxPtyCols),
		})
	}
	if c.Supervisor.PtyRows < minPtyRows {
		errors = append(errors, ValidationError{
			Field:   "supervisor.pty_rows",
			Value:   c.Supervisor.PtyRows,
			Message: fmt.Sprintf("must be at least %d rows", minPtyRows),
		})
	}
	if c.Supervisor.PtyRows > maxPtyRows {
		errors = append(errors, ValidationError{
			Field:   "supervisor.pty_rows",
			Value:   c.Supervisor.PtyRows,
			Message: fmt.Sprintf("exceeds maximum of %d rows", maxPtyRows),
		})
	}

	// Buffer size validation
	const minBufferSize = 1024        // 1KB minimum
	const maxBufferSize = 100_000_000 // 100MB maximum

	if c.Supervisor.OutputBufferSize < minBufferSize {
		errors = append(errors, ValidationError{
			Field:   "supervisor.output_buffer_size",
			Value:   c.Supervisor.OutputBufferSize,
			Message: fmt.Sprintf("must be at least %d bytes (1KB)", minBufferSize),
		})
	}
	if c.Supervisor.OutputBufferSize > maxBufferSize {
		errors = append(errors, ValidationError{
			Field:   "supervisor.output_buffer_size",
			Value:   c.Supervisor.OutputBufferSize,
			Message: fmt.Sprintf("exceeds maximum of %d bytes (100MB)", maxBufferSize),
		})
	}

	if c.Supervisor.SubmitDelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "supervisor.submit_delay_ms",
			Value:   c.Supervisor.SubmitDelayMs,
			Message: "must be non-negative",
		})
	}
	if c.Supervisor.StopTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "supervisor.stop_timeout_seconds",
			Value:   c.Supervisor.StopTimeoutSeconds,
			Message: "must be positive",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateParticipants validates the participant list
func (c *Config) validateParticipants() []ValidationError {
	var errors []ValidationError

	// Names must be unique ignoring case; two participants differing only
	// in case would collide on case-insensitive filesystems
	seen := make(map[string]bool)

	for i, p := range c.Participants {
		prefix := fmt.Sprintf("participants[%d]", i)

		if strings.TrimSpace(p.Name) == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Value:   p.Name,
				Message: "cannot be empty",
			})
		} else {
			if !participantNameRegex.MatchString(p.Name) {
				errors = append(errors, ValidationError{
					Field:   prefix + ".name",
					Value:   p.Name,
					Message: "must start with a letter and contain only alphanumeric characters, hyphens, or underscores",
				})
			}
			lower := strings.ToLower(p.Name)
			if seen[lower] {
				errors = append(errors, ValidationError{
					Field:   prefix + ".name",
					Value:   p.Name,
					Message: "duplicate participant name (names are case-insensitive)",
				})
			}
			seen[lower] = true
		}

		if strings.TrimSpace(p.Command) == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".command",
				Value:   p.Command,
				Message: "cannot be empty",
			})
		}

		if p.Transport != "" && !IsValidTransport(p.Transport) {
			errors = append(errors, ValidationError{
				Field:   prefix + ".transport",
				Value:   p.Transport,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidTransports(), ", ")),
			})
		}

		if p.SettleMs < 0 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".settle_ms",
				Value:   p.SettleMs,
				Message: "must be non-negative (0 uses the transport default)",
			})
		}

		errors = append(errors, validateRestart(p.Restart, prefix+".restart")...)
	}

	return errors
}

// validateRestart validates a participant's RestartConfig
func validateRestart(r RestartConfig, prefix string) []ValidationError {
	var errors []ValidationError

	if !r.Enabled {
		return errors
	}

	if r.MaxAttempts < 1 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_attempts",
			Value:   r.MaxAttempts,
			Message: "must be at least 1 when restart is enabled",
		})
	}
	if r.InitialDelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".initial_delay_ms",
			Value:   r.InitialDelayMs,
			Message: "must be non-negative",
		})
	}

	// A multiplier below 1 would shrink the backoff on every attempt
	if r.Multiplier < 1 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".multiplier",
			Value:   r.Multiplier,
			Message: "must be at least 1",
		})
	}
	if r.MaxDelayMs < r.InitialDelayMs {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_delay_ms",
			Value:   r.MaxDelayMs,
			Message: "must be at least initial_delay_ms",
		})
	}

	return errors
}
