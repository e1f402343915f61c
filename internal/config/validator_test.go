package config

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

// hasFieldError reports whether errs contains an error for the given field
func hasFieldError(errs []ValidationError, field string) bool {
	for _, err := range errs {
		if err.Field == field {
			return true
		}
	}
	return false
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	if len(errs) != 0 {
		t.Errorf("Default config should be valid, got %d errors: %v", len(errs), errs)
	}
}

func TestConfig_Validate_Workspace(t *testing.T) {
	t.Run("empty chat_file", func(t *testing.T) {
		cfg := Default()
		cfg.Workspace.ChatFile = ""
		if !hasFieldError(cfg.Validate(), "workspace.chat_file") {
			t.Error("expected error for empty chat_file")
		}
	})

	t.Run("empty plan_file", func(t *testing.T) {
		cfg := Default()
		cfg.Workspace.PlanFile = "  "
		if !hasFieldError(cfg.Validate(), "workspace.plan_file") {
			t.Error("expected error for blank plan_file")
		}
	})

	t.Run("null byte in dir", func(t *testing.T) {
		cfg := Default()
		cfg.Workspace.Dir = "bad\x00path"
		if !hasFieldError(cfg.Validate(), "workspace.dir") {
			t.Error("expected error for null byte in dir")
		}
	})
}

func TestConfig_Validate_Router(t *testing.T) {
	tests := []struct {
		name       string
		debounceMs int
		hasError   bool
	}{
		{"valid default", 1000, false},
		{"minimum allowed", 50, false},
		{"below minimum", 10, true},
		{"zero", 0, true},
		{"negative", -100, true},
		{"maximum allowed", 60000, false},
		{"above maximum", 120000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Router.DebounceMs = tt.debounceMs
			hasError := hasFieldError(cfg.Validate(), "router.debounce_ms")
			if hasError != tt.hasError {
				t.Errorf("Validate() for debounce_ms=%d: hasError=%v, want %v", tt.debounceMs, hasError, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_Supervisor(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative pipe settle", func(c *Config) { c.Supervisor.PipeSettleMs = -1 }, "supervisor.pipe_settle_ms"},
		{"negative pty settle", func(c *Config) { c.Supervisor.PtySettleMs = -1 }, "supervisor.pty_settle_ms"},
		{"pty cols too small", func(c *Config) { c.Supervisor.PtyCols = 10 }, "supervisor.pty_cols"},
		{"pty cols too large", func(c *Config) { c.Supervisor.PtyCols = 1000 }, "supervisor.pty_cols"},
		{"pty rows too small", func(c *Config) { c.Supervisor.PtyRows = 1 }, "supervisor.pty_rows"},
		{"pty rows too large", func(c *Config) { c.Supervisor.PtyRows = 500 }, "supervisor.pty_rows"},
		{"buffer too small", func(c *Config) { c.Supervisor.OutputBufferSize = 100 }, "supervisor.output_buffer_size"},
		{"buffer too large", func(c *Config) { c.Supervisor.OutputBufferSize = 200_000_000 }, "supervisor.output_buffer_size"},
		{"negative submit delay", func(c *Config) { c.Supervisor.SubmitDelayMs = -5 }, "supervisor.submit_delay_ms"},
		{"zero stop timeout", func(c *Config) { c.Supervisor.StopTimeoutSeconds = 0 }, "supervisor.stop_timeout_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if !hasFieldError(cfg.Validate(), tt.field) {
				t.Errorf("expected error for %s", tt.field)
			}
		})
	}
}

func TestConfig_Validate_Logging(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		field    string
		hasError bool
	}{
		{"valid debug level", func(c *Config) { c.Logging.Level = "debug" }, "logging.level", false},
		{"empty level is valid", func(c *Config) { c.Logging.Level = "" }, "logging.level", false},
		{"invalid level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level", true},
		{"case sensitive level", func(c *Config) { c.Logging.Level = "INFO" }, "logging.level", true},
		{"zero max size", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb", true},
		{"excessive max size", func(c *Config) { c.Logging.MaxSizeMB = 2000 }, "logging.max_size_mb", true},
		{"negative max backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			hasError := hasFieldError(cfg.Validate(), tt.field)
			if hasError != tt.hasError {
				t.Errorf("Validate(): hasError=%v, want %v (errors: %v)", hasError, tt.hasError, cfg.Validate())
			}
		})
	}
}

func TestConfig_Validate_Participants(t *testing.T) {
	valid := func() ParticipantConfig {
		return ParticipantConfig{
			Name:      "alpha",
			Command:   "echo",
			Transport: TransportPipe,
		}
	}

	t.Run("valid participant", func(t *testing.T) {
		cfg := Default()
		cfg.Participants = []ParticipantConfig{valid()}
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		cfg := Default()
		p := valid()
		p.Name = ""
		cfg.Participants = []ParticipantConfig{p}
		if !hasFieldError(cfg.Validate(), "participants[0].name") {
			t.Error("expected error for empty name")
		}
	})

	t.Run("invalid name characters", func(t *testing.T) {
		cfg := Default()
		p := valid()
		p.Name = "al pha/.."
		cfg.Participants = []ParticipantConfig{p}
		if !hasFieldError(cfg.Validate(), "participants[0].name") {
			t.Error("expected error for unsafe name")
		}
	})

	t.Run("duplicate names case-insensitive", func(t *testing.T) {
		cfg := Default()
		a := valid()
		b := valid()
		b.Name = "Alpha"
		cfg.Participants = []ParticipantConfig{a, b}
		if !hasFieldError(cfg.Validate(), "participants[1].name") {
			t.Error("expected error for duplicate name differing only in case")
		}
	})

	t.Run("empty command", func(t *testing.T) {
		cfg := Default()
		p := valid()
		p.Command = ""
		cfg.Participants = []ParticipantConfig{p}
		if !hasFieldError(cfg.Validate(), "participants[0].command") {
			t.Error("expected error for empty command")
		}
	})

	t.Run("unknown transport", func(t *testing.T) {
		cfg := Default()
		p := valid()
		p.Transport = "socket"
		cfg.Participants = []ParticipantConfig{p}
		if !hasFieldError(cfg.Validate(), "participants[0].transport") {
			t.Error("expected error for unknown transport")
		}
	})

	t.Run("empty transport is valid", func(t *testing.T) {
		cfg := Default()
		p := valid()
		p.Transport = ""
		cfg.Participants = []ParticipantConfig{p}
		if hasFieldError(cfg.Validate(), "participants[0].transport") {
			t.Error("empty transport should pass (defaulted at load time)")
		}
	})

	t.Run("negative settle", func(t *testing.T) {
		cfg := Default()
		p := valid()
		p.SettleMs = -1
		cfg.Participants = []ParticipantConfig{p}
		if !hasFieldError(cfg.Validate(), "participants[0].settle_ms") {
			t.Error("expected error for negative settle_ms")
		}
	})
}

func TestConfig_Validate_Restart(t *testing.T) {
	base := func(r RestartConfig) *Config {
		cfg := Default()
		cfg.Participants = []ParticipantConfig{{
			Name:      "alpha",
			Command:   "echo",
			Transport: TransportPipe,
			Restart:   r,
		}}
		return cfg
	}

	t.Run("disabled restart skips checks", func(t *testing.T) {
		cfg := base(RestartConfig{Enabled: false, Multiplier: 0})
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("disabled restart should not be validated, got %v", errs)
		}
	})

	t.Run("zero max attempts", func(t *testing.T) {
		cfg := base(RestartConfig{Enabled: true, MaxAttempts: 0, Multiplier: 2, InitialDelayMs: 100, MaxDelayMs: 1000})
		if !hasFieldError(cfg.Validate(), "participants[0].restart.max_attempts") {
			t.Error("expected error for zero max_attempts")
		}
	})

	t.Run("multiplier below one", func(t *testing.T) {
		cfg := base(RestartConfig{Enabled: true, MaxAttempts: 3, Multiplier: 0.5, InitialDelayMs: 100, MaxDelayMs: 1000})
		if !hasFieldError(cfg.Validate(), "participants[0].restart.multiplier") {
			t.Error("expected error for multiplier < 1")
		}
	})

	t.Run("max delay below initial", func(t *testing.T) {
		cfg := base(RestartConfig{Enabled: true, MaxAttempts: 3, Multiplier: 2, InitialDelayMs: 5000, MaxDelayMs: 1000})
		if !hasFieldError(cfg.Validate(), "participants[0].restart.max_delay_ms") {
			t.Error("expected error for max_delay_ms < initial_delay_ms")
		}
	})

	t.Run("valid restart", func(t *testing.T) {
		cfg := base(RestartConfig{Enabled: true, MaxAttempts: 2, Multiplier: 2, InitialDelayMs: 100, MaxDelayMs: 1000})
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
	})
}
