// Package logging provides structured logging for Roundtable sessions.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation support for debugging and post-hoc analysis. It is
// designed to help troubleshoot multi-agent sessions by providing
// structured, filterable logs that can be analyzed after the fact.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (participant name, component)
//   - Log rotation with configurable size limits
//   - Optional gzip compression for rotated logs
//   - Log aggregation and filtering utilities
//   - Export to JSON, text, or CSV formats
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. The [Logger] type
// uses Go's slog internally which is designed for concurrent access. The
// [RotatingWriter] type uses a mutex to protect file operations during
// rotation. Child loggers created via With* methods share the underlying
// writer safely.
//
// # Basic Usage
//
// Create a logger for a workspace directory:
//
//	logger, err := logging.NewLogger("/path/to/workspace", "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Debug("detailed info", "key", "value")
//	logger.Info("operation completed", "duration_ms", 150)
//	logger.Warn("potential issue", "threshold", 100)
//	logger.Error("operation failed", "error", err.Error())
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	routerLog := logger.WithComponent("router")
//	agentLog := logger.WithComponent("supervisor").WithParticipant("alpha")
//
//	// All logs from agentLog include component and participant
//	agentLog.Info("process started", "pid", 1234)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"process started","component":"supervisor","participant":"alpha","pid":1234}
//
// # Log Rotation
//
// Logs are written to {workspace}/orchestrator.log. Rotated files are named
// orchestrator.log.1, orchestrator.log.2, etc., where .1 is the most recent
// backup. When compression is enabled, rotated files become
// orchestrator.log.1.gz, etc.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output:
//
//	func TestSomething(t *testing.T) {
//	    logger := logging.NopLogger()
//	    // Use logger in tests without creating files
//	}
//
// # Log Aggregation and Filtering
//
// Read and analyze logs after a session:
//
//	entries, err := logging.AggregateLogs("/path/to/workspace")
//	if err != nil {
//	    return err
//	}
//
//	filtered := logging.FilterLogs(entries, logging.LogFilter{
//	    Level:       "WARN",
//	    Participant: "alpha",
//	})
//
//	logging.ExportLogEntries(filtered, "errors.json", "json")
//
// # Log Levels
//
// The package defines four log levels:
//
//   - [LevelDebug]: Detailed information for debugging
//   - [LevelInfo]: General operational information (default)
//   - [LevelWarn]: Warning conditions that may need attention
//   - [LevelError]: Error conditions that affect functionality
//
// Use [ValidLevels] to get the list of valid level strings, and [ParseLevel]
// to normalize user-provided level strings.
package logging
