package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/logging"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View session logs",
	Long: `View and filter the structured logs of a workspace.

Examples:
  # Show last 50 entries
  roundtable logs

  # Show everything the router logged
  roundtable logs --component router -n 0

  # Follow logs in real-time
  roundtable logs -f

  # Only warnings and errors from one participant
  roundtable logs --level warn --participant alpha

  # Show logs from the last hour
  roundtable logs --since 1h

  # Export the whole log as CSV
  roundtable logs --export session.csv --format csv`,
	RunE: runLogs,
}

var (
	logsWorkspace   string
	logsTail        int
	logsFollow      bool
	logsLevel       string
	logsSince       string
	logsParticipant string
	logsComponent   string
	logsGrep        string
	logsExport      string
	logsFormat      string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVarP(&logsWorkspace, "workspace", "w", "", "Workspace directory (default from config)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsParticipant, "participant", "", "Filter by participant name")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "Filter by component (router, supervisor, session)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter by message substring")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Export filtered entries to a file instead of printing")
	logsCmd.Flags().StringVar(&logsFormat, "format", "json", "Export format: json, text, or csv")
}

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// levelColor returns the ANSI color code for a log level
func levelColor(level string) string {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return colorGray
	case logging.LevelInfo:
		return colorBlue
	case logging.LevelWarn:
		return colorYellow
	case logging.LevelError:
		return colorRed
	default:
		return colorReset
	}
}

// formatLogEntry formats a log entry for terminal output
func formatLogEntry(entry logging.LogEntry) string {
	var sb strings.Builder

	// Timestamp
	sb.WriteString(colorGray)
	sb.WriteString("[")
	sb.WriteString(entry.Timestamp.Format("15:04:05.000"))
	sb.WriteString("]")
	sb.WriteString(colorReset)

	// Level with color
	sb.WriteString(" ")
	sb.WriteString(levelColor(entry.Level))
	sb.WriteString("[")
	sb.WriteString(strings.ToUpper(entry.Level))
	sb.WriteString("]")
	sb.WriteString(colorReset)

	// Message
	sb.WriteString(" ")
	sb.WriteString(entry.Message)

	// Context fields
	if entry.Participant != "" {
		sb.WriteString(" ")
		sb.WriteString(colorCyan)
		sb.WriteString("participant=")
		sb.WriteString(entry.Participant)
		sb.WriteString(colorReset)
	}
	if entry.Component != "" {
		sb.WriteString(" ")
		sb.WriteString(colorCyan)
		sb.WriteString("component=")
		sb.WriteString(entry.Component)
		sb.WriteString(colorReset)
	}

	// Extra fields
	for key, value := range entry.Attrs {
		sb.WriteString(" ")
		sb.WriteString(colorCyan)
		sb.WriteString(key)
		sb.WriteString("=")
		sb.WriteString(colorReset)
		sb.WriteString(fmt.Sprintf("%v", value))
	}

	return sb.String()
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	if logsWorkspace != "" {
		cfg.Workspace.Dir = logsWorkspace
	}
	workspace := cfg.Workspace.ResolveDir(cwd)

	filter := logging.LogFilter{
		Participant:     logsParticipant,
		Component:       logsComponent,
		MessageContains: logsGrep,
	}
	if logsLevel != "" {
		filter.Level = logging.ParseLevel(logsLevel)
	}
	if logsSince != "" {
		duration, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.StartTime = time.Now().Add(-duration)
	}

	if logsFollow {
		return followLogs(filepath.Join(workspace, "orchestrator.log"), filter)
	}

	entries, err := logging.AggregateLogs(workspace)
	if err != nil {
		if os.IsNotExist(err) || strings.Contains(err.Error(), "no log file") {
			fmt.Printf("No logs found in %s\n", workspace)
			return nil
		}
		return err
	}
	entries = logging.FilterLogs(entries, filter)

	if logsExport != "" {
		if err := logging.ExportLogEntries(entries, logsExport, logsFormat); err != nil {
			return err
		}
		fmt.Printf("Exported %d entries to %s\n", len(entries), logsExport)
		return nil
	}

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}
	for _, entry := range entries {
		fmt.Println(formatLogEntry(entry))
	}
	if len(entries) == 0 {
		fmt.Println("No matching log entries found.")
	}
	return nil
}

// followLogs implements tail -f behavior for the log file
func followLogs(logPath string, filter logging.LogFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Printf("Following logs... (Ctrl+C to stop)\n\n")

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// No new data, wait briefly and try again
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return fmt.Errorf("error reading log file: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry logging.LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// Not JSON, display the raw line
			fmt.Println(line)
			continue
		}

		if matches := logging.FilterLogs([]logging.LogEntry{entry}, filter); len(matches) == 0 {
			continue
		}
		fmt.Println(formatLogEntry(entry))
	}
}
