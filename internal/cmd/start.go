package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/event"
	"github.com/Iron-Ham/roundtable/internal/logging"
	"github.com/Iron-Ham/roundtable/internal/mailbox"
	"github.com/Iron-Ham/roundtable/internal/router"
	"github.com/Iron-Ham/roundtable/internal/session"
	"github.com/Iron-Ham/roundtable/internal/supervisor"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [challenge]",
	Short: "Start a collaboration session",
	Long: `Start a collaboration session on the given challenge.

Every configured participant is launched with a priming prompt naming the
challenge, its peers, and its outbox file. Messages the participants write
to their outboxes are relayed between them, and the shared conversation is
mirrored to your terminal.

While the session runs, anything you type is routed to all participants.
Commands:
  /status            show which participants are alive
  /implement <name>  tell one participant to build the plan, the rest to review
  /handoff           print the implementer handoff prompt (requires a finished plan)
  /reset             wipe the conversation and stop the session
  /quit              stop the session and exit`,
	Args: cobra.ArbitraryArgs,
	RunE: runStart,
}

var (
	startWorkspace     string
	startChallengeFile string
)

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringVarP(&startWorkspace, "workspace", "w", "", "Workspace directory (default from config)")
	startCmd.Flags().StringVar(&startChallengeFile, "challenge-file", "", "Read the challenge from a file instead of arguments")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	challenge := strings.TrimSpace(strings.Join(args, " "))
	if startChallengeFile != "" {
		data, err := os.ReadFile(startChallengeFile)
		if err != nil {
			return fmt.Errorf("failed to read challenge file: %w", err)
		}
		challenge = strings.TrimSpace(string(data))
	}
	if challenge == "" {
		return fmt.Errorf("no challenge given: pass it as arguments or via --challenge-file")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	if startWorkspace != "" {
		cfg.Workspace.Dir = startWorkspace
	}
	workspace := cfg.Workspace.ResolveDir(cwd)

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(workspace, cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		defer logger.Close()
	}

	store := mailbox.NewStore(workspace, mailbox.WithChatFile(cfg.Workspace.ChatFile))
	bus := event.NewBus()

	colors := participantColors(cfg.Participants)
	sup := supervisor.New(workspace, cfg.Supervisor, supervisor.Options{
		Bus:    bus,
		Logger: logger,
	})
	rtr := router.New(store, sup, router.Options{
		Quiet:    cfg.Router.Debounce(),
		PlanPath: cfg.Workspace.PlanPath(workspace),
		Colors:   colors,
		Bus:      bus,
		Logger:   logger,
	})
	ctrl := session.NewController(cfg, store, sup, rtr, session.ControllerOptions{
		Bus:    bus,
		Logger: logger,
	})

	subscribeDisplay(bus, colors)

	fmt.Printf("Starting session in %s with %d participants...\n", workspace, len(cfg.Participants))
	results, err := ctrl.Start(cmd.Context(), challenge)
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%s %s: %v\n", errorStyle.Render("✗"), r.Name, r.Err)
		} else {
			fmt.Printf("%s %s is up\n", okStyle.Render("✓"), r.Name)
		}
	}
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	fmt.Println(dimStyle.Render("Type to address all participants, /quit to exit."))
	return interactLoop(ctrl, sup)
}

// interactLoop reads user input and slash commands until quit or SIGINT.
func interactLoop(ctrl *session.Controller, sup *supervisor.Supervisor) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Println("\nShutting down...")
			return ctrl.Stop()
		case line, ok := <-lines:
			if !ok {
				return ctrl.Stop()
			}
			if done, err := handleLine(ctrl, sup, line); done {
				return err
			}
		}
	}
}

// handleLine dispatches one line of user input. The returned bool means
// the session should end.
func handleLine(ctrl *session.Controller, sup *supervisor.Supervisor, line string) (bool, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false, nil

	case line == "/quit", line == "/exit":
		return true, ctrl.Stop()

	case line == "/stop":
		return false, ctrl.Stop()

	case line == "/reset":
		if err := ctrl.Reset(); err != nil {
			fmt.Printf("%s reset failed: %v\n", errorStyle.Render("✗"), err)
			return false, nil
		}
		fmt.Println("Workspace reset. Run start again for a fresh session.")
		return true, nil

	case line == "/status":
		live := sup.LiveParticipants()
		if len(live) == 0 {
			fmt.Println("No participants are running.")
		} else {
			fmt.Printf("Running: %s\n", strings.Join(live, ", "))
		}
		return false, nil

	case strings.HasPrefix(line, "/implement"):
		name := strings.TrimSpace(strings.TrimPrefix(line, "/implement"))
		if name == "" {
			fmt.Println("Usage: /implement <participant>")
			return false, nil
		}
		if _, err := ctrl.StartImplementation(name); err != nil {
			fmt.Printf("%s %v\n", errorStyle.Render("✗"), err)
			return false, nil
		}
		fmt.Printf("%s %s is implementing, the others are reviewing\n", okStyle.Render("✓"), name)
		return false, nil

	case line == "/handoff":
		prompt, err := ctrl.HandoffToImplementer()
		if err != nil {
			fmt.Printf("%s %v\n", errorStyle.Render("✗"), err)
			return false, nil
		}
		fmt.Println(dimStyle.Render("--- implementer prompt ---"))
		fmt.Println(prompt)
		fmt.Println(dimStyle.Render("--- end ---"))
		return false, nil

	case strings.HasPrefix(line, "/"):
		fmt.Printf("Unknown command %s. Commands: /status /implement /handoff /reset /stop /quit\n", line)
		return false, nil

	default:
		if _, err := ctrl.SubmitUserMessage(line); err != nil {
			fmt.Printf("%s %v\n", errorStyle.Render("✗"), err)
		}
		return false, nil
	}
}
