package cmd

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/mailbox"
	"github.com/Iron-Ham/roundtable/internal/session"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace status",
	Long:  `Display the state of the workspace: lock holder, challenge, participants, and conversation length.`,
	RunE:  runStatus,
}

var statusWorkspace string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusWorkspace, "workspace", "w", "", "Workspace directory (default from config)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	if statusWorkspace != "" {
		cfg.Workspace.Dir = statusWorkspace
	}
	workspace := cfg.Workspace.ResolveDir(cwd)

	state, err := session.LoadState(workspace)
	if err != nil {
		return err
	}
	if state == nil {
		fmt.Printf("No session has run in %s\n", workspace)
		return nil
	}

	fmt.Printf("Workspace: %s\n", workspace)
	fmt.Printf("Challenge: %s\n", state.Challenge)
	fmt.Printf("Started: %s\n", state.StartedAt.Format("2006-01-02 15:04:05"))
	if !state.ResetAt.IsZero() {
		fmt.Printf("Reset: %s\n", state.ResetAt.Format("2006-01-02 15:04:05"))
	}
	if state.Implementer != "" {
		fmt.Printf("Implementer: %s\n", state.Implementer)
	}

	if lock, locked := session.IsLocked(workspace); locked {
		fmt.Printf("Session: running (PID %d on %s)\n", lock.PID, lock.Hostname)
	} else {
		fmt.Println("Session: not running")
	}

	store := mailbox.NewStore(workspace, mailbox.WithChatFile(cfg.Workspace.ChatFile))
	msgs, err := store.ReadAll()
	if err != nil {
		return err
	}
	fmt.Printf("Messages: %d\n\n", len(msgs))

	for _, name := range state.Participants {
		drop, err := store.ReadDrop(name)
		pending := "empty outbox"
		if err == nil && drop != "" {
			pending = fmt.Sprintf("%d bytes pending in outbox", len(drop))
		}
		fmt.Printf("  %s: %s\n", name, pending)
	}

	planPath := cfg.Workspace.PlanPath(workspace)
	if info, err := os.Stat(planPath); err == nil && info.Size() > 0 {
		fmt.Printf("\nPlan: %s (%d bytes)\n", planPath, info.Size())
	} else {
		fmt.Println("\nPlan: not written yet")
	}

	return nil
}
