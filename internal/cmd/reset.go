package cmd

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/mailbox"
	"github.com/Iron-Ham/roundtable/internal/session"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the workspace conversation",
	Long: `Truncate the chat log and every outbox file, and remove the plan file.
The workspace directory itself survives, and the next session's message
numbering starts over at 1.

Refuses to run while a session holds the workspace.`,
	RunE: runReset,
}

var resetWorkspace string

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringVarP(&resetWorkspace, "workspace", "w", "", "Workspace directory (default from config)")
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	if resetWorkspace != "" {
		cfg.Workspace.Dir = resetWorkspace
	}
	workspace := cfg.Workspace.ResolveDir(cwd)

	if lock, locked := session.IsLocked(workspace); locked {
		return fmt.Errorf("session is running (PID %d on %s): stop it before resetting", lock.PID, lock.Hostname)
	}

	store := mailbox.NewStore(workspace, mailbox.WithChatFile(cfg.Workspace.ChatFile))
	if err := store.ResetAll(); err != nil {
		return err
	}

	planPath := cfg.Workspace.PlanPath(workspace)
	if err := os.Remove(planPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove plan file: %w", err)
	}

	fmt.Printf("Workspace %s reset.\n", workspace)
	return nil
}
