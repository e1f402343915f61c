package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/session"
	"github.com/spf13/cobra"
)

var handoffCmd = &cobra.Command{
	Use:   "handoff",
	Short: "Print the implementer handoff prompt",
	Long: `Render the prompt that hands the finished plan to a fresh implementer
agent. The output combines the saved challenge with the plan file, and can
be piped straight into the implementer CLI:

  roundtable handoff | claude --print`,
	RunE: runHandoff,
}

var handoffWorkspace string

func init() {
	rootCmd.AddCommand(handoffCmd)

	handoffCmd.Flags().StringVarP(&handoffWorkspace, "workspace", "w", "", "Workspace directory (default from config)")
}

func runHandoff(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	if handoffWorkspace != "" {
		cfg.Workspace.Dir = handoffWorkspace
	}
	workspace := cfg.Workspace.ResolveDir(cwd)

	plan, err := os.ReadFile(cfg.Workspace.PlanPath(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no plan found in %s: the session has not converged yet", workspace)
		}
		return err
	}
	if strings.TrimSpace(string(plan)) == "" {
		return fmt.Errorf("plan file in %s is empty", workspace)
	}

	challenge := ""
	if state, err := session.LoadState(workspace); err == nil && state != nil {
		challenge = state.Challenge
	}

	fmt.Println(session.BuildHandoff(challenge, string(plan)))
	return nil
}
