package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Iron-Ham/roundtable/internal/config"
	"github.com/Iron-Ham/roundtable/internal/mailbox"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Show the workspace conversation",
	Long: `Print the conversation from the workspace chat log.

Examples:
  # Print the whole conversation
  roundtable chat

  # Only one participant's messages
  roundtable chat --origin alpha

  # Last 20 messages, then keep following new ones
  roundtable chat -n 20 -f`,
	RunE: runChat,
}

var (
	chatWorkspace string
	chatOrigin    string
	chatLimit     int
	chatFollow    bool
	chatRaw       bool
)

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatWorkspace, "workspace", "w", "", "Workspace directory (default from config)")
	chatCmd.Flags().StringVar(&chatOrigin, "origin", "", "Only messages from this participant")
	chatCmd.Flags().IntVarP(&chatLimit, "limit", "n", 0, "Show only the last N messages (0 for all)")
	chatCmd.Flags().BoolVarP(&chatFollow, "follow", "f", false, "Keep printing new messages as they arrive")
	chatCmd.Flags().BoolVar(&chatRaw, "raw", false, "Plain transcript without colors")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	if chatWorkspace != "" {
		cfg.Workspace.Dir = chatWorkspace
	}
	workspace := cfg.Workspace.ResolveDir(cwd)

	store := mailbox.NewStore(workspace, mailbox.WithChatFile(cfg.Workspace.ChatFile))
	msgs, err := store.ReadAll()
	if err != nil {
		return err
	}
	msgs = mailbox.FilterMessages(msgs, mailbox.TranscriptOptions{
		Origin:      chatOrigin,
		MaxMessages: chatLimit,
	})

	colors := participantColors(cfg.Participants)

	if chatRaw {
		fmt.Println(mailbox.FormatTranscript(msgs))
	} else {
		for _, msg := range msgs {
			printChatMessage(msg, colors)
		}
		if len(msgs) == 0 && !chatFollow {
			fmt.Println("No messages yet.")
		}
	}

	if !chatFollow {
		return nil
	}

	cancel := store.Follow(func(msg mailbox.Message) {
		if chatOrigin != "" && msg.Origin != chatOrigin {
			return
		}
		printChatMessage(msg, colors)
	})
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

func printChatMessage(msg mailbox.Message, colors map[string]string) {
	fmt.Printf("\n%s %s\n%s\n",
		renderOrigin(msg.Origin, msg.Color, colors),
		dimStyle.Render(fmt.Sprintf("#%d %s", msg.Seq, msg.Timestamp.Format("15:04:05"))),
		strings.TrimSpace(msg.Body))
}
