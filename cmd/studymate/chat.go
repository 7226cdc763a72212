package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studymate/internal/chat"
	"studymate/internal/client"
	"studymate/internal/history"
	"studymate/internal/tui"
)

var resumeID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat client",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&resumeID, "resume", "", "Resume a stored conversation by ID")
}

func newBackendClient() *client.Client {
	return client.New(cfg.Client.BackendURL, time.Duration(cfg.Client.TimeoutSecs)*time.Second)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := newBackendClient()
	opts := []chat.SessionOption{chat.WithLogger(logger)}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		convID := resumeID
		if convID == "" {
			if convID, err = store.Create(ctx); err != nil {
				return err
			}
		} else {
			msgs, err := store.Load(ctx, convID)
			if err != nil {
				return err
			}
			conv := chat.NewConversation()
			conv.Restore(msgs)
			opts = append(opts, chat.WithConversation(conv))
		}
		opts = append(opts, chat.WithRecorder(store.Recorder(convID)))
		logger.Info("chat session started", zap.String("conversation", convID))
	} else if resumeID != "" {
		return fmt.Errorf("--resume needs history.enabled in the config")
	}

	session := chat.NewSession(c, opts...)
	model := tui.New(session, tui.Options{
		Title:    "StudyMate",
		Markdown: cfg.Client.Markdown,
		Health: func(ctx context.Context) error {
			_, err := c.Health(ctx)
			return err
		},
	})
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
