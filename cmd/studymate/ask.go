package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"studymate/internal/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the backend a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newBackendClient().Ask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), chat.FormatReply(resp))
		return nil
	},
}
