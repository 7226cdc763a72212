package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newBackendClient().Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend %s unreachable: %w", cfg.Client.BackendURL, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", st.Status, st.Message)
		return nil
	},
}
