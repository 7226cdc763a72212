package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"studymate/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		convs, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tMESSAGES\tFIRST QUESTION")
		for _, c := range convs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", c.ID, c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Messages, c.Title)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum conversations to list")
}
