package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var showSummary bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|dir|glob>...",
	Short: "Index study documents (.txt, .md) into the vector store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&showSummary, "summary", false, "Print an extractive summary of the corpus")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, closeStore, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("close vector store", zap.Error(err))
		}
	}()

	report, err := svc.IngestDocuments(ctx, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %d documents into %d chunks in %s\n", report.Documents, report.Chunks, report.Elapsed.Round(time.Millisecond))
	if showSummary && report.Summary != "" {
		fmt.Fprintf(out, "\nSummary:\n%s\n", report.Summary)
	}
	return nil
}
