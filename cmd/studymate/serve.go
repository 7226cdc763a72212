package main

import (
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studymate/internal/server"
	"studymate/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve [documents...]",
	Short: "Run the HTTP answering service",
	Long: `Starts the backend that answers POST /ask requests.

With document arguments the corpus is ingested first; otherwise the
existing index is loaded from the configured vector store.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, closeStore, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("close vector store", zap.Error(err))
		}
	}()

	if len(args) > 0 {
		report, err := svc.IngestDocuments(ctx, args)
		if err != nil {
			return err
		}
		logger.Info("corpus ingested",
			zap.Int("documents", report.Documents),
			zap.Int("chunks", report.Chunks),
			zap.Duration("elapsed", report.Elapsed))
	} else {
		n, err := svc.Load(ctx)
		switch {
		case errors.Is(err, service.ErrEmptyIndex):
			logger.Warn("index is empty; questions will get the no-context reply until documents are ingested")
		case err != nil:
			return err
		default:
			logger.Info("index loaded", zap.Int("chunks", n))
		}
	}

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RateLimitQPS:    cfg.Server.RateLimitQPS,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeoutSec) * time.Second,
	}, svc, logger)
	return srv.Run(ctx)
}
