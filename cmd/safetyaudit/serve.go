package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vbonduro/safetyaudit/internal/config"
	"github.com/vbonduro/safetyaudit/internal/db"
	"github.com/vbonduro/safetyaudit/internal/service"
	"github.com/vbonduro/safetyaudit/internal/store"
	"github.com/vbonduro/safetyaudit/internal/summary"
	"github.com/vbonduro/safetyaudit/internal/summary/claude"
	"github.com/vbonduro/safetyaudit/internal/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the audit and report HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.cleanup()
	logger := a.logger

	active, err := a.checklist()
	if err != nil {
		return err
	}

	database, err := db.Open(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	photoStg, err := a.photoStore(cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize photo store: %w", err)
	}

	svc := service.NewReportService(
		store.NewAuditStore(database),
		store.NewSnapshotStore(database),
		photoStg,
		a.generator(photoStg),
		newSummarizer(a.cfg),
		active,
		a.cfg.ReportKind,
		logger,
	)
	logger.Info("checklist loaded", "name", active.Name, "questions", len(active.Questions))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return web.NewServer(svc, logger).ListenAndServe(ctx, a.cfg.ListenAddr)
}

func newSummarizer(cfg *config.Config) summary.Summarizer {
	if cfg.SummaryBackend != "claude" {
		return summary.Disabled{}
	}
	return claude.NewSummarizer(cfg.ClaudeAPIKey, cfg.ClaudeModel)
}
