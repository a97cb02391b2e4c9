package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vbonduro/safetyaudit/internal/checklist"
	"github.com/vbonduro/safetyaudit/internal/config"
	"github.com/vbonduro/safetyaudit/internal/logging"
	"github.com/vbonduro/safetyaudit/internal/photostore"
	"github.com/vbonduro/safetyaudit/internal/photostore/local"
	"github.com/vbonduro/safetyaudit/internal/photostore/s3store"
	"github.com/vbonduro/safetyaudit/internal/report"
	"github.com/vbonduro/safetyaudit/internal/resolver"
)

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "safetyaudit",
		Short:         "Warehouse safety audits and their PDF, XLSX and DOCX reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default ./.env)")

	rootCmd.AddCommand(newServeCmd(), newGenerateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs after configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	cleanup func()
}

func setup(textLogs bool) (*app, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	if err := config.LoadDotEnv(files...); err != nil {
		return nil, err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, cleanup, err := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		Text:  textLogs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &app{cfg: cfg, logger: logger, cleanup: cleanup}, nil
}

func (a *app) checklist() (*checklist.Checklist, error) {
	set, err := checklist.Load(a.cfg.ChecklistPath)
	if err != nil {
		return nil, err
	}
	return set.Get(a.cfg.ChecklistName)
}

func (a *app) photoStore(cmd *cobra.Command) (photostore.PhotoStore, error) {
	switch a.cfg.PhotoBackend {
	case "s3":
		a.logger.Info("using S3 photo store", "bucket", a.cfg.PhotoS3Bucket, "prefix", a.cfg.PhotoS3Prefix)
		return s3store.NewFromEnv(cmd.Context(), a.cfg.AWSRegion, a.cfg.PhotoS3Bucket, a.cfg.PhotoS3Prefix)
	default:
		a.logger.Info("using local photo store", "path", a.cfg.PhotoPath)
		return local.NewLocalPhotoStore(a.cfg.PhotoPath)
	}
}

func (a *app) generator(ps photostore.PhotoStore) *report.Generator {
	res := resolver.New(a.logger,
		resolver.WithPhotoStore(ps),
		resolver.WithTimeout(a.cfg.PhotoFetchTimeout),
		resolver.WithAllowedHosts(a.cfg.PhotoAllowedHosts...),
	)
	return report.NewGenerator(res, a.logger)
}
