package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/report"
)

// generateInput is the JSON document read by the generate command.
type generateInput struct {
	Audits    []domain.AuditRecord `json:"audits"`
	Questions []string             `json:"questions"`
	Summary   *domain.Summary      `json:"stats"`
	Charts    domain.ChartSet      `json:"charts"`
}

type generateCmd struct {
	format string
	input  string
	outDir string
	date   string
}

func newGenerateCmd() *cobra.Command {
	gc := &generateCmd{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Assemble one report from a JSON file of audits and charts",
		RunE:  gc.run,
	}
	cmd.Flags().StringVarP(&gc.format, "format", "f", "pdf", "Report format: pdf, xlsx or docx")
	cmd.Flags().StringVarP(&gc.input, "input", "i", "", "Path to the JSON input file")
	cmd.Flags().StringVarP(&gc.outDir, "out", "o", ".", "Directory the report is written to")
	cmd.Flags().StringVar(&gc.date, "date", "", "Report date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (gc *generateCmd) run(cmd *cobra.Command, _ []string) error {
	format, err := domain.ParseFormat(gc.format)
	if err != nil {
		return err
	}
	var date time.Time
	if gc.date != "" {
		if date, err = time.Parse("2006-01-02", gc.date); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	a, err := setup(true)
	if err != nil {
		return err
	}
	defer a.cleanup()

	raw, err := os.ReadFile(gc.input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	var in generateInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}

	active, err := a.checklist()
	if err != nil {
		return err
	}
	if len(in.Questions) == 0 {
		in.Questions = active.Questions
	}
	kind := a.cfg.ReportKind
	if kind == "" {
		kind = active.Kind
	}

	// Stored photo keys cannot resolve without a store, but URLs and inline
	// images still can.
	photoStg, err := a.photoStore(cmd)
	if err != nil {
		a.logger.Warn("photo store unavailable", "error", err)
		photoStg = nil
	}

	doc, err := a.generator(photoStg).Generate(cmd.Context(), report.Request{
		Format:    format,
		Audits:    in.Audits,
		Questions: in.Questions,
		Summary:   in.Summary,
		Charts:    in.Charts,
		Kind:      kind,
		Date:      date,
	})
	if err != nil {
		return err
	}

	path := filepath.Join(gc.outDir, doc.Name)
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	a.logger.Info("report written", "path", path, "bytes", len(doc.Data), "omitted_images", doc.Omitted)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
