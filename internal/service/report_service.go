package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/safetyaudit/internal/aggregate"
	"github.com/vbonduro/safetyaudit/internal/checklist"
	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/photostore"
	"github.com/vbonduro/safetyaudit/internal/report"
	"github.com/vbonduro/safetyaudit/internal/summary"
)

// ErrInvalid wraps every input validation failure.
var ErrInvalid = errors.New("invalid input")

// ErrNoAudits is returned when archiving a cycle that has no audits.
var ErrNoAudits = errors.New("no audits to archive")

// auditRepository is the subset of store.AuditStore that ReportService requires.
type auditRepository interface {
	Create(ctx context.Context, a domain.AuditRecord) (*domain.AuditRecord, error)
	GetByID(ctx context.Context, id int64) (*domain.AuditRecord, error)
	List(ctx context.Context) ([]*domain.AuditRecord, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// snapshotRepository is the subset of store.SnapshotStore that ReportService requires.
type snapshotRepository interface {
	Create(ctx context.Context, name string, value float64) (*domain.Snapshot, error)
	List(ctx context.Context) ([]*domain.Snapshot, error)
}

type reportGenerator interface {
	Generate(ctx context.Context, req report.Request) (*report.Document, error)
}

type ReportService struct {
	audits     auditRepository
	snapshots  snapshotRepository
	photoStg   photostore.PhotoStore
	generator  reportGenerator
	summarizer summary.Summarizer
	checklist  *checklist.Checklist
	kind       string
	logger     *slog.Logger
}

// NewReportService wires the service to one active checklist. kind overrides
// the checklist's report file name prefix when set.
func NewReportService(
	audits auditRepository,
	snapshots snapshotRepository,
	photoStg photostore.PhotoStore,
	generator reportGenerator,
	summarizer summary.Summarizer,
	active *checklist.Checklist,
	kind string,
	logger *slog.Logger,
) *ReportService {
	if summarizer == nil {
		summarizer = summary.Disabled{}
	}
	if kind == "" {
		kind = active.Kind
	}
	return &ReportService{
		audits:     audits,
		snapshots:  snapshots,
		photoStg:   photoStg,
		generator:  generator,
		summarizer: summarizer,
		checklist:  active,
		kind:       kind,
		logger:     logger,
	}
}

func (s *ReportService) Checklist() *checklist.Checklist {
	return s.checklist
}

func (s *ReportService) CreateAudit(ctx context.Context, a domain.AuditRecord) (*domain.AuditRecord, error) {
	a.Auditor = strings.TrimSpace(a.Auditor)
	a.Area = strings.TrimSpace(a.Area)
	a.Date = strings.TrimSpace(a.Date)
	if err := s.validateAudit(a); err != nil {
		return nil, err
	}

	created, err := s.audits.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit: %w", err)
	}
	s.logger.Info("audit created", "audit_id", created.ID, "area", created.Area, "answers", len(created.Answers))
	return created, nil
}

func (s *ReportService) validateAudit(a domain.AuditRecord) error {
	if a.Auditor == "" {
		return fmt.Errorf("%w: auditor is required", ErrInvalid)
	}
	if a.Area == "" {
		return fmt.Errorf("%w: area is required", ErrInvalid)
	}
	if _, err := time.Parse("2006-01-02", a.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalid)
	}
	n := len(s.checklist.Questions)
	for idx, entry := range a.Answers {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: answer index %d outside checklist of %d questions", ErrInvalid, idx, n)
		}
		if entry.Answer == domain.AnswerUnset {
			return fmt.Errorf("%w: question %d has no answer", ErrInvalid, idx+1)
		}
	}
	return nil
}

func (s *ReportService) GetAudit(ctx context.Context, id int64) (*domain.AuditRecord, error) {
	return s.audits.GetByID(ctx, id)
}

func (s *ReportService) ListAudits(ctx context.Context) ([]*domain.AuditRecord, error) {
	return s.audits.List(ctx)
}

func (s *ReportService) DeleteAllAudits(ctx context.Context) (int64, error) {
	n, err := s.audits.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("audits deleted", "count", n)
	return n, nil
}

func (s *ReportService) RecordSnapshot(ctx context.Context, name string, value float64) (*domain.Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: snapshot name is required", ErrInvalid)
	}
	if value < 0 || value > 100 {
		return nil, fmt.Errorf("%w: snapshot value must be between 0 and 100", ErrInvalid)
	}
	return s.snapshots.Create(ctx, name, value)
}

func (s *ReportService) ListSnapshots(ctx context.Context) ([]*domain.Snapshot, error) {
	return s.snapshots.List(ctx)
}

// ArchiveCycle stores the average compliance of the current audits as a
// snapshot named after date, then clears the audits for the next cycle.
func (s *ReportService) ArchiveCycle(ctx context.Context, date time.Time) (*domain.Snapshot, error) {
	audits, err := s.loadAudits(ctx)
	if err != nil {
		return nil, err
	}
	if len(audits) == 0 {
		return nil, ErrNoAudits
	}

	stats := aggregate.Summarize(audits)
	snap, err := s.snapshots.Create(ctx, date.Format("2006-01-02"), stats.AverageCompliance)
	if err != nil {
		return nil, fmt.Errorf("failed to record snapshot: %w", err)
	}
	if _, err := s.audits.DeleteAll(ctx); err != nil {
		return snap, fmt.Errorf("failed to clear audits: %w", err)
	}
	s.logger.Info("cycle archived", "snapshot", snap.Name, "average_compliance", snap.Value, "audits", len(audits))
	return snap, nil
}

// UploadPhoto stores an evidence photo and returns the key audits refer to it by.
func (s *ReportService) UploadPhoto(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	s.logger.Info("upload photo started", "mime_type", mimeType, "bytes", len(imageData))

	storageKey, err := s.photoStg.Save(ctx, "evidence", mimeType, bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to save photo: %w", err)
	}
	s.logger.Debug("photo saved", "storage_key", storageKey)
	return storageKey, nil
}

func (s *ReportService) GetPhoto(ctx context.Context, storageKey string) (io.ReadCloser, string, error) {
	return s.photoStg.Get(ctx, storageKey)
}

// SummarizeAudit asks the configured backend for a Markdown summary.
func (s *ReportService) SummarizeAudit(ctx context.Context, id int64) (string, error) {
	a, err := s.audits.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	s.logger.Info("audit summary started", "audit_id", id)
	text, err := s.summarizer.Summarize(ctx, *a, s.checklist.Questions)
	if err != nil {
		return "", fmt.Errorf("failed to summarize audit %d: %w", id, err)
	}
	s.logger.Info("audit summary complete", "audit_id", id, "chars", len(text))
	return text, nil
}

type ReportRequest struct {
	Format domain.Format
	// Audits are the stored ones when nil.
	Audits  []domain.AuditRecord
	Summary *domain.Summary
	Charts  domain.ChartSet
	Date    time.Time
}

func (s *ReportService) GenerateReport(ctx context.Context, req ReportRequest) (*report.Document, error) {
	audits := req.Audits
	if audits == nil {
		var err error
		if audits, err = s.loadAudits(ctx); err != nil {
			return nil, err
		}
	}

	return s.generator.Generate(ctx, report.Request{
		Format:    req.Format,
		Audits:    audits,
		Questions: s.checklist.Questions,
		Summary:   req.Summary,
		Charts:    req.Charts,
		Kind:      s.kind,
		Date:      req.Date,
	})
}

func (s *ReportService) loadAudits(ctx context.Context) ([]domain.AuditRecord, error) {
	stored, err := s.audits.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	audits := make([]domain.AuditRecord, 0, len(stored))
	for _, a := range stored {
		audits = append(audits, *a)
	}
	return audits, nil
}
