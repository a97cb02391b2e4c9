// Package report sequences one report generation: aggregate the audits,
// resolve every image in a single concurrent batch, then render and hand
// off the serialized document.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/safetyaudit/internal/aggregate"
	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/render"
	"github.com/vbonduro/safetyaudit/internal/render/docx"
	"github.com/vbonduro/safetyaudit/internal/render/pdf"
	"github.com/vbonduro/safetyaudit/internal/render/xlsx"
	"github.com/vbonduro/safetyaudit/internal/resolver"
)

// DefaultKind prefixes generated file names when the request names none.
const DefaultKind = "Reporte_Auditorias_5S"

var ErrUnknownFormat = errors.New("unknown report format")

// SerializationError is a failure of the underlying document writer.
type SerializationError struct {
	Format domain.Format
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to serialize %s report: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

type Request struct {
	Format    domain.Format
	Audits    []domain.AuditRecord
	Questions []string
	// Summary is computed from Audits when nil.
	Summary *domain.Summary
	Charts  domain.ChartSet
	Kind    string
	// Date stamps the file name and the document; zero means now.
	Date time.Time
}

// Document is a complete serialized report.
type Document struct {
	ID          string
	Name        string
	Format      domain.Format
	ContentType string
	Data        []byte
	// Omitted counts images that could not be resolved and were left out.
	Omitted int
}

// FileName returns <kind>_<YYYY-MM-DD>.<ext>.
func FileName(kind string, format domain.Format, date time.Time) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = DefaultKind
	}
	kind = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '"', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, kind)
	return fmt.Sprintf("%s_%s.%s", kind, date.Format("2006-01-02"), format.Extension())
}

// imageResolver is the subset of resolver.Resolver the generator requires.
type imageResolver interface {
	ResolveAll(ctx context.Context, refs []domain.ImageRef) []resolver.Result
}

// Observer is told about every state transition of a generation.
type Observer func(reportID string, s State)

type Generator struct {
	resolver  imageResolver
	renderers map[domain.Format]render.Renderer
	labels    render.Labels
	observer  Observer
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Generator)

// WithRenderer registers r for its format, replacing the default one.
func WithRenderer(r render.Renderer) Option {
	return func(g *Generator) {
		g.renderers[r.Format()] = r
	}
}

func WithObserver(o Observer) Option {
	return func(g *Generator) {
		g.observer = o
	}
}

func WithLabels(l render.Labels) Option {
	return func(g *Generator) {
		g.labels = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func NewGenerator(res imageResolver, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{
		resolver: res,
		renderers: map[domain.Format]render.Renderer{
			domain.FormatPDF:  pdf.New(pdf.DefaultOptions()),
			domain.FormatXLSX: xlsx.New(xlsx.DefaultOptions()),
			domain.FormatDOCX: docx.New(docx.DefaultOptions()),
		},
		labels: render.DefaultLabels(),
		now:    time.Now,
		logger: logger,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate produces one complete document or an error, never a partial
// document. Images that fail to resolve are omitted and counted.
func (g *Generator) Generate(ctx context.Context, req Request) (*Document, error) {
	run := &generation{
		id:       uuid.NewString(),
		observer: g.observer,
	}
	logger := g.logger.With("report_id", run.id, "format", string(req.Format))
	run.logger = logger

	renderer, ok := g.renderers[req.Format]
	if !ok {
		run.set(StateFailed)
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
	}

	run.set(StateAggregating)
	ds, err := aggregate.Aggregate(req.Audits, req.Questions)
	if err != nil {
		run.set(StateFailed)
		logger.Error("aggregation failed", "error", err)
		return nil, err
	}
	summary := aggregate.Summarize(req.Audits)
	if req.Summary != nil {
		summary = *req.Summary
	}

	run.set(StateResolvingImages)
	charts, omitted := g.resolveImages(ctx, logger, ds, req.Charts)

	date := req.Date
	if date.IsZero() {
		date = g.now()
	}

	run.set(StateRendering)
	data, err := renderSafely(renderer, &render.Input{
		Data:        ds,
		Summary:     summary,
		Charts:      charts,
		Labels:      g.labels,
		GeneratedAt: date,
	})
	if err != nil {
		run.set(StateFailed)
		serr := &SerializationError{Format: req.Format, Err: err}
		logger.Error("render failed", "error", err)
		return nil, serr
	}
	run.set(StateSerialized)

	doc := &Document{
		ID:          run.id,
		Name:        FileName(req.Kind, req.Format, date),
		Format:      req.Format,
		ContentType: req.Format.ContentType(),
		Data:        data,
		Omitted:     omitted,
	}
	run.set(StateDelivered)
	logger.Info("report generated",
		"name", doc.Name,
		"bytes", len(data),
		"rows", len(ds.Rows),
		"omitted_images", omitted,
	)
	return doc, nil
}

// resolveImages fetches every evidence photo and chart in one batch and
// attaches the results. It returns the resolved charts and the number of
// images that were omitted.
func (g *Generator) resolveImages(ctx context.Context, logger *slog.Logger, ds *aggregate.Dataset, set domain.ChartSet) (render.Charts, int) {
	var (
		refs    []domain.ImageRef
		attach  []func(*domain.Image)
		charts  render.Charts
		omitted int
	)
	add := func(ref *domain.ImageRef, fn func(*domain.Image)) {
		if ref == nil || ref.IsZero() {
			return
		}
		refs = append(refs, *ref)
		attach = append(attach, fn)
	}

	for _, row := range ds.PhotoRows() {
		add(row.Photo, func(img *domain.Image) { row.Evidence = img })
	}
	add(set.Area, func(img *domain.Image) {
		charts.Area = &domain.ChartImage{Name: "area", Image: img}
	})
	add(set.History, func(img *domain.Image) {
		charts.History = &domain.ChartImage{Name: "history", Image: img}
	})
	charts.Questions = make([]*domain.ChartImage, len(set.Questions))
	for i, ref := range set.Questions {
		add(ref, func(img *domain.Image) {
			charts.Questions[i] = &domain.ChartImage{Name: fmt.Sprintf("question_%d", i+1), Image: img}
		})
	}

	if len(refs) == 0 {
		return charts, 0
	}

	start := time.Now()
	results := g.resolver.ResolveAll(ctx, refs)
	for i, res := range results {
		if res.Err != nil || res.Image == nil {
			omitted++
			logger.Warn("image omitted", "ref", res.Ref.Key(), "error", res.Err)
			continue
		}
		attach[i](res.Image)
	}
	logger.Debug("images resolved",
		"count", len(refs),
		"omitted", omitted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return charts, omitted
}

// renderSafely turns a writer library panic into an error so that a broken
// document is never returned.
func renderSafely(r render.Renderer, in *render.Input) (data []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			data = nil
			err = fmt.Errorf("renderer panic: %v", p)
		}
	}()
	data, err = r.Render(in)
	if err == nil && len(data) == 0 {
		err = errors.New("renderer produced no output")
	}
	return data, err
}
