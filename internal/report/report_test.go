package report

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/safetyaudit/internal/aggregate"
	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/render"
	"github.com/vbonduro/safetyaudit/internal/render/rendertest"
	"github.com/vbonduro/safetyaudit/internal/resolver"
)

// recordingRenderer captures its input and returns a fixed blob or error.
type recordingRenderer struct {
	format domain.Format
	in     *render.Input
	err    error
	panics bool
}

func (r *recordingRenderer) Format() domain.Format { return r.format }

func (r *recordingRenderer) Render(in *render.Input) ([]byte, error) {
	r.in = in
	if r.panics {
		panic("writer exploded")
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte("blob"), nil
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	png := rendertest.PNG(64, 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGenerator(opts ...Option) *Generator {
	return NewGenerator(resolver.New(slog.Default(), resolver.WithAllowedHosts("127.0.0.1")), slog.Default(), opts...)
}

func scenarioRequest(format domain.Format) Request {
	return Request{
		Format: format,
		Audits: []domain.AuditRecord{
			rendertest.Audit(1, "Andén", domain.AnswerYes, domain.AnswerNotApplicable, domain.AnswerYes),
			rendertest.Audit(2, "Almacén", domain.AnswerYes, domain.AnswerYes, domain.AnswerNotApplicable),
		},
		Questions: rendertest.Questions,
		Date:      time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerateAllFormats(t *testing.T) {
	signatures := map[domain.Format][]byte{
		domain.FormatPDF:  []byte("%PDF-"),
		domain.FormatXLSX: []byte("PK"),
		domain.FormatDOCX: []byte("PK"),
	}
	for format, sig := range signatures {
		t.Run(string(format), func(t *testing.T) {
			doc, err := newTestGenerator().Generate(context.Background(), scenarioRequest(format))
			require.NoError(t, err)

			assert.True(t, bytes.HasPrefix(doc.Data, sig))
			assert.Equal(t, "Reporte_Auditorias_5S_2026-10-14."+string(format), doc.Name)
			assert.Equal(t, format.ContentType(), doc.ContentType)
			assert.NotEmpty(t, doc.ID)
			assert.Zero(t, doc.Omitted)
		})
	}
}

func TestGenerateStateSequence(t *testing.T) {
	var states []State
	g := newTestGenerator(WithObserver(func(_ string, s State) { states = append(states, s) }))

	_, err := g.Generate(context.Background(), scenarioRequest(domain.FormatDOCX))
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateAggregating,
		StateResolvingImages,
		StateRendering,
		StateSerialized,
		StateDelivered,
	}, states)
}

func TestGenerateMissingPhotoIsOmitted(t *testing.T) {
	srv := imageServer(t)
	fake := &recordingRenderer{format: domain.FormatPDF}
	g := newTestGenerator(WithRenderer(fake))

	req := scenarioRequest(domain.FormatPDF)
	req.Audits = append(req.Audits, domain.AuditRecord{
		ID: 3, Auditor: "Luis", Area: "Andén", Date: "2026-10-02",
		Answers: map[int]domain.AnswerEntry{
			0: {Answer: domain.AnswerNo, Photo: &domain.ImageRef{URL: srv.URL + "/missing.png"}},
			1: {Answer: domain.AnswerNo, Photo: &domain.ImageRef{URL: srv.URL + "/ok.png"}},
		},
	})
	req.Charts = domain.ChartSet{Area: &domain.ImageRef{URL: srv.URL + "/area.png"}}

	doc, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Omitted)

	rows := fake.in.Data.PhotoRows()
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].Evidence)
	require.NotNil(t, rows[1].Evidence)
	assert.Equal(t, 64, rows[1].Evidence.Width)
	assert.Len(t, fake.in.Data.Rows, 8)

	require.NotNil(t, fake.in.Charts.Area)
	assert.Equal(t, "area", fake.in.Charts.Area.Name)
	assert.Nil(t, fake.in.Charts.History)
}

func TestGenerateMissingPhotoStillRendersEveryFormat(t *testing.T) {
	srv := imageServer(t)
	for _, format := range []domain.Format{domain.FormatPDF, domain.FormatXLSX, domain.FormatDOCX} {
		req := scenarioRequest(format)
		req.Audits[0].Answers[1] = domain.AnswerEntry{
			Answer: domain.AnswerNo,
			Photo:  &domain.ImageRef{URL: srv.URL + "/missing.png"},
		}
		doc, err := newTestGenerator().Generate(context.Background(), req)
		require.NoError(t, err, format)
		assert.NotEmpty(t, doc.Data)
		assert.Equal(t, 1, doc.Omitted)
	}
}

func TestGenerateQuestionCharts(t *testing.T) {
	srv := imageServer(t)
	fake := &recordingRenderer{format: domain.FormatXLSX}
	req := scenarioRequest(domain.FormatXLSX)
	req.Charts.Questions = []*domain.ImageRef{nil, {URL: srv.URL + "/q2.png"}}

	_, err := newTestGenerator(WithRenderer(fake)).Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, fake.in.Charts.Question(0))
	require.NotNil(t, fake.in.Charts.Question(1))
	assert.Equal(t, "question_2", fake.in.Charts.Question(1).Name)
	assert.Nil(t, fake.in.Charts.Question(2))
}

func TestGenerateUsesSuppliedSummary(t *testing.T) {
	fake := &recordingRenderer{format: domain.FormatPDF}
	req := scenarioRequest(domain.FormatPDF)
	req.Summary = &domain.Summary{AverageCompliance: 42.5, LowestComplianceArea: "Patio"}

	_, err := newTestGenerator(WithRenderer(fake)).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, *req.Summary, fake.in.Summary)
}

func TestGenerateComputesSummary(t *testing.T) {
	fake := &recordingRenderer{format: domain.FormatPDF}
	_, err := newTestGenerator(WithRenderer(fake)).Generate(context.Background(), scenarioRequest(domain.FormatPDF))
	require.NoError(t, err)
	assert.InDelta(t, 100, fake.in.Summary.AverageCompliance, 0.001)
}

func TestGenerateUnknownFormat(t *testing.T) {
	var states []State
	g := newTestGenerator(WithObserver(func(_ string, s State) { states = append(states, s) }))

	doc, err := g.Generate(context.Background(), scenarioRequest("odt"))
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, []State{StateFailed}, states)
}

func TestGenerateAggregationErrorIsFatal(t *testing.T) {
	var last State
	g := newTestGenerator(WithObserver(func(_ string, s State) { last = s }))
	req := scenarioRequest(domain.FormatPDF)
	req.Audits[1].Area = "  "

	doc, err := g.Generate(context.Background(), req)
	assert.Nil(t, doc)
	var aerr *aggregate.AggregationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.Index)
	assert.Equal(t, StateFailed, last)
}

func TestGenerateSerializationError(t *testing.T) {
	cause := errors.New("disk full")
	fake := &recordingRenderer{format: domain.FormatXLSX, err: cause}

	doc, err := newTestGenerator(WithRenderer(fake)).Generate(context.Background(), scenarioRequest(domain.FormatXLSX))
	assert.Nil(t, doc)
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, domain.FormatXLSX, serr.Format)
	assert.ErrorIs(t, err, cause)
}

func TestGenerateRendererPanicIsSerializationError(t *testing.T) {
	fake := &recordingRenderer{format: domain.FormatDOCX, panics: true}

	doc, err := newTestGenerator(WithRenderer(fake)).Generate(context.Background(), scenarioRequest(domain.FormatDOCX))
	assert.Nil(t, doc)
	var serr *SerializationError
	assert.ErrorAs(t, err, &serr)
}

func TestGenerateFreshIDPerCall(t *testing.T) {
	g := newTestGenerator()
	a, err := g.Generate(context.Background(), scenarioRequest(domain.FormatDOCX))
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), scenarioRequest(domain.FormatDOCX))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestGenerateDefaultsDateToClock(t *testing.T) {
	fixed := time.Date(2026, 3, 9, 18, 30, 0, 0, time.UTC)
	req := scenarioRequest(domain.FormatDOCX)
	req.Date = time.Time{}
	req.Kind = "Auditoria Extintores"

	doc, err := newTestGenerator(WithClock(func() time.Time { return fixed })).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Auditoria_Extintores_2026-03-09.docx", doc.Name)
}

func TestFileNameIsDeterministic(t *testing.T) {
	date := time.Date(2026, 1, 2, 23, 59, 0, 0, time.UTC)
	cases := []struct {
		kind   string
		format domain.Format
		want   string
	}{
		{"", domain.FormatPDF, "Reporte_Auditorias_5S_2026-01-02.pdf"},
		{"Inspeccion", domain.FormatXLSX, "Inspeccion_2026-01-02.xlsx"},
		{"a/b", domain.FormatDOCX, "a_b_2026-01-02.docx"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FileName(tc.kind, tc.format, date))
		assert.Equal(t, FileName(tc.kind, tc.format, date), FileName(tc.kind, tc.format, date))
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "resolving_images", StateResolvingImages.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateRendering.Terminal())
}
