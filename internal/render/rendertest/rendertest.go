// Package rendertest builds fixtures for renderer tests.
package rendertest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"time"

	"github.com/vbonduro/safetyaudit/internal/aggregate"
	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/render"
)

var Questions = []string{
	"¿El pasillo peatonal se encuentra libre de obstáculos?",
	"¿Los extintores se encuentran libres de obstáculos y señalizados?",
	"¿Los señalamientos de seguridad son visibles y legibles?",
}

// PNG returns an encoded solid-colour image of the given size.
func PNG(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Image returns a decoded PNG image of the given size.
func Image(w, h int) *domain.Image {
	return &domain.Image{Data: PNG(w, h), Format: "png", Width: w, Height: h}
}

func Chart(name string, w, h int) *domain.ChartImage {
	return &domain.ChartImage{Name: name, Image: Image(w, h)}
}

// Audit builds an audit answering questions in order.
func Audit(id int64, area string, answers ...domain.Answer) domain.AuditRecord {
	a := domain.AuditRecord{
		ID:      id,
		Auditor: "Ana López",
		Area:    area,
		Date:    "2026-10-01",
		Answers: map[int]domain.AnswerEntry{},
	}
	for i, ans := range answers {
		a.Answers[i] = domain.AnswerEntry{Answer: ans}
	}
	return a
}

// Input aggregates audits against Questions and attaches full chart coverage.
func Input(audits ...domain.AuditRecord) *render.Input {
	ds, err := aggregate.Aggregate(audits, Questions)
	if err != nil {
		panic(err)
	}
	charts := render.Charts{
		Area:    Chart("area", 400, 200),
		History: Chart("history", 400, 200),
	}
	for i := range Questions {
		charts.Questions = append(charts.Questions, Chart(fmt.Sprintf("q%d", i), 300, 150))
	}
	return &render.Input{
		Data:        ds,
		Summary:     aggregate.Summarize(audits),
		Charts:      charts,
		Labels:      render.DefaultLabels(),
		GeneratedAt: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
	}
}

// Scenario is two audits over two areas answering all three questions.
func Scenario() *render.Input {
	return Input(
		Audit(1, "Andén", domain.AnswerYes, domain.AnswerNotApplicable, domain.AnswerYes),
		Audit(2, "Almacén", domain.AnswerYes, domain.AnswerYes, domain.AnswerNotApplicable),
	)
}

// WithEvidence attaches a resolved photo to every No answer row.
func WithEvidence(in *render.Input, w, h int) *render.Input {
	for _, row := range in.Data.Rows {
		if row.Answer == domain.AnswerNo {
			row.Photo = &domain.ImageRef{URL: fmt.Sprintf("photo-%d-%d.png", row.AuditID, row.Question)}
			row.Evidence = Image(w, h)
		}
	}
	return in
}
