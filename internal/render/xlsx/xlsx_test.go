package xlsx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/render"
	"github.com/vbonduro/safetyaudit/internal/render/rendertest"
)

func open(t *testing.T, in *render.Input) *excelize.File {
	t.Helper()
	out, err := New(DefaultOptions()).Render(in)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestRenderSheets(t *testing.T) {
	f := open(t, rendertest.Scenario())

	assert.Equal(t, []string{
		"Resumen",
		"Detalle de Auditorías",
		"Evidencia Fotográfica",
		"Análisis por Pregunta",
	}, f.GetSheetList())
}

func TestRenderFormat(t *testing.T) {
	assert.Equal(t, domain.FormatXLSX, New(DefaultOptions()).Format())
}

func TestRenderDetailOneRowPerEntry(t *testing.T) {
	f := open(t, rendertest.Scenario())

	rows, err := f.GetRows("Detalle de Auditorías")
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "Área", rows[0][0])
	assert.Equal(t, "Andén", rows[1][0])
	assert.Equal(t, "Sí", rows[1][5])
	assert.Equal(t, "Almacén", rows[6][0])
}

func TestRenderSummaryChartsAnchored(t *testing.T) {
	f := open(t, rendertest.Scenario())

	v, err := f.GetCellValue("Resumen", "B5")
	require.NoError(t, err)
	assert.Equal(t, "100.0%", v)

	pics, err := f.GetPictures("Resumen", "A9")
	require.NoError(t, err)
	assert.Len(t, pics, 1)

	// 400x200 scaled to 600px wide covers 300px, fifteen 20px rows.
	pics, err = f.GetPictures("Resumen", "A26")
	require.NoError(t, err)
	assert.Len(t, pics, 1)

	h, err := f.GetRowHeight("Resumen", 10)
	require.NoError(t, err)
	assert.InDelta(t, 15, h, 0.01)
}

func TestRenderEvidenceRowHeights(t *testing.T) {
	in := rendertest.WithEvidence(rendertest.Input(
		rendertest.Audit(1, "Andén", domain.AnswerNo, domain.AnswerYes),
	), 640, 480)
	f := open(t, in)

	pics, err := f.GetPictures("Evidencia Fotográfica", "G2")
	require.NoError(t, err)
	assert.Len(t, pics, 1)

	h, err := f.GetRowHeight("Evidencia Fotográfica", 2)
	require.NoError(t, err)
	assert.InDelta(t, 112.5, h, 1)
}

func TestRenderTallPhotoIsCappedToRowLimit(t *testing.T) {
	in := rendertest.WithEvidence(rendertest.Input(
		rendertest.Audit(1, "Andén", domain.AnswerNo),
	), 100, 2000)
	f := open(t, in)

	h, err := f.GetRowHeight("Evidencia Fotográfica", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, h, float64(MaxRowHeight))
	assert.InDelta(t, MaxRowHeight, h, 1)
}

func TestRenderUnresolvedPhotoIsMarked(t *testing.T) {
	in := rendertest.Input(rendertest.Audit(1, "Andén", domain.AnswerNo))
	in.Data.Rows[0].Photo = &domain.ImageRef{URL: "https://example.com/missing.png"}

	f := open(t, in)

	v, err := f.GetCellValue("Evidencia Fotográfica", "G2")
	require.NoError(t, err)
	assert.Equal(t, "No disponible", v)

	ref, err := f.GetCellValue("Detalle de Auditorías", "H2")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/missing.png", ref)
}

func TestRenderNoEvidence(t *testing.T) {
	f := open(t, rendertest.Scenario())

	v, err := f.GetCellValue("Evidencia Fotográfica", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Sin evidencia fotográfica registrada.", v)
}

func TestRenderQuestionSheet(t *testing.T) {
	f := open(t, rendertest.Scenario())
	sheet := "Análisis por Pregunta"

	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "1. "+rendertest.Questions[0], title)

	merged, err := f.GetMergeCells(sheet)
	require.NoError(t, err)
	require.NotEmpty(t, merged)
	assert.Equal(t, "A1", merged[0].GetStartAxis())
	assert.Equal(t, "D1", merged[0].GetEndAxis())

	head, err := f.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Sí", head)

	pics, err := f.GetPictures(sheet, "A6")
	require.NoError(t, err)
	assert.Len(t, pics, 1)
}

func TestRenderQuestionWithoutData(t *testing.T) {
	f := open(t, rendertest.Input(rendertest.Audit(1, "Andén", domain.AnswerYes)))
	sheet := "Análisis por Pregunta"

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	var found bool
	for _, r := range rows {
		if len(r) > 0 && r[0] == "Sin respuestas registradas para esta pregunta." {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRenderBrokenImageIsPlaceholder(t *testing.T) {
	in := rendertest.Scenario()
	in.Charts.Area.Image = &domain.Image{Data: []byte("garbage"), Format: "png", Width: 400, Height: 200}

	f := open(t, in)

	v, err := f.GetCellValue("Resumen", "A9")
	require.NoError(t, err)
	assert.Equal(t, "Imagen no disponible", v)
}
