// Package render defines the contract shared by the three document
// renderers. Each renderer is a single sequential pass over the dataset.
package render

import (
	"fmt"
	"time"

	"github.com/vbonduro/safetyaudit/internal/aggregate"
	"github.com/vbonduro/safetyaudit/internal/domain"
)

// Input is everything a renderer needs. All images have been resolved
// before rendering starts; a nil image means it is omitted.
type Input struct {
	Data        *aggregate.Dataset
	Summary     domain.Summary
	Charts      Charts
	Labels      Labels
	GeneratedAt time.Time
}

type Charts struct {
	Area    *domain.ChartImage
	History *domain.ChartImage
	// Questions is indexed by question position.
	Questions []*domain.ChartImage
}

// Question returns the chart for question idx, or nil.
func (c Charts) Question(idx int) *domain.ChartImage {
	if idx < 0 || idx >= len(c.Questions) {
		return nil
	}
	return c.Questions[idx]
}

type Renderer interface {
	Format() domain.Format
	Render(in *Input) ([]byte, error)
}

// Labels are the user-facing strings printed in every format.
type Labels struct {
	Title             string
	SummaryHeading    string
	AverageCompliance string
	LowestArea        string
	AreaChart         string
	HistoryChart      string
	AreaDetail        string // formatted with the area name
	QuestionAnalysis  string
	Evidence          string
	Question          string
	QuestionNumber    string
	Answer            string
	Observation       string
	Area              string
	Date              string
	Auditor           string
	Photo             string
	Yes               string
	No                string
	NotApplicable     string
	NoData            string
	Unavailable       string
	NotAvailable      string
	NoEvidence        string
	GeneratedAt       string
	Summary           string
	Detail            string
}

func DefaultLabels() Labels {
	return Labels{
		Title:             "Reporte de Auditorías 5S",
		SummaryHeading:    "Resumen del Ciclo",
		AverageCompliance: "Cumplimiento Promedio",
		LowestArea:        "Área con Menor Cumplimiento",
		AreaChart:         "Cumplimiento por Área",
		HistoryChart:      "Histórico de Cumplimiento",
		AreaDetail:        "Detalle para el Área: %s",
		QuestionAnalysis:  "Análisis por Pregunta",
		Evidence:          "Evidencia Fotográfica",
		Question:          "Pregunta",
		QuestionNumber:    "N° Pregunta",
		Answer:            "Respuesta",
		Observation:       "Observación",
		Area:              "Área",
		Date:              "Fecha",
		Auditor:           "Auditor",
		Photo:             "Foto",
		Yes:               "Sí",
		No:                "No",
		NotApplicable:     "N/A",
		NoData:            "Sin respuestas registradas para esta pregunta.",
		Unavailable:       "Imagen no disponible",
		NotAvailable:      "No disponible",
		NoEvidence:        "Sin evidencia fotográfica registrada.",
		GeneratedAt:       "Generado",
		Summary:           "Resumen",
		Detail:            "Detalle de Auditorías",
	}
}

// AreaHeading formats the per-area section title.
func (l Labels) AreaHeading(area string) string {
	return fmt.Sprintf(l.AreaDetail, area)
}

// AnswerText is the printed form of an answer. Unanswered questions print as
// not applicable.
func (l Labels) AnswerText(a domain.Answer) string {
	switch a {
	case domain.AnswerYes:
		return l.Yes
	case domain.AnswerNo:
		return l.No
	default:
		return l.NotApplicable
	}
}

// AverageText formats the average compliance percentage.
func AverageText(s domain.Summary) string {
	return fmt.Sprintf("%.1f%%", s.AverageCompliance)
}

// IsEvidence reports whether a row's photo belongs in the per-area evidence
// listing of the paginated formats: a No answer carrying a photo.
func IsEvidence(r *aggregate.Row) bool {
	return r.Answer == domain.AnswerNo && r.HasPhoto()
}
