// Package summary produces narrative summaries of single audits with
// prioritized recommendations.
package summary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vbonduro/safetyaudit/internal/domain"
)

// ErrDisabled is returned when no summary backend is configured.
var ErrDisabled = errors.New("audit summaries are disabled")

type Summarizer interface {
	// Summarize returns a Markdown summary of audit.
	Summarize(ctx context.Context, audit domain.AuditRecord, questions []string) (string, error)
}

// Disabled is the Summarizer used when no backend is configured.
type Disabled struct{}

func (Disabled) Summarize(context.Context, domain.AuditRecord, []string) (string, error) {
	return "", ErrDisabled
}

// promptHeader is the shared instruction used by all summary backends.
const promptHeader = `Eres un asistente de control de calidad experto. Analiza la siguiente auditoría de 5S y genera un resumen conciso y recomendaciones accionables.
El resumen debe destacar los puntos fuertes y las áreas de mejora.
Las recomendaciones deben ser específicas, claras y priorizadas, enfocadas en resolver los puntos con respuesta "No".
Formatea la respuesta en Markdown, usando encabezados, listas y negritas para una mejor legibilidad.`

// BuildPrompt renders the audit details and every answered question.
func BuildPrompt(audit domain.AuditRecord, questions []string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nDetalles de la Auditoría:\n")
	fmt.Fprintf(&b, "- Auditor: %s\n- Área: %s\n- Fecha: %s\n\nResultados:\n", audit.Auditor, audit.Area, audit.Date)

	idx := make([]int, 0, len(audit.Answers))
	for i := range audit.Answers {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	for _, i := range idx {
		entry := audit.Answers[i]
		text := fmt.Sprintf("Pregunta %d no encontrada", i+1)
		if i >= 0 && i < len(questions) {
			text = questions[i]
		}
		answer := string(entry.Answer)
		if answer == "" {
			answer = "Sin respuesta"
		}
		fmt.Fprintf(&b, "- Pregunta: %q\n  Respuesta: %s\n", text, answer)
		if entry.Observation != "" {
			fmt.Fprintf(&b, "  Observación: %s\n", entry.Observation)
		}
	}
	return b.String()
}

// Clean strips the whitespace and the enclosing code fence some models wrap
// Markdown answers in.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
