package aggregate

import (
	"strings"

	"github.com/vbonduro/safetyaudit/internal/domain"
)

// Compliance is the share of Sí answers among Sí/No answers, as a
// percentage. An audit with no Sí/No answers counts as fully compliant.
func Compliance(answers map[int]domain.AnswerEntry) float64 {
	var yes, relevant int
	for _, a := range answers {
		switch a.Answer {
		case domain.AnswerYes:
			yes++
			relevant++
		case domain.AnswerNo:
			relevant++
		}
	}
	if relevant == 0 {
		return 100
	}
	return float64(yes) / float64(relevant) * 100
}

// Summarize computes the headline statistics: the mean compliance over all
// audits and the area whose mean compliance is lowest. Ties keep the area
// seen first.
func Summarize(audits []domain.AuditRecord) domain.Summary {
	if len(audits) == 0 {
		return domain.Summary{LowestComplianceArea: "N/A"}
	}

	type acc struct {
		total float64
		count int
	}
	byArea := map[string]*acc{}
	var order []string
	var total float64

	for _, a := range audits {
		c := Compliance(a.Answers)
		total += c
		area := strings.TrimSpace(a.Area)
		v, ok := byArea[area]
		if !ok {
			v = &acc{}
			byArea[area] = v
			order = append(order, area)
		}
		v.total += c
		v.count++
	}

	lowest, lowestArea := 101.0, "N/A"
	for _, area := range order {
		avg := byArea[area].total / float64(byArea[area].count)
		if avg < lowest {
			lowest = avg
			lowestArea = area
		}
	}

	return domain.Summary{
		AverageCompliance:    total / float64(len(audits)),
		LowestComplianceArea: lowestArea,
	}
}
