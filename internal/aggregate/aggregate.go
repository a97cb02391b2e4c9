// Package aggregate flattens completed audits into the shapes the report
// renderers consume.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vbonduro/safetyaudit/internal/domain"
)

// Row is one (audit, question) pair.
type Row struct {
	Seq         int // position in Dataset.Rows
	AuditID     int64
	Area        string
	Date        string
	Auditor     string
	Question    int // 1-based
	Text        string
	Answer      domain.Answer
	Observation string
	Photo       *domain.ImageRef

	// Evidence is filled in after image resolution; nil when the row has no
	// photo or the photo could not be resolved.
	Evidence *domain.Image
}

// Label is the numbered question text used in tables.
func (r *Row) Label() string {
	return fmt.Sprintf("%d. %s", r.Question, r.Text)
}

// HasPhoto reports whether the row carries a photo reference.
func (r *Row) HasPhoto() bool {
	return r.Photo != nil && !r.Photo.IsZero()
}

type AreaGroup struct {
	Area string
	Rows []*Row
}

// Counts tallies answers for one area.
type Counts struct {
	Yes           int
	No            int
	NotApplicable int
}

func (c Counts) Total() int { return c.Yes + c.No + c.NotApplicable }

func (c *Counts) add(a domain.Answer) {
	switch a {
	case domain.AnswerYes:
		c.Yes++
	case domain.AnswerNo:
		c.No++
	case domain.AnswerNotApplicable:
		c.NotApplicable++
	}
}

type AreaCounts struct {
	Area   string
	Counts Counts
}

// QuestionStat is the per-area tally for one declared question.
type QuestionStat struct {
	Index int // 0-based position in the question list
	Label string
	Stats []AreaCounts
}

type Dataset struct {
	Rows      []*Row
	Areas     []*AreaGroup
	Questions []*QuestionStat
}

// SortedAreas returns the area groups ordered by name for display.
func (d *Dataset) SortedAreas() []*AreaGroup {
	out := make([]*AreaGroup, len(d.Areas))
	copy(out, d.Areas)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Area < out[j].Area })
	return out
}

// PhotoRows returns the rows that carry a photo reference, in row order.
func (d *Dataset) PhotoRows() []*Row {
	var out []*Row
	for _, r := range d.Rows {
		if r.HasPhoto() {
			out = append(out, r)
		}
	}
	return out
}

// AggregationError reports a malformed audit record. It is fatal to the
// report being assembled.
type AggregationError struct {
	AuditID int64
	Index   int
	Reason  string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("audit #%d (position %d): %s", e.AuditID, e.Index, e.Reason)
}

// PlaceholderLabel is the text used for answers whose index is not in the
// question list.
func PlaceholderLabel(index int) string {
	return fmt.Sprintf("Pregunta %d no encontrada", index+1)
}

// Aggregate builds the report dataset. Audits and questions keep their
// source order; answer indices are visited in ascending order.
func Aggregate(audits []domain.AuditRecord, questions []string) (*Dataset, error) {
	ds := &Dataset{}
	groups := map[string]*AreaGroup{}

	// tally[question][area], with per-question area order kept separately
	tally := map[int]map[string]*Counts{}
	tallyOrder := map[int][]string{}

	for i, audit := range audits {
		area := strings.TrimSpace(audit.Area)
		if area == "" {
			return nil, &AggregationError{AuditID: audit.ID, Index: i, Reason: "missing area"}
		}

		group, ok := groups[area]
		if !ok {
			group = &AreaGroup{Area: area}
			groups[area] = group
			ds.Areas = append(ds.Areas, group)
		}

		for _, idx := range sortedIndices(audit.Answers) {
			entry := audit.Answers[idx]

			text := PlaceholderLabel(idx)
			if idx >= 0 && idx < len(questions) {
				text = questions[idx]
			}

			row := &Row{
				Seq:         len(ds.Rows),
				AuditID:     audit.ID,
				Area:        area,
				Date:        audit.Date,
				Auditor:     audit.Auditor,
				Question:    idx + 1,
				Text:        text,
				Answer:      entry.Answer,
				Observation: entry.Observation,
				Photo:       entry.Photo,
			}
			ds.Rows = append(ds.Rows, row)
			group.Rows = append(group.Rows, row)

			byArea, ok := tally[idx]
			if !ok {
				byArea = map[string]*Counts{}
				tally[idx] = byArea
			}
			counts, ok := byArea[area]
			if !ok {
				counts = &Counts{}
				byArea[area] = counts
				tallyOrder[idx] = append(tallyOrder[idx], area)
			}
			counts.add(entry.Answer)
		}
	}

	ds.Questions = make([]*QuestionStat, 0, len(questions))
	for idx, text := range questions {
		qs := &QuestionStat{
			Index: idx,
			Label: fmt.Sprintf("%d. %s", idx+1, text),
			Stats: []AreaCounts{},
		}
		for _, area := range tallyOrder[idx] {
			qs.Stats = append(qs.Stats, AreaCounts{Area: area, Counts: *tally[idx][area]})
		}
		ds.Questions = append(ds.Questions, qs)
	}

	return ds, nil
}

func sortedIndices(answers map[int]domain.AnswerEntry) []int {
	idx := make([]int, 0, len(answers))
	for k := range answers {
		idx = append(idx, k)
	}
	sort.Ints(idx)
	return idx
}
