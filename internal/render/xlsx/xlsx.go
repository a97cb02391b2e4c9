// Package xlsx renders reports as a workbook where images are anchored to
// cells and the layout unit is the row.
package xlsx

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vbonduro/safetyaudit/internal/aggregate"
	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/layout"
	"github.com/vbonduro/safetyaudit/internal/render"
)

// MaxRowHeight is the largest row height a worksheet accepts, in points.
const MaxRowHeight = 409

// Options are the workbook's visual constants. Pixel sizes are the target
// on-screen widths of anchored images.
type Options struct {
	ChartWidth         float64 // px
	QuestionChartWidth float64 // px
	PhotoWidth         float64 // px
	RowUnit            float64 // px, height of a default row
	PxToPt             float64
}

func DefaultOptions() Options {
	return Options{
		ChartWidth:         600,
		QuestionChartWidth: 480,
		PhotoWidth:         200,
		RowUnit:            20,
		PxToPt:             0.75,
	}
}

type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

func (r *Renderer) Format() domain.Format { return domain.FormatXLSX }

func (r *Renderer) Render(in *render.Input) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	b := &book{f: f, opts: r.opts, labels: in.Labels}
	if err := b.initStyles(); err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", in.Labels.Summary); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, name := range []string{in.Labels.Detail, in.Labels.Evidence, in.Labels.QuestionAnalysis} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
	}

	steps := []func(*render.Input) error{
		b.writeSummary,
		b.writeDetail,
		b.writeEvidence,
		b.writeQuestions,
	}
	for _, step := range steps {
		if err := step(in); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type book struct {
	f      *excelize.File
	opts   Options
	labels render.Labels

	title  int
	bold   int
	header int
	wrap   int
}

func (b *book) initStyles() error {
	var err error
	if b.title, err = b.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	}); err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	if b.bold, err = b.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	}); err != nil {
		return fmt.Errorf("failed to create bold style: %w", err)
	}
	if b.header, err = b.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#475569"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if b.wrap, err = b.f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	}); err != nil {
		return fmt.Errorf("failed to create wrap style: %w", err)
	}
	return nil
}

func (b *book) writeSummary(in *render.Input) error {
	sheet := b.labels.Summary
	l := b.labels
	if err := b.f.SetColWidth(sheet, "A", "A", 34); err != nil {
		return fmt.Errorf("failed to size summary columns: %w", err)
	}
	if err := b.f.SetColWidth(sheet, "B", "B", 28); err != nil {
		return fmt.Errorf("failed to size summary columns: %w", err)
	}

	cells := []struct {
		cell  string
		value any
		style int
	}{
		{"A1", l.Title, b.title},
		{"A2", fmt.Sprintf("%s: %s", l.GeneratedAt, in.GeneratedAt.Format("2006-01-02")), 0},
		{"A4", l.SummaryHeading, b.bold},
		{"A5", l.AverageCompliance, 0},
		{"B5", render.AverageText(in.Summary), 0},
		{"A6", l.LowestArea, 0},
		{"B6", in.Summary.LowestComplianceArea, 0},
	}
	for _, c := range cells {
		if err := b.set(sheet, c.cell, c.value, c.style); err != nil {
			return err
		}
	}
	if err := b.f.MergeCell(sheet, "A1", "D1"); err != nil {
		return fmt.Errorf("failed to merge title: %w", err)
	}

	row := 8
	for _, c := range []struct {
		caption string
		chart   *domain.ChartImage
	}{
		{l.AreaChart, in.Charts.Area},
		{l.HistoryChart, in.Charts.History},
	} {
		if c.chart == nil || c.chart.Image == nil {
			continue
		}
		if err := b.set(sheet, cell(1, row), c.caption, b.bold); err != nil {
			return err
		}
		next, err := b.anchor(sheet, 1, row+1, c.chart.Image, b.opts.ChartWidth)
		if err != nil {
			return err
		}
		row = next + 1
	}
	return nil
}

func (b *book) writeDetail(in *render.Input) error {
	sheet := b.labels.Detail
	l := b.labels
	headers := []string{l.Area, l.Date, l.Auditor, l.QuestionNumber, l.Question, l.Answer, l.Observation, l.Photo}
	widths := []float64{18, 12, 18, 12, 50, 12, 40, 28}
	if err := b.headerRow(sheet, headers, widths); err != nil {
		return err
	}

	for i, r := range in.Data.Rows {
		row := i + 2
		values := []any{r.Area, r.Date, r.Auditor, r.Question, r.Text, l.AnswerText(r.Answer), r.Observation, b.photoCell(r)}
		for col, v := range values {
			if err := b.f.SetCellValue(sheet, cell(col+1, row), v); err != nil {
				return fmt.Errorf("failed to write detail row %d: %w", row, err)
			}
		}
		if err := b.f.SetCellStyle(sheet, cell(1, row), cell(len(values), row), b.wrap); err != nil {
			return fmt.Errorf("failed to style detail row %d: %w", row, err)
		}
	}
	return nil
}

// photoCell is the printed photo reference of a row. Inline images have no
// printable reference, only their presence.
func (b *book) photoCell(r *aggregate.Row) string {
	if !r.HasPhoto() {
		return ""
	}
	if len(r.Photo.Data) > 0 || strings.HasPrefix(r.Photo.URL, "data:") {
		return b.labels.Yes
	}
	return r.Photo.URL
}

func (b *book) writeEvidence(in *render.Input) error {
	sheet := b.labels.Evidence
	l := b.labels
	headers := []string{l.Area, l.Date, l.Auditor, l.Question, l.Answer, l.Observation, l.Photo}
	widths := []float64{18, 12, 18, 45, 12, 35, b.opts.PhotoWidth/7 + 2}
	if err := b.headerRow(sheet, headers, widths); err != nil {
		return err
	}

	rows := in.Data.PhotoRows()
	if len(rows) == 0 {
		return b.set(sheet, "A2", l.NoEvidence, 0)
	}

	photoCol := len(headers)
	for i, r := range rows {
		row := i + 2
		values := []any{r.Area, r.Date, r.Auditor, r.Label(), l.AnswerText(r.Answer), r.Observation}
		for col, v := range values {
			if err := b.f.SetCellValue(sheet, cell(col+1, row), v); err != nil {
				return fmt.Errorf("failed to write evidence row %d: %w", row, err)
			}
		}
		if err := b.f.SetCellStyle(sheet, cell(1, row), cell(photoCol, row), b.wrap); err != nil {
			return fmt.Errorf("failed to style evidence row %d: %w", row, err)
		}

		if r.Evidence == nil {
			if err := b.set(sheet, cell(photoCol, row), l.NotAvailable, 0); err != nil {
				return err
			}
			continue
		}

		size := b.fit(layout.Scale(r.Evidence.Width, r.Evidence.Height, b.opts.PhotoWidth))
		if !b.picture(sheet, cell(photoCol, row), r.Evidence, size) {
			if err := b.set(sheet, cell(photoCol, row), l.NotAvailable, 0); err != nil {
				return err
			}
			continue
		}
		if err := b.f.SetRowHeight(sheet, row, min(size.Height*b.opts.PxToPt, MaxRowHeight)); err != nil {
			return fmt.Errorf("failed to size evidence row %d: %w", row, err)
		}
	}
	return nil
}

func (b *book) writeQuestions(in *render.Input) error {
	sheet := b.labels.QuestionAnalysis
	l := b.labels
	if err := b.f.SetColWidth(sheet, "A", "A", 30); err != nil {
		return fmt.Errorf("failed to size question columns: %w", err)
	}
	if err := b.f.SetColWidth(sheet, "B", "D", 12); err != nil {
		return fmt.Errorf("failed to size question columns: %w", err)
	}

	row := 1
	for _, q := range in.Data.Questions {
		if err := b.set(sheet, cell(1, row), q.Label, b.bold); err != nil {
			return err
		}
		if err := b.f.MergeCell(sheet, cell(1, row), cell(4, row)); err != nil {
			return fmt.Errorf("failed to merge question title: %w", err)
		}
		if err := b.f.SetRowHeight(sheet, row, 30); err != nil {
			return fmt.Errorf("failed to size question title: %w", err)
		}
		row++

		if len(q.Stats) == 0 {
			if err := b.set(sheet, cell(1, row), l.NoData, 0); err != nil {
				return err
			}
			row++
		} else {
			for col, h := range []string{l.Area, l.Yes, l.No, l.NotApplicable} {
				if err := b.set(sheet, cell(col+1, row), h, b.header); err != nil {
					return err
				}
			}
			row++
			for _, s := range q.Stats {
				values := []any{s.Area, s.Counts.Yes, s.Counts.No, s.Counts.NotApplicable}
				for col, v := range values {
					if err := b.f.SetCellValue(sheet, cell(col+1, row), v); err != nil {
						return fmt.Errorf("failed to write question stats: %w", err)
					}
				}
				row++
			}
		}

		if chart := in.Charts.Question(q.Index); chart != nil && chart.Image != nil {
			next, err := b.anchor(sheet, 1, row+1, chart.Image, b.opts.QuestionChartWidth)
			if err != nil {
				return err
			}
			row = next
		}
		row += 2
	}
	return nil
}

func (b *book) headerRow(sheet string, headers []string, widths []float64) error {
	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("invalid column %d: %w", i+1, err)
		}
		if err := b.f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
		if err := b.set(sheet, col+"1", h, b.header); err != nil {
			return err
		}
	}
	return nil
}

// anchor places img at (col, row), gives the rows it covers an explicit
// height and returns the first row after the image.
func (b *book) anchor(sheet string, col, row int, img *domain.Image, width float64) (int, error) {
	size := layout.Scale(img.Width, img.Height, width)
	if !b.picture(sheet, cell(col, row), img, size) {
		if err := b.set(sheet, cell(col, row), b.labels.Unavailable, 0); err != nil {
			return 0, err
		}
		return row + 1, nil
	}
	span := layout.RowSpan(size.Height, b.opts.RowUnit)
	for r := row; r < row+span; r++ {
		if err := b.f.SetRowHeight(sheet, r, b.opts.RowUnit*b.opts.PxToPt); err != nil {
			return 0, fmt.Errorf("failed to size row %d: %w", r, err)
		}
	}
	return row + span, nil
}

// picture embeds img scaled to size. It reports false when the workbook
// cannot embed the image; the caller prints a placeholder instead.
func (b *book) picture(sheet, at string, img *domain.Image, size layout.Size) bool {
	if img.Width <= 0 || img.Height <= 0 {
		return false
	}
	err := b.f.AddPictureFromBytes(sheet, at, &excelize.Picture{
		Extension: extension(img.Format),
		File:      img.Data,
		Format: &excelize.GraphicOptions{
			ScaleX:          size.Width / float64(img.Width),
			ScaleY:          size.Height / float64(img.Height),
			OffsetX:         2,
			OffsetY:         2,
			LockAspectRatio: true,
			Positioning:     "oneCell",
		},
	})
	return err == nil
}

// fit shrinks size so that its row stays under the worksheet height limit.
func (b *book) fit(size layout.Size) layout.Size {
	return layout.FitHeight(size, MaxRowHeight/b.opts.PxToPt)
}

func (b *book) set(sheet, at string, value any, style int) error {
	if err := b.f.SetCellValue(sheet, at, value); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, at, err)
	}
	if style == 0 {
		return nil
	}
	if err := b.f.SetCellStyle(sheet, at, at, style); err != nil {
		return fmt.Errorf("failed to style %s!%s: %w", sheet, at, err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func extension(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return ".jpg"
	case "gif":
		return ".gif"
	default:
		return ".png"
	}
}
