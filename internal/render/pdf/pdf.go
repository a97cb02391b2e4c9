// Package pdf renders reports onto a paginated, absolute-position canvas.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/vbonduro/safetyaudit/internal/aggregate"
	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/layout"
	"github.com/vbonduro/safetyaudit/internal/render"
)

// Options are the page geometry and the visual constants of the report.
// Sizes are in millimetres. The image widths are cosmetic choices, not
// derived values.
type Options struct {
	PageSize           string
	Margin             float64
	Top                float64
	BottomLimit        float64 // distance from the page top where content must end
	ChartWidth         float64
	ChartMaxHeight     float64 // keeps both title page charts on the first page
	QuestionChartWidth float64
	PhotoWidth         float64
	LineHeight         float64
	CellPadding        float64
	FontFamily         string
}

func DefaultOptions() Options {
	return Options{
		PageSize:           "A4",
		Margin:             15,
		Top:                20,
		BottomLimit:        280,
		ChartWidth:         180,
		ChartMaxHeight:     90,
		QuestionChartWidth: 150,
		PhotoWidth:         70,
		LineHeight:         4,
		CellPadding:        1.5,
		FontFamily:         "Helvetica",
	}
}

var (
	colorHeader     = [3]int{71, 85, 105}
	colorStatHeader = [3]int{100, 116, 139}
	colorStripe     = [3]int{241, 245, 249}
	colorText       = [3]int{30, 41, 59}
	colorMuted      = [3]int{100, 116, 139}
)

type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

func (r *Renderer) Format() domain.Format { return domain.FormatPDF }

func (r *Renderer) Render(in *render.Input) ([]byte, error) {
	doc := fpdf.New("P", "mm", r.opts.PageSize, "")
	doc.SetMargins(r.opts.Margin, r.opts.Top, r.opts.Margin)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCellMargin(0)
	doc.AliasNbPages("")

	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(tr(in.Labels.Title), false)
	doc.SetCreator("safetyaudit", false)

	pageW, pageH := doc.GetPageSize()
	w := &writer{
		doc:    doc,
		tr:     tr,
		opts:   r.opts,
		labels: in.Labels,
		width:  pageW - 2*r.opts.Margin,
	}
	w.cursor = layout.NewCursor(r.opts.Top, r.opts.BottomLimit, doc.AddPage)

	doc.SetFooterFunc(func() {
		doc.SetY(pageH - 10)
		doc.SetFont(r.opts.FontFamily, "", 8)
		doc.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
		doc.CellFormat(0, 5, fmt.Sprintf("%d / {nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	doc.AddPage()
	w.writeTitlePage(in)

	if len(in.Data.Areas) > 0 {
		w.cursor.Break()
		w.writeAreaSections(in.Data)
	}

	w.cursor.Break()
	w.writeQuestionSections(in)

	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("pdf layout error: %w", err)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output error: %w", err)
	}
	return buf.Bytes(), nil
}

// writer is the state of one render pass.
type writer struct {
	doc    *fpdf.Fpdf
	tr     func(string) string
	opts   Options
	labels render.Labels
	cursor *layout.Cursor
	width  float64 // usable width between margins
	images int
}

func (w *writer) writeTitlePage(in *render.Input) {
	l := w.labels
	w.cursor.Sync(w.doc.PageNo(), 25)
	w.text(l.Title, "B", 22, 10, "C", colorText)
	w.text(fmt.Sprintf("%s: %s", l.GeneratedAt, in.GeneratedAt.Format("2006-01-02")), "", 9, 5, "C", colorMuted)
	w.cursor.Advance(6)

	w.text(l.SummaryHeading, "B", 16, 8, "L", colorText)
	w.text(fmt.Sprintf("%s: %s", l.AverageCompliance, render.AverageText(in.Summary)), "", 12, 6, "L", colorText)
	w.text(fmt.Sprintf("%s: %s", l.LowestArea, in.Summary.LowestComplianceArea), "", 12, 6, "L", colorText)
	w.cursor.Advance(4)

	w.chart(l.AreaChart, in.Charts.Area, w.opts.ChartWidth)
	w.chart(l.HistoryChart, in.Charts.History, w.opts.ChartWidth)
}

func (w *writer) writeAreaSections(ds *aggregate.Dataset) {
	for i, group := range ds.SortedAreas() {
		if i > 0 {
			w.cursor.Advance(8)
		}
		// Keep the heading with at least the table header.
		w.cursor.Reserve(10 + 12)
		w.text(w.labels.AreaHeading(group.Area), "B", 14, 10, "L", colorText)

		rows := make([][]string, 0, len(group.Rows))
		for _, row := range group.Rows {
			rows = append(rows, []string{row.Label(), w.labels.AnswerText(row.Answer), row.Observation})
		}
		w.drawTable(table{
			columns: []column{
				{title: w.labels.Question, share: 0.5, align: "L"},
				{title: w.labels.Answer, share: 0.14, align: "C"},
				{title: w.labels.Observation, share: 0.36, align: "L"},
			},
			rows:     rows,
			fontSize: 8,
			head:     colorHeader,
		})

		w.writeEvidence(group)
	}
}

func (w *writer) writeEvidence(group *aggregate.AreaGroup) {
	var rows []*aggregate.Row
	for _, row := range group.Rows {
		if render.IsEvidence(row) && row.Evidence != nil {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return
	}

	w.cursor.Advance(4)
	w.cursor.Reserve(8 + 20)
	w.text(w.labels.Evidence, "B", 11, 8, "L", colorText)

	for _, row := range rows {
		caption := fmt.Sprintf("- %s (%s, %s)", row.Label(), row.Auditor, row.Date)
		size := layout.Scale(row.Evidence.Width, row.Evidence.Height, w.opts.PhotoWidth)

		w.doc.SetFont(w.opts.FontFamily, "", 9)
		lines := w.doc.SplitLines([]byte(w.tr(caption)), w.width)
		captionH := float64(max(len(lines), 1)) * w.opts.LineHeight
		w.cursor.Reserve(captionH + size.Height + 6)

		w.wrapped(caption, "", 9, "L", colorText)
		w.image(row.Evidence, w.opts.Margin+5, size)
		w.cursor.Advance(6)
	}
}

func (w *writer) writeQuestionSections(in *render.Input) {
	w.text(w.labels.QuestionAnalysis, "B", 16, 12, "L", colorText)

	for _, q := range in.Data.Questions {
		w.cursor.Advance(3)
		w.cursor.Reserve(12 + 10)
		w.wrapped(q.Label, "B", 10, "L", colorText)
		w.cursor.Advance(2)

		if len(q.Stats) == 0 {
			w.text(w.labels.NoData, "I", 9, 6, "L", colorMuted)
		} else {
			rows := make([][]string, 0, len(q.Stats))
			for _, s := range q.Stats {
				rows = append(rows, []string{
					s.Area,
					fmt.Sprint(s.Counts.Yes),
					fmt.Sprint(s.Counts.No),
					fmt.Sprint(s.Counts.NotApplicable),
				})
			}
			w.drawTable(table{
				columns: []column{
					{title: w.labels.Area, share: 0.4, align: "L"},
					{title: w.labels.Yes, share: 0.2, align: "C"},
					{title: w.labels.No, share: 0.2, align: "C"},
					{title: w.labels.NotApplicable, share: 0.2, align: "C"},
				},
				rows:     rows,
				fontSize: 8,
				head:     colorStatHeader,
			})
		}

		if chart := in.Charts.Question(q.Index); chart != nil && chart.Image != nil {
			w.cursor.Advance(3)
			size := layout.Scale(chart.Width, chart.Height, w.opts.QuestionChartWidth)
			w.image(chart.Image, w.opts.Margin+(w.width-size.Width)/2, size)
		}
	}
}

// text emits a single line block of height h.
func (w *writer) text(s, style string, size, h float64, align string, color [3]int) {
	w.cursor.Reserve(h)
	w.doc.SetFont(w.opts.FontFamily, style, size)
	w.doc.SetTextColor(color[0], color[1], color[2])
	w.doc.SetXY(w.opts.Margin, w.cursor.Y())
	w.doc.CellFormat(w.width, h, w.tr(s), "", 0, align, false, 0, "")
	w.cursor.Advance(h)
}

// wrapped emits s wrapped to the usable width, breaking first if the whole
// paragraph does not fit.
func (w *writer) wrapped(s, style string, size float64, align string, color [3]int) {
	w.doc.SetFont(w.opts.FontFamily, style, size)
	w.doc.SetTextColor(color[0], color[1], color[2])
	lines := w.doc.SplitLines([]byte(w.tr(s)), w.width)
	if len(lines) == 0 {
		lines = [][]byte{{}}
	}
	w.cursor.Reserve(float64(len(lines)) * w.opts.LineHeight)
	for _, ln := range lines {
		w.doc.SetXY(w.opts.Margin, w.cursor.Y())
		w.doc.CellFormat(w.width, w.opts.LineHeight, string(ln), "", 0, align, false, 0, "")
		w.cursor.Advance(w.opts.LineHeight)
	}
}

// chart emits a centred caption followed by the chart scaled to width.
func (w *writer) chart(caption string, chart *domain.ChartImage, width float64) {
	if chart == nil || chart.Image == nil {
		return
	}
	size := layout.FitHeight(layout.Scale(chart.Width, chart.Height, width), w.opts.ChartMaxHeight)
	w.cursor.Reserve(8 + size.Height)
	w.text(caption, "B", 12, 8, "C", colorText)
	w.image(chart.Image, w.opts.Margin+(w.width-size.Width)/2, size)
	w.cursor.Advance(4)
}

// image draws img at x and the cursor position. An image the canvas cannot
// embed is replaced by a placeholder line and does not fail the document.
func (w *writer) image(img *domain.Image, x float64, size layout.Size) {
	w.images++
	name := fmt.Sprintf("img%d", w.images)
	opts := fpdf.ImageOptions{ImageType: imageType(img.Format)}

	w.doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if w.doc.Err() {
		w.doc.ClearError()
		w.text(w.labels.Unavailable, "I", 9, 6, "L", colorMuted)
		return
	}

	y := w.cursor.Place(size.Height)
	w.doc.ImageOptions(name, x, y, size.Width, size.Height, false, opts, 0, "")
}

func imageType(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "JPG"
	case "gif":
		return "GIF"
	default:
		return "PNG"
	}
}
