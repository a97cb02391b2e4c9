// Package docx renders reports as a flowing word-processing document. The
// package is assembled directly as an OOXML zip archive.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/vbonduro/safetyaudit/internal/aggregate"
	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/layout"
	"github.com/vbonduro/safetyaudit/internal/render"
)

const (
	emuPerPx = 9525

	// A4 with 2cm margins, in twentieths of a point.
	pageWidth   = 11906
	pageHeight  = 16838
	pageMargin  = 1134
	usableWidth = pageWidth - 2*pageMargin
)

// Options are the document's visual constants, in pixels at 96 dpi.
type Options struct {
	ChartWidth         float64
	QuestionChartWidth float64
	PhotoWidth         float64
}

func DefaultOptions() Options {
	return Options{
		ChartWidth:         600,
		QuestionChartWidth: 480,
		PhotoWidth:         300,
	}
}

type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

func (r *Renderer) Format() domain.Format { return domain.FormatDOCX }

func (r *Renderer) Render(in *render.Input) ([]byte, error) {
	d := &document{opts: r.opts, labels: in.Labels}
	d.writeTitle(in)
	d.writeAreas(in.Data)
	d.writeQuestions(in)
	return d.pack(in)
}

type media struct {
	id   string
	name string
	data []byte
}

// document accumulates the body XML and the media parts of one render.
type document struct {
	opts   Options
	labels render.Labels
	body   strings.Builder
	media  []media
}

func (d *document) writeTitle(in *render.Input) {
	l := d.labels
	d.paragraph("Title", false, l.Title)
	d.paragraph("Subtle", false, fmt.Sprintf("%s: %s", l.GeneratedAt, in.GeneratedAt.Format("2006-01-02")))
	d.paragraph("Heading1", false, l.SummaryHeading)
	d.paragraph("", false, fmt.Sprintf("%s: %s", l.AverageCompliance, render.AverageText(in.Summary)))
	d.paragraph("", false, fmt.Sprintf("%s: %s", l.LowestArea, in.Summary.LowestComplianceArea))

	d.chart(l.AreaChart, in.Charts.Area, d.opts.ChartWidth)
	d.chart(l.HistoryChart, in.Charts.History, d.opts.ChartWidth)
}

func (d *document) writeAreas(ds *aggregate.Dataset) {
	l := d.labels
	widths := []int{usableWidth * 50 / 100, usableWidth * 15 / 100, usableWidth * 35 / 100}

	for _, group := range ds.SortedAreas() {
		d.paragraph("Heading1", true, l.AreaHeading(group.Area))

		d.tableStart(widths)
		d.headerRow(widths, l.Question, l.Answer, l.Observation)
		for _, row := range group.Rows {
			d.row(widths, row.Label(), l.AnswerText(row.Answer), row.Observation)
			if render.IsEvidence(row) && row.Evidence != nil {
				d.photoRow(len(widths), row.Evidence)
			}
		}
		d.body.WriteString(`</w:tbl>`)
	}
}

func (d *document) writeQuestions(in *render.Input) {
	l := d.labels
	widths := []int{usableWidth * 40 / 100, usableWidth * 20 / 100, usableWidth * 20 / 100, usableWidth * 20 / 100}

	d.paragraph("Heading1", true, l.QuestionAnalysis)
	for _, q := range in.Data.Questions {
		d.paragraph("Heading2", false, q.Label)
		if len(q.Stats) == 0 {
			d.paragraph("Subtle", false, l.NoData)
		} else {
			d.tableStart(widths)
			d.headerRow(widths, l.Area, l.Yes, l.No, l.NotApplicable)
			for _, s := range q.Stats {
				d.row(widths, s.Area,
					fmt.Sprint(s.Counts.Yes),
					fmt.Sprint(s.Counts.No),
					fmt.Sprint(s.Counts.NotApplicable))
			}
			d.body.WriteString(`</w:tbl>`)
		}
		if chart := in.Charts.Question(q.Index); chart != nil && chart.Image != nil {
			d.imageParagraph(chart.Image, d.opts.QuestionChartWidth)
		}
	}
}

func (d *document) paragraph(style string, pageBreak bool, text string) {
	d.body.WriteString(`<w:p>`)
	if style != "" || pageBreak {
		d.body.WriteString(`<w:pPr>`)
		if style != "" {
			fmt.Fprintf(&d.body, `<w:pStyle w:val="%s"/>`, style)
		}
		if pageBreak {
			d.body.WriteString(`<w:pageBreakBefore/>`)
		}
		d.body.WriteString(`</w:pPr>`)
	}
	d.run(text, false)
	d.body.WriteString(`</w:p>`)
}

func (d *document) run(text string, header bool) {
	d.body.WriteString(`<w:r>`)
	if header {
		d.body.WriteString(`<w:rPr><w:b/><w:color w:val="FFFFFF"/></w:rPr>`)
	}
	fmt.Fprintf(&d.body, `<w:t xml:space="preserve">%s</w:t></w:r>`, escape(text))
}

func (d *document) chart(caption string, chart *domain.ChartImage, width float64) {
	if chart == nil || chart.Image == nil {
		return
	}
	d.paragraph("Caption", false, caption)
	d.imageParagraph(chart.Image, width)
}

func (d *document) imageParagraph(img *domain.Image, width float64) {
	d.body.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>`)
	d.drawing(img, width)
	d.body.WriteString(`</w:p>`)
}

func (d *document) tableStart(widths []int) {
	d.body.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="ReportTable"/><w:tblW w:w="5000" w:type="pct"/></w:tblPr><w:tblGrid>`)
	for _, w := range widths {
		fmt.Fprintf(&d.body, `<w:gridCol w:w="%d"/>`, w)
	}
	d.body.WriteString(`</w:tblGrid>`)
}

// headerRow repeats on every page the table spans.
func (d *document) headerRow(widths []int, cells ...string) {
	d.body.WriteString(`<w:tr><w:trPr><w:tblHeader/></w:trPr>`)
	for i, c := range cells {
		fmt.Fprintf(&d.body, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/><w:shd w:val="clear" w:color="auto" w:fill="475569"/></w:tcPr><w:p>`, widths[i])
		d.run(c, true)
		d.body.WriteString(`</w:p></w:tc>`)
	}
	d.body.WriteString(`</w:tr>`)
}

func (d *document) row(widths []int, cells ...string) {
	d.body.WriteString(`<w:tr><w:trPr><w:cantSplit/></w:trPr>`)
	for i, c := range cells {
		fmt.Fprintf(&d.body, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/></w:tcPr><w:p>`, widths[i])
		d.run(c, false)
		d.body.WriteString(`</w:p></w:tc>`)
	}
	d.body.WriteString(`</w:tr>`)
}

// photoRow is a single cell spanning every column of the table.
func (d *document) photoRow(columns int, img *domain.Image) {
	fmt.Fprintf(&d.body, `<w:tr><w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/><w:gridSpan w:val="%d"/></w:tcPr>`, usableWidth, columns)
	d.imageParagraph(img, d.opts.PhotoWidth)
	d.body.WriteString(`</w:tc></w:tr>`)
}

// drawing emits an inline picture run. An image without dimensions cannot be
// sized and is replaced by the placeholder text.
func (d *document) drawing(img *domain.Image, width float64) {
	size := layout.Scale(img.Width, img.Height, width)
	if size.Height <= 0 {
		d.run(d.labels.Unavailable, false)
		return
	}

	n := len(d.media) + 1
	m := media{
		id:   fmt.Sprintf("rIdImage%d", n),
		name: fmt.Sprintf("image%d.%s", n, extension(img.Format)),
		data: img.Data,
	}
	d.media = append(d.media, m)

	cx := int64(size.Width * emuPerPx)
	cy := int64(size.Height * emuPerPx)
	fmt.Fprintf(&d.body, drawingXML, cx, cy, n, n, n, m.name, m.id, cx, cy)
}

func (d *document) pack(in *render.Input) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	rels := strings.Builder{}
	rels.WriteString(xmlHeader)
	rels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	rels.WriteString(`<Relationship Id="rIdStyles" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	for _, m := range d.media {
		fmt.Fprintf(&rels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/%s"/>`, m.id, m.name)
	}
	rels.WriteString(`</Relationships>`)

	body := strings.Builder{}
	body.WriteString(xmlHeader)
	body.WriteString(documentOpen)
	body.WriteString(d.body.String())
	fmt.Fprintf(&body, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`,
		pageWidth, pageHeight, pageMargin, pageMargin, pageMargin, pageMargin)
	body.WriteString(`</w:body></w:document>`)

	core := fmt.Sprintf(coreXML, escape(in.Labels.Title), in.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"))

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"docProps/core.xml", []byte(core)},
		{"word/document.xml", []byte(body.String())},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/_rels/document.xml.rels", []byte(rels.String())},
	}
	for _, m := range d.media {
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/media/" + m.name, m.data})
	}

	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create part %s: %w", p.name, err)
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, fmt.Errorf("failed to write part %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close package: %w", err)
	}
	return buf.Bytes(), nil
}

func extension(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "jpeg"
	case "gif":
		return "gif"
	default:
		return "png"
	}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// escape makes s safe for XML text and attribute values. Control characters
// other than tab and newline are not allowed in XML 1.0 and are dropped.
func escape(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, s)
	return xmlEscaper.Replace(s)
}
