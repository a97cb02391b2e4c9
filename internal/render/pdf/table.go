package pdf

import "github.com/vbonduro/safetyaudit/internal/layout"

type column struct {
	title string
	share float64 // fraction of the usable width
	align string
}

type table struct {
	columns  []column
	rows     [][]string
	fontSize float64
	head     [3]int
}

// drawTable draws t starting at the cursor. The table paginates on its own,
// repeating the header on every page it spans, and the cursor is moved to
// the position the canvas reports once the last row is drawn.
func (w *writer) drawTable(t table) {
	doc := w.doc
	doc.SetY(w.cursor.Y())
	doc.SetFont(w.opts.FontFamily, "", t.fontSize)
	doc.SetLineWidth(0.2)
	doc.SetDrawColor(203, 213, 225)

	widths := make([]float64, len(t.columns))
	titles := make([]string, len(t.columns))
	for i, c := range t.columns {
		widths[i] = c.share * w.width
		titles[i] = c.title
	}

	doc.SetFont(w.opts.FontFamily, "B", t.fontSize)
	headH := w.rowHeight(titles, widths)
	doc.SetFont(w.opts.FontFamily, "", t.fontSize)

	newPage := func() {
		doc.AddPage()
		doc.SetY(w.opts.Top)
	}
	header := func() {
		doc.SetFont(w.opts.FontFamily, "B", t.fontSize)
		doc.SetFillColor(t.head[0], t.head[1], t.head[2])
		doc.SetTextColor(255, 255, 255)
		w.row(titles, widths, t.columns, headH, true)
		doc.SetFont(w.opts.FontFamily, "", t.fontSize)
		doc.SetTextColor(colorText[0], colorText[1], colorText[2])
	}

	first := headH
	if len(t.rows) > 0 {
		first += w.rowHeight(t.rows[0], widths)
	}
	if layout.NeedsBreak(doc.GetY(), first, w.opts.BottomLimit) && doc.GetY() > w.opts.Top {
		newPage()
	}
	header()

	for i, cells := range t.rows {
		h := w.rowHeight(cells, widths)
		// A row taller than a page stays directly below the header.
		if layout.NeedsBreak(doc.GetY(), h, w.opts.BottomLimit) && doc.GetY() > w.opts.Top+headH {
			newPage()
			header()
		}
		fill := i%2 == 1
		if fill {
			doc.SetFillColor(colorStripe[0], colorStripe[1], colorStripe[2])
		}
		w.row(cells, widths, t.columns, h, fill)
	}

	w.cursor.Sync(doc.PageNo(), doc.GetY())
}

func (w *writer) rowHeight(cells []string, widths []float64) float64 {
	lines := 1
	for i, c := range cells {
		n := len(w.doc.SplitLines([]byte(w.tr(c)), widths[i]-2*w.opts.CellPadding))
		lines = max(lines, n)
	}
	return float64(lines)*w.opts.LineHeight + 2*w.opts.CellPadding
}

func (w *writer) row(cells []string, widths []float64, cols []column, h float64, fill bool) {
	doc := w.doc
	y := doc.GetY()
	x := w.opts.Margin
	style := "D"
	if fill {
		style = "FD"
	}
	pad := w.opts.CellPadding
	for i, c := range cells {
		doc.Rect(x, y, widths[i], h, style)
		lines := doc.SplitLines([]byte(w.tr(c)), widths[i]-2*pad)
		for j, ln := range lines {
			doc.SetXY(x+pad, y+pad+float64(j)*w.opts.LineHeight)
			doc.CellFormat(widths[i]-2*pad, w.opts.LineHeight, string(ln), "", 0, cols[i].align, false, 0, "")
		}
		x += widths[i]
	}
	doc.SetXY(w.opts.Margin, y+h)
}
