package layout

// Cursor is the vertical position of one paginated render pass. It is
// created per render call and never shared.
type Cursor struct {
	Top   float64
	Limit float64

	y       float64
	page    int
	newPage func()
}

// NewCursor positions a cursor at the top of page one. newPage is invoked
// whenever Reserve decides a break is needed; it may be nil.
func NewCursor(top, limit float64, newPage func()) *Cursor {
	return &Cursor{Top: top, Limit: limit, y: top, page: 1, newPage: newPage}
}

func (c *Cursor) Y() float64 { return c.y }

func (c *Cursor) Page() int { return c.page }

// AtTop reports whether nothing has been placed on the current page yet.
func (c *Cursor) AtTop() bool { return c.y <= c.Top }

// Reserve makes room for a block of height h, starting a new page when the
// block does not fit. A block that does not fit even on an empty page is
// left on the current page if that page is still empty, so it is emitted
// alone instead of breaking forever. It returns true when a break happened.
func (c *Cursor) Reserve(h float64) bool {
	if !NeedsBreak(c.y, h, c.Limit) || c.AtTop() {
		return false
	}
	c.Break()
	return true
}

// Break starts a new page unconditionally.
func (c *Cursor) Break() {
	if c.newPage != nil {
		c.newPage()
	}
	c.page++
	c.y = c.Top
}

func (c *Cursor) Advance(h float64) {
	c.y += h
}

// Place reserves h and advances past it, returning the y where the block
// starts.
func (c *Cursor) Place(h float64) float64 {
	c.Reserve(h)
	y := c.y
	c.y += h
	return y
}

// Sync moves the cursor to a position reported by the canvas, typically the
// end of a table that paginated itself. page is the canvas page number.
func (c *Cursor) Sync(page int, y float64) {
	c.page = page
	c.y = y
}
