// Package layout holds the pure geometry shared by the report renderers:
// aspect-preserving image scaling and page-break decisions.
package layout

import "math"

// Size is a width/height pair in whatever unit the caller works in
// (millimetres for PDF pages, pixels for workbooks and documents).
type Size struct {
	Width  float64
	Height float64
}

// Scale returns the size of a nativeW x nativeH raster drawn targetW wide.
// A raster without a positive width has no meaningful aspect ratio and
// scales to zero height.
func Scale(nativeW, nativeH int, targetW float64) Size {
	if nativeW <= 0 || nativeH <= 0 {
		return Size{Width: targetW}
	}
	return Size{Width: targetW, Height: targetW * float64(nativeH) / float64(nativeW)}
}

// FitHeight shrinks s uniformly so its height does not exceed maxH.
func FitHeight(s Size, maxH float64) Size {
	if s.Height <= maxH || s.Height == 0 {
		return s
	}
	f := maxH / s.Height
	return Size{Width: s.Width * f, Height: maxH}
}

// NeedsBreak reports whether a block of blockHeight starting at cursor would
// cross pageLimit.
func NeedsBreak(cursor, blockHeight, pageLimit float64) bool {
	return cursor+blockHeight > pageLimit
}

// RowSpan is the number of rows of rowUnit height needed to cover height.
// It is never below one so an anchored element always owns its row.
func RowSpan(height, rowUnit float64) int {
	if rowUnit <= 0 || height <= 0 {
		return 1
	}
	n := int(math.Ceil(height/rowUnit - 1e-9))
	if n < 1 {
		return 1
	}
	return n
}
