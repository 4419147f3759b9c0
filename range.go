package gridcalc

import "iter"

// RangeAddress is a rectangular region on one sheet, also used for
// per-sheet used-range tracking. construct via normalize so Start is
// always the top-left corner.
type RangeAddress struct {
	Sheet    int
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// normalize reorders the corners so StartRow<=EndRow and
// StartCol<=EndCol. authored ranges like B2:A1 are legal.
func (r RangeAddress) normalize() RangeAddress {
	if r.StartRow > r.EndRow {
		r.StartRow, r.EndRow = r.EndRow, r.StartRow
	}
	if r.StartCol > r.EndCol {
		r.StartCol, r.EndCol = r.EndCol, r.StartCol
	}
	return r
}

// Size returns the number of cells the range covers.
func (r RangeAddress) Size() int {
	n := r.normalize()
	return (n.EndRow - n.StartRow + 1) * (n.EndCol - n.StartCol + 1)
}

// Contains reports whether the range covers the given address.
func (r RangeAddress) Contains(a CellAddress) bool {
	n := r.normalize()
	return a.Sheet == n.Sheet &&
		a.Row >= n.StartRow && a.Row <= n.EndRow &&
		a.Col >= n.StartCol && a.Col <= n.EndCol
}

// Cells iterates the covered addresses in row-major order, lazily.
func (r RangeAddress) Cells() iter.Seq[CellAddress] {
	n := r.normalize()
	return func(yield func(CellAddress) bool) {
		for row := n.StartRow; row <= n.EndRow; row++ {
			for col := n.StartCol; col <= n.EndCol; col++ {
				if !yield(CellAddress{Sheet: n.Sheet, Row: row, Col: col}) {
					return
				}
			}
		}
	}
}
