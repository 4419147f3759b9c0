package gridcalc

type gridKey struct {
	row int
	col int
}

// cellRecord is one sheet cell: the authored state, the parsed tree for
// formula cells, and the cached calculation result. the write path owns
// value and ast; the calculate path owns result. neither overwrites the
// other implicitly.
type cellRecord struct {
	value  CellValue
	ast    Node
	result *CellValue
}

// Sheet is a sparse cell store. rows and columns are zero-based; only
// occupied cells take memory.
type Sheet struct {
	name  string
	cells map[gridKey]*cellRecord
}

func newSheet(name string) *Sheet {
	return &Sheet{
		name:  name,
		cells: make(map[gridKey]*cellRecord),
	}
}

// Name returns the sheet's current name.
func (s *Sheet) Name() string {
	return s.name
}

func (s *Sheet) cell(row, col int) *cellRecord {
	return s.cells[gridKey{row: row, col: col}]
}

func (s *Sheet) setCell(row, col int, rec *cellRecord) {
	s.cells[gridKey{row: row, col: col}] = rec
}

func (s *Sheet) removeCell(row, col int) {
	delete(s.cells, gridKey{row: row, col: col})
}

// CellCount returns the number of occupied cells.
func (s *Sheet) CellCount() int {
	return len(s.cells)
}

// usedRange computes the minimal rectangle containing every occupied
// cell. computed on demand so removals never leave a stale extent.
func (s *Sheet) usedRange(sheetIdx int) (RangeAddress, bool) {
	if len(s.cells) == 0 {
		return RangeAddress{}, false
	}
	first := true
	var r RangeAddress
	r.Sheet = sheetIdx
	for key := range s.cells {
		if first {
			r.StartRow, r.EndRow = key.row, key.row
			r.StartCol, r.EndCol = key.col, key.col
			first = false
			continue
		}
		if key.row < r.StartRow {
			r.StartRow = key.row
		}
		if key.row > r.EndRow {
			r.EndRow = key.row
		}
		if key.col < r.StartCol {
			r.StartCol = key.col
		}
		if key.col > r.EndCol {
			r.EndCol = key.col
		}
	}
	return r, true
}
