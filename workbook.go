package gridcalc

import (
	"errors"
	"fmt"
	"strings"
)

// structural failures, reported synchronously at the offending call.
// value-level errors (#DIV/0! and friends) are CellValue variants and
// never surface as Go errors.
var (
	ErrInvalidFormula = errors.New("invalid formula")
	ErrInvalidAddress = errors.New("invalid cell address")
	ErrUnknownSheet   = errors.New("unknown sheet")
	ErrSheetExists    = errors.New("sheet already exists")
	ErrInvalidName    = errors.New("invalid name")
)

// Workbook owns the sheet directory, the name table, and the cell
// stores, and drives calculation over them. sheet names are
// case-sensitive. one workbook is single-threaded by contract: the
// caller serializes writes against calculation.
type Workbook struct {
	sheets     []*Sheet
	sheetIndex map[string]int
	names      map[string]string
	bareText   bool
}

// Option configures a Workbook at construction.
type Option func(*Workbook)

// StoreBareText makes SetFormula store text lacking the "=" marker as a
// plain text value instead of rejecting it.
func StoreBareText() Option {
	return func(wb *Workbook) {
		wb.bareText = true
	}
}

// NewWorkbook creates an empty workbook with no sheets.
func NewWorkbook(opts ...Option) *Workbook {
	wb := &Workbook{
		sheetIndex: make(map[string]int),
		names:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(wb)
	}
	return wb
}

// AddSheet appends a sheet and returns its index.
func (wb *Workbook) AddSheet(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty sheet name", ErrInvalidName)
	}
	if _, exists := wb.sheetIndex[name]; exists {
		return 0, fmt.Errorf("%w: %q", ErrSheetExists, name)
	}
	idx := len(wb.sheets)
	wb.sheets = append(wb.sheets, newSheet(name))
	wb.sheetIndex[name] = idx
	return idx, nil
}

// SheetIndex resolves a sheet name to its index.
func (wb *Workbook) SheetIndex(name string) (int, bool) {
	idx, ok := wb.sheetIndex[name]
	return idx, ok
}

// SheetName resolves a sheet index to its name.
func (wb *Workbook) SheetName(idx int) (string, bool) {
	if idx < 0 || idx >= len(wb.sheets) {
		return "", false
	}
	return wb.sheets[idx].name, true
}

// Sheets returns the sheet names in index order.
func (wb *Workbook) Sheets() []string {
	out := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		out[i] = s.name
	}
	return out
}

// RenameSheet renames a sheet. formulas referencing the sheet by name
// pick up the rename on the next calculation, because references are
// resolved fresh at every graph build.
func (wb *Workbook) RenameSheet(oldName, newName string) error {
	idx, ok := wb.sheetIndex[oldName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSheet, oldName)
	}
	if newName == "" {
		return fmt.Errorf("%w: empty sheet name", ErrInvalidName)
	}
	if _, exists := wb.sheetIndex[newName]; exists {
		return fmt.Errorf("%w: %q", ErrSheetExists, newName)
	}
	delete(wb.sheetIndex, oldName)
	wb.sheetIndex[newName] = idx
	wb.sheets[idx].name = newName
	return nil
}

// UsedRange returns the minimal rectangle containing every occupied
// cell of a sheet; ok is false for an empty or unknown sheet.
func (wb *Workbook) UsedRange(sheetIdx int) (RangeAddress, bool) {
	if sheetIdx < 0 || sheetIdx >= len(wb.sheets) {
		return RangeAddress{}, false
	}
	return wb.sheets[sheetIdx].usedRange(sheetIdx)
}

func (wb *Workbook) checkAddress(addr CellAddress) error {
	if addr.Sheet < 0 || addr.Sheet >= len(wb.sheets) {
		return fmt.Errorf("%w: sheet index %d", ErrUnknownSheet, addr.Sheet)
	}
	if addr.Row < 0 || addr.Col < 0 {
		return fmt.Errorf("%w: row %d, col %d", ErrInvalidAddress, addr.Row, addr.Col)
	}
	return nil
}

// SetCell writes a non-formula value, tearing down any prior formula
// (its graph edges disappear with the next rebuild).
func (wb *Workbook) SetCell(addr CellAddress, value CellValue) error {
	if err := wb.checkAddress(addr); err != nil {
		return err
	}
	if value.Kind == KindFormula {
		return fmt.Errorf("%w: use SetFormula for formula values", ErrInvalidFormula)
	}
	if value.IsEmpty() {
		wb.sheets[addr.Sheet].removeCell(addr.Row, addr.Col)
		return nil
	}
	wb.sheets[addr.Sheet].setCell(addr.Row, addr.Col, &cellRecord{value: value})
	return nil
}

// SetFormula parses and installs a formula. malformed input fails here,
// at write time, without mutating the cell. text lacking the "=" marker
// is rejected unless the workbook was built with StoreBareText.
func (wb *Workbook) SetFormula(addr CellAddress, text string) error {
	if err := wb.checkAddress(addr); err != nil {
		return err
	}
	body, ok := strings.CutPrefix(text, "=")
	if !ok {
		if wb.bareText {
			wb.sheets[addr.Sheet].setCell(addr.Row, addr.Col, &cellRecord{value: TextValue(text)})
			return nil
		}
		return fmt.Errorf("%w: missing leading \"=\"", ErrInvalidFormula)
	}
	ast, err := parseFormula(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormula, err)
	}
	wb.sheets[addr.Sheet].setCell(addr.Row, addr.Col, &cellRecord{
		value: FormulaValue(text),
		ast:   ast,
	})
	return nil
}

// GetCell returns the cell's authored state, including unevaluated
// formula text. an unoccupied cell reads as Empty.
func (wb *Workbook) GetCell(addr CellAddress) (CellValue, error) {
	if err := wb.checkAddress(addr); err != nil {
		return CellValue{}, err
	}
	rec := wb.sheets[addr.Sheet].cell(addr.Row, addr.Col)
	if rec == nil {
		return EmptyValue(), nil
	}
	return rec.value, nil
}

// GetCalculatedValue returns the most recent cached result for a
// formula cell, or the direct value for a non-formula cell. a formula
// cell that has never been calculated reads as Empty.
func (wb *Workbook) GetCalculatedValue(addr CellAddress) (CellValue, error) {
	if err := wb.checkAddress(addr); err != nil {
		return CellValue{}, err
	}
	return wb.calculatedValue(addr), nil
}

// RemoveCell clears a cell entirely.
func (wb *Workbook) RemoveCell(addr CellAddress) error {
	if err := wb.checkAddress(addr); err != nil {
		return err
	}
	wb.sheets[addr.Sheet].removeCell(addr.Row, addr.Col)
	return nil
}

// DefineName installs or redefines a named constant, reference, range,
// or formula. the definition is validated now but resolved fresh at
// every use, so redefinition is visible to the next calculation without
// touching dependents.
func (wb *Workbook) DefineName(name, definition string) error {
	if !isValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	body := strings.TrimPrefix(definition, "=")
	if _, err := parseFormula(body); err != nil {
		return fmt.Errorf("%w: definition of %q: %v", ErrInvalidName, name, err)
	}
	wb.names[name] = definition
	return nil
}

// NamedRange looks a name up in the name table. lookup of an undefined
// name returns ok=false, never a default.
func (wb *Workbook) NamedRange(name string) (string, bool) {
	def, ok := wb.names[name]
	return def, ok
}

// nameDefinition implements resolveEnv.
func (wb *Workbook) nameDefinition(name string) (string, bool) {
	return wb.NamedRange(name)
}

// isValidName rejects names that would be unreachable from a formula:
// cell-shaped words, boolean literals, and anything that is not a plain
// identifier.
func isValidName(name string) bool {
	if name == "" || isCellWord(name) {
		return false
	}
	switch strings.ToUpper(name) {
	case "TRUE", "FALSE":
		return false
	}
	for i, ch := range name {
		if i == 0 && (ch >= '0' && ch <= '9' || ch == '.') {
			return false
		}
		if !isWordRune(ch) {
			return false
		}
	}
	return true
}

// UsedCells returns the addresses of a sheet's occupied cells in
// (row, col) order.
func (wb *Workbook) UsedCells(sheetIdx int) []CellAddress {
	if sheetIdx < 0 || sheetIdx >= len(wb.sheets) {
		return nil
	}
	set := make(map[CellAddress]struct{})
	for key := range wb.sheets[sheetIdx].cells {
		set[CellAddress{Sheet: sheetIdx, Row: key.row, Col: key.col}] = struct{}{}
	}
	return sortedAddresses(set)
}

// formulaCells snapshots every formula-bearing cell and its parsed tree.
func (wb *Workbook) formulaCells() map[CellAddress]Node {
	out := make(map[CellAddress]Node)
	for idx, sheet := range wb.sheets {
		for key, rec := range sheet.cells {
			if rec.ast != nil {
				out[CellAddress{Sheet: idx, Row: key.row, Col: key.col}] = rec.ast
			}
		}
	}
	return out
}

// calculatedValue is the precedent lookup used during evaluation.
func (wb *Workbook) calculatedValue(addr CellAddress) CellValue {
	if addr.Sheet < 0 || addr.Sheet >= len(wb.sheets) {
		return ErrorValue(InvalidReference)
	}
	rec := wb.sheets[addr.Sheet].cell(addr.Row, addr.Col)
	if rec == nil {
		return EmptyValue()
	}
	if rec.value.Kind == KindFormula {
		if rec.result == nil {
			return EmptyValue()
		}
		return *rec.result
	}
	return rec.value
}

// storeResult caches a formula cell's result. the calculate path writes
// only through here.
func (wb *Workbook) storeResult(addr CellAddress, v CellValue) {
	rec := wb.sheets[addr.Sheet].cell(addr.Row, addr.Col)
	if rec == nil || rec.ast == nil {
		return
	}
	rec.result = &v
}
