package gridcalc

import (
	"fmt"
	"strconv"
)

// ValueKind identifies which variant a CellValue holds.
type ValueKind uint8

const (
	KindEmpty ValueKind = iota
	KindNumber
	KindText
	KindBool
	KindError
	KindFormula
)

// ErrorKind identifies a spreadsheet error value. the zero value means
// "no error" and is used internally by coercion helpers.
type ErrorKind uint8

const (
	errNone ErrorKind = iota
	DivideByZero
	UnknownName
	InvalidReference
	TypeMismatch
	NotAvailable
	NumericOverflow
	NullIntersection
)

// errorLiterals maps error kinds to their display literals.
var errorLiterals = map[ErrorKind]string{
	DivideByZero:     "#DIV/0!",
	UnknownName:      "#NAME?",
	InvalidReference: "#REF!",
	TypeMismatch:     "#VALUE!",
	NotAvailable:     "#N/A",
	NumericOverflow:  "#NUM!",
	NullIntersection: "#NULL!",
}

func (e ErrorKind) String() string {
	if s, ok := errorLiterals[e]; ok {
		return s
	}
	return "#ERROR!"
}

// CellValue is the typed union every cell stores or resolves to. exactly
// one variant field is meaningful, selected by Kind. Formula cells carry
// their authored source text; the cached calculation result lives in the
// owning cell record, not in the value itself.
type CellValue struct {
	Kind    ValueKind
	Number  float64
	Text    string
	Bool    bool
	Err     ErrorKind
	Formula string
}

// EmptyValue returns the empty cell value.
func EmptyValue() CellValue {
	return CellValue{Kind: KindEmpty}
}

// NumberValue wraps a float64 as a cell value.
func NumberValue(n float64) CellValue {
	return CellValue{Kind: KindNumber, Number: n}
}

// TextValue wraps a string as a cell value.
func TextValue(s string) CellValue {
	return CellValue{Kind: KindText, Text: s}
}

// BoolValue wraps a bool as a cell value.
func BoolValue(b bool) CellValue {
	return CellValue{Kind: KindBool, Bool: b}
}

// ErrorValue wraps a spreadsheet error as a cell value. error values are
// normal calculation outcomes, not Go errors.
func ErrorValue(kind ErrorKind) CellValue {
	return CellValue{Kind: KindError, Err: kind}
}

// FormulaValue wraps authored formula text (including the leading "=") as
// the stored state of a formula cell.
func FormulaValue(text string) CellValue {
	return CellValue{Kind: KindFormula, Formula: text}
}

// IsError reports whether the value is a spreadsheet error.
func (v CellValue) IsError() bool {
	return v.Kind == KindError
}

// IsEmpty reports whether the value is the empty variant.
func (v CellValue) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// Display renders the value the way a cell would show it. formula values
// render their source text.
func (v CellValue) Display() string {
	switch v.Kind {
	case KindEmpty:
		return ""
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindText:
		return v.Text
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindError:
		return v.Err.String()
	case KindFormula:
		return v.Formula
	}
	return ""
}

// CellAddress identifies a cell by sheet index and zero-based row and
// column. it is an immutable value type used as the graph node key.
type CellAddress struct {
	Sheet int
	Row   int
	Col   int
}

// Less orders addresses by sheet, then row, then column. used as the
// deterministic tie-break for evaluation order.
func (a CellAddress) Less(b CellAddress) bool {
	if a.Sheet != b.Sheet {
		return a.Sheet < b.Sheet
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

func (a CellAddress) String() string {
	return fmt.Sprintf("(%d)%s", a.Sheet, FormatCellRef(a.Row, a.Col))
}

// FormatCellRef renders zero-based row/column as an A1-style reference.
// negative coordinates clamp to zero.
func FormatCellRef(row, col int) string {
	if row < 0 {
		row = 0
	}
	if col < 0 {
		col = 0
	}
	letters := make([]byte, 0, 3)
	c := col
	for {
		letters = append([]byte{byte('A' + c%26)}, letters...)
		c = c/26 - 1
		if c < 0 {
			break
		}
	}
	return string(letters) + strconv.Itoa(row+1)
}
