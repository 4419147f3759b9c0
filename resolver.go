package gridcalc

import "strings"

// resolveEnv is what reference binding needs from the workbook: the sheet
// directory and the name table. resolution runs fresh on every graph
// build so sheet renames and name redefinitions are honored without any
// manual invalidation.
type resolveEnv interface {
	SheetIndex(name string) (int, bool)
	nameDefinition(name string) (string, bool)
}

// name expansion is bounded so a name defined in terms of itself cannot
// recurse forever; exceeding the bound reads as an unresolved name.
const maxNameDepth = 16

// resolveCell binds a reference node to a concrete address. an empty
// sheet name means the authoring sheet. an unresolvable sheet yields
// InvalidReference as a value-level error, never an aborted pass.
func resolveCell(env resolveEnv, base int, n *RefNode) (CellAddress, ErrorKind) {
	sheet := base
	if n.Sheet != "" {
		idx, ok := env.SheetIndex(n.Sheet)
		if !ok {
			return CellAddress{}, InvalidReference
		}
		sheet = idx
	}
	if n.Row < 0 || n.Col < 0 {
		return CellAddress{}, InvalidReference
	}
	return CellAddress{Sheet: sheet, Row: n.Row, Col: n.Col}, errNone
}

// resolveRange binds a range node to a normalized concrete region.
func resolveRange(env resolveEnv, base int, n *RangeRefNode) (RangeAddress, ErrorKind) {
	sheet := base
	if n.Sheet != "" {
		idx, ok := env.SheetIndex(n.Sheet)
		if !ok {
			return RangeAddress{}, InvalidReference
		}
		sheet = idx
	}
	if n.StartRow < 0 || n.StartCol < 0 || n.EndRow < 0 || n.EndCol < 0 {
		return RangeAddress{}, InvalidReference
	}
	r := RangeAddress{
		Sheet:    sheet,
		StartRow: n.StartRow,
		StartCol: n.StartCol,
		EndRow:   n.EndRow,
		EndCol:   n.EndCol,
	}
	return r.normalize(), errNone
}

// expandName looks a name up in the name table and parses its stored
// definition text into a fresh expression tree. definitions may be
// constants ("0.05"), references ("Sheet1!$A$1"), ranges ("A1:A10"), or
// full formulas ("=10+20"). expansion happens at use time, so a
// redefinition is visible to the next calculation automatically.
func expandName(env resolveEnv, name string) (Node, ErrorKind) {
	text, ok := env.nameDefinition(name)
	if !ok {
		return nil, UnknownName
	}
	body := strings.TrimPrefix(text, "=")
	node, err := parseFormula(body)
	if err != nil {
		return nil, UnknownName
	}
	return node, errNone
}
