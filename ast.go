package gridcalc

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is one vertex of a parsed expression tree. the node set is closed:
// literals, references (kept raw until graph-build time), named lookups,
// operators, and function calls. String renders canonical formula text.
type Node interface {
	String() string
}

// NumberNode is a numeric literal.
type NumberNode struct {
	Value float64
}

func (n *NumberNode) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// TextNode is a string literal.
type TextNode struct {
	Value string
}

func (n *TextNode) String() string {
	return `"` + strings.ReplaceAll(n.Value, `"`, `""`) + `"`
}

// BoolNode is a TRUE/FALSE literal.
type BoolNode struct {
	Value bool
}

func (n *BoolNode) String() string {
	if n.Value {
		return "TRUE"
	}
	return "FALSE"
}

// RefNode is a single-cell reference. Sheet is the raw authored sheet
// name, empty for a same-sheet reference; binding to a sheet index happens
// at graph-build time so renames are honored without reparsing.
type RefNode struct {
	Sheet  string
	Row    int
	Col    int
	AbsRow bool
	AbsCol bool
}

func (n *RefNode) String() string {
	return sheetPrefix(n.Sheet) + refText(n.Row, n.Col, n.AbsRow, n.AbsCol)
}

// RangeRefNode is a rectangular reference. coordinates are as authored
// and normalized during resolution.
type RangeRefNode struct {
	Sheet       string
	StartRow    int
	StartCol    int
	EndRow      int
	EndCol      int
	AbsStartRow bool
	AbsStartCol bool
	AbsEndRow   bool
	AbsEndCol   bool
}

func (n *RangeRefNode) String() string {
	return sheetPrefix(n.Sheet) +
		refText(n.StartRow, n.StartCol, n.AbsStartRow, n.AbsStartCol) + ":" +
		refText(n.EndRow, n.EndCol, n.AbsEndRow, n.AbsEndCol)
}

// NameNode is a bare identifier resolved against the name table at use
// time.
type NameNode struct {
	Name string
}

func (n *NameNode) String() string {
	return n.Name
}

// UnaryNode is a prefix (+, -) or postfix (%) operator application.
type UnaryNode struct {
	Op      string
	Postfix bool
	Operand Node
}

func (n *UnaryNode) String() string {
	if n.Postfix {
		return n.Operand.String() + n.Op
	}
	return n.Op + n.Operand.String()
}

// BinaryNode is an infix operator application.
type BinaryNode struct {
	Op    string
	Left  Node
	Right Node
}

func (n *BinaryNode) String() string {
	return fmt.Sprintf("(%s%s%s)", n.Left.String(), n.Op, n.Right.String())
}

// CallNode is a function call with ordered arguments.
type CallNode struct {
	Name string
	Args []Node
}

func (n *CallNode) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return strings.ToUpper(n.Name) + "(" + strings.Join(args, ",") + ")"
}

func sheetPrefix(sheet string) string {
	if sheet == "" {
		return ""
	}
	if strings.ContainsAny(sheet, " !") {
		return "'" + sheet + "'!"
	}
	return sheet + "!"
}

func refText(row, col int, absRow, absCol bool) string {
	var sb strings.Builder
	if absCol {
		sb.WriteByte('$')
	}
	c := col
	letters := make([]byte, 0, 3)
	for {
		letters = append([]byte{byte('A' + c%26)}, letters...)
		c = c/26 - 1
		if c < 0 {
			break
		}
	}
	sb.Write(letters)
	if absRow {
		sb.WriteByte('$')
	}
	sb.WriteString(strconv.Itoa(row + 1))
	return sb.String()
}
