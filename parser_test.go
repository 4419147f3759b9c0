package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormula_ValidFormulas(t *testing.T) {
	valid := []string{
		"1",
		"1.5",
		"1e3",
		"1.5E-2",
		".5",
		`"hello"`,
		`"say ""hi"""`,
		"TRUE",
		"FALSE",
		"A1",
		"$A$1",
		"A$1",
		"$A1",
		"AA100",
		"A1:B10",
		"B2:A1",
		"Sheet1!A1",
		"Sheet1!$A$1",
		"'My Sheet'!A1",
		"'My Sheet'!A1:B2",
		"Data!A1:A10",
		"1+2",
		"1+2*3",
		"(1+2)*3",
		"-A1",
		"--1",
		"+5",
		"2^3^2",
		"50%",
		"10%%",
		`"a"&"b"`,
		"1<2",
		"1<=2",
		"1>2",
		"1>=2",
		"1=2",
		"1<>2",
		"SUM(A1:A10)",
		"SUM(A1,B1,5)",
		"SUM()",
		"IF(A1>0,1,-1)",
		"IF(TRUE,1)",
		"AVERAGE(A1:B2)",
		"TaxRate",
		"A1*TaxRate",
		"SUM(A1:A3)+MAX(B1,B2)",
		"Tax_Rate.v2",
	}
	for _, formula := range valid {
		t.Run(formula, func(t *testing.T) {
			node, err := parseFormula(formula)
			require.NoError(t, err)
			require.NotNil(t, node)
		})
	}
}

func TestParseFormula_InvalidFormulas(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"1+",
		"*1",
		"(1",
		"1)",
		"()",
		"1 2",
		`"unclosed`,
		"'unclosed!A1",
		"''!A1",
		"A1:",
		"Sheet1!",
		"SUM(1,)",
		"SUM(,1)",
		"SUM(1",
		"1..2",
		"#REF!",
		"A1 B1",
		"<>1",
	}
	for _, formula := range invalid {
		t.Run(formula, func(t *testing.T) {
			_, err := parseFormula(formula)
			assert.Error(t, err)
		})
	}
}

func TestParseFormula_Precedence(t *testing.T) {
	node, err := parseFormula("1+2*3")
	require.NoError(t, err)

	add, ok := node.(*BinaryNode)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)

	mul, ok := add.Right.(*BinaryNode)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func TestParseFormula_PowerIsRightAssociative(t *testing.T) {
	node, err := parseFormula("2^3^2")
	require.NoError(t, err)

	outer, ok := node.(*BinaryNode)
	require.True(t, ok)
	assert.Equal(t, "^", outer.Op)

	// 2^(3^2), not (2^3)^2
	_, leftIsNumber := outer.Left.(*NumberNode)
	assert.True(t, leftIsNumber)
	inner, ok := outer.Right.(*BinaryNode)
	require.True(t, ok)
	assert.Equal(t, "^", inner.Op)
}

func TestParseFormula_ComparisonBindsLoosest(t *testing.T) {
	node, err := parseFormula(`A1+1>B1&"x"`)
	require.NoError(t, err)

	cmp, ok := node.(*BinaryNode)
	require.True(t, ok)
	assert.Equal(t, ">", cmp.Op)
}

func TestParseFormula_CellReferences(t *testing.T) {
	cases := []struct {
		formula string
		sheet   string
		row     int
		col     int
		absRow  bool
		absCol  bool
	}{
		{"A1", "", 0, 0, false, false},
		{"b2", "", 1, 1, false, false},
		{"Z9", "", 8, 25, false, false},
		{"AA10", "", 9, 26, false, false},
		{"$C$3", "", 2, 2, true, true},
		{"C$3", "", 2, 2, true, false},
		{"$C3", "", 2, 2, false, true},
		{"Data!B2", "Data", 1, 1, false, false},
		{"'My Sheet'!$A$1", "My Sheet", 0, 0, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			node, err := parseFormula(tc.formula)
			require.NoError(t, err)
			ref, ok := node.(*RefNode)
			require.True(t, ok)
			assert.Equal(t, tc.sheet, ref.Sheet)
			assert.Equal(t, tc.row, ref.Row)
			assert.Equal(t, tc.col, ref.Col)
			assert.Equal(t, tc.absRow, ref.AbsRow)
			assert.Equal(t, tc.absCol, ref.AbsCol)
		})
	}
}

func TestParseFormula_RangeReferences(t *testing.T) {
	node, err := parseFormula("Data!A1:B10")
	require.NoError(t, err)
	r, ok := node.(*RangeRefNode)
	require.True(t, ok)
	assert.Equal(t, "Data", r.Sheet)
	assert.Equal(t, 0, r.StartRow)
	assert.Equal(t, 0, r.StartCol)
	assert.Equal(t, 9, r.EndRow)
	assert.Equal(t, 1, r.EndCol)
}

func TestParseFormula_IdentifierVsCell(t *testing.T) {
	node, err := parseFormula("TaxRate")
	require.NoError(t, err)
	_, isName := node.(*NameNode)
	assert.True(t, isName)

	node, err = parseFormula("TAX1")
	require.NoError(t, err)
	_, isRef := node.(*RefNode)
	assert.True(t, isRef, "1-3 letters followed by digits is a cell reference")

	node, err = parseFormula("RATE1X")
	require.NoError(t, err)
	_, isName = node.(*NameNode)
	assert.True(t, isName, "trailing letters make it an identifier again")
}

func TestParseFormula_FunctionNamesUppercased(t *testing.T) {
	node, err := parseFormula("sum(1,2)")
	require.NoError(t, err)
	call, ok := node.(*CallNode)
	require.True(t, ok)
	assert.Equal(t, "SUM", call.Name)
	assert.Len(t, call.Args, 2)
}

func TestParseCellRef(t *testing.T) {
	row, col, err := ParseCellRef("B3")
	require.NoError(t, err)
	assert.Equal(t, 2, row)
	assert.Equal(t, 1, col)

	_, _, err = ParseCellRef("3B")
	assert.Error(t, err)
}

func TestFormatCellRef(t *testing.T) {
	assert.Equal(t, "A1", FormatCellRef(0, 0))
	assert.Equal(t, "B3", FormatCellRef(2, 1))
	assert.Equal(t, "Z1", FormatCellRef(0, 25))
	assert.Equal(t, "AA1", FormatCellRef(0, 26))

	// negative coordinates clamp instead of looping
	assert.Equal(t, "A1", FormatCellRef(-5, -3))
}
