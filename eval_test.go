package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evalText parses and evaluates a formula body against the workbook's
// current calculated values, without running a full pass.
func evalText(t *testing.T, wb *Workbook, formula string) CellValue {
	t.Helper()
	node, err := parseFormula(formula)
	require.NoError(t, err)
	ctx := &calcContext{env: wb, base: 0, lookup: wb.calculatedValue}
	return evalNode(ctx, node)
}

func TestEval_Arithmetic(t *testing.T) {
	wb := testWorkbook(t)
	cases := []struct {
		formula string
		want    float64
	}{
		{"1+2", 3},
		{"10-4", 6},
		{"6*7", 42},
		{"9/3", 3},
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"2^10", 1024},
		{"2^3^2", 512},
		{"-5+3", -2},
		{"50%", 0.5},
		{"200%%", 0.02},
		{"1e2+1", 101},
	}
	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			v := evalText(t, wb, tc.formula)
			require.Equal(t, KindNumber, v.Kind, "got %s", v.Display())
			assert.InDelta(t, tc.want, v.Number, 1e-9)
		})
	}
}

func TestEval_Comparisons(t *testing.T) {
	wb := testWorkbook(t)
	cases := []struct {
		formula string
		want    bool
	}{
		{"1<2", true},
		{"2<=2", true},
		{"3>2", true},
		{"2>=3", false},
		{"1=1", true},
		{"1<>1", false},
		{`"abc"="ABC"`, true},
		{`"a"<"b"`, true},
		{`1="a"`, false},
		{`1<>"a"`, true},
		{"TRUE>FALSE", true},
		{"0=FALSE", false},
	}
	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			v := evalText(t, wb, tc.formula)
			require.Equal(t, KindBool, v.Kind, "got %s", v.Display())
			assert.Equal(t, tc.want, v.Bool)
		})
	}
}

func TestEval_Concatenation(t *testing.T) {
	wb := testWorkbook(t)
	assert.Equal(t, TextValue("ab"), evalText(t, wb, `"a"&"b"`))
	assert.Equal(t, TextValue("x1"), evalText(t, wb, `"x"&1`))
	assert.Equal(t, TextValue("TRUE!"), evalText(t, wb, `TRUE&"!"`))
}

func TestEval_Coercion(t *testing.T) {
	wb := testWorkbook(t)

	// booleans coerce to 0/1 in arithmetic
	assert.Equal(t, NumberValue(3), evalText(t, wb, "TRUE+2"))
	assert.Equal(t, NumberValue(0), evalText(t, wb, "FALSE*5"))

	// text operands of arithmetic are a type error
	assert.Equal(t, ErrorValue(TypeMismatch), evalText(t, wb, `"a"+1`))
	assert.Equal(t, ErrorValue(TypeMismatch), evalText(t, wb, `1*"x"`))

	// empty cells read as 0
	assert.Equal(t, NumberValue(5), evalText(t, wb, "A1+5"))
}

func TestEval_DivideByZero(t *testing.T) {
	wb := testWorkbook(t)
	assert.Equal(t, ErrorValue(DivideByZero), evalText(t, wb, "1/0"))
	assert.Equal(t, ErrorValue(DivideByZero), evalText(t, wb, "1/A1"), "empty divisor reads as 0")
}

func TestEval_ErrorPropagationLeftToRight(t *testing.T) {
	wb := testWorkbook(t)

	// the left operand's error wins
	assert.Equal(t, ErrorValue(DivideByZero), evalText(t, wb, `1/0+"a"*1`))
	assert.Equal(t, ErrorValue(TypeMismatch), evalText(t, wb, `"a"*1+1/0`))

	// errors pass through functions unchanged
	assert.Equal(t, ErrorValue(DivideByZero), evalText(t, wb, "SUM(1,1/0,2)"))
	assert.Equal(t, ErrorValue(DivideByZero), evalText(t, wb, "ABS(1/0)"))
}

func TestEval_UnknownFunction(t *testing.T) {
	wb := testWorkbook(t)
	assert.Equal(t, ErrorValue(UnknownName), evalText(t, wb, "NOSUCHFN(1)"))
}

func TestEval_UnknownSheetReference(t *testing.T) {
	wb := testWorkbook(t)
	assert.Equal(t, ErrorValue(InvalidReference), evalText(t, wb, "Missing!A1"))
}

func TestEval_UnknownName(t *testing.T) {
	wb := testWorkbook(t)
	assert.Equal(t, ErrorValue(UnknownName), evalText(t, wb, "Undefined"))
}

func TestEval_BareRangeIsTypeError(t *testing.T) {
	wb := testWorkbook(t)
	assert.Equal(t, ErrorValue(TypeMismatch), evalText(t, wb, "A1:A3+1"))
}

func TestEval_IfIsLazy(t *testing.T) {
	wb := testWorkbook(t)

	// the untaken branch would divide by zero; it must not be evaluated
	assert.Equal(t, NumberValue(1), evalText(t, wb, "IF(TRUE,1,1/0)"))
	assert.Equal(t, NumberValue(2), evalText(t, wb, "IF(FALSE,1/0,2)"))

	// the taken branch's error still surfaces
	assert.Equal(t, ErrorValue(DivideByZero), evalText(t, wb, "IF(TRUE,1/0,2)"))
}

func TestEval_IfConditionCoercion(t *testing.T) {
	wb := testWorkbook(t)
	assert.Equal(t, NumberValue(1), evalText(t, wb, "IF(5,1,2)"))
	assert.Equal(t, NumberValue(2), evalText(t, wb, "IF(0,1,2)"))
	assert.Equal(t, ErrorValue(TypeMismatch), evalText(t, wb, `IF("yes",1,2)`))
	assert.Equal(t, BoolValue(false), evalText(t, wb, "IF(FALSE,1)"))
}

func TestEval_SumSkipsEmptyAndText(t *testing.T) {
	wb := testWorkbook(t)
	require.NoError(t, wb.SetCell(addr(0, 0, 0), NumberValue(1)))   // A1
	require.NoError(t, wb.SetCell(addr(0, 1, 0), TextValue("x")))   // A2
	require.NoError(t, wb.SetCell(addr(0, 3, 0), NumberValue(4)))   // A4, A3 empty

	assert.Equal(t, NumberValue(5), evalText(t, wb, "SUM(A1:A4)"))
}

func TestEval_AverageDenominatorSkipsEmptyAndText(t *testing.T) {
	wb := testWorkbook(t)
	require.NoError(t, wb.SetCell(addr(0, 0, 0), NumberValue(2)))
	require.NoError(t, wb.SetCell(addr(0, 1, 0), TextValue("skip")))
	require.NoError(t, wb.SetCell(addr(0, 2, 0), NumberValue(4)))

	assert.Equal(t, NumberValue(3), evalText(t, wb, "AVERAGE(A1:A10)"))
}

func TestEval_AverageOfNothingIsDivideByZero(t *testing.T) {
	wb := testWorkbook(t)
	assert.Equal(t, ErrorValue(DivideByZero), evalText(t, wb, "AVERAGE(A1:A3)"))
}

func TestEval_Builtins(t *testing.T) {
	wb := testWorkbook(t)
	require.NoError(t, wb.SetCell(addr(0, 0, 0), NumberValue(3)))
	require.NoError(t, wb.SetCell(addr(0, 1, 0), NumberValue(-7)))
	require.NoError(t, wb.SetCell(addr(0, 2, 0), TextValue("note")))

	cases := []struct {
		formula string
		want    CellValue
	}{
		{"MIN(A1:A2)", NumberValue(-7)},
		{"MAX(A1:A2,10)", NumberValue(10)},
		{"COUNT(A1:A3)", NumberValue(2)},
		{"COUNTA(A1:A4)", NumberValue(3)},
		{"ABS(A2)", NumberValue(7)},
		{"ROUND(2.567,2)", NumberValue(2.57)},
		{"ROUND(2.5)", NumberValue(3)},
		{"SQRT(16)", NumberValue(4)},
		{"SQRT(-1)", ErrorValue(NumericOverflow)},
		{"POWER(2,8)", NumberValue(256)},
		{"MOD(10,3)", NumberValue(1)},
		{"MOD(-10,3)", NumberValue(2)},
		{"MOD(1,0)", ErrorValue(DivideByZero)},
		{"AND(TRUE,1)", BoolValue(true)},
		{"AND(TRUE,0)", BoolValue(false)},
		{"OR(FALSE,0)", BoolValue(false)},
		{"OR(FALSE,2)", BoolValue(true)},
		{"NOT(TRUE)", BoolValue(false)},
		{`CONCATENATE("a",1,TRUE)`, TextValue("a1TRUE")},
		{`LEN("hello")`, NumberValue(5)},
		{`UPPER("abc")`, TextValue("ABC")},
		{`LOWER("ABC")`, TextValue("abc")},
		{`TRIM("  x  ")`, TextValue("x")},
	}
	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			got := evalText(t, wb, tc.formula)
			if tc.want.Kind == KindNumber {
				require.Equal(t, KindNumber, got.Kind, "got %s", got.Display())
				assert.InDelta(t, tc.want.Number, got.Number, 1e-9)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEval_NamedConstantExpandsFresh(t *testing.T) {
	wb := testWorkbook(t)
	require.NoError(t, wb.DefineName("Rate", "0.5"))
	assert.Equal(t, NumberValue(50), evalText(t, wb, "100*Rate"))

	// redefinition is visible without touching the formula
	require.NoError(t, wb.DefineName("Rate", "0.25"))
	assert.Equal(t, NumberValue(25), evalText(t, wb, "100*Rate"))
}

func TestEval_NamedFormulaDefinition(t *testing.T) {
	wb := testWorkbook(t)
	require.NoError(t, wb.DefineName("Base", "=10+20+30"))
	assert.Equal(t, NumberValue(61), evalText(t, wb, "Base+1"))
}

func TestEval_NamedRangeFlattensInFunctions(t *testing.T) {
	wb := testWorkbook(t)
	require.NoError(t, wb.SetCell(addr(0, 0, 0), NumberValue(1)))
	require.NoError(t, wb.SetCell(addr(0, 1, 0), NumberValue(2)))
	require.NoError(t, wb.DefineName("Inputs", "Sheet1!A1:A2"))

	assert.Equal(t, NumberValue(3), evalText(t, wb, "SUM(Inputs)"))
}

func TestEval_SelfReferentialNameTerminates(t *testing.T) {
	wb := testWorkbook(t)
	require.NoError(t, wb.DefineName("Loop", "=Loop+1"))
	assert.Equal(t, ErrorValue(UnknownName), evalText(t, wb, "Loop"))
}
