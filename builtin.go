package gridcalc

import (
	"math"
	"strings"
)

// builtinFunc executes one built-in over already-evaluated arguments.
// range arguments arrive pre-flattened into individual cell values.
type builtinFunc func(args []CellValue) CellValue

// builtins is the name-indexed dispatch table. IF is absent on purpose:
// its lazy branches are handled in the evaluator before arguments are
// evaluated. an unknown name yields #NAME?.
var builtins = map[string]builtinFunc{
	"SUM":         fnSum,
	"AVERAGE":     fnAverage,
	"MIN":         fnMin,
	"MAX":         fnMax,
	"COUNT":       fnCount,
	"COUNTA":      fnCountA,
	"ABS":         fnAbs,
	"ROUND":       fnRound,
	"SQRT":        fnSqrt,
	"POWER":       fnPower,
	"MOD":         fnMod,
	"AND":         fnAnd,
	"OR":          fnOr,
	"NOT":         fnNot,
	"CONCATENATE": fnConcatenate,
	"LEN":         fnLen,
	"UPPER":       fnUpper,
	"LOWER":       fnLower,
	"TRIM":        fnTrim,
}

// firstError returns the leftmost error argument, if any.
func firstError(args []CellValue) (CellValue, bool) {
	for _, a := range args {
		if a.IsError() {
			return a, true
		}
	}
	return CellValue{}, false
}

// numericArgs collects the numeric view of the arguments per aggregate
// semantics: Empty and Text are skipped, booleans coerce to 0/1.
func numericArgs(args []CellValue) []float64 {
	var out []float64
	for _, a := range args {
		switch a.Kind {
		case KindNumber:
			out = append(out, a.Number)
		case KindBool:
			if a.Bool {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out
}

func fnSum(args []CellValue) CellValue {
	if err, ok := firstError(args); ok {
		return err
	}
	total := 0.0
	for _, f := range numericArgs(args) {
		total += f
	}
	return NumberValue(total)
}

func fnAverage(args []CellValue) CellValue {
	if err, ok := firstError(args); ok {
		return err
	}
	nums := numericArgs(args)
	if len(nums) == 0 {
		return ErrorValue(DivideByZero)
	}
	total := 0.0
	for _, f := range nums {
		total += f
	}
	return NumberValue(total / float64(len(nums)))
}

func fnMin(args []CellValue) CellValue {
	if err, ok := firstError(args); ok {
		return err
	}
	nums := numericArgs(args)
	if len(nums) == 0 {
		return NumberValue(0)
	}
	m := nums[0]
	for _, f := range nums[1:] {
		m = math.Min(m, f)
	}
	return NumberValue(m)
}

func fnMax(args []CellValue) CellValue {
	if err, ok := firstError(args); ok {
		return err
	}
	nums := numericArgs(args)
	if len(nums) == 0 {
		return NumberValue(0)
	}
	m := nums[0]
	for _, f := range nums[1:] {
		m = math.Max(m, f)
	}
	return NumberValue(m)
}

// COUNT counts numeric values only.
func fnCount(args []CellValue) CellValue {
	if err, ok := firstError(args); ok {
		return err
	}
	n := 0
	for _, a := range args {
		if a.Kind == KindNumber {
			n++
		}
	}
	return NumberValue(float64(n))
}

// COUNTA counts all non-empty values.
func fnCountA(args []CellValue) CellValue {
	n := 0
	for _, a := range args {
		if !a.IsEmpty() {
			n++
		}
	}
	return NumberValue(float64(n))
}

func fnAbs(args []CellValue) CellValue {
	f, kind := singleNumber(args)
	if kind != errNone {
		return ErrorValue(kind)
	}
	return NumberValue(math.Abs(f))
}

// ROUND rounds half away from zero; the digit count defaults to 0.
func fnRound(args []CellValue) CellValue {
	if err, ok := firstError(args); ok {
		return err
	}
	if len(args) < 1 || len(args) > 2 {
		return ErrorValue(TypeMismatch)
	}
	f, kind := toNumber(args[0])
	if kind != errNone {
		return ErrorValue(kind)
	}
	digits := 0.0
	if len(args) == 2 {
		digits, kind = toNumber(args[1])
		if kind != errNone {
			return ErrorValue(kind)
		}
	}
	scale := math.Pow(10, math.Trunc(digits))
	return NumberValue(math.Round(f*scale) / scale)
}

func fnSqrt(args []CellValue) CellValue {
	f, kind := singleNumber(args)
	if kind != errNone {
		return ErrorValue(kind)
	}
	if f < 0 {
		return ErrorValue(NumericOverflow)
	}
	return NumberValue(math.Sqrt(f))
}

func fnPower(args []CellValue) CellValue {
	base, exp, kind := twoNumbers(args)
	if kind != errNone {
		return ErrorValue(kind)
	}
	result := math.Pow(base, exp)
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return ErrorValue(NumericOverflow)
	}
	return NumberValue(result)
}

// MOD follows spreadsheet semantics: the result takes the divisor's sign.
func fnMod(args []CellValue) CellValue {
	a, b, kind := twoNumbers(args)
	if kind != errNone {
		return ErrorValue(kind)
	}
	if b == 0 {
		return ErrorValue(DivideByZero)
	}
	return NumberValue(a - b*math.Floor(a/b))
}

func fnAnd(args []CellValue) CellValue {
	if err, ok := firstError(args); ok {
		return err
	}
	if len(args) == 0 {
		return ErrorValue(TypeMismatch)
	}
	for _, a := range args {
		truthy, kind := isTruthy(a)
		if kind != errNone {
			return ErrorValue(kind)
		}
		if !truthy {
			return BoolValue(false)
		}
	}
	return BoolValue(true)
}

func fnOr(args []CellValue) CellValue {
	if err, ok := firstError(args); ok {
		return err
	}
	if len(args) == 0 {
		return ErrorValue(TypeMismatch)
	}
	for _, a := range args {
		truthy, kind := isTruthy(a)
		if kind != errNone {
			return ErrorValue(kind)
		}
		if truthy {
			return BoolValue(true)
		}
	}
	return BoolValue(false)
}

func fnNot(args []CellValue) CellValue {
	if err, ok := firstError(args); ok {
		return err
	}
	if len(args) != 1 {
		return ErrorValue(TypeMismatch)
	}
	truthy, kind := isTruthy(args[0])
	if kind != errNone {
		return ErrorValue(kind)
	}
	return BoolValue(!truthy)
}

func fnConcatenate(args []CellValue) CellValue {
	var sb strings.Builder
	for _, a := range args {
		s, kind := toText(a)
		if kind != errNone {
			return ErrorValue(kind)
		}
		sb.WriteString(s)
	}
	return TextValue(sb.String())
}

func fnLen(args []CellValue) CellValue {
	s, kind := singleText(args)
	if kind != errNone {
		return ErrorValue(kind)
	}
	return NumberValue(float64(len([]rune(s))))
}

func fnUpper(args []CellValue) CellValue {
	s, kind := singleText(args)
	if kind != errNone {
		return ErrorValue(kind)
	}
	return TextValue(strings.ToUpper(s))
}

func fnLower(args []CellValue) CellValue {
	s, kind := singleText(args)
	if kind != errNone {
		return ErrorValue(kind)
	}
	return TextValue(strings.ToLower(s))
}

func fnTrim(args []CellValue) CellValue {
	s, kind := singleText(args)
	if kind != errNone {
		return ErrorValue(kind)
	}
	return TextValue(strings.TrimSpace(s))
}

func singleNumber(args []CellValue) (float64, ErrorKind) {
	if err, ok := firstError(args); ok {
		return 0, err.Err
	}
	if len(args) != 1 {
		return 0, TypeMismatch
	}
	return toNumber(args[0])
}

func twoNumbers(args []CellValue) (float64, float64, ErrorKind) {
	if err, ok := firstError(args); ok {
		return 0, 0, err.Err
	}
	if len(args) != 2 {
		return 0, 0, TypeMismatch
	}
	a, kind := toNumber(args[0])
	if kind != errNone {
		return 0, 0, kind
	}
	b, kind := toNumber(args[1])
	if kind != errNone {
		return 0, 0, kind
	}
	return a, b, errNone
}

func singleText(args []CellValue) (string, ErrorKind) {
	if err, ok := firstError(args); ok {
		return "", err.Err
	}
	if len(args) != 1 {
		return "", TypeMismatch
	}
	return toText(args[0])
}
