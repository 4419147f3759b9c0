package gridcalc

import (
	"math"
	"strconv"
	"strings"
)

// valueLookup returns a precedent's current calculated value: the cached
// result for a formula cell (Empty if never calculated), the direct
// value otherwise.
type valueLookup func(CellAddress) CellValue

// calcContext carries everything one evaluation needs: the resolution
// environment, the authoring sheet of the formula being evaluated, and
// the precedent lookup. passing it explicitly keeps calculation passes
// re-entrant across workbook instances; there is no process-wide
// calculation state.
type calcContext struct {
	env    resolveEnv
	base   int
	lookup valueLookup
	depth  int // name expansion depth
}

// evalNode executes one expression tree. error values propagate
// unchanged, left to right; evaluation never fails as a Go error.
func evalNode(ctx *calcContext, node Node) CellValue {
	switch n := node.(type) {
	case *NumberNode:
		return NumberValue(n.Value)
	case *TextNode:
		return TextValue(n.Value)
	case *BoolNode:
		return BoolValue(n.Value)

	case *RefNode:
		addr, kind := resolveCell(ctx.env, ctx.base, n)
		if kind != errNone {
			return ErrorValue(kind)
		}
		return ctx.lookup(addr)

	case *RangeRefNode:
		// a bare range has no scalar value outside a function argument
		return ErrorValue(TypeMismatch)

	case *NameNode:
		if ctx.depth >= maxNameDepth {
			return ErrorValue(UnknownName)
		}
		expansion, kind := expandName(ctx.env, n.Name)
		if kind != errNone {
			return ErrorValue(kind)
		}
		sub := *ctx
		sub.depth++
		return evalNode(&sub, expansion)

	case *UnaryNode:
		return evalUnary(ctx, n)
	case *BinaryNode:
		return evalBinary(ctx, n)
	case *CallNode:
		return evalCall(ctx, n)
	}
	return ErrorValue(TypeMismatch)
}

func evalUnary(ctx *calcContext, n *UnaryNode) CellValue {
	v := evalNode(ctx, n.Operand)
	if v.IsError() {
		return v
	}
	f, kind := toNumber(v)
	if kind != errNone {
		return ErrorValue(kind)
	}
	switch n.Op {
	case "-":
		return NumberValue(-f)
	case "%":
		return NumberValue(f / 100)
	}
	return NumberValue(f)
}

func evalBinary(ctx *calcContext, n *BinaryNode) CellValue {
	left := evalNode(ctx, n.Left)
	if left.IsError() {
		return left
	}
	right := evalNode(ctx, n.Right)
	if right.IsError() {
		return right
	}

	switch n.Op {
	case "&":
		ls, kind := toText(left)
		if kind != errNone {
			return ErrorValue(kind)
		}
		rs, kind := toText(right)
		if kind != errNone {
			return ErrorValue(kind)
		}
		return TextValue(ls + rs)

	case "=", "<>", "<", "<=", ">", ">=":
		return evalComparison(n.Op, left, right)
	}

	lf, kind := toNumber(left)
	if kind != errNone {
		return ErrorValue(kind)
	}
	rf, kind := toNumber(right)
	if kind != errNone {
		return ErrorValue(kind)
	}

	var result float64
	switch n.Op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return ErrorValue(DivideByZero)
		}
		result = lf / rf
	case "^":
		result = math.Pow(lf, rf)
	default:
		return ErrorValue(TypeMismatch)
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return ErrorValue(NumericOverflow)
	}
	return NumberValue(result)
}

// evalComparison compares two non-error values. equality across kinds is
// simply false; ordering across kinds is a type error. Empty coerces to
// the other side's zero value, text compares case-insensitively.
func evalComparison(op string, left, right CellValue) CellValue {
	cmp, comparable := compareValues(left, right)
	switch op {
	case "=":
		return BoolValue(comparable && cmp == 0)
	case "<>":
		return BoolValue(!comparable || cmp != 0)
	}
	if !comparable {
		return ErrorValue(TypeMismatch)
	}
	switch op {
	case "<":
		return BoolValue(cmp < 0)
	case "<=":
		return BoolValue(cmp <= 0)
	case ">":
		return BoolValue(cmp > 0)
	case ">=":
		return BoolValue(cmp >= 0)
	}
	return ErrorValue(TypeMismatch)
}

func compareValues(left, right CellValue) (int, bool) {
	// Empty takes the zero value of the other side's kind
	if left.IsEmpty() {
		left = zeroOf(right.Kind)
	}
	if right.IsEmpty() {
		right = zeroOf(left.Kind)
	}
	if left.Kind != right.Kind {
		return 0, false
	}
	switch left.Kind {
	case KindEmpty:
		return 0, true
	case KindNumber:
		switch {
		case left.Number < right.Number:
			return -1, true
		case left.Number > right.Number:
			return 1, true
		}
		return 0, true
	case KindText:
		return strings.Compare(strings.ToUpper(left.Text), strings.ToUpper(right.Text)), true
	case KindBool:
		lb, rb := 0, 0
		if left.Bool {
			lb = 1
		}
		if right.Bool {
			rb = 1
		}
		return lb - rb, true
	}
	return 0, false
}

func zeroOf(kind ValueKind) CellValue {
	switch kind {
	case KindNumber:
		return NumberValue(0)
	case KindText:
		return TextValue("")
	case KindBool:
		return BoolValue(false)
	}
	return EmptyValue()
}

// evalCall dispatches a function call. IF is handled here rather than in
// the registry because its branches are lazy: the untaken branch is
// never evaluated, so an error inside it cannot poison the result.
func evalCall(ctx *calcContext, n *CallNode) CellValue {
	if n.Name == "IF" {
		return evalIf(ctx, n)
	}
	fn, ok := builtins[n.Name]
	if !ok {
		return ErrorValue(UnknownName)
	}
	var args []CellValue
	for _, arg := range n.Args {
		args = append(args, evalArgValues(ctx, arg)...)
	}
	return fn(args)
}

func evalIf(ctx *calcContext, n *CallNode) CellValue {
	if len(n.Args) < 2 || len(n.Args) > 3 {
		return ErrorValue(TypeMismatch)
	}
	cond := evalNode(ctx, n.Args[0])
	if cond.IsError() {
		return cond
	}
	truthy, kind := isTruthy(cond)
	if kind != errNone {
		return ErrorValue(kind)
	}
	if truthy {
		return evalNode(ctx, n.Args[1])
	}
	if len(n.Args) == 3 {
		return evalNode(ctx, n.Args[2])
	}
	return BoolValue(false)
}

// evalArgValues evaluates one function argument, flattening range
// arguments (and names that expand to ranges) into the covered cells'
// values in row-major order.
func evalArgValues(ctx *calcContext, arg Node) []CellValue {
	switch n := arg.(type) {
	case *RangeRefNode:
		r, kind := resolveRange(ctx.env, ctx.base, n)
		if kind != errNone {
			return []CellValue{ErrorValue(kind)}
		}
		var out []CellValue
		for addr := range r.Cells() {
			out = append(out, ctx.lookup(addr))
		}
		return out
	case *NameNode:
		if ctx.depth >= maxNameDepth {
			return []CellValue{ErrorValue(UnknownName)}
		}
		expansion, kind := expandName(ctx.env, n.Name)
		if kind != errNone {
			return []CellValue{ErrorValue(kind)}
		}
		sub := *ctx
		sub.depth++
		return evalArgValues(&sub, expansion)
	}
	return []CellValue{evalNode(ctx, arg)}
}

// toNumber coerces a value for numeric operators: booleans become 0/1,
// Empty becomes 0, text is rejected with a type error.
func toNumber(v CellValue) (float64, ErrorKind) {
	switch v.Kind {
	case KindNumber:
		return v.Number, errNone
	case KindBool:
		if v.Bool {
			return 1, errNone
		}
		return 0, errNone
	case KindEmpty:
		return 0, errNone
	case KindError:
		return 0, v.Err
	}
	return 0, TypeMismatch
}

// toText coerces a value for concatenation and text functions.
func toText(v CellValue) (string, ErrorKind) {
	switch v.Kind {
	case KindText:
		return v.Text, errNone
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64), errNone
	case KindBool:
		if v.Bool {
			return "TRUE", errNone
		}
		return "FALSE", errNone
	case KindEmpty:
		return "", errNone
	case KindError:
		return "", v.Err
	}
	return "", TypeMismatch
}

// isTruthy coerces a value to a condition: numbers are true when
// non-zero, Empty is false, text is a type error.
func isTruthy(v CellValue) (bool, ErrorKind) {
	switch v.Kind {
	case KindBool:
		return v.Bool, errNone
	case KindNumber:
		return v.Number != 0, errNone
	case KindEmpty:
		return false, errNone
	case KindError:
		return false, v.Err
	}
	return false, TypeMismatch
}
