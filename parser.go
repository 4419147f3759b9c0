package gridcalc

import (
	"fmt"
	"strconv"
	"strings"
)

// parser is a recursive-descent parser over the lexed token stream.
// precedence, loosest first: comparison, concatenation, additive,
// multiplicative, power (right-associative), unary prefix, percent
// postfix, primary.
type parser struct {
	tokens []token
	pos    int
}

// parseFormula parses the body of a formula (text after the "=" marker)
// into an expression tree. all failures here are write-time failures; a
// parsed tree never fails structurally at calculation time.
func parseFormula(text string) (Node, error) {
	tokens, err := lexFormula(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("unexpected %q at position %d", p.tokens[p.pos].text, p.tokens[p.pos].pos)
	}
	return node, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) peekOp(ops ...string) (string, bool) {
	tok, ok := p.peek()
	if !ok || tok.typ != tokenOp {
		return "", false
	}
	for _, op := range ops {
		if tok.text == op {
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseConcatenation()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekOp("=", "<>", "<", "<=", ">", ">=")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseConcatenation()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseConcatenation() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.peekOp("&"); !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: "&", Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekOp("+", "-")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekOp("*", "/")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parsePower() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.peekOp("^"); !ok {
		return left, nil
	}
	p.pos++
	// right-associative
	right, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Op: "^", Left: left, Right: right}, nil
}

func (p *parser) parseUnary() (Node, error) {
	if op, ok := p.peekOp("+", "-"); ok {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == "+" {
			return operand, nil
		}
		return &UnaryNode{Op: "-", Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.peekOp("%"); !ok {
			return node, nil
		}
		p.pos++
		node = &UnaryNode{Op: "%", Postfix: true, Operand: node}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of formula")
	}

	switch tok.typ {
	case tokenNumber:
		p.pos++
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok.text, tok.pos)
		}
		return &NumberNode{Value: f}, nil

	case tokenString:
		p.pos++
		return &TextNode{Value: tok.text}, nil

	case tokenBool:
		p.pos++
		return &BoolNode{Value: tok.text == "TRUE"}, nil

	case tokenCell:
		p.pos++
		return parseCellToken(tok)

	case tokenRange:
		p.pos++
		return parseRangeToken(tok)

	case tokenIdent:
		p.pos++
		return &NameNode{Name: tok.text}, nil

	case tokenFunc:
		return p.parseCall()

	case tokenLParen:
		p.pos++
		inner, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		next, ok := p.peek()
		if !ok || next.typ != tokenRParen {
			return nil, fmt.Errorf("expected ')' at position %d", tok.pos)
		}
		p.pos++
		return inner, nil
	}

	return nil, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
}

func (p *parser) parseCall() (Node, error) {
	name := p.tokens[p.pos].text
	p.pos++ // function name
	open, ok := p.peek()
	if !ok || open.typ != tokenLParen {
		return nil, fmt.Errorf("expected '(' after %q", name)
	}
	p.pos++

	var args []Node
	if next, ok := p.peek(); ok && next.typ == tokenRParen {
		p.pos++
		return &CallNode{Name: strings.ToUpper(name)}, nil
	}
	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		next, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated call to %q", name)
		}
		switch next.typ {
		case tokenComma:
			p.pos++
		case tokenRParen:
			p.pos++
			return &CallNode{Name: strings.ToUpper(name), Args: args}, nil
		default:
			return nil, fmt.Errorf("unexpected %q in call to %q", next.text, name)
		}
	}
}

// parseCellToken decodes a lexed cell token ("B2", "Data!A1",
// "'My Sheet'!$A$1") into a RefNode.
func parseCellToken(tok token) (*RefNode, error) {
	sheet, rest := splitSheetRef(tok.text)
	row, col, absRow, absCol, err := parseCoord(rest)
	if err != nil {
		return nil, fmt.Errorf("%v at position %d", err, tok.pos)
	}
	return &RefNode{Sheet: sheet, Row: row, Col: col, AbsRow: absRow, AbsCol: absCol}, nil
}

// parseRangeToken decodes a lexed range token into a RangeRefNode.
func parseRangeToken(tok token) (*RangeRefNode, error) {
	sheet, rest := splitSheetRef(tok.text)
	first, second, ok := strings.Cut(rest, ":")
	if !ok {
		return nil, fmt.Errorf("malformed range %q at position %d", tok.text, tok.pos)
	}
	sr, sc, asr, asc, err := parseCoord(first)
	if err != nil {
		return nil, fmt.Errorf("%v at position %d", err, tok.pos)
	}
	er, ec, aer, aec, err := parseCoord(second)
	if err != nil {
		return nil, fmt.Errorf("%v at position %d", err, tok.pos)
	}
	return &RangeRefNode{
		Sheet:       sheet,
		StartRow:    sr,
		StartCol:    sc,
		EndRow:      er,
		EndCol:      ec,
		AbsStartRow: asr,
		AbsStartCol: asc,
		AbsEndRow:   aer,
		AbsEndCol:   aec,
	}, nil
}

// splitSheetRef splits "Sheet!A1" / "'My Sheet'!A1" into sheet name and
// coordinate text. no sheet prefix yields an empty sheet name.
func splitSheetRef(text string) (sheet, rest string) {
	idx := strings.LastIndexByte(text, '!')
	if idx < 0 {
		return "", text
	}
	sheet = text[:idx]
	rest = text[idx+1:]
	if len(sheet) >= 2 && sheet[0] == '\'' && sheet[len(sheet)-1] == '\'' {
		sheet = sheet[1 : len(sheet)-1]
	}
	return sheet, rest
}

// parseCoord decodes one $?letters$?digits coordinate into zero-based
// row/column plus absolute flags. column letters are case-insensitive and
// positional base-26 (A=0, Z=25, AA=26).
func parseCoord(text string) (row, col int, absRow, absCol bool, err error) {
	i := 0
	if i < len(text) && text[i] == '$' {
		absCol = true
		i++
	}
	colStart := i
	for i < len(text) && isAsciiLetter(rune(text[i])) {
		i++
	}
	if i == colStart || i-colStart > 3 {
		return 0, 0, false, false, fmt.Errorf("malformed cell reference %q", text)
	}
	col = 0
	for _, ch := range strings.ToUpper(text[colStart:i]) {
		col = col*26 + int(ch-'A') + 1
	}
	col--
	if i < len(text) && text[i] == '$' {
		absRow = true
		i++
	}
	rowStart := i
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == rowStart || i != len(text) {
		return 0, 0, false, false, fmt.Errorf("malformed cell reference %q", text)
	}
	n, convErr := strconv.Atoi(text[rowStart:])
	if convErr != nil || n < 1 {
		return 0, 0, false, false, fmt.Errorf("malformed cell reference %q", text)
	}
	return n - 1, col, absRow, absCol, nil
}

// ParseCellRef decodes an A1-style reference (no sheet prefix) into
// zero-based row and column. exposed for callers addressing cells by
// their display form.
func ParseCellRef(ref string) (row, col int, err error) {
	row, col, _, _, err = parseCoord(ref)
	return row, col, err
}
