package gridcalc

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenType uint8

const (
	tokenEOF tokenType = iota
	tokenNumber
	tokenString
	tokenBool
	tokenCell  // A1-style reference, optionally sheet-qualified and $-absolute
	tokenRange // rectangular reference like A1:B10
	tokenIdent // bare identifier, resolved as a named range/constant
	tokenFunc  // identifier directly followed by an opening paren
	tokenOp    // operator text: + - * / ^ % & = <> < <= > >=
	tokenComma
	tokenLParen
	tokenRParen
)

type token struct {
	typ  tokenType
	text string
	pos  int
}

// lexer scans formula body text into a token stream. it validates paren
// balance; grammatical adjacency is the parser's job.
type lexer struct {
	input      []rune
	pos        int
	parenDepth int
}

// lexFormula tokenizes the body of a formula (the text after the "="
// marker). a scan failure is a write-time parse failure for the caller.
func lexFormula(text string) ([]token, error) {
	lx := &lexer{input: []rune(text)}
	var tokens []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		if tok.typ == tokenEOF {
			break
		}
		tokens = append(tokens, tok)
	}
	if lx.parenDepth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty formula")
	}
	return tokens, nil
}

func (lx *lexer) next() (token, error) {
	for lx.pos < len(lx.input) && lx.input[lx.pos] == ' ' {
		lx.pos++
	}
	if lx.pos >= len(lx.input) {
		return token{typ: tokenEOF, pos: lx.pos}, nil
	}

	start := lx.pos
	ch := lx.input[lx.pos]

	switch {
	case ch >= '0' && ch <= '9' || ch == '.' && lx.peekIsDigit(1):
		return lx.scanNumber()
	case ch == '"':
		return lx.scanString()
	case ch == '\'':
		return lx.scanQuotedSheetRef()
	case unicode.IsLetter(ch) || ch == '_' || ch == '$':
		return lx.scanWord()
	}

	switch ch {
	case '+', '-', '*', '/', '^', '%', '&', '=':
		lx.pos++
		return token{typ: tokenOp, text: string(ch), pos: start}, nil
	case '<':
		lx.pos++
		if lx.pos < len(lx.input) && (lx.input[lx.pos] == '=' || lx.input[lx.pos] == '>') {
			lx.pos++
			return token{typ: tokenOp, text: string(lx.input[start:lx.pos]), pos: start}, nil
		}
		return token{typ: tokenOp, text: "<", pos: start}, nil
	case '>':
		lx.pos++
		if lx.pos < len(lx.input) && lx.input[lx.pos] == '=' {
			lx.pos++
			return token{typ: tokenOp, text: ">=", pos: start}, nil
		}
		return token{typ: tokenOp, text: ">", pos: start}, nil
	case ',':
		lx.pos++
		return token{typ: tokenComma, text: ",", pos: start}, nil
	case '(':
		lx.pos++
		lx.parenDepth++
		return token{typ: tokenLParen, text: "(", pos: start}, nil
	case ')':
		lx.pos++
		lx.parenDepth--
		if lx.parenDepth < 0 {
			return token{}, fmt.Errorf("unexpected ')' at position %d", start)
		}
		return token{typ: tokenRParen, text: ")", pos: start}, nil
	}

	return token{}, fmt.Errorf("unexpected character %q at position %d", ch, start)
}

func (lx *lexer) peekIsDigit(offset int) bool {
	p := lx.pos + offset
	return p < len(lx.input) && lx.input[p] >= '0' && lx.input[p] <= '9'
}

// scanNumber accepts integers, decimals, and scientific notation.
func (lx *lexer) scanNumber() (token, error) {
	start := lx.pos
	for lx.pos < len(lx.input) && lx.input[lx.pos] >= '0' && lx.input[lx.pos] <= '9' {
		lx.pos++
	}
	if lx.pos < len(lx.input) && lx.input[lx.pos] == '.' {
		lx.pos++
		for lx.pos < len(lx.input) && lx.input[lx.pos] >= '0' && lx.input[lx.pos] <= '9' {
			lx.pos++
		}
	}
	if lx.pos < len(lx.input) && (lx.input[lx.pos] == 'e' || lx.input[lx.pos] == 'E') {
		mark := lx.pos
		lx.pos++
		if lx.pos < len(lx.input) && (lx.input[lx.pos] == '+' || lx.input[lx.pos] == '-') {
			lx.pos++
		}
		if lx.pos < len(lx.input) && lx.input[lx.pos] >= '0' && lx.input[lx.pos] <= '9' {
			for lx.pos < len(lx.input) && lx.input[lx.pos] >= '0' && lx.input[lx.pos] <= '9' {
				lx.pos++
			}
		} else {
			// "12E" is the start of something else, not an exponent
			lx.pos = mark
		}
	}
	return token{typ: tokenNumber, text: string(lx.input[start:lx.pos]), pos: start}, nil
}

// scanString accepts a double-quoted string; "" escapes an embedded quote.
// the token text is the unescaped content.
func (lx *lexer) scanString() (token, error) {
	start := lx.pos
	lx.pos++ // opening quote
	var sb strings.Builder
	for lx.pos < len(lx.input) {
		ch := lx.input[lx.pos]
		if ch == '"' {
			if lx.pos+1 < len(lx.input) && lx.input[lx.pos+1] == '"' {
				sb.WriteRune('"')
				lx.pos += 2
				continue
			}
			lx.pos++
			return token{typ: tokenString, text: sb.String(), pos: start}, nil
		}
		sb.WriteRune(ch)
		lx.pos++
	}
	return token{}, fmt.Errorf("unterminated string at position %d", start)
}

// scanQuotedSheetRef handles 'Sheet Name'!A1 and 'Sheet Name'!A1:B2.
func (lx *lexer) scanQuotedSheetRef() (token, error) {
	start := lx.pos
	lx.pos++ // opening quote
	nameStart := lx.pos
	for lx.pos < len(lx.input) && lx.input[lx.pos] != '\'' {
		lx.pos++
	}
	if lx.pos >= len(lx.input) {
		return token{}, fmt.Errorf("unterminated sheet name at position %d", start)
	}
	sheet := string(lx.input[nameStart:lx.pos])
	lx.pos++ // closing quote
	if sheet == "" {
		return token{}, fmt.Errorf("empty sheet name at position %d", start)
	}
	if lx.pos >= len(lx.input) || lx.input[lx.pos] != '!' {
		return token{}, fmt.Errorf("sheet name must be followed by '!' at position %d", lx.pos)
	}
	lx.pos++ // '!'
	return lx.scanRefAfterSheet(start, "'"+sheet+"'!")
}

// scanWord handles everything that starts like an identifier: booleans,
// cell and range references (including unquoted sheet prefixes), function
// names, and named-range identifiers.
func (lx *lexer) scanWord() (token, error) {
	start := lx.pos

	if lx.input[lx.pos] == '$' {
		return lx.scanRefAfterSheet(start, "")
	}

	for lx.pos < len(lx.input) && isWordRune(lx.input[lx.pos]) {
		lx.pos++
	}
	word := string(lx.input[start:lx.pos])

	if lx.pos < len(lx.input) && lx.input[lx.pos] == '!' {
		lx.pos++
		return lx.scanRefAfterSheet(start, word+"!")
	}

	switch strings.ToUpper(word) {
	case "TRUE", "FALSE":
		return token{typ: tokenBool, text: strings.ToUpper(word), pos: start}, nil
	}

	if lx.pos < len(lx.input) && lx.input[lx.pos] == '(' {
		return token{typ: tokenFunc, text: word, pos: start}, nil
	}

	// row-absolute form like A$1: the word scan stops at the '$'
	if lx.pos < len(lx.input) && lx.input[lx.pos] == '$' && isColumnWord(word) {
		lx.pos++
		rowStart := lx.pos
		for lx.pos < len(lx.input) && lx.input[lx.pos] >= '0' && lx.input[lx.pos] <= '9' {
			lx.pos++
		}
		if lx.pos == rowStart {
			return token{}, fmt.Errorf("malformed cell reference at position %d", start)
		}
		cell := string(lx.input[start:lx.pos])
		if lx.pos < len(lx.input) && lx.input[lx.pos] == ':' {
			lx.pos++
			second, err := lx.scanCellPart()
			if err != nil {
				return token{}, err
			}
			return token{typ: tokenRange, text: cell + ":" + second, pos: start}, nil
		}
		return token{typ: tokenCell, text: cell, pos: start}, nil
	}

	if isCellWord(word) {
		if lx.pos < len(lx.input) && lx.input[lx.pos] == ':' {
			lx.pos++
			second, err := lx.scanCellPart()
			if err != nil {
				return token{}, err
			}
			return token{typ: tokenRange, text: word + ":" + second, pos: start}, nil
		}
		return token{typ: tokenCell, text: word, pos: start}, nil
	}

	return token{typ: tokenIdent, text: word, pos: start}, nil
}

// scanRefAfterSheet scans the cell part that must follow a sheet prefix
// (or a leading $), plus an optional second part making it a range.
func (lx *lexer) scanRefAfterSheet(start int, prefix string) (token, error) {
	first, err := lx.scanCellPart()
	if err != nil {
		return token{}, err
	}
	if lx.pos < len(lx.input) && lx.input[lx.pos] == ':' {
		lx.pos++
		second, err := lx.scanCellPart()
		if err != nil {
			return token{}, err
		}
		return token{typ: tokenRange, text: prefix + first + ":" + second, pos: start}, nil
	}
	return token{typ: tokenCell, text: prefix + first, pos: start}, nil
}

// scanCellPart consumes one $?letters$?digits cell coordinate.
func (lx *lexer) scanCellPart() (string, error) {
	start := lx.pos
	if lx.pos < len(lx.input) && lx.input[lx.pos] == '$' {
		lx.pos++
	}
	colStart := lx.pos
	for lx.pos < len(lx.input) && isAsciiLetter(lx.input[lx.pos]) {
		lx.pos++
	}
	if lx.pos == colStart {
		return "", fmt.Errorf("malformed cell reference at position %d", start)
	}
	if lx.pos < len(lx.input) && lx.input[lx.pos] == '$' {
		lx.pos++
	}
	rowStart := lx.pos
	for lx.pos < len(lx.input) && lx.input[lx.pos] >= '0' && lx.input[lx.pos] <= '9' {
		lx.pos++
	}
	if lx.pos == rowStart {
		return "", fmt.Errorf("malformed cell reference at position %d", start)
	}
	return string(lx.input[start:lx.pos]), nil
}

func isWordRune(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '.'
}

func isAsciiLetter(ch rune) bool {
	return ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z'
}

// isColumnWord reports whether a word is 1-3 letters, i.e. a bare column.
func isColumnWord(word string) bool {
	if len(word) == 0 || len(word) > 3 {
		return false
	}
	for _, ch := range word {
		if !isAsciiLetter(ch) {
			return false
		}
	}
	return true
}

// isCellWord reports whether an already-scanned word has the shape of a
// plain cell reference: 1-3 letters followed by digits.
func isCellWord(word string) bool {
	i := 0
	for i < len(word) && isAsciiLetter(rune(word[i])) {
		i++
	}
	if i == 0 || i > 3 || i == len(word) {
		return false
	}
	for j := i; j < len(word); j++ {
		if word[j] < '0' || word[j] > '9' {
			return false
		}
	}
	return true
}
