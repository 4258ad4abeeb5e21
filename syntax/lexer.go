package syntax

import (
	"strings"

	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/source"
)

// lexer produces raw tokens from one buffer. It knows nothing about macros
// or includes; the preprocessor layers those on top.
type lexer struct {
	buffer source.BufferID
	text   string
	pos    int
	diags  *diag.Collector
}

func newLexer(buffer source.BufferID, text string, diags *diag.Collector) *lexer {
	return &lexer{buffer: buffer, text: text, diags: diags}
}

func (l *lexer) rangeFrom(start int) source.Range {
	return source.Range{Buffer: l.buffer, Start: start, End: l.pos}
}

// next scans the next token. At end of input it returns TokenEOF forever.
func (l *lexer) next() Token {
	l.skipTrivia()

	start := l.pos
	if l.pos >= len(l.text) {
		return Token{Kind: TokenEOF, Range: l.rangeFrom(start)}
	}

	c := l.text[l.pos]

	switch {
	case isIdentStart(c):
		return l.scanIdent(start)
	case c == '\\':
		return l.scanEscapedIdent(start)
	case c == '$':
		if l.pos+1 < len(l.text) && isIdentStart(l.text[l.pos+1]) {
			return l.scanSystemIdent(start)
		}
		l.pos++
		return Token{Kind: TokenOp, Text: "$", Range: l.rangeFrom(start)}
	case c >= '0' && c <= '9':
		return l.scanNumber(start)
	case c == '"':
		return l.scanString(start)
	case c == '`':
		return l.scanDirective(start)
	case c == '\'':
		return l.scanTick(start)
	default:
		return l.scanOperator(start)
	}
}

// skipTrivia consumes whitespace and comments.
func (l *lexer) skipTrivia() {
	for l.pos < len(l.text) {
		c := l.text[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.text) && l.text[l.pos+1] == '/':
			for l.pos < len(l.text) && l.text[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.text) && l.text[l.pos+1] == '*':
			end := strings.Index(l.text[l.pos+2:], "*/")
			if end < 0 {
				l.pos = len(l.text)
				return
			}
			l.pos += 2 + end + 2
		default:
			return
		}
	}
}

func (l *lexer) scanIdent(start int) Token {
	for l.pos < len(l.text) && isIdentPart(l.text[l.pos]) {
		l.pos++
	}
	text := l.text[start:l.pos]
	kind := TokenIdent
	if isKeyword(text) {
		kind = TokenKeyword
	}
	return Token{Kind: kind, Text: text, Range: l.rangeFrom(start)}
}

// scanEscapedIdent scans `\`-prefixed identifiers, which run to the next
// whitespace. The leading backslash is kept out of the name.
func (l *lexer) scanEscapedIdent(start int) Token {
	l.pos++ // backslash
	nameStart := l.pos
	for l.pos < len(l.text) && !isSpace(l.text[l.pos]) {
		l.pos++
	}
	if l.pos == nameStart {
		// A backslash directly before whitespace is a line continuation
		// (seen when re-lexing `define bodies); it is not a token.
		return l.next()
	}
	return Token{Kind: TokenIdent, Text: l.text[nameStart:l.pos], Range: l.rangeFrom(start)}
}

func (l *lexer) scanSystemIdent(start int) Token {
	l.pos++ // $
	for l.pos < len(l.text) && isIdentPart(l.text[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokenSystemIdent, Text: l.text[start:l.pos], Range: l.rangeFrom(start)}
}

// scanNumber scans decimal, based (8'hFF), and real literals. The value is
// never interpreted; the server only needs the extent.
func (l *lexer) scanNumber(start int) Token {
	l.scanDigits()

	// Real: 3.14, 1e9
	if l.pos < len(l.text) && l.text[l.pos] == '.' &&
		l.pos+1 < len(l.text) && l.text[l.pos+1] >= '0' && l.text[l.pos+1] <= '9' {
		l.pos++
		l.scanDigits()
	}
	if l.pos < len(l.text) && (l.text[l.pos] == 'e' || l.text[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.text) && (l.text[l.pos] == '+' || l.text[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.text) && l.text[l.pos] >= '0' && l.text[l.pos] <= '9' {
			l.scanDigits()
		} else {
			l.pos = save
		}
	}

	// Based suffix: 8'hFF — the size was just scanned, now ' base digits.
	beforeSpaces := l.pos
	l.skipSpacesOnly()
	if l.pos >= len(l.text) || l.text[l.pos] != '\'' || !l.hasBaseSuffix(l.pos) {
		l.pos = beforeSpaces
	}
	if l.pos < len(l.text) && l.text[l.pos] == '\'' && l.hasBaseSuffix(l.pos) {
		l.pos++ // '
		if l.pos < len(l.text) && (l.text[l.pos] == 's' || l.text[l.pos] == 'S') {
			l.pos++
		}
		l.pos++ // base char
		l.skipSpacesOnly()
		l.scanBasedDigits()
	}

	return Token{Kind: TokenNumber, Text: l.text[start:l.pos], Range: l.rangeFrom(start)}
}

func (l *lexer) scanDigits() {
	for l.pos < len(l.text) && (l.text[l.pos] >= '0' && l.text[l.pos] <= '9' || l.text[l.pos] == '_') {
		l.pos++
	}
}

func (l *lexer) scanBasedDigits() {
	for l.pos < len(l.text) && isBasedDigit(l.text[l.pos]) {
		l.pos++
	}
}

// skipSpacesOnly advances over spaces and tabs but never newlines, so a size
// and its base separated by a line break do not glue into one literal.
func (l *lexer) skipSpacesOnly() {
	for l.pos < len(l.text) && (l.text[l.pos] == ' ' || l.text[l.pos] == '\t') {
		l.pos++
	}
}

// hasBaseSuffix checks whether the ' at offset begins a base designator.
func (l *lexer) hasBaseSuffix(at int) bool {
	i := at + 1
	if i < len(l.text) && (l.text[i] == 's' || l.text[i] == 'S') {
		i++
	}
	if i >= len(l.text) {
		return false
	}
	switch l.text[i] {
	case 'b', 'B', 'o', 'O', 'd', 'D', 'h', 'H':
		return true
	}
	return false
}

// scanTick handles the unsized literals '0 '1 'x 'z, the based literals
// 'hFF, the cast tick in type'(expr), and the assignment-pattern opener '{.
func (l *lexer) scanTick(start int) Token {
	if l.pos+1 < len(l.text) && l.text[l.pos+1] == '{' {
		l.pos += 2
		return Token{Kind: TokenOp, Text: "'{", Range: l.rangeFrom(start)}
	}
	if l.hasBaseSuffix(l.pos) {
		l.pos++ // '
		if l.pos < len(l.text) && (l.text[l.pos] == 's' || l.text[l.pos] == 'S') {
			l.pos++
		}
		l.pos++ // base
		l.skipSpacesOnly()
		l.scanBasedDigits()
		return Token{Kind: TokenNumber, Text: l.text[start:l.pos], Range: l.rangeFrom(start)}
	}
	if l.pos+1 < len(l.text) {
		switch l.text[l.pos+1] {
		case '0', '1', 'x', 'X', 'z', 'Z':
			l.pos += 2
			return Token{Kind: TokenNumber, Text: l.text[start:l.pos], Range: l.rangeFrom(start)}
		}
	}
	l.pos++
	return Token{Kind: TokenOp, Text: "'", Range: l.rangeFrom(start)}
}

func (l *lexer) scanString(start int) Token {
	l.pos++ // opening quote
	for l.pos < len(l.text) {
		c := l.text[l.pos]
		if c == '\\' && l.pos+1 < len(l.text) {
			l.pos += 2
			continue
		}
		if c == '"' {
			l.pos++
			return Token{Kind: TokenString, Text: l.text[start:l.pos], Range: l.rangeFrom(start)}
		}
		if c == '\n' {
			break
		}
		l.pos++
	}
	l.diags.Addf(diag.CodeUnterminatedString, diag.SeverityError, l.rangeFrom(start),
		"unterminated string literal")
	return Token{Kind: TokenString, Text: l.text[start:l.pos], Range: l.rangeFrom(start)}
}

// scanDirective scans a ` directive name. The preprocessor interprets it.
func (l *lexer) scanDirective(start int) Token {
	l.pos++ // backtick
	nameStart := l.pos
	for l.pos < len(l.text) && isIdentPart(l.text[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokenDirective, Text: l.text[nameStart:l.pos], Range: l.rangeFrom(start)}
}

func (l *lexer) scanOperator(start int) Token {
	rest := l.text[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			l.pos += len(op)
			return Token{Kind: TokenOp, Text: op, Range: l.rangeFrom(start)}
		}
	}
	c := l.text[l.pos]
	l.pos++
	if strings.IndexByte(singleOps, c) >= 0 {
		return Token{Kind: TokenOp, Text: string(c), Range: l.rangeFrom(start)}
	}
	// Unrecognized byte: emit it as an operator token anyway; the parser's
	// recovery will report it in context.
	return Token{Kind: TokenOp, Text: string(c), Range: l.rangeFrom(start)}
}

// restOfLine returns the raw text from the current position to the end of
// the line, honoring backslash continuations, and advances past it. Used by
// the preprocessor for `define bodies and `include arguments.
func (l *lexer) restOfLine() (string, source.Range) {
	start := l.pos
	var b strings.Builder
	for l.pos < len(l.text) {
		c := l.text[l.pos]
		if c == '\\' && l.pos+1 < len(l.text) && l.text[l.pos+1] == '\n' {
			b.WriteByte('\n')
			l.pos += 2
			continue
		}
		if c == '\n' {
			break
		}
		b.WriteByte(c)
		l.pos++
	}
	return b.String(), l.rangeFrom(start)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '$'
}

func isBasedDigit(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	case c == '_', c == 'x', c == 'X', c == 'z', c == 'Z', c == '?':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
