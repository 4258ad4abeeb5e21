package syntax

import (
	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/source"
)

// binaryPrec returns the precedence of a binary operator, 0 for non-binary
// tokens. Assignment operators are handled separately (right-associative,
// lowest).
func binaryPrec(op string) int {
	switch op {
	case "||":
		return 1
	case "&&":
		return 2
	case "|":
		return 3
	case "^":
		return 4
	case "&":
		return 5
	case "==", "!=", "===", "!==", "==?", "!=?":
		return 6
	case "<", ">", "<=", ">=":
		return 7
	case "<<", ">>", "<<<", ">>>":
		return 8
	case "+", "-":
		return 9
	case "*", "/", "%":
		return 10
	case "**":
		return 11
	}
	return 0
}

// isAssignOp reports whether op is an assignment operator.
func isAssignOp(op string) bool {
	switch op {
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=", "<<<=", ">>>=":
		return true
	}
	return false
}

// parseExpr parses a full expression including assignments and the
// conditional operator.
func (p *parser) parseExpr() Expr {
	start := p.tok.Range
	lhs := p.parseCondExpr()

	if p.tok.Kind == TokenOp && isAssignOp(p.tok.Text) {
		op := p.tok.Text
		p.advance()
		// Nonblocking assignment uses "<=", which parseCondExpr already
		// treats as relational; blocking "=" lands here.
		rhs := p.parseExpr()
		return &BinaryExpr{Op: op, X: lhs, Y: rhs, Full: p.rangeFrom(start)}
	}
	return lhs
}

// parseCondExpr parses binary precedence levels and ?:.
func (p *parser) parseCondExpr() Expr {
	start := p.tok.Range
	cond := p.parseBinaryExpr(1)

	if p.at("?") {
		p.advance()
		then := p.parseExpr()
		p.expect(":")
		els := p.parseExpr()
		return &CondExpr{Cond: cond, Then: then, Else: els, Full: p.rangeFrom(start)}
	}
	return cond
}

func (p *parser) parseBinaryExpr(minPrec int) Expr {
	start := p.tok.Range
	lhs := p.parseUnaryExpr()

	for {
		if p.tok.Kind != TokenOp {
			return lhs
		}
		prec := binaryPrec(p.tok.Text)
		if prec == 0 || prec < minPrec {
			return lhs
		}
		op := p.tok.Text
		p.advance()
		rhs := p.parseBinaryExpr(prec + 1)
		lhs = &BinaryExpr{Op: op, X: lhs, Y: rhs, Full: p.rangeFrom(start)}
	}
}

func (p *parser) parseUnaryExpr() Expr {
	start := p.tok.Range
	if p.tok.Kind == TokenOp {
		switch p.tok.Text {
		case "+", "-", "!", "~", "&", "|", "^", "++", "--":
			op := p.tok.Text
			p.advance()
			x := p.parseUnaryExpr()
			return &UnaryExpr{Op: op, X: x, Full: p.rangeFrom(start)}
		}
	}
	return p.parsePostfixExpr()
}

// parsePostfixExpr parses a primary expression with its suffixes: member
// access, indexing, calls, scoped access, and casts.
func (p *parser) parsePostfixExpr() Expr {
	start := p.tok.Range
	x := p.parsePrimaryExpr()

	for {
		switch {
		case p.at("::"):
			// Scope resolution binds to the identifier it follows:
			// pkg::item, C#(8)::m. Rewrite NameExpr into ScopedExpr.
			p.advance()
			name := p.ident()
			switch prev := x.(type) {
			case *NameExpr:
				x = &ScopedExpr{Scope: prev.Name, Name: name, Full: p.rangeFrom(start)}
			case *CallExpr:
				// C#(...) parsed as a call? Not expected; treat opaquely.
				x = &ScopedExpr{Name: name, Full: p.rangeFrom(start)}
			case *ScopedExpr:
				// a::b::c — keep the rightmost pair, previous scope chain
				// stays inside Full.
				x = &ScopedExpr{Scope: prev.Name, Name: name, Full: p.rangeFrom(start)}
			default:
				x = &ScopedExpr{Name: name, Full: p.rangeFrom(start)}
			}

		case p.at("."):
			p.advance()
			name := p.ident()
			if name == nil {
				return &BadExpr{Full: p.rangeFrom(start)}
			}
			x = &MemberExpr{X: x, Name: name, Full: p.rangeFrom(start)}

		case p.at("["):
			dim := p.parseDimension()
			idx := &IndexExpr{X: x, Full: p.rangeFrom(start)}
			if dim != nil {
				idx.Index = []Expr{dim}
			}
			x = idx

		case p.at("("):
			p.advance()
			call := &CallExpr{Fun: x}
			for !p.atEOF() && !p.at(")") {
				if p.at(".") {
					// Named argument .name(expr): index the value side only.
					p.advance()
					p.ident()
					if p.accept("(") {
						if !p.at(")") {
							call.Args = append(call.Args, p.parseExpr())
						}
						p.expect(")")
					}
				} else {
					call.Args = append(call.Args, p.parseExpr())
				}
				if !p.accept(",") {
					break
				}
			}
			p.expect(")")
			call.Full = p.rangeFrom(start)
			x = call

		case p.at("'") && p.peek(0).Is("("):
			// Cast: word_t'(x) or size'(x). The cast target was parsed as
			// an expression; keep it in Size so references stay indexable.
			p.advance() // '
			p.advance() // (
			inner := p.parseExpr()
			p.expect(")")
			x = &CastExpr{Size: x, X: inner, Full: p.rangeFrom(start)}

		case p.at("++") || p.at("--"):
			op := p.tok.Text
			p.advance()
			x = &UnaryExpr{Op: op, X: x, Full: p.rangeFrom(start)}

		default:
			return x
		}
	}
}

func (p *parser) parsePrimaryExpr() Expr {
	start := p.tok.Range

	switch {
	case p.tok.Kind == TokenNumber || p.tok.Kind == TokenString:
		lit := &LiteralExpr{Text: p.tok.Text, Full: p.tok.Range}
		p.advance()
		return lit

	case p.tok.Kind == TokenIdent:
		name := &Ident{Name: p.tok.Text, Range: p.tok.Range}
		p.advance()
		// Class specialization in expression position: C#(8)::m
		if p.at("#") && p.peek(0).Is("(") {
			args := p.parseHashArgs()
			if p.at("::") {
				p.advance()
				member := p.ident()
				return &ScopedExpr{
					Scope:     name,
					ScopeArgs: args,
					Name:      member,
					Full:      p.rangeFrom(start),
				}
			}
			// Specialization without member access: keep the class name.
			return &NameExpr{Name: name}
		}
		return &NameExpr{Name: name}

	case p.tok.Kind == TokenSystemIdent:
		sys := p.tok.Text
		sysRange := p.tok.Range
		p.advance()
		if p.at("(") {
			p.advance()
			call := &CallExpr{SystemName: sys}
			for !p.atEOF() && !p.at(")") {
				call.Args = append(call.Args, p.parseExpr())
				if !p.accept(",") {
					break
				}
			}
			p.expect(")")
			call.Full = p.rangeFrom(start)
			return call
		}
		return &LiteralExpr{Text: sys, Full: sysRange}

	case p.at("("):
		p.advance()
		x := p.parseExpr()
		p.expect(")")
		return &ParenExpr{X: x, Full: p.rangeFrom(start)}

	case p.at("{"):
		return p.parseConcatExpr()

	case p.at("'{"):
		return p.parsePatternExpr()

	case p.tok.Kind == TokenKeyword:
		switch p.tok.Text {
		case "null", "this", "super", "new":
			kw := p.tok.Text
			kwRange := p.tok.Range
			p.advance()
			if kw == "new" && p.at("(") {
				p.skipBalanced("(", ")")
			}
			return &LiteralExpr{Text: kw, Full: kwRange}
		}
		if isDataTypeKeyword(p.tok.Text) {
			// Type used in expression position (e.g. $bits(logic [7:0]),
			// int'(x)). Parse the type and wrap it.
			typ := p.parseDataType()
			if p.at("'") && p.peek(0).Is("(") {
				p.advance()
				p.advance()
				inner := p.parseExpr()
				p.expect(")")
				return &CastExpr{Type: typ, X: inner, Full: p.rangeFrom(start)}
			}
			return &BadExpr{Full: typ.Full}
		}
		p.diags.Addf(diag.CodeUnexpectedToken, diag.SeverityError, p.tok.Range,
			"unexpected '"+p.tok.Text+"' in expression")
		p.advance()
		return &BadExpr{Full: start}

	default:
		p.diags.Addf(diag.CodeUnexpectedToken, diag.SeverityError, p.tok.Range,
			"unexpected '"+p.tok.Text+"' in expression")
		bad := &BadExpr{Full: p.tok.Range}
		p.advance()
		return bad
	}
}

// parseConcatExpr parses {a, b} and the replication {n{v}}.
func (p *parser) parseConcatExpr() Expr {
	start := p.tok.Range
	p.advance() // {

	concat := &ConcatExpr{}
	for !p.atEOF() && !p.at("}") {
		elem := p.parseExpr()
		// Replication: {n{v, w}} — the inner braces follow the count.
		if p.at("{") {
			inner := p.parseConcatExpr()
			concat.Elems = append(concat.Elems, elem)
			if ic, ok := inner.(*ConcatExpr); ok {
				concat.Elems = append(concat.Elems, ic.Elems...)
			}
		} else {
			concat.Elems = append(concat.Elems, elem)
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	concat.Full = p.rangeFrom(start)
	return concat
}

// parsePatternExpr parses the assignment pattern '{key: value, ...} or
// '{v0, v1}.
func (p *parser) parsePatternExpr() Expr {
	start := p.tok.Range
	p.advance() // '{

	pat := &PatternExpr{}
	for !p.atEOF() && !p.at("}") {
		key := &PatternKey{}
		switch {
		case p.tok.IsKeyword("default") && p.peek(0).Is(":"):
			key.KeyDefault = true
			p.advance()
			p.advance()
			key.Value = p.parseExpr()
		case p.tok.Kind == TokenIdent && p.peek(0).Is(":") && !p.peek(1).Is(":"):
			key.Key = p.ident()
			p.expect(":")
			key.Value = p.parseExpr()
		default:
			key.Value = p.parseExpr()
		}
		pat.Keys = append(pat.Keys, key)
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	pat.Full = p.rangeFrom(start)
	return pat
}

// exprNameRange returns the identifier range of the rightmost name in an
// expression, used for fallback ranges. Returns ok=false for expressions
// with no name.
func exprNameRange(x Expr) (source.Range, bool) {
	switch e := x.(type) {
	case *NameExpr:
		return e.Name.Range, true
	case *ScopedExpr:
		if e.Name != nil {
			return e.Name.Range, true
		}
	case *MemberExpr:
		return e.Name.Range, true
	case *IndexExpr:
		return exprNameRange(e.X)
	case *CallExpr:
		if e.Fun != nil {
			return exprNameRange(e.Fun)
		}
	case *ParenExpr:
		return exprNameRange(e.X)
	}
	return source.Range{}, false
}
