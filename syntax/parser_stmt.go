package syntax

import (
	"github.com/svlsp/svlsp/diag"
)

// stmtEndKeywords terminate a statement list.
var stmtEndKeywords = map[string]bool{
	"end": true, "endfunction": true, "endtask": true, "endcase": true,
	"endmodule": true, "endpackage": true, "endinterface": true,
	"endclass": true, "join": true, "join_any": true, "join_none": true,
	"else": true,
}

// parseStmt parses one statement. Returns nil when the current token
// terminates the enclosing statement list.
func (p *parser) parseStmt() Stmt {
	if p.tok.Kind == TokenKeyword && stmtEndKeywords[p.tok.Text] {
		return nil
	}
	if p.atEOF() {
		return nil
	}

	start := p.tok.Range

	// Timing controls prefix statements; consume them and parse the
	// controlled statement. Event expressions inside @(...) and delay
	// groups #(...) are skipped without parsing, so references inside them
	// are not indexed.
	if p.at("@") {
		p.advance()
		if p.at("(") {
			p.skipBalanced("(", ")")
		} else if p.at("*") {
			p.advance()
		} else if p.tok.Kind == TokenIdent {
			p.advance()
		}
		if p.at(";") {
			p.advance()
			return &EmptyStmt{Full: p.rangeFrom(start)}
		}
		return p.parseStmt()
	}
	if p.at("#") {
		p.advance()
		switch {
		case p.at("("):
			p.skipBalanced("(", ")")
		case p.tok.Kind == TokenNumber || p.tok.Kind == TokenIdent:
			p.advance()
		}
		if p.at(";") {
			p.advance()
			return &EmptyStmt{Full: p.rangeFrom(start)}
		}
		return p.parseStmt()
	}

	switch {
	case p.at(";"):
		p.advance()
		return &EmptyStmt{Full: p.rangeFrom(start)}

	case p.at("begin"):
		return p.parseBlockStmt()

	case p.at("fork"):
		// Model fork...join as a block.
		return p.parseForkStmt()

	case p.at("if") || p.at("unique") || p.at("unique0") || p.at("priority"):
		for p.at("unique") || p.at("unique0") || p.at("priority") {
			p.advance()
		}
		if p.at("case") || p.at("casex") || p.at("casez") {
			return p.parseCaseStmt()
		}
		return p.parseIfStmt()

	case p.at("for"):
		return p.parseForStmt()

	case p.at("foreach"):
		p.advance()
		if p.at("(") {
			p.skipBalanced("(", ")")
		}
		body := p.parseStmt()
		if body == nil {
			body = &EmptyStmt{Full: p.rangeFrom(start)}
		}
		return &ForStmt{Body: body, Full: p.rangeFrom(start)}

	case p.at("while"):
		p.advance()
		p.expect("(")
		cond := p.parseExpr()
		p.expect(")")
		body := p.parseStmt()
		if body == nil {
			body = &EmptyStmt{Full: p.rangeFrom(start)}
		}
		return &ForStmt{Cond: cond, Body: body, Full: p.rangeFrom(start)}

	case p.at("do"):
		p.advance()
		body := p.parseStmt()
		p.expect("while")
		p.expect("(")
		cond := p.parseExpr()
		p.expect(")")
		p.expect(";")
		if body == nil {
			body = &EmptyStmt{Full: p.rangeFrom(start)}
		}
		return &ForStmt{Cond: cond, Body: body, Full: p.rangeFrom(start)}

	case p.at("repeat") || p.at("forever"):
		p.advance()
		if p.at("(") {
			p.expect("(")
			p.parseExpr()
			p.expect(")")
		}
		body := p.parseStmt()
		if body == nil {
			body = &EmptyStmt{Full: p.rangeFrom(start)}
		}
		return &ForStmt{Body: body, Full: p.rangeFrom(start)}

	case p.at("case") || p.at("casex") || p.at("casez"):
		return p.parseCaseStmt()

	case p.at("return"):
		p.advance()
		stmt := &ReturnStmt{}
		if !p.at(";") {
			stmt.Value = p.parseExpr()
		}
		p.expect(";")
		stmt.Full = p.rangeFrom(start)
		return stmt

	case p.at("break") || p.at("continue"):
		p.advance()
		p.expect(";")
		return &EmptyStmt{Full: p.rangeFrom(start)}

	case p.at("disable") || p.at("wait") || p.at("assert") || p.at("assume") || p.at("cover"):
		p.advance()
		p.skipTo(";", "end", "endfunction", "endtask", "endmodule")
		p.accept(";")
		return &EmptyStmt{Full: p.rangeFrom(start)}

	case p.at("typedef"):
		// Local typedef inside a statement list — keep the declaration.
		if td, ok := p.parseTypedef().(*TypedefDecl); ok {
			return &DeclStmt{Decl: &VarDecl{
				Type:  td.Type,
				Names: []*Declarator{{Name: td.Name}},
				Full:  td.Full,
			}}
		}
		return &EmptyStmt{Full: p.rangeFrom(start)}

	case p.at("->"):
		p.advance()
		p.skipTo(";")
		p.accept(";")
		return &EmptyStmt{Full: p.rangeFrom(start)}

	case p.tok.Kind == TokenKeyword &&
		(isDataTypeKeyword(p.tok.Text) || isNetKeyword(p.tok.Text) ||
			p.tok.Text == "var" || p.tok.Text == "enum" || p.tok.Text == "struct" ||
			p.tok.Text == "union" || p.tok.Text == "automatic" || p.tok.Text == "static" ||
			p.tok.Text == "const"):
		for p.at("automatic") || p.at("static") || p.at("const") {
			p.advance()
		}
		if decl, ok := p.parseVarDeclItem(false).(*VarDecl); ok {
			return &DeclStmt{Decl: decl}
		}
		return &EmptyStmt{Full: p.rangeFrom(start)}

	case p.tok.Kind == TokenIdent && p.stmtLooksLikeDecl():
		if decl, ok := p.parseVarDeclItem(false).(*VarDecl); ok {
			return &DeclStmt{Decl: decl}
		}
		return &EmptyStmt{Full: p.rangeFrom(start)}

	case p.tok.Kind == TokenIdent && p.peek(0).Is(":") && !p.peek(1).Is(":"):
		// Labeled statement: label : stmt
		p.advance()
		p.advance()
		return p.parseStmt()

	default:
		x := p.parseExpr()
		p.expect(";")
		return &ExprStmt{X: x, Full: p.rangeFrom(start)}
	}
}

// stmtLooksLikeDecl distinguishes "word_t tmp;" from "a = b;" and
// "tmp.field = x;" when a statement starts with an identifier.
func (p *parser) stmtLooksLikeDecl() bool {
	next := p.peek(0)
	if next.Kind == TokenIdent {
		after := p.peek(1)
		return after.Is(";") || after.Is("=") || after.Is(",") || after.Is("[")
	}
	if next.Is("::") {
		// pkg::type name ... vs pkg::func(...) — look past the scoped name.
		if p.peek(1).Kind != TokenIdent {
			return false
		}
		return p.peek(2).Kind == TokenIdent
	}
	return false
}

// parseBlockStmt parses begin [: label] stmts end [: label].
func (p *parser) parseBlockStmt() Stmt {
	start := p.tok.Range
	p.advance() // begin

	block := &BlockStmt{}
	if p.at(":") && p.peek(0).Kind == TokenIdent {
		p.advance()
		block.Label = p.ident()
	}

	for !p.atEOF() && !p.at("end") {
		stmt := p.parseStmt()
		if stmt == nil {
			break
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	if !p.accept("end") {
		p.diags.Addf(diag.CodeUnclosedBlock, diag.SeverityError, start,
			"missing 'end'")
	}
	block.EndLabel = p.endLabel()
	block.Full = p.rangeFrom(start)
	return block
}

// parseForkStmt parses fork ... join/join_any/join_none as a plain block.
func (p *parser) parseForkStmt() Stmt {
	start := p.tok.Range
	p.advance() // fork

	block := &BlockStmt{}
	if p.at(":") && p.peek(0).Kind == TokenIdent {
		p.advance()
		block.Label = p.ident()
	}
	for !p.atEOF() && !p.at("join") && !p.at("join_any") && !p.at("join_none") {
		stmt := p.parseStmt()
		if stmt == nil {
			break
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	if p.at("join") || p.at("join_any") || p.at("join_none") {
		p.advance()
	}
	block.EndLabel = p.endLabel()
	block.Full = p.rangeFrom(start)
	return block
}

func (p *parser) parseIfStmt() Stmt {
	start := p.tok.Range
	p.advance() // if
	p.expect("(")
	cond := p.parseExpr()
	p.expect(")")

	stmt := &IfStmt{Cond: cond}
	stmt.Then = p.parseStmt()
	if stmt.Then == nil {
		stmt.Then = &EmptyStmt{Full: p.rangeFrom(start)}
	}
	if p.accept("else") {
		stmt.Else = p.parseStmt()
	}
	stmt.Full = p.rangeFrom(start)
	return stmt
}

func (p *parser) parseForStmt() Stmt {
	start := p.tok.Range
	p.advance() // for
	p.expect("(")

	stmt := &ForStmt{}
	if !p.at(";") {
		if p.tok.Kind == TokenKeyword && (isDataTypeKeyword(p.tok.Text) || p.tok.Text == "var") {
			// for (int i = 0; ...) — inline declaration
			typ := p.parseDataType()
			decls := p.parseDeclarators()
			stmt.Init = &DeclStmt{Decl: &VarDecl{Type: typ, Names: decls, Full: p.rangeFrom(start)}}
		} else {
			x := p.parseExpr()
			stmt.Init = &ExprStmt{X: x, Full: p.rangeFrom(start)}
		}
	}
	p.expect(";")
	if !p.at(";") {
		stmt.Cond = p.parseExpr()
	}
	p.expect(";")
	if !p.at(")") {
		stmt.Step = p.parseExpr()
		for p.accept(",") {
			p.parseExpr()
		}
	}
	p.expect(")")

	stmt.Body = p.parseStmt()
	if stmt.Body == nil {
		stmt.Body = &EmptyStmt{Full: p.rangeFrom(start)}
	}
	stmt.Full = p.rangeFrom(start)
	return stmt
}

func (p *parser) parseCaseStmt() Stmt {
	start := p.tok.Range
	p.advance() // case/casex/casez
	p.expect("(")
	cond := p.parseExpr()
	p.expect(")")

	// inside/matches qualifiers
	if p.at("inside") || p.at("matches") {
		p.advance()
	}

	stmt := &CaseStmt{Cond: cond}
	for !p.atEOF() && !p.at("endcase") {
		var item CaseItem
		if p.accept("default") {
			p.accept(":")
		} else {
			for {
				item.Exprs = append(item.Exprs, p.parseExpr())
				if !p.accept(",") {
					break
				}
			}
			p.expect(":")
		}
		item.Body = p.parseStmt()
		stmt.Items = append(stmt.Items, item)
		if item.Body == nil && !p.at("endcase") {
			break
		}
	}
	if !p.accept("endcase") {
		p.diags.Addf(diag.CodeUnclosedBlock, diag.SeverityError, start,
			"missing 'endcase'")
	}
	stmt.Full = p.rangeFrom(start)
	return stmt
}
