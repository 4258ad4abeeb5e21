package syntax

import (
	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/source"
)

// Tree is one parsed file plus the buffer it came from.
type Tree struct {
	File   *File
	Buffer source.BufferID
}

// Parse lexes, preprocesses, and parses the buffer. It never fails: problems
// are reported to diags and the returned tree covers whatever could be
// recognized.
func Parse(sm *source.Manager, buffer source.BufferID, opts PreprocessorOptions, diags *diag.Collector) *Tree {
	p := &parser{
		pp:     newPreprocessor(sm, buffer, opts, diags),
		diags:  diags,
		buffer: buffer,
	}
	p.advance()
	file := p.parseFile()
	return &Tree{File: file, Buffer: buffer}
}

type parser struct {
	pp     *preprocessor
	diags  *diag.Collector
	buffer source.BufferID

	tok   Token
	ahead []Token
}

// advance moves to the next token.
func (p *parser) advance() {
	if len(p.ahead) > 0 {
		p.tok = p.ahead[0]
		p.ahead = p.ahead[1:]
		return
	}
	p.tok = p.pp.next()
}

// peek returns the n-th upcoming token without consuming (peek(0) is the
// token after the current one).
func (p *parser) peek(n int) Token {
	for len(p.ahead) <= n {
		p.ahead = append(p.ahead, p.pp.next())
	}
	return p.ahead[n]
}

// at reports whether the current token is the given keyword or operator.
func (p *parser) at(text string) bool { return p.tok.Is(text) }

// atEOF reports end of stream.
func (p *parser) atEOF() bool { return p.tok.Kind == TokenEOF }

// accept consumes the current token if it matches.
func (p *parser) accept(text string) bool {
	if p.at(text) {
		p.advance()
		return true
	}
	return false
}

// expect consumes the current token if it matches and reports a diagnostic
// otherwise. It never consumes on mismatch; recovery decides what to skip.
func (p *parser) expect(text string) bool {
	if p.accept(text) {
		return true
	}
	p.diags.Addf(diag.CodeExpectedToken, diag.SeverityError, p.tok.Range,
		"expected '"+text+"'")
	return false
}

// ident consumes an identifier and returns it, or reports a diagnostic and
// returns nil.
func (p *parser) ident() *Ident {
	if p.tok.Kind == TokenIdent {
		id := &Ident{Name: p.tok.Text, Range: p.tok.Range}
		p.advance()
		return id
	}
	p.diags.Addf(diag.CodeExpectedIdentifier, diag.SeverityError, p.tok.Range,
		"expected an identifier")
	return nil
}

// endLabel consumes an optional ': name' trailer after an end keyword.
func (p *parser) endLabel() *Ident {
	if !p.at(":") {
		return nil
	}
	if p.peek(0).Kind != TokenIdent {
		return nil
	}
	p.advance() // :
	id := &Ident{Name: p.tok.Text, Range: p.tok.Range}
	p.advance()
	return id
}

// rangeFrom builds a range from a start offset to the end of the previously
// consumed region (approximated by the current token's start).
func (p *parser) rangeFrom(start source.Range) source.Range {
	end := p.tok.Range.Start
	if end < start.Start {
		end = start.End
	}
	return source.Range{Buffer: start.Buffer, Start: start.Start, End: end}
}

// skipTo advances until one of the stop texts (or EOF) is current. Used for
// error recovery; the skipped region becomes a BadItem/BadExpr at the
// caller's discretion.
func (p *parser) skipTo(stops ...string) {
	for !p.atEOF() {
		for _, s := range stops {
			if p.at(s) {
				return
			}
		}
		p.advance()
	}
}

// skipBalanced consumes a balanced (...) / [...] / {...} group, assuming the
// current token is the opener.
func (p *parser) skipBalanced(open, close string) {
	depth := 0
	for !p.atEOF() {
		if p.at(open) {
			depth++
		} else if p.at(close) {
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// ---------------------------------------------------------------------------

func (p *parser) parseFile() *File {
	var items []Item
	for !p.atEOF() {
		before := p.tok
		item := p.parseItem()
		if item != nil {
			items = append(items, item)
		}
		if item == nil && p.tok == before && !p.atEOF() {
			// A stray end keyword at file scope; consume it so the loop
			// always makes progress.
			p.advance()
		}
	}
	// The EOF token's range sits at the end of the main buffer.
	return &File{
		Buffer: p.buffer,
		Items:  items,
		Full:   source.Range{Buffer: p.buffer, Start: 0, End: p.tok.Range.End},
	}
}

// endKeywords terminate an item list without being items themselves.
var endKeywords = map[string]bool{
	"endmodule": true, "endinterface": true, "endpackage": true,
	"endprogram": true, "endclass": true, "endfunction": true,
	"endtask": true, "endgenerate": true, "end": true, "endcase": true,
	"join": true, "join_any": true, "join_none": true,
}

// parseItem parses one item at file, package, or design-element scope.
// Returns nil when the current token terminates the enclosing construct.
func (p *parser) parseItem() Item {
	if p.tok.Kind == TokenKeyword && endKeywords[p.tok.Text] {
		return nil
	}

	switch {
	case p.tok.Kind == TokenKeyword:
		return p.parseKeywordItem()
	case p.tok.Kind == TokenIdent:
		return p.parseIdentItem()
	case p.at(";"):
		p.advance()
		return nil
	default:
		start := p.tok.Range
		p.diags.Addf(diag.CodeUnexpectedToken, diag.SeverityError, p.tok.Range,
			"unexpected '"+p.tok.Text+"'")
		p.advance()
		return &BadItem{Full: start}
	}
}

func (p *parser) parseKeywordItem() Item {
	switch p.tok.Text {
	case "module", "interface", "program":
		// "interface class" is a class form, not a design element.
		if p.tok.Text == "interface" && p.peek(0).IsKeyword("class") {
			p.advance()
			return p.parseClass()
		}
		return p.parseModule()
	case "package":
		return p.parsePackage()
	case "class", "virtual":
		if p.tok.Text == "virtual" {
			if p.peek(0).IsKeyword("class") {
				p.advance()
				return p.parseClass()
			}
			// virtual interface variable or virtual method outside class;
			// treat as a data declaration.
			return p.parseVarDeclItem(false)
		}
		return p.parseClass()
	case "typedef":
		return p.parseTypedef()
	case "import":
		return p.parseImport()
	case "export":
		start := p.tok.Range
		p.skipTo(";")
		p.accept(";")
		return &BadItem{Full: p.rangeFrom(start)}
	case "parameter", "localparam":
		return p.parseParamItem()
	case "function":
		return p.parseFunc(false)
	case "task":
		return p.parseFunc(true)
	case "modport":
		return p.parseModport()
	case "genvar":
		return p.parseGenvar()
	case "generate":
		return p.parseGenerateRegion()
	case "if":
		return p.parseGenIf()
	case "for":
		return p.parseGenFor()
	case "begin":
		return p.parseGenBlock()
	case "assign":
		return p.parseContinuousAssign()
	case "initial", "final", "always", "always_comb", "always_ff", "always_latch":
		return p.parseProceduralBlock()
	case "input", "output", "inout", "ref":
		return p.parsePortDirDecl()
	case "timeunit", "timeprecision", "defparam", "specify", "assert", "assume",
		"cover", "property", "sequence", "wait", "disable", "extern", "pure":
		start := p.tok.Range
		p.skipTo(";", "endmodule", "endpackage", "endinterface")
		p.accept(";")
		return &BadItem{Full: p.rangeFrom(start)}
	case "static", "automatic", "const", "local", "protected":
		p.advance()
		return p.parseItem()
	default:
		if isNetKeyword(p.tok.Text) {
			return p.parseVarDeclItem(true)
		}
		if isDataTypeKeyword(p.tok.Text) || p.tok.Text == "enum" ||
			p.tok.Text == "struct" || p.tok.Text == "union" || p.tok.Text == "var" {
			return p.parseVarDeclItem(false)
		}
		start := p.tok.Range
		p.diags.Addf(diag.CodeUnexpectedToken, diag.SeverityError, p.tok.Range,
			"unexpected '"+p.tok.Text+"'")
		p.advance()
		p.skipTo(";", "endmodule", "endpackage", "endinterface", "end")
		p.accept(";")
		return &BadItem{Full: p.rangeFrom(start)}
	}
}

// parseIdentItem disambiguates the forms that start with an identifier at
// item scope: an instantiation, a typed declaration with a named type, or a
// scoped-type declaration.
func (p *parser) parseIdentItem() Item {
	next := p.peek(0)

	// pkg::type name ... → data declaration with scoped type
	if next.Is("::") {
		return p.parseVarDeclItem(false)
	}

	// Name #(...) ... → instantiation with parameter overrides, or a
	// specialized-class variable declaration. Decide by what follows the
	// closing paren: instance name '(' → instantiation; name ';'/'='/','
	// → declaration.
	if next.Is("#") {
		if p.afterHashGroupIsInstance() {
			return p.parseInstance()
		}
		return p.parseVarDeclItem(false)
	}

	// Name name ( → instantiation. Name name ;/=/, / [ → declaration.
	if next.Kind == TokenIdent {
		after := p.peek(1)
		if after.Is("(") {
			return p.parseInstance()
		}
		if after.Is("[") {
			// Could be 'type name [dims];' or 'mod inst [dims] (...)'.
			if p.afterDimsIsParen(0) {
				return p.parseInstance()
			}
		}
		return p.parseVarDeclItem(false)
	}

	// Lone expression (e.g. a defparam-ish assignment) — consume to ';'.
	start := p.tok.Range
	p.skipTo(";", "endmodule", "endpackage", "endinterface", "end")
	p.accept(";")
	return &BadItem{Full: p.rangeFrom(start)}
}

// afterHashGroupIsInstance looks past "Name #( ... )" and reports whether an
// instance name followed by '(' comes next.
func (p *parser) afterHashGroupIsInstance() bool {
	// current: Name, peek(0) == '#'
	i := 1
	if !p.peek(i).Is("(") {
		return false
	}
	depth := 0
	for ; i < 4096; i++ {
		t := p.peek(i)
		if t.Kind == TokenEOF {
			return false
		}
		if t.Is("(") {
			depth++
		}
		if t.Is(")") {
			depth--
			if depth == 0 {
				i++
				break
			}
		}
	}
	if p.peek(i).Kind != TokenIdent {
		return false
	}
	return p.peek(i + 1).Is("(")
}

// afterDimsIsParen looks past "[...]" groups starting at lookahead index
// nameIdx+1 (the '[') and reports whether '(' follows.
func (p *parser) afterDimsIsParen(nameIdx int) bool {
	i := nameIdx + 1
	depth := 0
	for ; i < 4096; i++ {
		t := p.peek(i)
		if t.Kind == TokenEOF {
			return false
		}
		if t.Is("[") {
			depth++
			continue
		}
		if t.Is("]") {
			depth--
			if depth == 0 {
				if p.peek(i + 1).Is("[") {
					i++
					continue
				}
				return p.peek(i + 1).Is("(")
			}
			continue
		}
		if depth == 0 {
			return t.Is("(")
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Design elements

func (p *parser) parseModule() Item {
	start := p.tok.Range
	kind := p.tok.Text
	p.advance()

	// Lifetime qualifier
	if p.at("static") || p.at("automatic") {
		p.advance()
	}

	name := p.ident()
	decl := &ModuleDecl{Kind: kind, Name: name}

	// Header package imports: module m import pkg::*; #(...) (...);
	for p.at("import") {
		if imp, ok := p.parseImport().(*ImportDecl); ok {
			decl.Imports = append(decl.Imports, imp)
		}
	}

	if p.at("#") {
		decl.ParamPorts = p.parseParamPorts()
	}
	if p.at("(") {
		decl.Ports = p.parsePortList()
	}
	p.expect(";")

	for !p.atEOF() && !p.at("end"+kind) {
		item := p.parseItem()
		if item == nil {
			if !p.at("end" + kind) {
				// An end keyword of some enclosing construct; bail out so
				// the outer parser can see it.
				break
			}
			continue
		}
		decl.Items = append(decl.Items, item)
	}
	if !p.accept("end" + kind) {
		p.diags.Addf(diag.CodeUnclosedBlock, diag.SeverityError, start,
			"missing 'end"+kind+"'")
	}
	decl.EndLabel = p.endLabel()
	decl.Full = p.rangeFrom(start)
	return decl
}

func (p *parser) parsePackage() Item {
	start := p.tok.Range
	p.advance()
	name := p.ident()
	p.expect(";")

	decl := &PackageDecl{Name: name}
	for !p.atEOF() && !p.at("endpackage") {
		item := p.parseItem()
		if item == nil {
			if !p.at("endpackage") {
				break
			}
			continue
		}
		decl.Items = append(decl.Items, item)
	}
	if !p.accept("endpackage") {
		p.diags.Addf(diag.CodeUnclosedBlock, diag.SeverityError, start,
			"missing 'endpackage'")
	}
	decl.EndLabel = p.endLabel()
	decl.Full = p.rangeFrom(start)
	return decl
}

func (p *parser) parseClass() Item {
	start := p.tok.Range
	p.advance() // class
	name := p.ident()

	decl := &ClassDecl{Name: name}
	if p.at("#") {
		decl.ParamPorts = p.parseParamPorts()
	}
	if p.accept("extends") {
		decl.Extends = p.parseTypeRef()
		// Constructor arguments on the base class: extends Base(args)
		if p.at("(") {
			p.skipBalanced("(", ")")
		}
	}
	if p.accept("implements") {
		p.parseTypeRef()
		for p.accept(",") {
			p.parseTypeRef()
		}
	}
	p.expect(";")

	for !p.atEOF() && !p.at("endclass") {
		item := p.parseItem()
		if item == nil {
			if !p.at("endclass") {
				break
			}
			continue
		}
		decl.Items = append(decl.Items, item)
	}
	if !p.accept("endclass") {
		p.diags.Addf(diag.CodeUnclosedBlock, diag.SeverityError, start,
			"missing 'endclass'")
	}
	decl.EndLabel = p.endLabel()
	decl.Full = p.rangeFrom(start)
	return decl
}
