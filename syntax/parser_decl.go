package syntax

import (
	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/source"
)

// isDataTypeKeyword reports whether kw begins a builtin data type.
func isDataTypeKeyword(kw string) bool {
	switch kw {
	case "logic", "reg", "bit", "byte", "shortint", "int", "longint",
		"integer", "time", "real", "shortreal", "realtime", "string",
		"chandle", "event", "void", "type":
		return true
	}
	return false
}

// isNetKeyword reports whether kw begins a net declaration.
func isNetKeyword(kw string) bool {
	switch kw {
	case "wire", "tri", "triand", "trior", "tri0", "tri1",
		"supply0", "supply1", "wand", "wor", "uwire":
		return true
	}
	return false
}

// parseDataType parses a data type: builtin keyword with signing and packed
// dimensions, enum, struct/union, or a named (possibly scoped or
// specialized) type.
func (p *parser) parseDataType() *DataType {
	start := p.tok.Range

	switch {
	case p.tok.IsKeyword("enum"):
		enum := p.parseEnumType()
		return &DataType{Enum: enum, Full: p.rangeFrom(start)}

	case p.tok.IsKeyword("struct") || p.tok.IsKeyword("union"):
		st := p.parseStructType()
		return &DataType{Struct: st, Full: p.rangeFrom(start)}

	case p.tok.Kind == TokenKeyword && (isDataTypeKeyword(p.tok.Text) || isNetKeyword(p.tok.Text) || p.tok.Text == "var"):
		kw := p.tok.Text
		p.advance()
		t := &DataType{Keyword: kw}
		if p.at("signed") || p.at("unsigned") {
			t.Signing = p.tok.Text
			p.advance()
		}
		for p.at("[") {
			p.skipBalanced("[", "]")
		}
		t.Full = p.rangeFrom(start)
		return t

	case p.tok.Kind == TokenIdent:
		ref := p.parseTypeRef()
		t := &DataType{Name: ref}
		for p.at("[") {
			p.skipBalanced("[", "]")
		}
		t.Full = p.rangeFrom(start)
		return t

	default:
		p.diags.Addf(diag.CodeUnexpectedToken, diag.SeverityError, p.tok.Range,
			"expected a data type")
		return &DataType{Full: p.tok.Range}
	}
}

// parseTypeRef parses Name, pkg::Name, or Name#(args), including
// pkg::Name#(args).
func (p *parser) parseTypeRef() *TypeRef {
	start := p.tok.Range
	ref := &TypeRef{}

	first := p.ident()
	if first == nil {
		ref.Full = p.tok.Range
		return ref
	}

	if p.accept("::") {
		ref.Package = first
		ref.Name = p.ident()
	} else {
		ref.Name = first
	}

	if p.at("#") {
		ref.ParamAssigns = p.parseHashArgs()
	}

	ref.Full = p.rangeFrom(start)
	return ref
}

// parseHashArgs parses #(...) argument lists used by parameter overrides and
// class specializations. Named .name(value) entries are modeled; positional
// entries become NamedAssigns with a nil Name.
func (p *parser) parseHashArgs() []*NamedAssign {
	p.expect("#")
	if !p.at("(") {
		// #delay — not an argument list.
		if p.tok.Kind == TokenNumber || p.tok.Kind == TokenIdent {
			p.advance()
		}
		return nil
	}
	p.advance() // (

	var assigns []*NamedAssign
	for !p.atEOF() && !p.at(")") {
		start := p.tok.Range
		if p.at(".") {
			p.advance()
			name := p.ident()
			var value Expr
			if p.accept("(") {
				if !p.at(")") {
					value = p.parseExpr()
				}
				p.expect(")")
			}
			assigns = append(assigns, &NamedAssign{Name: name, Value: value, Full: p.rangeFrom(start)})
		} else {
			value := p.parseExpr()
			assigns = append(assigns, &NamedAssign{Value: value, Full: p.rangeFrom(start)})
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return assigns
}

// parseEnumType parses enum [base] { name [= init], ... }.
func (p *parser) parseEnumType() *EnumType {
	start := p.tok.Range
	p.advance() // enum

	enum := &EnumType{}
	if !p.at("{") && (p.tok.Kind == TokenKeyword || p.tok.Kind == TokenIdent) {
		enum.Base = p.parseDataType()
	}

	if p.expect("{") {
		for !p.atEOF() && !p.at("}") {
			name := p.ident()
			if name == nil {
				p.skipTo(",", "}")
			} else {
				val := &EnumValue{Name: name}
				// Range population: STATE[N] — consumed, not modeled.
				if p.at("[") {
					p.skipBalanced("[", "]")
				}
				if p.accept("=") {
					val.Init = p.parseExpr()
				}
				enum.Values = append(enum.Values, val)
			}
			if !p.accept(",") {
				break
			}
		}
		p.expect("}")
	}
	enum.Full = p.rangeFrom(start)
	return enum
}

// parseStructType parses struct|union [packed] [signing] { fields }.
func (p *parser) parseStructType() *StructType {
	start := p.tok.Range
	p.advance() // struct or union

	st := &StructType{}
	if p.accept("packed") {
		st.Packed = true
	}
	if p.at("signed") || p.at("unsigned") {
		p.advance()
	}

	if p.expect("{") {
		for !p.atEOF() && !p.at("}") {
			fieldStart := p.tok.Range
			typ := p.parseDataType()
			names := p.parseDeclarators()
			p.expect(";")
			st.Fields = append(st.Fields, &FieldDecl{
				Type:  typ,
				Names: names,
				Full:  p.rangeFrom(fieldStart),
			})
		}
		p.expect("}")
	}
	st.Full = p.rangeFrom(start)
	return st
}

// parseDeclarators parses name [dims] [= init] {, name [dims] [= init]}.
func (p *parser) parseDeclarators() []*Declarator {
	var decls []*Declarator
	for {
		name := p.ident()
		if name == nil {
			p.skipTo(",", ";", ")")
			if !p.accept(",") {
				return decls
			}
			continue
		}
		d := &Declarator{Name: name}
		for p.at("[") {
			dim := p.parseDimension()
			if dim != nil {
				d.Dims = append(d.Dims, dim)
			}
		}
		if p.accept("=") {
			d.Init = p.parseExpr()
		}
		decls = append(decls, d)
		if !p.accept(",") {
			return decls
		}
	}
}

// parseDimension parses one [..] group and returns the extent expression
// (the a in [a] or the a:b pair folded as a binary ':' — references inside
// either side remain indexable).
func (p *parser) parseDimension() Expr {
	start := p.tok.Range
	p.expect("[")
	if p.accept("]") {
		return nil // dynamic array []
	}
	var x Expr
	if p.at("$") {
		p.advance() // queue [$]
	} else {
		x = p.parseExpr()
		if p.accept(":") {
			y := p.parseExpr()
			x = &BinaryExpr{Op: ":", X: x, Y: y, Full: p.rangeFrom(start)}
		}
	}
	p.expect("]")
	return x
}

// parseVarDeclItem parses a data or net declaration at item scope.
func (p *parser) parseVarDeclItem(isNet bool) Item {
	start := p.tok.Range
	typ := p.parseDataType()
	names := p.parseDeclarators()
	p.expect(";")
	return &VarDecl{
		IsNet: isNet,
		Type:  typ,
		Names: names,
		Full:  p.rangeFrom(start),
	}
}

// parseTypedef parses typedef <type> <name> [dims];
// Forward typedefs (typedef class C;) produce a TypedefDecl with a nil Type
// keyword form.
func (p *parser) parseTypedef() Item {
	start := p.tok.Range
	p.advance() // typedef

	// Forward declarations: typedef class C; / typedef interface C;. Other
	// forward forms (typedef enum E;) are parsed as full type definitions.
	if (p.tok.IsKeyword("class") || p.tok.IsKeyword("interface")) && p.peek(0).Kind == TokenIdent && p.peek(1).Is(";") {
		p.advance()
		name := p.ident()
		p.expect(";")
		return &TypedefDecl{Name: name, Full: p.rangeFrom(start)}
	}

	typ := p.parseDataType()
	name := p.ident()
	for p.at("[") {
		p.skipBalanced("[", "]")
	}
	p.expect(";")
	return &TypedefDecl{Type: typ, Name: name, Full: p.rangeFrom(start)}
}

// parseImport parses import pkg::item, pkg::*, ...;
func (p *parser) parseImport() Item {
	start := p.tok.Range
	p.advance() // import

	decl := &ImportDecl{}
	for {
		itemStart := p.tok.Range
		pkg := p.ident()
		if pkg == nil {
			p.skipTo(";", ",")
		} else {
			item := &ImportItem{Package: pkg}
			p.expect("::")
			if p.accept("*") {
				item.Wildcard = true
			} else {
				item.Item = p.ident()
			}
			item.Full = p.rangeFrom(itemStart)
			decl.Items = append(decl.Items, item)
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect(";")
	decl.Full = p.rangeFrom(start)
	return decl
}

// parseParamItem parses a body parameter/localparam declaration; a single
// statement may declare several parameters.
func (p *parser) parseParamItem() Item {
	start := p.tok.Range
	local := p.tok.Text == "localparam"
	p.advance()

	decl := p.parseOneParam(local, start)
	// Additional comma-separated parameters share the statement; each one
	// becomes its own ParamDecl and all of them, the first included, are
	// returned together in a ParamGroup.
	if p.at(",") {
		group := &ParamGroup{Params: []*ParamDecl{decl}}
		for p.accept(",") {
			group.Params = append(group.Params, p.parseOneParamTail(local, decl))
		}
		p.expect(";")
		group.Full = p.rangeFrom(start)
		return group
	}
	p.expect(";")
	decl.Full = p.rangeFrom(start)
	return decl
}

// parseOneParam parses [type] name [= init] after the parameter keyword.
func (p *parser) parseOneParam(local bool, start source.Range) *ParamDecl {
	decl := &ParamDecl{Local: local}

	// A type is present when the next-but-one token is not '=' or ','.
	// "parameter DATA_WIDTH = 32" has no type; "parameter int W = 4" does;
	// "parameter type T = logic" declares a type parameter.
	if p.tok.Kind == TokenKeyword || (p.tok.Kind == TokenIdent && p.peek(0).Kind == TokenIdent) {
		decl.Type = p.parseDataType()
	}
	decl.Name = p.ident()
	for p.at("[") {
		p.skipBalanced("[", "]")
	}
	if p.accept("=") {
		decl.Init = p.parseExpr()
	}
	decl.Full = p.rangeFrom(start)
	return decl
}

// parseOneParamTail parses a continuation declarator in a multi-parameter
// statement, inheriting the first declaration's type.
func (p *parser) parseOneParamTail(local bool, first *ParamDecl) *ParamDecl {
	start := p.tok.Range
	decl := &ParamDecl{Local: local, Type: first.Type}
	decl.Name = p.ident()
	if p.accept("=") {
		decl.Init = p.parseExpr()
	}
	decl.Full = p.rangeFrom(start)
	return decl
}

// parseParamPorts parses #( [parameter] decl, ... ) in a design element or
// class header.
func (p *parser) parseParamPorts() []*ParamDecl {
	p.expect("#")
	if !p.expect("(") {
		return nil
	}

	var params []*ParamDecl
	var lastType *DataType
	for !p.atEOF() && !p.at(")") {
		start := p.tok.Range
		local := false
		switch {
		case p.accept("parameter"):
		case p.accept("localparam"):
			local = true
		}

		decl := &ParamDecl{Local: local}
		hasType := p.tok.Kind == TokenKeyword ||
			(p.tok.Kind == TokenIdent && p.peek(0).Kind == TokenIdent)
		if hasType {
			decl.Type = p.parseDataType()
			lastType = decl.Type
		} else {
			decl.Type = lastType
		}
		decl.Name = p.ident()
		if decl.Name == nil {
			p.skipTo(",", ")")
		} else {
			for p.at("[") {
				p.skipBalanced("[", "]")
			}
			if p.accept("=") {
				decl.Init = p.parseExpr()
			}
			decl.Full = p.rangeFrom(start)
			params = append(params, decl)
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return params
}

// parsePortList parses the ( ... ) header port list, handling ANSI
// directional ports, interface ports, and non-ANSI name lists.
func (p *parser) parsePortList() []*PortDecl {
	p.expect("(")

	var ports []*PortDecl
	var lastDir string
	var lastType *DataType

	for !p.atEOF() && !p.at(")") {
		start := p.tok.Range
		port := &PortDecl{}

		switch {
		case p.at("input") || p.at("output") || p.at("inout") || p.at("ref"):
			port.Dir = p.tok.Text
			p.advance()
			lastDir = port.Dir
			if p.tok.Kind == TokenKeyword || (p.tok.Kind == TokenIdent && p.peek(0).Kind == TokenIdent) {
				port.Type = p.parseDataType()
				lastType = port.Type
			} else {
				lastType = nil
			}
			port.Name = p.ident()

		case p.tok.Kind == TokenIdent && p.peek(0).Is("."):
			// Interface port: iface.modport name
			port.Iface = p.ident()
			p.expect(".")
			port.Modport = p.ident()
			port.Name = p.ident()

		case p.tok.Kind == TokenKeyword && p.tok.Text == "interface":
			// Generic interface port: interface [.modport] name
			p.advance()
			if p.accept(".") {
				port.Modport = p.ident()
			}
			port.Name = p.ident()

		case p.tok.Kind == TokenIdent && p.peek(0).Kind == TokenIdent:
			// Typed port continuing the previous direction: iface_t sb, or
			// dir-less typed ANSI port.
			port.Dir = lastDir
			port.Type = p.parseDataType()
			lastType = port.Type
			port.Name = p.ident()

		case p.tok.Kind == TokenIdent || p.tok.Kind == TokenKeyword && isDataTypeKeyword(p.tok.Text):
			if p.tok.Kind == TokenKeyword {
				port.Dir = lastDir
				port.Type = p.parseDataType()
				lastType = port.Type
				port.Name = p.ident()
			} else {
				// Bare name: non-ANSI port, or an ANSI continuation of the
				// previous direction/type (input a, b).
				port.Dir = lastDir
				port.Type = lastType
				port.Name = p.ident()
			}

		default:
			p.diags.Addf(diag.CodeUnexpectedToken, diag.SeverityError, p.tok.Range,
				"unexpected '"+p.tok.Text+"' in port list")
			p.skipTo(",", ")")
		}

		if port.Name != nil {
			for p.at("[") {
				p.skipBalanced("[", "]")
			}
			if p.accept("=") {
				p.parseExpr() // default value, not modeled
			}
			port.Full = p.rangeFrom(start)
			ports = append(ports, port)
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return ports
}

// parsePortDirDecl parses a body-level non-ANSI direction declaration.
func (p *parser) parsePortDirDecl() Item {
	start := p.tok.Range
	dir := p.tok.Text
	p.advance()

	var typ *DataType
	if p.tok.Kind == TokenKeyword || (p.tok.Kind == TokenIdent && p.peek(0).Kind == TokenIdent) {
		typ = p.parseDataType()
	}
	names := p.parseDeclarators()
	p.expect(";")
	return &PortDirDecl{Dir: dir, Type: typ, Names: names, Full: p.rangeFrom(start)}
}

// parseFunc parses a function or task declaration.
func (p *parser) parseFunc(isTask bool) Item {
	start := p.tok.Range
	p.advance() // function / task

	if p.at("static") || p.at("automatic") {
		p.advance()
	}

	decl := &FuncDecl{IsTask: isTask}

	if !isTask {
		// Return type is present unless the next token directly names the
		// function (identifier followed by '(' or ';').
		if p.tok.Kind == TokenKeyword ||
			(p.tok.Kind == TokenIdent && (p.peek(0).Kind == TokenIdent || p.peek(0).Is("::"))) {
			decl.RetType = p.parseDataType()
		}
	}

	decl.Name = p.ident()
	if p.at("(") {
		decl.Args = p.parseFuncArgs()
	}
	p.expect(";")

	endKw := "endfunction"
	if isTask {
		endKw = "endtask"
	}
	for !p.atEOF() && !p.at(endKw) {
		stmt := p.parseStmt()
		if stmt == nil {
			break
		}
		decl.Body = append(decl.Body, stmt)
	}
	if !p.accept(endKw) {
		p.diags.Addf(diag.CodeUnclosedBlock, diag.SeverityError, start,
			"missing '"+endKw+"'")
	}
	decl.EndLabel = p.endLabel()
	decl.Full = p.rangeFrom(start)
	return decl
}

// parseFuncArgs parses the ( [dir] [type] name [= init], ... ) list.
func (p *parser) parseFuncArgs() []*ArgDecl {
	p.expect("(")
	var args []*ArgDecl
	var lastType *DataType
	var lastDir string

	for !p.atEOF() && !p.at(")") {
		start := p.tok.Range
		arg := &ArgDecl{}

		if p.at("input") || p.at("output") || p.at("inout") || p.at("ref") {
			arg.Dir = p.tok.Text
			lastDir = arg.Dir
			p.advance()
			lastType = nil
		} else {
			arg.Dir = lastDir
		}

		if p.tok.Kind == TokenKeyword ||
			(p.tok.Kind == TokenIdent && p.peek(0).Kind == TokenIdent) {
			arg.Type = p.parseDataType()
			lastType = arg.Type
		} else {
			arg.Type = lastType
		}

		arg.Name = p.ident()
		if arg.Name == nil {
			p.skipTo(",", ")")
		} else {
			for p.at("[") {
				p.skipBalanced("[", "]")
			}
			if p.accept("=") {
				arg.Init = p.parseExpr()
			}
			arg.Full = p.rangeFrom(start)
			args = append(args, arg)
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return args
}

// parseModport parses modport name (dir a, b, output c), name2 (...);
func (p *parser) parseModport() Item {
	start := p.tok.Range
	p.advance() // modport

	decl := &ModportDecl{}
	for {
		itemStart := p.tok.Range
		name := p.ident()
		if name == nil {
			p.skipTo(";", ",")
		} else {
			item := &ModportItem{Name: name}
			if p.expect("(") {
				dir := ""
				for !p.atEOF() && !p.at(")") {
					if p.at("input") || p.at("output") || p.at("inout") || p.at("ref") {
						dir = p.tok.Text
						p.advance()
						continue
					}
					if p.at("import") || p.at("export") {
						// modport task import: consume the prototype.
						p.advance()
						p.skipTo(",", ")")
						continue
					}
					pn := p.ident()
					if pn == nil {
						p.skipTo(",", ")")
					} else {
						item.Ports = append(item.Ports, &ModportPort{Dir: dir, Name: pn})
					}
					if !p.accept(",") {
						break
					}
				}
				p.expect(")")
			}
			item.Full = p.rangeFrom(itemStart)
			decl.Items = append(decl.Items, item)
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect(";")
	decl.Full = p.rangeFrom(start)
	return decl
}

// parseGenvar parses genvar i, j;
func (p *parser) parseGenvar() Item {
	start := p.tok.Range
	p.advance()

	decl := &GenvarDecl{}
	for {
		name := p.ident()
		if name != nil {
			decl.Names = append(decl.Names, name)
		} else {
			p.skipTo(",", ";")
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect(";")
	decl.Full = p.rangeFrom(start)
	return decl
}

// parseInstance parses Name [#(...)] inst [dims] (conns) [, inst2 ...];
// Multiple instances in one statement produce one Instance node per
// instance, wrapped in an InstanceGroup.
func (p *parser) parseInstance() Item {
	start := p.tok.Range
	moduleName := p.ident()

	var paramAssigns []*NamedAssign
	if p.at("#") {
		paramAssigns = p.parseHashArgs()
	}

	var instances []*Instance
	for {
		instStart := p.tok.Range
		inst := &Instance{ModuleName: moduleName, ParamAssigns: paramAssigns}
		inst.Name = p.ident()
		if inst.Name == nil {
			p.skipTo(";", "endmodule")
			break
		}
		for p.at("[") {
			dim := p.parseDimension()
			if dim != nil {
				inst.Dims = append(inst.Dims, dim)
			}
		}
		if p.expect("(") {
			for !p.atEOF() && !p.at(")") {
				connStart := p.tok.Range
				conn := &PortConn{}
				if p.accept(".") {
					if p.accept("*") {
						conn.Wildcard = true
					} else {
						conn.Name = p.ident()
						if p.accept("(") {
							if !p.at(")") {
								conn.Expr = p.parseExpr()
							}
							p.expect(")")
						}
					}
				} else if !p.at(",") {
					conn.Expr = p.parseExpr()
				}
				conn.Full = p.rangeFrom(connStart)
				inst.Conns = append(inst.Conns, conn)
				if !p.accept(",") {
					break
				}
			}
			p.expect(")")
		}
		inst.Full = p.rangeFrom(instStart)
		// First instance spans from the module name.
		if len(instances) == 0 {
			inst.Full = p.rangeFrom(start)
		}
		instances = append(instances, inst)
		if !p.accept(",") {
			break
		}
	}
	p.expect(";")

	if len(instances) == 1 {
		return instances[0]
	}
	return &InstanceGroup{Instances: instances, Full: p.rangeFrom(start)}
}

// parseContinuousAssign parses assign a = b, c = d;
func (p *parser) parseContinuousAssign() Item {
	start := p.tok.Range
	p.advance() // assign

	// Optional drive strength / delay
	if p.at("#") {
		p.advance()
		if p.at("(") {
			p.skipBalanced("(", ")")
		} else if p.tok.Kind == TokenNumber || p.tok.Kind == TokenIdent {
			p.advance()
		}
	}

	decl := &ContinuousAssign{}
	for {
		decl.Assigns = append(decl.Assigns, p.parseExpr())
		if !p.accept(",") {
			break
		}
	}
	p.expect(";")
	decl.Full = p.rangeFrom(start)
	return decl
}

// parseProceduralBlock parses initial/final/always* <stmt>.
func (p *parser) parseProceduralBlock() Item {
	start := p.tok.Range
	kind := p.tok.Text
	p.advance()

	body := p.parseStmt()
	if body == nil {
		body = &EmptyStmt{Full: p.tok.Range}
	}
	return &ProceduralBlock{Kind: kind, Body: body, Full: p.rangeFrom(start)}
}

// ---------------------------------------------------------------------------
// Generate constructs

func (p *parser) parseGenerateRegion() Item {
	start := p.tok.Range
	p.advance() // generate

	region := &GenerateRegion{}
	for !p.atEOF() && !p.at("endgenerate") {
		item := p.parseItem()
		if item == nil {
			if !p.at("endgenerate") {
				break
			}
			continue
		}
		region.Items = append(region.Items, item)
	}
	if !p.accept("endgenerate") {
		p.diags.Addf(diag.CodeUnclosedBlock, diag.SeverityError, start,
			"missing 'endgenerate'")
	}
	region.Full = p.rangeFrom(start)
	return region
}

func (p *parser) parseGenIf() Item {
	start := p.tok.Range
	p.advance() // if
	p.expect("(")
	cond := p.parseExpr()
	p.expect(")")

	gen := &GenIf{Cond: cond}
	gen.Then = p.parseGenBranch()

	if p.accept("else") {
		if p.at("if") {
			if elseIf, ok := p.parseGenIf().(*GenIf); ok {
				gen.Else = elseIf
			}
		} else {
			gen.Else = p.parseGenBranch()
		}
	}
	gen.Full = p.rangeFrom(start)
	return gen
}

// parseGenBranch parses either a begin...end generate block or a single
// item, normalizing to *GenBlock.
func (p *parser) parseGenBranch() *GenBlock {
	if p.at("begin") {
		if block, ok := p.parseGenBlock().(*GenBlock); ok {
			return block
		}
		return &GenBlock{Full: p.tok.Range}
	}
	start := p.tok.Range
	item := p.parseItem()
	block := &GenBlock{Full: p.rangeFrom(start)}
	if item != nil {
		block.Items = []Item{item}
	}
	return block
}

func (p *parser) parseGenFor() Item {
	start := p.tok.Range
	p.advance() // for
	p.expect("(")

	gen := &GenFor{}
	if p.accept("genvar") {
		// Inline genvar declaration: for (genvar i = 0; ...)
		name := p.ident()
		if name != nil && p.accept("=") {
			init := p.parseExpr()
			gen.Init = &BinaryExpr{Op: "=", X: &NameExpr{Name: name}, Y: init, Full: p.rangeFrom(start)}
		}
	} else if !p.at(";") {
		gen.Init = p.parseExpr()
	}
	p.expect(";")
	if !p.at(";") {
		gen.Cond = p.parseExpr()
	}
	p.expect(";")
	if !p.at(")") {
		gen.Step = p.parseExpr()
	}
	p.expect(")")

	gen.Body = p.parseGenBranch()
	gen.Full = p.rangeFrom(start)
	return gen
}

// parseGenBlock parses begin [: label] items end [: label].
func (p *parser) parseGenBlock() Item {
	start := p.tok.Range
	p.advance() // begin

	block := &GenBlock{}
	if p.at(":") && p.peek(0).Kind == TokenIdent {
		p.advance()
		block.Label = p.ident()
	}

	for !p.atEOF() && !p.at("end") {
		item := p.parseItem()
		if item == nil {
			if !p.at("end") {
				break
			}
			continue
		}
		block.Items = append(block.Items, item)
	}
	if !p.accept("end") {
		p.diags.Addf(diag.CodeUnclosedBlock, diag.SeverityError, start,
			"missing 'end'")
	}
	if lbl := p.endLabel(); lbl != nil && block.Label == nil {
		block.Label = lbl
	}
	block.Full = p.rangeFrom(start)
	return block
}
