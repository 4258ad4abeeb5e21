package compile

import (
	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/source"
	"github.com/svlsp/svlsp/syntax"
)

// elaborator builds the symbol tree for one compilation. It runs once, on
// the goroutine that owns the compilation.
type elaborator struct {
	comp *Compilation

	// deferred type/definition bindings resolved after all trees are
	// walked, so declaration order between files does not matter.
	typeBinds []typeBind
	instBinds []*Symbol
	impBinds  []impBind
	extBinds  []extBind
}

type typeBind struct {
	sym *Symbol
	ref *syntax.TypeRef
}

type impBind struct {
	sym  *Symbol
	item *syntax.ImportItem
}

type extBind struct {
	class *Symbol
	ref   *syntax.TypeRef
}

func (e *elaborator) file(f *syntax.File) {
	for _, item := range f.Items {
		e.item(e.comp.root, item)
	}
}

// nameRangeOf returns the identifier range, or the node's own range when the
// identifier is missing after error recovery.
func nameRangeOf(id *syntax.Ident, fallback syntax.Node) source.Range {
	if id != nil {
		return id.Range
	}
	return fallback.Span()
}

func identName(id *syntax.Ident) string {
	if id == nil {
		return ""
	}
	return id.Name
}

func (e *elaborator) item(scope *Symbol, item syntax.Item) {
	c := e.comp
	switch n := item.(type) {
	case *syntax.ModuleDecl:
		kind := SymbolModule
		switch n.Kind {
		case "interface":
			kind = SymbolInterface
		case "program":
			kind = SymbolProgram
		}
		sym := newSymbol(kind, identName(n.Name), nameRangeOf(n.Name, n), n.Full, n, c)
		scope.addMember(sym)
		e.registerDefinition(sym)

		for _, imp := range n.Imports {
			e.item(sym, imp)
		}
		for _, p := range n.ParamPorts {
			e.param(sym, p)
		}
		for _, port := range n.Ports {
			e.port(sym, port)
		}
		for _, it := range n.Items {
			e.item(sym, it)
		}

	case *syntax.PackageDecl:
		name := identName(n.Name)
		sym := newSymbol(SymbolPackage, name, nameRangeOf(n.Name, n), n.Full, n, c)
		scope.addMember(sym)
		if name != "" {
			if _, dup := c.packages[name]; dup {
				// First declaration wins; the duplicate is diagnosed, not
				// silently replaced.
				c.semaDiags.Add(diag.Diagnostic{
					Code:     diag.CodeDuplicatePackage,
					Severity: diag.SeverityWarning,
					Range:    nameRangeOf(n.Name, n),
					Message:  "package '" + name + "' is declared more than once; using the first declaration",
				})
			} else {
				c.packages[name] = sym
			}
		}
		for _, it := range n.Items {
			e.item(sym, it)
		}

	case *syntax.ClassDecl:
		sym := newSymbol(SymbolClass, identName(n.Name), nameRangeOf(n.Name, n), n.Full, n, c)
		scope.addMember(sym)
		for _, p := range n.ParamPorts {
			e.param(sym, p)
		}
		if n.Extends != nil {
			e.extBinds = append(e.extBinds, extBind{class: sym, ref: n.Extends})
		}
		for _, it := range n.Items {
			e.item(sym, it)
		}

	case *syntax.TypedefDecl:
		sym := newSymbol(SymbolTypedef, identName(n.Name), nameRangeOf(n.Name, n), n.Full, n, c)
		scope.addMember(sym)
		if n.Type != nil {
			e.dataType(scope, sym, n.Type)
		}

	case *syntax.ParamDecl:
		e.param(scope, n)

	case *syntax.ParamGroup:
		for _, p := range n.Params {
			e.param(scope, p)
		}

	case *syntax.PortDecl:
		e.port(scope, n)

	case *syntax.PortDirDecl:
		e.portDir(scope, n)

	case *syntax.VarDecl:
		kind := SymbolVariable
		if n.IsNet {
			kind = SymbolNet
		}
		for _, d := range n.Names {
			sym := newSymbol(kind, identName(d.Name), nameRangeOf(d.Name, n), n.Full, d, c)
			scope.addMember(sym)
			if n.Type != nil {
				e.dataTypeFor(scope, sym, n.Type)
			}
		}

	case *syntax.ImportDecl:
		for _, it := range n.Items {
			name := identName(it.Package)
			nameRange := nameRangeOf(it.Package, it)
			if !it.Wildcard && it.Item != nil {
				name = it.Item.Name
				nameRange = it.Item.Range
			}
			sym := newSymbol(SymbolImport, name, nameRange, it.Full, it, c)
			scope.addMember(sym)
			scope.imports = append(scope.imports, importEntry{
				pkgName:  identName(it.Package),
				itemName: identName(it.Item),
				wildcard: it.Wildcard,
			})
			e.impBinds = append(e.impBinds, impBind{sym: sym, item: it})
		}

	case *syntax.FuncDecl:
		kind := SymbolFunction
		if n.IsTask {
			kind = SymbolTask
		}
		sym := newSymbol(kind, identName(n.Name), nameRangeOf(n.Name, n), n.Full, n, c)
		scope.addMember(sym)
		for _, arg := range n.Args {
			argSym := newSymbol(SymbolArgument, identName(arg.Name), nameRangeOf(arg.Name, arg), arg.Full, arg, c)
			sym.addMember(argSym)
			if arg.Type != nil {
				e.dataTypeFor(sym, argSym, arg.Type)
			}
		}
		if n.RetType != nil {
			e.dataTypeFor(sym, sym, n.RetType)
		}
		for _, st := range n.Body {
			e.stmt(sym, st)
		}

	case *syntax.ModportDecl:
		for _, it := range n.Items {
			sym := newSymbol(SymbolModport, identName(it.Name), nameRangeOf(it.Name, it), it.Full, it, c)
			scope.addMember(sym)
			for _, mp := range it.Ports {
				mpSym := newSymbol(SymbolModportPort, identName(mp.Name), nameRangeOf(mp.Name, it), mp.Name.Range, mp, c)
				sym.addMember(mpSym)
				// The modport port aliases an interface signal; bind it so
				// navigation can reach the declaration.
				if target := scope.Lookup(identName(mp.Name)); target != nil {
					mpSym.Target = target
				}
			}
		}

	case *syntax.GenvarDecl:
		for _, name := range n.Names {
			sym := newSymbol(SymbolGenvar, name.Name, name.Range, n.Full, n, c)
			scope.addMember(sym)
		}

	case *syntax.GenerateRegion:
		for _, it := range n.Items {
			e.item(scope, it)
		}

	case *syntax.GenIf:
		if n.Then != nil {
			e.genBlock(scope, n.Then)
		}
		switch els := n.Else.(type) {
		case *syntax.GenBlock:
			e.genBlock(scope, els)
		case *syntax.GenIf:
			e.item(scope, els)
		}

	case *syntax.GenFor:
		// A loop variable not yet declared becomes a genvar of the
		// enclosing scope.
		if init, ok := n.Init.(*syntax.BinaryExpr); ok && n.Body != nil {
			if name, ok := init.X.(*syntax.NameExpr); ok {
				if scope.Lookup(name.Name.Name) == nil {
					gv := newSymbol(SymbolGenvar, name.Name.Name, name.Name.Range, name.Name.Range, n, c)
					scope.addMember(gv)
				}
			}
		}
		if n.Body != nil {
			e.genBlock(scope, n.Body)
		}

	case *syntax.GenBlock:
		e.genBlock(scope, n)

	case *syntax.Instance:
		e.instance(scope, n)

	case *syntax.InstanceGroup:
		for _, inst := range n.Instances {
			e.instance(scope, inst)
		}

	case *syntax.ProceduralBlock:
		e.stmt(scope, n.Body)

	case *syntax.ContinuousAssign, *syntax.BadItem:
		// No declarations inside.
	}
}

// registerDefinition records a module/interface/program for global lookup.
func (e *elaborator) registerDefinition(sym *Symbol) {
	if sym.Name == "" {
		return
	}
	c := e.comp
	if _, dup := c.definitions[sym.Name]; dup {
		c.semaDiags.Add(diag.Diagnostic{
			Code:     diag.CodeDuplicateDeclaration,
			Severity: diag.SeverityWarning,
			Range:    sym.NameRange,
			Message:  "definition '" + sym.Name + "' is declared more than once; using the first declaration",
		})
		return
	}
	c.definitions[sym.Name] = sym
}

func (e *elaborator) param(scope *Symbol, p *syntax.ParamDecl) {
	sym := newSymbol(SymbolParameter, identName(p.Name), nameRangeOf(p.Name, p), p.Full, p, e.comp)
	scope.addMember(sym)
	if p.Type != nil {
		e.dataTypeFor(scope, sym, p.Type)
	}
}

func (e *elaborator) port(scope *Symbol, p *syntax.PortDecl) {
	sym := newSymbol(SymbolPort, identName(p.Name), nameRangeOf(p.Name, p), p.Full, p, e.comp)
	scope.addMember(sym)
	if p.Type != nil {
		e.dataTypeFor(scope, sym, p.Type)
	}
	// Interface ports bind to the interface definition later.
	if p.Iface != nil {
		e.typeBinds = append(e.typeBinds, typeBind{sym: sym, ref: &syntax.TypeRef{
			Name: p.Iface,
			Full: p.Iface.Range,
		}})
	}
}

// portDir merges a body-level direction declaration into header ports. The
// declarator name token becomes the port's definition range (the non-ANSI
// rule: navigation lands on the declarator, not the header name list).
func (e *elaborator) portDir(scope *Symbol, n *syntax.PortDirDecl) {
	for _, d := range n.Names {
		name := identName(d.Name)
		if existing := scope.Lookup(name); existing != nil && existing.Kind == SymbolPort {
			existing.NameRange = nameRangeOf(d.Name, n)
			existing.Node = d
			if n.Type != nil {
				e.dataTypeFor(scope, existing, n.Type)
			}
			continue
		}
		sym := newSymbol(SymbolPort, name, nameRangeOf(d.Name, n), n.Full, d, e.comp)
		scope.addMember(sym)
		if n.Type != nil {
			e.dataTypeFor(scope, sym, n.Type)
		}
	}
}

// dataType elaborates an inline enum/struct type attached to a typedef.
func (e *elaborator) dataType(scope, owner *Symbol, t *syntax.DataType) {
	switch {
	case t.Enum != nil:
		for _, v := range t.Enum.Values {
			val := newSymbol(SymbolEnumValue, identName(v.Name), nameRangeOf(v.Name, t.Enum), v.Name.Range, v, e.comp)
			owner.addMember(val)
			// Enum values are also visible in the enclosing scope.
			scope.addAlias(val)
		}
	case t.Struct != nil:
		for _, f := range t.Struct.Fields {
			for _, d := range f.Names {
				field := newSymbol(SymbolField, identName(d.Name), nameRangeOf(d.Name, f), f.Full, d, e.comp)
				owner.addMember(field)
				if f.Type != nil {
					e.dataTypeFor(owner, field, f.Type)
				}
			}
		}
	case t.Name != nil:
		e.typeBinds = append(e.typeBinds, typeBind{sym: owner, ref: t.Name})
	}
}

// dataTypeFor resolves the type of a non-typedef symbol: named types bind
// later; inline enums hoist their values into the scope.
func (e *elaborator) dataTypeFor(scope, owner *Symbol, t *syntax.DataType) {
	switch {
	case t.Name != nil:
		e.typeBinds = append(e.typeBinds, typeBind{sym: owner, ref: t.Name})
	case t.Enum != nil:
		for _, v := range t.Enum.Values {
			val := newSymbol(SymbolEnumValue, identName(v.Name), nameRangeOf(v.Name, t.Enum), v.Name.Range, v, e.comp)
			scope.addMember(val)
		}
	case t.Struct != nil:
		for _, f := range t.Struct.Fields {
			for _, d := range f.Names {
				field := newSymbol(SymbolField, identName(d.Name), nameRangeOf(d.Name, f), f.Full, d, e.comp)
				owner.addMember(field)
			}
		}
	}
}

func (e *elaborator) instance(scope *Symbol, n *syntax.Instance) {
	sym := newSymbol(SymbolInstance, identName(n.Name), nameRangeOf(n.Name, n), n.Full, n, e.comp)
	scope.addMember(sym)
	e.instBinds = append(e.instBinds, sym)
}

func (e *elaborator) genBlock(scope *Symbol, b *syntax.GenBlock) {
	target := scope
	if b.Label != nil {
		sym := newSymbol(SymbolGenerateBlock, b.Label.Name, b.Label.Range, b.Full, b, e.comp)
		scope.addMember(sym)
		target = sym
	} else {
		// Unnamed blocks still scope their contents.
		sym := newSymbol(SymbolGenerateBlock, "", b.Full, b.Full, b, e.comp)
		scope.addMember(sym)
		target = sym
	}
	for _, it := range b.Items {
		e.item(target, it)
	}
}

// stmt walks statements for declarations and named blocks.
func (e *elaborator) stmt(scope *Symbol, st syntax.Stmt) {
	switch n := st.(type) {
	case *syntax.BlockStmt:
		target := scope
		if n.Label != nil {
			sym := newSymbol(SymbolStatementBlock, n.Label.Name, n.Label.Range, n.Full, n, e.comp)
			scope.addMember(sym)
			target = sym
		} else {
			sym := newSymbol(SymbolStatementBlock, "", n.Full, n.Full, n, e.comp)
			scope.addMember(sym)
			target = sym
		}
		for _, s := range n.Stmts {
			e.stmt(target, s)
		}
	case *syntax.DeclStmt:
		e.item(scope, n.Decl)
	case *syntax.IfStmt:
		e.stmt(scope, n.Then)
		if n.Else != nil {
			e.stmt(scope, n.Else)
		}
	case *syntax.ForStmt:
		if n.Init != nil {
			e.stmt(scope, n.Init)
		}
		if n.Body != nil {
			e.stmt(scope, n.Body)
		}
	case *syntax.CaseStmt:
		for _, item := range n.Items {
			if item.Body != nil {
				e.stmt(scope, item.Body)
			}
		}
	}
}

// bindChecks resolves the deferred bindings now that every tree's symbols
// exist, and emits the binding diagnostics.
func (e *elaborator) bindChecks() {
	c := e.comp

	for _, tb := range e.typeBinds {
		target := c.resolveTypeRef(tb.sym, tb.ref)
		if target != nil {
			tb.sym.Type = target
		}
	}

	for _, inst := range e.instBinds {
		n, ok := inst.Node.(*syntax.Instance)
		if !ok || n.ModuleName == nil {
			continue
		}
		def := c.ResolveDefinition(n.ModuleName.Name)
		if def == nil {
			c.semaDiags.Add(diag.Diagnostic{
				Code:     diag.CodeUnknownModule,
				Severity: diag.SeverityError,
				Range:    n.ModuleName.Range,
				Message:  "unknown module '" + n.ModuleName.Name + "'",
			})
			continue
		}
		inst.Type = def
	}

	for _, ib := range e.impBinds {
		pkgName := identName(ib.item.Package)
		pkg := c.ResolvePackage(pkgName)
		if pkg == nil {
			c.semaDiags.Add(diag.Diagnostic{
				Code:     diag.CodeUnknownPackage,
				Severity: diag.SeverityError,
				Range:    nameRangeOf(ib.item.Package, ib.item),
				Message:  "unknown package '" + pkgName + "'",
			})
			continue
		}
		if ib.item.Wildcard {
			ib.sym.Target = pkg
		} else if ib.item.Item != nil {
			ib.sym.Target = pkg.Lookup(ib.item.Item.Name)
		}
	}

	for _, xb := range e.extBinds {
		target := c.resolveTypeRef(xb.class, xb.ref)
		if target != nil {
			xb.class.Type = target
		}
	}
}

// addAlias makes sym resolvable by name in s without reparenting it.
func (s *Symbol) addAlias(sym *Symbol) {
	if sym.Name == "" {
		return
	}
	if s.byName == nil {
		s.byName = make(map[string]*Symbol)
	}
	if _, exists := s.byName[sym.Name]; !exists {
		s.byName[sym.Name] = sym
	}
}
