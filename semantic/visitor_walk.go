package semantic

import (
	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/syntax"
)

func (v *visitor) file(f *syntax.File) {
	for _, item := range f.Items {
		v.item(item)
	}
}

func (v *visitor) item(item syntax.Item) {
	switch n := item.(type) {
	case *syntax.ModuleDecl:
		sym := v.symbolFor(n)
		v.addDefinition(sym)
		v.endLabel(n.EndLabel, sym)
		v.inScope(sym, func() {
			for _, imp := range n.Imports {
				v.item(imp)
			}
			for _, p := range n.ParamPorts {
				v.paramDecl(p)
			}
			for _, port := range n.Ports {
				v.portDecl(port)
			}
			for _, it := range n.Items {
				v.item(it)
			}
		})

	case *syntax.PackageDecl:
		sym := v.symbolFor(n)
		v.addDefinition(sym)
		v.endLabel(n.EndLabel, sym)
		v.inScope(sym, func() {
			for _, it := range n.Items {
				v.item(it)
			}
		})

	case *syntax.ClassDecl:
		sym := v.symbolFor(n)
		v.addDefinition(sym)
		v.endLabel(n.EndLabel, sym)
		v.inScope(sym, func() {
			for _, p := range n.ParamPorts {
				v.paramDecl(p)
			}
			if n.Extends != nil {
				v.typeRef(n.Extends)
			}
			for _, it := range n.Items {
				v.item(it)
			}
		})

	case *syntax.TypedefDecl:
		sym := v.symbolFor(n)
		v.addDefinition(sym)
		if n.Type != nil {
			v.dataTypeUnder(sym, n.Type)
		}

	case *syntax.ParamDecl:
		v.paramDecl(n)

	case *syntax.ParamGroup:
		for _, p := range n.Params {
			v.paramDecl(p)
		}

	case *syntax.PortDecl:
		v.portDecl(n)

	case *syntax.PortDirDecl:
		if n.Type != nil {
			v.dataType(n.Type)
		}
		for _, d := range n.Names {
			// The declarator updated the port symbol's range during
			// elaboration; emit the definition here, where it textually
			// sits.
			if sym := v.namedMember(identName(d.Name)); sym != nil && sym.Kind == compile.SymbolPort {
				v.addDefinition(sym)
			}
			v.declarator(d)
		}

	case *syntax.VarDecl:
		if n.Type != nil {
			v.dataType(n.Type)
		}
		for _, d := range n.Names {
			sym := v.symbolFor(d)
			if sym == nil {
				sym = v.namedMember(identName(d.Name))
			}
			v.addDefinition(sym)
			v.declaratorWithType(d, sym)
		}

	case *syntax.ImportDecl:
		for _, it := range n.Items {
			// The package name and the imported item are separate
			// reference entries.
			if pkg := v.comp.ResolvePackage(identName(it.Package)); pkg != nil {
				v.addReference(it.Package, pkg)
			}
			if !it.Wildcard && it.Item != nil {
				if pkg := v.comp.ResolvePackage(identName(it.Package)); pkg != nil {
					if member := pkg.Lookup(it.Item.Name); member != nil {
						v.addReference(it.Item, member)
					}
				}
			}
		}

	case *syntax.FuncDecl:
		sym := v.symbolFor(n)
		v.addDefinition(sym)
		v.endLabel(n.EndLabel, sym)
		v.inScope(sym, func() {
			if n.RetType != nil {
				v.dataType(n.RetType)
			}
			for _, arg := range n.Args {
				if argSym := v.symbolFor(arg); argSym != nil {
					v.addDefinition(argSym)
				}
				if arg.Type != nil {
					v.dataType(arg.Type)
				}
				if arg.Init != nil {
					v.expr(arg.Init, nil)
				}
			}
			for _, st := range n.Body {
				v.stmt(st)
			}
		})

	case *syntax.ModportDecl:
		for _, it := range n.Items {
			sym := v.symbolFor(it)
			v.addDefinition(sym)
			v.inScope(sym, func() {
				for _, mp := range it.Ports {
					if mpSym := v.scope.Lookup(identName(mp.Name)); mpSym != nil {
						v.addDefinition(mpSym)
					}
				}
			})
		}

	case *syntax.GenvarDecl:
		for _, name := range n.Names {
			if sym := v.namedMember(name.Name); sym != nil && sym.Kind == compile.SymbolGenvar {
				v.addDefinition(sym)
			}
		}

	case *syntax.GenerateRegion:
		for _, it := range n.Items {
			v.item(it)
		}

	case *syntax.GenIf:
		// Sibling if/else-if branches share condition sub-expressions in
		// some tree shapes; emit each condition only once.
		if n.Cond != nil && !v.visitedConds[n.Cond] {
			v.visitedConds[n.Cond] = true
			v.expr(n.Cond, nil)
		}
		if n.Then != nil {
			v.item(n.Then)
		}
		if n.Else != nil {
			v.item(n.Else)
		}

	case *syntax.GenFor:
		if n.Init != nil {
			v.expr(n.Init, nil)
		}
		if n.Cond != nil {
			v.expr(n.Cond, nil)
		}
		if n.Step != nil {
			v.expr(n.Step, nil)
		}
		if n.Body != nil {
			v.item(n.Body)
		}

	case *syntax.GenBlock:
		sym := v.symbolFor(n)
		if n.Label != nil {
			v.addDefinition(sym)
		}
		v.inScope(sym, func() {
			for _, it := range n.Items {
				v.item(it)
			}
		})

	case *syntax.Instance:
		v.instance(n)

	case *syntax.InstanceGroup:
		for _, inst := range n.Instances {
			v.instance(inst)
		}

	case *syntax.ContinuousAssign:
		for _, a := range n.Assigns {
			v.expr(a, nil)
		}

	case *syntax.ProceduralBlock:
		v.stmt(n.Body)
	}
}

// instance indexes an instantiation: the module name, parameter-override
// names, the instance name definition, and named port connections. The
// instantiated body is NOT descended — its definitions are indexed when
// their own file is current.
func (v *visitor) instance(n *syntax.Instance) {
	def := v.comp.ResolveDefinition(identName(n.ModuleName))
	if def != nil {
		v.addReference(n.ModuleName, def)
	}

	for _, pa := range n.ParamAssigns {
		if pa.Name != nil && def != nil {
			if param := v.comp.ResolveMember(def, pa.Name.Name); param != nil {
				v.addReference(pa.Name, param)
			}
		}
		if pa.Value != nil {
			v.expr(pa.Value, nil)
		}
	}

	if sym := v.symbolFor(n); sym != nil {
		v.addDefinition(sym)
	}
	for _, dim := range n.Dims {
		v.expr(dim, nil)
	}

	for _, conn := range n.Conns {
		// Named connections index the port name against the definition;
		// ordered connections only index the value expression.
		if conn.Name != nil && def != nil {
			if port := v.comp.ResolveMember(def, conn.Name.Name); port != nil {
				v.addReference(conn.Name, port)
			}
		}
		if conn.Expr != nil {
			v.expr(conn.Expr, nil)
		}
	}
}

// paramDecl emits the parameter definition and walks its pieces.
func (v *visitor) paramDecl(p *syntax.ParamDecl) {
	if p.Type != nil {
		v.dataType(p.Type)
	}
	sym := v.symbolFor(p)
	if sym == nil {
		sym = v.namedMember(identName(p.Name))
	}
	v.addDefinition(sym)
	if p.Init != nil {
		v.expr(p.Init, nil)
	}
}

// portDecl emits the port definition; interface ports index the interface
// and modport name tokens as references.
func (v *visitor) portDecl(p *syntax.PortDecl) {
	if p.Type != nil {
		v.dataType(p.Type)
	}

	if p.Iface != nil {
		ifaceDef := v.comp.ResolveDefinition(p.Iface.Name)
		if ifaceDef != nil {
			v.addReference(p.Iface, ifaceDef)
			if p.Modport != nil {
				if mp := v.comp.ResolveMember(ifaceDef, p.Modport.Name); mp != nil {
					v.addReference(p.Modport, mp)
				}
			}
		}
	}

	sym := v.symbolFor(p)
	if sym == nil {
		sym = v.namedMember(identName(p.Name))
	}
	if sym != nil && sym.Kind == compile.SymbolPort {
		// Non-ANSI header names defer their definition entry to the body
		// declarator; emit here only when this node owns the range.
		if nd, ok := sym.Node.(*syntax.PortDecl); ok && nd == p {
			v.addDefinition(sym)
		}
	}
}

// declarator walks dims and initializer without re-emitting a definition.
func (v *visitor) declarator(d *syntax.Declarator) {
	for _, dim := range d.Dims {
		v.expr(dim, nil)
	}
	if d.Init != nil {
		v.expr(d.Init, nil)
	}
}

// declaratorWithType walks a declarator whose initializer may be an
// assignment pattern typed by the declared symbol.
func (v *visitor) declaratorWithType(d *syntax.Declarator, sym *compile.Symbol) {
	for _, dim := range d.Dims {
		v.expr(dim, nil)
	}
	if d.Init != nil {
		var expected *compile.Symbol
		if sym != nil {
			expected = sym.Type
		}
		v.expr(d.Init, expected)
	}
}

// endLabel indexes 'endmodule : Foo' style trailers as references to the
// construct they close.
func (v *visitor) endLabel(label *syntax.Ident, sym *compile.Symbol) {
	if label == nil || sym == nil {
		return
	}
	v.addReference(label, sym)
}

// ---------------------------------------------------------------------------
// Statements

func (v *visitor) stmt(st syntax.Stmt) {
	switch n := st.(type) {
	case *syntax.BlockStmt:
		sym := v.symbolFor(n)
		if n.Label != nil {
			v.addDefinition(sym)
		}
		if n.EndLabel != nil && sym != nil && sym.Name != "" {
			v.addReference(n.EndLabel, sym)
		}
		v.inScope(sym, func() {
			for _, s := range n.Stmts {
				v.stmt(s)
			}
		})

	case *syntax.DeclStmt:
		v.item(n.Decl)

	case *syntax.ExprStmt:
		v.expr(n.X, nil)

	case *syntax.IfStmt:
		v.expr(n.Cond, nil)
		v.stmt(n.Then)
		if n.Else != nil {
			v.stmt(n.Else)
		}

	case *syntax.ForStmt:
		if n.Init != nil {
			v.stmt(n.Init)
		}
		if n.Cond != nil {
			v.expr(n.Cond, nil)
		}
		if n.Step != nil {
			v.expr(n.Step, nil)
		}
		if n.Body != nil {
			v.stmt(n.Body)
		}

	case *syntax.CaseStmt:
		v.expr(n.Cond, nil)
		for _, item := range n.Items {
			for _, x := range item.Exprs {
				v.expr(x, nil)
			}
			if item.Body != nil {
				v.stmt(item.Body)
			}
		}

	case *syntax.ReturnStmt:
		if n.Value != nil {
			v.expr(n.Value, nil)
		}
	}
}

// ---------------------------------------------------------------------------
// Expressions

// expr walks an expression emitting reference entries. expected carries the
// type context for assignment-pattern keys; nil when unknown.
func (v *visitor) expr(x syntax.Expr, expected *compile.Symbol) {
	switch n := x.(type) {
	case *syntax.NameExpr:
		if target := v.comp.ResolveName(v.scope, n.Name.Name); target != nil {
			v.addReference(n.Name, target)
		}

	case *syntax.ScopedExpr:
		v.scopedExpr(n)

	case *syntax.MemberExpr:
		v.memberExpr(n)

	case *syntax.IndexExpr:
		v.expr(n.X, nil)
		for _, idx := range n.Index {
			v.expr(idx, nil)
		}

	case *syntax.CallExpr:
		// System calls ($display, $bits) are not user symbols; only their
		// arguments are indexed.
		if n.SystemName == "" && n.Fun != nil {
			v.expr(n.Fun, nil)
		}
		for _, arg := range n.Args {
			v.expr(arg, nil)
		}

	case *syntax.CastExpr:
		// Conversion expressions: the cast target is a type reference.
		if n.Type != nil {
			v.dataType(n.Type)
		}
		if n.Size != nil {
			v.expr(n.Size, nil)
		}
		if n.X != nil {
			v.expr(n.X, expected)
		}

	case *syntax.UnaryExpr:
		v.expr(n.X, nil)

	case *syntax.BinaryExpr:
		if n.Op == "=" {
			// Assignments propagate the LHS type into RHS patterns.
			v.expr(n.X, nil)
			v.expr(n.Y, v.typeOfExpr(n.X))
			return
		}
		v.expr(n.X, nil)
		v.expr(n.Y, nil)

	case *syntax.CondExpr:
		v.expr(n.Cond, nil)
		v.expr(n.Then, expected)
		v.expr(n.Else, expected)

	case *syntax.ConcatExpr:
		for _, e := range n.Elems {
			v.expr(e, nil)
		}

	case *syntax.PatternExpr:
		v.patternExpr(n, expected)

	case *syntax.ParenExpr:
		v.expr(n.X, expected)
	}
}

// scopedExpr indexes pkg::item and Class#(...)::member: the scope name and
// the member are separate entries.
func (v *visitor) scopedExpr(n *syntax.ScopedExpr) {
	if n.Scope == nil {
		return
	}
	scopeSym, memberSym := v.comp.ResolveScoped(v.scope, n.Scope.Name, identName(n.Name))
	if scopeSym != nil {
		v.addReference(n.Scope, v.specializedTarget(scopeSym))
	}
	if memberSym != nil && n.Name != nil {
		v.addReference(n.Name, v.specializedTarget(memberSym))
	}

	// Specialization parameter names index against the generic class.
	for _, pa := range n.ScopeArgs {
		if pa.Name != nil && scopeSym != nil {
			if param := v.comp.ResolveMember(scopeSym, pa.Name.Name); param != nil {
				v.addReference(pa.Name, param)
			}
		}
		if pa.Value != nil {
			v.expr(pa.Value, nil)
		}
	}
}

// memberExpr indexes x.y chains: the base expression normally, the member
// against the base's resolved type. A base that resolves while the member
// does not is an unresolved hierarchical path — diagnosed at hint level by
// the converter, never fatal.
func (v *visitor) memberExpr(n *syntax.MemberExpr) {
	v.expr(n.X, nil)

	base := v.resolveExprSymbol(n.X)
	if base == nil {
		return
	}
	member := v.comp.ResolveMember(base, n.Name.Name)
	if member == nil {
		v.comp.Diags().Add(diag.Diagnostic{
			Code:     diag.CodeUnresolvedHierarchicalPath,
			Severity: diag.SeverityWarning,
			Range:    n.Name.Range,
			Message:  "cannot resolve '" + n.Name.Name + "' through this path without elaboration",
		})
		return
	}
	v.addReference(n.Name, member)
}

// patternExpr indexes '{key: value} keys as field references of the
// expected type.
func (v *visitor) patternExpr(n *syntax.PatternExpr, expected *compile.Symbol) {
	for _, key := range n.Keys {
		if key.Key != nil && expected != nil {
			if field := v.comp.ResolveMember(expected, key.Key.Name); field != nil {
				v.addReference(key.Key, field)
			}
		}
		if key.Value != nil {
			v.expr(key.Value, nil)
		}
	}
}

// resolveExprSymbol resolves an expression to the symbol it denotes, for
// member-access bases. Returns nil when the expression is not symbol-like.
func (v *visitor) resolveExprSymbol(x syntax.Expr) *compile.Symbol {
	switch n := x.(type) {
	case *syntax.NameExpr:
		return v.comp.ResolveName(v.scope, n.Name.Name)
	case *syntax.ScopedExpr:
		_, member := v.comp.ResolveScoped(v.scope, identName(n.Scope), identName(n.Name))
		return member
	case *syntax.MemberExpr:
		base := v.resolveExprSymbol(n.X)
		if base == nil {
			return nil
		}
		return v.comp.ResolveMember(base, n.Name.Name)
	case *syntax.IndexExpr:
		return v.resolveExprSymbol(n.X)
	case *syntax.ParenExpr:
		return v.resolveExprSymbol(n.X)
	}
	return nil
}

// typeOfExpr returns the type symbol of a resolvable expression, or nil.
func (v *visitor) typeOfExpr(x syntax.Expr) *compile.Symbol {
	sym := v.resolveExprSymbol(x)
	if sym == nil {
		return nil
	}
	return sym.Unwrap().Type
}

// ---------------------------------------------------------------------------
// Types

// dataType walks a type node emitting references for named types. A type
// node shared by several declarators is walked once.
func (v *visitor) dataType(t *syntax.DataType) {
	switch {
	case t.Name != nil:
		v.typeRef(t.Name)
	case t.Enum != nil:
		if t.Enum.Base != nil {
			v.dataType(t.Enum.Base)
		}
		for _, val := range t.Enum.Values {
			if val.Init != nil {
				v.expr(val.Init, nil)
			}
		}
	case t.Struct != nil:
		for _, f := range t.Struct.Fields {
			if f.Type != nil {
				v.dataType(f.Type)
			}
			for _, d := range f.Names {
				v.declarator(d)
			}
		}
	}
}

// dataTypeUnder walks a typedef's type, emitting definitions for the enum
// values and struct fields owned by the typedef symbol.
func (v *visitor) dataTypeUnder(owner *compile.Symbol, t *syntax.DataType) {
	switch {
	case t.Name != nil:
		v.typeRef(t.Name)
	case t.Enum != nil:
		if t.Enum.Base != nil {
			v.dataType(t.Enum.Base)
		}
		for _, val := range t.Enum.Values {
			if owner != nil {
				if sym := owner.Lookup(identName(val.Name)); sym != nil {
					v.addDefinition(sym)
				}
			}
			if val.Init != nil {
				v.expr(val.Init, nil)
			}
		}
	case t.Struct != nil:
		for _, f := range t.Struct.Fields {
			if f.Type != nil {
				v.dataType(f.Type)
			}
			for _, d := range f.Names {
				if owner != nil {
					if sym := owner.Lookup(identName(d.Name)); sym != nil {
						v.addDefinition(sym)
					}
				}
				v.declarator(d)
			}
		}
	}
}

// typeRef indexes a named type reference: the optional package qualifier,
// the type name, and any specialization arguments. Deduplicated per node.
func (v *visitor) typeRef(ref *syntax.TypeRef) {
	if ref == nil || v.visitedTypes[ref] {
		return
	}
	v.visitedTypes[ref] = true

	var target *compile.Symbol
	if ref.Package != nil {
		pkg := v.comp.ResolvePackage(ref.Package.Name)
		if pkg != nil {
			v.addReference(ref.Package, pkg)
			if ref.Name != nil {
				target = pkg.Lookup(ref.Name.Name)
			}
		}
	} else if ref.Name != nil {
		target = v.comp.ResolveName(v.scope, ref.Name.Name)
	}

	if target != nil && ref.Name != nil {
		v.addReference(ref.Name, v.specializedTarget(target))
	}

	for _, pa := range ref.ParamAssigns {
		if pa.Name != nil && target != nil {
			if param := v.comp.ResolveMember(target.Unwrap(), pa.Name.Name); param != nil {
				v.addReference(pa.Name, param)
			}
		}
		if pa.Value != nil {
			v.expr(pa.Value, nil)
		}
	}
}

func identName(id *syntax.Ident) string {
	if id == nil {
		return ""
	}
	return id.Name
}
