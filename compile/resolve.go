package compile

import (
	"github.com/svlsp/svlsp/source"
	"github.com/svlsp/svlsp/syntax"
)

// ResolveName performs lexical resolution of a simple name starting at
// scope: the scope's own members, its imports, then enclosing scopes, and
// finally the globally visible definition and package namespaces (local
// first, then the preamble). Returns nil when nothing matches.
func (c *Compilation) ResolveName(scope *Symbol, name string) *Symbol {
	if name == "" {
		return nil
	}
	c.Elaborate()

	for s := scope; s != nil; s = s.Parent {
		if m := s.Lookup(name); m != nil {
			return m
		}
		if m := c.resolveThroughImports(s, name); m != nil {
			return m
		}
	}

	if def := c.ResolveDefinition(name); def != nil {
		return def
	}
	if pkg := c.ResolvePackage(name); pkg != nil {
		return pkg
	}
	return nil
}

// resolveThroughImports checks a scope's import declarations: explicit
// imports of the name first, then wildcard imports in declaration order.
func (c *Compilation) resolveThroughImports(s *Symbol, name string) *Symbol {
	for _, imp := range s.imports {
		if !imp.wildcard && imp.itemName == name {
			if pkg := c.ResolvePackage(imp.pkgName); pkg != nil {
				if m := pkg.Lookup(name); m != nil {
					return m
				}
			}
		}
	}
	for _, imp := range s.imports {
		if imp.wildcard {
			if pkg := c.ResolvePackage(imp.pkgName); pkg != nil {
				if m := pkg.Lookup(name); m != nil {
					return m
				}
			}
		}
	}
	return nil
}

// ResolvePackage finds a package by name: local packages first, then the
// preamble.
func (c *Compilation) ResolvePackage(name string) *Symbol {
	c.Elaborate()
	if pkg, ok := c.packages[name]; ok {
		return pkg
	}
	if c.preamble != nil {
		return c.preamble.Package(name)
	}
	return nil
}

// ResolveDefinition finds a module/interface/program by name: local
// definitions first, then the preamble.
func (c *Compilation) ResolveDefinition(name string) *Symbol {
	c.Elaborate()
	if def, ok := c.definitions[name]; ok {
		return def
	}
	if c.preamble != nil {
		return c.preamble.Definition(name)
	}
	return nil
}

// ResolveScoped resolves scope::member. The scope name is tried as a
// package, then as a lexically visible class (or other scope symbol).
func (c *Compilation) ResolveScoped(at *Symbol, scopeName, member string) (scopeSym, memberSym *Symbol) {
	if pkg := c.ResolvePackage(scopeName); pkg != nil {
		return pkg, pkg.Lookup(member)
	}
	if cls := c.ResolveName(at, scopeName); cls != nil {
		cls = cls.Unwrap()
		return cls, c.lookupInClass(cls, member)
	}
	return nil, nil
}

// lookupInClass searches a class and its base-class chain.
func (c *Compilation) lookupInClass(cls *Symbol, name string) *Symbol {
	seen := 0
	for cur := cls; cur != nil && seen < 64; seen++ {
		if m := cur.Lookup(name); m != nil {
			return m
		}
		if cur.Kind == SymbolClass {
			cur = cur.Type // base class
		} else {
			break
		}
	}
	return nil
}

// ResolveMember resolves x.name given the symbol x resolved to. Variables
// and ports navigate through their type; instances through their
// definition; scopes directly.
func (c *Compilation) ResolveMember(base *Symbol, name string) *Symbol {
	if base == nil {
		return nil
	}
	base = base.Unwrap()

	switch base.Kind {
	case SymbolVariable, SymbolNet, SymbolPort, SymbolField, SymbolArgument:
		if base.Type != nil {
			return c.ResolveMember(base.Type, name)
		}
		return nil
	case SymbolInstance:
		if base.Type != nil {
			return c.ResolveMember(base.Type, name)
		}
		return nil
	case SymbolTypedef:
		// Struct fields and enum values live directly under the typedef;
		// typedefs of named types chain through.
		if m := base.Lookup(name); m != nil {
			return m
		}
		if base.Type != nil && base.Type != base {
			return c.ResolveMember(base.Type, name)
		}
		return nil
	case SymbolClass:
		return c.lookupInClass(base, name)
	case SymbolModule, SymbolInterface, SymbolProgram, SymbolPackage,
		SymbolGenerateBlock, SymbolStatementBlock, SymbolModport:
		return base.Lookup(name)
	default:
		return base.Lookup(name)
	}
}

// resolveTypeRef resolves a named type reference for the symbol that uses
// it. Resolution starts at the owning symbol's enclosing scope. Failures
// are silent: an unresolvable type leaves the symbol untyped, and the
// reference simply won't navigate.
func (c *Compilation) resolveTypeRef(owner *Symbol, ref *syntax.TypeRef) *Symbol {
	if ref == nil || ref.Name == nil {
		return nil
	}
	if ref.Package != nil {
		if pkg := c.ResolvePackage(ref.Package.Name); pkg != nil {
			if m := pkg.Lookup(ref.Name.Name); m != nil {
				return m.Unwrap()
			}
		}
		return nil
	}
	start := owner.Parent
	if start == nil {
		start = c.root
	}
	if sym := c.ResolveName(start, ref.Name.Name); sym != nil {
		return sym.Unwrap()
	}
	return nil
}

// ScopeAt returns the innermost scope symbol whose full range contains the
// byte offset in the given buffer. Falls back to the compilation unit.
func (c *Compilation) ScopeAt(buffer source.BufferID, offset int) *Symbol {
	c.Elaborate()
	best := c.root
	var descend func(s *Symbol)
	descend = func(s *Symbol) {
		for _, m := range s.Members {
			if !m.IsScope() {
				continue
			}
			if m.FullRange.Buffer == buffer && m.FullRange.Contains(offset) {
				best = m
				descend(m)
			}
		}
	}
	descend(c.root)
	return best
}

// ScopeForNode returns the innermost scope containing the node's span.
func (c *Compilation) ScopeForNode(n syntax.Node) *Symbol {
	span := n.Span()
	return c.ScopeAt(span.Buffer, span.Start)
}

// SymbolForNode finds the symbol whose declaring node is n, searching the
// whole tree. Used by tests; the indexer tracks symbols during its walk
// instead.
func (c *Compilation) SymbolForNode(n syntax.Node) *Symbol {
	c.Elaborate()
	var found *Symbol
	var walk func(s *Symbol)
	walk = func(s *Symbol) {
		if found != nil {
			return
		}
		if s.Node == n {
			found = s
			return
		}
		for _, m := range s.Members {
			walk(m)
		}
	}
	walk(c.root)
	return found
}

// Owns reports whether the symbol belongs to this compilation. The
// cross-compilation invariant: converting a foreign symbol's ranges through
// this compilation's source manager produces garbage, so callers check
// ownership first.
func (c *Compilation) Owns(sym *Symbol) bool {
	return sym != nil && sym.Comp == c
}
