package semantic

import (
	"log/slog"

	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/preamble"
	"github.com/svlsp/svlsp/source"
	"github.com/svlsp/svlsp/syntax"
)

// visitor walks the current file's syntax tree and emits entries. One
// visitor per BuildIndex call; never reused.
type visitor struct {
	comp       *compile.Compilation
	sm         *source.Manager
	pre        *preamble.Manager
	uri        string
	mainBuffer source.BufferID
	logger     *slog.Logger

	entries []Entry
	errors  int

	// scope tracks the symbol scope matching the syntactic position, so
	// names resolve with the right visibility.
	scope *compile.Symbol

	// visitedTypes suppresses duplicate type-reference chains when several
	// declarators share one type node.
	visitedTypes map[*syntax.TypeRef]bool

	// visitedConds suppresses re-emission of generate-if conditions shared
	// between sibling branches.
	visitedConds map[syntax.Expr]bool
}

func newVisitor(comp *compile.Compilation, mainBuffer source.BufferID, uri string, pre *preamble.Manager, logger *slog.Logger) *visitor {
	return &visitor{
		comp:         comp,
		sm:           comp.SourceManager(),
		pre:          pre,
		uri:          uri,
		mainBuffer:   mainBuffer,
		logger:       logger.With(slog.String("component", "indexer")),
		scope:        comp.Root(),
		visitedTypes: make(map[*syntax.TypeRef]bool),
		visitedConds: make(map[syntax.Expr]bool),
	}
}

// ---------------------------------------------------------------------------
// Entry emission

// mainRange converts a raw range to LSP coordinates when it lies in the
// current file; ok=false otherwise (macro bodies from include files, error
// recovery leftovers).
func (v *visitor) mainRange(r source.Range) (source.LSPRange, bool) {
	if r.Buffer != v.mainBuffer || !r.IsValid() {
		return source.LSPRange{}, false
	}
	return v.sm.LSPRangeOf(r)
}

// addDefinition emits the declaring occurrence of sym. The reference range
// equals the definition range, and both live in the current file.
func (v *visitor) addDefinition(sym *compile.Symbol) {
	if sym == nil || sym.Name == "" {
		return
	}
	nameRange, ok := v.mainRange(sym.NameRange)
	if !ok {
		return
	}
	fullRange, ok := v.mainRange(sym.FullRange)
	if !ok {
		fullRange = nameRange
	}

	var children *compile.Symbol
	if sym.IsScope() {
		children = sym
	}

	v.entries = append(v.entries, Entry{
		RefRange:     nameRange,
		DefLoc:       Location{URI: v.uri, Range: nameRange},
		Symbol:       sym,
		Kind:         lspKind(sym),
		Name:         sym.Name,
		Parent:       sym.Parent,
		Children:     children,
		FullRange:    fullRange,
		IsDefinition: true,
	})
}

// addReference emits a reference at refIdent to target, resolving the
// definition location across compilations:
//
//  1. overlay-owned target → convert through the overlay's source manager;
//  2. preamble-owned target → use the precomputed symbol-info entry;
//  3. anything else (or a preamble miss) → drop and count. Best-effort
//     degradation, never an error surfaced to the client.
func (v *visitor) addReference(refIdent *syntax.Ident, target *compile.Symbol) {
	if refIdent == nil || target == nil {
		return
	}
	target = target.Unwrap()
	if target == nil {
		return
	}

	refRange, ok := v.mainRange(refIdent.Range)
	if !ok {
		return
	}

	defLoc, ok := v.definitionLocation(target)
	if !ok {
		v.errors++
		return
	}

	v.entries = append(v.entries, Entry{
		RefRange:  refRange,
		DefLoc:    defLoc,
		Symbol:    target,
		Kind:      lspKind(target),
		Name:      target.Name,
		Parent:    target.Parent,
		FullRange: refRange,
	})
}

// definitionLocation computes where target's definition lives.
func (v *visitor) definitionLocation(target *compile.Symbol) (Location, bool) {
	if v.comp.Owns(target) {
		r, ok := v.sm.LSPRangeOf(target.NameRange)
		if !ok {
			return Location{}, false
		}
		path := v.sm.PathOf(target.NameRange.Buffer)
		if path.IsZero() {
			return Location{}, false
		}
		uri := path.URI()
		if target.NameRange.Buffer == v.mainBuffer {
			uri = v.uri
		}
		return Location{URI: uri, Range: r}, true
	}

	if v.pre != nil && v.pre.IsPreambleSymbol(target) {
		if info, ok := v.pre.GetSymbolInfo(target); ok {
			return Location{URI: info.FileURI, Range: info.DefRange}, true
		}
		return Location{}, false
	}

	return Location{}, false
}

// specializedTarget navigates specialized-class symbols back to the generic
// class definition before location lookup. Our frontend resolves
// specializations directly to the generic class, so this is a pass-through
// kept as the single place the rule lives.
func (v *visitor) specializedTarget(target *compile.Symbol) *compile.Symbol {
	return target
}

// ---------------------------------------------------------------------------
// Scope tracking

// inScope runs fn with the scope that sym introduces. If sym is nil or not
// a scope, fn runs in the current scope.
func (v *visitor) inScope(sym *compile.Symbol, fn func()) {
	if sym == nil || !sym.IsScope() {
		fn()
		return
	}
	prev := v.scope
	v.scope = sym
	fn()
	v.scope = prev
}

// symbolFor finds the scope member elaborated from the given node. The
// elaborator attached declaration nodes to symbols, so matching on Node
// identity is exact even with duplicate names.
func (v *visitor) symbolFor(node syntax.Node) *compile.Symbol {
	for _, m := range v.scope.Members {
		if m.Node == node {
			return m
		}
	}
	return nil
}

// namedMember finds a member of the current scope by name only; callers
// that hold the declaring node try symbolFor first.
func (v *visitor) namedMember(name string) *compile.Symbol {
	return v.scope.Lookup(name)
}
