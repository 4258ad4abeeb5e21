package compile

import (
	"sort"

	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/location"
	"github.com/svlsp/svlsp/source"
	"github.com/svlsp/svlsp/syntax"
)

// Options configures a Compilation.
type Options struct {
	// IncludeDirs are searched by the preprocessor for `include targets.
	IncludeDirs []location.CanonicalPath

	// Defines are command-line style NAME or NAME=value macro definitions.
	Defines []string

	// LintMode relaxes checks that only matter for simulation.
	LintMode bool

	// LanguageServerMode suppresses elaboration-only checks and keeps
	// uninstantiated modules fully analyzed.
	LanguageServerMode bool
}

// PreambleBinder resolves names against a background compilation. The
// returned symbols belong to that compilation, not to the one asking.
type PreambleBinder interface {
	// Package returns the preamble's package symbol, or nil.
	Package(name string) *Symbol

	// Definition returns the preamble's module/interface/program symbol,
	// or nil.
	Definition(name string) *Symbol
}

// Compilation owns a set of syntax trees and their elaborated symbols.
// It is single-threaded: confine each Compilation to one goroutine during
// construction; after Elaborate it is safe for concurrent reads.
type Compilation struct {
	opts Options
	sm   *source.Manager

	parseDiags *diag.Collector
	semaDiags  *diag.Collector

	trees []*syntax.Tree

	root        *Symbol
	packages    map[string]*Symbol
	definitions map[string]*Symbol

	preamble   PreambleBinder
	elaborated bool
}

// NewCompilation creates an empty compilation over the given source manager.
func NewCompilation(sm *source.Manager, opts Options) *Compilation {
	c := &Compilation{
		opts:        opts,
		sm:          sm,
		parseDiags:  diag.NewCollector(),
		semaDiags:   diag.NewCollector(),
		packages:    make(map[string]*Symbol),
		definitions: make(map[string]*Symbol),
	}
	c.root = newSymbol(SymbolCompilationUnit, "", source.Range{}, source.Range{}, nil, c)
	return c
}

// SourceManager returns the manager backing this compilation.
func (c *Compilation) SourceManager() *source.Manager { return c.sm }

// Options returns the compilation options.
func (c *Compilation) Options() Options { return c.opts }

// WithPreamble installs the cross-compilation binder. Must be called before
// Elaborate.
func (c *Compilation) WithPreamble(b PreambleBinder) {
	c.preamble = b
}

// Preamble returns the installed binder, nil in single-file mode.
func (c *Compilation) Preamble() PreambleBinder { return c.preamble }

// ParseBuffer parses the buffer with this compilation's preprocessor
// options and adds the tree. Returns the tree for callers that keep it.
func (c *Compilation) ParseBuffer(id source.BufferID) *syntax.Tree {
	tree := syntax.Parse(c.sm, id, syntax.PreprocessorOptions{
		IncludeDirs: c.opts.IncludeDirs,
		Defines:     c.opts.Defines,
	}, c.parseDiags)
	c.AddSyntaxTree(tree)
	return tree
}

// AddSyntaxTree adds an externally parsed tree. Must be called before
// Elaborate.
func (c *Compilation) AddSyntaxTree(t *syntax.Tree) {
	c.trees = append(c.trees, t)
}

// SyntaxTrees returns the added trees in addition order.
func (c *Compilation) SyntaxTrees() []*syntax.Tree { return c.trees }

// TreeFor returns the tree parsed from the given buffer, or nil.
func (c *Compilation) TreeFor(id source.BufferID) *syntax.Tree {
	for _, t := range c.trees {
		if t.Buffer == id {
			return t
		}
	}
	return nil
}

// Root returns the compilation unit scope. Elaborates on first use.
func (c *Compilation) Root() *Symbol {
	c.Elaborate()
	return c.root
}

// Elaborate builds the symbol tree and runs binding checks. Idempotent.
func (c *Compilation) Elaborate() {
	if c.elaborated {
		return
	}
	c.elaborated = true

	e := &elaborator{comp: c}
	for _, tree := range c.trees {
		e.file(tree.File)
	}
	e.bindChecks()
}

// Packages returns the local packages sorted by name.
func (c *Compilation) Packages() []*Symbol {
	c.Elaborate()
	return sortedValues(c.packages)
}

// Definitions returns the local modules/interfaces/programs sorted by name.
func (c *Compilation) Definitions() []*Symbol {
	c.Elaborate()
	return sortedValues(c.definitions)
}

// Package returns the local package with the given name, or nil.
func (c *Compilation) Package(name string) *Symbol {
	c.Elaborate()
	return c.packages[name]
}

// Definition returns the local module/interface/program, or nil.
func (c *Compilation) Definition(name string) *Symbol {
	c.Elaborate()
	return c.definitions[name]
}

// Diags returns the semantic collector; the indexer adds resolution
// findings (unresolved hierarchical paths) here during its walk.
func (c *Compilation) Diags() *diag.Collector { return c.semaDiags }

// ParseDiagnostics returns parse and preprocessor diagnostics only, without
// forcing elaboration.
func (c *Compilation) ParseDiagnostics() []diag.Diagnostic {
	return c.parseDiags.Snapshot()
}

// CollectedDiagnostics returns everything accumulated so far: parse
// diagnostics plus whatever binding and indexing have added. Deterministic
// order for a given compilation state.
func (c *Compilation) CollectedDiagnostics() []diag.Diagnostic {
	c.Elaborate()
	out := c.parseDiags.Snapshot()
	out = append(out, c.semaDiags.Snapshot()...)
	return out
}

func sortedValues(m map[string]*Symbol) []*Symbol {
	out := make([]*Symbol, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
