package compile

import (
	"github.com/svlsp/svlsp/source"
	"github.com/svlsp/svlsp/syntax"
)

// SymbolKind classifies a symbol.
type SymbolKind int

const (
	// SymbolCompilationUnit is the root scope of one Compilation.
	SymbolCompilationUnit SymbolKind = iota
	SymbolPackage
	SymbolModule
	SymbolInterface
	SymbolProgram
	SymbolClass
	SymbolTypedef
	SymbolEnumValue
	SymbolField
	SymbolParameter
	SymbolPort
	SymbolModport
	SymbolModportPort
	SymbolVariable
	SymbolNet
	SymbolFunction
	SymbolTask
	SymbolArgument
	SymbolGenvar
	SymbolGenerateBlock
	SymbolStatementBlock
	SymbolInstance
	SymbolImport
)

// String returns the kind's name for logs and tests.
func (k SymbolKind) String() string {
	switch k {
	case SymbolCompilationUnit:
		return "compilation-unit"
	case SymbolPackage:
		return "package"
	case SymbolModule:
		return "module"
	case SymbolInterface:
		return "interface"
	case SymbolProgram:
		return "program"
	case SymbolClass:
		return "class"
	case SymbolTypedef:
		return "typedef"
	case SymbolEnumValue:
		return "enum-value"
	case SymbolField:
		return "field"
	case SymbolParameter:
		return "parameter"
	case SymbolPort:
		return "port"
	case SymbolModport:
		return "modport"
	case SymbolModportPort:
		return "modport-port"
	case SymbolVariable:
		return "variable"
	case SymbolNet:
		return "net"
	case SymbolFunction:
		return "function"
	case SymbolTask:
		return "task"
	case SymbolArgument:
		return "argument"
	case SymbolGenvar:
		return "genvar"
	case SymbolGenerateBlock:
		return "generate-block"
	case SymbolStatementBlock:
		return "statement-block"
	case SymbolInstance:
		return "instance"
	case SymbolImport:
		return "import"
	default:
		return "unknown"
	}
}

// importEntry records one import declaration visible in a scope.
type importEntry struct {
	pkgName  string
	itemName string // "" for wildcard
	wildcard bool
}

// Symbol is one named entity. Pointer identity is the symbol's identity:
// symbols are allocated once during elaboration and never copied, so a
// *Symbol can key maps across compilations.
type Symbol struct {
	Kind SymbolKind
	Name string

	// NameRange covers exactly the declaring name token; FullRange covers
	// the whole declaration. Both are raw ranges against the owning
	// compilation's source manager.
	NameRange source.Range
	FullRange source.Range

	// Parent is the enclosing scope; nil only for the compilation unit.
	Parent *Symbol

	// Members are child symbols in declaration order.
	Members []*Symbol

	// Node is the declaring syntax node, when one exists.
	Node syntax.Node

	// Comp is the owning compilation. Ownership checks
	// (preamble-vs-overlay) compare this field.
	Comp *Compilation

	// Type is the resolved type symbol for variables, nets, fields, ports,
	// arguments, parameters, and typedefs over named types; the return type
	// for functions; the base class for derived classes; the definition
	// symbol for instances; nil otherwise.
	Type *Symbol

	// Target is what an import symbol refers to: the package for wildcard
	// imports, the imported member for explicit ones.
	Target *Symbol

	byName  map[string]*Symbol
	imports []importEntry
}

// newSymbol allocates a child symbol; callers attach it via addMember.
func newSymbol(kind SymbolKind, name string, nameRange, fullRange source.Range, node syntax.Node, comp *Compilation) *Symbol {
	return &Symbol{
		Kind:      kind,
		Name:      name,
		NameRange: nameRange,
		FullRange: fullRange,
		Node:      node,
		Comp:      comp,
	}
}

// addMember attaches child to s. The first declaration of a name wins for
// lookup; later ones stay in Members so the indexer still sees them.
// Returns false when the name was already taken.
func (s *Symbol) addMember(child *Symbol) bool {
	child.Parent = s
	s.Members = append(s.Members, child)
	if child.Name == "" {
		return true
	}
	if s.byName == nil {
		s.byName = make(map[string]*Symbol)
	}
	if _, exists := s.byName[child.Name]; exists {
		return false
	}
	s.byName[child.Name] = child
	return true
}

// Lookup finds a direct member by name. It does not walk parents or
// imports; use Compilation.ResolveName for full lexical resolution.
func (s *Symbol) Lookup(name string) *Symbol {
	if s == nil || s.byName == nil {
		return nil
	}
	return s.byName[name]
}

// IsScope reports whether the symbol kind can contain members.
func (s *Symbol) IsScope() bool {
	switch s.Kind {
	case SymbolCompilationUnit, SymbolPackage, SymbolModule, SymbolInterface,
		SymbolProgram, SymbolClass, SymbolFunction, SymbolTask,
		SymbolGenerateBlock, SymbolStatementBlock, SymbolModport,
		SymbolTypedef:
		return true
	}
	return false
}

// DefinitionScope walks up to the enclosing design element or package, or
// the compilation unit.
func (s *Symbol) DefinitionScope() *Symbol {
	for cur := s; cur != nil; cur = cur.Parent {
		switch cur.Kind {
		case SymbolPackage, SymbolModule, SymbolInterface, SymbolProgram,
			SymbolClass, SymbolCompilationUnit:
			return cur
		}
	}
	return nil
}

// Unwrap returns the user-visible symbol behind compiler conveniences: an
// import resolves to its target, a typedef of a named type stays itself
// (the typedef is user-visible). This is the symbol navigation lands on.
func (s *Symbol) Unwrap() *Symbol {
	cur := s
	for cur != nil && cur.Kind == SymbolImport && cur.Target != nil {
		cur = cur.Target
	}
	return cur
}
