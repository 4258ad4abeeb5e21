package syntax

import "github.com/svlsp/svlsp/source"

// Node is implemented by every syntax tree node.
type Node interface {
	Span() source.Range
}

// Ident is a name occurrence. Range covers exactly the identifier token,
// which is what definition and reference entries point at.
type Ident struct {
	Name  string
	Range source.Range
}

// Span implements Node.
func (i *Ident) Span() source.Range { return i.Range }

// IsZero reports whether the identifier is absent (error recovery).
func (i *Ident) IsZero() bool { return i == nil || i.Name == "" }

// File is one parsed compilation unit.
type File struct {
	Buffer source.BufferID
	Items  []Item
	Full   source.Range
}

// Span implements Node.
func (f *File) Span() source.Range { return f.Full }

// Item is a declaration or construct that can appear at file, package, or
// design-element scope.
type Item interface {
	Node
	item()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// ---------------------------------------------------------------------------
// Types

// DataType describes the type part of a declaration: a builtin keyword
// (logic, wire, int, ...), a named type (word_t, pkg::word_t, C#(8)), an
// enum, or a struct. Exactly one of the variants is populated.
type DataType struct {
	// Keyword is the builtin type keyword, "" for named/enum/struct types.
	Keyword string

	// Name is the named-type reference.
	Name *TypeRef

	// Enum is the inline enum definition.
	Enum *EnumType

	// Struct is the inline struct definition.
	Struct *StructType

	// Signing is "signed"/"unsigned" when present. Packed dimensions are
	// consumed but not modeled; Full spans them.
	Signing string
	Full    source.Range
}

// Span implements Node.
func (t *DataType) Span() source.Range { return t.Full }

// TypeRef is a reference to a named type, optionally package-scoped and
// optionally a class specialization.
type TypeRef struct {
	// Package is the pkg in pkg::name, nil for unqualified references.
	Package *Ident

	// Name is the type name token.
	Name *Ident

	// ParamAssigns are #(...) class specialization arguments.
	ParamAssigns []*NamedAssign

	Full source.Range
}

// Span implements Node.
func (t *TypeRef) Span() source.Range { return t.Full }

// EnumType is an inline enum definition with its named values.
type EnumType struct {
	Base   *DataType // optional base type
	Values []*EnumValue
	Full   source.Range
}

// Span implements Node.
func (t *EnumType) Span() source.Range { return t.Full }

// EnumValue is one enum member, optionally with an initializer.
type EnumValue struct {
	Name *Ident
	Init Expr
}

// Span implements Node.
func (v *EnumValue) Span() source.Range { return v.Name.Range }

// StructType is an inline struct/union definition.
type StructType struct {
	Packed bool
	Fields []*FieldDecl
	Full   source.Range
}

// Span implements Node.
func (t *StructType) Span() source.Range { return t.Full }

// FieldDecl is one struct field declaration line (one type, many names).
type FieldDecl struct {
	Type  *DataType
	Names []*Declarator
	Full  source.Range
}

// Span implements Node.
func (f *FieldDecl) Span() source.Range { return f.Full }

// Declarator is one declared name with optional unpacked dimensions and
// initializer.
type Declarator struct {
	Name *Ident
	Dims []Expr // unpacked dimension extents (for reference indexing)
	Init Expr
}

// Span implements Node.
func (d *Declarator) Span() source.Range { return d.Name.Range }

// ---------------------------------------------------------------------------
// Design elements

// ModuleDecl is a module, interface, or program declaration. Kind holds the
// introducing keyword.
type ModuleDecl struct {
	Kind       string // "module", "interface", "program"
	Name       *Ident
	ParamPorts []*ParamDecl
	Ports      []*PortDecl
	Imports    []*ImportDecl // header imports
	Items      []Item
	EndLabel   *Ident // endmodule : Name
	Full       source.Range
}

func (*ModuleDecl) item() {}

// Span implements Node.
func (m *ModuleDecl) Span() source.Range { return m.Full }

// PackageDecl is a package declaration.
type PackageDecl struct {
	Name     *Ident
	Items    []Item
	EndLabel *Ident
	Full     source.Range
}

func (*PackageDecl) item() {}

// Span implements Node.
func (p *PackageDecl) Span() source.Range { return p.Full }

// ClassDecl is a class declaration, possibly parameterized and derived.
type ClassDecl struct {
	Name       *Ident
	ParamPorts []*ParamDecl
	Extends    *TypeRef
	Items      []Item
	EndLabel   *Ident
	Full       source.Range
}

func (*ClassDecl) item() {}

// Span implements Node.
func (c *ClassDecl) Span() source.Range { return c.Full }

// ---------------------------------------------------------------------------
// Declarations

// ParamDecl is a parameter or localparam declaration (header or body form).
type ParamDecl struct {
	Local bool
	Type  *DataType // nil for untyped parameters
	Name  *Ident
	Init  Expr
	Full  source.Range
}

func (*ParamDecl) item() {}

// Span implements Node.
func (p *ParamDecl) Span() source.Range { return p.Full }

// ParamGroup is one parameter statement that declared several parameters
// (parameter A = 1, B = 2;).
type ParamGroup struct {
	Params []*ParamDecl
	Full   source.Range
}

func (*ParamGroup) item() {}

// Span implements Node.
func (g *ParamGroup) Span() source.Range { return g.Full }

// PortDecl is one port. ANSI headers produce fully populated decls;
// non-ANSI headers produce name-only decls whose direction arrives via body
// PortDirDecl items.
type PortDecl struct {
	Dir  string // "input", "output", "inout", "ref", "" for non-ANSI names
	Type *DataType

	// Iface and Modport are set for interface ports (simple_bus.slave sb).
	Iface   *Ident
	Modport *Ident

	Name *Ident
	Full source.Range
}

func (*PortDecl) item() {}

// Span implements Node.
func (p *PortDecl) Span() source.Range { return p.Full }

// PortDirDecl is a body-level non-ANSI port direction declaration
// (input [7:0] a, b;).
type PortDirDecl struct {
	Dir   string
	Type  *DataType
	Names []*Declarator
	Full  source.Range
}

func (*PortDirDecl) item() {}

// Span implements Node.
func (p *PortDirDecl) Span() source.Range { return p.Full }

// VarDecl is a data declaration line: one type, one or more declarators.
// Net declarations (wire etc.) use the same shape with IsNet set.
type VarDecl struct {
	IsNet bool
	Type  *DataType
	Names []*Declarator
	Full  source.Range
}

func (*VarDecl) item() {}

// Span implements Node.
func (v *VarDecl) Span() source.Range { return v.Full }

// TypedefDecl introduces a named type.
type TypedefDecl struct {
	Type *DataType
	Name *Ident
	Full source.Range
}

func (*TypedefDecl) item() {}

// Span implements Node.
func (t *TypedefDecl) Span() source.Range { return t.Full }

// ImportDecl is an import declaration with one or more items.
type ImportDecl struct {
	Items []*ImportItem
	Full  source.Range
}

func (*ImportDecl) item() {}

// Span implements Node.
func (i *ImportDecl) Span() source.Range { return i.Full }

// ImportItem is pkg::name or pkg::*. The package name and the imported item
// are separate identifiers so both are separately indexable.
type ImportItem struct {
	Package  *Ident
	Item     *Ident // nil for wildcard
	Wildcard bool
	Full     source.Range
}

// Span implements Node.
func (i *ImportItem) Span() source.Range { return i.Full }

// FuncDecl is a function or task declaration.
type FuncDecl struct {
	IsTask   bool
	RetType  *DataType // nil for tasks and implicit returns
	Name     *Ident
	Args     []*ArgDecl
	Body     []Stmt
	EndLabel *Ident
	Full     source.Range
}

func (*FuncDecl) item() {}

// Span implements Node.
func (f *FuncDecl) Span() source.Range { return f.Full }

// ArgDecl is one subroutine argument.
type ArgDecl struct {
	Dir  string
	Type *DataType
	Name *Ident
	Init Expr
	Full source.Range
}

// Span implements Node.
func (a *ArgDecl) Span() source.Range { return a.Full }

// ModportDecl is a modport list inside an interface.
type ModportDecl struct {
	Items []*ModportItem
	Full  source.Range
}

func (*ModportDecl) item() {}

// Span implements Node.
func (m *ModportDecl) Span() source.Range { return m.Full }

// ModportItem is one named modport with its directional port list.
type ModportItem struct {
	Name  *Ident
	Ports []*ModportPort
	Full  source.Range
}

// Span implements Node.
func (m *ModportItem) Span() source.Range { return m.Full }

// ModportPort is one name inside a modport with its direction.
type ModportPort struct {
	Dir  string
	Name *Ident
}

// Span implements Node.
func (m *ModportPort) Span() source.Range { return m.Name.Range }

// GenvarDecl declares generate variables.
type GenvarDecl struct {
	Names []*Ident
	Full  source.Range
}

func (*GenvarDecl) item() {}

// Span implements Node.
func (g *GenvarDecl) Span() source.Range { return g.Full }

// GenerateRegion is a generate ... endgenerate region.
type GenerateRegion struct {
	Items []Item
	Full  source.Range
}

func (*GenerateRegion) item() {}

// Span implements Node.
func (g *GenerateRegion) Span() source.Range { return g.Full }

// GenIf is a generate if/else chain.
type GenIf struct {
	Cond Expr
	Then *GenBlock
	Else Item // *GenBlock or *GenIf, nil when absent
	Full source.Range
}

func (*GenIf) item() {}

// Span implements Node.
func (g *GenIf) Span() source.Range { return g.Full }

// GenFor is a generate for loop.
type GenFor struct {
	Init Expr
	Cond Expr
	Step Expr
	Body *GenBlock
	Full source.Range
}

func (*GenFor) item() {}

// Span implements Node.
func (g *GenFor) Span() source.Range { return g.Full }

// GenBlock is a begin...end generate block, possibly labeled. Unlabeled
// blocks have a nil Label and emit no definition entry.
type GenBlock struct {
	Label *Ident
	Items []Item
	Full  source.Range
}

func (*GenBlock) item() {}

// Span implements Node.
func (g *GenBlock) Span() source.Range { return g.Full }

// Instance is a module/interface instantiation statement.
type Instance struct {
	ModuleName   *Ident
	ParamAssigns []*NamedAssign
	Name         *Ident
	Dims         []Expr
	Conns        []*PortConn
	Full         source.Range
}

func (*Instance) item() {}

// Span implements Node.
func (i *Instance) Span() source.Range { return i.Full }

// InstanceGroup is one instantiation statement that declared several
// instances (ALU a1 (...), a2 (...);).
type InstanceGroup struct {
	Instances []*Instance
	Full      source.Range
}

func (*InstanceGroup) item() {}

// Span implements Node.
func (g *InstanceGroup) Span() source.Range { return g.Full }

// NamedAssign is a .name(value) style assignment used in parameter
// overrides and class specializations.
type NamedAssign struct {
	Name  *Ident
	Value Expr // nil for .name() and implicit .name
	Full  source.Range
}

// Span implements Node.
func (n *NamedAssign) Span() source.Range { return n.Full }

// PortConn is one connection in an instantiation: named (.a(x)), implicit
// (.a), wildcard (.*), or ordered (positional expression).
type PortConn struct {
	Name     *Ident // nil for ordered and wildcard connections
	Wildcard bool
	Expr     Expr
	Full     source.Range
}

// Span implements Node.
func (p *PortConn) Span() source.Range { return p.Full }

// ContinuousAssign is an assign statement at module scope.
type ContinuousAssign struct {
	Assigns []Expr // assignment expressions
	Full    source.Range
}

func (*ContinuousAssign) item() {}

// Span implements Node.
func (c *ContinuousAssign) Span() source.Range { return c.Full }

// ProceduralBlock is initial/final/always*.
type ProceduralBlock struct {
	Kind string // "initial", "final", "always", "always_comb", ...
	Body Stmt
	Full source.Range
}

func (*ProceduralBlock) item() {}

// Span implements Node.
func (p *ProceduralBlock) Span() source.Range { return p.Full }

// BadItem covers a region the parser could not interpret; recovery resumes
// after it.
type BadItem struct {
	Full source.Range
}

func (*BadItem) item() {}

// Span implements Node.
func (b *BadItem) Span() source.Range { return b.Full }

// ---------------------------------------------------------------------------
// Statements

// BlockStmt is begin [: label] ... end [: label].
type BlockStmt struct {
	Label    *Ident
	Stmts    []Stmt
	EndLabel *Ident
	Full     source.Range
}

func (*BlockStmt) stmt() {}

// Span implements Node.
func (b *BlockStmt) Span() source.Range { return b.Full }

// DeclStmt is a data declaration inside a statement list.
type DeclStmt struct {
	Decl *VarDecl
}

func (*DeclStmt) stmt() {}

// Span implements Node.
func (d *DeclStmt) Span() source.Range { return d.Decl.Full }

// ExprStmt wraps an expression (usually an assignment or call) as a
// statement.
type ExprStmt struct {
	X    Expr
	Full source.Range
}

func (*ExprStmt) stmt() {}

// Span implements Node.
func (e *ExprStmt) Span() source.Range { return e.Full }

// IfStmt is a procedural if/else.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
	Full source.Range
}

func (*IfStmt) stmt() {}

// Span implements Node.
func (i *IfStmt) Span() source.Range { return i.Full }

// ForStmt is a procedural for loop.
type ForStmt struct {
	Init Stmt
	Cond Expr
	Step Expr
	Body Stmt
	Full source.Range
}

func (*ForStmt) stmt() {}

// Span implements Node.
func (f *ForStmt) Span() source.Range { return f.Full }

// CaseStmt is case/casex/casez; only the scrutinee and branch bodies are
// modeled.
type CaseStmt struct {
	Cond  Expr
	Items []CaseItem
	Full  source.Range
}

// CaseItem is one branch: expressions (nil for default) and a body.
type CaseItem struct {
	Exprs []Expr
	Body  Stmt
}

func (*CaseStmt) stmt() {}

// Span implements Node.
func (c *CaseStmt) Span() source.Range { return c.Full }

// ReturnStmt is a return with optional value.
type ReturnStmt struct {
	Value Expr
	Full  source.Range
}

func (*ReturnStmt) stmt() {}

// Span implements Node.
func (r *ReturnStmt) Span() source.Range { return r.Full }

// EmptyStmt is a lone semicolon or a statement form the parser skipped.
type EmptyStmt struct {
	Full source.Range
}

func (*EmptyStmt) stmt() {}

// Span implements Node.
func (e *EmptyStmt) Span() source.Range { return e.Full }

// ---------------------------------------------------------------------------
// Expressions

// NameExpr is a simple identifier use.
type NameExpr struct {
	Name *Ident
}

func (*NameExpr) expr() {}

// Span implements Node.
func (n *NameExpr) Span() source.Range { return n.Name.Range }

// ScopedExpr is scope::name — a package member, class member, or class
// specialization member access. Both identifiers are separately indexable.
type ScopedExpr struct {
	Scope     *Ident
	ScopeArgs []*NamedAssign // #(...) on the scope: C#(8)::m
	Name      *Ident
	Full      source.Range
}

func (*ScopedExpr) expr() {}

// Span implements Node.
func (s *ScopedExpr) Span() source.Range { return s.Full }

// MemberExpr is x.y member access (also hierarchical path steps).
type MemberExpr struct {
	X    Expr
	Name *Ident
	Full source.Range
}

func (*MemberExpr) expr() {}

// Span implements Node.
func (m *MemberExpr) Span() source.Range { return m.Full }

// IndexExpr is x[i] or x[a:b].
type IndexExpr struct {
	X     Expr
	Index []Expr
	Full  source.Range
}

func (*IndexExpr) expr() {}

// Span implements Node.
func (i *IndexExpr) Span() source.Range { return i.Full }

// CallExpr is f(args). System calls have a SystemName instead of Fun and
// are not indexed.
type CallExpr struct {
	Fun        Expr
	SystemName string
	Args       []Expr
	Full       source.Range
}

func (*CallExpr) expr() {}

// Span implements Node.
func (c *CallExpr) Span() source.Range { return c.Full }

// CastExpr is type'(expr) or size'(expr).
type CastExpr struct {
	Type *DataType // nil when the cast target is an expression (size cast)
	Size Expr
	X    Expr
	Full source.Range
}

func (*CastExpr) expr() {}

// Span implements Node.
func (c *CastExpr) Span() source.Range { return c.Full }

// UnaryExpr is op x.
type UnaryExpr struct {
	Op   string
	X    Expr
	Full source.Range
}

func (*UnaryExpr) expr() {}

// Span implements Node.
func (u *UnaryExpr) Span() source.Range { return u.Full }

// BinaryExpr is x op y, including assignments.
type BinaryExpr struct {
	Op   string
	X, Y Expr
	Full source.Range
}

func (*BinaryExpr) expr() {}

// Span implements Node.
func (b *BinaryExpr) Span() source.Range { return b.Full }

// CondExpr is c ? a : b.
type CondExpr struct {
	Cond, Then, Else Expr
	Full             source.Range
}

func (*CondExpr) expr() {}

// Span implements Node.
func (c *CondExpr) Span() source.Range { return c.Full }

// ConcatExpr is {a, b, c} or the replication {n{a}}.
type ConcatExpr struct {
	Elems []Expr
	Full  source.Range
}

func (*ConcatExpr) expr() {}

// Span implements Node.
func (c *ConcatExpr) Span() source.Range { return c.Full }

// PatternExpr is the assignment pattern '{...} with optional keyed members.
type PatternExpr struct {
	Keys []*PatternKey
	Full source.Range
}

// PatternKey is one member of an assignment pattern. Key is nil for
// positional members; for keyed members it is the field name or the
// "default" keyword (KeyDefault).
type PatternKey struct {
	Key        *Ident
	KeyDefault bool
	Value      Expr
}

func (*PatternExpr) expr() {}

// Span implements Node.
func (p *PatternExpr) Span() source.Range { return p.Full }

// LiteralExpr is a number or string literal.
type LiteralExpr struct {
	Text string
	Full source.Range
}

func (*LiteralExpr) expr() {}

// Span implements Node.
func (l *LiteralExpr) Span() source.Range { return l.Full }

// ParenExpr is (x).
type ParenExpr struct {
	X    Expr
	Full source.Range
}

func (*ParenExpr) expr() {}

// Span implements Node.
func (p *ParenExpr) Span() source.Range { return p.Full }

// BadExpr marks an expression the parser could not interpret.
type BadExpr struct {
	Full source.Range
}

func (*BadExpr) expr() {}

// Span implements Node.
func (b *BadExpr) Span() source.Range { return b.Full }
