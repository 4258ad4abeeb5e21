package semantic

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/source"
	"github.com/svlsp/svlsp/syntax"
)

// Location is an LSP location: a file URI plus a range in it.
type Location struct {
	URI   string
	Range source.LSPRange
}

// Entry is one definition or reference occurrence in the indexed file.
type Entry struct {
	// RefRange is where this occurrence sits, always inside the indexed
	// file.
	RefRange source.LSPRange

	// DefLoc is the definition's location; may point into any file,
	// including preamble-owned ones.
	DefLoc Location

	// Symbol identifies the underlying symbol. For preamble symbols this
	// is a pointer into the preamble's symbol tree.
	Symbol *compile.Symbol

	// Kind is the LSP symbol kind used by document symbols.
	Kind protocol.SymbolKind

	// Name is the symbol's name.
	Name string

	// Parent is the enclosing scope symbol, used to build the
	// document-symbol tree. Nil for top-level entries.
	Parent *compile.Symbol

	// Children is the scope whose members are this entry's children in the
	// document-symbol tree; usually Symbol itself for scopes, nil
	// otherwise.
	Children *compile.Symbol

	// FullRange covers the whole declaring construct for definition
	// entries (the document symbol's outer range); equals RefRange for
	// references.
	FullRange source.LSPRange

	// IsDefinition marks the declaring occurrence. For definitions,
	// RefRange equals DefLoc.Range and DefLoc.URI is the indexed file.
	IsDefinition bool
}

// lspKind maps a symbol to its LSP document-symbol kind.
func lspKind(sym *compile.Symbol) protocol.SymbolKind {
	switch sym.Kind {
	case compile.SymbolPackage:
		return protocol.SymbolKindPackage
	case compile.SymbolModule, compile.SymbolProgram:
		return protocol.SymbolKindModule
	case compile.SymbolInterface, compile.SymbolModport:
		return protocol.SymbolKindInterface
	case compile.SymbolClass:
		return protocol.SymbolKindClass
	case compile.SymbolTypedef:
		return typedefKind(sym)
	case compile.SymbolEnumValue:
		return protocol.SymbolKindEnumMember
	case compile.SymbolField, compile.SymbolModportPort:
		return protocol.SymbolKindField
	case compile.SymbolParameter:
		return protocol.SymbolKindConstant
	case compile.SymbolPort:
		return protocol.SymbolKindProperty
	case compile.SymbolVariable, compile.SymbolNet, compile.SymbolArgument,
		compile.SymbolGenvar:
		return protocol.SymbolKindVariable
	case compile.SymbolFunction:
		return protocol.SymbolKindFunction
	case compile.SymbolTask:
		return protocol.SymbolKindMethod
	case compile.SymbolGenerateBlock, compile.SymbolStatementBlock:
		return protocol.SymbolKindNamespace
	case compile.SymbolInstance:
		return protocol.SymbolKindObject
	case compile.SymbolImport:
		return protocol.SymbolKindNamespace
	default:
		return protocol.SymbolKindObject
	}
}

// typedefKind refines typedef kinds by the declared shape.
func typedefKind(sym *compile.Symbol) protocol.SymbolKind {
	if td, ok := sym.Node.(*syntax.TypedefDecl); ok && td.Type != nil {
		switch {
		case td.Type.Enum != nil:
			return protocol.SymbolKindEnum
		case td.Type.Struct != nil:
			return protocol.SymbolKindStruct
		}
	}
	return protocol.SymbolKindTypeParameter
}
