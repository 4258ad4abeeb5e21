package semantic

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/source"
)

// DocumentSymbols builds the hierarchical outline from the index's
// definition entries. Each definition hangs under the nearest enclosing
// scope that itself produced a definition entry; everything else is
// top-level.
func (ix *Index) DocumentSymbols() []protocol.DocumentSymbol {
	type node struct {
		sym      protocol.DocumentSymbol
		children []*node
	}

	nodes := make(map[*compile.Symbol]*node)
	order := make([]*compile.Symbol, 0, len(ix.entries))

	for i := range ix.entries {
		e := &ix.entries[i]
		if !e.IsDefinition || e.Name == "" {
			continue
		}
		if _, dup := nodes[e.Symbol]; dup {
			continue
		}
		nodes[e.Symbol] = &node{sym: protocol.DocumentSymbol{
			Name:           e.Name,
			Kind:           e.Kind,
			Range:          toProtocolRange(e.FullRange),
			SelectionRange: toProtocolRange(e.RefRange),
		}}
		order = append(order, e.Symbol)
	}

	// Attach each node to the nearest ancestor that has an outline node;
	// anonymous blocks are skipped transparently.
	var roots []*node
	for _, sym := range order {
		n := nodes[sym]
		var parent *node
		for cur := sym.Parent; cur != nil; cur = cur.Parent {
			if p, ok := nodes[cur]; ok {
				parent = p
				break
			}
		}
		if parent != nil {
			parent.children = append(parent.children, n)
		} else {
			roots = append(roots, n)
		}
	}

	var materialize func(ns []*node) []protocol.DocumentSymbol
	materialize = func(ns []*node) []protocol.DocumentSymbol {
		if len(ns) == 0 {
			return nil
		}
		out := make([]protocol.DocumentSymbol, len(ns))
		for i, n := range ns {
			n.sym.Children = materialize(n.children)
			out[i] = n.sym
		}
		return out
	}
	result := materialize(roots)
	if result == nil {
		result = []protocol.DocumentSymbol{}
	}
	return result
}

// toProtocolRange converts internal LSP coordinates to glsp protocol form.
func toProtocolRange(r source.LSPRange) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      protocol.UInteger(r.Start.Line),
			Character: protocol.UInteger(r.Start.Character),
		},
		End: protocol.Position{
			Line:      protocol.UInteger(r.End.Line),
			Character: protocol.UInteger(r.End.Character),
		},
	}
}
