package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/svlsp/svlsp/location"
	"github.com/svlsp/svlsp/semantic"
	"github.com/svlsp/svlsp/source"
)

// The index already stores zero-based UTF-16 positions — the LSP default
// encoding — so conversion between protocol and internal coordinates is a
// plain type change, not a re-encoding.

// fromProtocolPosition converts an incoming request position.
func fromProtocolPosition(p protocol.Position) source.Position {
	return source.Position{
		Line:      int(p.Line),
		Character: int(p.Character),
	}
}

// toProtocolPosition converts an internal position for a response.
func toProtocolPosition(p source.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line),
		Character: protocol.UInteger(p.Character),
	}
}

// toProtocolRange converts an internal range for a response.
func toProtocolRange(r source.LSPRange) protocol.Range {
	return protocol.Range{
		Start: toProtocolPosition(r.Start),
		End:   toProtocolPosition(r.End),
	}
}

// toProtocolLocation converts a semantic location for a response.
func toProtocolLocation(l semantic.Location) protocol.Location {
	return protocol.Location{
		URI:   l.URI,
		Range: toProtocolRange(l.Range),
	}
}

// uriPath extracts the filesystem path from a file:// URI, "" for
// non-file URIs.
func uriPath(uri string) string {
	return location.FromURI(uri).String()
}

// pathURI converts a raw path to a file:// URI.
func pathURI(path string) string {
	return location.New(path).URI()
}
