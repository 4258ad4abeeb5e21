package lsp

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/svlsp/svlsp/location"
)

func TestIsSystemVerilogURI(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"file:///w/a.sv", true},
		{"file:///w/a.svh", true},
		{"file:///w/a.v", true},
		{"file:///w/a.VH", true},
		{"file:///w/a.vhd", false},
		{"file:///w/readme.md", false},
		{"untitled:Untitled-1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isSystemVerilogURI(tt.uri), tt.uri)
	}
}

func newInitializedServer(t *testing.T, files map[string]string) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	s := NewServer(nil, "test")
	rootURI := location.New(root).URI()
	result, err := s.initialize(nil, &protocol.InitializeParams{
		RootURI: &rootURI,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	select {
	case <-s.Service().WorkspaceReady().Done():
	case <-time.After(10 * time.Second):
		t.Fatal("workspace never ready")
	}
	return s, root
}

func TestInitializeCapabilities(t *testing.T) {
	s, _ := newInitializedServer(t, nil)

	// Re-run initialize purely for the capability shape.
	rootURI := "file:///tmp"
	result, err := s.initialize(nil, &protocol.InitializeParams{RootURI: &rootURI})
	require.NoError(t, err)

	init, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, init.ServerInfo)
	assert.Equal(t, "svlsp", init.ServerInfo.Name)

	if syncOpts, ok := init.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions); ok {
		require.NotNil(t, syncOpts.Change)
		assert.Equal(t, protocol.TextDocumentSyncKindFull, *syncOpts.Change)
	}
}

func TestDidOpenThenDefinition(t *testing.T) {
	s, root := newInitializedServer(t, map[string]string{
		"pkg.sv": `package config_pkg;
  typedef logic [7:0] word_t;
endpackage
`,
	})

	uri := location.New(filepath.Join(root, "use.sv")).URI()
	content := "module m;\n  import config_pkg::*;\n  word_t r;\nendmodule\n"
	require.NoError(t, s.textDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: content},
	}))

	require.Eventually(t, func() bool {
		result, err := s.textDocumentDefinition(nil, &protocol.DefinitionParams{
			TextDocumentPositionParams: protocol.TextDocumentPositionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: uri},
				Position:     protocol.Position{Line: 2, Character: 3},
			},
		})
		if err != nil || result == nil {
			return false
		}
		locs, ok := result.([]protocol.Location)
		return ok && len(locs) == 1
	}, 10*time.Second, 50*time.Millisecond)
}

func TestDefinitionOnUnknownURIReturnsNil(t *testing.T) {
	s, root := newInitializedServer(t, nil)

	uri := location.New(filepath.Join(root, "never.sv")).URI()
	result, err := s.textDocumentDefinition(nil, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{},
		},
	})
	require.NoError(t, err, "session-absent is not a protocol error")
	assert.Nil(t, result)
}

func TestDocumentSymbolFlow(t *testing.T) {
	s, root := newInitializedServer(t, nil)

	uri := location.New(filepath.Join(root, "m.sv")).URI()
	require.NoError(t, s.textDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "module outline_me;\nendmodule\n"},
	}))

	require.Eventually(t, func() bool {
		result, err := s.textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		})
		if err != nil || result == nil {
			return false
		}
		syms, ok := result.([]protocol.DocumentSymbol)
		return ok && len(syms) == 1 && syms[0].Name == "outline_me"
	}, 10*time.Second, 50*time.Millisecond)
}

func TestNonSourceFilesIgnored(t *testing.T) {
	s, _ := newInitializedServer(t, nil)
	err := s.textDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///w/readme.md", Version: 1, Text: "# hi"},
	})
	assert.NoError(t, err)
	assert.False(t, s.Service().WorkspaceRoot().IsZero())
}
