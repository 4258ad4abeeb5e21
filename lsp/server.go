// Package lsp implements the Language Server Protocol surface for the
// SystemVerilog language server.
package lsp

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	// commonlog is a required dependency of github.com/tliron/glsp.
	// We silence it in NewServer() via commonlog.Configure(0, nil) because
	// this server uses slog for all logging. The blank import of the
	// "simple" backend is required by glsp at runtime.
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple" // required backend for glsp

	"github.com/svlsp/svlsp/service"
)

const serverName = "svlsp"

// isSystemVerilogURI reports whether the URI refers to a file the server
// analyzes. Detection uses the filesystem path extension, not the raw URI
// suffix, to avoid false positives from query strings.
func isSystemVerilogURI(uri string) bool {
	path := uriPath(uri)
	if path == "" {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sv", ".svh", ".v", ".vh":
		return true
	}
	return false
}

// Server is the SystemVerilog language server.
type Server struct {
	logger  *slog.Logger
	version string
	handler protocol.Handler
	server  *glspserver.Server
	svc     *service.LanguageService

	// notify is the most recent notification sink, captured from handler
	// contexts so asynchronous diagnostic pushes can reach the client.
	notifyMu sync.Mutex
	notify   func(method string, params any)

	// shutdownCalled tracks whether shutdown was called before exit
	// (LSP lifecycle: exit code 0 only after a clean shutdown).
	shutdownCalled bool

	// closeOnce ensures Close is idempotent.
	closeOnce sync.Once
	closeErr  error
}

// NewServer creates the language server. If logger is nil, slog.Default()
// is used.
func NewServer(logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:  logger.With(slog.String("component", "server")),
		version: version,
	}
	s.svc = service.NewLanguageService(logger, s.publishDiagnostics)

	// Silence commonlog - glsp uses it internally but we use slog for all
	// logging.
	commonlog.Configure(0, nil)

	s.handler = protocol.Handler{
		// Lifecycle
		Initialize:    s.initialize,
		Initialized:   s.initialized,
		Shutdown:      s.shutdown,
		Exit:          s.exit,
		SetTrace:      s.setTrace,
		CancelRequest: s.cancelRequest,

		// Text document synchronization
		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		// Language features
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,

		// Workspace
		WorkspaceDidChangeWatchedFiles: s.workspaceDidChangeWatchedFiles,
	}

	s.server = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// Handler returns the protocol handler for testing purposes.
func (s *Server) Handler() *protocol.Handler {
	return &s.handler
}

// Service returns the underlying language service for testing purposes.
func (s *Server) Service() *service.LanguageService {
	return s.svc
}

// RunStdio runs the server over stdio.
func (s *Server) RunStdio() error {
	if err := s.server.RunStdio(); err != nil {
		return fmt.Errorf("run stdio: %w", err)
	}
	return nil
}

// RunPipe connects to the named pipe (a Unix domain socket created by the
// client) and serves LSP over it. The dialed connection is wired in as
// the process's stdio, which keeps a single transport path through glsp.
func (s *Server) RunPipe(name string) error {
	conn, err := net.Dial("unix", name)
	if err != nil {
		return fmt.Errorf("connect to pipe %q: %w", name, err)
	}
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		conn.Close()
		return fmt.Errorf("pipe %q is not a unix socket connection", name)
	}
	file, err := unixConn.File()
	if err != nil {
		conn.Close()
		return fmt.Errorf("pipe %q: %w", name, err)
	}
	os.Stdin = file
	os.Stdout = file
	return s.RunStdio()
}

// Shutdown initiates graceful server shutdown: pending timers stop and
// worker builds drain.
func (s *Server) Shutdown() {
	s.logger.Info("initiating shutdown")
	s.svc.Close()
}

// Close closes the JSON-RPC connection, causing RunStdio to return.
// Idempotent; safe to call before RunStdio (returns nil when the
// connection is not initialized yet, so callers can retry).
func (s *Server) Close() error {
	conn := s.server.GetStdio()
	if conn == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		if err := conn.Close(); err != nil {
			s.closeErr = fmt.Errorf("close connection: %w", err)
		}
	})
	return s.closeErr
}

// captureNotifier remembers the context's notification sink for
// asynchronous pushes.
func (s *Server) captureNotifier(ctx *glsp.Context) {
	if ctx == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.notify = func(method string, params any) { ctx.Notify(method, params) }
}

// publishDiagnostics is the service's publish sink. The version rides on
// the notification so the client can discard stale pushes.
func (s *Server) publishDiagnostics(uri string, version int, diagnostics []protocol.Diagnostic) {
	s.notifyMu.Lock()
	notify := s.notify
	s.notifyMu.Unlock()
	if notify == nil {
		return
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	v := protocol.UInteger(version)
	notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     &v,
		Diagnostics: diagnostics,
	})
}

// ---------------------------------------------------------------------------
// Lifecycle

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotifier(ctx)
	s.logger.Info("initialize request received",
		slog.String("client", clientName(params)),
		slog.String("root_uri", rootURI(params)),
	)

	switch {
	case len(params.WorkspaceFolders) > 0:
		s.svc.InitializeWorkspace(params.WorkspaceFolders[0].URI)
	case params.RootURI != nil:
		s.svc.InitializeWorkspace(*params.RootURI)
	case params.RootPath != nil:
		s.svc.InitializeWorkspace(pathURI(*params.RootPath))
	default:
		s.svc.InitializeWorkspace("")
	}

	capabilities := s.handler.CreateServerCapabilities()

	// Full-document sync: the session model recompiles per document, so
	// incremental edits buy nothing.
	syncKind := protocol.TextDocumentSyncKindFull
	if syncOpts, ok := capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions); ok {
		syncOpts.Change = &syncKind
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureNotifier(ctx)
	s.logger.Info("server initialized")
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	s.logger.Info("shutdown request received")
	s.shutdownCalled = true
	s.svc.Close()
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

// exit handles the exit notification per LSP spec.
// Exit code is 0 if shutdown was called first, 1 otherwise.
func (s *Server) exit(_ *glsp.Context) error {
	exitCode := 0
	if !s.shutdownCalled {
		s.logger.Warn("exit called without shutdown")
		exitCode = 1
	}
	s.logger.Info("exit notification received", slog.Int("exit_code", exitCode))
	os.Exit(exitCode)
	return nil // unreachable
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// cancelRequest logs cancellations. Builds already running are never
// cancelled mid-flight — the compiler has no cancellation points — so the
// hook exists for the protocol's sake.
func (s *Server) cancelRequest(_ *glsp.Context, params *protocol.CancelParams) error {
	s.logger.Debug("cancelRequest", slog.Any("id", params.ID))
	return nil
}

// ---------------------------------------------------------------------------
// Document synchronization

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotifier(ctx)
	uri := params.TextDocument.URI
	if !isSystemVerilogURI(uri) {
		s.logger.Debug("ignoring didOpen for unsupported file type", slog.String("uri", uri))
		return nil
	}
	s.logger.Debug("textDocument/didOpen",
		slog.String("uri", uri),
		slog.Int("version", int(params.TextDocument.Version)),
	)
	s.svc.OnDocumentOpened(uri, params.TextDocument.Text, int(params.TextDocument.Version))
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotifier(ctx)
	uri := params.TextDocument.URI
	if !isSystemVerilogURI(uri) {
		return nil
	}
	version := int(params.TextDocument.Version)

	// Full sync: the last whole-document change wins.
	var text string
	var got bool
	for _, rawChange := range params.ContentChanges {
		if change, ok := rawChange.(protocol.TextDocumentContentChangeEventWhole); ok {
			text = change.Text
			got = true
		}
	}
	if !got {
		s.logger.Warn("didChange without full-document content; server advertises full sync",
			slog.String("uri", uri),
			slog.Int("version", version),
		)
		return nil
	}

	s.svc.OnDocumentChanged(uri, text, version)

	// Parse-only fast path while typing: cheap diagnostics on every edit,
	// full semantic diagnostics on save.
	go func() {
		diags := s.svc.ComputeParseDiagnostics(uri, text)
		s.publishDiagnostics(uri, version, diags)
	}()
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotifier(ctx)
	uri := params.TextDocument.URI
	if !isSystemVerilogURI(uri) {
		return nil
	}
	s.logger.Debug("textDocument/didSave", slog.String("uri", uri))
	s.svc.OnDocumentSaved(uri)
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.captureNotifier(ctx)
	uri := params.TextDocument.URI
	if !isSystemVerilogURI(uri) {
		return nil
	}
	s.logger.Debug("textDocument/didClose", slog.String("uri", uri))
	s.svc.OnDocumentClosed(uri)
	return nil
}

// ---------------------------------------------------------------------------
// Language features

// textDocumentDefinition handles textDocument/definition requests.
// Returns nil, nil when no definition is found (standard LSP behavior).
//
//nolint:nilnil // LSP protocol: nil result means "no definition found"
func (s *Server) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	s.captureNotifier(ctx)
	uri := params.TextDocument.URI
	s.logger.Debug("definition request",
		slog.String("uri", uri),
		slog.Int("line", int(params.Position.Line)),
		slog.Int("character", int(params.Position.Character)),
	)

	locs := s.svc.GetDefinitionsForPosition(uri, fromProtocolPosition(params.Position))
	if len(locs) == 0 {
		return nil, nil
	}
	out := make([]protocol.Location, len(locs))
	for i, l := range locs {
		out[i] = toProtocolLocation(l)
	}
	return out, nil
}

// textDocumentDocumentSymbol handles textDocument/documentSymbol requests.
//
//nolint:nilnil // LSP protocol: nil result means no symbols
func (s *Server) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	s.captureNotifier(ctx)
	symbols := s.svc.GetDocumentSymbols(params.TextDocument.URI)
	if len(symbols) == 0 {
		return nil, nil
	}
	return symbols, nil
}

// ---------------------------------------------------------------------------
// Workspace

func (s *Server) workspaceDidChangeWatchedFiles(ctx *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	s.captureNotifier(ctx)
	for _, change := range params.Changes {
		s.logger.Debug("watched file changed",
			slog.String("uri", change.URI),
			slog.Int("type", int(change.Type)),
		)
		s.svc.HandleSourceFileChange(change.URI, service.FileChangeKind(change.Type))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers

func clientName(params *protocol.InitializeParams) string {
	if params.ClientInfo != nil {
		if params.ClientInfo.Version != nil {
			return params.ClientInfo.Name + " " + *params.ClientInfo.Version
		}
		return params.ClientInfo.Name
	}
	return "unknown"
}

func rootURI(params *protocol.InitializeParams) string {
	if params.RootURI != nil {
		return *params.RootURI
	}
	return ""
}
