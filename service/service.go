// Package service implements the language service façade: the glue between
// LSP requests and the layout / preamble / session machinery. It is a thin
// orchestrator; the work lives below it.
package service

import (
	"log/slog"
	"sync"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/layout"
	"github.com/svlsp/svlsp/location"
	"github.com/svlsp/svlsp/overlay"
	"github.com/svlsp/svlsp/preamble"
	"github.com/svlsp/svlsp/semantic"
	"github.com/svlsp/svlsp/session"
	"github.com/svlsp/svlsp/source"
)

// preambleDebounceDelay coalesces bursts of config changes into one
// preamble rebuild.
const preambleDebounceDelay = 500 * time.Millisecond

// PublishFunc pushes diagnostics to the client. version is the document
// version the diagnostics were computed for; the client discards stale
// pushes by comparing it.
type PublishFunc func(uri string, version int, diagnostics []protocol.Diagnostic)

// FileChangeKind mirrors the LSP watched-file change types.
type FileChangeKind int

const (
	FileCreated FileChangeKind = 1
	FileChanged FileChangeKind = 2
	FileDeleted FileChangeKind = 3
)

// LanguageService orchestrates workspace state for the LSP server.
type LanguageService struct {
	mu sync.Mutex

	logger  *slog.Logger
	publish PublishFunc

	workspaceRoot location.CanonicalPath
	layoutSvc     *layout.Service
	sessions      *session.Manager
	tracker       *session.OpenDocumentTracker
	docs          *session.DocumentStateManager

	pre *preamble.Manager

	configReady    *session.BroadcastEvent
	workspaceReady *session.BroadcastEvent

	// Config-change preamble rebuilds are debounced and collapsed: one
	// rebuild runs, at most one more is remembered.
	preambleDebounce          *time.Timer
	preambleRebuildInProgress bool
	preambleRebuildPending    bool

	sessionOpts session.Options
}

// NewLanguageService creates an un-initialized service. If logger is nil,
// slog.Default() is used. publish may be nil (tests).
func NewLanguageService(logger *slog.Logger, publish PublishFunc) *LanguageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LanguageService{
		logger:         logger.With(slog.String("component", "service")),
		publish:        publish,
		tracker:        session.NewOpenDocumentTracker(),
		docs:           session.NewDocumentStateManager(),
		configReady:    session.NewBroadcastEvent(),
		workspaceReady: session.NewBroadcastEvent(),
	}
}

// SetSessionOptions overrides session-manager timings. Call before
// InitializeWorkspace; tests use it to shrink debounce windows.
func (s *LanguageService) SetSessionOptions(opts session.Options) {
	s.sessionOpts = opts
}

// InitializeWorkspace wires up the workspace: loads config, starts the
// initial preamble build on the worker pool, and creates the session
// manager. Requests that arrive before ConfigReady/WorkspaceReady wait on
// the corresponding event.
func (s *LanguageService) InitializeWorkspace(rootURI string) {
	root := location.FromURI(rootURI)
	if root.IsZero() {
		root = location.New(".")
	}

	s.mu.Lock()
	s.workspaceRoot = root
	s.layoutSvc = layout.NewService(root, s.logger)
	s.sessions = session.NewManager(s.layoutSvc.GetLayoutSnapshot, s.tracker, s.sessionOpts, s.logger)
	s.mu.Unlock()

	s.layoutSvc.LoadConfig()
	s.configReady.Set()

	s.sessions.Pool().Submit(func() {
		pre := preamble.CreateFromProjectLayout(s.layoutSvc.GetLayoutSnapshot(), s.logger)
		s.mu.Lock()
		s.pre = pre
		s.mu.Unlock()
		s.sessions.UpdatePreambleManager(pre)
		s.workspaceReady.Set()
	})
}

// ConfigReady fires once the layout exists.
func (s *LanguageService) ConfigReady() *session.BroadcastEvent { return s.configReady }

// WorkspaceReady fires once the initial preamble exists.
func (s *LanguageService) WorkspaceReady() *session.BroadcastEvent { return s.workspaceReady }

// WorkspaceRoot returns the initialized root.
func (s *LanguageService) WorkspaceRoot() location.CanonicalPath {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workspaceRoot
}

// CurrentPreamble returns the active preamble, nil before WorkspaceReady.
func (s *LanguageService) CurrentPreamble() *preamble.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pre
}

// ---------------------------------------------------------------------------
// Document lifecycle

// OnDocumentOpened records the document and builds its session once the
// workspace is ready.
func (s *LanguageService) OnDocumentOpened(uri, content string, version int) {
	s.tracker.Open(uri)
	s.docs.Set(uri, content, version)

	go func() {
		s.workspaceReady.Wait()
		s.sessions.UpdateSession(uri, content, version, s.diagnosticHook(uri))
	}()
}

// OnDocumentChanged records the new content. Sessions rebuild on save or
// on demand; while typing, the parse-only fast path serves diagnostics.
func (s *LanguageService) OnDocumentChanged(uri, content string, version int) {
	s.docs.Set(uri, content, version)
}

// OnDocumentSaved rebuilds the session from the latest recorded content.
func (s *LanguageService) OnDocumentSaved(uri string) {
	st, ok := s.docs.Get(uri)
	if !ok {
		return
	}
	go func() {
		s.workspaceReady.Wait()
		s.sessions.UpdateSession(uri, st.Content, st.Version, s.diagnosticHook(uri))
	}()
}

// OnDocumentClosed cancels pending work and schedules cleanup.
func (s *LanguageService) OnDocumentClosed(uri string) {
	s.tracker.Close(uri)
	s.docs.Remove(uri)
	if s.sessions != nil {
		s.sessions.CancelPendingSession(uri)
		s.sessions.ScheduleCleanup(uri)
	}
}

// diagnosticHook publishes a session's diagnostics, tagged with the
// version the build was requested for.
func (s *LanguageService) diagnosticHook(uri string) session.DiagnosticHook {
	return func(sess *overlay.Session, version int) {
		if s.publish == nil {
			return
		}
		diags := semantic.ExtractCollectedDiagnostics(sess.Compilation(), sess.MainBufferID(), sess.Preamble())
		s.publish(uri, version, diags)
	}
}

// ---------------------------------------------------------------------------
// Requests

// ComputeParseDiagnostics is the fast path used while the user types: a
// single-file compilation (no preamble, no binding) with parse-only
// diagnostics filtered to the main buffer.
func (s *LanguageService) ComputeParseDiagnostics(uri, content string) []protocol.Diagnostic {
	s.configReady.Wait()

	sm := source.NewManager()
	opts := compile.Options{LintMode: true, LanguageServerMode: true}
	if s.layoutSvc != nil {
		snap := s.layoutSvc.GetLayoutSnapshot()
		opts.IncludeDirs = snap.Layout.IncludeDirs()
		opts.Defines = snap.Layout.Defines()
	}
	comp := compile.NewCompilation(sm, opts)

	path := location.FromURI(uri)
	if path.IsZero() {
		path = location.New("/virtual/parse.sv")
	}
	mainID := sm.AssignText(path, content)
	comp.ParseBuffer(mainID)

	return semantic.ExtractParseDiagnostics(comp, mainID)
}

// GetDefinitionsForPosition answers textDocument/definition. Session-absent
// returns empty, never an error — an error response would make clients
// spin.
func (s *LanguageService) GetDefinitionsForPosition(uri string, pos source.Position) []semantic.Location {
	s.workspaceReady.Wait()
	if s.sessions == nil {
		return nil
	}

	var out []semantic.Location
	err := s.sessions.WithSession(uri, func(sess *overlay.Session) error {
		if loc, ok := sess.SemanticIndex().LookupDefinitionAt(pos); ok {
			out = append(out, loc)
		}
		return nil
	})
	if err != nil {
		s.logger.Debug("definition request without session",
			slog.String("uri", uri),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return out
}

// GetDocumentSymbols answers textDocument/documentSymbol. Session-absent
// returns empty.
func (s *LanguageService) GetDocumentSymbols(uri string) []protocol.DocumentSymbol {
	s.workspaceReady.Wait()
	if s.sessions == nil {
		return nil
	}

	var out []protocol.DocumentSymbol
	err := s.sessions.WithSession(uri, func(sess *overlay.Session) error {
		out = sess.SemanticIndex().DocumentSymbols()
		return nil
	})
	if err != nil {
		return nil
	}
	return out
}

// ---------------------------------------------------------------------------
// Configuration and file changes

// HandleConfigChange reloads the layout, rebuilds the preamble (debounced),
// invalidates all sessions, and rebuilds sessions for every open URI so
// diagnostics refresh without another edit.
func (s *LanguageService) HandleConfigChange() {
	if s.layoutSvc == nil {
		return
	}
	s.layoutSvc.LoadConfig()
	s.scheduleDebouncedPreambleRebuild()
}

// HandleSourceFileChange reacts to watched-file events. Creation and
// deletion change the layout (debounced); any change conservatively
// invalidates every session — no file-dependency graph exists.
func (s *LanguageService) HandleSourceFileChange(uri string, kind FileChangeKind) {
	path := location.FromURI(uri)

	// The config file has its own path.
	if s.layoutSvc != nil && s.layoutSvc.HandleConfigFileChange(path) {
		s.scheduleDebouncedPreambleRebuild()
		return
	}
	if !layout.IsSourceFile(path) {
		return
	}

	switch kind {
	case FileCreated, FileDeleted:
		if s.layoutSvc != nil {
			s.layoutSvc.ScheduleDebouncedRebuild()
		}
		if s.sessions != nil {
			s.sessions.InvalidateAllSessions()
		}
		s.scheduleDebouncedPreambleRebuild()
	case FileChanged:
		if s.sessions != nil {
			s.sessions.InvalidateAllSessions()
		}
		s.scheduleDebouncedPreambleRebuild()
	}
}

// scheduleDebouncedPreambleRebuild coalesces a burst of triggers into one
// rebuild, with at most one follow-up remembered while a rebuild runs.
func (s *LanguageService) scheduleDebouncedPreambleRebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.preambleDebounce != nil {
		s.preambleDebounce.Stop()
	}
	s.preambleDebounce = time.AfterFunc(preambleDebounceDelay, s.maybeStartPreambleRebuild)
}

func (s *LanguageService) maybeStartPreambleRebuild() {
	s.mu.Lock()
	if s.preambleRebuildInProgress {
		s.preambleRebuildPending = true
		s.mu.Unlock()
		return
	}
	s.preambleRebuildInProgress = true
	s.mu.Unlock()

	s.sessions.Pool().Submit(func() {
		pre := preamble.CreateFromProjectLayout(s.layoutSvc.GetLayoutSnapshot(), s.logger)

		s.mu.Lock()
		s.pre = pre
		s.mu.Unlock()

		s.sessions.UpdatePreambleManager(pre)
		s.sessions.InvalidateAllSessions()

		// Rebuild sessions for every open document so diagnostics refresh
		// without another edit.
		for _, uri := range s.tracker.OpenURIs() {
			if st, ok := s.docs.Get(uri); ok {
				s.sessions.UpdateSession(uri, st.Content, st.Version, s.diagnosticHook(uri))
			}
		}

		s.mu.Lock()
		s.preambleRebuildInProgress = false
		pending := s.preambleRebuildPending
		s.preambleRebuildPending = false
		s.mu.Unlock()

		if pending {
			s.maybeStartPreambleRebuild()
		}
	})
}

// Close releases timers and drains workers.
func (s *LanguageService) Close() {
	s.mu.Lock()
	if s.preambleDebounce != nil {
		s.preambleDebounce.Stop()
	}
	s.mu.Unlock()
	if s.layoutSvc != nil {
		s.layoutSvc.Close()
	}
	if s.sessions != nil {
		s.sessions.Close()
	}
}
