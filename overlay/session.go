// Package overlay builds short-lived compilation sessions that layer the
// current editor buffer over the preamble.
//
// A Session owns its own source manager, compilation, and semantic index,
// and is immutable after Create returns. References to packages, modules,
// and interfaces that the buffer does not define resolve against the
// preamble's compilation; files the preamble already compiled are never
// re-parsed into the overlay.
package overlay

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/layout"
	"github.com/svlsp/svlsp/location"
	"github.com/svlsp/svlsp/preamble"
	"github.com/svlsp/svlsp/semantic"
	"github.com/svlsp/svlsp/source"
)

// Session is one URI+content compilation with its semantic index.
// Immutable after construction.
type Session struct {
	id           string
	uri          string
	sm           *source.Manager
	comp         *compile.Compilation
	mainBufferID source.BufferID
	index        *semantic.Index
	pre          *preamble.Manager
}

// Create builds a session for the given document. snap provides include
// dirs and defines; pre may be nil for single-file mode. Parse and
// semantic errors are not creation failures — they surface as diagnostics
// on the session's compilation. Run on a background worker; construction
// compiles.
func Create(uri, content string, snap layout.Snapshot, pre *preamble.Manager, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	sessionID := uuid.NewString()
	logger = logger.With(
		slog.String("component", "overlay"),
		slog.String("session_id", sessionID),
	)
	start := time.Now()

	sm := source.NewManager()

	opts := compile.Options{
		LintMode:           true,
		LanguageServerMode: true,
	}
	if snap.Layout != nil {
		opts.IncludeDirs = snap.Layout.IncludeDirs()
		opts.Defines = snap.Layout.Defines()
	}
	if pre != nil {
		// A preamble built from an older layout still dictates the
		// compile environment its symbols were produced under.
		opts.IncludeDirs = pre.IncludeDirs()
		opts.Defines = pre.Defines()
	}

	comp := compile.NewCompilation(sm, opts)
	if pre != nil {
		comp.WithPreamble(pre)
	}

	path := location.FromURI(uri)
	if path.IsZero() {
		// Untitled or otherwise non-file URIs still get a buffer; the
		// virtual path only needs to be stable within this session.
		path = location.New("/virtual/overlay.sv")
	}
	mainBufferID := sm.AssignText(path, content)
	comp.ParseBuffer(mainBufferID)
	comp.Elaborate()

	index := semantic.BuildIndex(comp, mainBufferID, uri, pre, logger)

	logger.Debug("overlay session built",
		slog.String("uri", uri),
		slog.Int("entries", len(index.Entries())),
		slog.Int("indexing_errors", index.IndexingErrors()),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Session{
		id:           sessionID,
		uri:          uri,
		sm:           sm,
		comp:         comp,
		mainBufferID: mainBufferID,
		index:        index,
		pre:          pre,
	}
}

// ID returns the session's correlation ID used in logs.
func (s *Session) ID() string { return s.id }

// URI returns the document URI the session was built for.
func (s *Session) URI() string { return s.uri }

// SemanticIndex returns the session's index.
func (s *Session) SemanticIndex() *semantic.Index { return s.index }

// Compilation returns the overlay compilation.
func (s *Session) Compilation() *compile.Compilation { return s.comp }

// SourceManager returns the overlay's own source manager.
func (s *Session) SourceManager() *source.Manager { return s.sm }

// MainBufferID returns the buffer holding the current document, used for
// O(1) diagnostic filtering.
func (s *Session) MainBufferID() source.BufferID { return s.mainBufferID }

// Preamble returns the preamble the session was built against; nil in
// single-file mode.
func (s *Session) Preamble() *preamble.Manager { return s.pre }
