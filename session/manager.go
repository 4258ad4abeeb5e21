package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/svlsp/svlsp/layout"
	"github.com/svlsp/svlsp/overlay"
	"github.com/svlsp/svlsp/preamble"
)

// ErrSessionNotFound is returned by WithSession when no session exists for
// the URI — never built, or already cleaned up. Callers translate it into
// an empty LSP result, not a protocol error.
var ErrSessionNotFound = errors.New("session: no session for uri")

// RebuildState is the per-URI build state machine.
type RebuildState int

const (
	// StateIdle means no build is running for the URI.
	StateIdle RebuildState = iota

	// StateInProgress means a build is on the pool right now.
	StateInProgress

	// StatePendingNext means a build is running and a newer request is
	// parked; when the build completes a fresh build starts for the
	// parked content. At most one successor is parked — newer requests
	// replace it.
	StatePendingNext
)

// DiagnosticHook is invoked after a build stores its session, with the
// document version the build was requested for. The language service uses
// it to publish version-gated diagnostics.
type DiagnosticHook func(s *overlay.Session, version int)

// uriState is the manager's per-URI slot.
type uriState struct {
	session *overlay.Session
	state   RebuildState

	// Parked successor (valid in StatePendingNext).
	pendingContent string
	pendingVersion int
	pendingHook    DiagnosticHook

	// invalidated marks an in-flight build whose result must be
	// discarded.
	invalidated bool

	// waitCh is closed whenever the slot settles (build done, cancelled,
	// cleaned up); WithSession waiters re-check state after each close.
	waitCh chan struct{}

	debounce       *time.Timer
	debounceTarget string
	cleanup        *time.Timer
}

// Options tunes manager timing; zero values use production defaults.
type Options struct {
	DebounceDelay time.Duration // default 500ms
	CleanupDelay  time.Duration // default 5s
	PoolSize      int           // default max(1, NumCPU/2)
}

// Manager owns per-URI session lifecycle. All state mutations serialize on
// mu; builds run on the pool.
type Manager struct {
	mu sync.Mutex

	logger  *slog.Logger
	pool    *WorkerPool
	tracker *OpenDocumentTracker

	// snapshotFn supplies the current layout for new sessions.
	snapshotFn func() layout.Snapshot

	pre *preamble.Manager

	states map[string]*uriState

	debounceDelay time.Duration
	cleanupDelay  time.Duration
}

// NewManager creates a session manager.
func NewManager(snapshotFn func() layout.Snapshot, tracker *OpenDocumentTracker, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = 500 * time.Millisecond
	}
	if opts.CleanupDelay <= 0 {
		opts.CleanupDelay = 5 * time.Second
	}
	return &Manager{
		logger:        logger.With(slog.String("component", "sessions")),
		pool:          NewWorkerPool(opts.PoolSize),
		tracker:       tracker,
		snapshotFn:    snapshotFn,
		states:        make(map[string]*uriState),
		debounceDelay: opts.DebounceDelay,
		cleanupDelay:  opts.CleanupDelay,
	}
}

// Pool exposes the worker pool so preamble builds share the same
// concurrency bound.
func (m *Manager) Pool() *WorkerPool { return m.pool }

// UpdatePreambleManager atomically swaps the preamble used by future
// session builds. Existing sessions keep the preamble they were built
// against.
func (m *Manager) UpdatePreambleManager(pre *preamble.Manager) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pre = pre
}

// ensureLocked returns the slot for uri, creating it if needed.
func (m *Manager) ensureLocked(uri string) *uriState {
	st, ok := m.states[uri]
	if !ok {
		st = &uriState{waitCh: make(chan struct{})}
		m.states[uri] = st
	}
	return st
}

// settleLocked wakes WithSession waiters and re-arms the wait channel.
func (st *uriState) settleLocked() {
	close(st.waitCh)
	st.waitCh = make(chan struct{})
}

// UpdateSession requests a (re)build of the session for uri. The first
// build for a URI starts immediately; rapid successive updates debounce.
// While a build is in flight, the newest request parks as the single
// pending successor — the running build is never cancelled.
func (m *Manager) UpdateSession(uri, content string, version int, hook DiagnosticHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.ensureLocked(uri)

	// A pending cleanup is moot: the document is active again.
	if st.cleanup != nil {
		st.cleanup.Stop()
		st.cleanup = nil
	}

	switch st.state {
	case StateInProgress, StatePendingNext:
		st.state = StatePendingNext
		st.pendingContent = content
		st.pendingVersion = version
		st.pendingHook = hook
		return
	case StateIdle:
	}

	if st.session == nil && st.debounce == nil {
		// First build for this URI: no debounce, the editor just opened
		// the document and wants diagnostics now.
		m.startBuildLocked(uri, st, content, version, hook)
		return
	}

	// Coalesce rapid successive updates: reset the timer, keep only the
	// newest content.
	if st.debounce != nil {
		st.debounce.Stop()
	}
	st.debounceTarget = content
	pendingVersion := version
	st.debounce = time.AfterFunc(m.debounceDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		cur, ok := m.states[uri]
		if !ok || cur != st {
			return
		}
		cur.debounce = nil
		switch cur.state {
		case StateIdle:
			m.startBuildLocked(uri, cur, cur.debounceTarget, pendingVersion, hook)
		case StateInProgress, StatePendingNext:
			cur.state = StatePendingNext
			cur.pendingContent = cur.debounceTarget
			cur.pendingVersion = pendingVersion
			cur.pendingHook = hook
		}
	})
}

// startBuildLocked launches a build on the pool. Caller holds mu.
func (m *Manager) startBuildLocked(uri string, st *uriState, content string, version int, hook DiagnosticHook) {
	st.state = StateInProgress
	st.invalidated = false
	snap := m.snapshotFn()
	pre := m.pre

	m.pool.Submit(func() {
		built := overlay.Create(uri, content, snap, pre, m.logger)
		m.onBuildDone(uri, st, built, version, hook)
	})
}

// onBuildDone posts a finished build back into manager state.
func (m *Manager) onBuildDone(uri string, st *uriState, built *overlay.Session, version int, hook DiagnosticHook) {
	m.mu.Lock()

	cur, ok := m.states[uri]
	discarded := !ok || cur != st || st.invalidated
	if !discarded {
		st.session = built
	}

	var nextContent string
	var nextVersion int
	var nextHook DiagnosticHook
	startNext := false

	if ok && cur == st {
		if st.state == StatePendingNext {
			nextContent = st.pendingContent
			nextVersion = st.pendingVersion
			nextHook = st.pendingHook
			st.pendingContent = ""
			st.pendingHook = nil
			startNext = true
		}
		st.state = StateIdle
		st.invalidated = false
		if startNext {
			m.startBuildLocked(uri, st, nextContent, nextVersion, nextHook)
		}
		st.settleLocked()
	}
	m.mu.Unlock()

	if discarded {
		m.logger.Debug("discarding superseded session build",
			slog.String("uri", uri),
			slog.Int("version", version),
		)
		return
	}
	if hook != nil {
		hook(built, version)
	}
}

// WithSession waits for any in-flight or debounced build for uri, then
// invokes f with the stable session. Returns ErrSessionNotFound when no
// session exists and none is being built.
func (m *Manager) WithSession(uri string, f func(*overlay.Session) error) error {
	for {
		m.mu.Lock()
		st, ok := m.states[uri]
		if !ok {
			m.mu.Unlock()
			return ErrSessionNotFound
		}
		building := st.state != StateIdle || st.debounce != nil
		if !building {
			sess := st.session
			m.mu.Unlock()
			if sess == nil {
				return ErrSessionNotFound
			}
			// Sessions are immutable; the local reference stays stable no
			// matter what the manager does next.
			return f(sess)
		}
		ch := st.waitCh
		m.mu.Unlock()
		<-ch
	}
}

// InvalidateAllSessions drops every cached session. In-flight builds are
// not cancelled; their results are discarded on completion. The next
// WithSession per URI either sees a fresh rebuild or session-absent —
// never a stale session.
func (m *Manager) InvalidateAllSessions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for uri, st := range m.states {
		st.session = nil
		switch st.state {
		case StateInProgress, StatePendingNext:
			st.invalidated = true
		case StateIdle:
			if st.debounce == nil && st.cleanup == nil {
				delete(m.states, uri)
				st.settleLocked()
			}
		}
	}
}

// CancelPendingSession cancels a debounced-but-not-started build. Builds
// already on the pool are left to finish.
func (m *Manager) CancelPendingSession(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[uri]
	if !ok {
		return
	}
	if st.debounce != nil {
		st.debounce.Stop()
		st.debounce = nil
		st.settleLocked()
	}
	// A parked successor is also not-yet-started work.
	if st.state == StatePendingNext {
		st.state = StateInProgress
		st.pendingContent = ""
		st.pendingHook = nil
	}
}

// ScheduleCleanup drops the URI's session after the cleanup delay unless
// the document has been reopened by then.
func (m *Manager) ScheduleCleanup(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[uri]
	if !ok {
		return
	}
	if st.cleanup != nil {
		st.cleanup.Stop()
	}
	st.cleanup = time.AfterFunc(m.cleanupDelay, func() {
		if m.tracker != nil && m.tracker.IsOpen(uri) {
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		cur, ok := m.states[uri]
		if !ok || cur != st {
			return
		}
		cur.cleanup = nil
		cur.session = nil
		switch cur.state {
		case StateInProgress, StatePendingNext:
			cur.invalidated = true
		case StateIdle:
			delete(m.states, uri)
			cur.settleLocked()
		}
		m.logger.Debug("cleaned up closed document session", slog.String("uri", uri))
	})
}

// HasSession reports whether a built session is cached for uri.
func (m *Manager) HasSession(uri string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[uri]
	return ok && st.session != nil
}

// Close stops timers; in-flight builds drain on the pool.
func (m *Manager) Close() {
	m.mu.Lock()
	for _, st := range m.states {
		if st.debounce != nil {
			st.debounce.Stop()
		}
		if st.cleanup != nil {
			st.cleanup.Stop()
		}
	}
	m.mu.Unlock()
	m.pool.Wait()
}
