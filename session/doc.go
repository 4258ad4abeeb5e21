// Package session manages per-URI overlay session lifecycle: debounced
// rebuilds, build serialization, cancellation of not-yet-started work, and
// cleanup after close.
//
// The concurrency contract mirrors the strand-and-pool model: all manager
// state mutates under one mutex (the strand), session construction runs on
// a bounded worker pool (CPU-bound compilations), and results post back
// through the same mutex. Within one URI at most one build is in flight; a
// newer request while building parks as PendingNext and at most one parked
// successor survives. In-flight builds are never cancelled — the compiler
// has no cancellation points — their results are simply discarded when the
// slot was invalidated meanwhile.
package session
