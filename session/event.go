package session

import "sync"

// BroadcastEvent is a one-to-many, one-shot notification without data.
// Set is idempotent; waiters that arrive after Set complete immediately.
type BroadcastEvent struct {
	once sync.Once
	ch   chan struct{}
}

// NewBroadcastEvent returns an unset event.
func NewBroadcastEvent() *BroadcastEvent {
	return &BroadcastEvent{ch: make(chan struct{})}
}

// Set fires the event. Safe to call multiple times and from any goroutine.
func (e *BroadcastEvent) Set() {
	e.once.Do(func() { close(e.ch) })
}

// Done returns a channel closed once the event is set. Select on it or
// receive to wait.
func (e *BroadcastEvent) Done() <-chan struct{} { return e.ch }

// IsSet reports whether the event has fired.
func (e *BroadcastEvent) IsSet() bool {
	select {
	case <-e.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the event is set.
func (e *BroadcastEvent) Wait() { <-e.ch }
