package session

import "sync"

// OpenDocumentTracker is the thread-safe set of URIs currently open in the
// editor. Document-lifecycle events mutate it; cleanup logic reads it.
type OpenDocumentTracker struct {
	mu   sync.Mutex
	open map[string]bool
}

// NewOpenDocumentTracker returns an empty tracker.
func NewOpenDocumentTracker() *OpenDocumentTracker {
	return &OpenDocumentTracker{open: make(map[string]bool)}
}

// Open marks the URI as open.
func (t *OpenDocumentTracker) Open(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[uri] = true
}

// Close marks the URI as closed.
func (t *OpenDocumentTracker) Close(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.open, uri)
}

// IsOpen reports whether the URI is currently open.
func (t *OpenDocumentTracker) IsOpen(uri string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open[uri]
}

// OpenURIs returns a copy of the open set.
func (t *OpenDocumentTracker) OpenURIs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.open))
	for uri := range t.open {
		out = append(out, uri)
	}
	return out
}
