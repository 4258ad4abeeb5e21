package session

import "sync"

// DocumentState is the latest known content and version of one open
// document.
type DocumentState struct {
	Content string
	Version int
}

// DocumentStateManager holds per-URI document state. Mutated only by the
// document-lifecycle events; serialized on an internal mutex.
type DocumentStateManager struct {
	mu   sync.Mutex
	docs map[string]DocumentState
}

// NewDocumentStateManager returns an empty state manager.
func NewDocumentStateManager() *DocumentStateManager {
	return &DocumentStateManager{docs: make(map[string]DocumentState)}
}

// Set stores the document state. Stale versions (not higher than the
// stored one, unless either is zero) are ignored so out-of-order notifications
// cannot overwrite newer content.
func (m *DocumentStateManager) Set(uri, content string, version int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.docs[uri]; ok && version != 0 && cur.Version != 0 && version <= cur.Version {
		return
	}
	m.docs[uri] = DocumentState{Content: content, Version: version}
}

// Get returns the stored state for the URI.
func (m *DocumentStateManager) Get(uri string) (DocumentState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.docs[uri]
	return st, ok
}

// Remove drops the URI's state.
func (m *DocumentStateManager) Remove(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, uri)
}
