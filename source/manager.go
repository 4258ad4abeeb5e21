package source

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/svlsp/svlsp/location"
)

// BufferID identifies a text buffer. IDs are unique across all Managers in
// the process, so a location minted by one Manager can never silently
// resolve against another. The zero value is invalid.
type BufferID int32

// IsValid reports whether the ID was minted by a Manager.
func (id BufferID) IsValid() bool { return id > 0 }

// nextBufferID is the process-wide BufferID counter. Giving every Manager
// its own counter would let a preamble location numerically collide with an
// overlay buffer; a global counter turns that misuse into a detectable miss.
var nextBufferID atomic.Int32

// Loc is a raw source location: a byte offset into one buffer.
type Loc struct {
	Buffer BufferID
	Offset int
}

// IsValid reports whether the location refers to a real buffer.
func (l Loc) IsValid() bool { return l.Buffer.IsValid() }

// Range is a half-open byte range [Start, End) within one buffer.
type Range struct {
	Buffer     BufferID
	Start, End int
}

// IsValid reports whether the range refers to a real buffer and is
// non-negative in extent.
func (r Range) IsValid() bool { return r.Buffer.IsValid() && r.Start <= r.End }

// Len returns the byte length of the range.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether the byte offset falls inside the range.
func (r Range) Contains(offset int) bool { return offset >= r.Start && offset < r.End }

// Position is an LSP position: zero-based line, zero-based UTF-16 code-unit
// column.
type Position struct {
	Line      int
	Character int
}

// Before reports whether p orders strictly before q.
func (p Position) Before(q Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Character < q.Character)
}

// LSPRange is a half-open [Start, End) range in LSP coordinates.
type LSPRange struct {
	Start Position
	End   Position
}

// Contains reports whether pos falls inside the half-open range.
func (r LSPRange) Contains(pos Position) bool {
	return !pos.Before(r.Start) && pos.Before(r.End)
}

// ContainedIn reports whether r lies entirely within outer.
func (r LSPRange) ContainedIn(outer LSPRange) bool {
	return !r.Start.Before(outer.Start) && !outer.End.Before(r.End)
}

// buffer is one immutable text buffer with its line table.
type buffer struct {
	id          BufferID
	path        location.CanonicalPath
	text        string
	lineOffsets []int // byte offset of each line start; lineOffsets[0] == 0
}

// Manager owns text buffers and converts between raw byte locations and LSP
// coordinates. Buffers are immutable once assigned. A Manager is safe for
// concurrent reads; AssignText and ReadFile serialize on an internal mutex.
type Manager struct {
	mu      sync.RWMutex
	buffers map[BufferID]*buffer
	byPath  map[location.CanonicalPath]BufferID
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		buffers: make(map[BufferID]*buffer),
		byPath:  make(map[location.CanonicalPath]BufferID),
	}
}

// AssignText adds a buffer holding content under the given path and returns
// its BufferID. Line endings are normalized to LF so that offset arithmetic
// is stable regardless of what the client sent. Assigning the same path again
// creates a fresh buffer with a fresh ID; the previous buffer remains
// readable by ID (sessions are immutable, so nothing re-resolves old IDs).
func (m *Manager) AssignText(path location.CanonicalPath, content string) BufferID {
	content = normalizeLineEndings(content)

	id := BufferID(nextBufferID.Add(1))
	buf := &buffer{
		id:          id,
		path:        path,
		text:        content,
		lineOffsets: computeLineOffsets(content),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffers[id] = buf
	m.byPath[path] = id
	return id
}

// ReadFile loads the file at path into a new buffer.
func (m *Manager) ReadFile(path location.CanonicalPath) (BufferID, error) {
	data, err := os.ReadFile(path.OSPath())
	if err != nil {
		return 0, fmt.Errorf("read source %q: %w", path.String(), err)
	}
	return m.AssignText(path, string(data)), nil
}

// Text returns the buffer's content, or "" for an unknown ID.
func (m *Manager) Text(id BufferID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if buf, ok := m.buffers[id]; ok {
		return buf.text
	}
	return ""
}

// PathOf returns the path the buffer was assigned under. Zero for unknown IDs.
func (m *Manager) PathOf(id BufferID) location.CanonicalPath {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if buf, ok := m.buffers[id]; ok {
		return buf.path
	}
	return location.CanonicalPath{}
}

// BufferFor returns the most recent buffer assigned under path.
func (m *Manager) BufferFor(path location.CanonicalPath) (BufferID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPath[path]
	return id, ok
}

// Owns reports whether the buffer belongs to this Manager.
func (m *Manager) Owns(id BufferID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.buffers[id]
	return ok
}

// PositionAt converts a raw location to an LSP position. Returns false when
// the buffer does not belong to this Manager — the cross-SourceManager
// hazard surfaces here as a clean miss, never as coordinates in an
// unrelated file.
func (m *Manager) PositionAt(loc Loc) (Position, bool) {
	m.mu.RLock()
	buf, ok := m.buffers[loc.Buffer]
	m.mu.RUnlock()
	if !ok {
		return Position{}, false
	}
	return buf.position(loc.Offset), true
}

// LSPRangeOf converts a raw range to LSP coordinates. Returns false when the
// buffer is foreign or the range is inverted.
func (m *Manager) LSPRangeOf(r Range) (LSPRange, bool) {
	if !r.IsValid() {
		return LSPRange{}, false
	}
	m.mu.RLock()
	buf, ok := m.buffers[r.Buffer]
	m.mu.RUnlock()
	if !ok {
		return LSPRange{}, false
	}
	return LSPRange{
		Start: buf.position(r.Start),
		End:   buf.position(r.End),
	}, true
}

// OffsetFor converts an LSP position to a byte offset in the buffer.
// Positions past the end of a line clamp to the line end; positions that
// point at the second code unit of a surrogate pair floor to the rune start.
func (m *Manager) OffsetFor(id BufferID, pos Position) (int, bool) {
	m.mu.RLock()
	buf, ok := m.buffers[id]
	m.mu.RUnlock()
	if !ok || pos.Line < 0 || pos.Line >= len(buf.lineOffsets) {
		return 0, false
	}
	lineStart := buf.lineOffsets[pos.Line]
	return utf16CharToByteOffset(buf.text, lineStart, pos.Character), true
}

// LineCount returns the number of lines in the buffer (at least 1 for a
// known buffer, 0 for unknown).
func (m *Manager) LineCount(id BufferID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if buf, ok := m.buffers[id]; ok {
		return len(buf.lineOffsets)
	}
	return 0
}

// position converts a byte offset to line and UTF-16 column.
func (b *buffer) position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(b.text) {
		offset = len(b.text)
	}

	// Binary search the line table for the last line start <= offset.
	line := sort.Search(len(b.lineOffsets), func(i int) bool {
		return b.lineOffsets[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}

	return Position{
		Line:      line,
		Character: utf16Len(b.text[b.lineOffsets[line]:offset]),
	}
}

// computeLineOffsets builds the byte offset table of line starts.
func computeLineOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// utf16Len counts the UTF-16 code units needed to encode s. Runes in the BMP
// take 1 unit; runes above U+FFFF take 2 (a surrogate pair). Invalid bytes
// count as 1 unit each, matching how editors treat undecodable content.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// utf16CharToByteOffset converts a UTF-16 code-unit offset within a line to
// a byte offset, stopping at the line's end.
func utf16CharToByteOffset(text string, lineStart, char int) int {
	if char <= 0 {
		return lineStart
	}
	pos := lineStart
	units := 0
	for pos < len(text) && units < char {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if r == utf8.RuneError && size <= 1 {
			// Invalid UTF-8 byte: count as 1 UTF-16 unit
			units++
			pos++
			continue
		}
		if r == '\n' {
			break
		}
		if r > 0xFFFF {
			// A request for the second half of a surrogate pair floors to
			// the start of the rune.
			if units+2 > char {
				break
			}
			units += 2
		} else {
			units++
		}
		pos += size
	}
	return pos
}

// normalizeLineEndings converts CRLF and CR line endings to LF.
// Windows clients may send CRLF, which would cause incorrect byte offset
// calculations downstream.
func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}
