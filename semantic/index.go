package semantic

import (
	"log/slog"

	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/preamble"
	"github.com/svlsp/svlsp/source"
)

// Index is the per-file table of semantic entries. Immutable after
// BuildIndex returns; every method is a read.
type Index struct {
	uri            string
	entries        []Entry
	indexingErrors int
}

// BuildIndex walks the tree parsed from mainBuffer and produces the index
// for uri. pre may be nil (single-file mode).
func BuildIndex(comp *compile.Compilation, mainBuffer source.BufferID, uri string, pre *preamble.Manager, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	comp.Elaborate()

	v := newVisitor(comp, mainBuffer, uri, pre, logger)

	if tree := comp.TreeFor(mainBuffer); tree != nil {
		v.file(tree.File)
	}

	if v.errors > 0 {
		logger.Debug("indexing finished with dropped references",
			slog.String("uri", uri),
			slog.Int("indexing_errors", v.errors),
			slog.Int("entries", len(v.entries)),
		)
	}

	return &Index{
		uri:            uri,
		entries:        v.entries,
		indexingErrors: v.errors,
	}
}

// URI returns the indexed file's URI.
func (ix *Index) URI() string { return ix.uri }

// Entries returns the full entry vector (read-only; used by tests).
func (ix *Index) Entries() []Entry { return ix.entries }

// IndexingErrors returns the count of references dropped because their
// target could not be translated.
func (ix *Index) IndexingErrors() int { return ix.indexingErrors }

// LookupDefinitionAt finds the entry whose reference range contains the
// position and returns its definition location. Ties break to the innermost
// (smallest) range.
func (ix *Index) LookupDefinitionAt(pos source.Position) (Location, bool) {
	var best *Entry
	bestSize := -1
	for i := range ix.entries {
		e := &ix.entries[i]
		if !e.RefRange.Contains(pos) {
			continue
		}
		size := rangeSize(e.RefRange)
		if best == nil || size < bestSize {
			best = e
			bestSize = size
		}
	}
	if best == nil {
		return Location{}, false
	}
	return best.DefLoc, true
}

// rangeSize orders ranges by extent: line span first, then characters.
func rangeSize(r source.LSPRange) int {
	lines := r.End.Line - r.Start.Line
	if lines > 0 {
		return lines * 10000
	}
	return r.End.Character - r.Start.Character
}
