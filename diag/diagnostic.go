package diag

import (
	"sort"
	"sync"

	"github.com/svlsp/svlsp/source"
)

// Diagnostic is one compiler finding. Range is a raw byte range against the
// source manager of the compilation that produced it; conversion to LSP
// coordinates happens at the server boundary.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Range    source.Range
	Message  string
	Hints    []string
}

// Collector accumulates diagnostics during parsing and binding. It is safe
// for concurrent use; Snapshot returns a deterministically ordered copy.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Addf is shorthand for adding a diagnostic with no hints.
func (c *Collector) Addf(code Code, sev Severity, r source.Range, msg string) {
	c.Add(Diagnostic{Code: code, Severity: sev, Range: r, Message: msg})
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diags)
}

// Snapshot returns a copy of the collected diagnostics in a deterministic
// order: by buffer, then start offset, then code. Two snapshots of the same
// collector state are equal element-wise, which the server relies on when
// comparing diagnostic pushes.
func (c *Collector) Snapshot() []Diagnostic {
	c.mu.Lock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Range.Buffer != b.Range.Buffer {
			return a.Range.Buffer < b.Range.Buffer
		}
		if a.Range.Start != b.Range.Start {
			return a.Range.Start < b.Range.Start
		}
		return a.Code < b.Code
	})
	return out
}
