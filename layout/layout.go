package layout

import (
	"time"

	"github.com/svlsp/svlsp/location"
)

// ProjectLayout is the immutable result of one discovery pass. Never
// mutated after construction; share freely.
type ProjectLayout struct {
	files       []location.CanonicalPath
	includeDirs []location.CanonicalPath
	defines     []string
}

// NewProjectLayout copies its inputs into an immutable layout.
func NewProjectLayout(files, includeDirs []location.CanonicalPath, defines []string) *ProjectLayout {
	l := &ProjectLayout{
		files:       make([]location.CanonicalPath, len(files)),
		includeDirs: make([]location.CanonicalPath, len(includeDirs)),
		defines:     make([]string, len(defines)),
	}
	copy(l.files, files)
	copy(l.includeDirs, includeDirs)
	copy(l.defines, defines)
	return l
}

// Files returns the discovered source files. Callers must not mutate.
func (l *ProjectLayout) Files() []location.CanonicalPath { return l.files }

// IncludeDirs returns the include search directories.
func (l *ProjectLayout) IncludeDirs() []location.CanonicalPath { return l.includeDirs }

// Defines returns the macro definitions.
func (l *ProjectLayout) Defines() []string { return l.defines }

// ContainsFile reports whether the path is in the layout's file set.
func (l *ProjectLayout) ContainsFile(p location.CanonicalPath) bool {
	for _, f := range l.files {
		if f == p {
			return true
		}
	}
	return false
}

// Snapshot pairs a layout with its version. Version strictly increases
// across rebuilds.
type Snapshot struct {
	Layout    *ProjectLayout
	Version   uint64
	Timestamp time.Time
}
