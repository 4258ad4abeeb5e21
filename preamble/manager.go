// Package preamble builds and holds the background compilation: every file
// in the project layout, compiled once and shared read-only by all overlay
// sessions until the configuration or a project source file changes.
//
// The manager's symbol-info table is the cross-compilation escape hatch.
// Overlay ASTs bind references to preamble symbols, but the overlay's
// source manager cannot convert a preamble location into coordinates — the
// buffer belongs to a different manager. The table precomputes
// {file URI, definition range} for every named preamble symbol at build
// time, using the preamble's own source manager, so navigation out of an
// overlay never touches foreign buffers.
package preamble

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/layout"
	"github.com/svlsp/svlsp/location"
	"github.com/svlsp/svlsp/source"
)

// versionCounter mints strictly increasing preamble versions across
// rebuilds; a new preamble is always a new object with a new version.
var versionCounter atomic.Uint64

// SymbolInfo is the precomputed LSP location of one preamble symbol.
type SymbolInfo struct {
	FileURI  string
	DefRange source.LSPRange
}

// PackageInfo is package metadata exposed to overlays.
type PackageInfo struct {
	Name     string
	FilePath location.CanonicalPath
}

// InterfaceInfo is interface metadata exposed to overlays.
type InterfaceInfo struct {
	Name     string
	FilePath location.CanonicalPath
}

// PortInfo is one module port with its definition range.
type PortInfo struct {
	Name     string
	DefRange source.LSPRange
}

// ParameterInfo is one module parameter with its definition range.
type ParameterInfo struct {
	Name     string
	DefRange source.LSPRange
}

// ModuleInfo is module metadata with O(1) port/parameter lookup.
type ModuleInfo struct {
	Name       string
	FilePath   location.CanonicalPath
	DefRange   source.LSPRange
	Ports      []PortInfo
	Parameters []ParameterInfo

	portLookup  map[string]*PortInfo
	paramLookup map[string]*ParameterInfo
}

// Port returns the named port, or nil.
func (m *ModuleInfo) Port(name string) *PortInfo { return m.portLookup[name] }

// Parameter returns the named parameter, or nil.
func (m *ModuleInfo) Parameter(name string) *ParameterInfo { return m.paramLookup[name] }

// Manager is the immutable preamble. Construction is heavy (it compiles the
// whole layout); afterwards every method is safe for concurrent use.
type Manager struct {
	comp *compile.Compilation
	sm   *source.Manager

	packages   []PackageInfo
	interfaces []InterfaceInfo
	modules    []ModuleInfo
	modLookup  map[string]*ModuleInfo

	symbolInfo map[*compile.Symbol]SymbolInfo

	layoutVersion uint64
	version       uint64

	includeDirs []location.CanonicalPath
	defines     []string
}

// CreateFromProjectLayout compiles every file in the snapshot and extracts
// the metadata tables. Files that cannot be read are skipped with a
// warning; the preamble is still produced from the rest. Run this on a
// background worker, not the I/O goroutine.
func CreateFromProjectLayout(snap layout.Snapshot, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "preamble"))

	start := time.Now()
	sm := source.NewManager()
	comp := compile.NewCompilation(sm, compile.Options{
		IncludeDirs:        snap.Layout.IncludeDirs(),
		Defines:            snap.Layout.Defines(),
		LintMode:           true,
		LanguageServerMode: true,
	})

	for _, path := range snap.Layout.Files() {
		id, err := sm.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable source file",
				slog.String("path", path.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		comp.ParseBuffer(id)
	}
	comp.Elaborate()

	m := &Manager{
		comp:          comp,
		sm:            sm,
		modLookup:     make(map[string]*ModuleInfo),
		symbolInfo:    make(map[*compile.Symbol]SymbolInfo),
		layoutVersion: snap.Version,
		version:       versionCounter.Add(1),
		includeDirs:   snap.Layout.IncludeDirs(),
		defines:       snap.Layout.Defines(),
	}
	m.extract()

	logger.Info("preamble built",
		slog.Uint64("version", m.version),
		slog.Uint64("layout_version", m.layoutVersion),
		slog.Int("files", len(snap.Layout.Files())),
		slog.Int("packages", len(m.packages)),
		slog.Int("modules", len(m.modules)),
		slog.Int("symbols", len(m.symbolInfo)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return m
}

// extract walks the compilation's symbols into the metadata tables.
func (m *Manager) extract() {
	for _, pkg := range m.comp.Packages() {
		m.packages = append(m.packages, PackageInfo{
			Name:     pkg.Name,
			FilePath: m.sm.PathOf(pkg.NameRange.Buffer),
		})
	}

	for _, def := range m.comp.Definitions() {
		defRange, ok := m.sm.LSPRangeOf(def.NameRange)
		if !ok {
			continue
		}
		// Interfaces are listed in their own table and also get
		// module-style port/parameter metadata: overlays resolve interface
		// instantiations through the same lookup as modules.
		switch def.Kind {
		case compile.SymbolInterface:
			m.interfaces = append(m.interfaces, InterfaceInfo{
				Name:     def.Name,
				FilePath: m.sm.PathOf(def.NameRange.Buffer),
			})
		case compile.SymbolModule, compile.SymbolProgram:
		default:
			continue
		}

		info := ModuleInfo{
			Name:        def.Name,
			FilePath:    m.sm.PathOf(def.NameRange.Buffer),
			DefRange:    defRange,
			portLookup:  make(map[string]*PortInfo),
			paramLookup: make(map[string]*ParameterInfo),
		}
		for _, member := range def.Members {
			r, ok := m.sm.LSPRangeOf(member.NameRange)
			if !ok || member.Name == "" {
				continue
			}
			switch member.Kind {
			case compile.SymbolPort:
				info.Ports = append(info.Ports, PortInfo{Name: member.Name, DefRange: r})
			case compile.SymbolParameter:
				info.Parameters = append(info.Parameters, ParameterInfo{Name: member.Name, DefRange: r})
			}
		}
		for i := range info.Ports {
			info.portLookup[info.Ports[i].Name] = &info.Ports[i]
		}
		for i := range info.Parameters {
			info.paramLookup[info.Parameters[i].Name] = &info.Parameters[i]
		}
		m.modules = append(m.modules, info)
	}
	for i := range m.modules {
		m.modLookup[m.modules[i].Name] = &m.modules[i]
	}

	// Every named symbol an overlay might reference gets a precomputed LSP
	// location, converted through the preamble's own source manager.
	var walk func(s *compile.Symbol)
	walk = func(s *compile.Symbol) {
		if s.Name != "" && s.NameRange.IsValid() && s.NameRange.Buffer.IsValid() {
			if r, ok := m.sm.LSPRangeOf(s.NameRange); ok {
				path := m.sm.PathOf(s.NameRange.Buffer)
				if !path.IsZero() {
					m.symbolInfo[s] = SymbolInfo{FileURI: path.URI(), DefRange: r}
				}
			}
		}
		for _, child := range s.Members {
			walk(child)
		}
	}
	walk(m.comp.Root())
}

// Compilation returns the preamble compilation (read-only).
func (m *Manager) Compilation() *compile.Compilation { return m.comp }

// SourceManager returns the preamble's own source manager, used only for
// coordinate lookups.
func (m *Manager) SourceManager() *source.Manager { return m.sm }

// Version returns the preamble's monotonic version.
func (m *Manager) Version() uint64 { return m.version }

// LayoutVersion returns the layout snapshot version this preamble was
// built from.
func (m *Manager) LayoutVersion() uint64 { return m.layoutVersion }

// IncludeDirs returns the include directories the preamble compiled with.
func (m *Manager) IncludeDirs() []location.CanonicalPath { return m.includeDirs }

// Defines returns the macro defines the preamble compiled with.
func (m *Manager) Defines() []string { return m.defines }

// Packages returns package metadata, sorted by name.
func (m *Manager) Packages() []PackageInfo { return m.packages }

// Interfaces returns interface metadata, sorted by name.
func (m *Manager) Interfaces() []InterfaceInfo { return m.interfaces }

// Modules returns module metadata, sorted by name.
func (m *Manager) Modules() []ModuleInfo { return m.modules }

// Module returns the named module's metadata, or nil.
func (m *Manager) Module(name string) *ModuleInfo { return m.modLookup[name] }

// Package returns the preamble's package symbol for cross-compilation
// binding, or nil.
func (m *Manager) Package(name string) *compile.Symbol {
	return m.comp.Package(name)
}

// Definition returns the preamble's module/interface symbol, or nil.
func (m *Manager) Definition(name string) *compile.Symbol {
	return m.comp.Definition(name)
}

// IsPreambleSymbol reports whether the symbol belongs to this preamble's
// compilation.
func (m *Manager) IsPreambleSymbol(sym *compile.Symbol) bool {
	return m.comp.Owns(sym)
}

// GetSymbolInfo returns the precomputed location for a preamble symbol.
func (m *Manager) GetSymbolInfo(sym *compile.Symbol) (SymbolInfo, bool) {
	info, ok := m.symbolInfo[sym]
	return info, ok
}
