package layout

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/svlsp/svlsp/config"
	"github.com/svlsp/svlsp/location"
)

// debounceDelay coalesces a burst of filesystem changes into one rebuild.
const debounceDelay = 500 * time.Millisecond

// sourceExtensions are the file extensions workspace discovery picks up,
// compared case-insensitively.
var sourceExtensions = map[string]bool{
	".sv": true, ".svh": true, ".v": true, ".vh": true,
}

// IsSourceFile reports whether the path has a SystemVerilog source
// extension.
func IsSourceFile(p location.CanonicalPath) bool {
	return sourceExtensions[strings.ToLower(p.Ext())]
}

// Service loads the .slangd config and produces versioned layout
// snapshots. All state serializes on an internal mutex; accessors are safe
// from any goroutine.
type Service struct {
	mu sync.Mutex

	logger        *slog.Logger
	workspaceRoot location.CanonicalPath

	cfg     *config.SlangdConfig
	filter  *config.PathFilter
	layout  *ProjectLayout
	version uint64

	// onRebuild, when set, is invoked (without the lock) after every
	// rebuild with the fresh snapshot. Debounced rebuilds use it to reach
	// the language service.
	onRebuild func(Snapshot)

	debounce *time.Timer
}

// NewService creates a layout service rooted at the workspace directory.
// If logger is nil, slog.Default() is used.
func NewService(workspaceRoot location.CanonicalPath, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:        logger.With(slog.String("component", "layout")),
		workspaceRoot: workspaceRoot,
		cfg:           config.Default(),
		filter:        config.CompileFilter(config.Condition{}, logger),
	}
}

// WorkspaceRoot returns the root the service was created with.
func (s *Service) WorkspaceRoot() location.CanonicalPath { return s.workspaceRoot }

// SetRebuildHook installs the post-rebuild callback. Call before the first
// rebuild.
func (s *Service) SetRebuildHook(hook func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRebuild = hook
}

// ConfigPath returns the workspace's .slangd path.
func (s *Service) ConfigPath() location.CanonicalPath {
	p, err := s.workspaceRoot.Join(".slangd")
	if err != nil {
		return location.CanonicalPath{}
	}
	return p
}

// LoadConfig reads <root>/.slangd and rebuilds the layout. Returns whether
// a config file existed. A malformed file keeps the previous configuration.
func (s *Service) LoadConfig() bool {
	configPath := s.ConfigPath()

	cfg, err := config.LoadFile(configPath.OSPath())
	existed := cfg != nil

	s.mu.Lock()
	switch {
	case err != nil:
		// Keep the previous config; a broken edit must not drop features.
		s.logger.Warn("failed to parse .slangd; keeping previous configuration",
			slog.String("path", configPath.String()),
			slog.String("error", err.Error()),
		)
		existed = true
	case cfg == nil:
		s.logger.Debug("no .slangd found; using auto-discovery defaults",
			slog.String("root", s.workspaceRoot.String()),
		)
		s.cfg = config.Default()
		s.filter = config.CompileFilter(config.Condition{}, s.logger)
	default:
		s.cfg = cfg
		s.filter = config.CompileFilter(cfg.If, s.logger)
		s.logger.Info("loaded .slangd configuration",
			slog.String("path", configPath.String()),
			slog.Int("files", len(cfg.Files)),
			slog.Int("filelists", len(cfg.FileLists.Paths)),
			slog.Bool("auto_discover", cfg.AutoDiscoverEnabled()),
		)
	}
	snap := s.rebuildLocked()
	hook := s.onRebuild
	s.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
	return existed
}

// HandleConfigFileChange reloads when the changed path is this workspace's
// .slangd; other paths are ignored. Returns whether a reload happened.
func (s *Service) HandleConfigFileChange(path location.CanonicalPath) bool {
	if path != s.ConfigPath() {
		return false
	}
	s.LoadConfig()
	return true
}

// RebuildLayout recomputes the layout from the stored config, bumping the
// version.
func (s *Service) RebuildLayout() Snapshot {
	s.mu.Lock()
	snap := s.rebuildLocked()
	hook := s.onRebuild
	s.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
	return snap
}

// GetLayoutSnapshot returns the current snapshot, building the layout on
// first use.
func (s *Service) GetLayoutSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layout == nil {
		return s.rebuildLocked()
	}
	return Snapshot{Layout: s.layout, Version: s.version, Timestamp: time.Now()}
}

// SourceFiles returns the current layout's files.
func (s *Service) SourceFiles() []location.CanonicalPath {
	return s.GetLayoutSnapshot().Layout.Files()
}

// IncludeDirs returns the current layout's include directories.
func (s *Service) IncludeDirs() []location.CanonicalPath {
	return s.GetLayoutSnapshot().Layout.IncludeDirs()
}

// Defines returns the current layout's defines.
func (s *Service) Defines() []string {
	return s.GetLayoutSnapshot().Layout.Defines()
}

// ScheduleDebouncedRebuild coalesces a burst of filesystem change events
// into one rebuild after a quiet interval. No-op when auto-discovery is
// off: explicit file lists do not change with the filesystem.
func (s *Service) ScheduleDebouncedRebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.AutoDiscoverEnabled() {
		return
	}
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(debounceDelay, func() {
		s.RebuildLayout()
	})
}

// Close stops any pending debounced rebuild.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

// rebuildLocked runs discovery under the lock and returns the new snapshot.
func (s *Service) rebuildLocked() Snapshot {
	start := time.Now()

	var files []location.CanonicalPath
	if s.cfg.HasExplicitSources() {
		files = s.filelistDiscovery()
	} else if s.cfg.AutoDiscoverEnabled() {
		files = s.workspaceDiscovery()
	}
	files = s.applyFilter(files)
	files = dedupePaths(files)

	includeDirs := make([]location.CanonicalPath, 0, len(s.cfg.IncludeDirs)+1)
	for _, dir := range s.cfg.IncludeDirs {
		resolved := s.resolveAgainstRoot(dir)
		if !resolved.IsZero() {
			includeDirs = append(includeDirs, resolved)
		}
	}
	if len(includeDirs) == 0 {
		// Without configuration the workspace root serves as the include
		// root, so `include "common/defs.svh" works out of the box.
		includeDirs = append(includeDirs, s.workspaceRoot)
	}

	s.layout = NewProjectLayout(files, includeDirs, s.cfg.Defines)
	s.version++

	s.logger.Info("rebuilt project layout",
		slog.Uint64("version", s.version),
		slog.Int("files", len(files)),
		slog.Int("include_dirs", len(includeDirs)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return Snapshot{Layout: s.layout, Version: s.version, Timestamp: time.Now()}
}

// filelistDiscovery collects explicit files plus filelist contents.
func (s *Service) filelistDiscovery() []location.CanonicalPath {
	var files []location.CanonicalPath

	for _, f := range s.cfg.Files {
		resolved := s.resolveAgainstRoot(f)
		if !resolved.IsZero() {
			files = append(files, resolved)
		}
	}

	for _, listPath := range s.cfg.FileLists.Paths {
		resolved := s.resolveAgainstRoot(listPath)
		if resolved.IsZero() {
			continue
		}
		entries, err := config.ReadFilelist(resolved, s.cfg.FileLists.Absolute)
		if err != nil {
			s.logger.Warn("failed to read filelist",
				slog.String("path", resolved.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		files = append(files, entries...)
	}
	return files
}

// workspaceDiscovery recursively scans the workspace root for source files.
func (s *Service) workspaceDiscovery() []location.CanonicalPath {
	var files []location.CanonicalPath

	root := s.workspaceRoot.OSPath()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Debug("skipping unreadable path during discovery",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			// Hidden directories (.git, .cache) are never source trees.
			name := d.Name()
			if name != "." && strings.HasPrefix(name, ".") && path != root {
				return fs.SkipDir
			}
			return nil
		}
		cp := location.New(path)
		if IsSourceFile(cp) {
			files = append(files, cp)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		s.logger.Warn("workspace discovery failed",
			slog.String("root", root),
			slog.String("error", err.Error()),
		)
	}
	return files
}

// applyFilter runs the If: path filter over the discovered set.
func (s *Service) applyFilter(files []location.CanonicalPath) []location.CanonicalPath {
	if s.filter.Empty() {
		return files
	}
	out := files[:0]
	for _, f := range files {
		if s.filter.Includes(f.String()) {
			out = append(out, f)
		}
	}
	return out
}

// resolveAgainstRoot turns a config-relative path into a canonical path.
func (s *Service) resolveAgainstRoot(p string) location.CanonicalPath {
	if filepath.IsAbs(p) {
		return location.New(p)
	}
	joined, err := s.workspaceRoot.Join(p)
	if err != nil {
		return location.CanonicalPath{}
	}
	return joined
}

// dedupePaths removes duplicates and sorts the result by path string, so two
// rebuilds over unchanged inputs produce equal file sets.
func dedupePaths(files []location.CanonicalPath) []location.CanonicalPath {
	seen := make(map[location.CanonicalPath]bool, len(files))
	out := files[:0]
	for _, f := range files {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
