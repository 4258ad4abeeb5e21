package config

import (
	"log/slog"
	"regexp"
)

// PathFilter is the compiled If: condition. The zero value admits
// everything.
type PathFilter struct {
	match   []*regexp.Regexp
	exclude []*regexp.Regexp

	// broken is set when any pattern failed to compile; the filter then
	// fails open and admits everything.
	broken bool
}

// CompileFilter compiles the condition's patterns. Invalid regexes are
// logged and make the filter fail open.
func CompileFilter(cond Condition, logger *slog.Logger) *PathFilter {
	if logger == nil {
		logger = slog.Default()
	}

	f := &PathFilter{}
	for _, pat := range cond.PathMatch {
		re, err := regexp.Compile(pat)
		if err != nil {
			logger.Warn("invalid PathMatch pattern; including all files",
				slog.String("pattern", pat),
				slog.String("error", err.Error()),
			)
			f.broken = true
			continue
		}
		f.match = append(f.match, re)
	}
	for _, pat := range cond.PathExclude {
		re, err := regexp.Compile(pat)
		if err != nil {
			logger.Warn("invalid PathExclude pattern; including all files",
				slog.String("pattern", pat),
				slog.String("error", err.Error()),
			)
			f.broken = true
			continue
		}
		f.exclude = append(f.exclude, re)
	}
	return f
}

// Empty reports whether the filter has no effect.
func (f *PathFilter) Empty() bool {
	return f == nil || f.broken || (len(f.match) == 0 && len(f.exclude) == 0)
}

// Includes reports whether the path passes the filter: (no match patterns
// OR some match pattern matches) AND no exclude pattern matches. A broken
// filter includes everything.
func (f *PathFilter) Includes(path string) bool {
	if f == nil || f.broken {
		return true
	}
	if len(f.match) > 0 {
		matched := false
		for _, re := range f.match {
			if re.MatchString(path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range f.exclude {
		if re.MatchString(path) {
			return false
		}
	}
	return true
}
