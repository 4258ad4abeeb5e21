// Package config models the .slangd workspace configuration file and the
// .f filelist format.
//
// The .slangd file is YAML. Parsing is tolerant: unknown keys are ignored,
// scalar-or-list fields accept both shapes, and a file that fails to parse
// leaves the previous configuration in effect (the caller decides; LoadFile
// just reports the error). Invalid filter regexes fail open — the filter
// admits everything — because a workspace with a broken config should still
// get language features.
package config
