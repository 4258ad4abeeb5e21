// Package layout resolves the project layout: the normalized set of source
// files, include directories, and macro defines derived from the .slangd
// configuration and the filesystem.
//
// The Service produces immutable ProjectLayout values wrapped in versioned
// snapshots. Versions strictly increase across rebuilds; consumers tag
// derived data (the preamble, cached sessions) with the version they were
// built from and invalidate on mismatch.
//
// Discovery policy: explicit Files/FileLists in the config win; otherwise,
// when AutoDiscover is enabled, the workspace is scanned recursively for
// .sv/.svh/.v/.vh files. The optional If: filter applies to either result.
package layout
