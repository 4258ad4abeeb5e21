// Package location provides canonical file identity for the language server.
//
// # CanonicalPath
//
// CanonicalPath represents a canonicalized file system path that is always:
//   - Absolute (not relative)
//   - Clean (no . or .. segments)
//   - NFC-normalized (Unicode)
//   - Forward-slash normalized (uses "/" on all platforms)
//   - Symlink-resolved (best-effort)
//
// It is the single type used as a map key for files throughout the server:
// the project layout, the preamble tables, and the session cache all key on
// it. Construction is total — New and FromURI never fail, they return the
// zero value for unusable input — because a path that cannot be
// canonicalized still has to flow through the server without aborting an
// LSP request.
//
// CanonicalPath also owns the file:// URI conversion in both directions.
// FromURI percent-decodes and normalizes; URI percent-encodes. For paths
// that exist on the filesystem, FromURI(p.URI()) == p.
//
// # Dependencies
//
// This package depends only on the standard library and
// golang.org/x/text/unicode/norm (for NFC normalization). It does not import
// any other packages, enabling it to be imported by all other packages
// without cycles.
package location
