// Package diag defines the compiler diagnostic model shared by the
// SystemVerilog frontend and the language server.
//
// A Diagnostic carries a stable Code, a Severity, a raw source range (byte
// offsets against the compilation's own source manager), a message, and
// optional hints. Diagnostics are accumulated in a Collector during parsing
// and binding; the language server's converter turns the collected set into
// LSP diagnostics, applying buffer filtering and severity mapping.
//
// Codes are stable names, not numbers: downstream filtering (suppressing
// UnknownModule for preamble-known modules, downgrading
// UnresolvedHierarchicalPath) matches on them.
package diag
