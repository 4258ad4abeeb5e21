// Package semantic builds the per-file index of definition and reference
// entries that answers go-to-definition and document-symbol requests, and
// converts compiler diagnostics to LSP form.
//
// The index is produced by one walk over the current file's syntax tree,
// resolving every name against the overlay compilation. Reference entries
// whose target lives in the preamble compilation are translated through the
// preamble's precomputed symbol-info table — never through the overlay's
// source manager, whose buffers know nothing about preamble files. A
// reference that cannot be translated is dropped and counted; indexing
// errors are internal, not user-visible.
//
// After construction the index is immutable: every query is a read over the
// entry vector.
package semantic
