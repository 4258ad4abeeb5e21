// Package source provides text buffer management and coordinate conversion
// for the SystemVerilog frontend.
//
// A Manager owns a set of text buffers, each identified by a BufferID. Raw
// locations (Loc, Range) are byte offsets into a specific buffer and are only
// meaningful against the Manager that minted them. BufferIDs are unique
// process-wide, so looking up a location against the wrong Manager fails
// cleanly instead of producing coordinates in an unrelated file.
//
// The Manager also performs the conversion from byte offsets to LSP
// coordinates: zero-based lines and UTF-16 code-unit columns, with ranges
// half-open [start, end). Both directions are supported; the LSP→byte
// direction floors positions that land inside a surrogate pair to the start
// of the rune.
package source
