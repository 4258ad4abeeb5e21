// Package syntax implements the SystemVerilog lexer, preprocessor, and
// parser used by the language server.
//
// The parser is error-tolerant: it always produces a syntax tree, recording
// problems as diagnostics rather than returning Go errors. Every named
// construct in the tree records the range of its *name token* separately from
// the range of the whole construct, which is what the semantic indexer needs
// to produce precise definition and reference ranges.
//
// The preprocessor handles `include (resolved against configured include
// directories), `define/`undef, `ifdef/`ifndef/`elsif/`else/`endif, and
// object-like macro expansion. Include misses and unknown directives become
// diagnostics with stable codes.
//
// The grammar covered is the subset of IEEE 1800 the server indexes: design
// element declarations, data and net declarations, typedefs and enums and
// structs, functions and tasks, generate constructs, instantiations, modports,
// imports, and the expression forms that can carry symbol references.
package syntax
