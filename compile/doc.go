// Package compile builds symbol tables over parsed SystemVerilog trees and
// resolves names, in a form shaped for language-server queries rather than
// simulation.
//
// A Compilation owns the trees added to it, elaborates them into a tree of
// Symbols, and answers name-resolution questions for the semantic indexer.
// Elaboration is definition-scoped: instances are recorded but their bodies
// are not expanded, uninstantiated modules are still fully analyzed, and
// elaboration-only checks are suppressed — the behavior an editor wants
// while a design is mid-edit.
//
// Cross-compilation binding: a Compilation can be given a PreambleBinder.
// Package, module, and interface names that do not resolve locally are then
// looked up in the preamble, and the returned symbols belong to the
// *preamble's* compilation. Callers that convert symbol locations must check
// symbol ownership first; a preamble symbol's ranges are meaningless against
// an overlay's source manager.
//
// Symbol pointers are stable identities for the lifetime of the Compilation
// and are used as map keys by the preamble's symbol-info table.
package compile
