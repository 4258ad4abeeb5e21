package diag

// Code is a stable diagnostic identifier. Codes are part of the server's
// behavioral contract: the diagnostic converter filters, downgrades, and
// rewrites specific codes by name.
type Code string

// Parser and preprocessor codes.
const (
	CodeExpectedToken      Code = "ExpectedToken"
	CodeUnexpectedToken    Code = "UnexpectedToken"
	CodeExpectedIdentifier Code = "ExpectedIdentifier"
	CodeUnclosedBlock      Code = "UnclosedBlock"
	CodeUnterminatedString Code = "UnterminatedString"

	// CodeCouldNotOpenIncludeFile is emitted when a `include target cannot
	// be resolved against the include directories. The converter appends a
	// hint pointing at .slangd configuration.
	CodeCouldNotOpenIncludeFile Code = "CouldNotOpenIncludeFile"

	// CodeUnknownDirective is emitted for an unrecognized ` directive. The
	// converter appends a .slangd configuration hint (undefined macros are
	// the common cause).
	CodeUnknownDirective Code = "UnknownDirective"
)

// Binding and elaboration codes.
const (
	// CodeUnknownModule is emitted when an instantiation names a module or
	// interface that no compilation knows. The converter suppresses it when
	// the preamble knows the definition but it was deliberately not linked
	// into the overlay.
	CodeUnknownModule Code = "UnknownModule"

	// CodeUnknownPackage is emitted for imports of unknown packages.
	CodeUnknownPackage Code = "UnknownPackage"

	// CodeUndeclaredIdentifier is emitted when a simple name fails to
	// resolve in lexical scope.
	CodeUndeclaredIdentifier Code = "UndeclaredIdentifier"

	// CodeUnresolvedHierarchicalPath is emitted when a hierarchical
	// reference cannot be followed. The converter downgrades it to hint
	// severity: without full elaboration the server cannot see through
	// every instance boundary.
	CodeUnresolvedHierarchicalPath Code = "UnresolvedHierarchicalPath"

	// CodeDuplicateDeclaration is emitted when a name is declared twice in
	// one scope.
	CodeDuplicateDeclaration Code = "DuplicateDeclaration"

	// CodeDuplicatePackage is emitted when two files in the layout declare
	// packages with the same name. Binding is first-wins.
	CodeDuplicatePackage Code = "DuplicatePackage"

	// CodeInfoTask is the informational $info/$display elaboration task
	// output. The converter drops it.
	CodeInfoTask Code = "InfoTask"
)
