package syntax

import "github.com/svlsp/svlsp/source"

// Kind classifies a token.
type Kind int

const (
	// TokenEOF marks the end of the token stream.
	TokenEOF Kind = iota

	// TokenIdent is a simple or escaped identifier.
	TokenIdent

	// TokenSystemIdent is a $-prefixed system identifier ($display, $bits).
	TokenSystemIdent

	// TokenNumber is any integer, based, or real literal.
	TokenNumber

	// TokenString is a string literal.
	TokenString

	// TokenKeyword is a reserved word; Text holds which one.
	TokenKeyword

	// TokenOp is an operator or punctuation; Text holds the exact spelling.
	TokenOp

	// TokenDirective is a `-prefixed directive name (without the backtick).
	// Only the preprocessor sees these; they never reach the parser.
	TokenDirective
)

// Token is one lexical token. Range covers the token's source text in the
// buffer it was lexed from, which is not necessarily the main buffer once
// includes are expanded.
type Token struct {
	Kind  Kind
	Text  string
	Range source.Range
}

// Is reports whether the token is an operator or keyword with the given text.
func (t Token) Is(text string) bool {
	return (t.Kind == TokenOp || t.Kind == TokenKeyword) && t.Text == text
}

// IsKeyword reports whether the token is the given keyword.
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == TokenKeyword && t.Text == kw
}

// keywords is the reserved-word set for the covered subset. Words outside
// this set lex as identifiers, which keeps the parser tolerant of constructs
// it does not model.
var keywords = map[string]bool{
	"module": true, "endmodule": true,
	"interface": true, "endinterface": true,
	"package": true, "endpackage": true,
	"program": true, "endprogram": true,
	"class": true, "endclass": true,
	"function": true, "endfunction": true,
	"task": true, "endtask": true,
	"begin": true, "end": true,
	"generate": true, "endgenerate": true,
	"genvar": true,
	"if":     true, "else": true, "for": true, "foreach": true,
	"while": true, "do": true, "repeat": true, "forever": true,
	"case": true, "casex": true, "casez": true, "endcase": true, "default": true,
	"typedef": true, "enum": true, "struct": true, "union": true, "packed": true,
	"parameter": true, "localparam": true, "defparam": true,
	"input": true, "output": true, "inout": true, "ref": true,
	"logic": true, "wire": true, "reg": true, "bit": true, "byte": true,
	"shortint": true, "int": true, "longint": true, "integer": true, "time": true,
	"real": true, "shortreal": true, "realtime": true, "string": true,
	"chandle": true, "event": true, "void": true,
	"signed": true, "unsigned": true,
	"tri": true, "triand": true, "trior": true, "tri0": true, "tri1": true,
	"supply0": true, "supply1": true, "wand": true, "wor": true, "uwire": true,
	"assign": true, "deassign": true,
	"initial": true, "final": true,
	"always": true, "always_comb": true, "always_ff": true, "always_latch": true,
	"posedge": true, "negedge": true, "edge": true,
	"import": true, "export": true,
	"modport": true,
	"extends": true, "implements": true, "virtual": true, "pure": true,
	"extern": true, "static": true, "automatic": true, "const": true,
	"local": true, "protected": true,
	"new": true, "this": true, "super": true, "null": true,
	"return": true, "break": true, "continue": true,
	"unique": true, "unique0": true, "priority": true,
	"timeunit": true, "timeprecision": true,
	"var": true, "type": true,
	"wait": true, "disable": true, "fork": true, "join": true,
	"join_any": true, "join_none": true,
	"assert": true, "assume": true, "cover": true, "property": true,
	"endproperty": true, "sequence": true, "endsequence": true,
}

// isKeyword reports whether s is reserved.
func isKeyword(s string) bool {
	return keywords[s]
}

// operators lists multi-character operators longest-first so the lexer can
// use greedy matching. Single characters fall through to a direct match.
var operators = []string{
	"<<<=", ">>>=",
	"===", "!==", "==?", "!=?", "<<<", ">>>", "<->", "->>",
	"<<=", ">>=", "**=",
	"==", "!=", "<=", ">=", "&&", "||", "<<", ">>", "**",
	"++", "--", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"::", "->", "+:", "-:", "##",
	"'{",
}

// singleOps is the set of valid single-character operators and punctuation.
const singleOps = "+-*/%&|^~!<>=?:;,.()[]{}#@'$"
