package syntax

import (
	"strings"

	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/location"
	"github.com/svlsp/svlsp/source"
)

// PreprocessorOptions configures directive handling.
type PreprocessorOptions struct {
	// IncludeDirs are searched, in order, for `include targets. The
	// including file's own directory is searched first.
	IncludeDirs []location.CanonicalPath

	// Defines are command-line style NAME or NAME=value macro definitions
	// applied before the first token is read.
	Defines []string
}

// macro is one `define entry. Function-like macros are only flagged as such
// (their formals are not recorded) and expand body tokens verbatim; the
// server's subset never needs argument substitution to find names.
type macro struct {
	body     []Token
	function bool
}

// maxIncludeDepth bounds `include nesting to keep recursive includes from
// running away.
const maxIncludeDepth = 32

// ignoredDirectives are standard directives that carry no information the
// server needs. Each is consumed silently together with the rest of its line.
var ignoredDirectives = map[string]bool{
	"timescale":           true,
	"default_nettype":     true,
	"resetall":            true,
	"celldefine":          true,
	"endcelldefine":       true,
	"line":                true,
	"pragma":              true,
	"undefineall":         true,
	"begin_keywords":      true,
	"end_keywords":        true,
	"unconnected_drive":   true,
	"nounconnected_drive": true,
}

// preprocessor expands directives over a stack of lexers and yields the
// final token stream to the parser.
type preprocessor struct {
	sm    *source.Manager
	opts  PreprocessorOptions
	diags *diag.Collector

	stack  []*lexer
	macros map[string]macro

	// pending holds expanded macro tokens awaiting delivery.
	pending []Token

	// conditional stack for `ifdef nesting: each frame records whether the
	// current branch is live and whether any branch of the frame has been
	// taken yet.
	conds []condFrame
}

type condFrame struct {
	live  bool
	taken bool
}

func newPreprocessor(sm *source.Manager, main source.BufferID, opts PreprocessorOptions, diags *diag.Collector) *preprocessor {
	p := &preprocessor{
		sm:     sm,
		opts:   opts,
		diags:  diags,
		macros: make(map[string]macro),
	}
	for _, def := range opts.Defines {
		name, value, _ := strings.Cut(def, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var body []Token
		if value != "" {
			lx := newLexer(main, value, diags)
			for {
				tok := lx.next()
				if tok.Kind == TokenEOF {
					break
				}
				// Command-line macro bodies have no buffer of their own;
				// point their ranges at offset zero of the main buffer so
				// every emitted token still has a valid range.
				tok.Range = source.Range{Buffer: main, Start: 0, End: 0}
				body = append(body, tok)
			}
		}
		p.macros[name] = macro{body: body}
	}
	p.stack = []*lexer{newLexer(main, sm.Text(main), diags)}
	return p
}

// next returns the next post-preprocessing token.
func (p *preprocessor) next() Token {
	for {
		if len(p.pending) > 0 {
			tok := p.pending[0]
			p.pending = p.pending[1:]
			return tok
		}

		lx := p.stack[len(p.stack)-1]
		tok := lx.next()

		if tok.Kind == TokenEOF {
			if len(p.stack) > 1 {
				p.stack = p.stack[:len(p.stack)-1]
				continue
			}
			return tok
		}

		if tok.Kind == TokenDirective {
			p.directive(lx, tok)
			continue
		}

		if p.skipping() {
			continue
		}

		return tok
	}
}

func (p *preprocessor) skipping() bool {
	for _, f := range p.conds {
		if !f.live {
			return true
		}
	}
	return false
}

// directive interprets one ` directive.
func (p *preprocessor) directive(lx *lexer, tok Token) {
	switch tok.Text {
	case "ifdef", "ifndef":
		name := lx.next()
		defined := false
		if name.Kind == TokenIdent || name.Kind == TokenKeyword {
			_, defined = p.macros[name.Text]
		}
		live := defined
		if tok.Text == "ifndef" {
			live = !defined
		}
		live = live && !p.skipping()
		p.conds = append(p.conds, condFrame{live: live, taken: live})

	case "elsif":
		name := lx.next()
		if len(p.conds) == 0 {
			return
		}
		f := &p.conds[len(p.conds)-1]
		if f.taken {
			f.live = false
			return
		}
		defined := false
		if name.Kind == TokenIdent || name.Kind == TokenKeyword {
			_, defined = p.macros[name.Text]
		}
		f.live = defined
		f.taken = f.taken || defined

	case "else":
		if len(p.conds) == 0 {
			return
		}
		f := &p.conds[len(p.conds)-1]
		f.live = !f.taken
		f.taken = true

	case "endif":
		if len(p.conds) > 0 {
			p.conds = p.conds[:len(p.conds)-1]
		}

	case "define":
		p.define(lx)

	case "undef":
		name := lx.next()
		if !p.skipping() && (name.Kind == TokenIdent || name.Kind == TokenKeyword) {
			delete(p.macros, name.Text)
		}

	case "include":
		if p.skipping() {
			lx.restOfLine()
			return
		}
		p.include(lx, tok)

	default:
		if ignoredDirectives[tok.Text] {
			lx.restOfLine()
			return
		}
		if p.skipping() {
			return
		}
		if m, ok := p.macros[tok.Text]; ok {
			p.expand(lx, tok, m)
			return
		}
		p.diags.Add(diag.Diagnostic{
			Code:     diag.CodeUnknownDirective,
			Severity: diag.SeverityError,
			Range:    tok.Range,
			Message:  "unknown macro or compiler directive '`" + tok.Text + "'",
		})
	}
}

// define records a macro. The body is the rest of the line (with
// continuations), re-lexed into tokens for later splicing.
func (p *preprocessor) define(lx *lexer) {
	name := lx.next()
	if name.Kind != TokenIdent && name.Kind != TokenKeyword {
		lx.restOfLine()
		return
	}

	fn := false
	// A '(' immediately after the name (no whitespace) makes the macro
	// function-like. The lexer has already skipped trivia, so peek at the
	// raw text instead.
	if name.Range.End < len(lx.text) && lx.text[name.Range.End] == '(' {
		fn = true
		// Consume the formal list up to the closing paren.
		depth := 0
		for {
			t := lx.next()
			if t.Kind == TokenEOF {
				break
			}
			if t.Is("(") {
				depth++
			}
			if t.Is(")") {
				depth--
				if depth == 0 {
					break
				}
			}
		}
	}

	_, bodyRange := lx.restOfLine()
	if p.skipping() {
		return
	}

	// Re-lex the raw body slice in place so the body tokens keep their
	// original offsets; the lexer treats backslash-newline as a
	// continuation, not a token.
	var body []Token
	blx := newLexer(bodyRange.Buffer, lx.text[:bodyRange.End], p.diags)
	blx.pos = bodyRange.Start
	for {
		t := blx.next()
		if t.Kind == TokenEOF {
			break
		}
		body = append(body, t)
	}
	p.macros[name.Text] = macro{body: body, function: fn}
}

// expand splices a macro body into the stream. For function-like macros the
// actual-argument list is consumed and dropped.
func (p *preprocessor) expand(lx *lexer, _ Token, m macro) {
	if m.function {
		save := lx.pos
		t := lx.next()
		if t.Is("(") {
			depth := 1
			for depth > 0 {
				t = lx.next()
				if t.Kind == TokenEOF {
					break
				}
				if t.Is("(") {
					depth++
				}
				if t.Is(")") {
					depth--
				}
			}
		} else {
			lx.pos = save
		}
	}
	p.pending = append(p.pending, m.body...)
}

// include resolves and pushes an include file.
func (p *preprocessor) include(lx *lexer, directive Token) {
	arg := lx.next()
	var target string
	var argRange source.Range
	switch {
	case arg.Kind == TokenString && len(arg.Text) >= 2:
		target = arg.Text[1 : len(arg.Text)-1]
		argRange = arg.Range
	case arg.Is("<"):
		// <system/header.svh> form: collect raw text to '>'.
		start := lx.pos
		for lx.pos < len(lx.text) && lx.text[lx.pos] != '>' && lx.text[lx.pos] != '\n' {
			lx.pos++
		}
		target = lx.text[start:lx.pos]
		if lx.pos < len(lx.text) && lx.text[lx.pos] == '>' {
			lx.pos++
		}
		argRange = source.Range{Buffer: lx.buffer, Start: arg.Range.Start, End: lx.pos}
	default:
		p.diags.Addf(diag.CodeExpectedToken, diag.SeverityError, directive.Range,
			"expected a file name after `include")
		return
	}

	if len(p.stack) >= maxIncludeDepth {
		p.diags.Addf(diag.CodeCouldNotOpenIncludeFile, diag.SeverityError, argRange,
			"include depth limit exceeded at '"+target+"'")
		return
	}

	path := p.resolveInclude(lx.buffer, target)
	if path.IsZero() {
		p.diags.Add(diag.Diagnostic{
			Code:     diag.CodeCouldNotOpenIncludeFile,
			Severity: diag.SeverityError,
			Range:    argRange,
			Message:  "could not open include file '" + target + "'",
		})
		return
	}

	id, ok := p.sm.BufferFor(path)
	if !ok {
		var err error
		id, err = p.sm.ReadFile(path)
		if err != nil {
			p.diags.Add(diag.Diagnostic{
				Code:     diag.CodeCouldNotOpenIncludeFile,
				Severity: diag.SeverityError,
				Range:    argRange,
				Message:  "could not open include file '" + target + "'",
			})
			return
		}
	}
	p.stack = append(p.stack, newLexer(id, p.sm.Text(id), p.diags))
}

// resolveInclude searches the including file's directory, then the
// configured include directories.
func (p *preprocessor) resolveInclude(from source.BufferID, target string) location.CanonicalPath {
	// Absolute include targets bypass the search path.
	if strings.HasPrefix(target, "/") {
		if abs := location.New(target); abs.Exists() {
			return abs
		}
		return location.CanonicalPath{}
	}

	dirs := make([]location.CanonicalPath, 0, len(p.opts.IncludeDirs)+1)
	if fromPath := p.sm.PathOf(from); !fromPath.IsZero() {
		dirs = append(dirs, fromPath.Dir())
	}
	dirs = append(dirs, p.opts.IncludeDirs...)

	for _, dir := range dirs {
		candidate, err := dir.Join(target)
		if err != nil || candidate.IsZero() {
			continue
		}
		if candidate.Exists() {
			return location.New(candidate.String())
		}
	}
	return location.CanonicalPath{}
}
