package semantic

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/preamble"
	"github.com/svlsp/svlsp/source"
)

// DiagnosticConverter turns compiler diagnostics into LSP form. Stateless;
// both extraction methods are free functions over a compilation.
//
// Filtering rules:
//   - diagnostics outside the main buffer are dropped (one BufferID compare);
//   - informational task output is dropped;
//   - UnresolvedHierarchicalPath downgrades to hint severity;
//   - CouldNotOpenIncludeFile and UnknownDirective gain a hint pointing at
//     .slangd configuration;
//   - UnknownModule is suppressed when the preamble knows the definition
//     but it was deliberately not linked into this compilation.

// ExtractParseDiagnostics converts parse-only diagnostics (no elaboration).
func ExtractParseDiagnostics(comp *compile.Compilation, mainBuffer source.BufferID) []protocol.Diagnostic {
	return convert(comp.ParseDiagnostics(), comp.SourceManager(), mainBuffer, nil)
}

// ExtractCollectedDiagnostics converts everything accumulated by parsing,
// binding, and semantic indexing. pre, when non-nil, suppresses
// false-positive UnknownModule findings for modules the preamble knows.
func ExtractCollectedDiagnostics(comp *compile.Compilation, mainBuffer source.BufferID, pre *preamble.Manager) []protocol.Diagnostic {
	return convert(comp.CollectedDiagnostics(), comp.SourceManager(), mainBuffer, pre)
}

func convert(diags []diag.Diagnostic, sm *source.Manager, mainBuffer source.BufferID, pre *preamble.Manager) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	src := "svlsp"

	for _, d := range diags {
		// O(1) main-buffer filter.
		if d.Range.Buffer != mainBuffer {
			continue
		}
		if d.Code == diag.CodeInfoTask {
			continue
		}
		if d.Code == diag.CodeUnknownModule && pre != nil {
			if name := moduleNameFromMessage(d.Message); name != "" && pre.Definition(name) != nil {
				continue
			}
		}

		r, ok := sm.LSPRangeOf(d.Range)
		if !ok {
			continue
		}

		severity := mapSeverity(d.Severity)
		message := d.Message

		switch d.Code {
		case diag.CodeUnresolvedHierarchicalPath:
			severity = protocol.DiagnosticSeverityHint
		case diag.CodeCouldNotOpenIncludeFile:
			message += "; add the directory to IncludeDirs in .slangd"
		case diag.CodeUnknownDirective:
			message += "; define it in Defines in .slangd if it is a macro"
		}
		for _, hint := range d.Hints {
			message += "; " + hint
		}

		code := string(d.Code)
		out = append(out, protocol.Diagnostic{
			Range:    toProtocolRange(r),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: code},
			Source:   &src,
			Message:  message,
		})
	}
	return out
}

// mapSeverity maps compiler severities onto the LSP scale.
func mapSeverity(s diag.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diag.SeverityIgnored:
		return protocol.DiagnosticSeverityHint
	case diag.SeverityNote:
		return protocol.DiagnosticSeverityInformation
	case diag.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case diag.SeverityError, diag.SeverityFatal:
		return protocol.DiagnosticSeverityError
	default:
		return protocol.DiagnosticSeverityError
	}
}

// moduleNameFromMessage recovers the module name from an UnknownModule
// message ("unknown module 'X'").
func moduleNameFromMessage(msg string) string {
	start := -1
	for i := 0; i < len(msg); i++ {
		if msg[i] == '\'' {
			if start < 0 {
				start = i + 1
			} else {
				return msg[start:i]
			}
		}
	}
	return ""
}
