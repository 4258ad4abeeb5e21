package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/location"
	"github.com/svlsp/svlsp/semantic"
	"github.com/svlsp/svlsp/source"
)

func buildSingle(t *testing.T, content string) (*compile.Compilation, source.BufferID) {
	t.Helper()
	sm := source.NewManager()
	c := compile.NewCompilation(sm, compile.Options{LanguageServerMode: true})
	id := sm.AssignText(location.New("/virtual/diag.sv"), content)
	c.ParseBuffer(id)
	c.Elaborate()
	return c, id
}

func TestParseDiagnosticsConverted(t *testing.T) {
	c, id := buildSingle(t, "module m;\n  logic x\nendmodule\n")

	diags := semantic.ExtractParseDiagnostics(c, id)
	require.NotEmpty(t, diags)
	first := diags[0]
	require.NotNil(t, first.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *first.Severity)
	require.NotNil(t, first.Source)
	assert.Equal(t, "svlsp", *first.Source)
}

func TestMainBufferFilter(t *testing.T) {
	sm := source.NewManager()
	c := compile.NewCompilation(sm, compile.Options{})
	good := sm.AssignText(location.New("/virtual/good.sv"), "module g; endmodule\n")
	bad := sm.AssignText(location.New("/virtual/bad.sv"), "module b\nendmodule\n")
	c.ParseBuffer(good)
	c.ParseBuffer(bad)
	c.Elaborate()

	assert.Empty(t, semantic.ExtractParseDiagnostics(c, good),
		"diagnostics from the sibling buffer are filtered out")
	assert.NotEmpty(t, semantic.ExtractParseDiagnostics(c, bad))
}

func TestHierarchicalPathDowngradedToHint(t *testing.T) {
	content := `module m;
  logic v;
  initial v = some_inst.deep.signal;
endmodule
`
	f := newFixture(t, nil, "hier.sv", content)

	diags := semantic.ExtractCollectedDiagnostics(f.session.Compilation(), f.session.MainBufferID(), f.pre)
	for _, d := range diags {
		if d.Code != nil && d.Code.Value == string("UnresolvedHierarchicalPath") {
			require.NotNil(t, d.Severity)
			assert.Equal(t, protocol.DiagnosticSeverityHint, *d.Severity)
		}
	}
}

func TestIncludeMissGetsConfigHint(t *testing.T) {
	c, id := buildSingle(t, "`include \"missing.svh\"\nmodule m; endmodule\n")

	diags := semantic.ExtractParseDiagnostics(c, id)
	require.NotEmpty(t, diags)
	found := false
	for _, d := range diags {
		if d.Code != nil && d.Code.Value == "CouldNotOpenIncludeFile" {
			found = true
			assert.Contains(t, d.Message, ".slangd")
		}
	}
	assert.True(t, found)
}

func TestUnknownDirectiveGetsConfigHint(t *testing.T) {
	c, id := buildSingle(t, "`MYSTERY_MACRO\nmodule m; endmodule\n")

	diags := semantic.ExtractParseDiagnostics(c, id)
	found := false
	for _, d := range diags {
		if d.Code != nil && d.Code.Value == "UnknownDirective" {
			found = true
			assert.Contains(t, d.Message, ".slangd")
		}
	}
	assert.True(t, found)
}

func TestConversionIdempotent(t *testing.T) {
	c, id := buildSingle(t, "module m;\n  logic x\nendmodule\n")

	first := semantic.ExtractParseDiagnostics(c, id)
	second := semantic.ExtractParseDiagnostics(c, id)
	assert.Equal(t, first, second)

	all1 := semantic.ExtractCollectedDiagnostics(c, id, nil)
	all2 := semantic.ExtractCollectedDiagnostics(c, id, nil)
	assert.Equal(t, all1, all2)
}

func TestUnknownModuleSuppressionViaPreamble(t *testing.T) {
	// Build a preamble that knows ALU, then an overlay compiled WITHOUT
	// the preamble binder (single-file mode): the compiler reports
	// UnknownModule, the converter suppresses it because the preamble
	// knows the definition.
	f := newFixture(t, map[string]string{"alu.sv": "module ALU; endmodule\n"}, "unused.sv", "module unused; endmodule\n")

	c, id := buildSingle(t, "module top;\n  ALU inst ();\nendmodule\n")

	withSuppression := semantic.ExtractCollectedDiagnostics(c, id, f.pre)
	for _, d := range withSuppression {
		if d.Code != nil {
			assert.NotEqual(t, "UnknownModule", d.Code.Value)
		}
	}

	bare := semantic.ExtractCollectedDiagnostics(c, id, nil)
	found := false
	for _, d := range bare {
		if d.Code != nil && d.Code.Value == "UnknownModule" {
			found = true
		}
	}
	assert.True(t, found, "without the preamble the diagnostic stays")
}
