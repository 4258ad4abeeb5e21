package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/location"
	"github.com/svlsp/svlsp/source"
)

// build compiles the given files (path → content) and returns the
// compilation. All files share one source manager, as the preamble does.
func build(t *testing.T, files map[string]string) *Compilation {
	t.Helper()
	sm := source.NewManager()
	c := NewCompilation(sm, Options{LintMode: true, LanguageServerMode: true})
	for path, content := range files {
		id := sm.AssignText(location.New(path), content)
		c.ParseBuffer(id)
	}
	c.Elaborate()
	return c
}

func TestElaboratePackage(t *testing.T) {
	c := build(t, map[string]string{
		"/proj/pkg.sv": `
package config_pkg;
  parameter DATA_WIDTH = 32;
  typedef logic [DATA_WIDTH-1:0] word_t;
endpackage
`,
	})

	pkg := c.Package("config_pkg")
	require.NotNil(t, pkg)
	assert.Equal(t, SymbolPackage, pkg.Kind)

	param := pkg.Lookup("DATA_WIDTH")
	require.NotNil(t, param)
	assert.Equal(t, SymbolParameter, param.Kind)

	td := pkg.Lookup("word_t")
	require.NotNil(t, td)
	assert.Equal(t, SymbolTypedef, td.Kind)

	// Name ranges cover exactly the identifier.
	text := c.SourceManager().Text(td.NameRange.Buffer)
	assert.Equal(t, "word_t", text[td.NameRange.Start:td.NameRange.End])
}

func TestElaborateModulePortsAndParams(t *testing.T) {
	c := build(t, map[string]string{
		"/proj/alu.sv": `
module ALU #(parameter WIDTH = 8) (
  input logic [WIDTH-1:0] a_port,
  input logic [WIDTH-1:0] b_port,
  output logic [WIDTH-1:0] y_port
);
endmodule
`,
	})

	alu := c.Definition("ALU")
	require.NotNil(t, alu)
	assert.Equal(t, SymbolModule, alu.Kind)

	port := alu.Lookup("a_port")
	require.NotNil(t, port)
	assert.Equal(t, SymbolPort, port.Kind)

	param := alu.Lookup("WIDTH")
	require.NotNil(t, param)
	assert.Equal(t, SymbolParameter, param.Kind)
}

func TestNonANSIPortMerge(t *testing.T) {
	c := build(t, map[string]string{
		"/proj/legacy.sv": `
module legacy (a, y);
  input a;
  output y;
endmodule
`,
	})

	mod := c.Definition("legacy")
	require.NotNil(t, mod)
	a := mod.Lookup("a")
	require.NotNil(t, a)
	assert.Equal(t, SymbolPort, a.Kind)

	// The definition range moved to the body declarator, not the header
	// name list: "input a;" comes after the header.
	text := c.SourceManager().Text(a.NameRange.Buffer)
	assert.Equal(t, "a", text[a.NameRange.Start:a.NameRange.End])
	headerEnd := int64(len("\nmodule legacy (a, y);"))
	assert.Greater(t, int64(a.NameRange.Start), headerEnd)
}

func TestResolveNameThroughWildcardImport(t *testing.T) {
	c := build(t, map[string]string{
		"/proj/pkg.sv": `
package config_pkg;
  typedef logic [31:0] word_t;
endpackage
`,
		"/proj/use.sv": `
module m;
  import config_pkg::*;
  word_t r;
endmodule
`,
	})

	mod := c.Definition("m")
	require.NotNil(t, mod)

	got := c.ResolveName(mod, "word_t")
	require.NotNil(t, got)
	got = got.Unwrap()
	assert.Equal(t, SymbolTypedef, got.Kind)
	assert.Equal(t, c.Package("config_pkg"), got.Parent)

	// The variable's type was bound to the typedef.
	r := mod.Lookup("r")
	require.NotNil(t, r)
	assert.Equal(t, got, r.Type)
}

func TestResolveScoped(t *testing.T) {
	c := build(t, map[string]string{
		"/proj/pkg.sv": `
package p;
  parameter W = 8;
endpackage
`,
	})

	scopeSym, member := c.ResolveScoped(c.Root(), "p", "W")
	require.NotNil(t, scopeSym)
	assert.Equal(t, SymbolPackage, scopeSym.Kind)
	require.NotNil(t, member)
	assert.Equal(t, SymbolParameter, member.Kind)
}

func TestResolveMemberThroughType(t *testing.T) {
	c := build(t, map[string]string{
		"/proj/t.sv": `
package p;
  typedef struct packed {
    logic [7:0] addr;
  } req_t;
endpackage

module m;
  import p::*;
  req_t r;
endmodule
`,
	})

	mod := c.Definition("m")
	r := mod.Lookup("r")
	require.NotNil(t, r)

	addr := c.ResolveMember(r, "addr")
	require.NotNil(t, addr)
	assert.Equal(t, SymbolField, addr.Kind)
}

func TestEnumValuesVisibleInScope(t *testing.T) {
	c := build(t, map[string]string{
		"/proj/e.sv": `
package p;
  typedef enum logic [1:0] { IDLE, RUN } state_e;
endpackage
`,
	})

	pkg := c.Package("p")
	idle := pkg.Lookup("IDLE")
	require.NotNil(t, idle, "enum values are visible in the enclosing scope")
	assert.Equal(t, SymbolEnumValue, idle.Kind)

	// And under the typedef for member-style access.
	td := pkg.Lookup("state_e")
	assert.NotNil(t, td.Lookup("RUN"))
}

func TestUnknownModuleDiagnostic(t *testing.T) {
	c := build(t, map[string]string{
		"/proj/top.sv": `
module top;
  Missing u_missing (.clk(clk));
endmodule
`,
	})

	var found bool
	for _, d := range c.CollectedDiagnostics() {
		if d.Code == diag.CodeUnknownModule {
			found = true
		}
	}
	assert.True(t, found)
}

func TestUnknownModuleSuppressedByPreamble(t *testing.T) {
	pre := build(t, map[string]string{
		"/proj/alu.sv": "module ALU (input logic a_port); endmodule\n",
	})

	sm := source.NewManager()
	c := NewCompilation(sm, Options{LanguageServerMode: true})
	c.WithPreamble(testBinder{pre})
	id := sm.AssignText(location.New("/proj/top.sv"), `
module top;
  logic sig;
  ALU inst (.a_port(sig));
endmodule
`)
	c.ParseBuffer(id)
	c.Elaborate()

	for _, d := range c.CollectedDiagnostics() {
		assert.NotEqual(t, diag.CodeUnknownModule, d.Code,
			"preamble-known module must not be diagnosed")
	}

	// The instance bound to the preamble's definition symbol.
	top := c.Definition("top")
	inst := top.Lookup("inst")
	require.NotNil(t, inst)
	require.NotNil(t, inst.Type)
	assert.False(t, c.Owns(inst.Type), "definition belongs to the preamble compilation")
	assert.True(t, pre.Owns(inst.Type))
}

// testBinder adapts a Compilation into a PreambleBinder for tests.
type testBinder struct{ pre *Compilation }

func (b testBinder) Package(name string) *Symbol    { return b.pre.Package(name) }
func (b testBinder) Definition(name string) *Symbol { return b.pre.Definition(name) }

func TestDuplicatePackageDiagnosed(t *testing.T) {
	sm := source.NewManager()
	c := NewCompilation(sm, Options{})
	id1 := sm.AssignText(location.New("/proj/p1.sv"), "package p; parameter A = 1; endpackage\n")
	id2 := sm.AssignText(location.New("/proj/p2.sv"), "package p; parameter B = 2; endpackage\n")
	c.ParseBuffer(id1)
	c.ParseBuffer(id2)
	c.Elaborate()

	var found bool
	for _, d := range c.CollectedDiagnostics() {
		if d.Code == diag.CodeDuplicatePackage {
			found = true
		}
	}
	assert.True(t, found)

	// First declaration wins.
	pkg := c.Package("p")
	require.NotNil(t, pkg)
	assert.NotNil(t, pkg.Lookup("A"))
	assert.Nil(t, pkg.Lookup("B"))
}

func TestScopeAt(t *testing.T) {
	files := map[string]string{
		"/proj/s.sv": `module outer;
  function int f(input int x);
    return x;
  endfunction
endmodule
`,
	}
	c := build(t, files)

	sm := c.SourceManager()
	id, ok := sm.BufferFor(location.New("/proj/s.sv"))
	require.True(t, ok)

	text := sm.Text(id)
	inF := indexOf(t, text, "return x")
	scope := c.ScopeAt(id, inF)
	require.NotNil(t, scope)
	assert.Equal(t, SymbolFunction, scope.Kind)
	assert.Equal(t, "f", scope.Name)

	// The argument resolves from inside the function.
	x := c.ResolveName(scope, "x")
	require.NotNil(t, x)
	assert.Equal(t, SymbolArgument, x.Kind)
}

func indexOf(t *testing.T, text, sub string) int {
	t.Helper()
	for i := 0; i+len(sub) <= len(text); i++ {
		if text[i:i+len(sub)] == sub {
			return i
		}
	}
	t.Fatalf("substring %q not found", sub)
	return -1
}

func TestParseDiagnosticsSeparateFromSema(t *testing.T) {
	c := build(t, map[string]string{
		"/proj/bad.sv": "module m;\n  logic x\nendmodule\n",
	})

	parseOnly := c.ParseDiagnostics()
	assert.NotEmpty(t, parseOnly)

	// Applying the extraction twice gives identical lists.
	assert.Equal(t, parseOnly, c.ParseDiagnostics())
	assert.Equal(t, c.CollectedDiagnostics(), c.CollectedDiagnostics())
}

func TestSymbolIdentityStable(t *testing.T) {
	c := build(t, map[string]string{
		"/proj/pkg.sv": "package p; parameter W = 8; endpackage\n",
	})

	a := c.Package("p").Lookup("W")
	b := c.Package("p").Lookup("W")
	assert.Same(t, a, b)

	m := map[*Symbol]string{a: "w"}
	assert.Equal(t, "w", m[b])
}
