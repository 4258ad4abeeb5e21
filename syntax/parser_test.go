package syntax

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlsp/svlsp/diag"
	"github.com/svlsp/svlsp/location"
	"github.com/svlsp/svlsp/source"
)

// parseText is the common test helper: parse content as a standalone buffer.
func parseText(t *testing.T, content string) (*Tree, *source.Manager, *diag.Collector) {
	t.Helper()
	sm := source.NewManager()
	id := sm.AssignText(location.New("/virtual/test.sv"), content)
	diags := diag.NewCollector()
	tree := Parse(sm, id, PreprocessorOptions{}, diags)
	require.NotNil(t, tree)
	require.NotNil(t, tree.File)
	return tree, sm, diags
}

func findItem[T Item](items []Item) (T, bool) {
	for _, it := range items {
		if v, ok := it.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestParseEmptyFile(t *testing.T) {
	tree, _, diags := parseText(t, "")
	assert.Empty(t, tree.File.Items)
	assert.Equal(t, 0, diags.Len())
}

func TestParseModuleHeader(t *testing.T) {
	tree, sm, diags := parseText(t, `
module counter #(
  parameter WIDTH = 8,
  parameter int DEPTH = 4
) (
  input logic clk,
  input logic rst_n,
  output logic [7:0] count
);
endmodule : counter
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, ok := findItem[*ModuleDecl](tree.File.Items)
	require.True(t, ok)
	assert.Equal(t, "module", mod.Kind)
	assert.Equal(t, "counter", mod.Name.Name)
	require.NotNil(t, mod.EndLabel)
	assert.Equal(t, "counter", mod.EndLabel.Name)

	require.Len(t, mod.ParamPorts, 2)
	assert.Equal(t, "WIDTH", mod.ParamPorts[0].Name.Name)
	assert.Nil(t, mod.ParamPorts[0].Type)
	assert.Equal(t, "DEPTH", mod.ParamPorts[1].Name.Name)
	require.NotNil(t, mod.ParamPorts[1].Type)
	assert.Equal(t, "int", mod.ParamPorts[1].Type.Keyword)

	require.Len(t, mod.Ports, 3)
	assert.Equal(t, "input", mod.Ports[0].Dir)
	assert.Equal(t, "clk", mod.Ports[0].Name.Name)
	assert.Equal(t, "output", mod.Ports[2].Dir)
	assert.Equal(t, "count", mod.Ports[2].Name.Name)

	// The name range covers exactly the identifier token.
	text := sm.Text(tree.Buffer)
	nr := mod.Name.Range
	assert.Equal(t, "counter", text[nr.Start:nr.End])
}

func TestParsePackage(t *testing.T) {
	tree, sm, diags := parseText(t, `
package config_pkg;
  parameter DATA_WIDTH = 32;
  typedef logic [DATA_WIDTH-1:0] word_t;
endpackage
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	pkg, ok := findItem[*PackageDecl](tree.File.Items)
	require.True(t, ok)
	assert.Equal(t, "config_pkg", pkg.Name.Name)
	require.Len(t, pkg.Items, 2)

	param, ok := pkg.Items[0].(*ParamDecl)
	require.True(t, ok)
	assert.Equal(t, "DATA_WIDTH", param.Name.Name)

	td, ok := pkg.Items[1].(*TypedefDecl)
	require.True(t, ok)
	assert.Equal(t, "word_t", td.Name.Name)
	text := sm.Text(tree.Buffer)
	assert.Equal(t, "word_t", text[td.Name.Range.Start:td.Name.Range.End])
}

func TestParseImportAndUse(t *testing.T) {
	tree, _, diags := parseText(t, `
module m;
  import config_pkg::*;
  import util_pkg::clog2;
  word_t r;
endmodule
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, ok := findItem[*ModuleDecl](tree.File.Items)
	require.True(t, ok)

	imp, ok := findItem[*ImportDecl](mod.Items)
	require.True(t, ok)
	require.Len(t, imp.Items, 1)
	assert.Equal(t, "config_pkg", imp.Items[0].Package.Name)
	assert.True(t, imp.Items[0].Wildcard)

	v, ok := findItem[*VarDecl](mod.Items)
	require.True(t, ok)
	require.NotNil(t, v.Type.Name)
	assert.Equal(t, "word_t", v.Type.Name.Name.Name)
	require.Len(t, v.Names, 1)
	assert.Equal(t, "r", v.Names[0].Name.Name)
}

func TestParseInstanceNamedConns(t *testing.T) {
	tree, _, diags := parseText(t, `
module top;
  logic sig;
  ALU #(.WIDTH(8)) inst (.a_port(sig), .b_port(), .*);
endmodule
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, _ := findItem[*ModuleDecl](tree.File.Items)
	inst, ok := findItem[*Instance](mod.Items)
	require.True(t, ok)
	assert.Equal(t, "ALU", inst.ModuleName.Name)
	assert.Equal(t, "inst", inst.Name.Name)

	require.Len(t, inst.ParamAssigns, 1)
	assert.Equal(t, "WIDTH", inst.ParamAssigns[0].Name.Name)

	require.Len(t, inst.Conns, 3)
	assert.Equal(t, "a_port", inst.Conns[0].Name.Name)
	require.NotNil(t, inst.Conns[0].Expr)
	assert.Equal(t, "b_port", inst.Conns[1].Name.Name)
	assert.Nil(t, inst.Conns[1].Expr)
	assert.True(t, inst.Conns[2].Wildcard)
}

func TestParseInterfaceModport(t *testing.T) {
	tree, _, diags := parseText(t, `
interface simple_bus;
  logic req, gnt;
  modport slave (input req, output gnt);
endinterface
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	iface, ok := findItem[*ModuleDecl](tree.File.Items)
	require.True(t, ok)
	assert.Equal(t, "interface", iface.Kind)

	mp, ok := findItem[*ModportDecl](iface.Items)
	require.True(t, ok)
	require.Len(t, mp.Items, 1)
	assert.Equal(t, "slave", mp.Items[0].Name.Name)
	require.Len(t, mp.Items[0].Ports, 2)
	assert.Equal(t, "input", mp.Items[0].Ports[0].Dir)
	assert.Equal(t, "req", mp.Items[0].Ports[0].Name.Name)
	assert.Equal(t, "output", mp.Items[0].Ports[1].Dir)
}

func TestParseInterfacePort(t *testing.T) {
	tree, _, diags := parseText(t, `
module consumer (simple_bus.slave bus);
endmodule
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, _ := findItem[*ModuleDecl](tree.File.Items)
	require.Len(t, mod.Ports, 1)
	port := mod.Ports[0]
	require.NotNil(t, port.Iface)
	assert.Equal(t, "simple_bus", port.Iface.Name)
	require.NotNil(t, port.Modport)
	assert.Equal(t, "slave", port.Modport.Name)
	assert.Equal(t, "bus", port.Name.Name)
}

func TestParseEnumTypedef(t *testing.T) {
	tree, _, diags := parseText(t, `
package p;
  typedef enum logic [1:0] { IDLE, RUN = 1, DONE } state_e;
endpackage
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	pkg, _ := findItem[*PackageDecl](tree.File.Items)
	td, ok := findItem[*TypedefDecl](pkg.Items)
	require.True(t, ok)
	require.NotNil(t, td.Type.Enum)
	require.Len(t, td.Type.Enum.Values, 3)
	assert.Equal(t, "IDLE", td.Type.Enum.Values[0].Name.Name)
	assert.Equal(t, "RUN", td.Type.Enum.Values[1].Name.Name)
	assert.NotNil(t, td.Type.Enum.Values[1].Init)
}

func TestParseStructTypedef(t *testing.T) {
	tree, _, diags := parseText(t, `
package p;
  typedef struct packed {
    logic [7:0] addr;
    logic valid;
  } req_t;
endpackage
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	pkg, _ := findItem[*PackageDecl](tree.File.Items)
	td, _ := findItem[*TypedefDecl](pkg.Items)
	require.NotNil(t, td.Type.Struct)
	assert.True(t, td.Type.Struct.Packed)
	require.Len(t, td.Type.Struct.Fields, 2)
	assert.Equal(t, "addr", td.Type.Struct.Fields[0].Names[0].Name.Name)
}

func TestParseFunctionAndTask(t *testing.T) {
	tree, _, diags := parseText(t, `
package p;
  function automatic int clog2(input int value);
    return value;
  endfunction : clog2

  task run(input logic go);
    ;
  endtask
endpackage
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	pkg, _ := findItem[*PackageDecl](tree.File.Items)
	var fns []*FuncDecl
	for _, it := range pkg.Items {
		if f, ok := it.(*FuncDecl); ok {
			fns = append(fns, f)
		}
	}
	require.Len(t, fns, 2)

	fn := fns[0]
	assert.False(t, fn.IsTask)
	assert.Equal(t, "clog2", fn.Name.Name)
	require.Len(t, fn.Args, 1)
	assert.Equal(t, "value", fn.Args[0].Name.Name)
	require.Len(t, fn.Body, 1)
	_, isReturn := fn.Body[0].(*ReturnStmt)
	assert.True(t, isReturn)

	assert.True(t, fns[1].IsTask)
	assert.Equal(t, "run", fns[1].Name.Name)
}

func TestParseGenerate(t *testing.T) {
	tree, _, diags := parseText(t, `
module m;
  genvar i;
  generate
    if (1) begin : gen_a
      logic x;
    end else begin : gen_b
      logic y;
    end
    for (i = 0; i < 4; i = i + 1) begin : gen_loop
      logic z;
    end
  endgenerate
endmodule
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, _ := findItem[*ModuleDecl](tree.File.Items)
	gv, ok := findItem[*GenvarDecl](mod.Items)
	require.True(t, ok)
	require.Len(t, gv.Names, 1)
	assert.Equal(t, "i", gv.Names[0].Name)

	region, ok := findItem[*GenerateRegion](mod.Items)
	require.True(t, ok)

	gi, ok := findItem[*GenIf](region.Items)
	require.True(t, ok)
	require.NotNil(t, gi.Then.Label)
	assert.Equal(t, "gen_a", gi.Then.Label.Name)
	elseBlock, ok := gi.Else.(*GenBlock)
	require.True(t, ok)
	assert.Equal(t, "gen_b", elseBlock.Label.Name)

	gf, ok := findItem[*GenFor](region.Items)
	require.True(t, ok)
	require.NotNil(t, gf.Body.Label)
	assert.Equal(t, "gen_loop", gf.Body.Label.Name)
}

func TestParseScopedAndHierarchical(t *testing.T) {
	tree, _, diags := parseText(t, `
module m;
  logic v;
  initial begin
    v = config_pkg::DATA_WIDTH;
    v = top.sub.leaf;
  end
endmodule
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, _ := findItem[*ModuleDecl](tree.File.Items)
	proc, ok := findItem[*ProceduralBlock](mod.Items)
	require.True(t, ok)
	block, ok := proc.Body.(*BlockStmt)
	require.True(t, ok)
	require.Len(t, block.Stmts, 2)

	first, ok := block.Stmts[0].(*ExprStmt)
	require.True(t, ok)
	assign, ok := first.X.(*BinaryExpr)
	require.True(t, ok)
	scoped, ok := assign.Y.(*ScopedExpr)
	require.True(t, ok)
	assert.Equal(t, "config_pkg", scoped.Scope.Name)
	assert.Equal(t, "DATA_WIDTH", scoped.Name.Name)

	second := block.Stmts[1].(*ExprStmt)
	hier, ok := second.X.(*BinaryExpr)
	require.True(t, ok)
	member, ok := hier.Y.(*MemberExpr)
	require.True(t, ok)
	assert.Equal(t, "leaf", member.Name.Name)
}

func TestParseClassSpecialization(t *testing.T) {
	tree, _, diags := parseText(t, `
module m;
  initial begin
    x = Fifo#(8)::depth;
  end
endmodule
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, _ := findItem[*ModuleDecl](tree.File.Items)
	proc, _ := findItem[*ProceduralBlock](mod.Items)
	block := proc.Body.(*BlockStmt)
	assign := block.Stmts[0].(*ExprStmt).X.(*BinaryExpr)
	scoped, ok := assign.Y.(*ScopedExpr)
	require.True(t, ok)
	assert.Equal(t, "Fifo", scoped.Scope.Name)
	assert.Equal(t, "depth", scoped.Name.Name)
	require.Len(t, scoped.ScopeArgs, 1)
}

func TestParseClassDecl(t *testing.T) {
	tree, _, diags := parseText(t, `
package p;
  class Fifo #(parameter DEPTH = 8) extends Base;
    int count;
    function int size();
      return count;
    endfunction
  endclass : Fifo
endpackage
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	pkg, _ := findItem[*PackageDecl](tree.File.Items)
	cls, ok := findItem[*ClassDecl](pkg.Items)
	require.True(t, ok)
	assert.Equal(t, "Fifo", cls.Name.Name)
	require.Len(t, cls.ParamPorts, 1)
	assert.Equal(t, "DEPTH", cls.ParamPorts[0].Name.Name)
	require.NotNil(t, cls.Extends)
	assert.Equal(t, "Base", cls.Extends.Name.Name)
}

func TestParseAssignPattern(t *testing.T) {
	tree, _, diags := parseText(t, `
module m;
  req_t r;
  initial r = '{addr: 8'hFF, valid: 1'b1};
endmodule
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, _ := findItem[*ModuleDecl](tree.File.Items)
	proc, _ := findItem[*ProceduralBlock](mod.Items)
	assign := proc.Body.(*ExprStmt).X.(*BinaryExpr)
	pat, ok := assign.Y.(*PatternExpr)
	require.True(t, ok)
	require.Len(t, pat.Keys, 2)
	assert.Equal(t, "addr", pat.Keys[0].Key.Name)
	assert.Equal(t, "valid", pat.Keys[1].Key.Name)
}

func TestParseSyntaxErrorRecovers(t *testing.T) {
	tree, _, diags := parseText(t, `
module m;
  logic x
  logic y;
endmodule

module n;
endmodule
`)
	assert.Greater(t, diags.Len(), 0, "missing semicolon must be reported")

	// Both modules survive.
	var mods []*ModuleDecl
	for _, it := range tree.File.Items {
		if m, ok := it.(*ModuleDecl); ok {
			mods = append(mods, m)
		}
	}
	require.Len(t, mods, 2)
	assert.Equal(t, "m", mods[0].Name.Name)
	assert.Equal(t, "n", mods[1].Name.Name)
}

func TestParseNonANSIPorts(t *testing.T) {
	tree, _, diags := parseText(t, `
module legacy (a, b, y);
  input a, b;
  output y;
  wire a, b;
endmodule
`)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, _ := findItem[*ModuleDecl](tree.File.Items)
	require.Len(t, mod.Ports, 3)
	assert.Equal(t, "", mod.Ports[0].Dir)

	dir, ok := findItem[*PortDirDecl](mod.Items)
	require.True(t, ok)
	assert.Equal(t, "input", dir.Dir)
	require.Len(t, dir.Names, 2)
	assert.Equal(t, "a", dir.Names[0].Name.Name)
}

func TestPreprocessorDefineAndIfdef(t *testing.T) {
	tree, _, diags := parseText(t, "`define WIDTH 8\n`ifdef WIDTH\nmodule a; endmodule\n`else\nmodule b; endmodule\n`endif\n")
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, ok := findItem[*ModuleDecl](tree.File.Items)
	require.True(t, ok)
	assert.Equal(t, "a", mod.Name.Name)
	assert.Len(t, tree.File.Items, 1)
}

func TestPreprocessorMacroExpansion(t *testing.T) {
	tree, _, diags := parseText(t, "`define W 8\nmodule m;\n  logic [`W-1:0] bus;\nendmodule\n")
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, _ := findItem[*ModuleDecl](tree.File.Items)
	v, ok := findItem[*VarDecl](mod.Items)
	require.True(t, ok)
	assert.Equal(t, "bus", v.Names[0].Name.Name)
}

func TestPreprocessorUnknownDirective(t *testing.T) {
	_, _, diags := parseText(t, "`bogus_directive\nmodule m; endmodule\n")
	found := false
	for _, d := range diags.Snapshot() {
		if d.Code == diag.CodeUnknownDirective {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPreprocessorIncludeMiss(t *testing.T) {
	_, _, diags := parseText(t, "`include \"not_there.svh\"\nmodule m; endmodule\n")
	found := false
	for _, d := range diags.Snapshot() {
		if d.Code == diag.CodeCouldNotOpenIncludeFile {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPreprocessorInclude(t *testing.T) {
	dir := t.TempDir()
	incPath := filepath.Join(dir, "defs.svh")
	require.NoError(t, os.WriteFile(incPath, []byte("`define FROM_INCLUDE 1\n"), 0o644))
	mainPath := filepath.Join(dir, "top.sv")
	content := "`include \"defs.svh\"\n`ifdef FROM_INCLUDE\nmodule got_it; endmodule\n`endif\n"
	require.NoError(t, os.WriteFile(mainPath, []byte(content), 0o644))

	sm := source.NewManager()
	id, err := sm.ReadFile(location.New(mainPath))
	require.NoError(t, err)
	diags := diag.NewCollector()
	tree := Parse(sm, id, PreprocessorOptions{}, diags)
	require.Equal(t, 0, diags.Len(), "diags: %+v", diags.Snapshot())

	mod, ok := findItem[*ModuleDecl](tree.File.Items)
	require.True(t, ok)
	assert.Equal(t, "got_it", mod.Name.Name)
}

func TestPreprocessorCommandLineDefines(t *testing.T) {
	sm := source.NewManager()
	id := sm.AssignText(location.New("/virtual/d.sv"), "`ifdef SIM\nmodule sim_only; endmodule\n`endif\n")
	diags := diag.NewCollector()
	tree := Parse(sm, id, PreprocessorOptions{Defines: []string{"SIM", "W=8"}}, diags)
	require.Equal(t, 0, diags.Len())

	_, ok := findItem[*ModuleDecl](tree.File.Items)
	assert.True(t, ok)
}

func TestParseDeterministic(t *testing.T) {
	content := `
module m #(parameter W = 4) (input logic clk, output logic [W-1:0] q);
  import config_pkg::*;
  always_ff @(posedge clk) q <= q + 1;
endmodule
`
	_, _, diags1 := parseText(t, content)
	_, _, diags2 := parseText(t, content)
	// Both parses report the same (empty) diagnostics; the trees themselves
	// are not compared.
	assert.Equal(t, 0, diags1.Len())
	assert.Equal(t, 0, diags2.Len())
}
