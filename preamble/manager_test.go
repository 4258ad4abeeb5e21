package preamble

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlsp/svlsp/compile"
	"github.com/svlsp/svlsp/layout"
	"github.com/svlsp/svlsp/location"
)

// buildPreamble writes the files under a temp root and compiles them.
func buildPreamble(t *testing.T, files map[string]string) *Manager {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	svc := layout.NewService(location.New(root), nil)
	svc.LoadConfig()
	return CreateFromProjectLayout(svc.GetLayoutSnapshot(), nil)
}

func TestPreambleMetadata(t *testing.T) {
	m := buildPreamble(t, map[string]string{
		"pkg.sv": `package config_pkg;
  parameter DATA_WIDTH = 32;
  typedef logic [DATA_WIDTH-1:0] word_t;
endpackage
`,
		"alu.sv": `module ALU #(parameter WIDTH = 8) (
  input logic [WIDTH-1:0] a_port,
  output logic [WIDTH-1:0] y_port
);
endmodule
`,
		"bus.sv": `interface simple_bus;
  logic req;
  modport slave (input req);
endinterface
`,
	})

	require.Len(t, m.Packages(), 1)
	assert.Equal(t, "config_pkg", m.Packages()[0].Name)

	require.Len(t, m.Interfaces(), 1)
	assert.Equal(t, "simple_bus", m.Interfaces()[0].Name)

	alu := m.Module("ALU")
	require.NotNil(t, alu)
	require.NotNil(t, alu.Port("a_port"))
	require.NotNil(t, alu.Parameter("WIDTH"))
	assert.Nil(t, alu.Port("nope"))

	assert.NotNil(t, m.Package("config_pkg"))
	assert.Nil(t, m.Package("other_pkg"))
	assert.NotNil(t, m.Definition("ALU"))
}

func TestSymbolInfoPrecomputed(t *testing.T) {
	m := buildPreamble(t, map[string]string{
		"pkg.sv": `package config_pkg;
  parameter DATA_WIDTH = 32;
  typedef logic [DATA_WIDTH-1:0] word_t;
endpackage
`,
	})

	pkg := m.Package("config_pkg")
	require.NotNil(t, pkg)
	assert.True(t, m.IsPreambleSymbol(pkg))

	// The package itself and each member have precomputed locations.
	info, ok := m.GetSymbolInfo(pkg)
	require.True(t, ok)
	assert.Contains(t, info.FileURI, "pkg.sv")

	wordT := pkg.Lookup("word_t")
	require.NotNil(t, wordT)
	info, ok = m.GetSymbolInfo(wordT)
	require.True(t, ok)
	assert.Contains(t, info.FileURI, "pkg.sv")
	// word_t sits on line 2 (zero-based) of pkg.sv.
	assert.Equal(t, 2, info.DefRange.Start.Line)
	assert.Equal(t, len("word_t"), info.DefRange.End.Character-info.DefRange.Start.Character)

	// A symbol from a different compilation is not a preamble symbol.
	other := compile.NewCompilation(m.SourceManager(), compile.Options{})
	assert.False(t, m.IsPreambleSymbol(other.Root()))
	_, ok = m.GetSymbolInfo(other.Root())
	assert.False(t, ok)
}

func TestPreambleVersionMonotonic(t *testing.T) {
	files := map[string]string{"a.sv": "module a; endmodule\n"}
	m1 := buildPreamble(t, files)
	m2 := buildPreamble(t, files)
	assert.Greater(t, m2.Version(), m1.Version())
}

func TestPreambleSurvivesBrokenFile(t *testing.T) {
	m := buildPreamble(t, map[string]string{
		"good.sv":   "module good; endmodule\n",
		"broken.sv": "module broken\n  logic x   !!!\n", // no endmodule, garbage
	})

	assert.NotNil(t, m.Definition("good"),
		"a broken sibling file must not prevent the preamble")
}

func TestPreambleAsBinder(t *testing.T) {
	m := buildPreamble(t, map[string]string{
		"alu.sv": "module ALU (input logic a_port); endmodule\n",
	})

	// Manager satisfies compile.PreambleBinder directly.
	var binder compile.PreambleBinder = m
	assert.NotNil(t, binder.Definition("ALU"))
	assert.Nil(t, binder.Package("ALU"))
}
