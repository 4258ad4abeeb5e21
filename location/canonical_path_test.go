package location

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCanonicalPath(t *testing.T) {
	t.Run("absolute path is cleaned", func(t *testing.T) {
		cp := New("/tmp/a/../b/./c.sv")
		assert.Equal(t, "/tmp/b/c.sv", cp.String())
	})

	t.Run("relative path becomes absolute", func(t *testing.T) {
		cp := New("some/file.sv")
		assert.True(t, strings.HasPrefix(cp.String(), "/"), "got %q", cp.String())
		assert.True(t, strings.HasSuffix(cp.String(), "/some/file.sv"))
	})

	t.Run("empty input yields zero value", func(t *testing.T) {
		cp := New("")
		assert.True(t, cp.IsZero())
	})

	t.Run("UNC path yields zero value", func(t *testing.T) {
		cp := New("//server/share/file.sv")
		assert.True(t, cp.IsZero())
	})

	t.Run("nonexistent path is usable", func(t *testing.T) {
		cp := New("/definitely/not/there.sv")
		require.False(t, cp.IsZero())
		assert.Equal(t, "/definitely/not/there.sv", cp.String())
		assert.False(t, cp.Exists())
	})

	t.Run("symlinks resolve when present", func(t *testing.T) {
		dir := t.TempDir()
		real := filepath.Join(dir, "real.sv")
		require.NoError(t, os.WriteFile(real, []byte("module m; endmodule\n"), 0o644))
		link := filepath.Join(dir, "link.sv")
		require.NoError(t, os.Symlink(real, link))

		assert.Equal(t, New(real), New(link))
	})
}

func TestCanonicalPathEquality(t *testing.T) {
	a := New("/tmp/x/file.sv")
	b := New("/tmp/x/../x/file.sv")
	assert.Equal(t, a, b)

	// Usable as map key
	m := map[CanonicalPath]int{a: 1}
	assert.Equal(t, 1, m[b])
}

func TestURIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pkg.sv")
	require.NoError(t, os.WriteFile(file, []byte("package p; endpackage\n"), 0o644))

	cp := New(file)
	require.False(t, cp.IsZero())

	uri := cp.URI()
	assert.True(t, strings.HasPrefix(uri, "file:///"), "got %q", uri)
	assert.Equal(t, cp, FromURI(uri))
}

func TestFromURI(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string // "" means IsZero
	}{
		{"simple", "file:///tmp/a.sv", "/tmp/a.sv"},
		{"percent encoded space", "file:///tmp/my%20dir/a.sv", "/tmp/my dir/a.sv"},
		{"not a file scheme", "untitled:Untitled-1", ""},
		{"malformed", "file://%zz", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := FromURI(tt.uri)
			if tt.want == "" {
				assert.True(t, cp.IsZero())
				return
			}
			assert.Equal(t, tt.want, cp.String())
		})
	}
}

func TestURIPercentEncoding(t *testing.T) {
	cp := New("/tmp/has space/αβ.sv")
	require.False(t, cp.IsZero())
	uri := cp.URI()
	assert.NotContains(t, uri, " ")
	assert.Equal(t, cp, FromURI(uri))
}

func TestIsSubPathOf(t *testing.T) {
	root := New("/work/proj")
	tests := []struct {
		name  string
		child CanonicalPath
		want  bool
	}{
		{"direct child", New("/work/proj/a.sv"), true},
		{"nested child", New("/work/proj/rtl/core/alu.sv"), true},
		{"itself", New("/work/proj"), true},
		{"sibling with shared prefix", New("/work/proj2/a.sv"), false},
		{"parent", New("/work"), false},
		{"zero", CanonicalPath{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.child.IsSubPathOf(root))
		})
	}
}

func TestDirBaseExt(t *testing.T) {
	cp := New("/work/rtl/alu.sv")
	assert.Equal(t, "alu.sv", cp.Base())
	assert.Equal(t, ".sv", cp.Ext())
	assert.Equal(t, "/work/rtl", cp.Dir().String())

	var zero CanonicalPath
	assert.Equal(t, "", zero.Base())
	assert.True(t, zero.Dir().IsZero())
}

func TestJoin(t *testing.T) {
	base := New("/work/proj")

	t.Run("relative elements", func(t *testing.T) {
		got, err := base.Join("rtl", "alu.sv")
		require.NoError(t, err)
		assert.Equal(t, "/work/proj/rtl/alu.sv", got.String())
	})

	t.Run("dotdot collapses", func(t *testing.T) {
		got, err := base.Join("../other/x.sv")
		require.NoError(t, err)
		assert.Equal(t, "/work/other/x.sv", got.String())
	})

	t.Run("absolute element rejected", func(t *testing.T) {
		_, err := base.Join("/etc/passwd")
		assert.ErrorIs(t, err, ErrAbsoluteJoinElement)
	})

	t.Run("zero receiver", func(t *testing.T) {
		var zero CanonicalPath
		got, err := zero.Join("x")
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})
}
