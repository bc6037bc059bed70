package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const objectFile = "../../pkg/config/testdata/object.toml"

func writeDescription(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unit.toml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--color", "off"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDump(t *testing.T) {
	out, err := run(t, "dump", objectFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "object [0...26) 26 slots\n  root(0)[0...26)\n"), out)
	assert.Contains(t, out, "    JSCell_header(0)[0...1) {kind=field}\n")
	assert.Contains(t, out, "      properties_64(816)[6...7)\n")
}

func TestDumpSelector(t *testing.T) {
	out, err := run(t, "dump", "--selector", "kind=field", objectFile)
	require.NoError(t, err)
	expected := "object kind=field\n" +
		"  JSCell_header(0)[0...1) {kind=field}\n" +
		"  JSObject_butterfly(8)[1...2) {kind=field}\n" +
		"  covers [0...2)\n"
	assert.Equal(t, expected, out)

	_, err = run(t, "dump", "--selector", "kind in (a", objectFile)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	out, err := run(t, "resolve", objectFile)
	require.NoError(t, err)
	expected := "properties[constant 2] -> properties_2->properties->root @ 0x1020 [4...5)\n" +
		"properties[runtime 19] -> properties->root @ 0x102c [2...8)\n"
	assert.Equal(t, expected, out)
}

func TestResolveUnlistedIndex(t *testing.T) {
	path := writeDescription(t, `
[[heap]]
name = "root"

[[family]]
name   = "props"
parent = "root"
offset = 16
stride = 8
small  = 4

[[resolve]]
family = "props"
base   = 4096
index  = 50
known  = true
`)
	out, err := run(t, "resolve", path)
	require.NoError(t, err)
	assert.Equal(t, "props[constant 50] -> props_32->props->root @ 0x11a0 [4...5)\n", out)
}

func TestNumberLineFull(t *testing.T) {
	path := writeDescription(t, "begin = 4294967295\n[[heap]]\nname = \"root\"\n")
	_, err := run(t, "dump", path)
	assert.Error(t, err)
}

func TestCovering(t *testing.T) {
	cases := map[string]struct {
		arg      string
		expected string
		wantErr  bool
	}{
		"Slot": {
			arg:      "4",
			expected: "properties_2->properties->root [4...5)\n",
		},
		"Range": {
			arg: "0-2",
			expected: "    JSCell_header(0)[0...1) {kind=field}\n" +
				"    JSObject_butterfly(8)[1...2) {kind=field}\n",
		},
		"SlotPastEnd": {
			arg:     "26",
			wantErr: true,
		},
		"BadRange": {
			arg:     "5-5",
			wantErr: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := run(t, "covering", objectFile, tc.arg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}

	out, err := run(t, "covering", objectFile, "top")
	require.NoError(t, err)
	assert.Equal(t, 30, strings.Count(out, "\n"))
}

func TestOverlap(t *testing.T) {
	cases := map[string]struct {
		a, b     string
		expected string
		wantErr  bool
	}{
		"Disjoint": {
			a: "JSCell_header", b: "JSObject_butterfly",
			expected: "JSCell_header [0...1) before JSObject_butterfly [1...2): disjoint\n",
		},
		"Nested": {
			a: "properties", b: "properties_2",
			expected: "properties [2...8) encloses properties_2 [4...5): overlap\n",
		},
		"Inside": {
			a: "properties_2", b: "properties",
			expected: "properties_2 [4...5) inside properties [2...8): overlap\n",
		},
		"Unknown": {
			a: "properties", b: "nope",
			wantErr: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := run(t, "overlap", objectFile, tc.a, tc.b)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestSnapshot(t *testing.T) {
	out, err := run(t, "--jobs", "2", "snapshot", objectFile, objectFile)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "tree: object\n"))
	assert.Contains(t, out, "---\n")

	_, err = run(t, "snapshot", "--format", "json", objectFile)
	assert.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, err := run(t, "dump", "testdata/missing.toml")
	assert.Error(t, err)
}
