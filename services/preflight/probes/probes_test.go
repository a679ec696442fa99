// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package probes

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// DISPATCH
// =============================================================================

func TestProbeMatching(t *testing.T) {
	tests := []struct {
		probe Probe
		path  string
		want  bool
	}{
		{NewClangProbe(""), "main.c", true},
		{NewClangProbe(""), "widget.HPP", true},
		{NewClangProbe(""), "script.py", false},
		{NewJSONProbe(), "data.json", true},
		{NewJSONProbe(), "data.jsonl", false},
		{NewYAMLProbe(), "c.yaml", true},
		{NewYAMLProbe(), "c.yml", true},
		{NewTOMLProbe(), "pyproject.toml", true},
		{NewShellProbe(), "run.sh", true},
		{NewShellProbe(), "run.bash", true},
		{NewCMakeProbe(), "util.cmake", true},
		{NewCMakeProbe(), "proj/CMakeLists.txt", true},
		{NewCMakeProbe(), "CMakeLists.txt.bak", false},
	}

	for _, tt := range tests {
		t.Run(tt.probe.Name()+"/"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.probe.Matches(tt.path))
		})
	}
}

func TestRegistry_OneProbePerFile(t *testing.T) {
	r := NewRegistry(RegistryOptions{})

	p := r.ProbeFor("data.json")
	require.NotNil(t, p)
	assert.Equal(t, "json", p.Name())

	assert.Nil(t, r.ProbeFor("notes.txt"))
}

func TestRegistry_SkipsUnavailable(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	for _, p := range r.Probes() {
		assert.True(t, p.Available())
	}
}

// =============================================================================
// NATIVE DECODER PROBES
// =============================================================================

func TestJSONProbe_SyntaxError(t *testing.T) {
	p := NewJSONProbe()
	path := writeFile(t, "bad.json", "{\n  \"a\": 1,\n  \"b\": ,\n}\n")

	got := p.Check(context.Background(), path)
	require.Len(t, got, 1)
	assert.Equal(t, "json_syntax", got[0].Rule)
	assert.Equal(t, finding.SeverityError, got[0].Severity)
	assert.Equal(t, 3, got[0].Line)
	assert.Equal(t, "json", got[0].Source)
}

func TestJSONProbe_MissingFile(t *testing.T) {
	p := NewJSONProbe()
	got := p.Check(context.Background(), filepath.Join(t.TempDir(), "gone.json"))
	require.Len(t, got, 1)
	assert.Equal(t, "file_read_error", got[0].Rule)
}

func TestYAMLProbe_SyntaxError(t *testing.T) {
	p := NewYAMLProbe()
	path := writeFile(t, "bad.yaml", "key: value\n  bad indent: [unclosed\n")

	got := p.Check(context.Background(), path)
	require.NotEmpty(t, got)
	assert.Equal(t, "yaml_syntax", got[0].Rule)
	assert.Equal(t, finding.SeverityError, got[0].Severity)
	assert.GreaterOrEqual(t, got[0].Line, 1)
}

func TestTOMLProbe_SyntaxError(t *testing.T) {
	p := NewTOMLProbe()
	path := writeFile(t, "bad.toml", "[section\nkey = \"value\"\n")

	got := p.Check(context.Background(), path)
	require.Len(t, got, 1)
	assert.Equal(t, "toml_syntax", got[0].Rule)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, finding.SeverityError, got[0].Severity)
}

// =============================================================================
// EXTERNAL TOOL PROBES
// =============================================================================

func TestShellProbe_SyntaxError(t *testing.T) {
	p := NewShellProbe()
	if !p.Available() {
		t.Skip("bash not installed")
	}
	path := writeFile(t, "bad.sh", "if true; then\n  echo hi\n")

	got := p.Check(context.Background(), path)
	require.NotEmpty(t, got)
	assert.Equal(t, "shell_syntax", got[0].Rule)
	assert.Equal(t, finding.SeverityError, got[0].Severity)
	assert.GreaterOrEqual(t, got[0].Line, 1)
}

func TestShellProbe_Clean(t *testing.T) {
	p := NewShellProbe()
	if !p.Available() {
		t.Skip("bash not installed")
	}
	path := writeFile(t, "ok.sh", "#!/bin/bash\necho hello\n")
	assert.Empty(t, p.Check(context.Background(), path))
}

// =============================================================================
// DIAGNOSTIC PARSING
// =============================================================================

func TestParseDiagnostics(t *testing.T) {
	output := `src/main.c:10:5: error: expected ';' after expression
src/main.c:12:1: warning: unused variable 'x'
src/main.c:12:1: note: declared here
garbage line without structure
src/other.c:3:9: fatal error: 'missing.h' file not found`

	got := parseDiagnostics(output, "clang_syntax", "clang")
	require.Len(t, got, 4)

	assert.Equal(t, "src/main.c", got[0].File)
	assert.Equal(t, 10, got[0].Line)
	assert.Equal(t, 5, got[0].Col)
	assert.Equal(t, finding.SeverityError, got[0].Severity)
	assert.Equal(t, "expected ';' after expression", got[0].Message)

	assert.Equal(t, finding.SeverityWarning, got[1].Severity)
	assert.Equal(t, finding.SeverityWarning, got[2].Severity, "note maps to warning")
	assert.Equal(t, finding.SeverityError, got[3].Severity, "fatal error maps to error")
}

func TestParseCMakeErrors(t *testing.T) {
	output := `CMake Error at broken.cmake:3
  Parse error.  Expected a command name, got unquoted argument with text
  "endmacro".

CMake Error at broken.cmake:7
  add_library is not scriptable
`

	got, dropped := parseCMakeErrors(output)
	require.Len(t, got, 1)
	assert.True(t, dropped, "the not-scriptable diagnostic was filtered")

	assert.Equal(t, "broken.cmake", got[0].File)
	assert.Equal(t, 3, got[0].Line)
	assert.Equal(t, "cmake_syntax", got[0].Rule)
	assert.Contains(t, got[0].Message, "Parse error")
	assert.Equal(t, finding.SeverityError, got[0].Severity)
	assert.Equal(t, "cmake", got[0].Source)
}

func TestParseCMakeErrors_Unparseable(t *testing.T) {
	// No error headers at all, and nothing filtered: the caller should
	// degrade this to cmake_check_failed instead of reporting clean.
	got, dropped := parseCMakeErrors("cmake: error while loading shared libraries\n")
	assert.Empty(t, got)
	assert.False(t, dropped)

	// All diagnostics filtered counts as handled, not as a tool fault.
	got, dropped = parseCMakeErrors("CMake Error at f.cmake:1\n  project is not scriptable\n")
	assert.Empty(t, got)
	assert.True(t, dropped)
}

func TestCheckFailed(t *testing.T) {
	got := checkFailed("x.c", "syntax_check_failed", "clang", ErrProbeTimeout)
	require.Len(t, got, 1)
	assert.Equal(t, "syntax_check_failed", got[0].Rule)
	assert.Equal(t, finding.SeverityWarning, got[0].Severity)
	assert.Contains(t, got[0].Message, "probe timed out")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", firstLine("\nfirst\nsecond\n"))
	assert.Equal(t, "", firstLine("   \n  \n"))
}

// =============================================================================
// COMPILE DATABASE
// =============================================================================

func TestCompileDB_FlagsFor(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.c")
	require.NoError(t, os.WriteFile(src, []byte("int x;\n"), 0o644))

	db := writeFile(t, "compile_commands.json", `[
  {
    "file": "main.c",
    "directory": `+q(dir)+`,
    "command": "cc -Iinclude -DDEBUG=1 -std=c11 -isystem /opt/include -include config.h -O2 -c main.c"
  }
]`)

	cdb := NewCompileDB(db)
	flags := cdb.FlagsFor(src)
	assert.Equal(t, []string{"-Iinclude", "-DDEBUG=1", "-std=c11", "-isystem", "/opt/include", "-include", "config.h"}, flags)

	assert.Nil(t, cdb.FlagsFor(filepath.Join(dir, "other.c")))
}

func TestCompileDB_ArgumentsForm(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.c")

	db := writeFile(t, "compile_commands.json", `[
  {
    "file": `+q(src)+`,
    "directory": `+q(dir)+`,
    "arguments": ["clang", "-I/usr/local/include", "-DX", "-o", "a.o", "a.c"]
  }
]`)

	flags := NewCompileDB(db).FlagsFor(src)
	assert.Equal(t, []string{"-I/usr/local/include", "-DX"}, flags)
}

func TestCompileDB_MissingOrBroken(t *testing.T) {
	assert.Nil(t, NewCompileDB("").FlagsFor("a.c"))
	assert.Nil(t, NewCompileDB("/nonexistent/db.json").FlagsFor("a.c"))

	broken := writeFile(t, "compile_commands.json", "not json")
	assert.Nil(t, NewCompileDB(broken).FlagsFor("a.c"))
}

// q JSON-quotes a string for test fixture assembly.
func q(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
