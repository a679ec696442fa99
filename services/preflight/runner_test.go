// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func hasRule(fs []finding.Finding, rule string) bool {
	for _, f := range fs {
		if f.Rule == rule {
			return true
		}
	}
	return false
}

func TestRun_NoInput(t *testing.T) {
	r := NewRunner()
	_, err := r.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestRun_CleanFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "ok.py", "def f(x):\n    return x\n"),
		writeFile(t, dir, "ok.json", "{\"a\": 1}\n"),
	}

	r := NewRunner(WithoutProbes())
	got, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRun_BrokenFile(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeFile(t, dir, "broken.py", "x = (1\n")}

	r := NewRunner(WithoutProbes())
	got, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.True(t, hasRule(got, "unclosed_delimiter"))
}

func TestRun_MissingFile(t *testing.T) {
	r := NewRunner(WithoutProbes(), WithoutGrammar())
	got, err := r.Run(context.Background(), []string{filepath.Join(t.TempDir(), "gone.c")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "file_read_error", got[0].Rule)
}

func TestRun_DeduplicatesAcrossCheckers(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeFile(t, dir, "broken.py", "x = (1\n")}

	r := NewRunner(WithoutProbes())
	got, err := r.Run(context.Background(), files)
	require.NoError(t, err)

	seen := make(map[finding.Key]bool)
	for _, f := range got {
		key := f.Key()
		assert.False(t, seen[key], "duplicate finding %+v", f)
		seen[key] = true
	}
}

func TestRun_SortedOutput(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "b.py", "x = (1\n"),
		writeFile(t, dir, "a.py", "y = [2\n"),
	}

	r := NewRunner(WithoutProbes(), WithoutGrammar())
	got, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, got[0].File, "a.py")
	assert.Contains(t, got[1].File, "b.py")
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py"} {
		files = append(files, writeFile(t, dir, name, "x = (1\nprint 'hi\n"))
	}

	seq, err := NewRunner(WithoutProbes()).Run(context.Background(), files)
	require.NoError(t, err)
	par, err := NewRunner(WithoutProbes(), WithJobs(4)).Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestRun_MaxFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "a.py", "x = (1\n"),
		writeFile(t, dir, "b.py", "y = (2\n"),
	}

	r := NewRunner(WithoutProbes(), WithoutGrammar(), WithMaxFiles(1))
	got, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].File, "a.py")
}

func TestRun_MaxLines(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeFile(t, dir, "big.py", "x = (1\na = 1\nb = 2\nc = 3\n")}

	r := NewRunner(WithoutProbes(), WithoutGrammar(), WithMaxLines(2))
	got, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Empty(t, got, "oversized file is skipped")
}

func TestRun_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "a.py", "x = (1\n"),
		writeFile(t, dir, "b.c", "int f( {\n"),
	}

	r := NewRunner(WithoutProbes(), WithoutGrammar(), WithExtensions([]string{"py"}))
	got, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	for _, f := range got {
		assert.Contains(t, f.File, "a.py")
	}
}

func TestRun_MarkdownFences(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeFile(t, dir, "doc.md", "# Title\n```python\nprint(1)\n")}

	r := NewRunner(WithoutProbes(), WithoutGrammar())
	got, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.True(t, hasRule(got, "unclosed_code_fence"))
}

func TestReadFileList(t *testing.T) {
	dir := t.TempDir()
	list := writeFile(t, dir, "files.txt", "a.c\n\n# comment\n  b.py  \n")

	got, err := ReadFileList(list)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c", "b.py"}, got)

	_, err = ReadFileList(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, ErrListFile)
}
