// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package grammar

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

var knownRules = map[string]bool{
	"missing_delimiter": true,
	"missing_syntax":    true,
	"tree_sitter_error": true,
	// Fallback path re-runs the character-level checker.
	"unclosed_delimiter":        true,
	"unbalanced_delimiter":      true,
	"mismatched_delimiter":      true,
	"unclosed_quote":            true,
	"unclosed_multiline_string": true,
}

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"main.c", true},
		{"main.H", true},
		{"widget.cpp", true},
		{"widget.hxx", true},
		{"script.py", true},
		{"run.sh", true},
		{"config.yaml", true},
		{"config.yml", true},
		{"pyproject.toml", true},
		{"README.md", true},
		{"Dockerfile", true},
		{"Dockerfile.dev", true},
		{"data.json", false},
		{"CMakeLists.txt", false},
		{"program.rs", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Supported(tt.path))
		})
	}
}

func TestCheck_CleanFiles(t *testing.T) {
	c := NewChecker()
	ctx := context.Background()

	tests := []struct {
		name    string
		path    string
		content string
	}{
		{"c", "ok.c", "int main(void) { return 0; }\n"},
		{"python", "ok.py", "def f(x):\n    return x + 1\n"},
		{"bash", "ok.sh", "echo hello\n"},
		{"yaml", "ok.yaml", "key: value\nlist:\n  - a\n  - b\n"},
		{"toml", "ok.toml", "[section]\nkey = \"value\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Check(ctx, tt.path, []byte(tt.content))
			assert.Empty(t, got, "expected no findings, got %v", got)
		})
	}
}

func TestCheck_UnsupportedFileType(t *testing.T) {
	c := NewChecker()
	got := c.Check(context.Background(), "data.json", []byte("{broken"))
	assert.Nil(t, got)
}

func TestCheck_BrokenC(t *testing.T) {
	c := NewChecker()
	got := c.Check(context.Background(), "broken.c", []byte("int main(void) {\n    return 0;\n"))

	require.NotEmpty(t, got)
	for _, f := range got {
		assert.True(t, knownRules[f.Rule], "unexpected rule %q", f.Rule)
		assert.GreaterOrEqual(t, f.Line, 1)
		assert.GreaterOrEqual(t, f.Col, 1)
		assert.NotEmpty(t, f.Message)
	}
}

func TestCheck_BrokenPython(t *testing.T) {
	c := NewChecker()
	got := c.Check(context.Background(), "broken.py", []byte("def f(:\n    pass\n"))

	require.NotEmpty(t, got)
	for _, f := range got {
		assert.True(t, knownRules[f.Rule], "unexpected rule %q", f.Rule)
		assert.Equal(t, "broken.py", f.File)
	}
}

func TestCheck_DeduplicatesNodes(t *testing.T) {
	c := NewChecker()
	got := c.Check(context.Background(), "broken.c", []byte("int f( {\n"))

	seen := make(map[string]bool)
	for _, f := range got {
		key := f.Location() + "/" + f.Rule + "/" + f.Symbol
		assert.False(t, seen[key], "duplicate finding %s", key)
		seen[key] = true
	}
}

func TestCheck_ParserReuse(t *testing.T) {
	c := NewChecker()
	ctx := context.Background()

	c.Check(ctx, "a.py", []byte("x = 1\n"))
	c.Check(ctx, "b.py", []byte("y = 2\n"))
	c.Check(ctx, "a.c", []byte("int x;\n"))

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.parsers, 2)
}

func TestSnippet_Truncation(t *testing.T) {
	long := strings.Repeat("a", 200)
	c := NewChecker()
	got := c.Check(context.Background(), "broken.py", []byte("def f(:\n    "+long+"\n"))

	for _, f := range got {
		assert.LessOrEqual(t, len(f.Near), maxNearLen)
	}
}

func TestSnippet_MultibyteTruncation(t *testing.T) {
	// Truncation must not split a multi-byte rune.
	long := strings.Repeat("é", 200)
	c := NewChecker()
	got := c.Check(context.Background(), "broken.py", []byte("def f(:\n    x = \""+long+"\n"))

	require.NotEmpty(t, got)
	for _, f := range got {
		assert.True(t, utf8.ValidString(f.Near), "invalid UTF-8 in near: %q", f.Near)
		assert.LessOrEqual(t, len([]rune(f.Near)), maxNearLen)
	}
}

func TestClassifyMissing(t *testing.T) {
	tests := []struct {
		kind     string
		wantRule string
		wantMsg  string
	}{
		{")", "missing_delimiter", "Missing closing ')' (detected by tree-sitter)"},
		{"}", "missing_delimiter", "Missing closing '}' (detected by tree-sitter)"},
		{"(", "missing_delimiter", "Missing opening '(' (detected by tree-sitter)"},
		{"{", "missing_delimiter", "Missing opening '{' (detected by tree-sitter)"},
		{"[", "missing_delimiter", "Missing opening '[' (detected by tree-sitter)"},
		{"identifier", "missing_syntax", "Missing syntax element 'identifier' (tree-sitter)"},
		{";", "missing_syntax", "Missing syntax element ';' (tree-sitter)"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			rule, msg := classifyMissing(tt.kind)
			assert.Equal(t, tt.wantRule, rule)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestCheck_ParseFailureFallsBack(t *testing.T) {
	c := NewChecker()
	c.parse = func(context.Context, *sitter.Parser, []byte) (*sitter.Tree, error) {
		return nil, errors.New("parser fault")
	}

	got := c.Check(context.Background(), "broken.py", []byte("x = (1\n"))

	require.NotEmpty(t, got)
	for _, f := range got {
		assert.Equal(t, "preflight", f.Source, "fallback findings come from the delimiter checker")
	}
	assert.Equal(t, "unclosed_delimiter", got[0].Rule)
}

func TestCheck_UnlocalizedErrorFallsBack(t *testing.T) {
	c := NewChecker()
	c.collect = func(*sitter.Node, string, []byte) []finding.Finding {
		return nil
	}

	// The parse genuinely flags an error, but the walk yields nothing.
	got := c.Check(context.Background(), "broken.py", []byte("x = ((1\n"))

	require.NotEmpty(t, got)
	for _, f := range got {
		assert.Equal(t, "preflight", f.Source)
		assert.Equal(t, "unclosed_delimiter", f.Rule)
	}
	assert.Len(t, got, 2)
}
