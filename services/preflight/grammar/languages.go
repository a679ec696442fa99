// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package grammar

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/dockerfile"
	tree_sitter_markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/yaml"
)

// languageFor resolves a file path to a grammar name and language.
//
// Resolution is by lowercased extension, with a filename special case for
// Dockerfile. Returns ("", nil) for file types without a bundled grammar;
// those fall back to the character-level checks.
func languageFor(path string) (string, *sitter.Language) {
	base := filepath.Base(path)
	if base == "Dockerfile" || strings.HasPrefix(base, "Dockerfile.") {
		return "dockerfile", dockerfile.GetLanguage()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h":
		return "c", c.GetLanguage()
	case ".cc", ".cpp", ".cxx", ".c++", ".hpp", ".hxx", ".hh", ".h++":
		return "cpp", cpp.GetLanguage()
	case ".py", ".pyi":
		return "python", python.GetLanguage()
	case ".sh", ".bash":
		return "bash", bash.GetLanguage()
	case ".yaml", ".yml":
		return "yaml", yaml.GetLanguage()
	case ".toml":
		return "toml", toml.GetLanguage()
	case ".md", ".markdown":
		return "markdown", tree_sitter_markdown.GetLanguage()
	default:
		return "", nil
	}
}

// Supported reports whether a bundled grammar covers the file type.
func Supported(path string) bool {
	name, _ := languageFor(path)
	return name != ""
}
