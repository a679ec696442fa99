// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// sarifInfoURI is the informationUri published in the SARIF driver block.
const sarifInfoURI = "https://github.com/AleutianAI/preflight"

// ruleMeta describes one rule for the SARIF rule catalog.
type ruleMeta struct {
	name  string
	short string
	full  string
}

// ruleCatalog holds the descriptions for the rules the checkers emit.
// Rules not listed here get descriptions synthesized from the id.
var ruleCatalog = map[string]ruleMeta{
	"json_syntax": {
		name:  "JSON Syntax Error",
		short: "Invalid JSON syntax",
		full:  "Detects syntax errors in JSON files using the native decoder and jq",
	},
	"yaml_syntax": {
		name:  "YAML Syntax Error",
		short: "Invalid YAML syntax",
		full:  "Detects syntax errors in YAML files using the native decoder and yamllint",
	},
	"toml_syntax": {
		name:  "TOML Syntax Error",
		short: "Invalid TOML syntax",
		full:  "Detects syntax errors in TOML files using the native decoder and taplo",
	},
	"shell_syntax": {
		name:  "Shell Syntax Error",
		short: "Invalid shell script syntax",
		full:  "Detects syntax errors in shell scripts using bash -n validation",
	},
	"cmake_syntax": {
		name:  "CMake Syntax Error",
		short: "Invalid CMake syntax",
		full:  "Detects syntax errors in CMake files using cmake script-mode parsing",
	},
	"clang_syntax": {
		name:  "C/C++ Syntax Error",
		short: "Invalid C/C++ syntax",
		full:  "Detects syntax errors in C/C++ files using the clang compiler",
	},
	"unclosed_delimiter": {
		name:  "Unclosed Delimiter",
		short: "Missing closing delimiter",
		full:  "Detects unmatched opening delimiters (parentheses, brackets, braces)",
	},
	"unbalanced_delimiter": {
		name:  "Unbalanced Delimiter",
		short: "Mismatched delimiters",
		full:  "Detects mismatched or unbalanced delimiter pairs",
	},
	"unclosed_quote": {
		name:  "Unclosed Quote",
		short: "Missing closing quote",
		full:  "Detects unclosed string literals with missing closing quotes",
	},
	"tree_sitter_error": {
		name:  "Parse Error",
		short: "Tree-sitter parse error",
		full:  "Parse errors detected by tree-sitter syntax analysis",
	},
}

// WriteSARIF renders findings as a SARIF 2.1.0 document with one run.
//
// Description:
//
//	Builds the rule catalog incrementally while walking the findings,
//	so each rule id appears exactly once and only referenced rules are
//	published. Each result carries one physical location with 1-based
//	line and column, a snippet when the finding has one, and the
//	producing checker in the property bag.
//
// Inputs:
//
//	w        - Destination writer.
//	findings - Already deduplicated and sorted findings.
//	version  - Tool version for the driver block.
//
// Outputs:
//
//	error - Non-nil when document construction or writing fails.
func WriteSARIF(w io.Writer, findings []finding.Finding, version string) error {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(ToolName, sarifInfoURI)
	run.Tool.Driver.Version = &version
	run.Tool.Driver.SemanticVersion = &version

	seen := make(map[string]bool)
	for _, f := range findings {
		if !seen[f.Rule] {
			seen[f.Rule] = true
			addRule(run, f.Rule)
		}
		run.AddResult(sarifResult(f))
	}

	doc.AddRun(run)
	if err := doc.PrettyWrite(w); err != nil {
		return fmt.Errorf("write sarif report: %w", err)
	}
	return nil
}

// WriteSARIFFile renders the SARIF document to a file, creating parent
// directories as needed.
func WriteSARIFFile(path string, findings []finding.Finding, version string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sarif file: %w", err)
	}
	defer f.Close()
	return WriteSARIF(f, findings, version)
}

// addRule publishes one rule descriptor into the run's catalog.
func addRule(run *sarif.Run, id string) {
	meta, ok := ruleCatalog[id]
	if !ok {
		meta = ruleMeta{
			name:  titleFromRule(id),
			short: id + " check",
			full:  "Checks for " + id + " issues",
		}
	}

	level := "warning"
	if strings.Contains(id, "syntax") || strings.Contains(id, "error") {
		level = "error"
	}

	rule := run.AddRule(id).
		WithDescription(meta.name).
		WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})
	rule.ShortDescription = &sarif.MultiformatMessageString{Text: &meta.short}
	rule.FullDescription = &sarif.MultiformatMessageString{Text: &meta.full}
	rule.Properties = map[string]interface{}{
		"category": ruleCategory(id),
	}
}

// sarifResult converts one finding into a SARIF result.
func sarifResult(f finding.Finding) *sarif.Result {
	region := sarif.NewRegion().
		WithStartLine(f.Line).
		WithStartColumn(f.Col)
	if f.Near != "" {
		near := f.Near
		region.Snippet = &sarif.ArtifactContent{Text: &near}
	}

	location := sarif.NewLocation().WithPhysicalLocation(
		sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(fileURI(f.File))).
			WithRegion(region),
	)

	result := sarif.NewRuleResult(f.Rule).
		WithMessage(sarif.NewTextMessage(f.Message)).
		WithLevel(sarifLevel(f.Severity)).
		WithLocations([]*sarif.Location{location})

	result.Properties = map[string]interface{}{
		"source":        f.Source,
		"rule_category": ruleCategory(f.Rule),
	}
	if f.Symbol != "" {
		result.Properties["symbol"] = f.Symbol
	}
	return result
}

// sarifLevel maps severities onto the SARIF level vocabulary; info
// becomes "note".
func sarifLevel(s finding.Severity) string {
	switch s {
	case finding.SeverityError:
		return "error"
	case finding.SeverityWarning:
		return "warning"
	case finding.SeverityInfo:
		return "note"
	default:
		return "warning"
	}
}

// ruleCategory buckets a rule id for the property bag.
func ruleCategory(rule string) string {
	switch {
	case strings.Contains(rule, "syntax"), strings.Contains(rule, "parse"), strings.Contains(rule, "error"):
		return "syntax"
	case strings.Contains(rule, "delimiter"), strings.Contains(rule, "quote"), strings.Contains(rule, "fence"):
		return "structure"
	default:
		return "general"
	}
}

// titleFromRule synthesizes a display name from a rule id
// ("unclosed_code_fence" becomes "Unclosed Code Fence").
func titleFromRule(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// fileURI converts a path into a file:// URI with an absolute path.
func fileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}
