// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package finding defines the canonical record for one detected preflight
// issue. Findings are immutable value objects: checkers create them, the
// runner collects them, and the reporters render them. Nothing mutates a
// Finding after creation.
package finding

import (
	"fmt"
	"path/filepath"
	"strings"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is the normalized severity of a finding.
//
// The value set is closed: "error", "warning", "info". Severities sort
// error < warning < info when ordering findings (see Rank).
type Severity string

const (
	// SeverityError marks defects that make a build attempt pointless.
	SeverityError Severity = "error"

	// SeverityWarning marks issues worth surfacing that don't block a build.
	SeverityWarning Severity = "warning"

	// SeverityInfo marks purely informational notes.
	SeverityInfo Severity = "info"
)

// Rank returns the sort rank of the severity: error=0, warning=1, info=2.
// Unknown severities rank after all known ones.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// Valid reports whether the severity is one of the three known values.
func (s Severity) Valid() bool {
	return s == SeverityError || s == SeverityWarning || s == SeverityInfo
}

// ParseSeverity normalizes a severity string from an external tool.
//
// Description:
//
//	Lowercases the input and maps the keyword vocabularies used by the
//	probed tools onto the three-level enum. "note" (clang) and "hint"
//	collapse to warning and info respectively, per the diagnostic
//	convention the probes use. Unknown values default to warning so a
//	tool's unexpected output never silently disappears.
//
// Inputs:
//
//	s - Severity keyword (e.g., "error", "Warning", "note").
//
// Outputs:
//
//	Severity - The normalized severity.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "err", "fatal", "critical":
		return SeverityError
	case "warning", "warn", "note":
		return SeverityWarning
	case "info", "style", "hint":
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// =============================================================================
// FINDING
// =============================================================================

// Finding is one detected defect with its location, rule, and provenance.
//
// Line and Col are 1-based; 1,1 is used when a tool reports no location.
// Near, when present, is a single-line snippet of at most 120 characters.
//
// Identity for deduplication is the 5-tuple (File, Line, Col, Rule,
// Message); Symbol, Near and Source do not participate (see Key).
//
// Thread Safety: Immutable after creation.
type Finding struct {
	// File is the path of the file the issue was found in.
	File string `json:"file"`

	// Line is the 1-based line of the issue.
	Line int `json:"line"`

	// Col is the 1-based column of the issue.
	Col int `json:"col"`

	// Rule is the short machine identifier (e.g., "unclosed_delimiter").
	Rule string `json:"rule"`

	// Symbol is the offending token or character. May be empty.
	Symbol string `json:"symbol"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Severity is one of error, warning, info.
	Severity Severity `json:"severity"`

	// Near is an optional single-line source snippet for context.
	Near string `json:"near,omitempty"`

	// Source names the checker that produced the finding
	// (e.g., "preflight", "tree-sitter", "clang").
	Source string `json:"source"`
}

// Key is the comparable identity of a Finding for deduplication.
//
// Two findings with equal keys are duplicates regardless of Near,
// Source, or Symbol.
type Key struct {
	File    string
	Line    int
	Col     int
	Rule    string
	Message string
}

// Key returns the deduplication identity of the finding.
func (f Finding) Key() Key {
	return Key{File: f.File, Line: f.Line, Col: f.Col, Rule: f.Rule, Message: f.Message}
}

// Location returns a formatted "line:col" location string.
func (f Finding) Location() string {
	return fmt.Sprintf("%d:%d", f.Line, f.Col)
}

// ShortRule returns the rule id with the tool-family prefix stripped,
// for compact display ("clang_syntax" -> "syntax").
func (f Finding) ShortRule() string {
	prefixes := []string{"json_", "yaml_", "toml_", "shell_", "cmake_", "clang_", "tree_sitter_"}
	for _, p := range prefixes {
		if strings.HasPrefix(f.Rule, p) {
			return f.Rule[len(p):]
		}
	}
	return f.Rule
}

// RelativeFile returns the file path relative to base when possible,
// for cleaner display. Falls back to the stored path.
func (f Finding) RelativeFile(base string) string {
	if base == "" || !filepath.IsAbs(f.File) {
		return f.File
	}
	rel, err := filepath.Rel(base, f.File)
	if err != nil || strings.HasPrefix(rel, "..") {
		return f.File
	}
	return rel
}

// Less orders findings by file path, then line, then column, then
// severity rank (error before warning before info).
func (f Finding) Less(other Finding) bool {
	if f.File != other.File {
		return f.File < other.File
	}
	if f.Line != other.Line {
		return f.Line < other.Line
	}
	if f.Col != other.Col {
		return f.Col < other.Col
	}
	return f.Severity.Rank() < other.Severity.Rank()
}

// =============================================================================
// STATS
// =============================================================================

// Stats summarizes a finding set for report envelopes.
type Stats struct {
	// Total is the number of findings.
	Total int `json:"total"`

	// Errors, Warnings, Info count findings by severity.
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`

	// ByRule counts findings per rule id.
	ByRule map[string]int `json:"by_rule"`

	// BySource counts findings per producing checker.
	BySource map[string]int `json:"by_source"`

	// FilesChecked is the number of distinct files with findings.
	FilesChecked int `json:"files_checked"`
}

// ComputeStats aggregates summary statistics over a finding set.
func ComputeStats(findings []Finding) Stats {
	stats := Stats{
		ByRule:   make(map[string]int),
		BySource: make(map[string]int),
	}
	files := make(map[string]struct{})

	for _, f := range findings {
		stats.Total++
		switch f.Severity {
		case SeverityError:
			stats.Errors++
		case SeverityWarning:
			stats.Warnings++
		case SeverityInfo:
			stats.Info++
		}
		stats.ByRule[f.Rule]++
		stats.BySource[f.Source]++
		files[f.File] = struct{}{}
	}

	stats.FilesChecked = len(files)
	return stats
}
