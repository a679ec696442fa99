// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report aggregates findings from all checkers and renders them
// as JSON, SARIF 2.1.0, or human-readable output, and derives the
// process exit code.
//
// The aggregation pipeline is fixed: Deduplicate, then Sort, then
// render. Every renderer receives the same processed slice, so the
// formats always agree on content and order.
package report

import (
	"sort"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// Deduplicate removes duplicate findings while preserving order.
//
// Identity is the finding Key (file, line, col, rule, message); the
// first occurrence wins. Overlapping checkers reporting the same defect
// collapse to one finding here.
func Deduplicate(findings []finding.Finding) []finding.Finding {
	seen := make(map[finding.Key]bool, len(findings))
	out := make([]finding.Finding, 0, len(findings))
	for _, f := range findings {
		key := f.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

// Sort orders findings by file, line, column, then severity rank.
// The sort is stable so equal findings keep their arrival order.
func Sort(findings []finding.Finding) []finding.Finding {
	out := make([]finding.Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Less(out[j])
	})
	return out
}

// Process runs the full aggregation pipeline: deduplicate then sort.
func Process(findings []finding.Finding) []finding.Finding {
	return Sort(Deduplicate(findings))
}

// GroupByFile groups findings by file path, preserving the order files
// first appear and the order of findings within each file.
func GroupByFile(findings []finding.Finding) ([]string, map[string][]finding.Finding) {
	var files []string
	byFile := make(map[string][]finding.Finding)
	for _, f := range findings {
		if _, ok := byFile[f.File]; !ok {
			files = append(files, f.File)
		}
		byFile[f.File] = append(byFile[f.File], f)
	}
	return files, byFile
}

// FilterBySeverity keeps findings at or above the given severity
// (error is the highest). Unknown severities are dropped.
func FilterBySeverity(findings []finding.Finding, min finding.Severity) []finding.Finding {
	var out []finding.Finding
	for _, f := range findings {
		if f.Severity.Rank() <= min.Rank() {
			out = append(out, f)
		}
	}
	return out
}
