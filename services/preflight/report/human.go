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
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/AleutianAI/preflight/pkg/ux"
	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// HumanFormat selects the human-readable rendering shape.
type HumanFormat string

const (
	// FormatTable renders one row per finding.
	FormatTable HumanFormat = "table"

	// FormatDetailed groups findings by file with near-snippets.
	FormatDetailed HumanFormat = "detailed"
)

// maxPathDisplay caps file paths in the table.
const maxPathDisplay = 40

// maxMessageDisplay caps messages in the table.
const maxMessageDisplay = 60

// HumanOptions configures human-readable rendering.
type HumanOptions struct {
	// Format is table or detailed. Empty defaults to table.
	Format HumanFormat

	// BasePath, when set, relativizes file paths for display.
	BasePath string

	// Color enables severity glyph styling.
	Color bool
}

// FormatHuman renders findings for a terminal.
//
// Description:
//
//	An empty finding set renders the success marker. Otherwise findings
//	render as a table (one row each) or a detailed group-by-file
//	listing, both ending with a total line broken down by severity.
//
// Inputs:
//
//	findings - Already deduplicated and sorted findings.
//	opts     - Rendering options.
//
// Outputs:
//
//	string - The rendered block, newline terminated.
func FormatHuman(findings []finding.Finding, opts HumanOptions) string {
	if len(findings) == 0 {
		return ux.RenderOK(opts.Color) + " No issues found\n"
	}

	if opts.Format == FormatDetailed {
		return formatDetailed(findings, opts)
	}
	return formatTable(findings, opts)
}

// formatTable renders one row per finding with go-pretty.
func formatTable(findings []finding.Finding, opts HumanOptions) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Line:Col", "Severity", "Rule", "Message"})

	for _, f := range findings {
		t.AppendRow(table.Row{
			truncateLeft(f.RelativeFile(opts.BasePath), maxPathDisplay),
			f.Location(),
			ux.SeverityLabel(string(f.Severity)),
			f.ShortRule(),
			truncateRight(f.Message, maxMessageDisplay),
		})
	}

	var b strings.Builder
	b.WriteString("Preflight Issues Found:\n\n")
	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(summaryLine(findings))
	b.WriteString("\n")
	return b.String()
}

// formatDetailed renders findings grouped by file with snippets.
func formatDetailed(findings []finding.Finding, opts HumanOptions) string {
	var b strings.Builder
	b.WriteString("Preflight Issues Found:\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n")

	files, byFile := GroupByFile(findings)
	for _, file := range files {
		group := byFile[file]
		b.WriteString("\n")
		b.WriteString(group[0].RelativeFile(opts.BasePath))
		b.WriteString(":\n")

		for _, f := range group {
			glyph := ux.RenderSeverity(string(f.Severity), opts.Color)
			b.WriteString(fmt.Sprintf("  %s %8s %s [%s]\n", glyph, f.Location(), f.Message, f.ShortRule()))
			if f.Near != "" {
				b.WriteString(fmt.Sprintf("             Near: %s\n", f.Near))
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n")
	b.WriteString(summaryLine(findings))
	b.WriteString("\n")
	return b.String()
}

// summaryLine builds the trailing "Total: N issues (...)" line.
func summaryLine(findings []finding.Finding) string {
	stats := finding.ComputeStats(findings)

	var parts []string
	if stats.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", stats.Errors))
	}
	if stats.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", stats.Warnings))
	}
	if stats.Info > 0 {
		parts = append(parts, fmt.Sprintf("%d info", stats.Info))
	}
	return fmt.Sprintf("Total: %d issues (%s)", stats.Total, strings.Join(parts, ", "))
}

// truncateRight caps a string at n runes with a trailing ellipsis.
func truncateRight(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// truncateLeft caps a string at n runes keeping the tail, which
// preserves the informative end of long paths.
func truncateLeft(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return "..." + string(runes[len(runes)-(n-3):])
}
