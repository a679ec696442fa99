// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"github.com/charmbracelet/lipgloss"
)

// Severity color accents
var (
	ColorSevError   = lipgloss.Color("#E74C3C") // Red for errors
	ColorSevWarning = lipgloss.Color("#F4D03F") // Gold/amber for warnings
	ColorSevInfo    = lipgloss.Color("#1D9EA3") // Vibrant teal for info
	ColorSevOK      = lipgloss.Color("#2CD7C7") // Bright teal for success
	ColorSevMuted   = lipgloss.Color("#2C4A54") // Slate for muted text
)

// SeverityStyles provides pre-configured lipgloss styles for rendering
// finding severities
var SeverityStyles = struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	OK      lipgloss.Style
	Muted   lipgloss.Style
}{
	Error:   lipgloss.NewStyle().Foreground(ColorSevError).Bold(true),
	Warning: lipgloss.NewStyle().Foreground(ColorSevWarning),
	Info:    lipgloss.NewStyle().Foreground(ColorSevInfo),
	OK:      lipgloss.NewStyle().Foreground(ColorSevOK),
	Muted:   lipgloss.NewStyle().Foreground(ColorSevMuted),
}

// SeverityGlyph returns the marker character for a severity level.
func SeverityGlyph(severity string) string {
	switch severity {
	case "error":
		return "✗"
	case "warning":
		return "⚠"
	case "info":
		return "ℹ"
	default:
		return "•"
	}
}

// SeverityLabel returns the short display label for a severity level
// ("✗ ERR", "⚠ WARN", "ℹ INFO").
func SeverityLabel(severity string) string {
	switch severity {
	case "error":
		return "✗ ERR"
	case "warning":
		return "⚠ WARN"
	case "info":
		return "ℹ INFO"
	default:
		return "• " + severity
	}
}

// RenderSeverity returns the styled glyph for a severity when color is
// enabled, or the bare glyph otherwise.
func RenderSeverity(severity string, color bool) string {
	glyph := SeverityGlyph(severity)
	if !color {
		return glyph
	}
	switch severity {
	case "error":
		return SeverityStyles.Error.Render(glyph)
	case "warning":
		return SeverityStyles.Warning.Render(glyph)
	case "info":
		return SeverityStyles.Info.Render(glyph)
	default:
		return glyph
	}
}

// RenderOK returns the styled success marker used for clean runs.
func RenderOK(color bool) string {
	if !color {
		return "✓"
	}
	return SeverityStyles.OK.Render("✓")
}
