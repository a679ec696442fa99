// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package delimiters

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// fenceExtensions lists the file extensions fence checking applies to.
var fenceExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".rst":      true,
}

// AppliesFences reports whether markdown code-fence checking applies to
// the file (by extension, lowercased).
func AppliesFences(path string) bool {
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return false
	}
	return fenceExtensions[strings.ToLower(path[dot:])]
}

// CheckFences checks markdown/rst text for unbalanced ``` code fences.
//
// Description:
//
//	A line whose trimmed text starts with ``` toggles fence state. A
//	fence still open at end of file yields one unclosed_code_fence
//	finding at the opening line, naming the fence's info string (the
//	language tag) when one was given.
//
// Inputs:
//
//	path    - Path used in findings.
//	content - The file text.
//
// Outputs:
//
//	[]finding.Finding - Zero or one finding.
func (c *Checker) CheckFences(path, content string) []finding.Finding {
	inFence := false
	fenceLine := 0
	fenceLang := ""

	for idx, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "```") {
			continue
		}
		if inFence {
			inFence = false
			continue
		}
		inFence = true
		fenceLine = idx + 1
		fenceLang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}

	if !inFence {
		return nil
	}

	msg := "Unclosed code fence"
	if fenceLang != "" {
		msg = fmt.Sprintf("Unclosed code fence (language: %s)", fenceLang)
	}
	return []finding.Finding{{
		File:     path,
		Line:     fenceLine,
		Col:      1,
		Rule:     "unclosed_code_fence",
		Symbol:   "```",
		Message:  msg,
		Severity: finding.SeverityError,
		Source:   source,
	}}
}
