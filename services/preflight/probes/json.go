// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package probes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// jqTimeout bounds one jq invocation.
const jqTimeout = 10 * time.Second

// jqParseError matches jq's "at line N, column M" error suffix.
var jqParseError = regexp.MustCompile(`at line (\d+), column (\d+)`)

// JSONProbe checks JSON syntax with the native decoder, falling back on
// jq for a second opinion only when the native pass is clean.
//
// The native decoder is authoritative: a native error is reported as-is
// and jq never runs for that file.
type JSONProbe struct{}

// NewJSONProbe creates the JSON probe.
func NewJSONProbe() *JSONProbe {
	return &JSONProbe{}
}

// Name implements Probe.
func (p *JSONProbe) Name() string { return "json" }

// Available implements Probe. The native decoder always works.
func (p *JSONProbe) Available() bool { return true }

// Extensions implements Probe.
func (p *JSONProbe) Extensions() []string { return []string{".json"} }

// Matches implements Probe.
func (p *JSONProbe) Matches(path string) bool {
	return matchesExt(path, p.Extensions())
}

// Check implements Probe.
func (p *JSONProbe) Check(ctx context.Context, path string) []finding.Finding {
	data, err := os.ReadFile(path)
	if err != nil {
		return []finding.Finding{{
			File:     path,
			Line:     1,
			Col:      1,
			Rule:     "file_read_error",
			Message:  fmt.Sprintf("Could not read file: %s", path),
			Severity: finding.SeverityError,
			Source:   p.Name(),
		}}
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		line, col := 1, 1
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			line, col = offsetToLineCol(data, syntaxErr.Offset)
		}
		return []finding.Finding{{
			File:     path,
			Line:     line,
			Col:      col,
			Rule:     "json_syntax",
			Message:  err.Error(),
			Severity: finding.SeverityError,
			Source:   p.Name(),
		}}
	}

	// Second opinion only on a clean native pass; jq can flag things
	// like duplicate keys the decoder tolerates.
	if hasTool("jq") {
		return p.checkJQ(ctx, path)
	}
	return nil
}

// checkJQ runs jq over an already natively-valid file.
func (p *JSONProbe) checkJQ(ctx context.Context, path string) []finding.Finding {
	res, err := runTool(ctx, jqTimeout, "jq", "empty", path)
	if err != nil {
		return checkFailed(path, "json_check_failed", p.Name(), err)
	}
	if res.exitErr == nil {
		return nil
	}

	line, col := 1, 1
	if m := jqParseError.FindStringSubmatch(res.stderr); m != nil {
		line, _ = strconv.Atoi(m[1])
		col, _ = strconv.Atoi(m[2])
	}
	return []finding.Finding{{
		File:     path,
		Line:     line,
		Col:      col,
		Rule:     "json_syntax",
		Message:  firstLine(res.stderr),
		Severity: finding.SeverityError,
		Source:   p.Name(),
	}}
}

// offsetToLineCol converts a 0-based byte offset into 1-based line and
// column numbers.
func offsetToLineCol(data []byte, offset int64) (int, int) {
	if offset < 0 {
		return 1, 1
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
