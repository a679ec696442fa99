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
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// bashTimeout bounds one bash -n invocation.
const bashTimeout = 10 * time.Second

// bashErrorLine matches bash's "path: line N: message" diagnostics.
var bashErrorLine = regexp.MustCompile(`^(.+?):\s*line (\d+):\s*(.*)$`)

// ShellProbe checks shell script syntax with `bash -n` (parse only,
// execute nothing).
type ShellProbe struct{}

// NewShellProbe creates the shell probe.
func NewShellProbe() *ShellProbe {
	return &ShellProbe{}
}

// Name implements Probe.
func (p *ShellProbe) Name() string { return "shell" }

// Available implements Probe.
func (p *ShellProbe) Available() bool { return hasTool("bash") }

// Extensions implements Probe.
func (p *ShellProbe) Extensions() []string { return []string{".sh", ".bash"} }

// Matches implements Probe.
func (p *ShellProbe) Matches(path string) bool {
	return matchesExt(path, p.Extensions())
}

// Check implements Probe.
func (p *ShellProbe) Check(ctx context.Context, path string) []finding.Finding {
	res, err := runTool(ctx, bashTimeout, "bash", "-n", path)
	if err != nil {
		return checkFailed(path, "shell_check_failed", p.Name(), err)
	}
	if res.exitErr == nil {
		return nil
	}

	var findings []finding.Finding
	for _, line := range strings.Split(res.stderr, "\n") {
		m := bashErrorLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		lineNum, _ := strconv.Atoi(m[2])
		findings = append(findings, finding.Finding{
			File:     m[1],
			Line:     lineNum,
			Col:      1,
			Rule:     "shell_syntax",
			Message:  m[3],
			Severity: finding.SeverityError,
			Source:   p.Name(),
		})
	}

	if len(findings) == 0 {
		// bash exited non-zero without a parseable diagnostic.
		return checkFailed(path, "shell_check_failed", p.Name(), res.exitErr)
	}
	return findings
}
