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
	"bytes"
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// ErrProbeTimeout marks a probe whose tool exceeded its deadline.
var ErrProbeTimeout = errors.New("probe timed out")

// diagnosticLine matches the gcc/clang convention
// "path:line:col: severity: message".
var diagnosticLine = regexp.MustCompile(`^(.+?):(\d+):(\d+):\s*([A-Za-z ]+?):\s*(.*)$`)

// runResult carries one external tool invocation's outcome.
type runResult struct {
	stdout string
	stderr string
	// exitErr is non-nil when the tool exited non-zero; diagnostics on
	// stderr are still parsed in that case.
	exitErr error
}

// runTool runs an external command with a timeout.
//
// A non-zero exit is reported through runResult.exitErr with the
// captured output intact; only launch failures and timeouts return an
// error. Timeouts return ErrProbeTimeout.
func runTool(ctx context.Context, timeout time.Duration, name string, args ...string) (runResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := runResult{stdout: stdout.String(), stderr: stderr.String()}

	if ctx.Err() == context.DeadlineExceeded {
		return res, ErrProbeTimeout
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.exitErr = exitErr
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// parseDiagnostics converts tool output in the path:line:col convention
// into findings.
//
// Description:
//
//	Each line matching "path:line:col: severity: message" becomes one
//	finding with the given rule and source. The clang "note" level maps
//	to warning via finding.ParseSeverity; a "fatal error" level counts
//	as error. Lines that don't match the convention are skipped.
//
// Inputs:
//
//	output - The tool's raw output (usually stderr).
//	rule   - Rule id for the produced findings.
//	src    - Source name for the produced findings.
//
// Outputs:
//
//	[]finding.Finding - One finding per well-formed diagnostic line.
func parseDiagnostics(output, rule, src string) []finding.Finding {
	var findings []finding.Finding

	for _, line := range strings.Split(output, "\n") {
		m := diagnosticLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		lineNum, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])

		level := strings.ToLower(strings.TrimSpace(m[4]))
		sev := finding.ParseSeverity(level)
		if strings.Contains(level, "error") {
			sev = finding.SeverityError
		}

		findings = append(findings, finding.Finding{
			File:     m[1],
			Line:     lineNum,
			Col:      col,
			Rule:     rule,
			Message:  m[5],
			Severity: sev,
			Source:   src,
		})
	}

	return findings
}

// checkFailed builds the single warning finding a probe reports when its
// tool could not complete (timeout, launch failure).
func checkFailed(path, rule, src string, err error) []finding.Finding {
	return []finding.Finding{{
		File:     path,
		Line:     1,
		Col:      1,
		Rule:     rule,
		Message:  "Syntax check could not run: " + err.Error(),
		Severity: finding.SeverityWarning,
		Source:   src,
	}}
}

// firstLine returns the first non-empty line of tool output, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return strings.TrimSpace(s)
}

// hasTool reports whether an executable is on PATH.
func hasTool(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
