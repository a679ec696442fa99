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
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// cmakeTimeout bounds one cmake invocation.
const cmakeTimeout = 30 * time.Second

// cmakeErrorAt matches "CMake Error at path:line" headers.
var cmakeErrorAt = regexp.MustCompile(`CMake Error at (.+?):(\d+)`)

// CMakeProbe checks CMake files by running them in script mode
// (`cmake -P`), which parses without configuring a build tree.
type CMakeProbe struct{}

// NewCMakeProbe creates the cmake probe.
func NewCMakeProbe() *CMakeProbe {
	return &CMakeProbe{}
}

// Name implements Probe.
func (p *CMakeProbe) Name() string { return "cmake" }

// Available implements Probe.
func (p *CMakeProbe) Available() bool { return hasTool("cmake") }

// Extensions implements Probe.
func (p *CMakeProbe) Extensions() []string { return []string{".cmake"} }

// Matches implements Probe. Matches .cmake files and CMakeLists.txt by
// filename.
func (p *CMakeProbe) Matches(path string) bool {
	return matchesExt(path, p.Extensions()) || filepath.Base(path) == "CMakeLists.txt"
}

// Check implements Probe.
//
// Description:
//
//	Runs the file in cmake script mode and scans stderr for
//	"CMake Error at path:line" headers; the indented lines that follow
//	a header form the message. Script mode rejects some project-only
//	commands, so findings whose message names a scriptable-commands
//	restriction are dropped rather than reported as syntax errors. A
//	failing run with no parseable headers and nothing dropped degrades
//	to one cmake_check_failed warning.
//
// Inputs:
//
//	ctx  - Context; bounds the cmake run together with the 30s timeout.
//	path - The .cmake or CMakeLists.txt file to check.
//
// Outputs:
//
//	[]finding.Finding - Parse errors, or one warning on tool failure.
func (p *CMakeProbe) Check(ctx context.Context, path string) []finding.Finding {
	res, err := runTool(ctx, cmakeTimeout, "cmake", "-P", path)
	if err != nil {
		return checkFailed(path, "cmake_check_failed", p.Name(), err)
	}
	if res.exitErr == nil {
		return nil
	}

	findings, dropped := parseCMakeErrors(res.stderr)
	if len(findings) == 0 && !dropped {
		// CMake refused the file without a single parseable header.
		return checkFailed(path, "cmake_check_failed", p.Name(), res.exitErr)
	}
	return findings
}

// parseCMakeErrors scans cmake stderr for error headers and builds the
// findings. dropped reports whether any diagnostic was discarded by the
// scriptable-commands filter.
func parseCMakeErrors(stderr string) (findings []finding.Finding, dropped bool) {
	lines := strings.Split(stderr, "\n")
	for i := 0; i < len(lines); i++ {
		m := cmakeErrorAt.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		lineNum, _ := strconv.Atoi(m[2])

		var msgParts []string
		for j := i + 1; j < len(lines); j++ {
			t := strings.TrimSpace(lines[j])
			if t == "" || cmakeErrorAt.MatchString(lines[j]) {
				break
			}
			msgParts = append(msgParts, t)
		}
		msg := strings.Join(msgParts, " ")
		if msg == "" {
			msg = "CMake parse error"
		}
		if strings.Contains(msg, "not scriptable") || strings.Contains(msg, "script mode") {
			dropped = true
			continue
		}

		findings = append(findings, finding.Finding{
			File:     m[1],
			Line:     lineNum,
			Col:      1,
			Rule:     "cmake_syntax",
			Message:  msg,
			Severity: finding.SeverityError,
			Source:   "cmake",
		})
	}

	return findings, dropped
}
