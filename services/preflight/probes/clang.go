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
	"time"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// clangTimeout bounds one clang invocation.
const clangTimeout = 30 * time.Second

// ClangProbe checks C/C++ syntax with `clang -fsyntax-only`.
//
// When a compilation database is present, the include paths, defines and
// language standard recorded for the file are passed along so headers
// resolve the way the real build resolves them.
type ClangProbe struct {
	db *CompileDB
}

// NewClangProbe creates the clang probe. compileDBPath may be empty.
func NewClangProbe(compileDBPath string) *ClangProbe {
	return &ClangProbe{db: NewCompileDB(compileDBPath)}
}

// Name implements Probe.
func (p *ClangProbe) Name() string { return "clang" }

// Available implements Probe.
func (p *ClangProbe) Available() bool { return hasTool("clang") }

// Extensions implements Probe.
func (p *ClangProbe) Extensions() []string {
	return []string{".c", ".h", ".cc", ".cpp", ".cxx", ".c++", ".hpp", ".hxx", ".hh", ".h++"}
}

// Matches implements Probe.
func (p *ClangProbe) Matches(path string) bool {
	return matchesExt(path, p.Extensions())
}

// Check implements Probe.
//
// Description:
//
//	Runs clang in syntax-only mode and parses its path:line:col
//	diagnostics into clang_syntax findings. A non-zero exit with
//	parseable diagnostics is the normal failure shape; a timeout or
//	launch failure produces one syntax_check_failed warning instead.
//
// Inputs:
//
//	ctx  - Context; bounds the clang run together with the 30s timeout.
//	path - The C/C++ file to check.
//
// Outputs:
//
//	[]finding.Finding - Diagnostics, or one warning on tool failure.
func (p *ClangProbe) Check(ctx context.Context, path string) []finding.Finding {
	args := []string{"-fsyntax-only", "-fno-color-diagnostics"}
	args = append(args, p.db.FlagsFor(path)...)
	args = append(args, path)

	res, err := runTool(ctx, clangTimeout, "clang", args...)
	if err != nil {
		return checkFailed(path, "syntax_check_failed", p.Name(), err)
	}

	findings := parseDiagnostics(res.stderr, "clang_syntax", p.Name())
	if len(findings) == 0 && res.exitErr != nil {
		// Clang refused the file without a single parseable line.
		return checkFailed(path, "syntax_check_failed", p.Name(), res.exitErr)
	}
	return findings
}
