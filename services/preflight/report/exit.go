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
	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// Process exit codes. Callers branch on these in scripts, so the values
// are part of the tool's contract.
const (
	// ExitOK means no findings, or info-level findings only.
	ExitOK = 0

	// ExitWarnings means warnings but no errors (non-strict mode).
	ExitWarnings = 2

	// ExitErrors means at least one error finding, or any warning in
	// strict mode.
	ExitErrors = 3

	// ExitInternal means the tool itself faulted.
	ExitInternal = 10
)

// ExitCode derives the process exit code from a finding set.
//
// Description:
//
//	Errors dominate warnings, warnings dominate info. Strict mode
//	promotes warnings to the error exit code; info-level findings never
//	affect the exit code.
//
// Inputs:
//
//	findings - The final processed findings.
//	strict   - Whether warnings fail the run.
//
// Outputs:
//
//	int - ExitOK, ExitWarnings, or ExitErrors.
func ExitCode(findings []finding.Finding, strict bool) int {
	hasError := false
	hasWarning := false
	for _, f := range findings {
		switch f.Severity {
		case finding.SeverityError:
			hasError = true
		case finding.SeverityWarning:
			hasWarning = true
		}
	}

	switch {
	case hasError:
		return ExitErrors
	case hasWarning && strict:
		return ExitErrors
	case hasWarning:
		return ExitWarnings
	default:
		return ExitOK
	}
}
