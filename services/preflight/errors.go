// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package preflight

import "errors"

var (
	// ErrNoInput indicates a run was requested with no files to check.
	ErrNoInput = errors.New("no input files")

	// ErrInvalidJobs indicates a non-positive worker count.
	ErrInvalidJobs = errors.New("jobs must be at least 1")

	// ErrListFile indicates the newline-delimited file list could not
	// be read.
	ErrListFile = errors.New("cannot read file list")
)
