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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// taploTimeout bounds one taplo invocation.
const taploTimeout = 15 * time.Second

// TOMLProbe checks TOML syntax with the native decoder, with a taplo
// second opinion when the native pass is clean.
type TOMLProbe struct{}

// NewTOMLProbe creates the TOML probe.
func NewTOMLProbe() *TOMLProbe {
	return &TOMLProbe{}
}

// Name implements Probe.
func (p *TOMLProbe) Name() string { return "toml" }

// Available implements Probe. The native decoder always works.
func (p *TOMLProbe) Available() bool { return true }

// Extensions implements Probe.
func (p *TOMLProbe) Extensions() []string { return []string{".toml"} }

// Matches implements Probe.
func (p *TOMLProbe) Matches(path string) bool {
	return matchesExt(path, p.Extensions())
}

// Check implements Probe.
func (p *TOMLProbe) Check(ctx context.Context, path string) []finding.Finding {
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
	if err := toml.Unmarshal(data, &v); err != nil {
		line, col := 1, 1
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			line, col = decodeErr.Position()
		}
		return []finding.Finding{{
			File:     path,
			Line:     line,
			Col:      col,
			Rule:     "toml_syntax",
			Message:  err.Error(),
			Severity: finding.SeverityError,
			Source:   p.Name(),
		}}
	}

	if hasTool("taplo") {
		return p.checkTaplo(ctx, path)
	}
	return nil
}

// checkTaplo runs taplo over an already natively-valid file.
func (p *TOMLProbe) checkTaplo(ctx context.Context, path string) []finding.Finding {
	res, err := runTool(ctx, taploTimeout, "taplo", "check", path)
	if err != nil {
		return checkFailed(path, "toml_check_failed", p.Name(), err)
	}
	if res.exitErr == nil {
		return nil
	}
	return []finding.Finding{{
		File:     path,
		Line:     1,
		Col:      1,
		Rule:     "toml_syntax",
		Message:  firstLine(res.stderr),
		Severity: finding.SeverityError,
		Source:   p.Name(),
	}}
}
