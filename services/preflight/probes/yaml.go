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
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// yamllintTimeout bounds one yamllint invocation.
const yamllintTimeout = 15 * time.Second

// yamlErrorLine matches the "line N" fragment of yaml.v3 error text.
var yamlErrorLine = regexp.MustCompile(`line (\d+)`)

// yamllintParsable matches yamllint's parsable format
// "path:line:col: [level] message".
var yamllintParsable = regexp.MustCompile(`(?m)^(.+?):(\d+):(\d+):\s*\[(\w+)\]\s*(.*)$`)

// YAMLProbe checks YAML syntax with the native decoder, adding yamllint
// style warnings only when the native pass is clean.
type YAMLProbe struct{}

// NewYAMLProbe creates the YAML probe.
func NewYAMLProbe() *YAMLProbe {
	return &YAMLProbe{}
}

// Name implements Probe.
func (p *YAMLProbe) Name() string { return "yaml" }

// Available implements Probe. The native decoder always works.
func (p *YAMLProbe) Available() bool { return true }

// Extensions implements Probe.
func (p *YAMLProbe) Extensions() []string { return []string{".yaml", ".yml"} }

// Matches implements Probe.
func (p *YAMLProbe) Matches(path string) bool {
	return matchesExt(path, p.Extensions())
}

// Check implements Probe.
func (p *YAMLProbe) Check(ctx context.Context, path string) []finding.Finding {
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
	if err := yaml.Unmarshal(data, &v); err != nil {
		return p.nativeFindings(path, err)
	}

	if hasTool("yamllint") {
		return p.checkYamllint(ctx, path)
	}
	return nil
}

// nativeFindings converts a yaml.v3 decode error into findings. A
// TypeError carries one message per offending line; anything else is a
// single error with the line parsed out of the message text.
func (p *YAMLProbe) nativeFindings(path string, err error) []finding.Finding {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		findings := make([]finding.Finding, 0, len(typeErr.Errors))
		for _, msg := range typeErr.Errors {
			findings = append(findings, finding.Finding{
				File:     path,
				Line:     lineFromYAMLError(msg),
				Col:      1,
				Rule:     "yaml_syntax",
				Message:  msg,
				Severity: finding.SeverityError,
				Source:   p.Name(),
			})
		}
		return findings
	}

	return []finding.Finding{{
		File:     path,
		Line:     lineFromYAMLError(err.Error()),
		Col:      1,
		Rule:     "yaml_syntax",
		Message:  err.Error(),
		Severity: finding.SeverityError,
		Source:   p.Name(),
	}}
}

// checkYamllint collects style/syntax notes from yamllint for a file the
// native decoder already accepted.
func (p *YAMLProbe) checkYamllint(ctx context.Context, path string) []finding.Finding {
	res, err := runTool(ctx, yamllintTimeout, "yamllint", "--format", "parsable", path)
	if err != nil {
		return checkFailed(path, "yaml_check_failed", p.Name(), err)
	}

	var findings []finding.Finding
	for _, m := range yamllintParsable.FindAllStringSubmatch(res.stdout, -1) {
		lineNum, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		findings = append(findings, finding.Finding{
			File:     m[1],
			Line:     lineNum,
			Col:      col,
			Rule:     "yaml_syntax",
			Message:  m[5],
			Severity: finding.ParseSeverity(m[4]),
			Source:   p.Name(),
		})
	}
	return findings
}

// lineFromYAMLError extracts the 1-based line from yaml error text, or 1.
func lineFromYAMLError(msg string) int {
	if m := yamlErrorLine.FindStringSubmatch(msg); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 1
}
