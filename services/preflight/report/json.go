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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// ToolName is the tool identifier embedded in report envelopes.
const ToolName = "preflight"

// Envelope is the JSON report document.
type Envelope struct {
	Tool        string            `json:"tool"`
	Version     string            `json:"version"`
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Findings    []finding.Finding `json:"findings"`
	Summary     finding.Stats     `json:"summary"`
}

// NewEnvelope builds the JSON envelope for an already-processed finding
// slice. Each call mints a fresh run id.
func NewEnvelope(findings []finding.Finding, version string) Envelope {
	if findings == nil {
		findings = []finding.Finding{}
	}
	return Envelope{
		Tool:        ToolName,
		Version:     version,
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Findings:    findings,
		Summary:     finding.ComputeStats(findings),
	}
}

// WriteJSON renders the envelope as indented JSON to w.
func WriteJSON(w io.Writer, findings []finding.Finding, version string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewEnvelope(findings, version)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteJSONFile renders the envelope to a file, creating parent
// directories as needed. Path "-" writes to stdout.
func WriteJSONFile(path string, findings []finding.Finding, version string) error {
	if path == "-" {
		return WriteJSON(os.Stdout, findings, version)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	return WriteJSON(f, findings, version)
}
