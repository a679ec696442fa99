// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package preflight orchestrates the syntax checks over a resolved file
// list: character-level delimiter checks, tree-sitter grammar checks,
// and external-tool syntax probes, in that order per file.
//
// The runner never aborts on a broken file or a failing tool; every
// per-file fault becomes a finding and the run continues. The single
// error return covers misuse (no input, bad worker count), not check
// outcomes.
package preflight

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/preflight/services/preflight/delimiters"
	"github.com/AleutianAI/preflight/services/preflight/finding"
	"github.com/AleutianAI/preflight/services/preflight/grammar"
	"github.com/AleutianAI/preflight/services/preflight/probes"
	"github.com/AleutianAI/preflight/services/preflight/report"
)

// Version is the tool version embedded in reports.
const Version = "1.0.0"

// Runner coordinates the per-file check pipeline.
//
// Thread Safety: Safe for concurrent use; per-file state is local and
// the shared caches (parsers, compile DB) are load-once guarded.
type Runner struct {
	opts     Options
	log      *slog.Logger
	delims   *delimiters.Checker
	grammar  *grammar.Checker
	registry *probes.Registry
}

// NewRunner creates a runner with the given options.
//
// Description:
//
//	Builds the checker set once: the delimiter automaton, the grammar
//	checker with its parser cache, and the probe registry restricted to
//	the tools installed on this host. Probe availability is logged at
//	debug level.
//
// Inputs:
//
//	opts - Functional options; see the With* constructors.
//
// Outputs:
//
//	*Runner - The constructed runner. Never nil.
func NewRunner(opts ...Option) *Runner {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Jobs < 1 {
		o.Jobs = 1
	}
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}

	r := &Runner{
		opts:    o,
		log:     log,
		delims:  delimiters.NewChecker(),
		grammar: grammar.NewChecker(),
	}
	if !o.DisableProbes {
		r.registry = probes.NewRegistry(probes.RegistryOptions{
			CompileDBPath: o.CompileDBPath,
			Logger:        log,
		})
	}
	return r
}

// Run checks the given files and returns the deduplicated, sorted
// findings.
//
// Description:
//
//	Applies the extension and max-files filters, then checks each file
//	through the full pipeline. With Jobs > 1 files are checked
//	concurrently; the result order is independent of scheduling because
//	findings are collected per file and flattened in input order before
//	aggregation.
//
// Inputs:
//
//	ctx   - Context; cancellation stops scheduling new files.
//	files - Ordered file list from the caller. Paths are checked as
//	        given and appear verbatim in findings.
//
// Outputs:
//
//	[]finding.Finding - Processed findings. Empty when all files are
//	clean.
//	error - ErrNoInput when files is empty, or a context error.
func (r *Runner) Run(ctx context.Context, files []string) ([]finding.Finding, error) {
	if len(files) == 0 {
		return nil, ErrNoInput
	}

	files = r.filterFiles(files)
	start := time.Now()
	r.log.Debug("preflight run starting", "files", len(files), "jobs", r.opts.Jobs)

	perFile := make([][]finding.Finding, len(files))

	if r.opts.Jobs == 1 {
		for i, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			perFile[i] = r.checkFile(ctx, path)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.Jobs)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				perFile[i] = r.checkFile(gctx, path)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var all []finding.Finding
	for _, fs := range perFile {
		all = append(all, fs...)
	}
	processed := report.Process(all)

	r.log.Info("preflight run complete",
		"files", len(files),
		"findings", len(processed),
		"duration", time.Since(start))
	return processed, nil
}

// checkFile runs the full pipeline over one file.
func (r *Runner) checkFile(ctx context.Context, path string) (findings []finding.Finding) {
	ctx, span := startFileSpan(ctx, path)
	start := time.Now()
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("checker panic", "file", path, "panic", rec)
			findings = []finding.Finding{{
				File:     path,
				Line:     1,
				Col:      1,
				Rule:     "syntax_check_failed",
				Message:  fmt.Sprintf("Syntax check could not run: %v", rec),
				Severity: finding.SeverityWarning,
				Source:   "preflight",
			}}
		}

		errorCount, warningCount := 0, 0
		for _, f := range findings {
			switch f.Severity {
			case finding.SeverityError:
				errorCount++
			case finding.SeverityWarning:
				warningCount++
			}
		}
		setFileSpanResult(span, len(findings), errorCount)
		recordFileMetrics(ctx, time.Since(start), len(findings), errorCount, warningCount)
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return []finding.Finding{{
			File:     path,
			Line:     1,
			Col:      1,
			Rule:     "file_read_error",
			Message:  fmt.Sprintf("Could not read file: %s", path),
			Severity: finding.SeverityError,
			Source:   "preflight",
		}}
	}

	if r.opts.MaxLines > 0 {
		if lines := bytes.Count(data, []byte("\n")) + 1; lines > r.opts.MaxLines {
			r.log.Debug("skipping oversized file", "file", path, "lines", lines)
			return nil
		}
	}

	content := string(data)
	findings = append(findings, r.delims.Check(path, content)...)
	if delimiters.AppliesFences(path) {
		findings = append(findings, r.delims.CheckFences(path, content)...)
	}

	if !r.opts.DisableGrammar {
		findings = append(findings, r.grammar.Check(ctx, path, data)...)
	}

	if r.registry != nil {
		findings = append(findings, r.registry.Check(ctx, path)...)
	}

	return findings
}

// filterFiles applies the extension and max-files filters.
func (r *Runner) filterFiles(files []string) []string {
	out := files
	if len(r.opts.Extensions) > 0 {
		out = nil
		for _, path := range files {
			if r.matchesExtension(path) {
				out = append(out, path)
			}
		}
	}
	if r.opts.MaxFiles > 0 && len(out) > r.opts.MaxFiles {
		r.log.Warn("file cap reached, skipping remainder",
			"max_files", r.opts.MaxFiles, "skipped", len(out)-r.opts.MaxFiles)
		out = out[:r.opts.MaxFiles]
	}
	return out
}

// matchesExtension reports whether the path passes the extension filter.
func (r *Runner) matchesExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range r.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadFileList reads a newline-delimited file list, skipping blank
// lines and # comments. Path "-" reads from stdin.
func ReadFileList(path string) ([]string, error) {
	var f *os.File
	if path == "-" {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrListFile, path)
		}
		defer f.Close()
	}

	var files []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		files = append(files, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrListFile, path)
	}
	return files, nil
}
