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

import (
	"log/slog"
	"strings"
)

// Options configures a Runner.
type Options struct {
	// Jobs is the number of files checked concurrently. 1 means
	// sequential.
	Jobs int

	// MaxFiles caps how many files are checked; the rest are skipped
	// with a log note. 0 means no cap.
	MaxFiles int

	// MaxLines skips files longer than this many lines. 0 means no cap.
	MaxLines int

	// Extensions, when non-empty, restricts checking to these
	// lowercased extensions (with leading dot).
	Extensions []string

	// DisableGrammar turns the tree-sitter pass off.
	DisableGrammar bool

	// DisableProbes turns the external-tool probes off.
	DisableProbes bool

	// CompileDBPath locates the compilation database for the clang
	// probe. Empty uses no enrichment.
	CompileDBPath string

	// Logger receives structured run logs. Nil uses slog.Default.
	Logger *slog.Logger
}

// Option mutates Options during Runner construction.
type Option func(*Options)

// WithJobs sets the concurrent file worker count.
func WithJobs(n int) Option {
	return func(o *Options) { o.Jobs = n }
}

// WithMaxFiles caps the number of files checked per run.
func WithMaxFiles(n int) Option {
	return func(o *Options) { o.MaxFiles = n }
}

// WithMaxLines skips files longer than n lines.
func WithMaxLines(n int) Option {
	return func(o *Options) { o.MaxLines = n }
}

// WithExtensions restricts checking to the given extensions. Entries
// are normalized to lowercase with a leading dot.
func WithExtensions(exts []string) Option {
	return func(o *Options) {
		for _, e := range exts {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			o.Extensions = append(o.Extensions, e)
		}
	}
}

// WithoutGrammar disables the tree-sitter pass.
func WithoutGrammar() Option {
	return func(o *Options) { o.DisableGrammar = true }
}

// WithoutProbes disables the external-tool probes.
func WithoutProbes() Option {
	return func(o *Options) { o.DisableProbes = true }
}

// WithCompileDB points the clang probe at a compilation database.
func WithCompileDB(path string) Option {
	return func(o *Options) { o.CompileDBPath = path }
}

// WithLogger sets the structured logger for the run.
func WithLogger(log *slog.Logger) Option {
	return func(o *Options) { o.Logger = log }
}
