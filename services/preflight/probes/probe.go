// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package probes runs file-type specific syntax checks, either natively
// (JSON, YAML, TOML decode) or by shelling out to an installed tool
// (clang, bash, cmake, and secondary linters such as jq and yamllint).
//
// Probes degrade instead of failing: a tool that is not installed keeps
// its probe out of the registry, and a tool that times out or refuses to
// launch yields a single *_check_failed warning finding rather than an
// error return.
package probes

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// Probe is one file-type specific syntax check.
//
// Implementations never return errors from Check: tool faults become
// findings so a broken tool cannot abort a run.
type Probe interface {
	// Name is the short identifier used in logs and the Source field.
	Name() string

	// Available reports whether the probe can run on this host.
	Available() bool

	// Extensions lists the lowercased file extensions the probe claims.
	Extensions() []string

	// Matches reports whether the probe applies to the path. Most
	// probes match by extension; some add filename patterns.
	Matches(path string) bool

	// Check runs the probe on one file.
	Check(ctx context.Context, path string) []finding.Finding
}

// Registry holds the available probes in registration order and
// dispatches at most one probe per file.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Registry struct {
	probes []Probe
	log    *slog.Logger
}

// RegistryOptions configures registry construction.
type RegistryOptions struct {
	// CompileDBPath locates the compilation database the clang probe
	// enriches its flags from. Empty disables enrichment.
	CompileDBPath string

	// Logger receives availability notes at debug level. Nil uses the
	// default logger.
	Logger *slog.Logger
}

// NewRegistry builds a registry from the probes available on this host.
//
// Description:
//
//	Instantiates every known probe, keeps the available ones in fixed
//	registration order (clang, json, yaml, toml, shell, cmake), and
//	logs skipped probes at debug level. Dispatch order is stable for a
//	run, so a file matched by two probes always gets the same one.
//
// Inputs:
//
//	opts - Registry options. Zero value is usable.
//
// Outputs:
//
//	*Registry - The constructed registry. Never nil.
func NewRegistry(opts RegistryOptions) *Registry {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	candidates := []Probe{
		NewClangProbe(opts.CompileDBPath),
		NewJSONProbe(),
		NewYAMLProbe(),
		NewTOMLProbe(),
		NewShellProbe(),
		NewCMakeProbe(),
	}

	r := &Registry{log: log}
	for _, p := range candidates {
		if !p.Available() {
			log.Debug("syntax probe unavailable", "probe", p.Name())
			continue
		}
		r.probes = append(r.probes, p)
	}
	return r
}

// Probes returns the registered probes in dispatch order.
func (r *Registry) Probes() []Probe {
	return r.probes
}

// ProbeFor returns the first registered probe matching the path, or nil.
func (r *Registry) ProbeFor(path string) Probe {
	for _, p := range r.probes {
		if p.Matches(path) {
			return p
		}
	}
	return nil
}

// Check dispatches the file to its probe, if any.
func (r *Registry) Check(ctx context.Context, path string) []finding.Finding {
	p := r.ProbeFor(path)
	if p == nil {
		return nil
	}
	return p.Check(ctx, path)
}

// matchesExt reports whether the path's lowercased extension is in exts.
func matchesExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
