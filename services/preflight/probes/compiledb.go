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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// compileEntry is one record of a clang compilation database
// (compile_commands.json).
type compileEntry struct {
	File      string   `json:"file"`
	Directory string   `json:"directory"`
	Command   string   `json:"command"`
	Arguments []string `json:"arguments"`
}

// CompileDB maps absolute source paths to the preprocessor-relevant
// flags recorded for them in a compilation database.
//
// Loading is deferred to first use and happens exactly once, so a
// registry shared by parallel workers pays the parse cost once.
//
// Thread Safety: Safe for concurrent use.
type CompileDB struct {
	path string

	once  sync.Once
	flags map[string][]string
}

// NewCompileDB creates a compile DB view over the given path. The file
// is not read until FlagsFor is first called. An empty path yields a
// DB that reports no flags.
func NewCompileDB(path string) *CompileDB {
	return &CompileDB{path: path}
}

// FlagsFor returns the include/define/standard flags recorded for the
// file, or nil when the DB is absent, unreadable, or has no entry.
//
// Inputs:
//
//	path - Source file path; resolved to absolute for the lookup.
//
// Outputs:
//
//	[]string - Flags in database order. Nil when unknown.
func (db *CompileDB) FlagsFor(path string) []string {
	db.once.Do(db.load)
	if db.flags == nil {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	return db.flags[abs]
}

// load parses the database file. Any fault leaves flags nil; the clang
// probe simply runs without enrichment.
func (db *CompileDB) load() {
	if db.path == "" {
		return
	}
	data, err := os.ReadFile(db.path)
	if err != nil {
		return
	}

	var entries []compileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}

	flags := make(map[string][]string, len(entries))
	for _, e := range entries {
		file := e.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(e.Directory, file)
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			continue
		}

		args := e.Arguments
		if len(args) == 0 {
			args = strings.Fields(e.Command)
		}
		if extracted := extractFlags(args); len(extracted) > 0 {
			flags[abs] = extracted
		}
	}
	db.flags = flags
}

// extractFlags keeps the flags that affect preprocessing and parsing:
// -I*, -D*, -std=*, and the two-token -isystem and -include forms.
func extractFlags(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case strings.HasPrefix(arg, "-I"), strings.HasPrefix(arg, "-D"), strings.HasPrefix(arg, "-std="):
			out = append(out, arg)
		case arg == "-isystem" || arg == "-include":
			if i+1 < len(args) {
				out = append(out, arg, args[i+1])
				i++
			}
		}
	}
	return out
}
