// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/preflight/pkg/logging"
	"github.com/AleutianAI/preflight/services/preflight"
	"github.com/AleutianAI/preflight/services/preflight/report"
)

// defaultCompileDB is probed when --compile-db is not given.
const defaultCompileDB = "exports/compile_commands.json"

// --- Global Command Variables ---
var (
	jsonOutput    string
	sarifOutput   string
	listFile      string
	strict        bool
	verbose       bool
	noGrammar     bool
	noProbes      bool
	noColor       bool
	jobs          int
	maxFiles      int
	maxLines      int
	extensions    []string
	compileDBPath string
	humanFormat   string

	// exitCode is the process exit code main reports after Execute.
	exitCode int

	rootCmd = &cobra.Command{
		Use:   "preflight [files...]",
		Short: "Fast syntax preflight for generated and edited source files",
		Long: `Preflight checks a set of files for syntax defects before a build
is attempted: delimiter and quote balance, tree-sitter grammar errors,
and language-specific probes (clang, jq, yamllint, bash, cmake).

Findings go to stderr for humans and to --json/--sarif for machines.
Exit codes: 0 clean, 2 warnings, 3 errors (or warnings with --strict),
10 internal fault.`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheck,
	}
)

func init() {
	rootCmd.Flags().StringVar(&jsonOutput, "json", "", "write JSON report to FILE ('-' for stdout)")
	rootCmd.Flags().StringVar(&sarifOutput, "sarif", "", "write SARIF 2.1.0 report to FILE")
	rootCmd.Flags().StringVar(&listFile, "list", "", "read additional file paths from FILE ('-' for stdin)")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors for the exit code")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&noGrammar, "no-grammar", false, "disable the tree-sitter pass")
	rootCmd.Flags().BoolVar(&noProbes, "no-probes", false, "disable external-tool syntax probes")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.Flags().IntVar(&jobs, "jobs", 1, "number of files to check concurrently")
	rootCmd.Flags().IntVar(&maxFiles, "max-files", 0, "check at most N files (0 = unlimited)")
	rootCmd.Flags().IntVar(&maxLines, "max-lines", 0, "skip files longer than N lines (0 = unlimited)")
	rootCmd.Flags().StringSliceVar(&extensions, "extensions", nil, "only check files with these extensions")
	rootCmd.Flags().StringVar(&compileDBPath, "compile-db", "", "compilation database for the clang probe")
	rootCmd.Flags().StringVar(&humanFormat, "format", "table", "human output format: table or detailed")
	rootCmd.SilenceUsage = true
}

// runCheck is the root command body: resolve the file list, run the
// checkers, emit reports, and derive the exit code.
func runCheck(cmd *cobra.Command, args []string) error {
	if jobs < 1 {
		return fmt.Errorf("%w: %d", preflight.ErrInvalidJobs, jobs)
	}

	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{Level: level, Service: "preflight"})
	defer logger.Close()

	files := args
	if listFile != "" {
		listed, err := preflight.ReadFileList(listFile)
		if err != nil {
			return err
		}
		files = append(files, listed...)
	}
	if len(files) == 0 {
		return preflight.ErrNoInput
	}

	opts := []preflight.Option{
		preflight.WithJobs(jobs),
		preflight.WithMaxFiles(maxFiles),
		preflight.WithMaxLines(maxLines),
		preflight.WithLogger(logger.Slog()),
		preflight.WithCompileDB(resolveCompileDB()),
	}
	if len(extensions) > 0 {
		opts = append(opts, preflight.WithExtensions(extensions))
	}
	if noGrammar {
		opts = append(opts, preflight.WithoutGrammar())
	}
	if noProbes {
		opts = append(opts, preflight.WithoutProbes())
	}

	runner := preflight.NewRunner(opts...)
	findings, err := runner.Run(cmd.Context(), files)
	if err != nil {
		return err
	}

	if jsonOutput != "" {
		if err := report.WriteJSONFile(jsonOutput, findings, preflight.Version); err != nil {
			return err
		}
	}
	if sarifOutput != "" {
		if err := report.WriteSARIFFile(sarifOutput, findings, preflight.Version); err != nil {
			return err
		}
	}

	// Human output goes to stderr so machine output on stdout stays
	// clean for pipelines.
	if jsonOutput != "-" || len(findings) > 0 {
		human := report.FormatHuman(findings, report.HumanOptions{
			Format:   report.HumanFormat(humanFormat),
			BasePath: workingDir(),
			Color:    !noColor,
		})
		fmt.Fprint(os.Stderr, human)
	}

	exitCode = report.ExitCode(findings, strict)
	return nil
}

// resolveCompileDB returns the configured compilation database, falling
// back to the conventional export location when it exists.
func resolveCompileDB() string {
	if compileDBPath != "" {
		return compileDBPath
	}
	if _, err := os.Stat(defaultCompileDB); err == nil {
		return defaultCompileDB
	}
	return ""
}

// workingDir returns the current directory for path relativization, or
// empty when unavailable.
func workingDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}
