// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package delimiters implements the character-level automaton that checks
// bracket/paren/brace balance and quote termination in a single left-to-right
// pass over a file.
//
// The automaton carries three pieces of state across lines: the stack of
// open brackets, an active triple-quote region, and (within a line) the
// active single/double quote with its escape flag. String literals suppress
// bracket classification; triple-quote regions suppress everything.
//
// Thread Safety: Checker is stateless and safe for concurrent use; all
// per-file state lives in a scanState local to one call.
package delimiters

import (
	"fmt"
	"os"
	"strings"

	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// source identifies this checker in findings it produces.
const source = "preflight"

// pairs maps opening delimiters to their expected closers.
var pairs = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
}

// closers maps closing delimiters back to their openers.
var closers = map[byte]byte{
	')': '(',
	']': '[',
	'}': '{',
}

// openDelim records one unmatched opener still on the stack.
type openDelim struct {
	sym  byte
	line int
	col  int
}

// scanState is the automaton state threaded through the per-line fold.
//
// Only the bracket stack and the triple-quote region survive across lines;
// single/double quote state is evaluated per physical line (quotes are not
// assumed to span lines unless triple-quoted).
type scanState struct {
	stack      []openDelim
	inTriple   string // "" or the active """ / ''' marker
	tripleLine int    // line the active triple-quote region opened on
}

// Checker checks a file's text for unbalanced delimiters and unterminated
// quotes. It never returns an error: failures degrade to findings.
type Checker struct{}

// NewChecker creates a delimiter/quote checker.
func NewChecker() *Checker {
	return &Checker{}
}

// CheckFile reads and checks a file.
//
// Description:
//
//	Reads the file and runs the automaton over its text. An unreadable
//	file yields a single file_read_error finding at 1:1 instead of an
//	error; the caller never has to handle a failure path.
//
// Inputs:
//
//	path - Path of the file to check.
//
// Outputs:
//
//	[]finding.Finding - Findings in source order. Empty when clean.
func (c *Checker) CheckFile(path string) []finding.Finding {
	data, err := os.ReadFile(path)
	if err != nil {
		return []finding.Finding{{
			File:     path,
			Line:     1,
			Col:      1,
			Rule:     "file_read_error",
			Message:  fmt.Sprintf("Could not read file: %s", path),
			Severity: finding.SeverityError,
			Source:   source,
		}}
	}
	return c.Check(path, string(data))
}

// Check runs the automaton over already-loaded file text.
//
// Description:
//
//	One pass, left to right, line by line. Produces findings in source
//	order: unbalanced/mismatched closers and unclosed per-line quotes as
//	they are encountered, then at end of file one unclosed_delimiter per
//	remaining opener (in opening order) and an unclosed_multiline_string
//	if a triple-quote region is still open.
//
// Inputs:
//
//	path    - Path used in findings (not read from).
//	content - The file text.
//
// Outputs:
//
//	[]finding.Finding - Findings in source order. Empty when clean.
func (c *Checker) Check(path, content string) []finding.Finding {
	var findings []finding.Finding
	state := &scanState{}

	lines := strings.Split(content, "\n")
	for idx, line := range lines {
		lineNum := idx + 1
		findings = append(findings, scanLine(path, line, lineNum, state)...)
	}

	// Anything left on the stack never found its closer.
	for _, open := range state.stack {
		findings = append(findings, finding.Finding{
			File:     path,
			Line:     open.line,
			Col:      open.col,
			Rule:     "unclosed_delimiter",
			Symbol:   string(open.sym),
			Message:  fmt.Sprintf("Unclosed '%c' delimiter", open.sym),
			Severity: finding.SeverityError,
			Source:   source,
		})
	}

	if state.inTriple != "" {
		findings = append(findings, finding.Finding{
			File:     path,
			Line:     state.tripleLine,
			Col:      1,
			Rule:     "unclosed_multiline_string",
			Symbol:   state.inTriple,
			Message:  fmt.Sprintf("Unclosed %s multi-line string", state.inTriple),
			Severity: finding.SeverityError,
			Source:   source,
		})
	}

	return findings
}

// scanLine advances the automaton over one physical line.
func scanLine(path, line string, lineNum int, state *scanState) []finding.Finding {
	var findings []finding.Finding

	var inString byte // 0, '"' or '\''
	var stringCol int // 1-based column the open quote sits at
	escaped := false

	i := 0
	for i < len(line) {
		// Inside a triple-quote region only its own marker matters.
		if state.inTriple != "" {
			if i+3 <= len(line) && line[i:i+3] == state.inTriple {
				state.inTriple = ""
				i += 3
				continue
			}
			i++
			continue
		}

		// Inside a single-line string literal: track escapes, look for
		// the matching close. Brackets are not classified here.
		if inString != 0 {
			switch {
			case escaped:
				escaped = false
			case line[i] == '\\':
				escaped = true
			case line[i] == inString:
				inString = 0
			}
			i++
			continue
		}

		// Triple-quote markers open a region that spans lines.
		if i+3 <= len(line) && (line[i:i+3] == `"""` || line[i:i+3] == "'''") {
			state.inTriple = line[i : i+3]
			state.tripleLine = lineNum
			i += 3
			continue
		}

		ch := line[i]
		switch {
		case ch == '"' || ch == '\'':
			inString = ch
			stringCol = i + 1
			escaped = false

		case pairs[ch] != 0:
			state.stack = append(state.stack, openDelim{sym: ch, line: lineNum, col: i + 1})

		case closers[ch] != 0:
			if len(state.stack) == 0 {
				findings = append(findings, finding.Finding{
					File:     path,
					Line:     lineNum,
					Col:      i + 1,
					Rule:     "unbalanced_delimiter",
					Symbol:   string(ch),
					Message:  fmt.Sprintf("Closing '%c' without matching opener", ch),
					Severity: finding.SeverityError,
					Near:     near(line, i, 10, 10),
					Source:   source,
				})
			} else {
				top := state.stack[len(state.stack)-1]
				expected := pairs[top.sym]
				if expected != ch {
					findings = append(findings, finding.Finding{
						File:     path,
						Line:     lineNum,
						Col:      i + 1,
						Rule:     "mismatched_delimiter",
						Symbol:   string(ch),
						Message:  fmt.Sprintf("Expected '%c' but found '%c'", expected, ch),
						Severity: finding.SeverityError,
						Near:     near(line, i, 10, 10),
						Source:   source,
					})
				}
				// Recovery: pop either way and keep scanning.
				state.stack = state.stack[:len(state.stack)-1]
			}
		}
		i++
	}

	// A quote opened on this line without a close on this line is
	// unterminated; quotes never span lines outside triple regions.
	if inString != 0 && state.inTriple == "" {
		findings = append(findings, finding.Finding{
			File:     path,
			Line:     lineNum,
			Col:      stringCol,
			Rule:     "unclosed_quote",
			Symbol:   string(inString),
			Message:  fmt.Sprintf("Unclosed %c quote", inString),
			Severity: finding.SeverityError,
			Near:     near(line, stringCol-1, 5, 15),
			Source:   source,
		})
	}

	return findings
}

// near returns a trimmed snippet of the line around position i.
func near(line string, i, before, after int) string {
	lo := i - before
	if lo < 0 {
		lo = 0
	}
	hi := i + after
	if hi > len(line) {
		hi = len(line)
	}
	return strings.TrimSpace(line[lo:hi])
}
