// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package grammar runs tree-sitter parses over files whose type has a
// bundled grammar and turns ERROR and MISSING nodes into findings.
//
// The checker is advisory: file types without a grammar report nothing,
// and a parse that fails (or flags an error without yielding a single
// locatable node) falls back to the character-level delimiter checker so
// a broken file never passes silently.
package grammar

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/preflight/services/preflight/delimiters"
	"github.com/AleutianAI/preflight/services/preflight/finding"
)

// source identifies this checker in findings it produces.
const source = "tree-sitter"

// maxNearLen caps the snippet attached to a finding.
const maxNearLen = 120

// missingCloser and missingOpener classify MISSING node types that are
// delimiters, which get the more specific missing_delimiter rule.
// Parsers almost always synthesize a missing closer, but some grammars
// recover by inserting the opener instead.
var (
	missingCloser = map[string]bool{
		")": true,
		"]": true,
		"}": true,
		">": true,
		`"`: true,
		"'": true,
	}
	missingOpener = map[string]bool{
		"(": true,
		"[": true,
		"{": true,
	}
)

// cachedParser wraps one parser instance with its own lock. Tree-sitter
// parsers are not safe for concurrent parses, so the lock is held for
// the duration of each parse.
type cachedParser struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// Checker parses files with tree-sitter grammars and reports syntax
// error nodes as findings.
//
// Thread Safety: Safe for concurrent use. Parser instances are created
// once per grammar and serialized per grammar during parsing.
type Checker struct {
	mu       sync.Mutex
	parsers  map[string]*cachedParser
	fallback *delimiters.Checker

	// parse and collect are seams for tests to simulate parser faults
	// and unlocalizable errors.
	parse   func(ctx context.Context, p *sitter.Parser, content []byte) (*sitter.Tree, error)
	collect func(root *sitter.Node, path string, content []byte) []finding.Finding
}

// NewChecker creates a grammar-assisted checker.
func NewChecker() *Checker {
	return &Checker{
		parsers:  make(map[string]*cachedParser),
		fallback: delimiters.NewChecker(),
		parse: func(ctx context.Context, p *sitter.Parser, content []byte) (*sitter.Tree, error) {
			return p.ParseCtx(ctx, nil, content)
		},
		collect: collectErrors,
	}
}

// Check parses a file's content and reports tree-sitter error nodes.
//
// Description:
//
//	Resolves the file type to a grammar, parses, and walks the tree for
//	ERROR and MISSING nodes. Duplicate nodes at the same position with
//	the same type collapse to one finding. File types without a grammar
//	produce no findings. A failed parse, or a tree that flags an error
//	without any walkable error node, re-runs the delimiter checker on
//	the same content instead.
//
// Inputs:
//
//	ctx     - Context; cancellation aborts the parse.
//	path    - Path used for grammar resolution and in findings.
//	content - The file bytes.
//
// Outputs:
//
//	[]finding.Finding - Findings in tree order. Empty when clean or
//	unsupported.
func (c *Checker) Check(ctx context.Context, path string, content []byte) []finding.Finding {
	name, lang := languageFor(path)
	if lang == nil {
		return nil
	}

	entry := c.parserFor(name, lang)
	entry.mu.Lock()
	tree, err := c.parse(ctx, entry.parser, content)
	entry.mu.Unlock()
	if err != nil || tree == nil {
		return c.fallback.Check(path, string(content))
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	findings := c.collect(root, path, content)
	if len(findings) == 0 {
		// The parser flagged an error it could not localize.
		return c.fallback.Check(path, string(content))
	}
	return findings
}

// parserFor returns the cached parser for a grammar, creating it once.
func (c *Checker) parserFor(name string, lang *sitter.Language) *cachedParser {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.parsers[name]; ok {
		return entry
	}
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	entry := &cachedParser{parser: parser}
	c.parsers[name] = entry
	return entry
}

// nodeKey identifies one reported node position for walk deduplication.
type nodeKey struct {
	row  uint32
	col  uint32
	kind string
}

// collectErrors walks the tree and converts ERROR/MISSING nodes into
// findings, deduplicated by position and node type.
func collectErrors(root *sitter.Node, path string, content []byte) []finding.Finding {
	var findings []finding.Finding
	seen := make(map[nodeKey]bool)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.IsError() || n.IsMissing() {
			pt := n.StartPoint()
			key := nodeKey{row: pt.Row, col: pt.Column, kind: n.Type()}
			if !seen[key] {
				seen[key] = true
				findings = append(findings, nodeFinding(n, path, content))
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	return findings
}

// nodeFinding builds the finding for one ERROR or MISSING node.
func nodeFinding(n *sitter.Node, path string, content []byte) finding.Finding {
	pt := n.StartPoint()
	f := finding.Finding{
		File:     path,
		Line:     int(pt.Row) + 1,
		Col:      int(pt.Column) + 1,
		Severity: finding.SeverityError,
		Near:     snippet(n, content),
		Source:   source,
	}

	if n.IsMissing() {
		kind := n.Type()
		f.Symbol = kind
		f.Rule, f.Message = classifyMissing(kind)
		return f
	}

	f.Rule = "tree_sitter_error"
	f.Message = fmt.Sprintf("Tree-sitter parse error near '%s'", f.Near)
	return f
}

// classifyMissing maps a MISSING node type to its rule and message.
// Bracket-class node types, opening or closing, get missing_delimiter;
// everything else (keywords, operators) is missing_syntax.
func classifyMissing(kind string) (rule, message string) {
	switch {
	case missingCloser[kind]:
		return "missing_delimiter", fmt.Sprintf("Missing closing '%s' (detected by tree-sitter)", kind)
	case missingOpener[kind]:
		return "missing_delimiter", fmt.Sprintf("Missing opening '%s' (detected by tree-sitter)", kind)
	default:
		return "missing_syntax", fmt.Sprintf("Missing syntax element '%s' (tree-sitter)", kind)
	}
}

// snippet extracts the node's source text as a single trimmed line of at
// most maxNearLen characters. MISSING nodes are zero-width, so their
// snippet is the text of the line they sit on.
func snippet(n *sitter.Node, content []byte) string {
	start, end := int(n.StartByte()), int(n.EndByte())
	if start > len(content) {
		start = len(content)
	}
	if end > len(content) {
		end = len(content)
	}

	var text string
	if start == end {
		text = lineAt(content, start)
	} else {
		text = string(content[start:end])
	}

	text = strings.TrimSpace(strings.Join(strings.Fields(text), " "))
	if runes := []rune(text); len(runes) > maxNearLen {
		text = string(runes[:maxNearLen-3]) + "..."
	}
	return text
}

// lineAt returns the text of the line containing byte offset pos.
func lineAt(content []byte, pos int) string {
	lo := pos
	for lo > 0 && content[lo-1] != '\n' {
		lo--
	}
	hi := pos
	for hi < len(content) && content[hi] != '\n' {
		hi++
	}
	return string(content[lo:hi])
}
