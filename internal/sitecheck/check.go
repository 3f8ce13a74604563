// Package sitecheck validates the generated site bundle before it is written
// out: the script must parse cleanly and the HTML document must have its
// basic skeleton. A model that emits truncated or garbled code is caught
// here instead of in the published site.
package sitecheck

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Issue is one problem found in a bundle file.
type Issue struct {
	// Line and Column are 1-based positions.
	Line   int
	Column int

	// Kind is a short machine-readable category.
	Kind string

	// Message describes the problem.
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%d:%d %s: %s", i.Line, i.Column, i.Kind, i.Message)
}

// CheckScript parses src as JavaScript and reports syntax errors. The
// TypeScript grammar is used since it accepts all JavaScript.
func CheckScript(src []byte) ([]Issue, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	lang := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("sitecheck: set language: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("sitecheck: parser returned no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}

	var issues []Issue
	collectSyntaxIssues(root, &issues)
	return issues, nil
}

// collectSyntaxIssues walks the tree and records ERROR and missing nodes.
func collectSyntaxIssues(node *tree_sitter.Node, issues *[]Issue) {
	if node.IsError() {
		pos := node.StartPosition()
		*issues = append(*issues, Issue{
			Line:    int(pos.Row) + 1,
			Column:  int(pos.Column) + 1,
			Kind:    "syntax-error",
			Message: "unparseable code",
		})
		// Children of an ERROR node are fragments of the same problem.
		return
	}
	if node.IsMissing() {
		pos := node.StartPosition()
		*issues = append(*issues, Issue{
			Line:    int(pos.Row) + 1,
			Column:  int(pos.Column) + 1,
			Kind:    "missing-token",
			Message: fmt.Sprintf("missing %s", node.Kind()),
		})
		return
	}

	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		if child := node.Child(i); child != nil {
			collectSyntaxIssues(child, issues)
		}
	}
}

// CheckHTML runs cheap structural checks on the index document: it must be
// non-empty, declare a doctype, and open and close an html element. Full
// HTML validation is out of reach without a browser; this catches the
// truncation and fence-wrapping failures models actually produce.
func CheckHTML(src []byte) []Issue {
	var issues []Issue
	doc := strings.ToLower(string(src))

	if strings.TrimSpace(doc) == "" {
		return []Issue{{Line: 1, Column: 1, Kind: "empty", Message: "document is empty"}}
	}
	if strings.HasPrefix(strings.TrimSpace(doc), "```") {
		issues = append(issues, Issue{Line: 1, Column: 1, Kind: "fenced",
			Message: "document starts with a markdown code fence"})
	}
	if !strings.Contains(doc, "<!doctype html") {
		issues = append(issues, Issue{Line: 1, Column: 1, Kind: "no-doctype",
			Message: "missing <!DOCTYPE html> declaration"})
	}
	if !strings.Contains(doc, "<html") {
		issues = append(issues, Issue{Line: 1, Column: 1, Kind: "no-html",
			Message: "missing <html> element"})
	}
	if !strings.Contains(doc, "</html>") {
		issues = append(issues, Issue{Line: 1, Column: 1, Kind: "truncated",
			Message: "missing </html>; document looks truncated"})
	}
	return issues
}
