// Package verify checks that Python source parses without syntax errors.
package verify

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Position represents a line and column position in the source file.
// Both are 1-based.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// SyntaxError is an ERROR or MISSING node of the parse tree.
type SyntaxError struct {
	Start   Position `json:"start"`
	End     Position `json:"end"`
	Missing bool     `json:"missing,omitempty"`
	Text    string   `json:"text"`
}

func (e SyntaxError) String() string {
	kind := "syntax error"
	if e.Missing {
		kind = "missing token"
	}
	return fmt.Sprintf("%s at line %d, column %d: %q", kind, e.Start.Line, e.Start.Col, e.Text)
}

// Error lists the syntax errors of one file.
type Error struct {
	Path   string
	Errors []SyntaxError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		parts[i] = se.String()
	}
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(parts, "; "))
}

// maxTextLen bounds the source excerpt kept for each error.
const maxTextLen = 40

// Python parses src and returns its syntax errors in source order.
func Python(ctx context.Context, src []byte) ([]SyntaxError, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root node")
	}
	if !root.HasError() {
		return nil, nil
	}

	var errs []SyntaxError
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "ERROR" || n.IsMissing() {
			errs = append(errs, newSyntaxError(n, src))
			if n.IsMissing() {
				return
			}
		}
		if !n.HasError() {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if child := n.Child(i); child != nil {
				walk(child)
			}
		}
	}
	walk(root)
	return errs, nil
}

func newSyntaxError(n *sitter.Node, src []byte) SyntaxError {
	start, end := n.StartPoint(), n.EndPoint()
	text := n.Type()
	if !n.IsMissing() {
		text = n.Content(src)
		if len(text) > maxTextLen {
			text = text[:maxTextLen] + "..."
		}
	}
	return SyntaxError{
		Start:   Position{Line: int(start.Row) + 1, Col: int(start.Column) + 1},
		End:     Position{Line: int(end.Row) + 1, Col: int(end.Column) + 1},
		Missing: n.IsMissing(),
		Text:    text,
	}
}

// File parses the file at path. It returns an *Error when the file has
// syntax errors.
func File(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read '%s': %w", path, err)
	}
	errs, err := Python(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to parse '%s': %w", path, err)
	}
	if len(errs) > 0 {
		return &Error{Path: path, Errors: errs}
	}
	return nil
}
