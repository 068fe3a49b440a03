// Package translator turns a constrained subset of C# worker modules into
// equivalent TypeScript for a browser worker host.
//
// The front end is tree-sitter's C# grammar; this package consumes the parsed
// tree plus a symbol view built across all files of a batch (TypeContext) and
// never re-parses or type-checks on its own. Unsupported constructs degrade to
// visible placeholder tokens instead of failing the file.
package translator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// ErrFrontend marks file-fatal failures from the parsing front end. A unit
// carrying this error is skipped; sibling files keep translating.
var ErrFrontend = errors.New("front-end failure")

// DebugMode enables verbose translation output.
var DebugMode = false

// TranslationUnit is one source file's immutable syntax tree plus the raw
// bytes it was parsed from. It is read-only to everything downstream of the
// orchestrator.
type TranslationUnit struct {
	// Name is the file base name, used in diagnostics and output naming.
	Name string
	// Path is the path the unit was read from, empty for in-memory sources.
	Path string
	// Source holds the raw bytes the tree refers into.
	Source []byte

	// Fatal is true when the front end reported a parse error; the unit
	// must not be translated.
	Fatal bool
	// Diagnostics holds front-end messages for this unit.
	Diagnostics []string

	tree *sitter.Tree
}

// ParseFile reads and parses one C# source file.
func ParseFile(ctx context.Context, path string) (*TranslationUnit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	unit, err := ParseSource(ctx, path, src)
	if err != nil {
		return nil, err
	}
	unit.Path = path
	return unit, nil
}

// ParseSource parses C# source held in memory. The returned unit may be
// marked Fatal when the tree contains syntax errors; the caller decides
// whether to report and skip.
func ParseSource(ctx context.Context, name string, src []byte) (*TranslationUnit, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrFrontend, name)
	}

	// New parser per call; sitter parsers are not safe for concurrent reuse.
	parser := sitter.NewParser()
	parser.SetLanguage(csharp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFrontend, name, err)
	}

	unit := &TranslationUnit{
		Name:   name,
		Source: src,
		tree:   tree,
	}
	root := tree.RootNode()
	if root == nil {
		unit.Fatal = true
		unit.Diagnostics = append(unit.Diagnostics, "parser returned no root node")
		return unit, nil
	}
	if root.HasError() {
		unit.Fatal = true
		unit.Diagnostics = append(unit.Diagnostics, "source contains syntax errors")
	}
	return unit, nil
}

// Root returns the root node of the unit's syntax tree.
func (u *TranslationUnit) Root() *sitter.Node {
	return u.tree.RootNode()
}

// Text returns the source text covered by n.
func (u *TranslationUnit) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(u.Source)
}

// Close releases the parse tree. The unit must not be used afterwards.
func (u *TranslationUnit) Close() {
	if u.tree != nil {
		u.tree.Close()
		u.tree = nil
	}
}
