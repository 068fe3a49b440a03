package translator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"
)

// mustParse parses an in-memory C# fixture and fails the test on any
// front-end diagnostic.
func mustParse(t *testing.T, src string) *TranslationUnit {
	t.Helper()
	unit, err := ParseSource(context.Background(), "fixture.cs", []byte(src))
	require.NoError(t, err)
	require.False(t, unit.Fatal, "fixture must parse cleanly: %v", unit.Diagnostics)
	t.Cleanup(unit.Close)
	return unit
}

func mustParseFile(t *testing.T, name string) *TranslationUnit {
	t.Helper()
	src, err := readFixture(name)
	require.NoError(t, err)
	return mustParse(t, src)
}

func readFixture(name string) (string, error) {
	src, err := os.ReadFile(filepath.Join("testdata", name))
	return string(src), err
}

// translateAll builds one shared type context from every source and
// translates the first one.
func translateAll(t *testing.T, srcs ...string) string {
	t.Helper()
	require.NotEmpty(t, srcs)

	units := make([]*TranslationUnit, 0, len(srcs))
	types := NewTypeContext()
	for _, src := range srcs {
		unit := mustParse(t, src)
		types.AddUnit(unit)
		units = append(units, unit)
	}
	out, err := Translate(units[0], types, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, out)
	return out
}

// findNode returns the first node of the given kind, depth first.
func findNode(n *sitter.Node, kind string) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == kind {
		return n
	}
	for _, child := range namedChildren(n) {
		if found := findNode(child, kind); found != nil {
			return found
		}
	}
	return nil
}

// allNodes returns every named node of the unit's tree, depth first.
func allNodes(u *TranslationUnit) []*sitter.Node {
	var out []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		out = append(out, n)
		for _, child := range namedChildren(n) {
			walk(child)
		}
	}
	walk(u.Root())
	return out
}

// countNamedNodes mirrors the collector traversal independently, for parity
// assertions.
func countNamedNodes(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, child := range namedChildren(n) {
		total += countNamedNodes(child)
	}
	return total
}
