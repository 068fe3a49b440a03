package translator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectReferencesVisitsEveryNodeOnce(t *testing.T) {
	unit := mustParseFile(t, "planner.cs")

	refs := make(map[string]struct{})
	visited := CollectReferences(unit, refs)
	require.Equal(t, countNamedNodes(unit.Root()), visited)

	for _, name := range []string{"Vec2", "TrajectoryPoint", "weights", "samples", "List", "Dictionary"} {
		require.Contains(t, refs, name)
	}
}

func TestCollectNestedTypes(t *testing.T) {
	unit := mustParseFile(t, "planner.cs")

	nested := CollectNestedTypes(unit)
	require.Len(t, nested, 1)
	require.Equal(t, "Candidate", unit.Text(fieldNode(nested[0], "name")))
}

func TestCollectNestedTypesIgnoresTopLevel(t *testing.T) {
	unit := mustParse(t, `namespace N {
		class A { }
		class B { }
	}`)
	require.Empty(t, CollectNestedTypes(unit))
}

func TestImportSetFiltersByAllowList(t *testing.T) {
	unit := mustParse(t, `class C {
		Vec2 F(GridCell g, Frobnicator fr) { return null; }
	}`)
	got := importSet(unit, DefaultConfig())
	require.Equal(t, []string{"GridCell", "Vec2"}, got)
}

func TestImportSetSkipsLocallyDeclaredTypes(t *testing.T) {
	unit := mustParse(t, `class Vec2 {
		GridCell F() { return null; }
	}`)
	got := importSet(unit, DefaultConfig())
	require.Equal(t, []string{"GridCell"}, got)
}

func TestImportSetEmpty(t *testing.T) {
	unit := mustParse(t, `class C {
		double F(double x) { return x; }
	}`)
	require.Empty(t, importSet(unit, DefaultConfig()))
}
