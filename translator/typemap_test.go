package translator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// mappedType parses a field declaration carrying the given C# type and maps
// its type node.
func mappedType(t *testing.T, csType string) string {
	t.Helper()
	unit := mustParse(t, fmt.Sprintf("class C { %s f; }", csType))
	decl := findNode(unit.Root(), "variable_declaration")
	require.NotNil(t, decl)
	typeNode := fieldNode(decl, "type")
	require.NotNil(t, typeNode)
	return MapType(unit, typeNode)
}

func TestMapTypePrimitives(t *testing.T) {
	cases := []struct {
		cs string
		ts string
	}{
		{"int", "number"},
		{"long", "number"},
		{"short", "number"},
		{"byte", "number"},
		{"float", "number"},
		{"double", "number"},
		{"decimal", "number"},
		{"bool", "boolean"},
		{"string", "string"},
		{"char", "string"},
		{"object", "any"},
	}
	for _, tc := range cases {
		t.Run(tc.cs, func(t *testing.T) {
			require.Equal(t, tc.ts, mappedType(t, tc.cs))
		})
	}
}

func TestMapTypeContainers(t *testing.T) {
	cases := []struct {
		cs string
		ts string
	}{
		{"List<double>", "number[]"},
		{"List<List<int>>", "number[][]"},
		{"Dictionary<string, double>", "Map<string, number>"},
		{"Dictionary<string, List<double>>", "Map<string, number[]>"},
		{"HashSet<int>", "Set<number>"},
		{"double[]", "number[]"},
		{"Vec2[]", "Vec2[]"},
		{"int?", "number | null"},
		{"Vec2", "Vec2"},
		{"TrajectoryPoint", "TrajectoryPoint"},
	}
	for _, tc := range cases {
		t.Run(tc.cs, func(t *testing.T) {
			require.Equal(t, tc.ts, mappedType(t, tc.cs))
		})
	}
}

// Legacy interface spellings of the container families must produce output
// byte-identical to their canonical spellings.
func TestMapTypeLegacyAliases(t *testing.T) {
	pairs := [][2]string{
		{"List<double>", "IList<double>"},
		{"Dictionary<string, int>", "IDictionary<string, int>"},
		{"HashSet<string>", "ISet<string>"},
	}
	for _, pair := range pairs {
		t.Run(pair[1], func(t *testing.T) {
			canonical := mappedType(t, pair[0])
			legacy := mappedType(t, pair[1])
			require.Equal(t, canonical, legacy)
		})
	}
}

func TestMapTypeNeverEmpty(t *testing.T) {
	for _, cs := range []string{"int", "List<double>", "Dictionary<string, Vec2>", "int?", "double[]", "Unknown<int>"} {
		require.NotEmpty(t, mappedType(t, cs))
	}
}
