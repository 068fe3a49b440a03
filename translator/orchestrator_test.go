package translator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, root, rel, src string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunBatchRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	writeSource(t, srcDir, "planner.cs", `class Planner {
		double Best(Helper h) {
			double total = 0;
			foreach (var kv in h.Table) {
				total += kv.Value;
			}
			return total + h.Boost(1);
		}
	}`)
	writeSource(t, srcDir, filepath.Join("sub", "helper.cs"), `class Helper {
		public Dictionary<string, double> Table = new Dictionary<string, double>();
		public double Boost(double x) { return x * 2; }
	}`)

	result, err := RunBatch(context.Background(), Options{SourceDir: srcDir, OutputDir: outDir})
	require.NoError(t, err)
	require.NoError(t, result.Err())
	require.Len(t, result.Translated, 2)
	require.Empty(t, result.Failed)

	// Output mirrors the source layout.
	planner, err := os.ReadFile(filepath.Join(outDir, "planner.ts"))
	require.NoError(t, err)
	helper, err := os.ReadFile(filepath.Join(outDir, "sub", "helper.ts"))
	require.NoError(t, err)

	// Cross-file member types resolve through the shared context: Table is
	// declared in the other file, yet enumerates as a pair loop here.
	require.Contains(t, string(planner), "for (const [kvKey, kvValue] of h.table) {")
	require.Contains(t, string(planner), "h.boost(1)")
	require.Contains(t, string(helper), "export class Helper {")
	require.Contains(t, string(helper), "boost(x: number): number {")
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	writeSource(t, srcDir, "good.cs", `class Good {
		double F() { return 1; }
	}`)
	writeSource(t, srcDir, "broken.cs", `class Broken { void M( }`)

	result, err := RunBatch(context.Background(), Options{SourceDir: srcDir, OutputDir: outDir})
	require.NoError(t, err)

	require.Len(t, result.Translated, 1)
	require.Len(t, result.Failed, 1)
	require.Contains(t, result.Failed[0].Path, "broken.cs")
	require.ErrorIs(t, result.Failed[0].Err, ErrFrontend)
	require.Error(t, result.Err())

	// The healthy sibling still made it out; the broken one wrote nothing.
	_, err = os.Stat(filepath.Join(outDir, "good.ts"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "broken.ts"))
	require.True(t, os.IsNotExist(err))
}

func TestRunBatchIdempotent(t *testing.T) {
	srcDir := t.TempDir()

	fixture, err := readFixture("planner.cs")
	require.NoError(t, err)
	writeSource(t, srcDir, "planner.cs", fixture)

	outA := t.TempDir()
	outB := t.TempDir()
	for _, out := range []string{outA, outB} {
		result, err := RunBatch(context.Background(), Options{SourceDir: srcDir, OutputDir: out})
		require.NoError(t, err)
		require.NoError(t, result.Err())
	}

	first, err := os.ReadFile(filepath.Join(outA, "planner.ts"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(outB, "planner.ts"))
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestRunBatchMissingSourceDir(t *testing.T) {
	_, err := RunBatch(context.Background(), Options{
		SourceDir: filepath.Join(t.TempDir(), "missing"),
		OutputDir: t.TempDir(),
	})
	require.Error(t, err)
}

func TestRunBatchBoundedConcurrency(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	for _, name := range []string{"a.cs", "b.cs", "c.cs", "d.cs"} {
		writeSource(t, srcDir, name, `class C`+name[:1]+` {
			double F() { return 1; }
		}`)
	}

	result, err := RunBatch(context.Background(), Options{
		SourceDir:   srcDir,
		OutputDir:   outDir,
		Concurrency: 1,
	})
	require.NoError(t, err)
	require.NoError(t, result.Err())
	require.Len(t, result.Translated, 4)
}
