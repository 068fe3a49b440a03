package translator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestWatchReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, Options{SourceDir: t.TempDir(), OutputDir: t.TempDir()})
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestWatchRetranslatesOnChange(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	srcPath := writeSource(t, srcDir, "calc.cs", `class Calc {
		double First() { return 1; }
	}`)

	cfg := DefaultConfig()
	cfg.DebounceMs = 50

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, Options{SourceDir: srcDir, OutputDir: outDir, Config: cfg})
	}()

	outPath := filepath.Join(outDir, "calc.ts")
	outputHas := func(needle string) func() bool {
		return func() bool {
			data, err := os.ReadFile(outPath)
			return err == nil && strings.Contains(string(data), needle)
		}
	}

	require.Eventually(t, outputHas("first(): number {"),
		5*time.Second, 25*time.Millisecond, "initial pass never produced output")

	require.NoError(t, os.WriteFile(srcPath, []byte(`class Calc {
		double Second() { return 2; }
	}`), 0o644))

	require.Eventually(t, outputHas("second(): number {"),
		5*time.Second, 25*time.Millisecond, "change was never re-translated")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestRelevantChange(t *testing.T) {
	require.True(t, relevantChange(fsnotify.Event{Name: "calc.cs", Op: fsnotify.Write}))
	require.True(t, relevantChange(fsnotify.Event{Name: "calc.cs", Op: fsnotify.Create}))
	require.False(t, relevantChange(fsnotify.Event{Name: "calc.ts", Op: fsnotify.Write}))
	require.False(t, relevantChange(fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}))
	require.False(t, relevantChange(fsnotify.Event{Name: "calc.cs", Op: fsnotify.Chmod}))
}

func TestDebounceWindow(t *testing.T) {
	require.Equal(t, 250*time.Millisecond, debounceWindow(nil))
	cfg := DefaultConfig()
	cfg.DebounceMs = 40
	require.Equal(t, 40*time.Millisecond, debounceWindow(cfg))
}
