package translator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	sourceExt = ".cs"
	targetExt = ".ts"
)

// Options configures one batch translation pass.
type Options struct {
	// SourceDir is the root scanned recursively for source files.
	SourceDir string
	// OutputDir receives one target file per source file, mirroring the
	// relative layout. Created on demand.
	OutputDir string
	// Config is the translation policy; nil uses DefaultConfig.
	Config *Config
	// Concurrency bounds parallel per-file translation; <= 0 uses NumCPU.
	Concurrency int
}

// FileFailure records one file that could not be translated or written.
type FileFailure struct {
	Path string
	Err  error
}

// BatchResult summarizes one pass over the source directory.
type BatchResult struct {
	// Translated lists output paths written this pass.
	Translated []string
	// Failed lists per-file failures: front-end errors and I/O errors.
	// Failures never abort the rest of the batch.
	Failed []FileFailure
}

// Err returns a non-nil error when any file failed, for the CLI exit code.
// The batch itself still translated everything it could.
func (r *BatchResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d file(s) failed to translate", len(r.Failed))
}

// RunBatch enumerates the source tree, builds one shared type-resolution
// context spanning every file (so cross-file member calls resolve), then
// translates each file independently and writes a sibling output file with
// the target extension.
func RunBatch(ctx context.Context, opts Options) (*BatchResult, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}

	paths, err := sourceFiles(opts.SourceDir)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}

	// Parse everything up front: the type context must span all files
	// before any single file translates.
	units := make([]*TranslationUnit, 0, len(paths))
	for _, path := range paths {
		unit, err := ParseFile(ctx, path)
		if err != nil {
			log.WithFields(log.Fields{"file": path, "error": err}).Error("parse failed")
			result.Failed = append(result.Failed, FileFailure{Path: path, Err: err})
			continue
		}
		if unit.Fatal {
			err := fmt.Errorf("%w: %s: %s", ErrFrontend, path, strings.Join(unit.Diagnostics, "; "))
			log.WithFields(log.Fields{"file": path, "error": err}).Error("front-end rejected file")
			result.Failed = append(result.Failed, FileFailure{Path: path, Err: err})
			unit.Close()
			continue
		}
		units = append(units, unit)
	}
	defer func() {
		for _, unit := range units {
			unit.Close()
		}
	}()

	types := NewTypeContext()
	for _, unit := range units {
		types.AddUnit(unit)
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	// Translation has no shared mutable state once the context is built;
	// fan out per file.
	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for _, unit := range units {
		unit := unit
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outPath, err := translateToFile(unit, types, cfg, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithFields(log.Fields{"file": unit.Path, "error": err}).Error("translation failed")
				result.Failed = append(result.Failed, FileFailure{Path: unit.Path, Err: err})
				return nil
			}
			result.Translated = append(result.Translated, outPath)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return result, err
	}

	log.WithFields(log.Fields{
		"translated": len(result.Translated),
		"failed":     len(result.Failed),
	}).Info("batch complete")
	return result, nil
}

func translateToFile(unit *TranslationUnit, types *TypeContext, cfg *Config, opts Options) (string, error) {
	output, err := Translate(unit, types, cfg)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(opts.SourceDir, unit.Path)
	if err != nil {
		rel = filepath.Base(unit.Path)
	}
	outPath := filepath.Join(opts.OutputDir, strings.TrimSuffix(rel, sourceExt)+targetExt)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	// Plain overwrite; the output directory tolerates file-by-file rewrites.
	if err := os.WriteFile(outPath, []byte(output), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}

	if DebugMode {
		log.WithFields(log.Fields{"in": unit.Path, "out": outPath}).Debug("translated")
	}
	return outPath, nil
}

func sourceFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == sourceExt {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return paths, nil
}
