// Package scanner walks a source tree and runs the syntax visitor and the text
// scanner over every matching file.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/ppiankov/codespectre/internal/aggregator"
	"github.com/ppiankov/codespectre/internal/models"
	"github.com/ppiankov/codespectre/internal/patterns"
	"github.com/ppiankov/codespectre/internal/syntax"
	"github.com/ppiankov/codespectre/internal/textscan"
	"go.uber.org/zap"
)

// Config holds configuration for the scanner
type Config struct {
	Include          []string
	Exclude          []string
	MaxConcurrency   int
	ProgressInterval int
	Library          *patterns.Library
	Whitelist        *patterns.Whitelist
	Logger           *zap.Logger
}

// Scanner produces a Report for a directory tree. A Scanner may be reused
// for several scans.
type Scanner struct {
	config  Config
	include []glob
	exclude []glob
	visitor *syntax.Visitor
	text    *textscan.Scanner
	log     *zap.Logger
}

// New creates a scanner, filling defaults and compiling globs.
func New(config Config) (*Scanner, error) {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = runtime.NumCPU()
	}
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = 50
	}
	if config.Library == nil {
		config.Library = patterns.Default()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	include, err := compileGlobs(config.Include)
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	exclude, err := compileGlobs(config.Exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}

	return &Scanner{
		config:  config,
		include: include,
		exclude: exclude,
		visitor: syntax.NewVisitor(config.Library, config.Whitelist),
		text:    textscan.ForLibrary(config.Library),
		log:     config.Logger,
	}, nil
}

type fileEntry struct {
	abs string
	rel string
}

type indexedResult struct {
	idx    int
	issues []models.Issue
}

// Scan walks root in lexical pre-order and analyzes every included file not
// matched by an exclude glob. excludeGlobs are added to the configured ones.
//
// Cancelling ctx stops dispatching new files. Files already being analyzed
// finish and the returned report is marked partial. An error is returned only
// when the scan cannot run at all.
func (s *Scanner) Scan(ctx context.Context, root string, excludeGlobs []string) (*models.Report, error) {
	started := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}

	exclude := s.exclude
	if len(excludeGlobs) > 0 {
		extra, err := compileGlobs(excludeGlobs)
		if err != nil {
			return nil, fmt.Errorf("exclude patterns: %w", err)
		}
		exclude = append(append([]glob(nil), s.exclude...), extra...)
	}

	files, interrupted, err := s.discover(ctx, root, info.IsDir(), exclude)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	s.log.Info("scan started", zap.String("root", root), zap.Int("files", len(files)),
		zap.Int("workers", s.config.MaxConcurrency))

	ordered, processed := s.analyzeAll(ctx, files)

	report := &models.Report{
		ScanTimestamp:     started.UTC(),
		RootPath:          root,
		TotalFilesScanned: processed,
		WhitelistApplied:  s.config.Whitelist.Applied(),
		Partial:           interrupted || processed < len(files),
	}
	for _, res := range ordered {
		report.Issues = append(report.Issues, res.issues...)
	}
	aggregator.Finalize(report)
	report.ScanDurationSeconds = time.Since(started).Seconds()

	if report.Partial {
		s.log.Warn("scan interrupted", zap.Int("processed", processed), zap.Int("discovered", len(files)))
	}
	s.log.Info("scan finished",
		zap.Int("files", processed),
		zap.Int("issues", len(report.Issues)),
		zap.Float64("score", report.ValidationScore),
		zap.Float64("duration_seconds", report.ScanDurationSeconds))

	return report, nil
}

// discover lists candidate files. filepath.WalkDir visits entries in lexical
// order, which makes the result reproducible for an unchanged tree.
func (s *Scanner) discover(ctx context.Context, root string, isDir bool, exclude []glob) ([]fileEntry, bool, error) {
	if !isDir {
		base := filepath.Base(root)
		if s.included(base, base) && !excluded(exclude, base, base, false) {
			return []fileEntry{{abs: root, rel: base}}, false, nil
		}
		return nil, false, nil
	}

	var files []fileEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			// unreadable entry below root: skip it and keep walking
			s.log.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		base := d.Name()

		if d.IsDir() {
			if excluded(exclude, rel, base, true) {
				s.log.Debug("excluded directory", zap.String("path", rel))
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !s.included(rel, base) || excluded(exclude, rel, base, false) {
			return nil
		}
		files = append(files, fileEntry{abs: path, rel: rel})
		return nil
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return files, true, nil
	}
	return files, false, err
}

func (s *Scanner) included(rel, base string) bool {
	if len(s.include) == 0 {
		return true
	}
	for _, g := range s.include {
		if g.match(rel, base) {
			return true
		}
	}
	return false
}

// analyzeAll runs a bounded worker pool and merges results back into
// discovery order through a single collector.
func (s *Scanner) analyzeAll(ctx context.Context, files []fileEntry) ([]indexedResult, int) {
	jobs := make(chan int)
	resultCh := make(chan indexedResult, s.config.MaxConcurrency)

	var wg sync.WaitGroup
	for i := 0; i < s.config.MaxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				resultCh <- indexedResult{idx: idx, issues: s.analyze(files[idx])}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for idx := range files {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var results []indexedResult
	for res := range resultCh {
		results = append(results, res)
		if n := len(results); n%s.config.ProgressInterval == 0 {
			s.log.Info("scan progress", zap.Int("processed", n), zap.Int("total", len(files)))
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].idx < results[j].idx })
	return results, len(results)
}

func (s *Scanner) analyze(f fileEntry) []models.Issue {
	data, err := os.ReadFile(f.abs)
	if err != nil {
		s.log.Warn("cannot read file", zap.String("path", f.rel), zap.Error(err))
		return []models.Issue{textscan.ReadError(f.rel, err)}
	}
	issues := s.visitor.Visit(f.rel, data)
	issues = append(issues, s.text.Scan(f.rel, data)...)
	s.log.Debug("file analyzed", zap.String("path", f.rel), zap.Int("issues", len(issues)))
	return issues
}
