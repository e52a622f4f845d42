// Package engine orchestrates extraction: it classifies each input file as
// script text or a compiled container, runs the matching pipeline across a
// worker pool and folds everything into one deduplicated store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/slden26/RenLocalizer-UA/internal/datafile"
	"github.com/slden26/RenLocalizer-UA/internal/diag"
	"github.com/slden26/RenLocalizer-UA/internal/entry"
	"github.com/slden26/RenLocalizer-UA/internal/parser"
	"github.com/slden26/RenLocalizer-UA/internal/policy"
	"github.com/slden26/RenLocalizer-UA/internal/rpyc"
	"github.com/slden26/RenLocalizer-UA/internal/worker"
)

// Engine runs the extraction pipeline.
type Engine struct {
	parser    *parser.Parser
	extractor *rpyc.Extractor
	datafiles *datafile.Extractor
	workers   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets pool concurrency.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New builds an engine around one policy. tabWidth, ceiling and depth tune
// the two pipelines.
func New(pol *policy.Policy, tabWidth int, ceiling int64, depth int, opts ...Option) *Engine {
	e := &Engine{
		parser: parser.New(pol, parser.WithTabWidth(tabWidth)),
		extractor: rpyc.NewExtractor(pol,
			rpyc.WithDecompressionCeiling(ceiling),
			rpyc.WithMaxDepth(depth)),
		datafiles: datafile.NewExtractor(),
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the aggregate of one run.
type Result struct {
	Store  *entry.Store
	Report *diag.Report
}

// Run extracts every file and merges the outputs. Cancellation lets in-flight
// files finish; files never started are reported as skipped, not failed.
func (e *Engine) Run(ctx context.Context, files []string) *Result {
	store := entry.NewStore()
	report := diag.NewReport()

	pool := worker.NewPool(e.workers, e.processFile)
	outcomes := pool.Execute(ctx, files)

	for _, out := range outcomes {
		if out.Result == nil {
			if out.Err == nil {
				continue // never started
			}
			if errors.Is(out.Err, context.Canceled) || errors.Is(out.Err, context.DeadlineExceeded) {
				continue // cancelled before extraction, skipped rather than failed
			}
			fr := &diag.FileReport{File: out.Input, Failed: true}
			fr.Warnings = append(fr.Warnings, failureWarning(out.Input, out.Err))
			report.Merge(fr)
			continue
		}
		for _, en := range out.Result.Entries {
			store.Insert(en)
		}
		report.Merge(out.Result.Report)
	}
	report.TotalMerged = store.Merged()

	log.Info().Int("files", len(files)).Int("entries", store.Len()).
		Int("merged", store.Merged()).Int("failed", report.FailedFiles).
		Msg("Extraction finished")
	return &Result{Store: store, Report: report}
}

// FileOutput is one file's extraction product.
type FileOutput struct {
	Entries []entry.Entry
	Report  *diag.FileReport
}

func (e *Engine) processFile(ctx context.Context, path string) (*FileOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if compiled(path, data) {
		return e.extractCompiled(data, path)
	}
	if datafile.Supported(strings.ToLower(filepath.Ext(path))) {
		return e.extractData(data, path)
	}
	return e.extractText(data, path), nil
}

// ExtractText runs the script pipeline over one buffer.
func (e *Engine) ExtractText(src, file string) *FileOutput {
	return e.extractText([]byte(src), file)
}

func (e *Engine) extractText(data []byte, file string) *FileOutput {
	res := e.parser.Parse(string(data), file)
	return &FileOutput{Entries: res.Entries, Report: res.Report}
}

func (e *Engine) extractData(data []byte, file string) (*FileOutput, error) {
	fr := &diag.FileReport{File: file}
	entries, err := e.datafiles.Extract(data, file)
	if err != nil {
		fr.Failed = true
		fr.Warnings = append(fr.Warnings, diag.Warning{
			Kind: diag.FormatFailure, File: file, Reason: err.Error(),
		})
		log.Error().Str("file", file).Err(err).Msg("Data file unreadable")
		return &FileOutput{Report: fr}, nil
	}
	fr.Extracted = len(entries)
	return &FileOutput{Entries: entries, Report: fr}, nil
}

func (e *Engine) extractCompiled(data []byte, file string) (*FileOutput, error) {
	fr := &diag.FileReport{File: file}
	entries, err := e.extractor.Extract(data, file, fr)
	if err != nil {
		fr.Failed = true
		fr.Warnings = append(fr.Warnings, failureWarning(file, err))
		var se *rpyc.SecurityError
		if errors.As(err, &se) {
			log.Error().Str("file", file).Err(err).Msg("Container rejected by restricted reader")
		} else {
			log.Error().Str("file", file).Err(err).Msg("Container unreadable")
		}
		return &FileOutput{Report: fr}, nil
	}
	return &FileOutput{Entries: entries, Report: fr}, nil
}

// compiled classifies a file by extension first, then by sniffing the
// container magic so misnamed archives still take the compiled path.
func compiled(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rpyc", ".rpymc":
		return true
	}
	return len(data) >= len(rpyc.Magic) && string(data[:len(rpyc.Magic)]) == rpyc.Magic
}

func failureWarning(file string, err error) diag.Warning {
	kind := diag.FormatFailure
	var se *rpyc.SecurityError
	if errors.As(err, &se) {
		kind = diag.SecurityFailure
	}
	return diag.Warning{Kind: kind, File: file, Reason: err.Error()}
}
