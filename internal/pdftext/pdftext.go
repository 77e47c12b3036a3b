// Package pdftext reads the text layer of PDF documents. It never rasterizes:
// a PDF without a text layer yields empty text, not an error.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Extraction methods
const (
	MethodTextLayer = "pdf-text"
	MethodPdftotext = "pdftotext"
)

// ErrEmptyDocument is returned for zero-length input.
var ErrEmptyDocument = errors.New("empty PDF content")

type Config struct {
	Pdftotext   string // binary name or absolute path; if empty -> "pdftotext"
	CLIFallback bool   // retry with pdftotext when the built-in reader fails or finds no text
	MaxPages    int    // 0 = no limit
}

type Result struct {
	Text       string
	Pages      int
	Method     string // MethodTextLayer | MethodPdftotext
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: popplerRunner{logger: logger}, logger: logger}
}

// WithRunner replaces the external command runner.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	cp := *e
	cp.runner = r
	return &cp
}

// ExtractFile reads path and extracts its text layer.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read pdf: %w", err)
	}
	return e.Extract(ctx, content)
}

// Extract returns the per-page text joined with "\n", skipping pages without text.
func (e *Extractor) Extract(ctx context.Context, content []byte) (Result, error) {
	start := time.Now()
	if len(content) == 0 {
		return Result{}, ErrEmptyDocument
	}
	e.logger.Debug("starting pdf text extraction", "bytes", len(content), "max_pages", e.cfg.MaxPages)

	res, err := e.textLayer(content)
	switch {
	case err != nil && e.cfg.CLIFallback:
		e.logger.Warn("pdf text layer read failed, trying pdftotext", "error", err)
		cli, cliErr := e.pdftotext(ctx, content)
		if cliErr != nil {
			return Result{Duration: time.Since(start)}, fmt.Errorf("read pdf: %w", errors.Join(err, cliErr))
		}
		cli.Warnings = append(cli.Warnings, "text layer: "+err.Error())
		res = cli
	case err != nil:
		return Result{Duration: time.Since(start)}, fmt.Errorf("read pdf: %w", err)
	case res.Text == "" && e.cfg.CLIFallback:
		cli, cliErr := e.pdftotext(ctx, content)
		if cliErr != nil {
			res.Warnings = append(res.Warnings, "pdftotext: "+cliErr.Error())
		} else if cli.Text != "" {
			res = cli
		}
	}

	if res.Text == "" {
		res.Warnings = append(res.Warnings, "no extractable text")
	}
	res.Confidence = heuristicConfidence(res.Text)
	res.Duration = time.Since(start)
	e.logger.Info("pdf text extracted",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
