package pdftext

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// pdftotext runs poppler's pdftotext on a temporary copy of content.
func (e *Extractor) pdftotext(ctx context.Context, content []byte) (Result, error) {
	tmp, err := os.CreateTemp("", "bol-*.pdf")
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			e.logger.Warn("failed to remove temp file", "path", tmp.Name(), "error", err)
		}
	}()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return Result{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp file: %w", err)
	}

	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	args = append(args, tmp.Name(), "-")

	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w: %s", e.cfg.Pdftotext, err, truncate(strings.TrimSpace(string(errb)), 512))
	}

	// pages are separated by form feeds
	var pages []string
	raw := strings.Split(string(out), "\f")
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			pages = append(pages, p)
		}
	}
	count := len(raw)
	if count > 1 && strings.TrimSpace(raw[count-1]) == "" {
		count-- // trailing form feed after the last page
	}
	return Result{
		Text:   strings.Join(pages, "\n"),
		Pages:  count,
		Method: MethodPdftotext,
	}, nil
}
