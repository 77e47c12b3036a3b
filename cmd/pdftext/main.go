package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joseph-ayodele/bol-extractor/constants"
	"github.com/joseph-ayodele/bol-extractor/internal/app"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/pdftext"
)

func main() {
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.Log, os.Stderr)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "pdftext <file.pdf>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	extractor := pdftext.NewExtractor(pdftext.Config{
		Pdftotext:   cfg.PDF.Pdftotext,
		CLIFallback: cfg.PDF.CLIFallback,
		MaxPages:    cfg.PDF.MaxPages,
	}, logger)
	res, err := extractor.ExtractFile(ctx, os.Args[1])
	if err != nil {
		logger.Error("text extraction failed", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	if res.Confidence < constants.TextConfidenceThreshold {
		logger.Warn("text carries few bill of lading markers", "confidence", res.Confidence)
	}
	for _, w := range res.Warnings {
		logger.Warn("extraction warning", "warning", w)
	}
	logger.Info("text extracted",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	fmt.Println(res.Text)
}
