// Package pipeline runs the two stages of a document: text extraction and
// record parsing, advancing the optional extract_job row along the way.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bol-extractor/internal/bol"
	"github.com/joseph-ayodele/bol-extractor/internal/pdftext"
)

// Outcome is everything known about one processed PDF.
type Outcome struct {
	JobID  uuid.UUID
	Text   pdftext.Result
	Result bol.Result
}

// Processor coordinates text extraction then record parsing.
type Processor struct {
	Logger *slog.Logger
	Text   *TextStage
	Parse  *ParseStage
}

func NewProcessor(logger *slog.Logger, text *TextStage, parse *ParseStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Text: text, Parse: parse}
}

// ProcessPDF extracts the text layer of content and parses it.
// A PDF without text yields an empty record, not an error.
func (p *Processor) ProcessPDF(ctx context.Context, filename string, content []byte) (Outcome, error) {
	jobID, txt, err := p.Text.Run(ctx, filename, content)
	out := Outcome{JobID: jobID, Text: txt}
	if err != nil {
		p.Logger.Error("processor text failed", "filename", filename, "job_id", jobID, "error", err)
		return out, err
	}
	p.Logger.Debug("processor text ok",
		"filename", filename,
		"job_id", jobID,
		"method", txt.Method,
		"pages", txt.Pages,
		"confidence", txt.Confidence,
	)

	out.Result, err = p.Parse.Run(ctx, jobID, txt.Text)
	if err != nil {
		p.Logger.Error("processor parse failed", "job_id", jobID, "error", err)
		return out, err
	}
	p.Logger.Info("processor parse ok",
		"filename", filename,
		"job_id", jobID,
		"containers", len(out.Result.Containers),
		"warnings", len(out.Result.Warnings),
	)
	return out, nil
}

// ProcessText parses already extracted text. No job is recorded.
func (p *Processor) ProcessText(ctx context.Context, text string) bol.Result {
	res, _ := p.Parse.Run(ctx, uuid.Nil, text)
	return res
}
