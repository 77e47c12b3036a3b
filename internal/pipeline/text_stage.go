package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bol-extractor/constants"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/pdftext"
	"github.com/joseph-ayodele/bol-extractor/internal/repository"
)

// TextExtractor turns PDF bytes into text. *pdftext.Extractor implements it.
type TextExtractor interface {
	Extract(ctx context.Context, content []byte) (pdftext.Result, error)
}

type TextStage struct {
	JobsRepo      repository.ExtractJobRepository // optional
	TextExtractor TextExtractor
	Logger        *slog.Logger
}

func NewTextStage(jobs repository.ExtractJobRepository, tx TextExtractor, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{JobsRepo: jobs, TextExtractor: tx, Logger: logger}
}

// Run starts an extract_job when a job log is configured, extracts the text
// layer and persists it. The record is NOT parsed here.
// The returned job ID is uuid.Nil without a job log.
func (s *TextStage) Run(ctx context.Context, filename string, content []byte) (uuid.UUID, pdftext.Result, error) {
	jobID := uuid.Nil
	if s.JobsRepo != nil {
		job, err := s.JobsRepo.Start(ctx, filename, ContentHash(content), constants.PDF)
		if err != nil {
			return uuid.Nil, pdftext.Result{}, err
		}
		jobID = job.ID
		ctx = common.WithJobID(ctx, jobID.String())
	}

	res, err := s.TextExtractor.Extract(ctx, content)
	if err != nil {
		s.fail(ctx, jobID, err)
		return jobID, res, common.NewAppError("EXTRACTION_ERROR", err.Error(), fmt.Errorf("%w: %v", common.ErrExtraction, err))
	}

	if res.Text != "" && res.Confidence < constants.TextConfidenceThreshold {
		s.Logger.Warn("extracted text carries few bill of lading markers",
			"filename", filename, "job_id", jobID, "conf", res.Confidence)
	}

	if s.JobsRepo != nil {
		if err := s.JobsRepo.FinishText(ctx, jobID, res.Text, res.Method, res.Pages, res.Confidence); err != nil {
			return jobID, res, err
		}
	}
	return jobID, res, nil
}

func (s *TextStage) fail(ctx context.Context, jobID uuid.UUID, cause error) {
	if s.JobsRepo == nil || jobID == uuid.Nil {
		return
	}
	if err := s.JobsRepo.FinishFailure(ctx, jobID, cause.Error()); err != nil {
		s.Logger.Error("failed to record job failure", "job_id", jobID, "error", err)
	}
}

// ContentHash is the hex sha256 of content, used to recognize repeated uploads.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
