package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bol-extractor/internal/bol"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/repository"
)

type ParseStage struct {
	Engine   *bol.Engine
	JobsRepo repository.ExtractJobRepository // optional
	Logger   *slog.Logger
}

func NewParseStage(engine *bol.Engine, jobs repository.ExtractJobRepository, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = bol.NewEngine(bol.WithLogger(logger))
	}
	return &ParseStage{Engine: engine, JobsRepo: jobs, Logger: logger}
}

// Run extracts the shipment record from text and, for a logged job, stores
// the shaped result. Extraction itself never fails; only persistence can.
func (s *ParseStage) Run(ctx context.Context, jobID uuid.UUID, text string) (bol.Result, error) {
	if jobID != uuid.Nil {
		ctx = common.WithJobID(ctx, jobID.String())
	}
	res := bol.Shape(s.Engine.Extract(ctx, text))
	if s.JobsRepo == nil || jobID == uuid.Nil {
		return res, nil
	}

	raw, err := res.JSON()
	if err != nil {
		_ = s.JobsRepo.FinishFailure(ctx, jobID, err.Error())
		return res, fmt.Errorf("encode result: %w", err)
	}
	if err := s.JobsRepo.FinishParse(ctx, jobID, raw, res.Warnings); err != nil {
		return res, err
	}
	return res, nil
}
