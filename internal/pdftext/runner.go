package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/joseph-ayodele/bol-extractor/internal/common"
)

// ErrPdftotextMissing is returned when the poppler binary is not installed.
var ErrPdftotextMissing = errors.New("pdftotext not found")

// Runner lets us stub the pdftotext binary in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return f(ctx, name, args...)
}

// popplerRunner executes pdftotext and reports failures per job.
type popplerRunner struct {
	logger *slog.Logger
}

func (r popplerRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	log := r.logger.With(
		"request_id", common.RequestIDFromContext(ctx),
		"job_id", common.JobIDFromContext(ctx),
		"bin", name,
	)
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := classifyExit(ctx, cmd.Run())
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		log.Error("pdftext.pdftotext.failed",
			"elapsed_ms", elapsed,
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
		return out.Bytes(), errb.Bytes(), err
	}
	log.Debug("pdftext.pdftotext.ok",
		"elapsed_ms", elapsed,
		"text_bytes", out.Len(),
		"pages", bytes.Count(out.Bytes(), []byte{'\f'}),
	)
	return out.Bytes(), errb.Bytes(), nil
}

// classifyExit maps exec failures onto errors a caller can branch on.
func classifyExit(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrPdftotextMissing, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("pdftotext interrupted: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// poppler: 1 open error, 2 output error, 3 permissions
		return fmt.Errorf("pdftotext exit %d: %w", exitErr.ExitCode(), err)
	}
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
