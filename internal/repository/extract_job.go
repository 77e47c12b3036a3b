package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/bol-extractor/constants"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/entity"
)

const extractJobTable = "extract_job"

// fixed width so lexical order of the column equals time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var extractJobColumns = []string{
	"id", "filename", "content_hash", "format", "status", "started_at", "finished_at",
	"error_message", "text_method", "pages", "confidence", "extracted_text", "extracted_json", "warnings",
}

// ListFilter narrows List; zero values mean no filter.
type ListFilter struct {
	Status string
	Limit  int
}

type ExtractJobRepository interface {
	Start(ctx context.Context, filename, contentHash, format string) (*entity.ExtractJob, error)
	FinishText(ctx context.Context, jobID uuid.UUID, text, method string, pages int, confidence float32) error
	FinishParse(ctx context.Context, jobID uuid.UUID, resultJSON []byte, warnings []string) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	List(ctx context.Context, filter ListFilter) ([]entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log, now: time.Now}
}

func (r *extractJobRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect)
}

func (r *extractJobRepo) stamp() string {
	return r.now().UTC().Format(timeLayout)
}

func (r *extractJobRepo) Start(ctx context.Context, filename, contentHash, format string) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{
		ID:          uuid.New(),
		Filename:    filename,
		ContentHash: contentHash,
		Format:      format,
		Status:      string(constants.JobStatusRunning),
	}
	started := r.stamp()
	job.StartedAt, _ = time.Parse(timeLayout, started)

	q, args := r.builder().Insert(extractJobTable).
		Columns("id", "filename", "content_hash", "format", "status", "started_at").
		Values(job.ID.String(), filename, contentHash, format, job.Status, started).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("extract_job start failed", "filename", filename, "err", err)
		return nil, fmt.Errorf("%w: start job: %v", common.ErrDatabase, err)
	}
	r.log.Info("extract_job started", "job_id", job.ID, "filename", filename, "format", format)
	return job, nil
}

func (r *extractJobRepo) FinishText(ctx context.Context, jobID uuid.UUID, text, method string, pages int, confidence float32) error {
	q, args := r.builder().Update(extractJobTable).
		Set("extracted_text", text).
		Set("text_method", method).
		Set("pages", pages).
		Set("confidence", float64(confidence)).
		Set("status", string(constants.JobStatusTextOK)).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	if err := r.exec(ctx, jobID, q, args); err != nil {
		r.log.Error("extract_job finish(TEXT_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job text extracted", "job_id", jobID, "method", method, "pages", pages)
	return nil
}

func (r *extractJobRepo) FinishParse(ctx context.Context, jobID uuid.UUID, resultJSON []byte, warnings []string) error {
	if warnings == nil {
		warnings = []string{}
	}
	w, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	q, args := r.builder().Update(extractJobTable).
		Set("extracted_json", string(resultJSON)).
		Set("warnings", string(w)).
		Set("finished_at", r.stamp()).
		Set("status", string(constants.JobStatusParsed)).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	if err := r.exec(ctx, jobID, q, args); err != nil {
		r.log.Error("extract_job finish(PARSED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (PARSED)", "job_id", jobID, "warnings", len(warnings))
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	q, args := r.builder().Update(extractJobTable).
		Set("finished_at", r.stamp()).
		Set("status", string(constants.JobStatusFailed)).
		Set("error_message", message).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	if err := r.exec(ctx, jobID, q, args); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) exec(ctx context.Context, jobID uuid.UUID, q string, args []any) error {
	var res sql.Result
	if err := r.db.Driver.Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("extract_job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	q, args := r.builder().Select(extractJobColumns...).
		From(entsql.Table(extractJobTable)).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	jobs, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("extract_job %s: %w", jobID, common.ErrNotFound)
	}
	return &jobs[0], nil
}

// List returns jobs newest first. The limit defaults to 50 and is capped at 500.
func (r *extractJobRepo) List(ctx context.Context, filter ListFilter) ([]entity.ExtractJob, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	sel := r.builder().Select(extractJobColumns...).
		From(entsql.Table(extractJobTable)).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit)
	if filter.Status != "" {
		sel = sel.Where(entsql.EQ("status", filter.Status))
	}
	q, args := sel.Query()
	return r.query(ctx, q, args)
}

func (r *extractJobRepo) query(ctx context.Context, q string, args []any) ([]entity.ExtractJob, error) {
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.log.Warn("extract_job rows close failed", "err", err)
		}
	}()

	var out []entity.ExtractJob
	for rows.Next() {
		job, err := scanJob(&rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan extract_job: %v", common.ErrDatabase, err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func scanJob(rows *entsql.Rows) (entity.ExtractJob, error) {
	var (
		job                                                  entity.ExtractJob
		id, startedAt                                        string
		finishedAt, errMsg, method, text, resultJSON, warnJS sql.NullString
		pages                                                sql.NullInt64
		conf                                                 sql.NullFloat64
	)
	if err := rows.Scan(&id, &job.Filename, &job.ContentHash, &job.Format, &job.Status, &startedAt,
		&finishedAt, &errMsg, &method, &pages, &conf, &text, &resultJSON, &warnJS); err != nil {
		return job, err
	}

	var err error
	if job.ID, err = uuid.Parse(id); err != nil {
		return job, fmt.Errorf("parse id: %w", err)
	}
	if job.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return job, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return job, fmt.Errorf("parse finished_at: %w", err)
		}
		job.FinishedAt = &t
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if method.Valid {
		job.TextMethod = &method.String
	}
	if pages.Valid {
		n := int(pages.Int64)
		job.Pages = &n
	}
	if conf.Valid {
		c := float32(conf.Float64)
		job.Confidence = &c
	}
	if text.Valid {
		job.ExtractedText = &text.String
	}
	if resultJSON.Valid && resultJSON.String != "" {
		job.ExtractedJSON = json.RawMessage(resultJSON.String)
	}
	if warnJS.Valid && warnJS.String != "" {
		if err := json.Unmarshal([]byte(warnJS.String), &job.Warnings); err != nil {
			return job, fmt.Errorf("parse warnings: %w", err)
		}
	}
	return job, nil
}

// IsNotFound reports whether err means the job does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
