// Package app wires configuration into the collaborators shared by the commands.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/bol-extractor/internal/bol"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/bol-extractor/internal/ner"
	"github.com/joseph-ayodele/bol-extractor/internal/pdftext"
	"github.com/joseph-ayodele/bol-extractor/internal/pipeline"
	"github.com/joseph-ayodele/bol-extractor/internal/repository"
)

// InMemoryDSN opens a throwaway SQLite job log.
const InMemoryDSN = ":memory:"

// NewLogger builds the slog logger selected by LOG_FORMAT (text|json) and LOG_LEVEL.
func NewLogger(cfg common.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Database is an open job log, or nothing when no DSN is configured.
type Database struct {
	DB   *repository.DB
	Jobs repository.ExtractJobRepository
}

// Close releases the database if one is open.
func (d *Database) Close() {
	if d != nil && d.DB != nil {
		d.DB.Close()
	}
}

// Health pings the database; nil when the job log is disabled.
func (d *Database) Health(ctx context.Context) error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.HealthCheck(ctx, 2*time.Second)
}

// InitDatabase opens and migrates the job log. inmem overrides the DSN with an
// in-memory SQLite database. Without a DSN the returned Database is empty.
func InitDatabase(ctx context.Context, cfg common.DatabaseConfig, inmem bool, logger *slog.Logger) (*Database, error) {
	if inmem {
		cfg.DSN = InMemoryDSN
	}
	if cfg.DSN == "" {
		logger.Info("job log disabled (no DB_URL)")
		return &Database{}, nil
	}
	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{DB: db, Jobs: repository.NewExtractJobRepository(db, logger)}, nil
}

// NewRecognizer returns the name recognizer selected by NER_MODE, nil for "off".
func NewRecognizer(cfg *common.Config, logger *slog.Logger) (ner.Recognizer, error) {
	switch cfg.Extraction.NERMode {
	case common.NERModeHeuristic, "":
		return ner.NewHeuristic(), nil
	case common.NERModeOff:
		return nil, nil
	case common.NERModeOpenAI:
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("NER_MODE=openai requires OPENAI_API_KEY")
		}
		return openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			Retries:     1,
			Lenient:     true,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown NER_MODE %q", cfg.Extraction.NERMode)
	}
}

// NewEngine builds the extraction engine for cfg around recognizer (nil: raw blocks only).
func NewEngine(cfg *common.Config, recognizer ner.Recognizer, logger *slog.Logger) *bol.Engine {
	return bol.NewEngine(
		bol.WithRecognizer(recognizer, cfg.Extraction.MinOrgConfidence),
		bol.WithCarrierPrefixes(cfg.Extraction.CarrierPrefixes...),
		bol.WithLogger(logger),
	)
}

// NewProcessor wires text extraction and parsing; jobs may be nil.
func NewProcessor(cfg *common.Config, engine *bol.Engine, jobs repository.ExtractJobRepository, logger *slog.Logger) *pipeline.Processor {
	extractor := pdftext.NewExtractor(pdftext.Config{
		Pdftotext:   cfg.PDF.Pdftotext,
		CLIFallback: cfg.PDF.CLIFallback,
		MaxPages:    cfg.PDF.MaxPages,
	}, logger)
	return pipeline.NewProcessor(logger,
		pipeline.NewTextStage(jobs, extractor, logger),
		pipeline.NewParseStage(engine, jobs, logger),
	)
}
