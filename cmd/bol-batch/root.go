package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bol-extractor/internal/app"
	"github.com/joseph-ayodele/bol-extractor/internal/async"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/export"
	"github.com/joseph-ayodele/bol-extractor/internal/ingest"
	"github.com/joseph-ayodele/bol-extractor/internal/repository"
)

// maxExportedJobs matches the job log's List cap.
const maxExportedJobs = 500

type options struct {
	dir        string
	out        string
	workers    int
	timeout    time.Duration
	inmem      bool
	hidden     bool
	watch      bool
	debounce   time.Duration
	exportJobs bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "bol-batch --dir <dir> [--out shipments.xlsx]",
		Short: "Extract shipment records from every Bill of Lading PDF in a directory",
		Long: `bol-batch walks a directory for PDFs (hidden entries skipped, duplicate
content processed once), extracts each document with a bounded worker pool and
writes a workbook with Shipments and Containers sheets.

With DB_URL set (or --inmem) every document is also recorded in the job log.
With --watch it keeps processing new PDFs until interrupted, then writes the workbook.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", "", "directory to process Bill of Lading PDFs from (required)")
	f.StringVar(&opts.out, "out", "", "output XLSX file path (defaults to <dir>/../shipments.xlsx)")
	f.IntVar(&opts.workers, "workers", 4, "number of concurrent workers")
	f.DurationVar(&opts.timeout, "timeout", 3*time.Minute, "per-document processing timeout")
	f.BoolVar(&opts.inmem, "inmem", false, "use an in-memory SQLite job log")
	f.BoolVar(&opts.hidden, "include-hidden", false, "also process hidden files and directories")
	f.BoolVar(&opts.watch, "watch", false, "keep watching the directory for new PDFs")
	f.DurationVar(&opts.debounce, "debounce", 2*time.Second, "quiet period before a watched file is processed")
	f.BoolVar(&opts.exportJobs, "from-jobs", false, "export every parsed job in the job log instead of this run's files")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

// collector keeps the completed documents of a run, keyed by path.
type collector struct {
	mu   sync.Mutex
	docs map[string]export.Document
	ok   int
	fail int
}

func (c *collector) add(comp async.Completion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc := export.Document{Source: comp.Job.Path, Result: comp.Outcome.Result}
	if comp.Err != nil {
		doc.Err = common.PublicMessage(comp.Err)
		c.fail++
	} else {
		c.ok++
	}
	c.docs[comp.Job.Path] = doc
}

func (c *collector) sorted() []export.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]export.Document, 0, len(c.docs))
	for _, d := range c.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

func run(ctx context.Context, opts options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	if opts.out == "" {
		opts.out = filepath.Join(filepath.Dir(filepath.Clean(opts.dir)), "shipments.xlsx")
	}

	db, err := app.InitDatabase(ctx, cfg.Database, opts.inmem, logger)
	if err != nil {
		return fmt.Errorf("open job log: %w", err)
	}
	defer db.Close()
	if opts.exportJobs && db.Jobs == nil {
		return errors.New("--from-jobs needs DB_URL or --inmem")
	}

	recognizer, err := app.NewRecognizer(cfg, logger)
	if err != nil {
		return err
	}
	processor := app.NewProcessor(cfg, app.NewEngine(cfg, recognizer, logger), db.Jobs, logger)
	exporter := export.NewService(db.Jobs, logger)

	results := &collector{docs: map[string]export.Document{}}
	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(opts.workers),
		async.WithQueueSize(opts.workers*4),
		async.WithProcessTimeout(opts.timeout),
		async.WithOnDone(results.add),
	)

	dedup := ingest.NewDedup()
	ingestOpts := ingest.Options{SkipHidden: !opts.hidden}
	files, stats, err := ingest.ScanDirectory(ctx, opts.dir, ingestOpts, dedup)
	if err != nil {
		queue.Shutdown(context.Background())
		return fmt.Errorf("scan %s: %w", opts.dir, err)
	}
	logger.Info("scan complete",
		"dir", opts.dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	for _, f := range files {
		if f.Err != "" || f.Deduplicated {
			if f.Deduplicated {
				logger.Info("skipping duplicate content", "path", f.Path, "sha256", f.HashHex)
			}
			continue
		}
		if err := queue.Enqueue(ctx, async.NewJob(f.Path)); err != nil {
			queue.Shutdown(context.Background())
			return err
		}
	}

	if opts.watch {
		if err := watch(ctx, opts, ingestOpts, dedup, queue, logger); err != nil {
			queue.Shutdown(context.Background())
			return err
		}
	}
	queue.Shutdown(context.Background())

	if err := writeWorkbook(ctx, opts, exporter, results); err != nil {
		return err
	}
	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files processed: %d\n", results.ok)
	fmt.Printf("- Failures: %d\n", results.fail)
	fmt.Printf("- Duplicates skipped: %d\n", stats.Deduplicated)
	fmt.Printf("- Output: %s\n", opts.out)
	return nil
}

// watch enqueues new, not yet seen PDFs until ctx is cancelled.
func watch(ctx context.Context, opts options, ingestOpts ingest.Options, dedup *ingest.Dedup, queue async.Queue, logger *slog.Logger) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    []string{opts.dir},
		Options:  ingestOpts,
		Debounce: opts.debounce,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", opts.dir, err)
	}
	logger.Info("watching for new documents", "dir", opts.dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if ok {
				logger.Warn("watcher error", "error", err)
			}
		case path, ok := <-events:
			if !ok {
				return nil
			}
			hash, _, err := ingest.HashFile(path)
			if err != nil {
				logger.Warn("cannot read new file", "path", path, "error", err)
				continue
			}
			if first, dup := dedup.Observe(hash, path); dup {
				logger.Info("skipping duplicate content", "path", path, "same_as", first)
				continue
			}
			if err := queue.Enqueue(ctx, async.NewJob(path)); err != nil {
				return err
			}
		}
	}
}

func writeWorkbook(ctx context.Context, opts options, exporter *export.Service, results *collector) error {
	var (
		data []byte
		err  error
	)
	// the signal context may already be done; the export itself must still run
	ctx = context.WithoutCancel(ctx)
	if opts.exportJobs {
		data, err = exporter.ExportJobsXLSX(ctx, repository.ListFilter{Limit: maxExportedJobs})
	} else {
		data, err = exporter.ExportShipmentsXLSX(ctx, results.sorted())
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	return nil
}
