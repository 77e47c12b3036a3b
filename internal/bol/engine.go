package bol

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/bol-extractor/internal/ner"
)

// rule fills one field of the record. Rules read the shared document only and
// do not depend on each other's output.
type rule struct {
	field string
	apply func(ctx context.Context, d *document, r *Record)
}

// Engine applies the field rules to normalized text. It is immutable after
// NewEngine and safe for concurrent use.
type Engine struct {
	names      NameExtractor
	recognizer ner.Recognizer
	minOrgConf float64
	prefixes   []string
	logger     *slog.Logger
	rules      []rule
}

// Option configures an Engine.
type Option func(*Engine)

// WithNameExtractor replaces the shipper/consignee name strategy.
func WithNameExtractor(n NameExtractor) Option {
	return func(e *Engine) { e.names = n }
}

// WithRecognizer sets the NER collaborator used ahead of the raw block.
// A nil recognizer keeps raw blocks only.
func WithRecognizer(r ner.Recognizer, minConfidence float64) Option {
	return func(e *Engine) {
		e.recognizer = r
		if minConfidence > 0 {
			e.minOrgConf = minConfidence
		}
	}
}

// WithCarrierPrefixes restricts unlabelled B/L numbers to the given prefixes.
func WithCarrierPrefixes(prefixes ...string) Option {
	return func(e *Engine) { e.prefixes = append([]string(nil), prefixes...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine builds an engine. Without options it uses the heuristic recognizer
// with raw-block fallback.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		recognizer: ner.NewHeuristic(),
		minOrgConf: DefaultMinOrgConfidence,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.names == nil {
		if e.recognizer != nil {
			e.names = FirstOf{
				EntityNames{Recognizer: e.recognizer, MinConfidence: e.minOrgConf, Logger: e.logger},
				RawBlock{},
			}
		} else {
			e.names = RawBlock{}
		}
	}
	e.rules = []rule{
		{field: "bill_of_lading_number", apply: e.billOfLading},
		{field: "shipper", apply: e.party(shipperBlock, func(r *Record, s string) { r.Shipper = &s })},
		{field: "consignee", apply: e.party(consigneeBlock, func(r *Record, s string) { r.Consignee = &s })},
		{field: "total_gross_weight", apply: totalGrossWeight},
		{field: "total_items", apply: totalItems},
		{field: "number_of_containers", apply: containerCount},
		{field: "containers", apply: containers},
	}
	return e
}

var defaultEngine = NewEngine()

// Extract runs the default engine. It is total and deterministic.
func Extract(raw string) Record {
	return defaultEngine.Extract(context.Background(), raw)
}

// Extract returns a fresh record for raw text. Absent fields stay nil; it never fails.
// ctx only bounds the name recognizer.
func (e *Engine) Extract(ctx context.Context, raw string) Record {
	var rec Record
	d := newDocument(Normalize(raw))
	if !d.empty() {
		for _, r := range e.rules {
			e.applyRule(ctx, r, d, &rec)
		}
	}
	finalize(&rec)
	return rec
}

func (e *Engine) applyRule(ctx context.Context, r rule, d *document, rec *Record) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.ErrorContext(ctx, "extraction rule panicked", "field", r.field, "panic", fmt.Sprint(p))
		}
	}()
	r.apply(ctx, d, rec)
}

func (e *Engine) billOfLading(_ context.Context, d *document, r *Record) {
	if code, ok := findBillOfLading(d, e.prefixes); ok {
		r.BillOfLadingNumber = strPtr(code)
	}
}

func (e *Engine) party(b blockRule, set func(*Record, string)) func(context.Context, *document, *Record) {
	return func(ctx context.Context, d *document, r *Record) {
		lines := b.capture(d)
		if len(lines) == 0 {
			return
		}
		if name, ok := e.names.ExtractName(ctx, lines); ok {
			set(r, name)
		}
	}
}

func totalGrossWeight(_ context.Context, d *document, r *Record) {
	if w, ok := findWeight(d); ok {
		r.TotalGrossWeight = &w
	}
}

func totalItems(_ context.Context, d *document, r *Record) {
	if n, ok := findItems(d); ok {
		r.TotalItems = intPtr(n)
	}
}

func containerCount(_ context.Context, d *document, r *Record) {
	if cm, ok := findContainerCount(d); ok {
		r.NumberOfContainers = intPtr(cm.count)
	}
}

func containers(_ context.Context, d *document, r *Record) {
	if cm, ok := findContainerCount(d); ok {
		r.Containers = findContainers(d, cm)
	}
}
