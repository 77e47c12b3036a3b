package bol

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/bol-extractor/internal/ner"
)

// DefaultMinOrgConfidence is the confidence an ORG entity needs to replace the raw block.
const DefaultMinOrgConfidence = 0.8

// NameExtractor isolates a party name from the lines of a captured block.
type NameExtractor interface {
	ExtractName(ctx context.Context, lines []string) (string, bool)
}

// RawBlock keeps the captured block as-is, lines joined with ", ".
type RawBlock struct{}

func (RawBlock) ExtractName(_ context.Context, lines []string) (string, bool) {
	s := strings.TrimSpace(strings.Join(lines, ", "))
	return s, s != ""
}

// EntityNames returns the organization found by the recognizer when exactly one
// ORG entity reaches MinConfidence. Zero or several candidates yield no name.
type EntityNames struct {
	Recognizer    ner.Recognizer
	MinConfidence float64
	Logger        *slog.Logger
}

func (e EntityNames) ExtractName(ctx context.Context, lines []string) (string, bool) {
	if e.Recognizer == nil || len(lines) == 0 {
		return "", false
	}
	ents, err := e.Recognizer.Recognize(ctx, strings.Join(lines, "\n"))
	if err != nil {
		logger := e.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.WarnContext(ctx, "entity recognition failed, keeping raw block", "error", err)
		return "", false
	}
	minConf := e.MinConfidence
	if minConf <= 0 {
		minConf = DefaultMinOrgConfidence
	}
	orgs := ner.Orgs(ents, minConf)
	if len(orgs) != 1 {
		return "", false
	}
	return orgs[0].Text, true
}

// FirstOf tries each extractor in order and returns the first name found.
type FirstOf []NameExtractor

func (f FirstOf) ExtractName(ctx context.Context, lines []string) (string, bool) {
	for _, x := range f {
		if name, ok := x.ExtractName(ctx, lines); ok {
			return name, true
		}
	}
	return "", false
}
