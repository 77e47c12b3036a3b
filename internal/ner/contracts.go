// Package ner defines the named-entity recognition collaborator used to isolate
// party names (shipper, consignee) from captured Bill-of-Lading blocks.
package ner

import (
	"context"
	"strings"
)

// Label is the entity type assigned by a Recognizer.
type Label string

const (
	LabelOrg      Label = "ORG"
	LabelPerson   Label = "PERSON"
	LabelLocation Label = "GPE"
	LabelOther    Label = "MISC"
)

// Entity is one recognized span.
type Entity struct {
	Text       string  `json:"text"`
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"` // 0..1
}

// Recognizer is the interface the extraction engine depends on.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, text string) ([]Entity, error)

func (f RecognizerFunc) Recognize(ctx context.Context, text string) ([]Entity, error) {
	return f(ctx, text)
}

// Orgs returns the organization entities at or above minConfidence, in order,
// with case-insensitive duplicates removed.
func Orgs(ents []Entity, minConfidence float64) []Entity {
	seen := make(map[string]struct{}, len(ents))
	var out []Entity
	for _, e := range ents {
		if e.Label != LabelOrg || e.Confidence < minConfidence {
			continue
		}
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		key := strings.ToUpper(text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		e.Text = text
		out = append(out, e)
	}
	return out
}
