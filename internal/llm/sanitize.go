package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/bol-extractor/internal/ner"
)

// defaultConfidence is assumed when the model omits a score.
const defaultConfidence = 0.5

var labelSynonyms = map[string]ner.Label{
	"ORG":          ner.LabelOrg,
	"ORGANIZATION": ner.LabelOrg,
	"ORGANISATION": ner.LabelOrg,
	"COMPANY":      ner.LabelOrg,
	"PERSON":       ner.LabelPerson,
	"PER":          ner.LabelPerson,
	"GPE":          ner.LabelLocation,
	"LOC":          ner.LabelLocation,
	"LOCATION":     ner.LabelLocation,
	"ADDRESS":      ner.LabelLocation,
	"MISC":         ner.LabelOther,
}

// NormalizeAndSanitizeJSON
// - Accepts a bare array as well as {"entities": [...]}
// - Maps label synonyms (ORGANIZATION -> ORG); unknown labels become MISC
// - Drops entities with empty text; trims text
// - Coerces string confidences and clamps them to [0,1]
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var items []any
	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	switch t := top.(type) {
	case []any:
		items = t
	case map[string]any:
		if list, ok := t["entities"].([]any); ok {
			items = list
		}
	default:
		return nil, nil, fmt.Errorf("sanitize: unexpected json type %T", top)
	}

	dropped := make([]string, 0, 4)
	out := make([]map[string]any, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("entities[%d](type)", i))
			continue
		}
		text, _ := m["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			dropped = append(dropped, fmt.Sprintf("entities[%d](empty)", i))
			continue
		}
		label, _ := m["label"].(string)
		norm, ok := labelSynonyms[strings.ToUpper(strings.TrimSpace(label))]
		if !ok {
			norm = ner.LabelOther
		}
		out = append(out, map[string]any{
			"text":       text,
			"label":      string(norm),
			"confidence": coerceConfidence(m["confidence"]),
		})
	}

	b, err := json.Marshal(map[string]any{"entities": out})
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.ner.normalize_sanitize", "dropped", dropped)
	}
	return b, dropped, nil
}

func coerceConfidence(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		p, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return defaultConfidence
		}
		if strings.HasSuffix(strings.TrimSpace(t), "%") {
			p /= 100
		}
		f = p
	default:
		return defaultConfidence
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
