package ner

import (
	"context"
	"strings"
	"unicode"
)

// legalSuffixes are company-form designators, compared upper case with dots removed.
var legalSuffixes = map[string]struct{}{
	"SA": {}, "SAS": {}, "SARL": {}, "SRL": {}, "SPA": {},
	"INC": {}, "INCORPORATED": {}, "CORP": {}, "CORPORATION": {},
	"LTD": {}, "LTDA": {}, "LIMITED": {}, "PLC": {},
	"LLC": {}, "LLP": {}, "CO": {}, "COMPANY": {},
	"GMBH": {}, "AG": {}, "KG": {}, "BV": {}, "NV": {},
	"PTE": {}, "PTY": {}, "OY": {}, "AB": {}, "BHD": {}, "EIRELI": {},
}

// ambiguousSuffixes double as US state or region codes ("Denver CO 80202").
// A run made only of these must end the segment.
var ambiguousSuffixes = map[string]struct{}{
	"SA": {}, "CO": {}, "AG": {}, "KG": {}, "NV": {}, "OY": {}, "AB": {},
}

// Heuristic recognizes organizations by their legal-form suffix
// ("Acme Corp", "MUSCAT WOODEN PALLETS L.L.C."). It is deterministic and
// needs no model, so it is the default recognizer of the extraction engine.
type Heuristic struct{}

// NewHeuristic creates a suffix-based organization recognizer.
func NewHeuristic() *Heuristic { return &Heuristic{} }

var _ Recognizer = (*Heuristic)(nil)

// Recognize never fails; it returns ORG entities only.
func (h *Heuristic) Recognize(_ context.Context, text string) ([]Entity, error) {
	var out []Entity
	for _, line := range strings.Split(text, "\n") {
		for _, seg := range segments(line) {
			if e, ok := orgFromSegment(seg); ok {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// segments splits a line on commas, gluing suffix-only pieces ("Acme, Inc.") back
// onto the preceding piece. "Denver, CO" stays split.
func segments(line string) []string {
	parts := strings.Split(line, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(out) > 0 && gluesToName(p) {
			out[len(out)-1] += ", " + p
			continue
		}
		out = append(out, p)
	}
	return out
}

func orgFromSegment(seg string) (Entity, bool) {
	tokens := strings.Fields(seg)
	if len(tokens) < 2 {
		return Entity{}, false
	}
	// first suffix after at least one name token, extended over "CO. LTD" runs
	first, end := -1, -1
	for i := 1; i < len(tokens); i++ {
		if isSuffix(tokens[i]) {
			first, end = i, i
			for end+1 < len(tokens) && isSuffix(tokens[end+1]) {
				end++
			}
			break
		}
	}
	if end < 0 || !hasLetter(tokens[0]) {
		return Entity{}, false
	}
	if end+1 < len(tokens) {
		// "Reno NV 89501": a postcode after the suffix marks an address line
		if startsWithDigit(tokens[end+1]) {
			return Entity{}, false
		}
		if ambiguousRun(tokens[first : end+1]) {
			return Entity{}, false
		}
	}

	name := strings.TrimRight(strings.Join(tokens[:end+1], " "), ",;:")
	conf := 0.9
	if end+1 < len(tokens) {
		conf = 0.8
	}
	if end+1 > 8 {
		conf = 0.5
	}
	if strings.IndexFunc(name, unicode.IsDigit) >= 0 {
		conf = 0.6
	}
	return Entity{Text: name, Label: LabelOrg, Confidence: conf}, true
}

func isSuffixRun(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !isSuffix(t) {
			return false
		}
	}
	return true
}

func isSuffix(tok string) bool {
	_, ok := legalSuffixes[suffixKey(tok)]
	return ok
}

func suffixKey(tok string) string {
	t := strings.Trim(tok, ",;:()&")
	return strings.ToUpper(strings.ReplaceAll(t, ".", ""))
}

func gluesToName(piece string) bool {
	tokens := strings.Fields(piece)
	if !isSuffixRun(tokens) {
		return false
	}
	return !ambiguousRun(tokens) || strings.HasSuffix(piece, ".")
}

func ambiguousRun(tokens []string) bool {
	for _, t := range tokens {
		if _, ok := ambiguousSuffixes[suffixKey(t)]; !ok {
			return false
		}
	}
	return true
}

func startsWithDigit(tok string) bool {
	t := strings.TrimLeft(tok, "(#")
	return t != "" && t[0] >= '0' && t[0] <= '9'
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
