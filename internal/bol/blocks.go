package bol

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/bol-extractor/constants"
)

// blockRule captures the free-text block that follows a section label. The block
// ends at a line that starts with another multi-word label, at a line that is
// another label on its own, at another label followed by a colon, or at the
// first blank line after content.
type blockRule struct {
	section    constants.Section
	start      *regexp.Regexp
	lineStop   *regexp.Regexp
	inlineStop *regexp.Regexp
}

func newBlockRule(section constants.Section) blockRule {
	others := constants.LabelsExcept(section)
	var multi []string
	for _, l := range others {
		// "VESSEL" also starts "Vessel Supply Trading LLC"
		if strings.Contains(l, " ") {
			multi = append(multi, l)
		}
	}
	return blockRule{
		section:    section,
		start:      regexp.MustCompile(`(?i)\b` + labelAlternation(constants.Labels(section)) + `(?:\s+name\s+and\s+address)?\s*:`),
		lineStop:   regexp.MustCompile(`(?i)^\s*` + labelAlternation(multi) + `\b`),
		inlineStop: regexp.MustCompile(`(?i)\b` + labelAlternation(others) + `\s*:`),
	}
}

// stopsAt reports whether line opens another section.
func (b blockRule) stopsAt(line string) bool {
	if b.lineStop.MatchString(line) {
		return true
	}
	sec, ok := constants.CanonicalizeLabel(line)
	return ok && sec != b.section
}

var (
	shipperBlock   = newBlockRule(constants.SectionShipper)
	consigneeBlock = newBlockRule(constants.SectionConsignee)
)

// Party block keys returned by PartyBlocks.
const (
	PartyShipper   = "shipper"
	PartyConsignee = "consignee"
)

// PartyBlocks returns the captured shipper and consignee lines of raw text.
// Parties without a block are left out.
func PartyBlocks(raw string) map[string][]string {
	d := newDocument(Normalize(raw))
	out := map[string][]string{}
	if d.empty() {
		return out
	}
	if lines := shipperBlock.capture(d); len(lines) > 0 {
		out[PartyShipper] = lines
	}
	if lines := consigneeBlock.capture(d); len(lines) > 0 {
		out[PartyConsignee] = lines
	}
	return out
}

// capture returns the lines of the first non-empty block, or nil.
func (b blockRule) capture(d *document) []string {
	for _, loc := range b.start.FindAllStringIndex(d.text, -1) {
		if lines := b.captureAt(d, loc[1]); len(lines) > 0 {
			return lines
		}
	}
	return nil
}

func (b blockRule) captureAt(d *document, off int) []string {
	first := d.lineAt(off)
	var out []string

	// remainder of the label line; only an inline label can end it
	rest := d.text[off:d.lineEnd(first)]
	if loc := b.inlineStop.FindStringIndex(rest); loc != nil {
		return appendBlockLine(out, rest[:loc[0]])
	}
	out = appendBlockLine(out, rest)

	for i := first + 1; i < len(d.lines); i++ {
		line := d.lines[i]
		if strings.TrimSpace(line) == "" {
			// label and value often sit in different layout cells, with a blank
			// line between them in the text layer
			if len(out) > 0 {
				break
			}
			continue
		}
		if b.stopsAt(line) {
			break
		}
		if loc := b.inlineStop.FindStringIndex(line); loc != nil {
			out = appendBlockLine(out, line[:loc[0]])
			break
		}
		out = appendBlockLine(out, line)
	}
	return out
}

func appendBlockLine(lines []string, s string) []string {
	s = strings.TrimRight(strings.TrimSpace(s), ",;")
	s = strings.TrimSpace(s)
	if s == "" {
		return lines
	}
	return append(lines, s)
}
