package bol

import (
	"regexp"
	"sort"
	"strings"
)

// document is normalized text with a line index, shared read-only by all rules.
type document struct {
	text   string
	lines  []string
	starts []int // byte offset of each line in text
}

func newDocument(normalized string) *document {
	d := &document{text: normalized}
	if normalized == "" {
		return d
	}
	d.lines = strings.Split(normalized, "\n")
	d.starts = make([]int, len(d.lines))
	off := 0
	for i, l := range d.lines {
		d.starts[i] = off
		off += len(l) + 1
	}
	return d
}

func (d *document) empty() bool { return d.text == "" }

// lineAt returns the index of the line containing byte offset off.
func (d *document) lineAt(off int) int {
	i := sort.SearchInts(d.starts, off+1) - 1
	if i < 0 {
		return 0
	}
	return i
}

// lineEnd returns the byte offset just past line i (before its newline).
func (d *document) lineEnd(i int) int {
	return d.starts[i] + len(d.lines[i])
}

// labelAlternation builds a case-insensitive alternation of printed labels,
// letting any whitespace run stand in for a single space.
func labelAlternation(labels []string) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		q := regexp.QuoteMeta(l)
		parts = append(parts, strings.ReplaceAll(q, " ", `\s+`))
	}
	return `(?:` + strings.Join(parts, "|") + `)`
}
