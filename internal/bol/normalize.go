package bol

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reFormFeed   = regexp.MustCompile(`\f`)
	reTabs       = regexp.MustCompile(`[\t\v]+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reRuleLine   = regexp.MustCompile(`(?m)^[ _=\-]*[_=\-]{3,}[ _=\-]*$`)
)

// Normalize collapses text-layer whitespace noise into canonical line-oriented text.
// Line breaks are kept; more than one blank line collapses into a single blank line.
// Box rules drawn with dashes or underscores become blank lines.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	// NBSP, full-width digits and ligatures fold to their ASCII forms
	s = norm.NFKC.String(s)
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reFormFeed.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reRuleLine.ReplaceAllString(s, "")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
