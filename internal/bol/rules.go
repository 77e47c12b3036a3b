package bol

import (
	"regexp"
	"strings"
)

// carrier code: 4-6 letter prefix followed by 5-12 digits, e.g. MEDUP1966175.
// Text layers of some carriers print it in lower case.
const blCode = `(?i:([a-z]{4,6}[0-9]{5,12}))\b`

var (
	reBLLabelled = regexp.MustCompile(
		`(?i:\b(?:bill\s+of\s+lading|b\s*/\s*l|m\.?b\.?l|h\.?b\.?l|bl)\b\.?\s*(?:no\.?|number|#)?\s*[:.#]?\s*)` + blCode)
	reBLBare = regexp.MustCompile(`\b` + blCode)

	// ISO 6346 shape: owner code ending in U/J/Z, six digit serial, check digit
	reISOContainer = regexp.MustCompile(`^[A-Z]{3}[UJZ][0-9]{7}$`)

	weightUnits  = `(kgs?|kgm|kilos?|kilograms?|lbs?|pounds?|mt|tons?|tonnes?)\b`
	reWeightTot  = regexp.MustCompile(`(?i)\btotal\s+(?:gross\s+)?weight\b[^0-9\n]{0,20}?([0-9][0-9.,]*)\s*` + weightUnits)
	reWeightAny  = regexp.MustCompile(`(?i)\bgross\s+(?:cargo\s+)?weight\b[^0-9\n]{0,20}?([0-9][0-9.,]*)\s*` + weightUnits)
	reItems      = regexp.MustCompile(`(?i)\btotal\s+(?:number\s+of\s+)?(?:items|packages|pieces|pkgs|no\.?\s+of\s+packages)\b[^0-9\n]{0,10}?([0-9][0-9,.]*)`)
	reCountLabel = regexp.MustCompile(`(?i)\b(?:(?:number|no\.?)\s+of\s+containers|total\s+(?:number\s+of\s+)?containers)\b[^0-9\n]{0,10}?([0-9]{1,4})\b`)
	reCountEquip = regexp.MustCompile(`(?i)\b([0-9]{1,4})\s*[x×]\s*(?:20|40|45)\s*(?:['’′]|ft\b|feet\b)?\s*(?:high\s*cube|hc|hq|gp|dv|dc|rf|rh|ot|fr|st|standard|dry)\b`)
)

// findBillOfLading returns the labelled B/L number if any, else the first bare
// carrier code that is not a container number. prefixes, when set, restrict the
// bare form.
func findBillOfLading(d *document, prefixes []string) (string, bool) {
	if m := reBLLabelled.FindStringSubmatch(d.text); m != nil {
		return strings.ToUpper(m[1]), true
	}
	for _, m := range reBLBare.FindAllStringSubmatch(d.text, -1) {
		code := strings.ToUpper(m[1])
		if reISOContainer.MatchString(code) {
			continue
		}
		if len(prefixes) > 0 && !hasAnyPrefix(code, prefixes) {
			continue
		}
		return code, true
	}
	return "", false
}

func hasAnyPrefix(code string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(code, strings.ToUpper(p)) {
			return true
		}
	}
	return false
}

// findWeight prefers a "Total ... Weight" declaration over any "Gross Weight" line.
func findWeight(d *document) (Weight, bool) {
	for _, re := range []*regexp.Regexp{reWeightTot, reWeightAny} {
		m := re.FindStringSubmatchIndex(d.text)
		if m == nil {
			continue
		}
		v, ok := parseDecimal(d.text[m[2]:m[3]])
		if !ok {
			continue
		}
		return Weight{
			Value: v,
			Unit:  d.text[m[4]:m[5]],
			Text:  d.text[m[2]:m[5]],
		}, true
	}
	return Weight{}, false
}

func findItems(d *document) (int, bool) {
	m := reItems.FindStringSubmatch(d.text)
	if m == nil {
		return 0, false
	}
	return parseCount(m[1])
}

// countMatch is the container-count declaration and the line it sits on.
type countMatch struct {
	count int
	line  int
}

// findContainerCount returns the earliest labelled or equipment-style declaration.
func findContainerCount(d *document) (countMatch, bool) {
	best := -1
	var found countMatch
	for _, re := range []*regexp.Regexp{reCountLabel, reCountEquip} {
		m := re.FindStringSubmatchIndex(d.text)
		if m == nil || (best >= 0 && m[0] >= best) {
			continue
		}
		n, ok := parseCount(d.text[m[2]:m[3]])
		if !ok {
			continue
		}
		best = m[0]
		found = countMatch{count: n, line: d.lineAt(m[0])}
	}
	return found, best >= 0
}
