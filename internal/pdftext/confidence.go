package pdftext

import (
	"regexp"
	"strings"
)

var (
	reParties   = regexp.MustCompile(`\b(shipper|consignee|notify)\b`)
	reBLMarker  = regexp.MustCompile(`\b(bill of lading|b/l|waybill)\b`)
	reContainer = regexp.MustCompile(`\b[a-z]{3}[ujz]\s?\d{6}\s?-?\s?\d\b`)
	reWeight    = regexp.MustCompile(`\b\d[\d.,]*\s*(kgs?|kgm|lbs?|mt)\b`)
)

// heuristicConfidence scores how much extracted text looks like a Bill of Lading.
func heuristicConfidence(txt string) float32 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if reBLMarker.MatchString(txtL) {
		score += 0.2
	}
	if reParties.MatchString(txtL) {
		score += 0.2
	}
	if reContainer.MatchString(txtL) {
		score += 0.15
	}
	if reWeight.MatchString(txtL) {
		score += 0.15
	}
	if len(txt) > 200 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
