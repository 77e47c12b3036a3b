package bol

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/bol-extractor/constants"
)

// lines read ahead for a seal or size missing from the container line
const containerLookahead = 2

// longest goods description kept per container, in lines
const maxDescriptionLines = 12

var (
	reContainerNo = regexp.MustCompile(`\b([A-Z]{3}[UJZ])\s?([0-9]{6})\s?-?\s?([0-9])\b`)
	reSeal        = regexp.MustCompile(`(?i)\bseal\b(?:\s*(?:no\.?|number|#))?\s*[:.#]?\s*([A-Z0-9][A-Z0-9-]{3,19})\b`)
	reSizeType    = regexp.MustCompile(`(?i)\b((?:20|40|45)\s*(?:['’′]|ft\b|feet\b)?\s*(?:high\s*cube|hc|hq|gp|dv|dc|rf|rh|ot|fr|st|standard|dry)\b|[24L][025][GRUPTBHSV][0-9]\b)`)
	reDigit       = regexp.MustCompile(`[0-9]`)
	reTableEnd    = regexp.MustCompile(`(?i)^\s*` + labelAlternation(constants.LabelsOf(constants.ContainerSectionEnd...)) + `\b`)
)

// findContainers scans forward from the container-count line for container rows
// until the declared count is reached or the container table ends.
func findContainers(d *document, cm countMatch) []Container {
	out := []Container{}
	seen := map[string]struct{}{}

	for i := cm.line; i < len(d.lines) && len(out) < cm.count; i++ {
		line := d.lines[i]
		if reTableEnd.MatchString(line) {
			break
		}
		locs := reContainerNo.FindAllStringSubmatchIndex(line, -1)
		for k, m := range locs {
			number := line[m[2]:m[3]] + line[m[4]:m[5]] + line[m[6]:m[7]]
			segEnd := len(line)
			if k+1 < len(locs) {
				segEnd = locs[k+1][0]
			}
			seal, size := sealAndSize(line[m[1]:segEnd], number)
			var desc *string
			if k == len(locs)-1 {
				var last int
				seal, size, last = d.lookahead(i, number, seal, size)
				desc = d.description(last + 1)
			}
			if seal == nil && size == nil {
				continue
			}
			if _, dup := seen[number]; dup {
				continue
			}
			seen[number] = struct{}{}
			out = append(out, Container{Number: number, Seal: seal, SizeType: size, Description: desc})
			if len(out) == cm.count {
				break
			}
		}
	}
	return out
}

// lookahead fills a missing seal or size from the next lines, stopping at the
// next container row or the end of the table. It also returns the index of the
// last line it took a value from.
func (d *document) lookahead(i int, number string, seal, size *string) (*string, *string, int) {
	last := i
	for j := i + 1; j <= i+containerLookahead && j < len(d.lines); j++ {
		if seal != nil && size != nil {
			break
		}
		line := d.lines[j]
		if reTableEnd.MatchString(line) || reContainerNo.MatchString(line) {
			break
		}
		s, z := sealAndSize(line, number)
		if seal == nil && s != nil {
			seal, last = s, j
		}
		if size == nil && z != nil {
			size, last = z, j
		}
	}
	return seal, size, last
}

// description joins the goods lines that follow a container row, up to a blank
// line, the next container row, a totals line or the end of the table.
func (d *document) description(from int) *string {
	var parts []string
	for j := from; j < len(d.lines) && len(parts) < maxDescriptionLines; j++ {
		line := strings.TrimSpace(d.lines[j])
		if line == "" || reTableEnd.MatchString(line) || reContainerNo.MatchString(line) || isTotalsLine(line) {
			break
		}
		parts = append(parts, line)
	}
	if len(parts) == 0 {
		return nil
	}
	return strPtr(strings.Join(strings.Fields(strings.Join(parts, " ")), " "))
}

func isTotalsLine(line string) bool {
	return reItems.MatchString(line) || reWeightTot.MatchString(line) || reCountLabel.MatchString(line)
}

func sealAndSize(segment, number string) (*string, *string) {
	var seal, size *string
	if m := reSeal.FindStringSubmatch(segment); m != nil {
		s := strings.ToUpper(m[1])
		if reDigit.MatchString(s) && s != number {
			seal = &s
		}
	}
	if m := reSizeType.FindStringSubmatch(segment); m != nil {
		s := strings.Join(strings.Fields(m[1]), " ")
		size = &s
	}
	return seal, size
}
