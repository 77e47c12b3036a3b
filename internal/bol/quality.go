package bol

import "fmt"

// Warning codes attached to a Record.
const (
	WarnContainerCountMismatch = "container_count_mismatch"
)

// finalize derives per-container cargo weight and records data-quality warnings.
func finalize(r *Record) {
	if r.Containers == nil {
		r.Containers = []Container{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}

	if r.TotalGrossWeight != nil && r.NumberOfContainers != nil && *r.NumberOfContainers > 0 {
		per := r.TotalGrossWeight.Value / float64(*r.NumberOfContainers)
		text := formatThousands(per, 3) + " " + r.TotalGrossWeight.Unit
		for i := range r.Containers {
			r.Containers[i].GrossCargoWeight = strPtr(text)
		}
	}

	if r.NumberOfContainers != nil && *r.NumberOfContainers != len(r.Containers) {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: declared %d, found %d",
			WarnContainerCountMismatch, *r.NumberOfContainers, len(r.Containers)))
	}
}
