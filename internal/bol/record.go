// Package bol turns the text layer of a Bill of Lading into a shipment record.
//
// The flow is Normalize → Engine.Extract → Shape. Every field of a Record is
// independently optional; absence is a valid outcome and never an error.
package bol

// Weight is a declared weight with its unit as printed.
type Weight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Text  string  `json:"text"`
}

// Container is one row of the container table.
type Container struct {
	Number           string  `json:"container_number"`
	Seal             *string `json:"seal_number"`
	SizeType         *string `json:"size_type"`
	GrossCargoWeight *string `json:"gross_cargo_weight"`
	Description      *string `json:"description"` // goods text under the row
}

// Record is the shipment record extracted from one document.
type Record struct {
	BillOfLadingNumber *string
	Shipper            *string
	Consignee          *string
	TotalGrossWeight   *Weight
	TotalItems         *int
	NumberOfContainers *int
	Containers         []Container
	Warnings           []string
}

// Empty reports whether no field was extracted.
func (r Record) Empty() bool {
	return r.BillOfLadingNumber == nil &&
		r.Shipper == nil &&
		r.Consignee == nil &&
		r.TotalGrossWeight == nil &&
		r.TotalItems == nil &&
		r.NumberOfContainers == nil &&
		len(r.Containers) == 0
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
