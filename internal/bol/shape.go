package bol

import (
	"encoding/json"
	"fmt"
)

// Result is the serialized form of a Record. Every key is always present:
// absent scalars encode as null, containers and warnings as [].
type Result struct {
	BillOfLadingNumber *string     `json:"bill_of_lading_number"`
	Shipper            *string     `json:"shipper"`
	Consignee          *string     `json:"consignee"`
	TotalGrossWeight   *Weight     `json:"total_gross_weight"`
	TotalItems         *int        `json:"total_items"`
	NumberOfContainers *int        `json:"number_of_containers"`
	Containers         []Container `json:"containers"`
	Warnings           []string    `json:"warnings"`
}

// Shape copies a record into its output shape.
func Shape(r Record) Result {
	out := Result{
		BillOfLadingNumber: r.BillOfLadingNumber,
		Shipper:            r.Shipper,
		Consignee:          r.Consignee,
		TotalGrossWeight:   r.TotalGrossWeight,
		TotalItems:         r.TotalItems,
		NumberOfContainers: r.NumberOfContainers,
		Containers:         make([]Container, len(r.Containers)),
		Warnings:           make([]string, len(r.Warnings)),
	}
	copy(out.Containers, r.Containers)
	copy(out.Warnings, r.Warnings)
	return out
}

// JSON encodes the result.
func (r Result) JSON() ([]byte, error) {
	if r.Containers == nil {
		r.Containers = []Container{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return b, nil
}

// Map returns the result as a generic JSON object, e.g. for protobuf Struct conversion.
func (r Result) Map() (map[string]any, error) {
	b, err := r.JSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return m, nil
}
