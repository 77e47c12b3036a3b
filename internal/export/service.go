// Package export renders shipment records as an XLSX workbook with one
// "Shipments" row per document and one "Containers" row per container.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bol-extractor/constants"
	"github.com/joseph-ayodele/bol-extractor/internal/bol"
	"github.com/joseph-ayodele/bol-extractor/internal/repository"
)

const (
	SheetShipments  = "Shipments"
	SheetContainers = "Containers"
)

var (
	shipmentHeaders = []string{
		"Source",
		"Bill of Lading No",
		"Shipper",
		"Consignee",
		"Total Gross Weight",
		"Weight Unit",
		"Total Items",
		"Number of Containers",
		"Containers Found",
		"Warnings",
		"Error",
	}
	containerHeaders = []string{
		"Source",
		"Bill of Lading No",
		"Container No",
		"Seal No",
		"Size/Type",
		"Gross Cargo Weight",
		"Description of Goods",
	}
)

// Document is one exported row: a processed file and its result or error.
type Document struct {
	Source string
	Result bol.Result
	Err    string
}

// Service produces XLSX bytes for exports. The job repository is only needed
// by ExportJobsXLSX.
type Service struct {
	jobsRepo repository.ExtractJobRepository
	logger   *slog.Logger
}

func NewService(jobs repository.ExtractJobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobsRepo: jobs, logger: logger}
}

// ExportShipmentsXLSX returns a workbook for docs, in the given order.
func (s *Service) ExportShipmentsXLSX(_ context.Context, docs []Document) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetShipments); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetContainers); err != nil {
		return nil, err
	}
	writeRow(f, SheetShipments, 1, toAny(shipmentHeaders))
	writeRow(f, SheetContainers, 1, toAny(containerHeaders))

	crow := 2
	for i, d := range docs {
		r := d.Result
		var weight, unit any = "", ""
		if r.TotalGrossWeight != nil {
			weight, unit = r.TotalGrossWeight.Value, r.TotalGrossWeight.Unit
		}
		writeRow(f, SheetShipments, i+2, []any{
			d.Source,
			deref(r.BillOfLadingNumber),
			deref(r.Shipper),
			deref(r.Consignee),
			weight,
			unit,
			derefInt(r.TotalItems),
			derefInt(r.NumberOfContainers),
			len(r.Containers),
			joinWarnings(r.Warnings),
			d.Err,
		})
		for _, c := range r.Containers {
			writeRow(f, SheetContainers, crow, []any{
				d.Source,
				deref(r.BillOfLadingNumber),
				c.Number,
				deref(c.Seal),
				deref(c.SizeType),
				deref(c.GrossCargoWeight),
				deref(c.Description),
			})
			crow++
		}
	}

	_ = f.SetColWidth(SheetShipments, "A", "A", 36) // source
	_ = f.SetColWidth(SheetShipments, "B", "B", 20)
	_ = f.SetColWidth(SheetShipments, "C", "D", 40) // parties
	_ = f.SetColWidth(SheetShipments, "E", "I", 14)
	_ = f.SetColWidth(SheetShipments, "J", "K", 48)
	_ = f.SetColWidth(SheetContainers, "A", "A", 36)
	_ = f.SetColWidth(SheetContainers, "B", "F", 20)
	_ = f.SetColWidth(SheetContainers, "G", "G", 60) // description
	_ = f.SetPanes(SheetShipments, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"documents", len(docs),
		"containers", crow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ExportJobsXLSX exports the parsed results of logged jobs matching filter.
// Jobs without a result are exported with their error message.
func (s *Service) ExportJobsXLSX(ctx context.Context, filter repository.ListFilter) ([]byte, error) {
	if s.jobsRepo == nil {
		return nil, fmt.Errorf("export jobs: no job repository configured")
	}
	jobs, err := s.jobsRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	docs := make([]Document, 0, len(jobs))
	for _, j := range jobs {
		d := Document{Source: j.Filename, Result: bol.Shape(bol.Record{})}
		switch {
		case j.Status == string(constants.JobStatusParsed) && len(j.ExtractedJSON) > 0:
			if err := json.Unmarshal(j.ExtractedJSON, &d.Result); err != nil {
				d.Err = fmt.Sprintf("decode result: %v", err)
			}
		case j.ErrorMessage != nil:
			d.Err = *j.ErrorMessage
		default:
			d.Err = "status " + j.Status
		}
		docs = append(docs, d)
	}
	return s.ExportShipmentsXLSX(ctx, docs)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}

func joinWarnings(ws []string) string {
	out := ""
	for i, w := range ws {
		if i > 0 {
			out += "; "
		}
		out += w
	}
	return out
}
