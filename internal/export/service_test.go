package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bol-extractor/constants"
	"github.com/joseph-ayodele/bol-extractor/internal/bol"
	"github.com/joseph-ayodele/bol-extractor/internal/repository"
)

const twoContainers = `B/L No: MEDUP1966175
SHIPPER: Acme Corp

CONSIGNEE: Globex Inc
Total Gross Weight: 50,000.000 Kgs
Total Items: 88
2 x 40' HIGH CUBE
BEAU5862453 SEAL FJ21074021 40' HIGH CUBE
BMOU5932452 SEAL FJ21154465 40' HIGH CUBE
44 PALLETS OF SAWN TIMBER`

func openBook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExportShipmentsXLSX(t *testing.T) {
	svc := NewService(nil, nil)
	docs := []Document{
		{Source: "a.pdf", Result: bol.Shape(bol.Extract(twoContainers))},
		{Source: "broken.pdf", Result: bol.Shape(bol.Record{}), Err: "malformed PDF"},
	}

	data, err := svc.ExportShipmentsXLSX(context.Background(), docs)
	require.NoError(t, err)
	f := openBook(t, data)

	assert.Equal(t, []string{SheetShipments, SheetContainers}, f.GetSheetList())

	rows, err := f.GetRows(SheetShipments)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, shipmentHeaders, rows[0])
	assert.Equal(t, []string{"a.pdf", "MEDUP1966175", "Acme Corp", "Globex Inc", "50000", "Kgs", "88", "2", "2"}, rows[1])
	assert.Equal(t, "broken.pdf", rows[2][0])
	assert.Equal(t, "0", rows[2][8])
	assert.Equal(t, "malformed PDF", rows[2][10])

	crow, err := f.GetRows(SheetContainers)
	require.NoError(t, err)
	require.Len(t, crow, 3)
	assert.Equal(t, containerHeaders, crow[0])
	assert.Equal(t, []string{"a.pdf", "MEDUP1966175", "BEAU5862453", "FJ21074021", "40' HIGH CUBE", "25,000.000 Kgs"}, crow[1])
	assert.Equal(t, "BMOU5932452", crow[2][2])
	require.Len(t, crow[2], 7)
	assert.Equal(t, "44 PALLETS OF SAWN TIMBER", crow[2][6])
}

func TestExportShipmentsXLSXEmpty(t *testing.T) {
	data, err := NewService(nil, nil).ExportShipmentsXLSX(context.Background(), nil)
	require.NoError(t, err)
	rows, err := openBook(t, data).GetRows(SheetShipments)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExportJobsXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:", DialTimeout: time.Second}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(db.Close)
	jobs := repository.NewExtractJobRepository(db, nil)

	ok, err := jobs.Start(ctx, "a.pdf", "h1", constants.PDF)
	require.NoError(t, err)
	res, err := bol.Shape(bol.Extract(twoContainers)).JSON()
	require.NoError(t, err)
	require.NoError(t, jobs.FinishParse(ctx, ok.ID, res, nil))

	bad, err := jobs.Start(ctx, "b.pdf", "h2", constants.PDF)
	require.NoError(t, err)
	require.NoError(t, jobs.FinishFailure(ctx, bad.ID, "malformed PDF"))

	data, err := NewService(jobs, nil).ExportJobsXLSX(ctx, repository.ListFilter{})
	require.NoError(t, err)
	f := openBook(t, data)

	rows, err := f.GetRows(SheetShipments)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	bySource := map[string][]string{rows[1][0]: rows[1], rows[2][0]: rows[2]}
	assert.Equal(t, "MEDUP1966175", bySource["a.pdf"][1])
	assert.Equal(t, "malformed PDF", bySource["b.pdf"][10])

	crow, err := f.GetRows(SheetContainers)
	require.NoError(t, err)
	assert.Len(t, crow, 3)
}

func TestExportJobsWithoutRepository(t *testing.T) {
	_, err := NewService(nil, nil).ExportJobsXLSX(context.Background(), repository.ListFilter{})
	require.Error(t, err)
}
