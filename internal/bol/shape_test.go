package bol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeEmptyRecord(t *testing.T) {
	b, err := Shape(Record{}).JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"bill_of_lading_number": null,
		"shipper": null,
		"consignee": null,
		"total_gross_weight": null,
		"total_items": null,
		"number_of_containers": null,
		"containers": [],
		"warnings": []
	}`, string(b))
	require.NoError(t, ValidateResult(b))
}

func TestShapeSample(t *testing.T) {
	res := Shape(Extract(sampleBOL))
	b, err := res.JSON()
	require.NoError(t, err)
	require.NoError(t, ValidateResult(b))

	m, err := res.Map()
	require.NoError(t, err)
	assert.Equal(t, "MEDUP1966175", m["bill_of_lading_number"])
	containers, ok := m["containers"].([]any)
	require.True(t, ok)
	require.Len(t, containers, 2)
	first := containers[0].(map[string]any)
	assert.Equal(t, "BEAU5862453", first["container_number"])
	assert.Equal(t, "25,000.000 Kgs", first["gross_cargo_weight"])
	assert.Equal(t, "44 PALLET of IN 2X40'HC CONTAINERS WITH 88 PALLETS", first["description"])

	b, err = Shape(Extract("1 x 20GP\nMSCU1234567 SEAL: 111111 20GP")).JSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"description":null`)
}

func TestShapeCopiesSlices(t *testing.T) {
	rec := Extract(sampleBOL)
	res := Shape(rec)
	res.Containers[0].Number = "XXXU0000000"
	assert.Equal(t, "BEAU5862453", rec.Containers[0].Number)
}

func TestExtractAlwaysConformsToSchema(t *testing.T) {
	inputs := []string{
		"",
		"\x00\xff\xfe",
		"SHIPPER:",
		"CONSIGNEE:\n\n\n",
		"Number of Containers: 9999",
		"Total Gross Weight: 0 KG\n0 x 20GP",
		"B/L No: \nSEAL: \n40HC",
		sampleBOL,
	}
	for _, in := range inputs {
		b, err := Shape(Extract(in)).JSON()
		require.NoError(t, err)
		assert.NoError(t, ValidateResult(b), "input %q", in)
	}
}

func TestValidateResultRejectsMissingKeys(t *testing.T) {
	assert.Error(t, ValidateResult([]byte(`{"shipper": null}`)))
	assert.Error(t, ValidateResult([]byte(`not json`)))
}

func TestResultSchemaIsFresh(t *testing.T) {
	a := ResultSchema()
	a["type"] = "array"
	assert.Equal(t, "object", ResultSchema()["type"])
}
