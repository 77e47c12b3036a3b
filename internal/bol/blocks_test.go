package bol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockCapture(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "stops at label on next line",
			text: "SHIPPER: Acme Corp\n12 Dock Road\nCONSIGNEE: Globex Inc",
			want: []string{"Acme Corp", "12 Dock Road"},
		},
		{
			name: "stops at blank line after content",
			text: "Shipper:\n\nAcme Corp\nSpringfield\n\nunrelated footer",
			want: []string{"Acme Corp", "Springfield"},
		},
		{
			name: "stops at inline label",
			text: "SHIPPER: Acme Corp PORT OF LOADING: SANTOS",
			want: []string{"Acme Corp"},
		},
		{
			name: "inline label on a later line keeps its prefix",
			text: "SHIPPER:\nAcme Corp\nSpringfield VESSEL: MSC ALINA",
			want: []string{"Acme Corp", "Springfield"},
		},
		{
			name: "label at line start without colon",
			text: "SHIPPER/EXPORTER:\nAcme Corp\nPLACE OF RECEIPT\nSANTOS",
			want: []string{"Acme Corp"},
		},
		{
			name: "skips empty occurrence",
			text: "SHIPPER: CONSIGNEE: Globex\nSHIPPER: Acme Corp",
			want: []string{"Acme Corp"},
		},
		{
			name: "name and address label",
			text: "Shipper Name and Address: Acme Corp, 1 Main St",
			want: []string{"Acme Corp, 1 Main St"},
		},
		{
			name: "single-word label inside a company name",
			text: "SHIPPER:\nVessel Supply Trading LLC\nPort Road 1\n\nTotal Items: 3",
			want: []string{"Vessel Supply Trading LLC", "Port Road 1"},
		},
		{
			name: "single-word label on its own line",
			text: "SHIPPER:\nAcme Corp\nVessel\nMSC ALINA",
			want: []string{"Acme Corp"},
		},
		{
			name: "synonym label",
			text: "SHIPPER:\nAcme Corp\nMBL NO: MEDUP1234567",
			want: []string{"Acme Corp"},
		},
		{
			name: "blank line between label and value",
			text: "SHIPPER:\n\nAcme Corp",
			want: []string{"Acme Corp"},
		},
		{
			name: "no label",
			text: "Acme Corp",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDocument(Normalize(tt.text))
			assert.Equal(t, tt.want, shipperBlock.capture(d))
		})
	}
}

func TestConsigneeBlockStopsAtShipper(t *testing.T) {
	d := newDocument("CONSIGNEE:\nGlobex Inc\nSHIPPER: Acme Corp")
	assert.Equal(t, []string{"Globex Inc"}, consigneeBlock.capture(d))
}

func TestDocumentLineAt(t *testing.T) {
	d := newDocument("ab\ncd\n\nef")
	assert.Equal(t, 0, d.lineAt(0))
	assert.Equal(t, 0, d.lineAt(2))
	assert.Equal(t, 1, d.lineAt(3))
	assert.Equal(t, 2, d.lineAt(6))
	assert.Equal(t, 3, d.lineAt(7))
	assert.Equal(t, 9, d.lineEnd(3))
}

func TestConsigneeBlockKeepsLabelWordNames(t *testing.T) {
	d := newDocument(Normalize("CONSIGNEE:\nVessel Supply Trading LLC\nPort Road 1\n\nTotal Items: 3"))
	assert.Equal(t, []string{"Vessel Supply Trading LLC", "Port Road 1"}, consigneeBlock.capture(d))
}

func TestPartyBlocks(t *testing.T) {
	got := PartyBlocks(sampleBOL)
	assert.Equal(t, []string{
		"INTERCROMA SA",
		"Rua Conde D'eu, 800- Bairro Alpino",
		"89286-691 Sao Bento do Sul - SC - Brazil",
	}, got[PartyShipper])
	assert.Equal(t, []string{
		"MUSCAT WOODEN PALLETS L.L.C.",
		"P.O. BOX - 284, AUQADEN 217, SALALAH",
		"SULTANATE OF OMAN",
	}, got[PartyConsignee])

	assert.Empty(t, PartyBlocks(""))
	only := PartyBlocks("CONSIGNEE: Globex Inc")
	assert.NotContains(t, only, PartyShipper)
	assert.Equal(t, []string{"Globex Inc"}, only[PartyConsignee])
}
