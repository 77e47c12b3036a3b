package constants

import (
	"sort"
	"strings"
)

// Section identifies a labelled block printed on a Bill of Lading.
type Section string

const (
	SectionShipper           Section = "Shipper"
	SectionConsignee         Section = "Consignee"
	SectionNotifyParty       Section = "NotifyParty"
	SectionPlaceOfReceipt    Section = "PlaceOfReceipt"
	SectionPortOfLoading     Section = "PortOfLoading"
	SectionPortOfDischarge   Section = "PortOfDischarge"
	SectionPlaceOfDelivery   Section = "PlaceOfDelivery"
	SectionVessel            Section = "Vessel"
	SectionBooking           Section = "Booking"
	SectionExportReferences  Section = "ExportReferences"
	SectionForwardingAgent   Section = "ForwardingAgent"
	SectionBillOfLading      Section = "BillOfLading"
	SectionDescription       Section = "Description"
	SectionMarks             Section = "Marks"
	SectionTotalGrossWeight  Section = "TotalGrossWeight"
	SectionTotalItems        Section = "TotalItems"
	SectionFreight           Section = "Freight"
	SectionPlaceOfIssue      Section = "PlaceOfIssue"
	SectionShippedOnBoard    Section = "ShippedOnBoard"
	SectionNumberOfOriginals Section = "NumberOfOriginals"
	SectionDeclaredValue     Section = "DeclaredValue"
)

// sectionLabels lists the printed variants of each label, upper case, without the colon.
var sectionLabels = map[Section][]string{
	SectionShipper:           {"SHIPPER", "SHIPPER/EXPORTER", "EXPORTER"},
	SectionConsignee:         {"CONSIGNEE"},
	SectionNotifyParty:       {"NOTIFY PARTY", "NOTIFY PARTIES", "ALSO NOTIFY"},
	SectionPlaceOfReceipt:    {"PLACE OF RECEIPT"},
	SectionPortOfLoading:     {"PORT OF LOADING"},
	SectionPortOfDischarge:   {"PORT OF DISCHARGE"},
	SectionPlaceOfDelivery:   {"PLACE OF DELIVERY"},
	SectionVessel:            {"VESSEL AND VOYAGE NO", "OCEAN VESSEL", "VESSEL"},
	SectionBooking:           {"BOOKING NO", "BOOKING NUMBER", "BOOKING REF"},
	SectionExportReferences:  {"EXPORT REFERENCES"},
	SectionForwardingAgent:   {"FORWARDING AGENT"},
	SectionBillOfLading:      {"BILL OF LADING NO", "B/L NO"},
	SectionDescription:       {"DESCRIPTION OF PACKAGES AND GOODS", "DESCRIPTION OF GOODS"},
	SectionMarks:             {"MARKS AND NUMBERS"},
	SectionTotalGrossWeight:  {"TOTAL GROSS WEIGHT"},
	SectionTotalItems:        {"TOTAL ITEMS"},
	SectionFreight:           {"FREIGHT AND CHARGES", "FREIGHT PAYABLE AT"},
	SectionPlaceOfIssue:      {"PLACE AND DATE OF ISSUE", "PLACE OF ISSUE"},
	SectionShippedOnBoard:    {"SHIPPED ON BOARD"},
	SectionNumberOfOriginals: {"NUMBER OF ORIGINAL"},
	SectionDeclaredValue:     {"DECLARED VALUE"},
}

// labelSynonyms are carrier-template spellings matched like the printed labels.
var labelSynonyms = map[Section][]string{
	SectionShipper:      {"SHIPPER NAME AND ADDRESS"},
	SectionConsignee:    {"CONSIGNEE NAME AND ADDRESS"},
	SectionBillOfLading: {"MBL NO", "HBL NO", "BL NO"},
}

func printed(s Section) []string {
	return append(append([]string(nil), sectionLabels[s]...), labelSynonyms[s]...)
}

// ContainerSectionEnd lists the sections that close the container table.
var ContainerSectionEnd = []Section{
	SectionFreight,
	SectionPlaceOfIssue,
	SectionShippedOnBoard,
	SectionNumberOfOriginals,
	SectionDeclaredValue,
}

// Labels returns the printed variants and synonyms of s, longest first.
func Labels(s Section) []string {
	return sortLongestFirst(printed(s))
}

// LabelsExcept returns every known label not belonging to the given sections, longest first.
func LabelsExcept(skip ...Section) []string {
	var out []string
	for sec := range sectionLabels {
		if containsSection(skip, sec) {
			continue
		}
		out = append(out, printed(sec)...)
	}
	return sortLongestFirst(out)
}

// LabelsOf returns the printed variants of all given sections, longest first.
func LabelsOf(sections ...Section) []string {
	var out []string
	for _, s := range sections {
		out = append(out, sectionLabels[s]...)
	}
	return sortLongestFirst(out)
}

// CanonicalizeLabel maps a printed label or synonym (any case, optional colon)
// to its section.
func CanonicalizeLabel(input string) (Section, bool) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(strings.TrimSuffix(strings.TrimSpace(input), ":")), " "))
	if normalized == "" {
		return "", false
	}
	for sec := range sectionLabels {
		for _, l := range printed(sec) {
			if normalized == l {
				return sec, true
			}
		}
	}
	return "", false
}

func containsSection(list []Section, s Section) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// longest first so regexp alternations prefer "NOTIFY PARTIES" over "NOTIFY PARTY"
func sortLongestFirst(labels []string) []string {
	sort.SliceStable(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) > len(labels[j])
		}
		return labels[i] < labels[j]
	})
	return labels
}
