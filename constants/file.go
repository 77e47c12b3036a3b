package constants

import "strings"

// PDF is the format recorded in the extract_job table.
const PDF = "PDF"

// PDFContentType is the only media type accepted by the upload endpoints.
const PDFContentType = "application/pdf"

// MaxUploadMBDefault caps a single uploaded document.
const MaxUploadMBDefault = 20

// AllowedExtensions holds the file extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsPDFContentType reports whether a Content-Type header denotes a PDF.
// Parameters such as "; charset=binary" are ignored.
func IsPDFContentType(ct string) bool {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.EqualFold(strings.TrimSpace(ct), PDFContentType)
}
