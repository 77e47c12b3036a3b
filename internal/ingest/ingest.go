// Package ingest discovers PDF files on the local filesystem for batch
// processing, skipping hidden entries and duplicate content.
package ingest

// FileResult is the per-file discovery outcome.
type FileResult struct {
	Path         string
	HashHex      string
	Size         int64
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Options control which files a scan or watch picks up.
type Options struct {
	Exts       []string // lowercased sans '.'; empty -> constants.AllowedExtensions
	SkipHidden bool
}
