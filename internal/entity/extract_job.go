package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractJob is one logged run of the PDF → record pipeline, for data transfer between layers.
type ExtractJob struct {
	ID            uuid.UUID       `json:"id"`
	Filename      string          `json:"filename"`
	ContentHash   string          `json:"content_hash"`
	Format        string          `json:"format"`
	Status        string          `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	TextMethod    *string         `json:"text_method,omitempty"`
	Pages         *int            `json:"pages,omitempty"`
	Confidence    *float32        `json:"text_confidence,omitempty"`
	ExtractedText *string         `json:"extracted_text,omitempty"`
	ExtractedJSON json.RawMessage `json:"extracted_json,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
}

// Done reports whether the job reached a terminal status.
func (j ExtractJob) Done() bool { return j.FinishedAt != nil }
