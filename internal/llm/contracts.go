// Package llm holds the provider-neutral pieces of the LLM-backed entity
// recognizer: request shape, prompts, JSON schema, sanitizing and transport.
package llm

import (
	"context"

	"github.com/joseph-ayodele/bol-extractor/internal/ner"
)

// EntityRequest is one block of Bill-of-Lading text to tag.
type EntityRequest struct {
	Text string
	// Section names the block the text came from ("SHIPPER", "CONSIGNEE"); optional.
	Section string
}

// EntityResponse is the normalized shape we want from the LLM.
type EntityResponse struct {
	Entities []ner.Entity `json:"entities"`
}

// EntityExtractor is the interface provider clients implement.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, req EntityRequest) ([]ner.Entity, []byte /*rawJSON*/, error)
}
