package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bol-extractor/internal/llm"
	"github.com/joseph-ayodele/bol-extractor/internal/ner"
)

var (
	_ llm.EntityExtractor = (*Client)(nil)
	_ ner.Recognizer      = (*Client)(nil)
)

// Recognize implements ner.Recognizer.
func (c *Client) Recognize(ctx context.Context, text string) ([]ner.Entity, error) {
	ents, _, err := c.ExtractEntities(ctx, llm.EntityRequest{Text: text})
	return ents, err
}

// ExtractEntities implements llm.EntityExtractor using chat/completions in JSON mode.
func (c *Client) ExtractEntities(ctx context.Context, req llm.EntityRequest) ([]ner.Entity, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.ner.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"section", req.Section,
	)

	schema := llm.BuildEntityJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, err := c.post(ctx, endpoint, req, body, headers)
	if err != nil {
		status := 0
		var se *llm.StatusError
		if errors.As(err, &se) {
			status = se.StatusCode
		}
		c.log.Error("llm.ner.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.ner.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.ner.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("no choices in openai response")
	}
	rawContent := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	// Validate strictly first.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		if !c.cfg.Lenient {
			c.log.Error("llm.ner.schema_validation_failed",
				"req_id", rid, "error", err, "content", string(rawContent),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, rawContent, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, dropped, sErr := llm.NormalizeAndSanitizeJSON(rawContent, c.log)
		if sErr != nil {
			c.log.Error("llm.ner.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, rawContent, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.ner.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(cleaned),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, cleaned, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.ner.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out llm.EntityResponse
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.log.Error("llm.ner.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, rawContent, fmt.Errorf("unmarshal entities: %w", err)
	}

	c.log.Info("llm.ner.ok",
		"req_id", rid,
		"entities", len(out.Entities),
		"orgs", len(ner.Orgs(out.Entities, 0)),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Entities, rawContent, nil
}

// post retries rate-limited and server-side failures up to cfg.Retries times.
func (c *Client) post(ctx context.Context, endpoint string, req llm.EntityRequest, body any, headers map[string]string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		raw, err := llm.PostEntities(ctx, c.httpClient, endpoint, req, body, headers, c.log)
		var se *llm.StatusError
		if err == nil || !errors.As(err, &se) || !se.Temporary() || attempt >= c.cfg.Retries {
			return raw, err
		}
		c.log.Warn("llm.ner.retry", "status", se.StatusCode, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return raw, ctx.Err()
		case <-time.After(c.cfg.Backoff << attempt):
		}
	}
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
