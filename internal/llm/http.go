package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/bol-extractor/internal/common"
)

// replies above this size are cut; an entity list is a few KB
const maxReplyBytes = 4 << 20

// StatusError is a non-2xx reply from an entity endpoint.
type StatusError struct {
	StatusCode int
	Body       string // first bytes of the reply
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("entity endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the same request may succeed later.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// PostEntities sends the provider body built for req to url and returns the raw
// reply. Logs carry the request and job IDs found in ctx.
func PostEntities(ctx context.Context, client *http.Client, url string, req EntityRequest, body any, headers map[string]string, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	log := logger.With(
		"request_id", common.RequestIDFromContext(ctx),
		"job_id", common.JobIDFromContext(ctx),
		"section", req.Section,
	)
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode entity request: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build entity request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		hreq.Header.Set(k, v)
	}

	log.Debug("llm.ner.http.request", "url", url, "text_len", len(req.Text), "content_length", len(bs))

	resp, err := client.Do(hreq)
	if err != nil {
		log.Error("llm.ner.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("send entity request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn("llm.ner.http.close_error", "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, fmt.Errorf("read entity reply: %w", err)
	}
	log.Debug("llm.ner.http.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
