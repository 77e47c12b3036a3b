package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bol-extractor/internal/llm"
	"github.com/joseph-ayodele/bol-extractor/internal/ner"
)

func completion(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return b
}

func stubServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

		_, _ = w.Write(completion(content))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRecognize(t *testing.T) {
	srv := stubServer(t, `{"entities":[{"text":"INTERCROMA SA","label":"ORG","confidence":0.97},{"text":"Brazil","label":"GPE","confidence":0.9}]}`)
	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/"}, nil)

	var r ner.Recognizer = c
	ents, err := r.Recognize(context.Background(), "INTERCROMA SA\nSao Bento do Sul - Brazil")
	require.NoError(t, err)
	require.Len(t, ents, 2)
	orgs := ner.Orgs(ents, 0.8)
	require.Len(t, orgs, 1)
	assert.Equal(t, "INTERCROMA SA", orgs[0].Text)
}

func TestRecognizeStrictRejectsOffSchema(t *testing.T) {
	srv := stubServer(t, `{"entities":[{"text":"Acme","label":"COMPANY","confidence":0.9}]}`)
	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)

	_, err := c.Recognize(context.Background(), "Acme")
	assert.ErrorContains(t, err, "schema validation failed")
}

func TestRecognizeLenientSanitizes(t *testing.T) {
	srv := stubServer(t, `{"entities":[{"text":" Acme ","label":"COMPANY","confidence":"90%"}]}`)
	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Lenient: true}, nil)

	ents, raw, err := c.ExtractEntities(context.Background(), llmRequest("Acme"))
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	require.Len(t, ents, 1)
	assert.Equal(t, ner.Entity{Text: "Acme", Label: ner.LabelOrg, Confidence: 0.9}, ents[0])
}

func TestRecognizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "nope", BaseURL: srv.URL}, nil)
	_, err := c.Recognize(context.Background(), "Acme")
	assert.ErrorContains(t, err, "401")
}

func TestRecognizeRetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(completion(`{"entities":[{"text":"Acme Corp","label":"ORG","confidence":0.9}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Retries: 1, Backoff: time.Millisecond}, nil)
	ents, err := c.Recognize(context.Background(), "Acme Corp")
	require.NoError(t, err)
	require.Len(t, ents, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRecognizeDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Retries: 3, Backoff: time.Millisecond}, nil)
	_, err := c.Recognize(context.Background(), "Acme")
	var se *llm.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRecognizeNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Recognize(context.Background(), "Acme")
	assert.ErrorContains(t, err, "no choices")
}

func llmRequest(text string) llm.EntityRequest {
	return llm.EntityRequest{Text: text, Section: "SHIPPER"}
}
