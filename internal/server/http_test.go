package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bol-extractor/constants"
	"github.com/joseph-ayodele/bol-extractor/internal/bol"
	"github.com/joseph-ayodele/bol-extractor/internal/export"
)

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func upload(t *testing.T, h http.Handler, query string, parts ...part) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, parts...)
	req := httptest.NewRequest(http.MethodPost, "/upload"+query, body)
	req.Header.Set("Content-Type", ct)
	return do(t, h, req)
}

func TestIndex(t *testing.T) {
	h, _ := newTestHandler(t, false, false)
	rec := do(t, h.Router(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `name="file"`)
}

func TestUpload(t *testing.T) {
	h, jobs := newTestHandler(t, true, true)
	rec := upload(t, h.Router(), "", part{"bol.pdf", constants.PDFContentType, fakePDF})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, bol.ValidateResult(rec.Body.Bytes()))
	got := decode(t, rec)
	assert.Equal(t, "MEDUP1966175", got["bill_of_lading_number"])
	assert.Equal(t, "INTERCROMA SA", got["shipper"])
	assert.Equal(t, "MUSCAT WOODEN PALLETS L.L.C.", got["consignee"])
	assert.Equal(t, 88.0, got["total_items"])
	assert.Equal(t, 2.0, got["number_of_containers"])
	assert.Len(t, got["containers"], 2)
	assert.NotContains(t, got, "raw_text")
	assert.NotContains(t, got, "entities")

	id, err := uuid.Parse(rec.Header().Get("X-Job-Id"))
	require.NoError(t, err)
	job, err := jobs.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusParsed), job.Status)
}

func TestUploadIncludeTextAndEntities(t *testing.T) {
	h, _ := newTestHandler(t, false, false)
	rec := upload(t, h.Router(), "?include_text=true&include_entities=1", part{"bol.pdf", constants.PDFContentType, fakePDF})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode(t, rec)
	assert.Equal(t, sampleText, got["raw_text"])
	ents, ok := got["entities"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"INTERCROMA SA"}, entityTexts(t, ents["shipper"]))
	assert.Equal(t, []string{"MUSCAT WOODEN PALLETS L.L.C."}, entityTexts(t, ents["consignee"]))
}

func TestExtractTextEntitiesPerParty(t *testing.T) {
	h, _ := newTestHandler(t, false, false)
	body, _ := json.Marshal(map[string]string{"text": "SHIPPER: Acme Corp\nDenver CO 80202\n\nNOTIFY PARTY: Globex Inc"})
	rec := do(t, h.Router(), httptest.NewRequest(http.MethodPost, "/extract?include_entities=true", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode(t, rec)
	ents, ok := got["entities"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"Acme Corp"}, entityTexts(t, ents["shipper"]))
	assert.NotContains(t, ents, "consignee")
}

func entityTexts(t *testing.T, v any) []string {
	t.Helper()
	list, ok := v.([]any)
	require.True(t, ok, "entities must be a list, got %T", v)
	var out []string
	for _, e := range list {
		out = append(out, e.(map[string]any)["text"].(string))
	}
	return out
}

func TestUploadRejectsNonPDF(t *testing.T) {
	h, _ := newTestHandler(t, false, false)
	rec := upload(t, h.Router(), "", part{"notes.txt", "text/plain", []byte("hello")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "Invalid file type. Please upload a PDF."}`, rec.Body.String())
}

func TestUploadExtractionFailure(t *testing.T) {
	h, _ := newTestHandler(t, true, false)
	rec := upload(t, h.Router(), "", part{"broken.pdf", constants.PDFContentType, []byte("garbage")})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "malformed PDF"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Job-Id"))
}

func TestUploadMissingFileAndTooLarge(t *testing.T) {
	h, _ := newTestHandler(t, false, false)
	r := h.Router()

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	assert.Equal(t, http.StatusBadRequest, do(t, r, req).Code)

	big := bytes.Repeat([]byte("a"), 2<<20)
	rec := upload(t, r, "", part{"big.pdf", constants.PDFContentType, big})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestExtractText(t *testing.T) {
	h, _ := newTestHandler(t, false, true)
	r := h.Router()

	body, _ := json.Marshal(map[string]string{"text": sampleText})
	rec := do(t, r, httptest.NewRequest(http.MethodPost, "/extract", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	want, err := bol.Shape(bol.Extract(sampleText)).JSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(want), rec.Body.String())

	rec = do(t, r, httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(`{"text": ""}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bill_of_lading_number":null,"shipper":null,"consignee":null,"total_gross_weight":null,
		"total_items":null,"number_of_containers":null,"containers":[],"warnings":[]}`, rec.Body.String())

	rec = do(t, r, httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportWorkbook(t *testing.T) {
	h, _ := newTestHandler(t, false, false)
	body, ct := multipartBody(t,
		part{"a.pdf", constants.PDFContentType, fakePDF},
		part{"notes.txt", "text/plain", []byte("x")},
		part{"broken.pdf", constants.PDFContentType, []byte("garbage")},
	)
	req := httptest.NewRequest(http.MethodPost, "/export", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, h.Router(), req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetShipments)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "MEDUP1966175", rows[1][1])
	assert.Equal(t, "Invalid file type. Please upload a PDF.", rows[2][10])
	assert.Equal(t, "malformed PDF", rows[3][10])

	containers, err := f.GetRows(export.SheetContainers)
	require.NoError(t, err)
	assert.Len(t, containers, 3)
}

func TestJobsEndpoints(t *testing.T) {
	h, _ := newTestHandler(t, true, false)
	r := h.Router()

	up := upload(t, r, "", part{"bol.pdf", constants.PDFContentType, fakePDF})
	require.Equal(t, http.StatusOK, up.Code)
	id := up.Header().Get("X-Job-Id")

	rec := do(t, r, httptest.NewRequest(http.MethodGet, "/jobs?status=PARSED&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["jobs"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].(map[string]any)["id"])

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	job := decode(t, rec)
	assert.Equal(t, "bol.pdf", job["filename"])
	assert.Equal(t, "MEDUP1966175", job["extracted_json"].(map[string]any)["bill_of_lading_number"])

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/jobs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/jobs?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/jobs/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
}

func TestJobsWithoutJobLog(t *testing.T) {
	h, _ := newTestHandler(t, false, false)
	rec := do(t, h.Router(), httptest.NewRequest(http.MethodGet, "/jobs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "job log is not configured"}`, rec.Body.String())
}

func TestHealthAndSchema(t *testing.T) {
	h, _ := newTestHandler(t, true, false)
	r := h.Router()

	rec := do(t, r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/schema", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	schema := decode(t, rec)
	assert.Contains(t, schema["properties"], "containers")
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestHandler(t, false, false)
	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := do(t, h.Router(), req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
