package server

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/ner"
	"github.com/joseph-ayodele/bol-extractor/internal/pdftext"
	"github.com/joseph-ayodele/bol-extractor/internal/pipeline"
	"github.com/joseph-ayodele/bol-extractor/internal/repository"
)

const sampleText = `B/L No: MEDUP1966175
SHIPPER: INTERCROMA SA
AVDA. DIAGONAL 123, BARCELONA

CONSIGNEE: MUSCAT WOODEN PALLETS L.L.C.
P.O. BOX 12, MUSCAT

Total Gross Weight: 50,000.000 Kgs
Total Items: 88
2 x 40' HIGH CUBE
BEAU5862453 SEAL FJ21074021 40' HIGH CUBE
BMOU5932452 SEAL FJ21154465 40' HIGH CUBE
FREIGHT AND CHARGES: PREPAID`

// fakePDF is what the stub extractor accepts; anything else fails like a corrupt file.
var fakePDF = []byte("%PDF-1.4 sample")

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, content []byte) (pdftext.Result, error) {
	if !bytes.Equal(content, fakePDF) {
		return pdftext.Result{}, errors.New("malformed PDF")
	}
	return pdftext.Result{Text: sampleText, Pages: 1, Method: pdftext.MethodTextLayer, Confidence: 0.9}, nil
}

func newTestProcessor(jobs repository.ExtractJobRepository) *pipeline.Processor {
	return pipeline.NewProcessor(nil,
		pipeline.NewTextStage(jobs, stubExtractor{}, nil),
		pipeline.NewParseStage(nil, jobs, nil))
}

func openJobs(t *testing.T) (*repository.DB, repository.ExtractJobRepository) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:", DialTimeout: time.Second}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(db.Close)
	return db, repository.NewExtractJobRepository(db, nil)
}

func newTestHandler(t *testing.T, withJobs bool, strict bool) (*Handler, repository.ExtractJobRepository) {
	t.Helper()
	var jobs repository.ExtractJobRepository
	deps := Deps{Recognizer: ner.NewHeuristic()}
	if withJobs {
		db, repo := openJobs(t)
		jobs = repo
		deps.Jobs = repo
		deps.Health = func(ctx context.Context) error { return db.HealthCheck(ctx, time.Second) }
	}
	deps.Processor = newTestProcessor(jobs)
	cfg := common.ServerConfig{MaxUploadMB: 1, StrictOutput: strict, CORSOrigins: []string{"*"}}
	return NewHandler(deps, cfg, nil), jobs
}

type part struct {
	filename    string
	contentType string
	content     []byte
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+p.filename+`"`)
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
