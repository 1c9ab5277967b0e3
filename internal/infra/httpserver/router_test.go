package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/rfp-analyzer/internal/application/analysis"
	appfiles "github.com/bryanwahyu/rfp-analyzer/internal/application/files"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/storage"
)

const modelJSON = `{"disciplines":["Civil","Structural"],"dates":{"submission":"2025-06-30","completion":null,"siteVisit":"2025-05-02"},` +
	`"risks":["Liquidated damages",{"category":"Bonding"}],"goNoGoSuggestion":"GO","confidence":72,"rationale":"Core disciplines match."}`

type stubClient struct {
	out   string
	err   error
	calls int
}

func (s *stubClient) Analyze(context.Context, ai.Prompt) (string, error) {
	s.calls++
	return s.out, s.err
}

func (s *stubClient) Name() string { return "stub" }

type fixture struct {
	handler http.Handler
	bucket  *storage.MemoryBucket
	client  *stubClient
}

func newFixture(t *testing.T, basePath string, maxUpload int64) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bucket := storage.NewMemory("rfp-uploads")
	store := storage.NewStore(bucket, storage.Options{BasePath: basePath, Logger: logger})
	client := &stubClient{out: modelJSON}

	h := NewRouter(Options{
		Analysis:       &appanalysis.Service{Store: store, Client: client, Logger: logger},
		Files:          &appfiles.Service{Store: store},
		Store:          store,
		Logger:         logger,
		BasePath:       basePath,
		MaxUploadBytes: maxUpload,
		Provider:       "stub",
		Backend:        "memory",
		Credentials:    map[string]bool{"hasAIKey": true},
	})
	return &fixture{handler: h, bucket: bucket, client: client}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, target, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAnalyzeWithoutFile(t *testing.T) {
	f := newFixture(t, "", 0)

	rec := f.do(uploadRequest(t, "/analyze", "", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided", decode(t, rec)["error"])
	assert.Zero(t, f.client.calls)

	// not multipart at all
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec = f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	f := newFixture(t, "", 0)

	rec := f.do(uploadRequest(t, "/analyze", "blank.txt", "text/plain", []byte("  \n\t ")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Document is empty or text could not be extracted", decode(t, rec)["error"])
	assert.Zero(t, f.client.calls)

	// stored anyway
	objs, err := f.bucket.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}

func TestAnalyzeSuccess(t *testing.T) {
	f := newFixture(t, "/api", 0)

	rec := f.do(uploadRequest(t, "/api/analyze", "bridge-rfp.txt", "", []byte("Bridge rehabilitation, structural and civil work.")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, 1, f.client.calls)

	body := decode(t, rec)
	assert.Equal(t, "GO", body["goNoGoSuggestion"])
	assert.Equal(t, []any{"Civil", "Structural"}, body["disciplines"])
	assert.Equal(t, []any{"Liquidated damages", "Bonding"}, body["riskLabels"])

	meta := body["fileMetadata"].(map[string]any)
	assert.Equal(t, "bridge-rfp.txt", meta["originalName"])
	assert.Equal(t, "text/plain", meta["mimeType"], "detected from content")
	assert.Equal(t, "/api/files/"+meta["id"].(string), meta["url"])

	extraction := body["extraction"].(map[string]any)
	assert.Equal(t, "RAW_TEXT", extraction["strategy"])
	assert.Equal(t, false, extraction["truncated"])
}

func TestAnalyzeInferenceFailure(t *testing.T) {
	f := newFixture(t, "", 0)
	f.client.err = errors.New("connection refused")

	rec := f.do(uploadRequest(t, "/analyze", "rfp.md", "text/markdown", []byte("# Scope")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Failed to analyze document", body["error"])
	assert.Contains(t, body["details"], "connection refused")

	full := body["fullError"].(map[string]any)
	assert.Equal(t, "InferenceInvocationError", full["name"])
	assert.Equal(t, "connection refused", full["cause"])
}

func TestAnalyzeMalformedOutputKeepsRawText(t *testing.T) {
	f := newFixture(t, "", 0)
	f.client.out = "Sorry, I cannot help with that."

	rec := f.do(uploadRequest(t, "/analyze", "rfp.txt", "text/plain", []byte("Scope of work")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	full := decode(t, rec)["fullError"].(map[string]any)
	assert.Equal(t, "MalformedAnalysisError", full["name"])
	assert.Equal(t, "Sorry, I cannot help with that.", full["rawText"])
}

func TestAnalyzeStorageFailure(t *testing.T) {
	f := newFixture(t, "", 0)
	f.bucket.SetMissing(true)

	rec := f.do(uploadRequest(t, "/analyze", "rfp.txt", "text/plain", []byte("Scope of work")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, f.client.calls)

	full := decode(t, rec)["fullError"].(map[string]any)
	assert.Equal(t, "StorageWriteError", full["name"])
	assert.Equal(t, "rfp-uploads", full["bucket"])
	assert.Equal(t, "bucket_missing", full["kind"])
}

func TestAnalyzeTooLarge(t *testing.T) {
	f := newFixture(t, "", 64)

	rec := f.do(uploadRequest(t, "/analyze", "big.txt", "text/plain", bytes.Repeat([]byte("a"), 1024)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, f.client.calls)
}

func TestGetFile(t *testing.T) {
	f := newFixture(t, "", 0)
	pdf := []byte("%PDF-1.4\nbinary \x00\x01\x02")

	rec := f.do(uploadRequest(t, "/analyze", "Rénovation école.pdf", "application/pdf", pdf))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode(t, rec)["fileMetadata"].(map[string]any)["id"].(string)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/files/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pdf, rec.Body.Bytes())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, strconv.Itoa(len(pdf)), rec.Header().Get("Content-Length"))
	assert.Equal(t, "private, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Equal(t,
		`attachment; filename="R?novation ?cole.pdf"; filename*=UTF-8''R%C3%A9novation%20%C3%A9cole.pdf`,
		rec.Header().Get("Content-Disposition"))
}

func TestGetFileNotFound(t *testing.T) {
	f := newFixture(t, "", 0)

	for _, target := range []string{
		"/files/not-a-uuid",
		"/files/6f1c1c1e-1111-4222-8333-444455556666",
	} {
		rec := f.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "File not found", decode(t, rec)["error"], target)
	}
}

func TestGetFileStorageFailureHasNoDiagnostics(t *testing.T) {
	f := newFixture(t, "", 0)
	f.bucket.SetMissing(true)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/files/6f1c1c1e-1111-4222-8333-444455556666", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Failed to serve file", body["error"])
	assert.NotContains(t, body, "fullError")
}

func TestListAndDeleteFiles(t *testing.T) {
	f := newFixture(t, "", 0)
	rec := f.do(uploadRequest(t, "/analyze", "a.txt", "text/plain", []byte("Scope")))
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode(t, rec)["fileMetadata"].(map[string]any)["id"].(string)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/files/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/files/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "", 0)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "stub", body["provider"])
	assert.Equal(t, map[string]any{"hasAIKey": true}, body["credentials"])
	assert.NotContains(t, rec.Body.String(), "sk-")
}

func TestStorageHealth(t *testing.T) {
	f := newFixture(t, "", 0)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/storage/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"ok": true, "bucket": "rfp-uploads"}, decode(t, rec))

	f.bucket.SetMissing(true)
	rec = f.do(httptest.NewRequest(http.MethodGet, "/storage/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "bucket_missing", body["code"])
	assert.Contains(t, body["error"], "does not exist")
}

func TestBasePathMountsEveryRoute(t *testing.T) {
	f := newFixture(t, "/api", 0)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="rfp.pdf"`, contentDisposition("rfp.pdf"))
	assert.Equal(t, `attachment; filename="a quoted.pdf"; filename*=UTF-8''a%20%22quoted%22.pdf`, contentDisposition(`a "quoted".pdf`))
	assert.Equal(t, `attachment; filename="??.docx"; filename*=UTF-8''%E6%A1%88%E4%BB%B6.docx`, contentDisposition("案件.docx"))
}

func TestAnalyzeNonFiniteConfidenceStaysValidJSON(t *testing.T) {
	for _, conf := range []string{`"NaN"`, `"Infinity"`} {
		t.Run(conf, func(t *testing.T) {
			f := newFixture(t, "", 0)
			f.client.out = `{"disciplines":["Civil"],"risks":[],"goNoGoSuggestion":"GO","confidence":` + conf + `,"rationale":"r"}`

			rec := f.do(uploadRequest(t, "/analyze", "rfp.txt", "text/plain", []byte("Scope of work")))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			body := decode(t, rec)
			assert.Nil(t, body["confidence"])
			assert.Equal(t, false, body["validation"].(map[string]any)["valid"])
		})
	}
}

func TestWrapTurnsEncodingFailureIntoServerError(t *testing.T) {
	r := &Router{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	h := r.wrap(func(w http.ResponseWriter, _ *http.Request) error {
		return writeJSON(w, http.StatusOK, map[string]float64{"confidence": math.NaN()})
	}, "Failed to analyze document", true)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/analyze", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Failed to analyze document", body["error"])
	assert.Contains(t, body["details"], "unsupported value")
}
