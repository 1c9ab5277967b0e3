package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidFileID(t *testing.T) {
	assert.True(t, ValidFileID("0b6f1d5e-8f0c-4c4e-9a43-5d2b7e1f0a11"))
	assert.False(t, ValidFileID(""))
	assert.False(t, ValidFileID("../../etc/passwd"))
	assert.False(t, ValidFileID("0b6f1d5e-8f0c-4c4e-9a43-5d2b7e1f0a11.pdf"))
}

func TestRequireFileID(t *testing.T) {
	r := chi.NewRouter()
	r.With(RequireFileID).Get("/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/not-a-uuid", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"File not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/0b6f1d5e-8f0c-4c4e-9a43-5d2b7e1f0a11", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "rfp.pdf", SanitizeFileName(`C:\Users\me\rfp.pdf`))
	assert.Equal(t, "passwd", SanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "abc.txt", SanitizeFileName("a\"b\x00c.txt"))
	assert.Equal(t, "", SanitizeFileName(""))
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(2, 0)
	t.Cleanup(limiter.Close)
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2"), "limits are per client")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadinessHandler(t *testing.T) {
	ok := &StorageHealthChecker{Store: pingFunc(func(context.Context) error { return nil })}
	bad := &StorageHealthChecker{Store: pingFunc(func(context.Context) error { return errors.New("bucket missing") })}

	rec := httptest.NewRecorder()
	ReadinessHandler(map[string]HealthChecker{"storage": ok})(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ReadinessHandler(map[string]HealthChecker{"storage": bad})(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "bucket missing", body.Checks["storage"].Message)
}

func TestLoggingAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	before := GetMetrics()["requests_failed"].(uint64)

	h := Logging(logger)(MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/teapot", line["path"])
	assert.EqualValues(t, 418, line["status"])
	assert.EqualValues(t, 15, line["bytes"])

	assert.Equal(t, before+1, GetMetrics()["requests_failed"].(uint64))
}
