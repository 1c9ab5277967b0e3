package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/ai"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AnalysesTotal      uint64
	AnalysesFailed     uint64
	InferenceCalls     uint64
	FilesServed        uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

func IncrementRequests() { atomic.AddUint64(&globalMetrics.RequestsTotal, 1) }

func IncrementInProgress() { atomic.AddUint64(&globalMetrics.RequestsInProgress, 1) }

func DecrementInProgress() { atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0)) }

func IncrementSuccess() { atomic.AddUint64(&globalMetrics.RequestsSuccess, 1) }

func IncrementFailed() { atomic.AddUint64(&globalMetrics.RequestsFailed, 1) }

// IncrementAnalyses counts POST /analyze attempts that carried a file.
func IncrementAnalyses() { atomic.AddUint64(&globalMetrics.AnalysesTotal, 1) }

func IncrementAnalysesFailed() { atomic.AddUint64(&globalMetrics.AnalysesFailed, 1) }

// IncrementInference counts calls that reached the model.
func IncrementInference() { atomic.AddUint64(&globalMetrics.InferenceCalls, 1) }

func IncrementFilesServed() { atomic.AddUint64(&globalMetrics.FilesServed, 1) }

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"analyses_total":       atomic.LoadUint64(&globalMetrics.AnalysesTotal),
		"analyses_failed":      atomic.LoadUint64(&globalMetrics.AnalysesFailed),
		"inference_calls":      atomic.LoadUint64(&globalMetrics.InferenceCalls),
		"files_served":         atomic.LoadUint64(&globalMetrics.FilesServed),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}

type instrumentedClient struct {
	ai.Client
}

// InstrumentClient counts every call that reaches the model.
func InstrumentClient(c ai.Client) ai.Client {
	return instrumentedClient{Client: c}
}

func (c instrumentedClient) Analyze(ctx context.Context, p ai.Prompt) (string, error) {
	IncrementInference()
	return c.Client.Analyze(ctx, p)
}
