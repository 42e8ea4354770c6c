// Package httpadapter exposes the query and ingestion use cases over HTTP.
// Handlers decode and validate the wire shapes; all semantics live in the
// use case layer.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/antonkuzmin/citedoc/internal/core/ports"
	"github.com/antonkuzmin/citedoc/internal/observability/metrics"
)

type TrafficConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	OverloadWait   time.Duration
}

type Router struct {
	ingest  ports.DocumentIngestor
	answers ports.AnswerService
	repo    ports.DocumentRepository
	metrics *metrics.HTTPServerMetrics
	service string
	traffic TrafficConfig
}

func NewRouter(
	ingest ports.DocumentIngestor,
	answers ports.AnswerService,
	repo ports.DocumentRepository,
	serverMetrics *metrics.HTTPServerMetrics,
	service string,
	traffic TrafficConfig,
) *Router {
	return &Router{
		ingest:  ingest,
		answers: answers,
		repo:    repo,
		metrics: serverMetrics,
		service: service,
		traffic: traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/ask/stream", rt.askStream)

	var handler http.Handler = mux
	if rt.traffic.MaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.traffic.MaxConcurrent, rt.traffic.OverloadWait)
	}
	if rt.traffic.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	}
	handler = rt.metrics.Middleware(rt.service, handler)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
