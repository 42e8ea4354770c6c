package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
	"github.com/antonkuzmin/citedoc/internal/core/ports"
	"github.com/antonkuzmin/citedoc/internal/observability/metrics"
)

type stubAnswerService struct {
	answer *domain.Answer
	deltas []string
	err    error

	gotInput ports.AskInput
}

func (s *stubAnswerService) Answer(_ context.Context, input ports.AskInput) (*domain.Answer, error) {
	s.gotInput = input
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

func (s *stubAnswerService) StreamAnswer(_ context.Context, input ports.AskInput, sink ports.StreamSink) error {
	s.gotInput = input
	if s.err != nil {
		return s.err
	}
	for _, delta := range s.deltas {
		if err := sink.Delta(delta); err != nil {
			return err
		}
	}
	return sink.Final(s.answer)
}

type stubIngestor struct {
	doc *domain.Document
	err error
}

func (s *stubIngestor) Upload(_ context.Context, _, _ string, _ io.Reader) (*domain.Document, error) {
	return s.doc, s.err
}

type stubRepo struct {
	doc *domain.Document
	err error
}

func (s *stubRepo) Create(context.Context, *domain.Document) error { return nil }
func (s *stubRepo) GetByID(context.Context, string) (*domain.Document, error) {
	return s.doc, s.err
}
func (s *stubRepo) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}
func (s *stubRepo) SetChunkCount(context.Context, string, int) error { return nil }

func newTestHandler(answers ports.AnswerService, repo ports.DocumentRepository, traffic TrafficConfig) http.Handler {
	return NewRouter(
		&stubIngestor{},
		answers,
		repo,
		metrics.NewHTTPServerMetrics("test"),
		"test",
		traffic,
	).Handler()
}

func testAnswer() *domain.Answer {
	return &domain.Answer{
		Text: "Take Muni [1].",
		Citations: []domain.Citation{
			{N: 1, Source: "a.pdf", ChunkIndex: 0, Text: "Muni runs downtown."},
		},
		Retrieval: []domain.RetrievalDebug{
			{ChunkID: 1, Method: domain.MethodFused, Score: 0.03, Source: "a.pdf", Preview: "Muni runs downtown."},
		},
	}
}

func TestAskReturnsAnswerJSON(t *testing.T) {
	svc := &stubAnswerService{answer: testAnswer()}
	handler := newTestHandler(svc, &stubRepo{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask",
		strings.NewReader(`{"question":"How do I get downtown?","mode":"hybrid","top_k":4}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	body := res.Body.String()
	if !strings.Contains(body, `"answer":"Take Muni [1]."`) {
		t.Fatalf("expected answer text in body, got %s", body)
	}
	if !strings.Contains(body, `"citations"`) || !strings.Contains(body, `"retrieval"`) {
		t.Fatalf("expected citations and retrieval in body, got %s", body)
	}
	if svc.gotInput.Mode != domain.ModeHybrid || svc.gotInput.TopK != 4 {
		t.Fatalf("unexpected decoded input: %+v", svc.gotInput)
	}
}

func TestAskRejectsUnknownMode(t *testing.T) {
	handler := newTestHandler(&stubAnswerService{answer: testAnswer()}, &stubRepo{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask",
		strings.NewReader(`{"question":"anything","mode":"psychic"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", res.Code)
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	handler := newTestHandler(&stubAnswerService{answer: testAnswer()}, &stubRepo{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"  "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty question, got %d", res.Code)
	}
}

func TestAskMapsTemporaryErrorTo503(t *testing.T) {
	svc := &stubAnswerService{err: domain.WrapError(domain.ErrTemporary, "answer", errors.New("queue down"))}
	handler := newTestHandler(svc, &stubRepo{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"anything"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestAskStreamEmitsSSEEvents(t *testing.T) {
	svc := &stubAnswerService{answer: testAnswer(), deltas: []string{"Take ", "Muni [1]."}}
	handler := newTestHandler(svc, &stubRepo{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask/stream",
		strings.NewReader(`{"question":"How do I get downtown?"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := res.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", got)
	}

	body := res.Body.String()
	if !strings.Contains(body, `data: {"type":"delta","text":"Take "}`) {
		t.Fatalf("expected first delta event, got:\n%s", body)
	}
	if !strings.Contains(body, `"type":"final"`) || !strings.Contains(body, `"answer":"Take Muni [1]."`) {
		t.Fatalf("expected final event with answer, got:\n%s", body)
	}
	if !strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]") {
		t.Fatalf("expected [DONE] terminator, got:\n%s", body)
	}
}

func TestAskStreamAbortedProducesNoFinal(t *testing.T) {
	svc := &stubAnswerService{err: errors.New("generation failed")}
	handler := newTestHandler(svc, &stubRepo{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask/stream",
		strings.NewReader(`{"question":"anything"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	body := res.Body.String()
	if strings.Contains(body, `"type":"final"`) || strings.Contains(body, "[DONE]") {
		t.Fatalf("expected no final event after abort, got:\n%s", body)
	}
}

func TestAskStreamErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	svc := &stubAnswerService{err: errors.New("generation failed")}
	handler := newTestHandler(svc, &stubRepo{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask/stream",
		strings.NewReader(`{"question":"anything"}`))
	req.Header.Set("X-Request-Id", "req-123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	logged := buf.String()
	if !strings.Contains(logged, "ask_stream_failed") || !strings.Contains(logged, "generation failed") {
		t.Fatalf("expected stream failure log, got:\n%s", logged)
	}
	if !strings.Contains(logged, "req-123") {
		t.Fatalf("expected request id in the failure log, got:\n%s", logged)
	}
}

func TestGetDocumentMapsNotFoundTo404(t *testing.T) {
	repo := &stubRepo{err: domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("id missing"))}
	handler := newTestHandler(&stubAnswerService{answer: testAnswer()}, repo, TrafficConfig{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestRateLimitReturns429WithRetryAfter(t *testing.T) {
	handler := newTestHandler(&stubAnswerService{answer: testAnswer()}, &stubRepo{}, TrafficConfig{
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
	})

	req1 := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`))
	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, req1)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`))
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}
}

func TestRateLimitExemptsHealthz(t *testing.T) {
	handler := newTestHandler(&stubAnswerService{answer: testAnswer()}, &stubRepo{}, TrafficConfig{
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("healthz request %d expected 200, got %d", i, res.Code)
		}
	}
}

func TestBackpressureReturns503WhenSaturated(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int, 1)

	base := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	handler := backpressureMiddleware(base, 1, 20*time.Millisecond)

	go func() {
		req := httptest.NewRequest(http.MethodGet, "/v1/ask", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		done <- res.Code
	}()

	<-started

	req2 := httptest.NewRequest(http.MethodGet, "/v1/ask", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for saturated gate, got %d", res2.Code)
	}

	close(release)

	select {
	case code := <-done:
		if code != http.StatusNoContent {
			t.Fatalf("first request expected 204, got %d", code)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timed out waiting for first request completion")
	}
}
