package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
	"github.com/antonkuzmin/citedoc/internal/core/ports"
)

type askRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
	FusionK  int    `json:"fusion_k,omitempty"`
	History  []struct {
		Role string `json:"role"`
		Text string `json:"text"`
	} `json:"history,omitempty"`
}

func (rt *Router) decodeAskInput(r *http.Request) (ports.AskInput, error) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ports.AskInput{}, domain.WrapError(domain.ErrInvalidInput, "decode ask request", err)
	}
	if strings.TrimSpace(req.Question) == "" {
		return ports.AskInput{}, domain.WrapError(domain.ErrInvalidInput, "decode ask request",
			fmt.Errorf("question is required"))
	}

	input := ports.AskInput{
		Question: req.Question,
		TopK:     req.TopK,
		FusionK:  req.FusionK,
	}
	if req.Mode != "" {
		mode, err := domain.ParseRetrievalMode(req.Mode)
		if err != nil {
			return ports.AskInput{}, err
		}
		input.Mode = mode
	}
	for _, turn := range req.History {
		input.History = append(input.History, domain.ChatTurn{Role: turn.Role, Text: turn.Text})
	}
	return input, nil
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	input, err := rt.decodeAskInput(r)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	answer, err := rt.answers.Answer(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordAsk("ask", input, answer, time.Since(start))
	writeJSON(w, http.StatusOK, answer)
}

type streamEvent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	*domain.Answer
}

// sseSink relays use case stream events as server-sent events. Every delta
// is flushed immediately so the client sees tokens as they are generated.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	onDelta func()
}

func (s *sseSink) Delta(text string) error {
	if s.onDelta != nil {
		s.onDelta()
	}
	return s.writeEvent(streamEvent{Type: string(domain.StreamEventDelta), Text: text})
}

func (s *sseSink) Final(answer *domain.Answer) error {
	if err := s.writeEvent(streamEvent{Type: string(domain.StreamEventFinal), Answer: answer}); err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseSink) writeEvent(event streamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (rt *Router) askStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	input, err := rt.decodeAskInput(r)
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming is not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := &sseSink{
		w:       w,
		flusher: flusher,
		onDelta: func() { rt.metrics.RecordStreamDelta(rt.service) },
	}

	start := time.Now()
	if err := rt.answers.StreamAnswer(r.Context(), input, sink); err != nil {
		// Headers are already on the wire; the missing final event and the
		// closed stream are the only error signal the client gets.
		slog.Error("ask_stream_failed",
			"request_id", requestIDFromContext(r.Context()),
			"mode", string(input.Mode),
			"error", err,
		)
		return
	}
	rt.metrics.RecordAsk(rt.service, "ask_stream", string(input.Mode), 0, 0, false, time.Since(start))
}

func (rt *Router) recordAsk(endpoint string, input ports.AskInput, answer *domain.Answer, duration time.Duration) {
	mode := string(input.Mode)

	// Citations whose markers are absent from the text can only come from
	// the unverified fallback path.
	fellBack := len(answer.Citations) > 0
	for _, c := range answer.Citations {
		if strings.Contains(answer.Text, fmt.Sprintf("[%d]", c.N)) {
			fellBack = false
			break
		}
	}
	rt.metrics.RecordAsk(rt.service, endpoint, mode, len(answer.Retrieval), len(answer.Citations), fellBack, duration)
}
