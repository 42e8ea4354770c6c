package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

type QuestionResult struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	Error          string   `json:"error,omitempty"`
	Citations      int      `json:"citations"`
	Retrieved      int      `json:"retrieved"`
	Sources        []string `json:"sources,omitempty"`
	MissingSources []string `json:"missing_sources,omitempty"`
	Refusal        bool     `json:"refusal"`
	LatencyMS      float64  `json:"latency_ms"`
}

type Report struct {
	Name          string           `json:"name"`
	Total         int              `json:"total"`
	Failed        int              `json:"failed"`
	Refusals      int              `json:"refusals"`
	WithCitations int              `json:"with_citations"`
	Results       []QuestionResult `json:"results"`
}

type Runner struct {
	baseURL string
	mode    string
	client  *http.Client
}

func NewRunner(baseURL, mode string) *Runner {
	return &Runner{
		baseURL: strings.TrimRight(baseURL, "/"),
		mode:    mode,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

func (r *Runner) Run(ctx context.Context, set *QuestionSet) (*Report, error) {
	report := &Report{
		Name:    set.Name,
		Total:   len(set.Questions),
		Results: make([]QuestionResult, 0, len(set.Questions)),
	}

	for _, q := range set.Questions {
		result := r.runOne(ctx, q)
		if result.Error != "" {
			report.Failed++
		}
		if result.Refusal {
			report.Refusals++
		}
		if result.Citations > 0 {
			report.WithCitations++
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, q Question) QuestionResult {
	result := QuestionResult{ID: q.ID, Question: q.Question}

	mode := q.Mode
	if mode == "" {
		mode = r.mode
	}
	payload, err := json.Marshal(map[string]any{
		"question": q.Question,
		"mode":     mode,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/ask", bytes.NewReader(payload))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()
	result.LatencyMS = float64(time.Since(start).Microseconds()) / 1000.0

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		result.Error = fmt.Sprintf("status %s: %s", resp.Status, strings.TrimSpace(string(raw)))
		return result
	}

	var answer domain.Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		result.Error = fmt.Sprintf("decode answer: %v", err)
		return result
	}

	result.Citations = len(answer.Citations)
	result.Retrieved = len(answer.Retrieval)
	result.Refusal = IsRefusal(answer.Text)
	result.Sources = uniqueSources(answer.Citations)
	result.MissingSources = missingSources(q.ExpectSources, result.Sources)
	return result
}

func uniqueSources(citations []domain.Citation) []string {
	seen := make(map[string]struct{}, len(citations))
	out := make([]string, 0, len(citations))
	for _, c := range citations {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		out = append(out, c.Source)
	}
	sort.Strings(out)
	return out
}

func missingSources(expected, got []string) []string {
	if len(expected) == 0 {
		return nil
	}
	present := make(map[string]struct{}, len(got))
	for _, s := range got {
		present[s] = struct{}{}
	}
	var missing []string
	for _, s := range expected {
		if _, ok := present[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}
