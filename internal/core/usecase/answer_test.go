package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
	"github.com/antonkuzmin/citedoc/internal/core/ports"
)

type stubLexical struct {
	hits []domain.Candidate
}

func (s *stubLexical) Search(_ string, topK int) []domain.Candidate {
	if topK < len(s.hits) {
		return s.hits[:topK]
	}
	return s.hits
}

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{0.1, 0.2}, nil
}

type stubVector struct {
	hits []domain.Candidate
	err  error
}

func (s *stubVector) Search(_ context.Context, _ []float32, topK int) ([]domain.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	if topK < len(s.hits) {
		return s.hits[:topK], nil
	}
	return s.hits, nil
}

type stubGenerator struct {
	text   string
	deltas []string
	err    error
}

func (s *stubGenerator) Generate(_ context.Context, _ []domain.ChatMessage) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubGenerator) GenerateStream(_ context.Context, _ []domain.ChatMessage, onDelta func(string) error) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for _, delta := range s.deltas {
		if err := onDelta(delta); err != nil {
			return "", err
		}
	}
	return strings.Join(s.deltas, ""), nil
}

func corpusCandidates() []domain.Candidate {
	return []domain.Candidate{
		{ChunkID: 1, Source: "a.pdf", ChunkIndex: 0, Text: "Muni runs downtown.", Method: domain.MethodLexical, Score: 2.1},
		{ChunkID: 2, Source: "b.pdf", ChunkIndex: 0, Text: "BART connects SFO.", Method: domain.MethodLexical, Score: 1.4},
	}
}

func newTestAnswerUseCase(gen ports.AnswerGenerator) *AnswerUseCase {
	retriever := NewRetriever(
		&stubLexical{hits: corpusCandidates()},
		&stubEmbedder{},
		&stubVector{},
	)
	return NewAnswerUseCase(retriever, gen, AnswerConfig{DefaultMode: domain.ModeLexical})
}

func TestAnswerVerifiesCitedEvidence(t *testing.T) {
	uc := newTestAnswerUseCase(&stubGenerator{text: "  Take Muni [1] then BART [2].  "})

	answer, err := uc.Answer(context.Background(), ports.AskInput{Question: "How do I get downtown?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer.Text != "Take Muni [1] then BART [2]." {
		t.Fatalf("expected trimmed answer text, got %q", answer.Text)
	}
	if len(answer.Citations) != 2 {
		t.Fatalf("expected 2 verified citations, got %d", len(answer.Citations))
	}
	if answer.Citations[0].Source != "a.pdf" || answer.Citations[1].Source != "b.pdf" {
		t.Fatalf("unexpected citation provenance: %+v", answer.Citations)
	}
	if len(answer.Retrieval) != 2 {
		t.Fatalf("expected retrieval debug for both candidates, got %d", len(answer.Retrieval))
	}
}

func TestAnswerFallsBackToUnverifiedEvidence(t *testing.T) {
	uc := newTestAnswerUseCase(&stubGenerator{text: "I am not sure."})

	answer, err := uc.Answer(context.Background(), ports.AskInput{Question: "How do I get downtown?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(answer.Citations) != 2 {
		t.Fatalf("expected fallback to surface the packed ledger, got %d citations", len(answer.Citations))
	}
	if answer.Citations[0].N != 1 || answer.Citations[1].N != 2 {
		t.Fatalf("expected ledger-order fallback, got %+v", answer.Citations)
	}
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	uc := newTestAnswerUseCase(&stubGenerator{text: "irrelevant"})

	_, err := uc.Answer(context.Background(), ports.AskInput{Question: "   "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestAnswerPropagatesGeneratorError(t *testing.T) {
	uc := newTestAnswerUseCase(&stubGenerator{err: errors.New("model offline")})

	_, err := uc.Answer(context.Background(), ports.AskInput{Question: "anything"})
	if err == nil || !strings.Contains(err.Error(), "model offline") {
		t.Fatalf("expected generator error to propagate, got %v", err)
	}
}

func TestRetrieverHybridFusesBothLists(t *testing.T) {
	retriever := NewRetriever(
		&stubLexical{hits: []domain.Candidate{
			{ChunkID: 1, Source: "a.pdf", ChunkIndex: 0, Text: "alpha", Method: domain.MethodLexical},
		}},
		&stubEmbedder{},
		&stubVector{hits: []domain.Candidate{
			{ChunkID: 2, Source: "b.pdf", ChunkIndex: 0, Text: "beta", Method: domain.MethodSemantic},
			{ChunkID: 1, Source: "a.pdf", ChunkIndex: 0, Text: "alpha", Method: domain.MethodSemantic},
		}},
	)

	fused, err := retriever.Retrieve(context.Background(), "alpha beta", domain.ModeHybrid, 8, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fused) != 2 {
		t.Fatalf("expected 2 fused candidates, got %d", len(fused))
	}
	// Chunk 1 appears in both lists, so it must outrank chunk 2.
	if fused[0].ChunkID != 1 {
		t.Fatalf("expected chunk 1 first after fusion, got %d", fused[0].ChunkID)
	}
	if fused[0].Method != domain.MethodFused {
		t.Fatalf("expected fused method, got %q", fused[0].Method)
	}
}

func TestRetrieverHybridFailsWhenEmbedderFails(t *testing.T) {
	retriever := NewRetriever(
		&stubLexical{hits: corpusCandidates()},
		&stubEmbedder{err: errors.New("embedder down")},
		&stubVector{},
	)

	_, err := retriever.Retrieve(context.Background(), "anything", domain.ModeHybrid, 8, 60)
	if err == nil || !strings.Contains(err.Error(), "embedder down") {
		t.Fatalf("expected embedder failure to fail the query, got %v", err)
	}
}
