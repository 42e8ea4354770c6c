package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
	"github.com/antonkuzmin/citedoc/internal/core/ports"
)

const unverifiedFallbackCitations = 3

// AnswerConfig carries the tunables of the answer pipeline. Zero values fall
// back to the documented defaults.
type AnswerConfig struct {
	DefaultMode       domain.RetrievalMode
	TopK              int
	FusionK           int
	HistoryWindow     int
	ContextMaxChars   int
	PassageMaxChars   int
	DebugPreviewChars int
}

func (c AnswerConfig) normalize() AnswerConfig {
	out := c
	if out.DefaultMode == "" {
		out.DefaultMode = domain.ModeHybrid
	}
	if out.TopK <= 0 {
		out.TopK = 8
	}
	if out.FusionK <= 0 {
		out.FusionK = defaultFusionK
	}
	if out.HistoryWindow <= 0 {
		out.HistoryWindow = defaultHistoryWindow
	}
	if out.ContextMaxChars <= 0 {
		out.ContextMaxChars = defaultContextBudget
	}
	if out.PassageMaxChars <= 0 {
		out.PassageMaxChars = defaultPerPassageChars
	}
	if out.DebugPreviewChars <= 0 {
		out.DebugPreviewChars = 400
	}
	return out
}

// AnswerUseCase composes retrieval, evidence packing, generation, and
// citation verification into the public query interface.
type AnswerUseCase struct {
	retriever *Retriever
	generator ports.AnswerGenerator
	cfg       AnswerConfig
}

func NewAnswerUseCase(retriever *Retriever, generator ports.AnswerGenerator, cfg AnswerConfig) *AnswerUseCase {
	return &AnswerUseCase{
		retriever: retriever,
		generator: generator,
		cfg:       cfg.normalize(),
	}
}

// Answer runs one synchronous query cycle. An empty generated answer is a
// valid zero-length result, not an error. When the generator cites nothing
// that verification recognizes, the first three unverified ledger entries
// are surfaced instead of returning no evidence at all; the streaming
// variant deliberately does not share this fallback.
func (uc *AnswerUseCase) Answer(ctx context.Context, input ports.AskInput) (*domain.Answer, error) {
	prep, err := uc.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	answerText, err := uc.generator.Generate(ctx, prep.messages)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	answerText = strings.TrimSpace(answerText)

	citations := VerifyCitations(answerText, prep.pack.Citations)
	if len(citations) == 0 {
		limit := unverifiedFallbackCitations
		if limit > len(prep.pack.Citations) {
			limit = len(prep.pack.Citations)
		}
		citations = prep.pack.Citations[:limit]
	}

	return &domain.Answer{
		Text:      answerText,
		Citations: citations,
		Retrieval: prep.debug,
	}, nil
}

type preparedQuery struct {
	candidates []domain.Candidate
	pack       EvidencePack
	messages   []domain.ChatMessage
	debug      []domain.RetrievalDebug
}

func (uc *AnswerUseCase) prepare(ctx context.Context, input ports.AskInput) (*preparedQuery, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", fmt.Errorf("question is empty"))
	}

	mode := input.Mode
	if mode == "" {
		mode = uc.cfg.DefaultMode
	}
	topK := input.TopK
	if topK <= 0 {
		topK = uc.cfg.TopK
	}
	fusionK := input.FusionK
	if fusionK <= 0 {
		fusionK = uc.cfg.FusionK
	}

	candidates, err := uc.retriever.Retrieve(ctx, question, mode, topK, fusionK)
	if err != nil {
		return nil, err
	}

	pack := PackEvidence(candidates, uc.cfg.ContextMaxChars, uc.cfg.PassageMaxChars)
	messages := buildMessages(question, pack.Context, input.History, uc.cfg.HistoryWindow)

	debug := make([]domain.RetrievalDebug, 0, len(candidates))
	for _, cand := range candidates {
		debug = append(debug, domain.RetrievalDebug{
			ChunkID:    cand.ChunkID,
			Method:     cand.Method,
			Score:      cand.Score,
			Source:     cand.Source,
			ChunkIndex: cand.ChunkIndex,
			Preview:    truncateRunes(cand.Text, uc.cfg.DebugPreviewChars),
		})
	}

	return &preparedQuery{
		candidates: candidates,
		pack:       pack,
		messages:   messages,
		debug:      debug,
	}, nil
}
