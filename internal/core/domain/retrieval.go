package domain

import (
	"fmt"
	"strings"
)

// RetrievalMethod tags which strategy produced a candidate. Scores are only
// comparable within one method: lexical scores are unbounded BM25 sums,
// semantic scores are similarity measures, fused scores are RRF sums.
type RetrievalMethod string

const (
	MethodLexical  RetrievalMethod = "lexical"
	MethodSemantic RetrievalMethod = "semantic"
	MethodFused    RetrievalMethod = "fused"
)

type RetrievalMode string

const (
	ModeLexical  RetrievalMode = "lexical"
	ModeSemantic RetrievalMode = "semantic"
	ModeHybrid   RetrievalMode = "hybrid"
)

// ParseRetrievalMode normalizes and validates a mode string. An unknown mode
// is a configuration error and must fail before any retrieval work starts.
func ParseRetrievalMode(s string) (RetrievalMode, error) {
	switch RetrievalMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLexical:
		return ModeLexical, nil
	case ModeSemantic:
		return ModeSemantic, nil
	case ModeHybrid:
		return ModeHybrid, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse retrieval mode",
			fmt.Errorf("mode must be one of lexical, semantic, hybrid; got %q", s))
	}
}

// Candidate is one scored retrieval hit carrying the chunk metadata needed
// for citation provenance.
type Candidate struct {
	ChunkID    int64           `json:"chunk_id"`
	Source     string          `json:"source"`
	ChunkIndex int             `json:"chunk_index"`
	Text       string          `json:"text"`
	Method     RetrievalMethod `json:"method"`
	Score      float64         `json:"score"`
}

// Citation is one evidence slot exposed to the generator and, after
// verification, to the caller. N is the bracket number the generator is
// instructed to cite. Text holds the cleaned, truncated snippet actually
// placed in the context pack, not the raw chunk.
type Citation struct {
	N          int    `json:"n"`
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// ChatTurn is one prior conversation turn folded into the generation input.
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the generator-facing message shape.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RetrievalDebug is the per-candidate snapshot returned alongside answers.
// Preview is truncated independently of the evidence packer's own budget.
type RetrievalDebug struct {
	ChunkID    int64           `json:"chunk_id"`
	Method     RetrievalMethod `json:"method"`
	Score      float64         `json:"score"`
	Source     string          `json:"source"`
	ChunkIndex int             `json:"chunk_index"`
	Preview    string          `json:"preview"`
}

// Answer is the terminal result of one query: generated text, the verified
// citation ledger, and the retrieval debug snapshot.
type Answer struct {
	Text      string           `json:"answer"`
	Citations []Citation       `json:"citations"`
	Retrieval []RetrievalDebug `json:"retrieval"`
}

// StreamEventType discriminates streaming answer events: zero or more deltas
// followed by exactly one final.
type StreamEventType string

const (
	StreamEventDelta StreamEventType = "delta"
	StreamEventFinal StreamEventType = "final"
)
