package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
	"github.com/antonkuzmin/citedoc/internal/core/ports"
)

// Retriever dispatches one query to the lexical index, the vector index, or
// both (fused). All members are read-only after construction and shared
// across concurrent queries.
type Retriever struct {
	lexical  ports.LexicalSearcher
	embedder ports.Embedder
	vector   ports.VectorSearcher
}

func NewRetriever(
	lexical ports.LexicalSearcher,
	embedder ports.Embedder,
	vector ports.VectorSearcher,
) *Retriever {
	return &Retriever{
		lexical:  lexical,
		embedder: embedder,
		vector:   vector,
	}
}

// Retrieve returns an ordered candidate list of length <= topK. Collaborator
// failures (embedder, vector service) fail the whole query; there is no
// retry and no partial fallback.
func (r *Retriever) Retrieve(
	ctx context.Context,
	question string,
	mode domain.RetrievalMode,
	topK, fusionK int,
) ([]domain.Candidate, error) {
	if topK <= 0 {
		topK = 8
	}

	switch mode {
	case domain.ModeLexical:
		return r.lexical.Search(question, topK), nil
	case domain.ModeSemantic:
		return r.searchSemantic(ctx, question, topK)
	case domain.ModeHybrid:
		// Both strategies are independent; run them side by side and only
		// combine the finished lists.
		var (
			wg          sync.WaitGroup
			lexicalHits []domain.Candidate
			semantic    []domain.Candidate
			semanticErr error
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			semantic, semanticErr = r.searchSemantic(ctx, question, topK)
		}()
		lexicalHits = r.lexical.Search(question, topK)
		wg.Wait()
		if semanticErr != nil {
			return nil, semanticErr
		}
		return fuseRRF([][]domain.Candidate{lexicalHits, semantic}, fusionK, topK), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve",
			fmt.Errorf("unknown retrieval mode %q", mode))
	}
}

func (r *Retriever) searchSemantic(ctx context.Context, question string, topK int) ([]domain.Candidate, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.vector.Search(ctx, queryVector, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}
