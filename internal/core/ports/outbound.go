package ports

import (
	"context"
	"io"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, count int) error
}

// ChunkRepository persists the chunk records produced by ingestion and loads
// the full corpus for index construction.
type ChunkRepository interface {
	ReplaceSource(ctx context.Context, source string, chunks []domain.Chunk) error
	ListAll(ctx context.Context) ([]domain.Chunk, error)
}

// ChunkStore is the read-only in-memory chunk collection shared by queries.
type ChunkStore interface {
	All() []domain.Chunk
	ByID(id int64) (domain.Chunk, bool)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into retrievable passages.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunks and query text. The embedding model and
// dimension must match whatever the vector index was built with; that
// contract is external and not enforced in-process.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// LexicalSearcher ranks the whole chunk collection by keyword overlap.
type LexicalSearcher interface {
	Search(query string, topK int) []domain.Candidate
}

// VectorSearcher fetches nearest-neighbor chunks for a query vector.
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, topK int) ([]domain.Candidate, error)
}

// VectorIndexer upserts chunk vectors; used by the ingestion worker only.
type VectorIndexer interface {
	IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
}

// AnswerGenerator is the black-box text generation boundary. GenerateStream
// invokes onDelta for every incremental fragment as it arrives and returns
// the assembled full text; an error from onDelta aborts the stream.
type AnswerGenerator interface {
	Generate(ctx context.Context, messages []domain.ChatMessage) (string, error)
	GenerateStream(ctx context.Context, messages []domain.ChatMessage, onDelta func(string) error) (string, error)
}
