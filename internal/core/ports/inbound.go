package ports

import (
	"context"
	"io"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

// AskInput is the per-request query context. It is owned by one in-flight
// request and never shared.
type AskInput struct {
	Question string
	Mode     domain.RetrievalMode
	TopK     int
	FusionK  int
	History  []domain.ChatTurn
}

// StreamSink receives streaming answer events. Delta is invoked once per
// relayed fragment; Final exactly once after verification, or never if the
// stream is aborted.
type StreamSink interface {
	Delta(text string) error
	Final(answer *domain.Answer) error
}

// AnswerService is the public query interface exposed by the orchestrator.
type AnswerService interface {
	Answer(ctx context.Context, input AskInput) (*domain.Answer, error)
	StreamAnswer(ctx context.Context, input AskInput, sink StreamSink) error
}

// DocumentIngestor accepts uploads and enqueues them for processing.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor runs the full ingestion pipeline for one document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
