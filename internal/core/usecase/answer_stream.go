package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
	"github.com/antonkuzmin/citedoc/internal/core/ports"
)

// StreamAnswer runs one streaming query cycle: identical retrieval and
// packing, then a single long-lived generation session whose fragments are
// relayed to the sink as they arrive. The final event is emitted exactly
// once, after the session completes and the ledger is verified; if the sink
// stops consuming or the context is cancelled mid-stream, no final event is
// synthesized from the partial answer. Unlike the synchronous path, an
// answer that verifies zero citations legitimately carries an empty ledger.
func (uc *AnswerUseCase) StreamAnswer(ctx context.Context, input ports.AskInput, sink ports.StreamSink) error {
	prep, err := uc.prepare(ctx, input)
	if err != nil {
		return err
	}

	fullText, err := uc.generator.GenerateStream(ctx, prep.messages, sink.Delta)
	if err != nil {
		return fmt.Errorf("stream answer: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fullText = strings.TrimSpace(fullText)

	answer := &domain.Answer{
		Text:      fullText,
		Citations: VerifyCitations(fullText, prep.pack.Citations),
		Retrieval: prep.debug,
	}
	if answer.Citations == nil {
		answer.Citations = []domain.Citation{}
	}
	return sink.Final(answer)
}
