// Package nats carries the ingestion handoff between the api and the worker.
// A published message is just the document id; the worker re-reads everything
// else from the database and object storage.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/antonkuzmin/citedoc/internal/infrastructure/resilience"
)

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

func New(url, subject string, executor *resilience.Executor) (*Queue, error) {
	conn, err := nats.Connect(url,
		nats.Name("citedoc"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Queue{conn: conn, subject: subject, executor: executor}, nil
}

func (q *Queue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	publish := func(ctx context.Context) error {
		if err := q.conn.Publish(q.subject, []byte(documentID)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return q.conn.FlushWithContext(ctx)
	}

	if q.executor == nil {
		return wrapTemporaryIfNeeded("publish document", publish(ctx))
	}
	err := q.executor.Execute(ctx, "nats.publish", publish, classifyNATSError)
	return wrapTemporaryIfNeeded("publish document", err)
}

// SubscribeDocumentIngested delivers document ids to handler on a queue
// group, so running several workers splits the load instead of duplicating
// it. The subscription lives until ctx is cancelled.
func (q *Queue) SubscribeDocumentIngested(
	ctx context.Context,
	handler func(context.Context, string) error,
) error {
	sub, err := q.conn.QueueSubscribe(q.subject, "citedoc-workers", func(msg *nats.Msg) {
		documentID := string(msg.Data)
		if err := handler(ctx, documentID); err != nil {
			slog.Error("document processing failed", "document_id", documentID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Drain()
	}()
	return nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		_ = q.conn.Drain()
	}
}
