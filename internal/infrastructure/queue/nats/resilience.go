package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
	"github.com/antonkuzmin/citedoc/internal/infrastructure/resilience"
)

func classifyNATSError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}

	retryable := errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected)

	return resilience.ErrorClassification{
		Retryable:     retryable,
		RecordFailure: true,
	}
}

// wrapTemporaryIfNeeded tags retryable transport failures so the HTTP layer
// can answer 503 instead of a generic 500.
func wrapTemporaryIfNeeded(op string, err error) error {
	if err == nil {
		return nil
	}
	if classifyNATSError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, op, err)
	}
	return err
}
