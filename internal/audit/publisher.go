package audit

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"pcaplink/internal/broker"
	"pcaplink/internal/constants"
	"pcaplink/internal/logger"
	"pcaplink/pkg/models"
)

// PublishingStore writes to the wrapped Store and also publishes every logged
// command to the audit topic. Queries go to the wrapped Store only.
type PublishingStore struct {
	Store
	producer broker.Producer
	topic    string
	source   string
	logger   logger.Logger
}

func NewPublishingStore(inner Store, producer broker.Producer, topic, source string, log logger.Logger) *PublishingStore {
	return &PublishingStore{
		Store:    inner,
		producer: producer,
		topic:    topic,
		source:   source,
		logger:   log,
	}
}

func (s *PublishingStore) LogCommand(ctx context.Context, entry CommandLog) error {
	entry.Normalize()

	storeErr := s.Store.LogCommand(ctx, entry)
	if storeErr != nil {
		s.logger.ErrorwCtx(ctx, "Failed to store command log", "error", storeErr, "command", entry.CommandName)
	}

	publishErr := s.publish(ctx, entry)
	if publishErr != nil {
		s.logger.ErrorwCtx(ctx, "Failed to publish command log",
			"error", publishErr,
			"command", entry.CommandName,
			"topic", s.topic,
		)
	}

	return errors.Join(storeErr, publishErr)
}

func (s *PublishingStore) publish(ctx context.Context, entry CommandLog) error {
	builder := models.NewMessageEnvelopeBuilder().
		WithID(entry.ID).
		WithType(models.EventTypeCommandLogged).
		WithSource(s.source).
		WithTimestamp(entry.Timestamp).
		WithVersion(constants.Version).
		WithPayload(entry)
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		builder = builder.WithTraceID(sc.TraceID().String())
	}

	envelope, err := builder.Build()
	if err != nil {
		return err
	}
	if err := s.producer.Publish(ctx, s.topic, *envelope); err != nil {
		return fmt.Errorf("failed to publish command log: %w", err)
	}
	return nil
}

// Close closes the producer and the wrapped Store.
func (s *PublishingStore) Close() error {
	return errors.Join(s.producer.Close(), s.Store.Close())
}
