package audit

import (
	"context"
	"fmt"

	"pcaplink/internal/broker"
	"pcaplink/internal/logger"
	"pcaplink/pkg/logging"
	"pcaplink/pkg/models"
	"pcaplink/pkg/retry"
)

// Ingestor persists command logs consumed from the audit topic.
type Ingestor struct {
	consumer broker.Consumer
	store    Store
	topic    string
	logger   logger.Logger
}

func NewIngestor(consumer broker.Consumer, store Store, topic string, log logger.Logger) *Ingestor {
	return &Ingestor{
		consumer: consumer,
		store:    store,
		topic:    topic,
		logger:   log,
	}
}

// Run blocks until ctx is canceled.
func (i *Ingestor) Run(ctx context.Context) error {
	i.logger.Infow("Starting audit ingest", "topic", i.topic)
	return i.consumer.Consume(ctx, i.topic, i.Handle)
}

// Handle stores one envelope. Envelopes of other types are skipped and
// undecodable payloads are not retried.
func (i *Ingestor) Handle(ctx context.Context, msg models.MessageEnvelope) error {
	if msg.Type != models.EventTypeCommandLogged {
		i.logger.DebugwCtx(ctx, "Skipping event", "type", msg.Type, "event_id", msg.ID)
		return nil
	}

	var entry CommandLog
	if err := msg.DecodePayload(&entry); err != nil {
		return retry.NewFatalError(fmt.Errorf("failed to decode command log %s: %w", msg.ID, err))
	}
	if entry.ID == "" {
		entry.ID = msg.ID
	}

	ctx = logging.WithDiscordMessage(ctx, entry.ChannelID, entry.MessageID)
	if err := i.store.LogCommand(ctx, entry); err != nil {
		return err
	}
	i.logger.DebugwCtx(ctx, "Ingested command log", "command", entry.CommandName, "event_id", msg.ID)
	return nil
}

func (i *Ingestor) Close() error {
	return i.consumer.Close()
}
