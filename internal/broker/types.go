package broker

import (
	"context"

	"pcaplink/pkg/models"
)

type Producer interface {
	Publish(ctx context.Context, topic string, msg models.MessageEnvelope) error
	Close() error
	SetServiceName(name string)
}

type Consumer interface {
	// Consume blocks until ctx is done, handing every decoded envelope to handler.
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, msg models.MessageEnvelope) error
