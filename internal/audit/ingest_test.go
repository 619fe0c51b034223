package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcaplink/internal/broker"
	"pcaplink/internal/logger"
	"pcaplink/pkg/models"
	"pcaplink/pkg/retry"
)

type fakeConsumer struct {
	envelopes []models.MessageEnvelope
	errs      []error
	closed    bool
}

func (c *fakeConsumer) Consume(ctx context.Context, _ string, handler broker.HandlerFunc) error {
	for _, env := range c.envelopes {
		c.errs = append(c.errs, handler(ctx, env))
	}
	return nil
}

func (c *fakeConsumer) Close() error {
	c.closed = true
	return nil
}

func (c *fakeConsumer) SetServiceName(string) {}

func envelopeFor(t *testing.T, e CommandLog) models.MessageEnvelope {
	t.Helper()
	env, err := models.NewMessageEnvelopeBuilder().
		WithType(models.EventTypeCommandLogged).
		WithPayload(e).
		Build()
	require.NoError(t, err)
	return *env
}

func TestIngestor_RunStoresEvents(t *testing.T) {
	store := newTestSQLiteStore(t)
	consumer := &fakeConsumer{envelopes: []models.MessageEnvelope{
		envelopeFor(t, entry("status", "1", true, testNow)),
		envelopeFor(t, entry("server", "2", true, testNow)),
		{ID: "other", Type: "something_else"},
	}}

	ingestor := NewIngestor(consumer, store, "command_logs", logger.NopLogger())
	require.NoError(t, ingestor.Run(context.Background()))
	for _, err := range consumer.errs {
		assert.NoError(t, err)
	}

	total, err := store.TotalUses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	require.NoError(t, ingestor.Close())
	assert.True(t, consumer.closed)
}

func TestIngestor_HandleUsesEnvelopeIDWhenPayloadHasNone(t *testing.T) {
	store := &recordingStore{}
	ingestor := NewIngestor(&fakeConsumer{}, store, "command_logs", logger.NopLogger())

	payload, err := json.Marshal(map[string]interface{}{"command_name": "status", "user_id": "1", "success": true})
	require.NoError(t, err)

	err = ingestor.Handle(context.Background(), models.MessageEnvelope{
		ID:      "evt-42",
		Type:    models.EventTypeCommandLogged,
		Payload: payload,
	})
	require.NoError(t, err)
	require.Len(t, store.logged, 1)
	assert.Equal(t, "evt-42", store.logged[0].ID)
}

func TestIngestor_HandleMalformedPayloadIsFatal(t *testing.T) {
	ingestor := NewIngestor(&fakeConsumer{}, &recordingStore{}, "command_logs", logger.NopLogger())

	err := ingestor.Handle(context.Background(), models.MessageEnvelope{
		ID:      "evt-1",
		Type:    models.EventTypeCommandLogged,
		Payload: json.RawMessage(`"not an object"`),
	})
	var fatal retry.FatalError
	assert.True(t, errors.As(err, &fatal))
}

func TestIngestor_HandleStoreErrorIsRetryable(t *testing.T) {
	storeErr := errors.New("database is locked")
	ingestor := NewIngestor(&fakeConsumer{}, &recordingStore{err: storeErr}, "command_logs", logger.NopLogger())

	err := ingestor.Handle(context.Background(), envelopeFor(t, entry("status", "1", true, testNow)))
	assert.ErrorIs(t, err, storeErr)
	var fatal retry.FatalError
	assert.False(t, errors.As(err, &fatal))
}
