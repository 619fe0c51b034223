package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcaplink/internal/logger"
	"pcaplink/pkg/models"
)

type fakeProducer struct {
	published []models.MessageEnvelope
	topics    []string
	err       error
	closed    bool
}

func (p *fakeProducer) Publish(_ context.Context, topic string, msg models.MessageEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.published = append(p.published, msg)
	return nil
}

func (p *fakeProducer) Close() error {
	p.closed = true
	return nil
}

func (p *fakeProducer) SetServiceName(string) {}

type recordingStore struct {
	NopStore
	logged []CommandLog
	err    error
	closed bool
}

func (s *recordingStore) LogCommand(_ context.Context, e CommandLog) error {
	if s.err != nil {
		return s.err
	}
	s.logged = append(s.logged, e)
	return nil
}

func (s *recordingStore) Close() error {
	s.closed = true
	return nil
}

func TestPublishingStore_LogCommand(t *testing.T) {
	inner := &recordingStore{}
	producer := &fakeProducer{}
	store := NewPublishingStore(inner, producer, "command_logs", "bot-service", logger.NopLogger())

	e := entry("server", "1", true, testNow)
	require.NoError(t, store.LogCommand(context.Background(), e))

	require.Len(t, inner.logged, 1)
	require.Len(t, producer.published, 1)
	assert.Equal(t, []string{"command_logs"}, producer.topics)

	env := producer.published[0]
	assert.Equal(t, inner.logged[0].ID, env.ID)
	assert.Equal(t, models.EventTypeCommandLogged, env.Type)
	assert.Equal(t, "bot-service", env.Source)

	var decoded CommandLog
	require.NoError(t, env.DecodePayload(&decoded))
	assert.Equal(t, inner.logged[0].ID, decoded.ID)
	assert.Equal(t, "server", decoded.CommandName)
	assert.True(t, testNow.Equal(decoded.Timestamp))
}

func TestPublishingStore_ReportsBothFailures(t *testing.T) {
	storeErr := errors.New("disk full")
	publishErr := errors.New("broker down")
	store := NewPublishingStore(&recordingStore{err: storeErr}, &fakeProducer{err: publishErr}, "command_logs", "bot-service", logger.NopLogger())

	err := store.LogCommand(context.Background(), entry("status", "1", true, testNow))
	assert.ErrorIs(t, err, storeErr)
	assert.ErrorIs(t, err, publishErr)
}

func TestPublishingStore_PublishesWhenInnerStoreIsNop(t *testing.T) {
	producer := &fakeProducer{}
	store := NewPublishingStore(NopStore{}, producer, "command_logs", "bot-service", logger.NopLogger())

	require.NoError(t, store.LogCommand(context.Background(), entry("status", "1", true, testNow)))
	assert.Len(t, producer.published, 1)
}

func TestPublishingStore_Close(t *testing.T) {
	inner := &recordingStore{}
	producer := &fakeProducer{}
	require.NoError(t, NewPublishingStore(inner, producer, "t", "s", logger.NopLogger()).Close())
	assert.True(t, inner.closed)
	assert.True(t, producer.closed)
}
