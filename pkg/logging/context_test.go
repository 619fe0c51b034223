package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLogFields(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		assert.Empty(t, GetLogFields(context.Background()))
	})

	t.Run("fields in fixed order", func(t *testing.T) {
		ctx := WithServiceName(context.Background(), "relay-service")
		ctx = WithDiscordMessage(ctx, "111111111111111111", "222222222222222222")
		ctx = WithRequestID(ctx, "req-1")

		assert.Equal(t, []interface{}{
			"request_id", "req-1",
			"channel_id", "111111111111111111",
			"message_id", "222222222222222222",
			"service_name", "relay-service",
		}, GetLogFields(ctx))
	})

	t.Run("nil context", func(t *testing.T) {
		assert.Empty(t, GetLogFields(nil))
		assert.Equal(t, "", GetRequestID(nil))
	})
}
