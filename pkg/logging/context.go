package logging

import (
	"context"
)

type contextKey string

const (
	RequestIDKey   contextKey = "request_id"
	ChannelIDKey   contextKey = "channel_id"
	MessageIDKey   contextKey = "message_id"
	UserIDKey      contextKey = "user_id"
	ServiceNameKey contextKey = "service_name"
)

// fieldOrder fixes the order in which context values are emitted.
var fieldOrder = []contextKey{RequestIDKey, ChannelIDKey, MessageIDKey, UserIDKey, ServiceNameKey}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithDiscordMessage tags ctx with the channel and message a request or event is about.
func WithDiscordMessage(ctx context.Context, channelID, messageID string) context.Context {
	ctx = context.WithValue(ctx, ChannelIDKey, channelID)
	return context.WithValue(ctx, MessageIDKey, messageID)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

func GetServiceName(ctx context.Context) string {
	return stringValue(ctx, ServiceNameKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, len(fieldOrder)*2)
	for _, key := range fieldOrder {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}
