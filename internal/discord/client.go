package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pcaplink/internal/constants"
	"pcaplink/internal/logger"
	"pcaplink/pkg/circuitbreaker"
	apperrors "pcaplink/pkg/errors"
	"pcaplink/pkg/metrics"
)

const (
	upstreamName    = "discord"
	maxMessageBytes = 1 << 20
	maxLoggedBody   = 256
)

// Client fetches message metadata from the Discord REST API.
// Each call is a single attempt.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *circuitbreaker.Wrapper
	logger     logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithBreaker(w *circuitbreaker.Wrapper) Option {
	return func(c *Client) { c.breaker = w }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client for baseURL (e.g. https://discord.com/api/v9)
// authenticating with the bot token. An empty token is accepted here and
// reported per request as CredentialMissing.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
		},
		logger: logger.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMessage validates both ids, then performs one authenticated GET.
func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error) {
	if !IsValidSnowflake(channelID) {
		return nil, apperrors.ErrBadIdentifier.WithMessage("Invalid channel ID format")
	}
	if !IsValidSnowflake(messageID) {
		return nil, apperrors.ErrBadIdentifier.WithMessage("Invalid message ID format")
	}
	if c.token == "" {
		return nil, apperrors.ErrCredentialMissing
	}

	msg, err := circuitbreaker.Do(ctx, c.breaker, func() (*Message, error) {
		return c.fetch(ctx, channelID, messageID)
	})
	if err != nil {
		var appErr *apperrors.Error
		if circuitbreaker.IsRejection(err) || !errors.As(err, &appErr) {
			return nil, apperrors.ErrUpstreamUnreachable.WithCause(err)
		}
		return nil, err
	}
	return msg, nil
}

func (c *Client) fetch(ctx context.Context, channelID, messageID string) (*Message, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/messages/%s", c.baseURL, url.PathEscape(channelID), url.PathEscape(messageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.ErrUpstreamUnreachable.WithCause(err)
	}
	req.Header.Set("Authorization", constants.DiscordTokenPrefix+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstreamRequest(upstreamName, "error", time.Since(start))
		c.logger.ErrorwCtx(ctx, "Failed to fetch Discord message", "error", err)
		return nil, apperrors.ErrUpstreamUnreachable.WithCause(err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstreamRequest(upstreamName, metrics.StatusClass(resp.StatusCode), time.Since(start))

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		c.logger.ErrorwCtx(ctx, "Discord API error", "status", resp.StatusCode, "body", string(body))
		return nil, statusError(resp.StatusCode)
	}

	var msg Message
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMessageBytes)).Decode(&msg); err != nil {
		c.logger.ErrorwCtx(ctx, "Failed to parse Discord message", "error", err)
		return nil, apperrors.ErrUpstreamBadResponse.WithCause(err)
	}
	if msg.ID == "" || msg.Attachments == nil {
		c.logger.ErrorwCtx(ctx, "Discord message is missing required fields", "id", msg.ID)
		return nil, apperrors.ErrUpstreamBadResponse.WithCause(errors.New("missing id or attachments"))
	}

	c.logger.DebugwCtx(ctx, "Fetched Discord message", "attachments", len(msg.Attachments))
	return &msg, nil
}

func statusError(status int) error {
	cause := fmt.Errorf("discord returned status %d", status)
	switch status {
	case http.StatusUnauthorized:
		return apperrors.ErrCredentialRejected.WithCause(cause)
	case http.StatusForbidden:
		return apperrors.ErrForbidden.WithCause(cause)
	case http.StatusNotFound:
		return apperrors.ErrNotFound.WithCause(cause)
	default:
		return apperrors.ErrUpstreamOther.WithCause(cause)
	}
}

// BreakerIsSuccessful counts only outages against the breaker: transport
// failures and server-side errors. Answers about a specific message such as
// 404 or 403 leave it closed, as do cancellations by the caller.
func BreakerIsSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	return !errors.Is(err, apperrors.ErrUpstreamUnreachable) && !errors.Is(err, apperrors.ErrUpstreamOther)
}
