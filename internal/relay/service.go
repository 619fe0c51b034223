package relay

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pcaplink/internal/discord"
	"pcaplink/internal/logger"
	"pcaplink/pkg/errors"
	"pcaplink/pkg/logging"
	"pcaplink/pkg/metrics"
	"pcaplink/pkg/tracing"
)

type MessageFetcher interface {
	FetchMessage(ctx context.Context, channelID, messageID string) (*discord.Message, error)
}

type AttachmentDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Capture is a downloaded attachment ready to be served.
type Capture struct {
	Filename string
	Data     []byte
}

// Service runs the retrieval pipeline: fetch the message, select the first
// capture attachment, download it. The first failure ends the request.
type Service struct {
	fetcher    MessageFetcher
	downloader AttachmentDownloader
	logger     logger.Logger
}

func NewService(fetcher MessageFetcher, downloader AttachmentDownloader, log logger.Logger) *Service {
	return &Service{
		fetcher:    fetcher,
		downloader: downloader,
		logger:     log,
	}
}

func (s *Service) Retrieve(ctx context.Context, channelID, messageID string) (*Capture, error) {
	start := time.Now()
	ctx = logging.WithDiscordMessage(ctx, channelID, messageID)
	ctx, span := tracing.Start(ctx, "relay.retrieve",
		attribute.String("discord.channel_id", channelID),
		attribute.String("discord.message_id", messageID),
	)

	capture, err := s.retrieve(ctx, channelID, messageID)
	tracing.End(span, err)
	outcome := "ok"
	if err != nil {
		outcome = errors.Kind(err)
		s.logger.WarnwCtx(ctx, "Attachment retrieval failed", "kind", outcome, "error", err)
	} else {
		s.logger.InfowCtx(ctx, "Attachment retrieved", "filename", capture.Filename, "bytes", len(capture.Data))
	}
	metrics.ObserveAttachmentRequest(outcome, time.Since(start))
	return capture, err
}

func (s *Service) retrieve(ctx context.Context, channelID, messageID string) (*Capture, error) {
	fetchCtx, span := tracing.Start(ctx, "discord.fetch_message")
	msg, err := s.fetcher.FetchMessage(fetchCtx, channelID, messageID)
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}

	attachment, err := discord.SelectAttachment(msg)
	if err != nil {
		return nil, err
	}

	downloadCtx, span := tracing.Start(ctx, "discord.download_attachment",
		attribute.String("attachment.filename", attachment.Filename),
	)
	data, err := s.downloader.Download(downloadCtx, attachment.URL)
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}

	return &Capture{Filename: attachment.Filename, Data: data}, nil
}
