package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pcaplink/internal/constants"
	"pcaplink/internal/logger"
	apperrors "pcaplink/pkg/errors"
	"pcaplink/pkg/metrics"
)

const upstreamName = "attachment_cdn"

// Downloader fetches attachment bodies from pre-signed CDN URLs without
// credentials, enforcing a size ceiling.
type Downloader struct {
	httpClient *http.Client
	maxSize    int64
	logger     logger.Logger
}

type Option func(*Downloader)

func WithHTTPClient(hc *http.Client) Option {
	return func(d *Downloader) { d.httpClient = hc }
}

func WithLogger(l logger.Logger) Option {
	return func(d *Downloader) { d.logger = l }
}

// withMaxSize lowers the ceiling in tests.
func withMaxSize(n int64) Option {
	return func(d *Downloader) { d.maxSize = n }
}

func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: &http.Client{
			Timeout: constants.DefaultDownloadTimeout,
		},
		maxSize: constants.MaxAttachmentSize,
		logger:  logger.NopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download performs a single GET and returns the full body. A declared
// Content-Length above the ceiling fails before the body is read; an
// undeclared or understated length is caught while streaming.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.ErrDownloadFailed.WithCause(err)
	}

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstreamRequest(upstreamName, "error", time.Since(start))
		d.logger.ErrorwCtx(ctx, "Failed to download attachment", "error", err)
		return nil, apperrors.ErrDownloadFailed.WithCause(err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstreamRequest(upstreamName, metrics.StatusClass(resp.StatusCode), time.Since(start))

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		d.logger.ErrorwCtx(ctx, "Attachment download error", "status", resp.StatusCode)
		return nil, apperrors.ErrDownloadFailed.WithCause(fmt.Errorf("cdn returned status %d", resp.StatusCode))
	}

	if resp.ContentLength > d.maxSize {
		d.logger.WarnwCtx(ctx, "Attachment too large", "content_length", resp.ContentLength, "max_size", d.maxSize)
		return nil, apperrors.ErrPayloadTooLarge.WithDetail("content_length", resp.ContentLength)
	}

	data, err := readLimited(resp.Body, d.maxSize, resp.ContentLength)
	if err != nil {
		if errors.Is(err, apperrors.ErrPayloadTooLarge) {
			d.logger.WarnwCtx(ctx, "Attachment exceeded size limit while streaming", "max_size", d.maxSize)
			return nil, err
		}
		d.logger.ErrorwCtx(ctx, "Failed to read attachment", "error", err)
		return nil, apperrors.ErrDownloadFailed.WithCause(err)
	}

	metrics.ObserveAttachmentSize(len(data))
	return data, nil
}

// readLimited reads at most limit bytes and fails with PayloadTooLarge if
// the stream holds more. sizeHint preallocates when the length is known.
func readLimited(r io.Reader, limit, sizeHint int64) ([]byte, error) {
	lr := io.LimitReader(r, limit+1)

	var (
		data []byte
		err  error
	)
	if sizeHint > 0 && sizeHint <= limit {
		// one spare byte so an overlong stream is seen without regrowing
		data, err = readInto(make([]byte, 0, sizeHint+1), lr)
	} else {
		data, err = io.ReadAll(lr)
	}
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, apperrors.ErrPayloadTooLarge
	}
	return data, nil
}

func readInto(buf []byte, r io.Reader) ([]byte, error) {
	for {
		if len(buf) == cap(buf) {
			buf = append(buf, 0)[:len(buf)]
		}
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
