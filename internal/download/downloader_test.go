package download

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcaplink/internal/constants"
	apperrors "pcaplink/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// trackingBody records whether any byte was read.
type trackingBody struct {
	io.Reader
	read bool
}

func (b *trackingBody) Read(p []byte) (int, error) {
	b.read = true
	return b.Reader.Read(p)
}

func (b *trackingBody) Close() error { return nil }

func clientReturning(status int, contentLength int64, body io.ReadCloser) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode:    status,
			ContentLength: contentLength,
			Body:          body,
			Header:        make(http.Header),
			Request:       r,
		}, nil
	})}
}

func TestDownload_Success(t *testing.T) {
	payload := []byte("\xd4\xc3\xb2\xa1 pcap bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	got, err := NewDownloader().Download(context.Background(), srv.URL+"/trace.pcap")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownload_DeclaredLengthAboveCeilingIsNotRead(t *testing.T) {
	body := &trackingBody{Reader: io.LimitReader(zeroReader{}, constants.MaxAttachmentSize+1)}
	d := NewDownloader(WithHTTPClient(clientReturning(http.StatusOK, 104_857_601, body)))

	_, err := d.Download(context.Background(), "https://cdn.test/big.pcap")
	assert.ErrorIs(t, err, apperrors.ErrPayloadTooLarge)
	assert.False(t, body.read)

	status, _ := apperrors.ToResponse(err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDownload_DeclaredLengthAtCeilingSucceeds(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates the full ceiling")
	}
	body := io.NopCloser(io.LimitReader(zeroReader{}, constants.MaxAttachmentSize))
	d := NewDownloader(WithHTTPClient(clientReturning(http.StatusOK, 104_857_600, body)))

	got, err := d.Download(context.Background(), "https://cdn.test/max.pcap")
	require.NoError(t, err)
	assert.Len(t, got, 104_857_600)
}

func TestDownload_StreamingCeiling(t *testing.T) {
	tests := []struct {
		name          string
		bodySize      int
		contentLength int64
		wantErr       error
	}{
		{name: "undeclared under limit", bodySize: 64, contentLength: -1},
		{name: "undeclared at limit", bodySize: 128, contentLength: -1},
		{name: "undeclared over limit", bodySize: 129, contentLength: -1, wantErr: apperrors.ErrPayloadTooLarge},
		{name: "understated length", bodySize: 200, contentLength: 10, wantErr: apperrors.ErrPayloadTooLarge},
		{name: "declared over limit", bodySize: 10, contentLength: 129, wantErr: apperrors.ErrPayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := io.NopCloser(bytes.NewReader(bytes.Repeat([]byte{0xa1}, tt.bodySize)))
			d := NewDownloader(
				WithHTTPClient(clientReturning(http.StatusOK, tt.contentLength, body)),
				withMaxSize(128),
			)

			got, err := d.Download(context.Background(), "https://cdn.test/trace.pcap")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.bodySize)
		})
	}
}

func TestDownload_Failures(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "expired signature", http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := NewDownloader().Download(context.Background(), srv.URL)
		assert.ErrorIs(t, err, apperrors.ErrDownloadFailed)
		status, msg := apperrors.ToResponse(err)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.NotContains(t, msg, "expired signature")
	})

	t.Run("transport error", func(t *testing.T) {
		d := NewDownloader(WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset")
		})}))

		_, err := d.Download(context.Background(), "https://cdn.test/trace.pcap")
		assert.ErrorIs(t, err, apperrors.ErrDownloadFailed)
	})

	t.Run("body read error", func(t *testing.T) {
		body := io.NopCloser(io.MultiReader(strings.NewReader("partial"), errReader{}))
		d := NewDownloader(WithHTTPClient(clientReturning(http.StatusOK, -1, body)))

		_, err := d.Download(context.Background(), "https://cdn.test/trace.pcap")
		assert.ErrorIs(t, err, apperrors.ErrDownloadFailed)
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := NewDownloader().Download(context.Background(), "://bad")
		assert.ErrorIs(t, err, apperrors.ErrDownloadFailed)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()

		_, err := NewDownloader().Download(ctx, srv.URL)
		assert.ErrorIs(t, err, apperrors.ErrDownloadFailed)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("stream reset") }
