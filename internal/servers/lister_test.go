package servers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcaplink/pkg/circuitbreaker"
)

const listingBody = `[
	{
		"name": "Coldeve",
		"description": "A retail-like server",
		"type": "PvE",
		"software": "ACE",
		"host": "coldeve.example.org",
		"port": "9000",
		"discord_url": "https://discord.gg/coldeve",
		"players": {"count": 12, "updated_at": "2026-10-15T10:00:00Z", "age": "5 minutes ago"}
	},
	{
		"name": "Frostfell",
		"description": "",
		"type": "PvP",
		"software": "GDLE",
		"host": "frostfell.example.org",
		"port": "9050"
	}
]`

func TestHTTPLister_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listingBody))
	}))
	defer srv.Close()

	records, err := NewHTTPLister(srv.URL).List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Coldeve", records[0].Name)
	require.NotNil(t, records[0].DiscordURL)
	assert.Equal(t, "https://discord.gg/coldeve", *records[0].DiscordURL)
	require.NotNil(t, records[0].Players)
	assert.Equal(t, 12, records[0].Players.Count)
	assert.Equal(t, "5 minutes ago", records[0].Players.Age)

	assert.Equal(t, "Frostfell", records[1].Name)
	assert.Nil(t, records[1].DiscordURL)
	assert.Nil(t, records[1].Players)
}

func TestHTTPLister_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non 2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"not": "a list"`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			records, err := NewHTTPLister(srv.URL).List(context.Background())
			assert.Error(t, err)
			assert.Nil(t, records)
		})
	}
}

func TestHTTPLister_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPLister(url, WithHTTPClient(&http.Client{Timeout: time.Second})).List(context.Background())
	assert.Error(t, err)
}

func TestHTTPLister_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := circuitbreaker.DefaultConfig("server_listing_test")
	cfg.ReadyToTrip = circuitbreaker.RatioTrip(2, 0.5)
	lister := NewHTTPLister(srv.URL, WithBreaker(circuitbreaker.NewWrapper(cfg)))

	for i := 0; i < 2; i++ {
		_, err := lister.List(context.Background())
		require.Error(t, err)
	}

	_, err := lister.List(context.Background())
	require.Error(t, err)
	assert.True(t, circuitbreaker.IsRejection(err))
	assert.Equal(t, int32(2), calls.Load())
}
