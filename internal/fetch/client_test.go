package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OllyCat/tsgrab/internal/fetch"
)

func TestFetchSendsStaticHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	client := fetch.New(fetch.Options{Timeout: time.Second}, nil)
	data, err := client.Fetch(context.Background(), server.URL+"/seg1.ts")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	for name, value := range fetch.DefaultHeaders() {
		if name == "Connection" {
			continue
		}
		assert.Equal(t, value, got.Get(name), name)
	}
}

func TestFetchCustomHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	headers := fetch.MergeHeaders(fetch.DefaultHeaders(), map[string]string{
		"referer": "https://example.test/",
		"Origin":  "",
	})
	client := fetch.New(fetch.Options{Headers: headers}, nil)
	_, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/", got.Get("Referer"))
	assert.Empty(t, got.Get("Origin"))
	assert.Equal(t, "*/*", got.Get("Accept"))
}

func TestFetchNon2xxIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := fetch.New(fetch.Options{}, nil)
	_, err := client.Fetch(context.Background(), server.URL+"/missing.ts")
	require.Error(t, err)

	var statusErr *fetch.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := fetch.New(fetch.Options{Timeout: 50 * time.Millisecond}, nil)
	_, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestFetchMaxBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 200)))
	}))
	defer server.Close()

	client := fetch.New(fetch.Options{MaxBytes: 100}, nil)
	_, err := client.Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, fetch.ErrTooLarge)

	client = fetch.New(fetch.Options{MaxBytes: 200}, nil)
	data, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, data, 200)
}

func TestFetchMinIntervalPacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := fetch.New(fetch.Options{MinInterval: 80 * time.Millisecond}, nil)
	started := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(started), 150*time.Millisecond)
}

func TestFetchCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := fetch.New(fetch.Options{}, nil)
	_, err := client.Fetch(ctx, server.URL)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMergeHeadersDoesNotMutateBase(t *testing.T) {
	base := map[string]string{"Accept": "*/*"}
	merged := fetch.MergeHeaders(base, map[string]string{"accept": "video/mp2t"})
	assert.Equal(t, "*/*", base["Accept"])
	assert.Equal(t, map[string]string{"Accept": "video/mp2t"}, merged)
}
