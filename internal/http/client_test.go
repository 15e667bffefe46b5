package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/handiism/epic-downloader/internal/errors"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.RetryCooldown = time.Millisecond
	opts.MaxRetryInterval = 5 * time.Millisecond
	return opts
}

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "epic-downloader", r.Header.Get("User-Agent"))
		w.Write([]byte(`["2023-06-15"]`))
	}))
	defer srv.Close()

	body, err := NewClient(testOptions()).Get(context.Background(), srv.URL+"/api/natural/available?api_key=k")
	require.NoError(t, err)
	assert.Equal(t, `["2023-06-15"]`, string(body))
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := NewClient(testOptions()).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGet_RetriesExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxRetries = 1
	_, err := NewClient(opts).Get(context.Background(), srv.URL)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
	assert.ErrorIs(t, err, pkgerrors.ErrUnexpectedStatus)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGet_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(testOptions()).Get(context.Background(), srv.URL+"/missing.png?api_key=secret")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.NotContains(t, statusErr.URL, "secret")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStream_RetriesConsumerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	var attempts int
	var got bytes.Buffer
	err := NewClient(testOptions()).Stream(context.Background(), srv.URL, func(body io.Reader, size int64) error {
		attempts++
		got.Reset()
		if attempts == 1 {
			return errors.New("short write")
		}
		_, err := io.Copy(&got, body)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "image-bytes", got.String())
}

func TestStream_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewClient(testOptions()).Stream(ctx, srv.URL, func(io.Reader, int64) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxRetries = 0
	opts.BreakerThreshold = 2
	client := NewClient(opts)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.Get(ctx, srv.URL)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, breakerState(t, client, srv.URL))

	_, err := client.Get(ctx, srv.URL)
	assert.ErrorIs(t, err, pkgerrors.ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDisabledBreakerKeepsRequesting(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxRetries = 0
	opts.BreakerThreshold = 2
	opts.DisableBreaker = true
	client := NewClient(opts)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.Get(ctx, srv.URL)
		assert.ErrorIs(t, err, pkgerrors.ErrUnexpectedStatus)
	}

	body, err := client.Get(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestStream_StorageErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	err := NewClient(testOptions()).Stream(context.Background(), srv.URL, func(io.Reader, int64) error {
		return pkgerrors.Classify(pkgerrors.ErrStorage, errors.New("no space left on device"))
	})
	assert.ErrorIs(t, err, pkgerrors.ErrStorage)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func breakerState(t *testing.T, c *Client, rawURL string) gobreaker.State {
	t.Helper()
	cb, err := c.breakerFor(rawURL)
	require.NoError(t, err)
	require.NotNil(t, cb)
	return cb.State()
}

func TestGet_InvalidURL(t *testing.T) {
	_, err := NewClient(testOptions()).Get(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestGet_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	opts := testOptions()
	opts.MaxRetries = 0
	_, err := NewClient(opts).Get(context.Background(), addr+"/img.png?api_key=SECRET")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestProgressWriter(t *testing.T) {
	var buf bytes.Buffer
	var chunks, last int64
	pw := &ProgressWriter{
		Writer: &buf,
		Total:  10,
		OnUpdate: func(chunk, written int64) {
			chunks += chunk
			last = written
		},
	}

	_, err := io.Copy(pw, bytes.NewReader([]byte("0123456789")))
	require.NoError(t, err)
	assert.Equal(t, int64(10), chunks)
	assert.Equal(t, int64(10), last)
	assert.Equal(t, "0123456789", buf.String())
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://api.nasa.gov/EPIC/archive/a.png", Redact("https://api.nasa.gov/EPIC/archive/a.png?api_key=KEY"))
}
