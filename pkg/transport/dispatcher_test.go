package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRequest_RetryBudget covers invariant #7: a server returning 503 three
// times then 200 succeeds; one returning 503 four times exhausts the retry
// budget and fails with ErrTransport.
func TestRequest_RetryBudget_SucceedsOnFourthAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	d := NewDispatcher(WithClock(NoopClock{}), WithBaseURL(srv.URL))

	var out struct {
		Success bool `json:"success"`
	}
	err := d.Request(context.Background(), JsonQuery, "acct", nil, "", map[string]string{}, &out)
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestRequest_RetryBudget_ExhaustedFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDispatcher(WithClock(NoopClock{}), WithBaseURL(srv.URL))

	var out map[string]any
	err := d.Request(context.Background(), JsonQuery, "acct", nil, "", map[string]string{}, &out)
	require.ErrorIs(t, err, ErrTransport)
	require.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestRequest_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDispatcher(WithClock(NoopClock{}), WithBaseURL(srv.URL))

	var out map[string]any
	err := d.Request(context.Background(), JsonQuery, "acct", nil, "", map[string]string{}, &out)
	require.ErrorIs(t, err, ErrInvalidAccountIdentifier)
}

func TestFetchChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("x-qrmk"))
		w.Write([]byte("chunk-bytes"))
	}))
	defer srv.Close()

	d := NewDispatcher()
	got, err := d.FetchChunk(context.Background(), srv.URL, map[string]string{"x-qrmk": "secret"})
	require.NoError(t, err)
	require.Equal(t, "chunk-bytes", string(got))
}
