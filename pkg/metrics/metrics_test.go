package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestClientMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *ClientMetrics
	require.NotPanics(t, func() {
		m.IncLogin()
		m.IncRenewal()
		m.IncAuthFailure()
		m.ObserveRequest("login", "ok", time.Millisecond)
		m.IncRetry()
		m.IncQuery("json")
		m.IncChunkFetch(true)
		m.AddBytesUploaded(10)
		m.AddBytesDownloaded(10)
		m.IncFileTransferred("upload", "ok")
	})
}

func TestNewClientMetrics_CountersIncrement(t *testing.T) {
	m := NewClientMetrics()
	m.IncLogin()
	m.IncRenewal()
	m.IncChunkFetch(false)

	require.Equal(t, float64(1), testutil.ToFloat64(m.LoginsTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(m.RenewalsTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ChunkFetchesTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ChunkFetchFailuresTotal))
}
