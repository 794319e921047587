package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deltarule/sfclient/account"
	"github.com/deltarule/sfclient/pkg/transport"
)

func loginResponseBody(sessionValidity, masterValidity int64) []byte {
	b, _ := json.Marshal(map[string]any{
		"success": true,
		"data": map[string]any{
			"sessionId":               1,
			"token":                   "sess-tok",
			"masterToken":             "master-tok",
			"serverVersion":           "8.0",
			"sessionInfo":             map[string]any{"roleName": "SYSADMIN"},
			"masterValidityInSeconds": masterValidity,
			"validityInSeconds":       sessionValidity,
		},
	})
	return b
}

func renewResponseBody() []byte {
	b, _ := json.Marshal(map[string]any{
		"success": true,
		"data": map[string]any{
			"sessionToken":        "sess-tok-2",
			"validityInSecondsST": 3600,
			"masterToken":         "master-tok",
			"validityInSecondsMT": 14400,
			"sessionId":           1,
		},
	})
	return b
}

func newTestSession(t *testing.T, handler http.HandlerFunc) (*Session, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	d := transport.NewDispatcher(transport.WithBaseURL(srv.URL))
	h := account.NewHandle("acme", "alice", "wh", "", "", "")
	creds := account.PasswordCredentials{Password: "hunter2"}
	return New(h, creds, d), srv
}

// TestAuthParts_SequenceMonotonicity covers invariant #1.
func TestAuthParts_SequenceMonotonicity(t *testing.T) {
	s, srv := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(loginResponseBody(3600, 14400))
	})
	defer srv.Close()

	for i := uint64(1); i <= 5; i++ {
		_, seq, err := s.AuthParts(context.Background())
		require.NoError(t, err)
		require.Equal(t, i, seq)
	}
}

// TestAuthParts_TokenCaching covers invariant #2: M concurrent calls with
// non-expired tokens perform exactly one login.
func TestAuthParts_TokenCaching(t *testing.T) {
	var logins int32
	s, srv := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&logins, 1)
		w.Write(loginResponseBody(3600, 14400))
	})
	defer srv.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.AuthParts(context.Background())
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&logins))
}

// TestAuthParts_RenewalPreservesSequence covers invariant #3.
func TestAuthParts_RenewalPreservesSequence(t *testing.T) {
	var calls int32
	s, srv := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		switch n {
		case 1:
			// initial login: session token expires almost immediately, master
			// token lives long.
			w.Write(loginResponseBody(0, 14400))
		default:
			w.Write(renewResponseBody())
		}
	})
	defer srv.Close()

	_, seq1, err := s.AuthParts(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq1)

	_, seq2, err := s.AuthParts(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(2), seq2)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

// TestAuthParts_MasterExpiryRelogsIn covers invariant #4.
func TestAuthParts_MasterExpiryRelogsIn(t *testing.T) {
	var calls int32
	s, srv := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// every login/renew attempt returns an already-expired master token,
		// forcing a fresh login on the next call.
		w.Write(loginResponseBody(0, 0))
	})
	defer srv.Close()

	_, seq1, err := s.AuthParts(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq1)

	_, seq2, err := s.AuthParts(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq2)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestInfo_ReportsNegotiatedContext(t *testing.T) {
	s, srv := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(loginResponseBody(3600, 14400))
	})
	defer srv.Close()

	require.Nil(t, s.Info(), "no session info before the first login")

	_, _, err := s.AuthParts(context.Background())
	require.NoError(t, err)

	info := s.Info()
	require.NotNil(t, info)
	require.Equal(t, "SYSADMIN", info.RoleName)
}

func TestClose_NoopWhenUnauthenticated(t *testing.T) {
	s, srv := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("close should not hit the network when unauthenticated")
	})
	defer srv.Close()

	require.NoError(t, s.Close(context.Background()))
}

func TestLogin_AuthFailed(t *testing.T) {
	s, srv := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := json.Marshal(map[string]any{
			"success": false,
			"code":    "390100",
			"message": "bad credentials",
			"data": map[string]any{
				"authnMethod": "PASSWORD",
			},
		})
		w.Write(b)
	})
	defer srv.Close()

	_, _, err := s.AuthParts(context.Background())
	require.ErrorIs(t, err, ErrAuthFailed)
}
