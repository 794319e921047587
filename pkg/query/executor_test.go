package query

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deltarule/sfclient/account"
	"github.com/deltarule/sfclient/pkg/session"
	"github.com/deltarule/sfclient/pkg/stage"
	"github.com/deltarule/sfclient/pkg/transport"
)

func writeJSON(w http.ResponseWriter, v any) {
	b, _ := json.Marshal(v)
	w.Write(b)
}

func newTestExecutor(t *testing.T, handler http.HandlerFunc) (*Executor, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	d := transport.NewDispatcher(transport.WithBaseURL(srv.URL))
	h := account.NewHandle("acme", "alice", "wh", "", "", "")
	creds := account.PasswordCredentials{Password: "hunter2"}
	sess := session.New(h, creds, d)
	return &Executor{
		Dispatcher: d,
		Session:    sess,
		Stage:      stage.NewEngine(4, 64_000_000),
		Account:    "acme",
	}, srv
}

// TestExec_LoginThenQuery covers scenario S5: first exec causes two
// round-trips (login, query), with sequenceId 1 on the query.
func TestExec_LoginThenQuery(t *testing.T) {
	var calls int
	var sawSequenceID float64

	exec, srv := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch {
		case strings.Contains(r.URL.Path, "login-request"):
			writeJSON(w, map[string]any{
				"success": true,
				"data": map[string]any{
					"sessionId":               1,
					"token":                   "sess-tok",
					"masterToken":             "master-tok",
					"serverVersion":           "8.0",
					"sessionInfo":             map[string]any{"roleName": "SYSADMIN"},
					"masterValidityInSeconds": 14400,
					"validityInSeconds":       3600,
				},
			})
		case strings.Contains(r.URL.Path, "query-request"):
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			sawSequenceID = body["sequenceId"].(float64)
			writeJSON(w, map[string]any{
				"success": true,
				"data": map[string]any{
					"rowtype":       []any{map[string]any{"name": "1", "nullable": false}},
					"rowset":        []any{[]any{"1"}},
					"total":         1,
					"returned":      1,
					"queryId":       "q1",
					"finalRoleName": "SYSADMIN",
					"statementTypeId": 1,
					"version":       1,
				},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	defer srv.Close()

	result, err := exec.Exec(t.Context(), "select 1")
	require.NoError(t, err)
	require.Equal(t, ResultJSON, result.Kind)
	require.Equal(t, 2, calls)
	require.Equal(t, float64(1), sawSequenceID)
}

// TestExec_ErrorResponse covers scenario S6.
func TestExec_ErrorResponse(t *testing.T) {
	exec, srv := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "login-request"):
			writeJSON(w, map[string]any{
				"success": true,
				"data": map[string]any{
					"sessionId":               1,
					"token":                   "sess-tok",
					"masterToken":             "master-tok",
					"serverVersion":           "8.0",
					"sessionInfo":             map[string]any{"roleName": "SYSADMIN"},
					"masterValidityInSeconds": 14400,
					"validityInSeconds":       3600,
				},
			})
		case strings.Contains(r.URL.Path, "query-request"):
			writeJSON(w, map[string]any{
				"success": false,
				"code":    "0042",
				"message": "bad sql",
				"data": map[string]any{
					"age":           0,
					"errorCode":     "0042",
					"internalError": false,
					"queryId":       "q1",
					"sqlState":      "42000",
				},
			})
		}
	})
	defer srv.Close()

	_, err := exec.Exec(t.Context(), "select bogus")
	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "0042", apiErr.Code)
	require.Equal(t, "bad sql", apiErr.Message)
}

func TestExec_EmptyResult(t *testing.T) {
	exec, srv := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "login-request"):
			writeJSON(w, map[string]any{
				"success": true,
				"data": map[string]any{
					"sessionId": 1, "token": "t", "masterToken": "m", "serverVersion": "8.0",
					"sessionInfo": map[string]any{"roleName": "SYSADMIN"},
					"masterValidityInSeconds": 14400, "validityInSeconds": 3600,
				},
			})
		case strings.Contains(r.URL.Path, "query-request"):
			writeJSON(w, map[string]any{
				"success": true,
				"data": map[string]any{
					"rowtype": []any{}, "total": 0, "returned": 0,
					"queryId": "q1", "finalRoleName": "SYSADMIN", "statementTypeId": 1, "version": 1,
				},
			})
		}
	})
	defer srv.Close()

	result, err := exec.Exec(t.Context(), "create table x (a int)")
	require.NoError(t, err)
	require.Equal(t, ResultEmpty, result.Kind)
}
