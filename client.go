// Package sfclient is a Snowflake REST API client: authenticate, run SQL,
// and let staged-file PUT/GET statements transfer local files through the
// cloud stage Snowflake hands back.
//
// A Client owns one account handle's dual-token session and the shared
// HTTP dispatcher backing it. Build one with New, NewWithKeypairAuth,
// NewWithOAuth, or NewFromEnvironment, then call Exec.
package sfclient

import (
	"context"
	"fmt"
	"os"

	"github.com/deltarule/sfclient/account"
	"github.com/deltarule/sfclient/pkg/metrics"
	"github.com/deltarule/sfclient/pkg/query"
	"github.com/deltarule/sfclient/pkg/schema"
	"github.com/deltarule/sfclient/pkg/session"
	"github.com/deltarule/sfclient/pkg/stage"
	"github.com/deltarule/sfclient/pkg/transport"
)

const (
	defaultMaxParallelUploads   = 4
	defaultMaxFileSizeThreshold = 64_000_000
)

// Client runs SQL statements against one Snowflake account.
type Client struct {
	executor *query.Executor
}

// Option configures a Client at construction time.
type Option func(*options)

type options struct {
	maxParallelUploads   int
	maxFileSizeThreshold int64
	baseURL              string
	metrics              *metrics.ClientMetrics
}

// WithMaxParallelUploads overrides the default concurrency (4) used for
// small-file PUT uploads when the server's response omits a parallel hint.
func WithMaxParallelUploads(n int) Option {
	return func(o *options) { o.maxParallelUploads = n }
}

// WithMaxFileSizeThreshold overrides the default byte threshold (64MB)
// separating small (parallel) from large (sequential) PUT uploads when the
// server's response omits a threshold.
func WithMaxFileSizeThreshold(n int64) Option {
	return func(o *options) { o.maxFileSizeThreshold = n }
}

// WithBaseURL points the client at a fixed host instead of deriving one
// from the account identifier, for private-link deployments and tests.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithMetrics attaches a Prometheus metrics sink.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{
		maxParallelUploads:   defaultMaxParallelUploads,
		maxFileSizeThreshold: defaultMaxFileSizeThreshold,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func newClient(handle account.Handle, creds account.Credentials, opts []Option) *Client {
	o := buildOptions(opts)

	var dispatcherOpts []transport.Option
	if o.baseURL != "" {
		dispatcherOpts = append(dispatcherOpts, transport.WithBaseURL(o.baseURL))
	}
	if o.metrics != nil {
		dispatcherOpts = append(dispatcherOpts, transport.WithMetrics(o.metrics))
	}
	dispatcher := transport.NewDispatcher(dispatcherOpts...)

	sess := session.New(handle, creds, dispatcher)
	sess.SetMetrics(o.metrics)

	engine := stage.NewEngine(o.maxParallelUploads, o.maxFileSizeThreshold)
	engine.Metrics = o.metrics

	return &Client{
		executor: &query.Executor{
			Dispatcher: dispatcher,
			Session:    sess,
			Stage:      engine,
			Account:    handle.AccountIdentifier,
			Metrics:    o.metrics,
		},
	}
}

// New builds a Client authenticating with a plaintext password.
func New(accountIdentifier, username, password, warehouse, database, schema, role string, opts ...Option) *Client {
	h := account.NewHandle(accountIdentifier, username, warehouse, database, schema, role)
	return newClient(h, account.PasswordCredentials{Password: password}, opts)
}

// NewWithKeypairAuth builds a Client authenticating with a PEM-encoded RSA
// private key, issuing SNOWFLAKE_JWT logins.
func NewWithKeypairAuth(accountIdentifier, username string, privateKeyPEM []byte, warehouse, database, schema, role string, opts ...Option) *Client {
	h := account.NewHandle(accountIdentifier, username, warehouse, database, schema, role)
	return newClient(h, account.KeypairCredentials{PrivateKeyPEM: privateKeyPEM}, opts)
}

// NewWithOAuth builds a Client authenticating with a pre-issued OAuth
// access token.
func NewWithOAuth(accountIdentifier, username, accessToken, warehouse, database, schema, role string, opts ...Option) *Client {
	h := account.NewHandle(accountIdentifier, username, warehouse, database, schema, role)
	return newClient(h, account.OAuthCredentials{AccessToken: accessToken}, opts)
}

// NewFromEnvironment builds a Client from the standard SNOWFLAKE_* variables:
// SNOWFLAKE_ACCOUNT, SNOWFLAKE_USER, SNOWFLAKE_WAREHOUSE, SNOWFLAKE_DATABASE,
// SNOWFLAKE_SCHEMA, SNOWFLAKE_ROLE, and one of SNOWFLAKE_PRIVATE_KEY_PATH,
// SNOWFLAKE_OAUTH_TOKEN, or SNOWFLAKE_PASSWORD. When more than one is set,
// the key path wins over the OAuth token, and the OAuth token over the
// password.
func NewFromEnvironment(opts ...Option) (*Client, error) {
	accountIdentifier := os.Getenv("SNOWFLAKE_ACCOUNT")
	username := os.Getenv("SNOWFLAKE_USER")
	if accountIdentifier == "" || username == "" {
		return nil, fmt.Errorf("sfclient: SNOWFLAKE_ACCOUNT and SNOWFLAKE_USER are required")
	}
	warehouse := os.Getenv("SNOWFLAKE_WAREHOUSE")
	database := os.Getenv("SNOWFLAKE_DATABASE")
	schema := os.Getenv("SNOWFLAKE_SCHEMA")
	role := os.Getenv("SNOWFLAKE_ROLE")

	if path := os.Getenv("SNOWFLAKE_PRIVATE_KEY_PATH"); path != "" {
		pemBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("sfclient: read private key: %w", err)
		}
		return NewWithKeypairAuth(accountIdentifier, username, pemBytes, warehouse, database, schema, role, opts...), nil
	}
	if token := os.Getenv("SNOWFLAKE_OAUTH_TOKEN"); token != "" {
		return NewWithOAuth(accountIdentifier, username, token, warehouse, database, schema, role, opts...), nil
	}
	password := os.Getenv("SNOWFLAKE_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("sfclient: one of SNOWFLAKE_PASSWORD, SNOWFLAKE_PRIVATE_KEY_PATH, or SNOWFLAKE_OAUTH_TOKEN is required")
	}
	return New(accountIdentifier, username, password, warehouse, database, schema, role, opts...), nil
}

// Exec classifies and runs sql. PUT and GET statements run the staged-file
// transfer and return an empty Result; everything else returns its decoded
// rows as JSON or Arrow record batches.
func (c *Client) Exec(ctx context.Context, sql string) (query.Result, error) {
	return c.executor.Exec(ctx, sql)
}

// ExecJSON forces the JSON query endpoint and returns the raw rowset value,
// bypassing Arrow decoding entirely.
func (c *Client) ExecJSON(ctx context.Context, sql string) (any, error) {
	return c.executor.ExecJSON(ctx, sql)
}

// ExecRaw returns the data payload of the server's Query response for sql,
// for diagnostics and callers that need fields Result doesn't expose (query
// ID, row type metadata, statement type). The envelope's code, message and
// success fields are not returned.
func (c *Client) ExecRaw(ctx context.Context, sql string) (*schema.QueryExecResponseData, error) {
	return c.executor.ExecRaw(ctx, sql)
}

// SessionInfo returns the session context the server reported at login
// (negotiated warehouse, database, schema, role), or nil before the first
// statement triggers a login.
func (c *Client) SessionInfo() *schema.SessionInfo {
	return c.executor.Session.Info()
}

// Close ends the underlying session, if one was ever established.
func (c *Client) Close(ctx context.Context) error {
	return c.executor.Close(ctx)
}
