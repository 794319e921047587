// Package transport composes Snowflake REST URLs, attaches per-attempt
// identifiers, retries transient failures, and decodes JSON responses.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/deltarule/sfclient/pkg/metrics"
)

// EndpointKind enumerates the fixed (path, accept-mime) pairs a request can
// target.
type EndpointKind int

const (
	LoginRequest EndpointKind = iota
	TokenRequest
	CloseSession
	JsonQuery
	TabularQuery
)

type endpoint struct {
	path       string
	acceptMime string
}

func (k EndpointKind) endpoint() endpoint {
	switch k {
	case LoginRequest:
		return endpoint{"session/v1/login-request", "application/json"}
	case TokenRequest:
		return endpoint{"session/token-request", "application/snowflake"}
	case CloseSession:
		return endpoint{"session", "application/snowflake"}
	case JsonQuery:
		return endpoint{"queries/v1/query-request", "application/json"}
	case TabularQuery:
		return endpoint{"queries/v1/query-request", "application/snowflake"}
	default:
		panic(fmt.Sprintf("transport: unknown endpoint kind %d", k))
	}
}

// label names the metric series for this endpoint kind, distinct from the
// URL path so JsonQuery and TabularQuery (same path) don't collapse together.
func (k EndpointKind) label() string {
	switch k {
	case LoginRequest:
		return "login"
	case TokenRequest:
		return "token-renew"
	case CloseSession:
		return "close-session"
	case JsonQuery:
		return "json-query"
	case TabularQuery:
		return "tabular-query"
	default:
		return "unknown"
	}
}

const maxAttempts = 4 // one initial attempt plus up to 3 retries

// Dispatcher issues requests against a single Snowflake account host. It
// holds no per-session state: Session and the query executor share one
// Dispatcher instance backed by one connection-pooling *http.Client.
type Dispatcher struct {
	client *http.Client
	clock  Clock

	// userAgent must be non-empty; the server does not appear to inspect
	// its value beyond that.
	userAgent string

	// baseURL, when set, replaces "https://{account}.snowflakecomputing.com"
	// entirely. Production dispatchers leave it empty; tests and private-link
	// deployments point it at an alternate host.
	baseURL string

	metrics *metrics.ClientMetrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option { return func(d *Dispatcher) { d.client = c } }

// WithClock overrides the Clock used to wait between retries.
func WithClock(c Clock) Option { return func(d *Dispatcher) { d.clock = c } }

// WithBaseURL points the dispatcher at a fixed host instead of deriving one
// from the account identifier, for private-link deployments and tests.
func WithBaseURL(u string) Option { return func(d *Dispatcher) { d.baseURL = u } }

// WithMetrics attaches a metrics sink. Nil (the default) disables
// instrumentation.
func WithMetrics(m *metrics.ClientMetrics) Option { return func(d *Dispatcher) { d.metrics = m } }

// NewDispatcher builds a Dispatcher with production defaults.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:    &http.Client{},
		clock:     RealClock,
		userAgent: "sfclient/0.1",
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Params is a list of extra query parameters, added to the same query
// string as the per-attempt identifiers. The encoded query string is sorted
// by key, so the list order is not kept.
type Params [][2]string

func (d *Dispatcher) buildURL(account string, kind EndpointKind, extra Params) string {
	ep := kind.endpoint()
	clientStartTime := strconv.FormatInt(time.Now().Unix(), 10)
	requestID := uuid.NewString()
	requestGUID := uuid.NewString()

	q := url.Values{}
	q.Set("clientStartTime", clientStartTime)
	q.Set("requestId", requestID)
	q.Set("request_guid", requestGUID)
	for _, kv := range extra {
		q.Set(kv[0], kv[1])
	}

	host := d.baseURL
	if host == "" {
		host = fmt.Sprintf("https://%s.snowflakecomputing.com", account)
	}
	return fmt.Sprintf("%s/%s?%s", host, ep.path, q.Encode())
}

// Request issues one round-trip of kind against account, retrying transient
// failures with exponential backoff, and decodes the JSON response body
// into out. auth, if non-empty, is sent as the Authorization header.
func (d *Dispatcher) Request(ctx context.Context, kind EndpointKind, account string, extra Params, auth string, body any, out any) error {
	respBody, err := d.RequestRaw(ctx, kind, account, extra, auth, body)
	if err != nil {
		return err
	}
	if jsonErr := json.Unmarshal(respBody, out); jsonErr != nil {
		return &UnexpectedResponseError{StatusCode: http.StatusOK, Body: string(respBody)}
	}
	return nil
}

// RequestRaw behaves like Request but returns the raw successful response
// body instead of decoding it, for callers that must inspect the body shape
// before choosing a concrete type to decode into.
func (d *Dispatcher) RequestRaw(ctx context.Context, kind EndpointKind, account string, extra Params, auth string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request body: %v", ErrTransport, err)
	}

	eb := backoff.NewExponentialBackOff()
	eb.Reset()

	label := kind.label()
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		respBody, status, err := d.attempt(ctx, kind, account, extra, auth, payload)
		if err != nil {
			lastErr = err
		} else if status == http.StatusForbidden {
			d.metrics.ObserveRequest(label, "forbidden", time.Since(start))
			return nil, fmt.Errorf("%w: status %d", ErrInvalidAccountIdentifier, status)
		} else if status < 200 || status >= 300 {
			if !isRetryableStatus(status) {
				d.metrics.ObserveRequest(label, "error", time.Since(start))
				return nil, &UnexpectedResponseError{StatusCode: status, Body: string(respBody)}
			}
			lastErr = fmt.Errorf("%w: status %d: %s", ErrTransport, status, string(respBody))
		} else {
			d.metrics.ObserveRequest(label, "ok", time.Since(start))
			return respBody, nil
		}

		if attempt == maxAttempts {
			break
		}

		delay := eb.NextBackOff()
		d.metrics.IncRetry()
		log.Debug().Err(lastErr).Int("attempt", attempt).Dur("backoff", delay).Msg("retrying snowflake request")
		if sleepErr := d.clock.Sleep(ctx, delay); sleepErr != nil {
			d.metrics.ObserveRequest(label, "cancelled", time.Since(start))
			return nil, sleepErr
		}
	}
	d.metrics.ObserveRequest(label, "exhausted", time.Since(start))
	return nil, fmt.Errorf("%w: retry budget exhausted: %v", ErrTransport, lastErr)
}

func (d *Dispatcher) attempt(ctx context.Context, kind EndpointKind, account string, extra Params, auth string, payload []byte) ([]byte, int, error) {
	u := d.buildURL(account, kind, extra)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", kind.endpoint().acceptMime)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	return data, resp.StatusCode, nil
}

// FetchChunk performs a plain GET against url with the given headers,
// returning the raw response bytes. Failures propagate without
// endpoint-specific wrapping.
func (d *Dispatcher) FetchChunk(ctx context.Context, chunkURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, chunkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build chunk request: %v", ErrTransport, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.metrics.IncChunkFetch(false)
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		d.metrics.IncChunkFetch(false)
		return nil, fmt.Errorf("%w: read chunk body: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.metrics.IncChunkFetch(false)
		return nil, &UnexpectedResponseError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	d.metrics.IncChunkFetch(true)
	return data, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	default:
		return status >= 500
	}
}
