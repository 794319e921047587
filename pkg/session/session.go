// Package session owns the dual-token authentication lifecycle: login,
// renewal, master-token expiry, and the per-session request sequence
// counter every SQL dispatch must stamp.
package session

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deltarule/sfclient/account"
	"github.com/deltarule/sfclient/pkg/jwtauth"
	"github.com/deltarule/sfclient/pkg/metrics"
	"github.com/deltarule/sfclient/pkg/schema"
	"github.com/deltarule/sfclient/pkg/transport"
)

// AuthToken is a single bearer token with a validity window. A negative
// validity-in-seconds value (the server's way of saying "does not expire")
// saturates to the largest representable duration instead of being
// special-cased at every call site.
type AuthToken struct {
	Token    string
	issuedOn time.Time
	validFor time.Duration
}

func newAuthToken(token string, validityInSeconds int64) AuthToken {
	var d time.Duration
	if validityInSeconds < 0 {
		d = time.Duration(math.MaxInt64)
	} else {
		d = time.Duration(validityInSeconds) * time.Second
	}
	return AuthToken{Token: token, issuedOn: time.Now(), validFor: d}
}

func (t AuthToken) isExpired() bool {
	return !time.Now().Before(t.issuedOn.Add(t.validFor))
}

// tokenPair is a session/master token issued together by one login or
// renewal, plus the request sequence counter that travels with them.
type tokenPair struct {
	session    AuthToken
	master     AuthToken
	sequenceID uint64
}

// Session owns the lazily-created token pair for one account handle. The
// zero-value Session obtained from New is unauthenticated; the first call
// to AuthParts triggers a login.
type Session struct {
	mu         sync.Mutex
	pair       *tokenPair
	info       *schema.SessionInfo
	params     []schema.NameValueParameter
	handle     account.Handle
	creds      account.Credentials
	dispatcher *transport.Dispatcher
	issuer     *jwtauth.Issuer
	metrics    *metrics.ClientMetrics
}

// New builds a Session for handle authenticating with creds, dispatching
// requests through d.
func New(handle account.Handle, creds account.Credentials, d *transport.Dispatcher) *Session {
	return &Session{
		handle:     handle,
		creds:      creds,
		dispatcher: d,
		issuer:     jwtauth.NewIssuer(),
	}
}

// SetMetrics attaches a metrics sink for login/renewal/auth-failure counts.
// Nil disables instrumentation.
func (s *Session) SetMetrics(m *metrics.ClientMetrics) { s.metrics = m }

// AuthParts returns a usable Authorization header value and the sequence
// number to stamp on the next SQL request, performing login or renewal as
// needed. The sequence counter is incremented under the session mutex
// before being returned, so no two calls ever observe the same value.
func (s *Session) AuthParts(ctx context.Context) (string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.pair == nil:
		if err := s.login(ctx); err != nil {
			return "", 0, err
		}
	case s.pair.master.isExpired():
		s.pair = nil
		if err := s.login(ctx); err != nil {
			return "", 0, err
		}
	case s.pair.session.isExpired():
		if err := s.renew(ctx); err != nil {
			return "", 0, err
		}
	}

	s.pair.sequenceID++
	header := fmt.Sprintf(`Snowflake Token="%s"`, s.pair.session.Token)
	return header, s.pair.sequenceID, nil
}

// Close posts a delete against an existing session, then clears the token
// pair. Closing an unauthenticated session is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pair == nil {
		return nil
	}

	header := fmt.Sprintf(`Snowflake Token="%s"`, s.pair.session.Token)
	_, err := s.dispatcher.RequestRaw(ctx, transport.CloseSession, s.handle.AccountIdentifier,
		transport.Params{{"delete", "true"}}, header, struct{}{})
	s.pair = nil
	return err
}

func (s *Session) login(ctx context.Context) error {
	body, err := s.loginBody()
	if err != nil {
		return err
	}

	raw, err := s.dispatcher.RequestRaw(ctx, transport.LoginRequest, s.handle.AccountIdentifier, s.loginParams(), "", body)
	if err != nil {
		return err
	}

	variant, parsed, err := schema.DecodeAuthResponse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrUnexpectedResponse, err)
	}
	if variant == schema.AuthError {
		errResp := parsed.(*schema.AuthErrorResponse)
		msg := ""
		if errResp.Message != nil {
			msg = *errResp.Message
		}
		code := ""
		if errResp.Code != nil {
			code = *errResp.Code
		}
		s.metrics.IncAuthFailure()
		return &AuthFailedError{Code: code, Message: msg}
	}
	loginResp, ok := parsed.(*schema.LoginResponse)
	if !ok {
		return fmt.Errorf("%w: login returned variant %d", transport.ErrUnexpectedResponse, variant)
	}

	s.pair = &tokenPair{
		session: newAuthToken(loginResp.Data.Token, loginResp.Data.ValidityInSeconds),
		master:  newAuthToken(loginResp.Data.MasterToken, loginResp.Data.MasterValidityInSeconds),
	}
	info := loginResp.Data.SessionInfo
	s.info = &info
	s.params = loginResp.Data.Parameters
	s.metrics.IncLogin()
	log.Debug().Str("account", s.handle.AccountIdentifier).
		Int64("session_validity_s", loginResp.Data.ValidityInSeconds).
		Int64("master_validity_s", loginResp.Data.MasterValidityInSeconds).
		Msg("session established")
	return nil
}

// Info returns the session context the server reported at login (negotiated
// warehouse, database, schema, role), or nil before the first login.
func (s *Session) Info() *schema.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return nil
	}
	info := *s.info
	return &info
}

// Parameters returns the session parameters the server reported at login.
func (s *Session) Parameters() []schema.NameValueParameter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.NameValueParameter(nil), s.params...)
}

func (s *Session) renew(ctx context.Context) error {
	body := schema.TokenRequestBody{
		OldSessionToken: s.pair.session.Token,
		RequestType:     "RENEW",
	}
	header := fmt.Sprintf(`Snowflake Token="%s"`, s.pair.master.Token)

	raw, err := s.dispatcher.RequestRaw(ctx, transport.TokenRequest, s.handle.AccountIdentifier, nil, header, body)
	if err != nil {
		return err
	}

	variant, parsed, err := schema.DecodeAuthResponse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrUnexpectedResponse, err)
	}
	if variant == schema.AuthError {
		errResp := parsed.(*schema.AuthErrorResponse)
		msg := ""
		if errResp.Message != nil {
			msg = *errResp.Message
		}
		code := ""
		if errResp.Code != nil {
			code = *errResp.Code
		}
		s.metrics.IncAuthFailure()
		return &AuthFailedError{Code: code, Message: msg}
	}
	renewResp, ok := parsed.(*schema.RenewSessionResponse)
	if !ok {
		return fmt.Errorf("%w: renew returned variant %d", transport.ErrUnexpectedResponse, variant)
	}

	sequenceID := s.pair.sequenceID
	s.pair = &tokenPair{
		session:    newAuthToken(renewResp.Data.SessionToken, renewResp.Data.ValidityInSecondsST),
		master:     newAuthToken(renewResp.Data.MasterToken, renewResp.Data.ValidityInSecondsMT),
		sequenceID: sequenceID,
	}
	s.metrics.IncRenewal()
	log.Debug().Str("account", s.handle.AccountIdentifier).
		Uint64("sequence_id", sequenceID).Msg("session token renewed")
	return nil
}

// loginParams builds the warehouse/database/schema/role query parameters
// every login request carries alongside its JSON body.
func (s *Session) loginParams() transport.Params {
	var params transport.Params
	if s.handle.Warehouse != "" {
		params = append(params, [2]string{"warehouse", s.handle.Warehouse})
	}
	if s.handle.Database != "" {
		params = append(params, [2]string{"databaseName", s.handle.Database})
	}
	if s.handle.Schema != "" {
		params = append(params, [2]string{"schemaName", s.handle.Schema})
	}
	if s.handle.Role != "" {
		params = append(params, [2]string{"roleName", s.handle.Role})
	}
	return params
}

func (s *Session) loginBody() (schema.LoginRequestBody, error) {
	data := schema.LoginRequestData{
		ClientAppID:      "Go",
		ClientAppVersion: "1.6.22",
		AccountName:      s.handle.AccountIdentifier,
		LoginName:        s.handle.Username,
		SessionParameters: schema.SessionParameters{
			ClientValidateDefaultParameters: true,
		},
		ClientEnvironment: schema.ClientEnvironment{
			Application: "Go",
			OS:          runtime.GOOS,
			OSVersion:   runtime.GOARCH,
			OCSPMode:    "FAIL_OPEN",
		},
	}

	switch creds := s.creds.(type) {
	case account.KeypairCredentials:
		token, err := s.issuer.Issue(creds.PrivateKeyPEM, s.handle.FullIdentifier())
		if err != nil {
			return schema.LoginRequestBody{}, err
		}
		data.Authenticator = "SNOWFLAKE_JWT"
		data.Token = token
	case account.PasswordCredentials:
		data.Password = creds.Password
	case account.OAuthCredentials:
		data.Authenticator = "OAUTH"
		data.Token = creds.AccessToken
	default:
		return schema.LoginRequestBody{}, fmt.Errorf("%w: unsupported credentials type %T", ErrCredential, creds)
	}

	return schema.LoginRequestBody{Data: data}, nil
}
