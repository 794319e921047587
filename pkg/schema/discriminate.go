package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ErrUnrecognizedVariant is returned when a response body matches none of
// the known shapes, not even the catch-all error shape.
var ErrUnrecognizedVariant = errors.New("schema: unrecognized response variant")

type envelope struct {
	Code    *string         `json:"code"`
	Message *string         `json:"message"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// ExecVariant identifies which of the five exec-response shapes a body
// decoded as.
type ExecVariant int

const (
	ExecPutGet ExecVariant = iota
	ExecAsyncQuery
	ExecMultiStatementQuery
	ExecQuery
	ExecError
)

// execSchemas lists the five exec-response shapes in server-declared
// precedence order: PutGet and MultiStatementQuery and AsyncQuery are
// checked ahead of Query because a PutGet body happens to also satisfy a
// loose "has rowtype-like fields" probe, and Error is the catch-all.
var execSchemas = []struct {
	variant ExecVariant
	schema  string
}{
	{ExecPutGet, `{"required":["command","src_locations","stageInfo"]}`},
	{ExecAsyncQuery, `{"required":["getResultUrl","queryAbortsAfterSecs"]}`},
	{ExecMultiStatementQuery, `{"required":["resultIds","resultTypes"]}`},
	{ExecQuery, `{"required":["rowtype","total","returned"]}`},
	{ExecError, `{"required":["errorCode","sqlState"]}`},
}

// DecodeExecResponse determines which exec-response variant body decodes
// as and returns the parsed BaseRestResponse for that variant as an any,
// along with which variant it was. Precedence order resolves ambiguous
// bodies that would otherwise satisfy more than one shape (a PutGet body
// also carries rowtype-shaped parameters): the first schema match wins.
func DecodeExecResponse(body []byte) (ExecVariant, any, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return 0, nil, fmt.Errorf("schema: decode envelope: %w", err)
	}

	doc := gojsonschema.NewBytesLoader(env.Data)
	for _, cand := range execSchemas {
		res, err := gojsonschema.Validate(gojsonschema.NewStringLoader(cand.schema), doc)
		if err != nil {
			return 0, nil, fmt.Errorf("schema: validate %v: %w", cand.variant, err)
		}
		if !res.Valid() {
			continue
		}
		parsed, err := decodeExecVariant(cand.variant, body)
		if err != nil {
			return 0, nil, err
		}
		return cand.variant, parsed, nil
	}
	return 0, nil, fmt.Errorf("%w: exec response", ErrUnrecognizedVariant)
}

func decodeExecVariant(v ExecVariant, body []byte) (any, error) {
	switch v {
	case ExecPutGet:
		var r PutGetResponse
		return &r, unmarshalOrWrap(body, &r)
	case ExecAsyncQuery:
		var r AsyncQueryResponse
		return &r, unmarshalOrWrap(body, &r)
	case ExecMultiStatementQuery:
		var r MultiStatementQueryResponse
		return &r, unmarshalOrWrap(body, &r)
	case ExecQuery:
		var r QueryExecResponse
		return &r, unmarshalOrWrap(body, &r)
	case ExecError:
		var r ExecErrorResponse
		return &r, unmarshalOrWrap(body, &r)
	default:
		return nil, fmt.Errorf("schema: unknown exec variant %d", v)
	}
}

// AuthVariant identifies which of the auth-response shapes a body decoded
// as.
type AuthVariant int

const (
	AuthLogin AuthVariant = iota
	AuthAuthenticator
	AuthRenew
	AuthClose
	AuthError
)

var authSchemas = []struct {
	variant AuthVariant
	schema  string
}{
	{AuthLogin, `{"type":"object","required":["token","masterToken","sessionInfo"]}`},
	{AuthAuthenticator, `{"type":"object","required":["tokenUrl","ssoUrl","proofKey"]}`},
	{AuthRenew, `{"type":"object","required":["sessionToken","masterToken","sessionId"]}`},
	{AuthError, `{"type":"object","required":["authnMethod"]}`},
}

// DecodeAuthResponse determines which auth-response variant body decodes
// as. Close-session responses carry a null or absent data payload and have
// no distinguishing field, so they are the fallback when nothing else
// matches and Success is true; an unsuccessful body with no recognizable
// shape is AuthError territory handled by the explicit schema above, and
// an unsuccessful body matching nothing at all is ErrUnrecognizedVariant.
func DecodeAuthResponse(body []byte) (AuthVariant, any, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return 0, nil, fmt.Errorf("schema: decode envelope: %w", err)
	}

	doc := gojsonschema.NewBytesLoader(env.Data)
	for _, cand := range authSchemas {
		res, err := gojsonschema.Validate(gojsonschema.NewStringLoader(cand.schema), doc)
		if err != nil {
			return 0, nil, fmt.Errorf("schema: validate %v: %w", cand.variant, err)
		}
		if !res.Valid() {
			continue
		}
		parsed, err := decodeAuthVariant(cand.variant, body)
		if err != nil {
			return 0, nil, err
		}
		return cand.variant, parsed, nil
	}

	if env.Success && (len(env.Data) == 0 || string(env.Data) == "null") {
		var r CloseSessionResponse
		return AuthClose, &r, unmarshalOrWrap(body, &r)
	}
	return 0, nil, fmt.Errorf("%w: auth response", ErrUnrecognizedVariant)
}

func decodeAuthVariant(v AuthVariant, body []byte) (any, error) {
	switch v {
	case AuthLogin:
		var r LoginResponse
		return &r, unmarshalOrWrap(body, &r)
	case AuthAuthenticator:
		var r AuthenticatorResponse
		return &r, unmarshalOrWrap(body, &r)
	case AuthRenew:
		var r RenewSessionResponse
		return &r, unmarshalOrWrap(body, &r)
	case AuthError:
		var r AuthErrorResponse
		return &r, unmarshalOrWrap(body, &r)
	default:
		return nil, fmt.Errorf("schema: unknown auth variant %d", v)
	}
}

func unmarshalOrWrap(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("schema: decode response body: %w", err)
	}
	return nil
}
