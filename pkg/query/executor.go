// Package query classifies SQL statements, dispatches them to the right
// REST endpoint, and decodes the resulting response into a Result.
package query

import (
	"context"
	"fmt"

	"github.com/deltarule/sfclient/pkg/metrics"
	"github.com/deltarule/sfclient/pkg/schema"
	"github.com/deltarule/sfclient/pkg/session"
	"github.com/deltarule/sfclient/pkg/stage"
	"github.com/deltarule/sfclient/pkg/transport"
)

// Executor runs statements against one account, using Session for
// authentication and Stage for the staged-file transfer flows.
type Executor struct {
	Dispatcher *transport.Dispatcher
	Session    *session.Session
	Stage      *stage.Engine
	Account    string
	Metrics    *metrics.ClientMetrics
}

// Exec classifies sql and runs it through the matching flow. PUT and GET
// statements return ResultEmpty on success; their effect is the file
// transfer itself.
func (e *Executor) Exec(ctx context.Context, sql string) (Result, error) {
	switch Classify(sql) {
	case KindPut:
		if err := e.execTransfer(ctx, sql, true); err != nil {
			return Result{}, err
		}
		e.Metrics.IncQuery("put")
		return Result{Kind: ResultEmpty}, nil
	case KindGet:
		if err := e.execTransfer(ctx, sql, false); err != nil {
			return Result{}, err
		}
		e.Metrics.IncQuery("get")
		return Result{Kind: ResultEmpty}, nil
	default:
		result, err := e.execRegular(ctx, sql)
		if err != nil {
			return Result{}, err
		}
		e.Metrics.IncQuery(result.Kind.String())
		return result, nil
	}
}

// ExecJSON forces the JSON query endpoint regardless of statement shape and
// returns the raw rowset value, for diagnostics.
func (e *Executor) ExecJSON(ctx context.Context, sql string) (any, error) {
	data, err := e.runQuery(ctx, sql, transport.JsonQuery)
	if err != nil {
		return nil, err
	}
	return data.RowSet, nil
}

// ExecRaw returns the data payload of the server's Query response for sql,
// for diagnostics. The envelope's code, message and success fields are not
// returned; an Error response comes back as an *ApiError and any other
// variant as an unexpected-response error.
func (e *Executor) ExecRaw(ctx context.Context, sql string) (*schema.QueryExecResponseData, error) {
	data, err := e.runQuery(ctx, sql, transport.TabularQuery)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// Close delegates to the underlying Session.
func (e *Executor) Close(ctx context.Context) error {
	return e.Session.Close(ctx)
}

func (e *Executor) execRegular(ctx context.Context, sql string) (Result, error) {
	data, err := e.runQuery(ctx, sql, transport.TabularQuery)
	if err != nil {
		return Result{}, err
	}

	if data.Returned == 0 {
		return Result{Kind: ResultEmpty}, nil
	}
	if data.RowSet != nil {
		return Result{Kind: ResultJSON, JSON: data.RowSet}, nil
	}
	if data.RowSetBase64 != nil {
		batches, err := decodeTabular(ctx, e.Dispatcher, data)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: ResultTabular, Batches: batches}, nil
	}
	return Result{}, ErrBrokenResponse
}

func (e *Executor) execTransfer(ctx context.Context, sql string, upload bool) error {
	descriptor, err := e.runPutGet(ctx, sql)
	if err != nil {
		return err
	}
	if upload {
		return e.Stage.Upload(ctx, descriptor)
	}
	return e.Stage.Download(ctx, descriptor)
}

func (e *Executor) runQuery(ctx context.Context, sql string, kind transport.EndpointKind) (schema.QueryExecResponseData, error) {
	raw, err := e.dispatch(ctx, sql, kind)
	if err != nil {
		return schema.QueryExecResponseData{}, err
	}

	variant, parsed, err := schema.DecodeExecResponse(raw)
	if err != nil {
		return schema.QueryExecResponseData{}, fmt.Errorf("%w: %v", transport.ErrUnexpectedResponse, err)
	}
	switch variant {
	case schema.ExecQuery:
		return parsed.(*schema.QueryExecResponse).Data, nil
	case schema.ExecError:
		return schema.QueryExecResponseData{}, apiErrorFrom(parsed.(*schema.ExecErrorResponse))
	default:
		return schema.QueryExecResponseData{}, fmt.Errorf("%w: unexpected variant %d for regular query", transport.ErrUnexpectedResponse, variant)
	}
}

func (e *Executor) runPutGet(ctx context.Context, sql string) (schema.PutGetResponseData, error) {
	raw, err := e.dispatch(ctx, sql, transport.JsonQuery)
	if err != nil {
		return schema.PutGetResponseData{}, err
	}

	variant, parsed, err := schema.DecodeExecResponse(raw)
	if err != nil {
		return schema.PutGetResponseData{}, fmt.Errorf("%w: %v", transport.ErrUnexpectedResponse, err)
	}
	switch variant {
	case schema.ExecPutGet:
		return parsed.(*schema.PutGetResponse).Data, nil
	case schema.ExecError:
		return schema.PutGetResponseData{}, apiErrorFrom(parsed.(*schema.ExecErrorResponse))
	default:
		return schema.PutGetResponseData{}, fmt.Errorf("%w: unexpected variant %d for put/get", transport.ErrUnexpectedResponse, variant)
	}
}

func (e *Executor) dispatch(ctx context.Context, sql string, kind transport.EndpointKind) ([]byte, error) {
	auth, sequenceID, err := e.Session.AuthParts(ctx)
	if err != nil {
		return nil, err
	}

	body := schema.QueryRequestBody{
		SQLText:    sql,
		AsyncExec:  false,
		SequenceID: sequenceID,
		IsInternal: false,
	}
	return e.Dispatcher.RequestRaw(ctx, kind, e.Account, nil, auth, body)
}

func apiErrorFrom(e *schema.ExecErrorResponse) error {
	code := e.Data.ErrorCode
	msg := ""
	if e.Message != nil {
		msg = *e.Message
	}
	return &ApiError{Code: code, Message: msg}
}
