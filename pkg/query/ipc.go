package query

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/deltarule/sfclient/pkg/schema"
	"github.com/deltarule/sfclient/pkg/transport"
)

func decodeIPCStream(r io.Reader) ([]arrow.Record, error) {
	rdr, err := ipc.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open ipc stream: %v", ErrDecode, err)
	}
	defer rdr.Release()

	var batches []arrow.Record
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		batches = append(batches, rec)
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		for _, b := range batches {
			b.Release()
		}
		return nil, fmt.Errorf("%w: read ipc stream: %v", ErrDecode, err)
	}
	return batches, nil
}

// decodeTabular decodes the inline base64 IPC payload plus any remote
// chunks, fetched concurrently and assembled in the server-declared chunk
// order rather than fetch-completion order.
func decodeTabular(ctx context.Context, d *transport.Dispatcher, data schema.QueryExecResponseData) ([]arrow.Record, error) {
	if data.RowSetBase64 == nil {
		return nil, ErrBrokenResponse
	}

	var batches []arrow.Record
	if *data.RowSetBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(*data.RowSetBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: decode base64 rowset: %v", ErrDecode, err)
		}

		decoded, err := decodeIPCStream(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		batches = decoded
	}

	if len(data.Chunks) == 0 {
		return batches, nil
	}

	log.Debug().Int("chunks", len(data.Chunks)).Str("query_id", data.QueryID).
		Msg("fetching remote result chunks")

	chunkBatches := make([][]arrow.Record, len(data.Chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range data.Chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			body, err := d.FetchChunk(gctx, chunk.URL, data.ChunkHeaders)
			if err != nil {
				return err
			}
			decoded, err := decodeIPCStream(bytes.NewReader(body))
			if err != nil {
				return err
			}
			chunkBatches[i] = decoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, cb := range chunkBatches {
		batches = append(batches, cb...)
	}
	return batches, nil
}
