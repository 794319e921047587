// Package stage performs the staged-file transfer that backs PUT and GET
// statements: glob-expand local files, bucket them by size, and move them
// through a cloud object store using short-lived, server-issued
// credentials.
package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/deltarule/sfclient/pkg/metrics"
	"github.com/deltarule/sfclient/pkg/schema"
)

// Engine runs PUT/GET transfers. MaxParallelUploads and
// MaxFileSizeThreshold are the client-side defaults used when the server
// response omits them.
type Engine struct {
	MaxParallelUploads   int
	MaxFileSizeThreshold int64
	Metrics              *metrics.ClientMetrics
}

// NewEngine builds an Engine with the given defaults.
func NewEngine(maxParallelUploads int, maxFileSizeThreshold int64) *Engine {
	return &Engine{
		MaxParallelUploads:   maxParallelUploads,
		MaxFileSizeThreshold: maxFileSizeThreshold,
	}
}

// Upload runs the PUT flow described by descriptor: expand src_locations as
// globs, bucket by size, upload large files sequentially and small files
// with bounded concurrency.
func (e *Engine) Upload(ctx context.Context, descriptor schema.PutGetResponseData) error {
	backend, bucketPath, err := e.backendFor(descriptor)
	if err != nil {
		return err
	}
	return e.upload(ctx, descriptor, backend, bucketPath)
}

func (e *Engine) upload(ctx context.Context, descriptor schema.PutGetResponseData, backend Backend, bucketPath string) error {
	threshold := descriptor.Threshold
	if threshold == 0 {
		threshold = e.MaxFileSizeThreshold
	}
	small, large, err := bucketFiles(descriptor.SrcLocations, threshold)
	if err != nil {
		return err
	}

	log.Debug().Int("small", len(small)).Int("large", len(large)).
		Int64("threshold", threshold).Str("bucket_path", bucketPath).
		Msg("staged upload starting")

	for _, path := range large {
		if err := e.uploadOne(ctx, backend, bucketPath, path); err != nil {
			return err
		}
	}

	parallel := int(descriptor.Parallel)
	if parallel <= 0 {
		parallel = e.MaxParallelUploads
	}
	return e.uploadParallel(ctx, backend, bucketPath, small, parallel)
}

// uploadOne reads one local file and puts it at {bucketPath}{filename}.
func (e *Engine) uploadOne(ctx context.Context, backend Backend, bucketPath, localPath string) error {
	key, err := destinationKey(bucketPath, localPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		e.Metrics.IncFileTransferred("upload", "error")
		return fmt.Errorf("%w: read %s: %v", ErrIoError, localPath, err)
	}
	if err := backend.Put(ctx, key, data); err != nil {
		e.Metrics.IncFileTransferred("upload", "error")
		return err
	}
	e.Metrics.AddBytesUploaded(len(data))
	e.Metrics.IncFileTransferred("upload", "ok")
	return nil
}

// uploadParallel uploads files with at most parallel transfers in flight,
// failing the batch on the first error.
func (e *Engine) uploadParallel(ctx context.Context, backend Backend, bucketPath string, files []string, parallel int) error {
	if len(files) == 0 {
		return nil
	}
	if parallel <= 0 {
		parallel = 1
	}

	sem := semaphore.NewWeighted(int64(parallel))
	errs := make(chan error, len(files))

	started := 0
	for _, path := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Drain the uploads already in flight before reporting.
			for range started {
				<-errs
			}
			return err
		}
		started++
		go func(path string) {
			defer sem.Release(1)
			errs <- e.uploadOne(ctx, backend, bucketPath, path)
		}(path)
	}

	var firstErr error
	for range started {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Download runs the GET flow: for each src_locations entry, fetch
// {bucket_path}{name} and write it to {local_location}{name}.
func (e *Engine) Download(ctx context.Context, descriptor schema.PutGetResponseData) error {
	backend, bucketPath, err := e.backendFor(descriptor)
	if err != nil {
		return err
	}
	if descriptor.LocalLocation == nil {
		return fmt.Errorf("%w: missing local_location in GET descriptor", ErrInvalidLocalPath)
	}
	return e.download(ctx, descriptor, backend, bucketPath, *descriptor.LocalLocation)
}

func (e *Engine) download(ctx context.Context, descriptor schema.PutGetResponseData, backend Backend, bucketPath, localDir string) error {
	log.Debug().Int("files", len(descriptor.SrcLocations)).
		Str("bucket_path", bucketPath).Msg("staged download starting")

	for _, name := range descriptor.SrcLocations {
		filename := filepath.Base(name)
		data, err := backend.Get(ctx, bucketPath+filename)
		if err != nil {
			e.Metrics.IncFileTransferred("download", "error")
			return err
		}
		destPath := localDir + filename
		if err := os.WriteFile(destPath, data, 0o644); err != nil {
			e.Metrics.IncFileTransferred("download", "error")
			return fmt.Errorf("%w: write %s: %v", ErrIoError, destPath, err)
		}
		e.Metrics.AddBytesDownloaded(len(data))
		e.Metrics.IncFileTransferred("download", "ok")
	}
	return nil
}

func (e *Engine) backendFor(descriptor schema.PutGetResponseData) (Backend, string, error) {
	switch {
	case descriptor.StageInfo.Aws != nil:
		return newS3Backend(descriptor.StageInfo.Aws)
	case descriptor.StageInfo.Azure != nil:
		return nil, "", fmt.Errorf("%w: staged transfer to Azure", ErrUnimplemented)
	case descriptor.StageInfo.Gcs != nil:
		return nil, "", fmt.Errorf("%w: staged transfer to GCS", ErrUnimplemented)
	default:
		return nil, "", fmt.Errorf("%w: no stage info present", ErrInvalidBucketPath)
	}
}
