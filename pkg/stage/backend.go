package stage

import "context"

// Backend is the minimal object-store surface the staged-file engine
// needs: put an object's full contents, get an object's full contents.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}
