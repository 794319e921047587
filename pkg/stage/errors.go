package stage

import "errors"

var (
	// ErrInvalidBucketPath is returned when a stage location has no '/'
	// separator between bucket name and path.
	ErrInvalidBucketPath = errors.New("stage: invalid bucket path")

	// ErrInvalidLocalPath is returned when a local file path has no
	// extractable filename component.
	ErrInvalidLocalPath = errors.New("stage: invalid local path")

	// ErrIoError covers filesystem failures reading or writing staged
	// files.
	ErrIoError = errors.New("stage: io error")

	// ErrUnimplemented marks a stage kind this engine does not transfer to.
	ErrUnimplemented = errors.New("stage: unimplemented")
)
