package stage

import (
	"fmt"
	"os"
	"path/filepath"
)

// bucketFiles expands each pattern as a filesystem glob and partitions the
// matches by size against threshold: files larger than threshold are
// "large", everything else (including files exactly at the threshold) is
// "small". A negative threshold is clamped to 0, sending every file to
// large_files.
func bucketFiles(patterns []string, threshold int64) (small, large []string, err error) {
	if threshold < 0 {
		threshold = 0
	}

	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		paths = append(paths, matches...)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: stat %s: %v", ErrIoError, p, err)
		}
		if info.Size() > threshold {
			large = append(large, p)
		} else {
			small = append(small, p)
		}
	}
	return small, large, nil
}

func destinationKey(bucketPath, localPath string) (string, error) {
	filename := filepath.Base(localPath)
	if filename == "." || filename == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %s", ErrInvalidLocalPath, localPath)
	}
	return bucketPath + filename, nil
}
