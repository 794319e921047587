package stage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBucketFiles covers invariant #6.
func TestBucketFiles(t *testing.T) {
	dir := t.TempDir()

	sizes := map[string]int{"a.csv": 10, "b.csv": 20, "c.csv": 30}
	for name, size := range sizes {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o600))
	}

	pattern := filepath.Join(dir, "*.csv")

	small, large, err := bucketFiles([]string{pattern}, 20)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")}, small)
	require.ElementsMatch(t, []string{filepath.Join(dir, "c.csv")}, large)

	small, large, err = bucketFiles([]string{pattern}, -5)
	require.NoError(t, err)
	require.Empty(t, small)
	require.Len(t, large, 3)
}

func TestDestinationKey(t *testing.T) {
	key, err := destinationKey("bucket/path/", "/tmp/data/a.csv")
	require.NoError(t, err)
	require.Equal(t, "bucket/path/a.csv", key)
}
