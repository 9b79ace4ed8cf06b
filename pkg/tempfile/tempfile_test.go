package tempfile

import (
	"bufio"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBig(t *testing.T) {
	const size = 64 * 1024

	f, err := Big(size)
	require.NoError(t, err)
	defer f.Cleanup()

	info, err := os.Stat(f.Name())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.Size(), int64(size))
	assert.Equal(t, info.Size(), f.Size)

	// File must be readable from the start and contain decimal lines.
	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() && lines < 10 {
		_, err := strconv.ParseInt(scanner.Text(), 10, 64)
		require.NoError(t, err)
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 10, lines)
}

func TestCleanupRemovesFile(t *testing.T) {
	f, err := Big(128)
	require.NoError(t, err)

	name := f.Name()
	f.Cleanup()

	_, err = os.Stat(name)
	assert.True(t, os.IsNotExist(err))
}
