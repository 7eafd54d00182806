package pid_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	f := pid.NewAt(t.TempDir(), "rangefinder")

	require.NoError(t, f.Write())
	b, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(b))

	require.NoError(t, f.Write(), "own pid is not another instance")

	require.NoError(t, f.Remove())
	_, err = os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, f.Remove())
}

func TestWriteLiveProcess(t *testing.T) {
	dir := t.TempDir()
	f := pid.NewAt(dir, "rangefinder")

	// the parent of the test binary is alive for the duration of the test
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rangefinder.pid"), []byte(strconv.Itoa(os.Getppid())), 0o600))

	err := f.Write()
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestWriteStaleFile(t *testing.T) {
	dir := t.TempDir()
	f := pid.NewAt(dir, "rangefinder")

	require.NoError(t, os.WriteFile(f.Path(), []byte("not a pid"), 0o600))
	require.NoError(t, f.Write())

	b, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(b))
}
