package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileManager_WriteAndReadAtomic(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "nested", "dir", "new_file")

	require.NoError(t, fm.WriteFile(path, []byte("User-agent: *\n"), DefaultFileWriteOptions()))
	require.NoError(t, fm.WriteFile(path, []byte("User-agent: *\nDisallow: /\n"), DefaultFileWriteOptions()))

	content, err := fm.ReadFile(path, FileReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "User-agent: *\nDisallow: /\n", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileManager_ReadFileIfExists(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())

	content, ok, err := fm.ReadFileIfExists(filepath.Join(t.TempDir(), "missing"), FileReadOptions{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, content)
}

func TestFileManager_ReadFileMaxSize(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "big")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	_, err := fm.ReadFile(path, FileReadOptions{MaxSize: 4})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))

	content, err := fm.ReadFile(path, FileReadOptions{MaxSize: 10})
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(content))
}

func TestFileManager_EnsureDirectoryRejectsFile(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	err := fm.EnsureDirectory(path, DefaultDirPerm)
	assert.Error(t, err)
}

func TestFileManager_AppendLine(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "log.txt")

	require.NoError(t, fm.AppendLine(path, "one"))
	require.NoError(t, fm.AppendLine(path, "two"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(content))
}

func TestFileManager_UniquePath(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	base := filepath.Join(t.TempDir(), "01-02-24 T 10-00-00")

	first := fm.UniquePath(base, ".txt")
	assert.Equal(t, base+".txt", first)
	require.NoError(t, os.WriteFile(first, nil, 0644))

	second := fm.UniquePath(base, ".txt")
	assert.Equal(t, base+"-1.txt", second)
	require.NoError(t, os.WriteFile(second, nil, 0644))

	assert.Equal(t, base+"-2.txt", fm.UniquePath(base, ".txt"))
}

func TestFormatters(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "05-03-24, 14:07: Run started.", FormatLogLine(ts, "Run started."))
	assert.Equal(t, "05-03-24 T 14-07-09", FormatFileStamp(ts))
	assert.Equal(t, "", FormatTimeOptional(time.Time{}, LayoutRFC3339))
}

func TestSleepWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepWithContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, SleepWithContext(context.Background(), time.Millisecond))
}
