package datastore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileRecordStore {
	t.Helper()
	return NewFileRecordStore(filepath.Join(t.TempDir(), "data"), nil, zerolog.Nop())
}

func TestFileRecordStore_LoadCreatesSiteDirectory(t *testing.T) {
	store := newTestStore(t)

	record, err := store.Load("a.test")
	require.NoError(t, err)

	assert.False(t, record.HasCompletedFirstCheck)
	assert.Nil(t, record.OldContent)
	assert.Nil(t, record.NewContent)
	assert.DirExists(t, store.SiteDir("a.test"))
	assert.DirExists(t, filepath.Join(store.SiteDir("a.test"), SnapshotsDirName))
}

func TestFileRecordStore_CommitRotation(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load("a.test")
	require.NoError(t, err)

	first, err := store.Commit("a.test", "User-agent: *")
	require.NoError(t, err)
	assert.True(t, first.WasFirstCheck)
	assert.Nil(t, first.PreviousContent)

	record, err := store.Load("a.test")
	require.NoError(t, err)
	require.NotNil(t, record.NewContent)
	assert.Equal(t, "User-agent: *", *record.NewContent)
	assert.Nil(t, record.OldContent)
	assert.True(t, record.HasCompletedFirstCheck)

	second, err := store.Commit("a.test", "User-agent: *\nDisallow: /")
	require.NoError(t, err)
	assert.False(t, second.WasFirstCheck)
	require.NotNil(t, second.PreviousContent)
	assert.Equal(t, "User-agent: *", *second.PreviousContent)

	record, err = store.Load("a.test")
	require.NoError(t, err)
	assert.Equal(t, "User-agent: *", *record.OldContent)
	assert.Equal(t, "User-agent: *\nDisallow: /", *record.NewContent)
}

func TestFileRecordStore_CommitThenLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load("site")
	require.NoError(t, err)

	for _, content := range []string{"", "User-agent: *\n", "  trailing space  \r\n"} {
		_, err := store.Commit("site", content)
		require.NoError(t, err)

		record, err := store.Load("site")
		require.NoError(t, err)
		require.NotNil(t, record.NewContent)
		assert.Equal(t, content, *record.NewContent)
	}
}

func TestFileRecordStore_EmptyContentStillCountsAsObserved(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load("site")
	require.NoError(t, err)

	_, err = store.Commit("site", "")
	require.NoError(t, err)

	result, err := store.Commit("site", "")
	require.NoError(t, err)
	assert.False(t, result.WasFirstCheck)
	require.NotNil(t, result.PreviousContent)
	assert.Equal(t, "", *result.PreviousContent)
}

func TestFileRecordStore_CommitWithoutLoadFails(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Commit("never-loaded", "content")
	require.Error(t, err)

	var storageErr *models.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestFileRecordStore_LoadFailsWhenSiteDirIsAFile(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "blocked"), []byte("x"), 0o644))
	store := NewFileRecordStore(dataDir, nil, zerolog.Nop())

	_, err := store.Load("blocked")
	require.Error(t, err)
	assert.Equal(t, models.ErrorClassStorage, models.ClassifyError(err))
}

func TestFileRecordStore_ConcurrentCommitsSameSite(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load("site")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Commit("site", "same")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	record, err := store.Load("site")
	require.NoError(t, err)
	assert.Equal(t, "same", *record.NewContent)
	assert.Equal(t, "same", *record.OldContent)
}

func TestSiteMutexManager(t *testing.T) {
	manager := NewSiteMutexManager(zerolog.Nop())

	a := manager.GetMutex("a")
	assert.Same(t, a, manager.GetMutex("a"))
	assert.NotSame(t, a, manager.GetMutex("b"))

	manager.Prune([]string{"a"})
	assert.Equal(t, 1, manager.Len())
	assert.Same(t, a, manager.GetMutex("a"))
}
