package datastore

import (
	"path/filepath"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/rs/zerolog"
)

// File names inside a site directory.
const (
	OldFileName      = "old_file"
	NewFileName      = "new_file"
	SnapshotsDirName = "snapshots"
)

// FileRecordStore keeps the two most recent fetches of each site as plain files:
//
//	<data dir>/<site key>/old_file
//	<data dir>/<site key>/new_file
//	<data dir>/<site key>/snapshots/
type FileRecordStore struct {
	dataDir     string
	fileManager *common.FileManager
	mutexes     *SiteMutexManager
	logger      zerolog.Logger
}

// NewFileRecordStore creates a store rooted at dataDir. The directory is created lazily.
func NewFileRecordStore(dataDir string, mutexes *SiteMutexManager, logger zerolog.Logger) *FileRecordStore {
	if mutexes == nil {
		mutexes = NewSiteMutexManager(logger)
	}
	return &FileRecordStore{
		dataDir:     dataDir,
		fileManager: common.NewFileManager(logger),
		mutexes:     mutexes,
		logger:      logger.With().Str("component", "FileRecordStore").Logger(),
	}
}

// DataDir returns the root directory of the store.
func (s *FileRecordStore) DataDir() string {
	return s.dataDir
}

// SiteDir returns the directory holding siteKey's files.
func (s *FileRecordStore) SiteDir(siteKey string) string {
	return filepath.Join(s.dataDir, siteKey)
}

// Load returns the record for siteKey, creating the site directory and its
// snapshots subdirectory when missing. A site that was never committed comes
// back with both slots nil.
func (s *FileRecordStore) Load(siteKey string) (models.SiteRecord, error) {
	siteDir := s.SiteDir(siteKey)
	for _, dir := range []string{siteDir, filepath.Join(siteDir, SnapshotsDirName)} {
		if err := s.fileManager.EnsureDirectory(dir, common.DefaultDirPerm); err != nil {
			return models.SiteRecord{}, &models.StorageError{Op: "create directory", Path: dir, Err: err}
		}
	}

	mutex := s.mutexes.GetMutex(siteKey)
	mutex.Lock()
	defer mutex.Unlock()

	oldContent, err := s.readSlot(filepath.Join(siteDir, OldFileName))
	if err != nil {
		return models.SiteRecord{}, err
	}
	newContent, err := s.readSlot(filepath.Join(siteDir, NewFileName))
	if err != nil {
		return models.SiteRecord{}, err
	}

	return models.SiteRecord{
		OldContent:             oldContent,
		NewContent:             newContent,
		HasCompletedFirstCheck: newContent != nil,
	}, nil
}

// Commit rotates new_file into old_file and writes content as the new new_file.
// Both writes replace their target atomically, so a crash leaves either the
// previous or the next state of each slot.
func (s *FileRecordStore) Commit(siteKey, content string) (models.CommitResult, error) {
	siteDir := s.SiteDir(siteKey)
	newPath := filepath.Join(siteDir, NewFileName)
	oldPath := filepath.Join(siteDir, OldFileName)

	mutex := s.mutexes.GetMutex(siteKey)
	mutex.Lock()
	defer mutex.Unlock()

	previous, err := s.readSlot(newPath)
	if err != nil {
		return models.CommitResult{}, err
	}

	writeOpts := common.DefaultFileWriteOptions()
	writeOpts.CreateDirs = false

	if previous != nil {
		if err := s.fileManager.WriteFile(oldPath, []byte(*previous), writeOpts); err != nil {
			return models.CommitResult{}, &models.StorageError{Op: "write", Path: oldPath, Err: err}
		}
	}

	if err := s.fileManager.WriteFile(newPath, []byte(content), writeOpts); err != nil {
		return models.CommitResult{}, &models.StorageError{Op: "write", Path: newPath, Err: err}
	}

	s.logger.Debug().
		Str("site_key", siteKey).
		Bool("first_check", previous == nil).
		Int("size", len(content)).
		Msg("Committed site record")

	return models.CommitResult{
		PreviousContent: previous,
		WasFirstCheck:   previous == nil,
	}, nil
}

func (s *FileRecordStore) readSlot(path string) (*string, error) {
	data, found, err := s.fileManager.ReadFileIfExists(path, common.FileReadOptions{})
	if err != nil {
		return nil, &models.StorageError{Op: "read", Path: path, Err: err}
	}
	if !found {
		return nil, nil
	}
	content := string(data)
	return &content, nil
}
