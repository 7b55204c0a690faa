package notifier

import (
	"path/filepath"
	"time"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/models"

	"github.com/rs/zerolog"
)

// UnsentStore keeps messages that could not be delivered as text files for manual recovery.
// Each file holds "address\n\nsubject\n\nbody" and is named after the time it was saved.
type UnsentStore struct {
	dir         string
	fileManager *common.FileManager
	now         func() time.Time
	logger      zerolog.Logger
}

// NewUnsentStore creates an UnsentStore writing into dir.
func NewUnsentStore(dir string, logger zerolog.Logger) *UnsentStore {
	return &UnsentStore{
		dir:         dir,
		fileManager: common.NewFileManager(logger),
		now:         time.Now,
		logger:      logger.With().Str("component", "UnsentStore").Logger(),
	}
}

// Dir returns the directory messages are saved in.
func (s *UnsentStore) Dir() string {
	return s.dir
}

// Save writes msg to a new file and returns its path.
func (s *UnsentStore) Save(msg models.Message) (string, error) {
	if err := s.fileManager.EnsureDirectory(s.dir, common.DefaultDirPerm); err != nil {
		return "", common.WrapError(err, "failed to prepare unsent message directory")
	}

	path := s.fileManager.UniquePath(filepath.Join(s.dir, common.FormatFileStamp(s.now())), ".txt")
	content := msg.Address + "\n\n" + msg.Subject + "\n\n" + msg.Body

	if err := s.fileManager.WriteFile(path, []byte(content), common.DefaultFileWriteOptions()); err != nil {
		return "", common.WrapError(err, "failed to save unsent message")
	}

	s.logger.Info().Str("path", path).Str("to", msg.Address).Msg("Unsent message saved")
	return path, nil
}
