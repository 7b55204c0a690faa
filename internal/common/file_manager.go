package common

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const (
	DefaultDirPerm  fs.FileMode = 0755
	DefaultFilePerm fs.FileMode = 0644
)

// FileReadOptions configures file reading behavior
type FileReadOptions struct {
	MaxSize int64 // Maximum file size to read (0 = no limit)
}

// FileWriteOptions configures file writing behavior
type FileWriteOptions struct {
	CreateDirs  bool        // Whether to create parent directories
	Permissions fs.FileMode // File permissions
	Atomic      bool        // Write to a temp file in the same directory, then rename over the target
}

// DefaultFileWriteOptions returns default file writing options
func DefaultFileWriteOptions() FileWriteOptions {
	return FileWriteOptions{
		CreateDirs:  true,
		Permissions: DefaultFilePerm,
		Atomic:      true,
	}
}

// FileManager provides file operations with standardized error handling and logging
type FileManager struct {
	logger zerolog.Logger
}

// NewFileManager creates a new FileManager instance
func NewFileManager(logger zerolog.Logger) *FileManager {
	return &FileManager{
		logger: logger.With().Str("component", "FileManager").Logger(),
	}
}

// FileExists checks if a file or directory exists
func (fm *FileManager) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// DirExists checks if path exists and is a directory
func (fm *FileManager) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// EnsureDirectory creates a directory and its parents if they don't exist
func (fm *FileManager) EnsureDirectory(path string, perm fs.FileMode) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return NewValidationError("path", path, "exists but is not a directory")
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return WrapError(err, "failed to check directory: "+path)
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return WrapError(err, "failed to create directory: "+path)
	}

	fm.logger.Debug().Str("path", path).Msg("Created directory")
	return nil
}

// ReadFile reads a whole file, refusing files larger than opts.MaxSize.
func (fm *FileManager) ReadFile(path string, opts FileReadOptions) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, WrapError(ErrNotFound, fmt.Sprintf("file not found: %s", path))
		}
		return nil, WrapError(err, fmt.Sprintf("failed to open file: %s", path))
	}
	defer func() {
		if err := file.Close(); err != nil {
			fm.logger.Error().Err(err).Str("path", path).Msg("Failed to close file")
		}
	}()

	var reader io.Reader = file
	if opts.MaxSize > 0 {
		reader = io.LimitReader(file, opts.MaxSize+1)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, WrapError(err, fmt.Sprintf("failed to read file: %s", path))
	}
	if opts.MaxSize > 0 && int64(len(content)) > opts.MaxSize {
		return nil, NewValidationError("size", len(content), fmt.Sprintf("file %s exceeds maximum size of %d bytes", path, opts.MaxSize))
	}
	return content, nil
}

// ReadFileIfExists is ReadFile that reports a missing file as (nil, false, nil).
func (fm *FileManager) ReadFileIfExists(path string, opts FileReadOptions) ([]byte, bool, error) {
	content, err := fm.ReadFile(path, opts)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return content, true, nil
}

// WriteFile writes data to a file with the given options
func (fm *FileManager) WriteFile(path string, data []byte, opts FileWriteOptions) error {
	perm := opts.Permissions
	if perm == 0 {
		perm = DefaultFilePerm
	}

	if opts.CreateDirs {
		if err := fm.EnsureDirectory(filepath.Dir(path), DefaultDirPerm); err != nil {
			return WrapError(err, "failed to create parent directories for: "+path)
		}
	}

	if !opts.Atomic {
		if err := os.WriteFile(path, data, perm); err != nil {
			return WrapError(err, "failed to write file: "+path)
		}
		return nil
	}
	return fm.writeAtomic(path, data, perm)
}

func (fm *FileManager) writeAtomic(path string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return WrapError(err, "failed to create temp file for: "+path)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			fm.logger.Warn().Err(rmErr).Str("path", tmpName).Msg("Failed to remove temp file")
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return WrapError(err, "failed to write temp file for: "+path)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return WrapError(err, "failed to sync temp file for: "+path)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return WrapError(err, "failed to close temp file for: "+path)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return WrapError(err, "failed to set permissions for: "+path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return WrapError(err, "failed to replace file: "+path)
	}
	return nil
}

// AppendLine appends line plus a newline to path, creating the file if needed.
func (fm *FileManager) AppendLine(path, line string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DefaultFilePerm)
	if err != nil {
		return WrapError(err, "failed to open file for append: "+path)
	}

	if _, err := io.WriteString(file, line+"\n"); err != nil {
		_ = file.Close()
		return WrapError(err, "failed to append to file: "+path)
	}
	return file.Close()
}

// UniquePath returns base+ext if unused, otherwise base-1+ext, base-2+ext and so on.
func (fm *FileManager) UniquePath(base, ext string) string {
	candidate := base + ext
	for n := 1; fm.FileExists(candidate); n++ {
		candidate = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
	return candidate
}
