package ioutils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

const (
	dirPerm  = 0755
	filePerm = 0644

	tempPattern = ".epic-*.part"
)

var (
	invalidChars   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots   = regexp.MustCompile(`\.+$`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Storage writes downloaded files to an afero file system.
//
// Storage is safe for concurrent use as long as callers write distinct paths.
type Storage struct {
	fs afero.Fs
}

// NewStorage creates a Storage on top of fs.
// A nil fs selects the operating system file system.
func NewStorage(fs afero.Fs) *Storage {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Storage{fs: fs}
}

// Fs returns the underlying file system.
func (s *Storage) Fs() afero.Fs {
	return s.fs
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned. If path exists
// but is not a directory, an error is returned.
func (s *Storage) EnsureDir(path string) error {
	info, err := s.fs.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return s.fs.MkdirAll(path, dirPerm)
}

// Stat returns the size of the regular file at path and whether it exists.
func (s *Storage) Stat(path string) (int64, bool, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if info.IsDir() {
		return 0, false, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), true, nil
}

// ReadFile reads the whole file at path.
func (s *Storage) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// WriteFileAtomic streams r into path.
//
// The content is first written to a temporary file in the same directory
// and then renamed over path, so an existing file is replaced in one step.
// On any error the temporary file is removed and path is left untouched.
// It returns the number of bytes written.
func (s *Storage) WriteFileAtomic(ctx context.Context, path string, r io.Reader) (int64, error) {
	tmp, err := afero.TempFile(s.fs, filepath.Dir(path), tempPattern)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		s.fs.Remove(tmpName)
	}

	n, err := io.Copy(tmp, &contextReader{ctx: ctx, r: r})
	if err != nil {
		cleanup()
		return n, fmt.Errorf("write %s: %w", path, err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return n, fmt.Errorf("sync %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return n, fmt.Errorf("close %s: %w", path, err)
	}

	if err := s.fs.Chmod(tmpName, filePerm); err != nil {
		s.fs.Remove(tmpName)
		return n, fmt.Errorf("chmod %s: %w", path, err)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return n, fmt.Errorf("rename into %s: %w", path, err)
	}

	return n, nil
}

// WriteFile writes data to path atomically.
func (s *Storage) WriteFile(ctx context.Context, path string, data []byte) error {
	_, err := s.WriteFileAtomic(ctx, path, bytes.NewReader(data))
	return err
}

// RemoveTempFiles deletes leftover temporary files in dir.
// It returns how many files were removed.
func (s *Storage) RemoveTempFiles(dir string) (int, error) {
	matches, err := afero.Glob(s.fs, filepath.Join(dir, tempPattern))
	if err != nil {
		return 0, err
	}
	for _, m := range matches {
		if err := s.fs.Remove(m); err != nil {
			return 0, err
		}
	}
	return len(matches), nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("epic:1b/2023")  // Returns "epic_1b_2023"
//	SanitizeFileName("image...")      // Returns "image"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = whitespaceRuns.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}
