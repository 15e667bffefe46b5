// Package archive packs a downloaded date folder into a compressed tarball.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mholt/archives"
)

// Extension is the suffix of every archive written by Packer.
const Extension = ".tar.gz"

// Packer creates tar.gz archives from directories on disk.
type Packer struct{}

// NewPacker creates a Packer.
func NewPacker() *Packer {
	return &Packer{}
}

// PathFor returns <targetFolder>/<date folder name>.tar.gz for dateFolder.
func PathFor(targetFolder, dateFolder string) string {
	return filepath.Join(targetFolder, filepath.Base(dateFolder)+Extension)
}

// Pack writes the contents of sourceDir to archivePath.
//
// Entries are stored relative to sourceDir. The archive is written next to
// archivePath first and renamed into place once complete.
func (p *Packer) Pack(ctx context.Context, sourceDir, archivePath string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}

	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	partial := archivePath + ".part"
	file, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", partial, err)
	}

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}

	if err := format.Archive(ctx, file, files); err != nil {
		_ = file.Close()
		_ = os.Remove(partial)
		return fmt.Errorf("failed to create archive: %w", err)
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(partial)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(partial)
		return err
	}

	return os.Rename(partial, archivePath)
}
