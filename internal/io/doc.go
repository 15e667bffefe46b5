// Package ioutils provides file system and image processing utilities.
//
// This package contains:
//   - Storage, an afero-backed writer used for every file the downloader produces
//   - Filename sanitization for cross-platform compatibility
//   - Image thumbnail generation
//
// # Storage
//
// Storage wraps an afero.Fs so tests can run against an in-memory file system:
//
//	store := ioutils.NewStorage(afero.NewMemMapFs())
//
//	// Ensure directory exists; calling it again is a no-op
//	err := store.EnsureDir("/data/epic/2023-06-15")
//
//	// Write a file through a temporary sibling and rename it into place
//	n, err := store.WriteFileAtomic(ctx, "/data/epic/2023-06-15/a.png", body)
//
// A reader never observes a half-written image: either the previous content
// or the new content is present at the final path.
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("epic:1b/2023") // Returns "epic_1b_2023"
//
// # Image Processing
//
//	svc := ioutils.NewImageService()
//	thumb, _ := svc.Thumbnail(ctx, pngData, 512)
package ioutils
