package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// ThumbnailDir is the sub-folder thumbnails are written into.
const ThumbnailDir = "thumbs"

// ImageService derives thumbnails from downloaded EPIC images.
//
// Example usage:
//
//	svc := NewImageService()
//	thumb, err := svc.Thumbnail(ctx, pngData, 512)
type ImageService struct {
	quality int
}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{quality: 85}
}

// Thumbnail scales an image so that its longer side is at most maxSize
// pixels and encodes it as JPEG.
//
// The aspect ratio is preserved and images that already fit are only
// re-encoded. The Catmull-Rom kernel is used for scaling.
func (s *ImageService) Thumbnail(ctx context.Context, data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxSize)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ThumbnailPath returns <dir>/thumbs/<base name>.jpg for the image at imagePath.
func ThumbnailPath(imagePath string) string {
	dir, name := filepath.Split(imagePath)
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	return filepath.Join(dir, ThumbnailDir, name)
}

func fitWithin(width, height, maxSize int) (int, int) {
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return width, height
	}

	if width >= height {
		h := int(float64(height) * float64(maxSize) / float64(width))
		if h < 1 {
			h = 1
		}
		return maxSize, h
	}

	w := int(float64(width) * float64(maxSize) / float64(height))
	if w < 1 {
		w = 1
	}
	return w, maxSize
}
