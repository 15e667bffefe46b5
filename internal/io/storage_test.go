package ioutils

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_Idempotent(t *testing.T) {
	store := NewStorage(afero.NewMemMapFs())
	dir := "/data/epic/2023-06-15"

	require.NoError(t, store.EnsureDir(dir))
	require.NoError(t, store.EnsureDir(dir))

	info, err := store.Fs().Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/epic", []byte("x"), 0644))

	store := NewStorage(fs)
	assert.Error(t, store.EnsureDir("/data/epic"))
}

func TestWriteFileAtomic_Overwrites(t *testing.T) {
	store := NewStorage(afero.NewMemMapFs())
	ctx := context.Background()
	path := "/out/a.png"
	require.NoError(t, store.EnsureDir("/out"))

	n, err := store.WriteFileAtomic(ctx, path, bytes.NewReader([]byte("first version")))
	require.NoError(t, err)
	assert.Equal(t, int64(13), n)

	require.NoError(t, store.WriteFile(ctx, path, []byte("second")))

	data, err := store.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	size, ok, err := store.Stat(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(6), size)

	leftovers, err := store.RemoveTempFiles("/out")
	require.NoError(t, err)
	assert.Zero(t, leftovers)
}

type failingReader struct{ n int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n > 0 {
		r.n = 0
		return copy(p, "partial"), nil
	}
	return 0, errors.New("connection reset")
}

func TestWriteFileAtomic_FailureKeepsPreviousContent(t *testing.T) {
	store := NewStorage(afero.NewMemMapFs())
	ctx := context.Background()
	path := "/out/a.png"
	require.NoError(t, store.EnsureDir("/out"))
	require.NoError(t, store.WriteFile(ctx, path, []byte("good")))

	_, err := store.WriteFileAtomic(ctx, path, &failingReader{n: 1})
	require.Error(t, err)

	data, err := store.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "good", string(data))

	matches, err := afero.Glob(store.Fs(), filepath.Join("/out", tempPattern))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWriteFileAtomic_Cancelled(t *testing.T) {
	store := NewStorage(afero.NewMemMapFs())
	require.NoError(t, store.EnsureDir("/out"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.WriteFileAtomic(ctx, "/out/a.png", bytes.NewReader([]byte("data")))
	assert.ErrorIs(t, err, context.Canceled)

	_, ok, err := store.Stat("/out/a.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStat_Missing(t *testing.T) {
	store := NewStorage(afero.NewMemMapFs())

	_, ok, err := store.Stat("/nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"epic_1b_20230615003633", "epic_1b_20230615003633"},
		{"epic:1b/2023", "epic_1b_2023"},
		{"image...", "image"},
		{"a  b\tc ", "a b_c"},
		{"two   spaces ", "two spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.input))
		})
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnail(t *testing.T) {
	svc := NewImageService()

	tests := []struct {
		name          string
		width, height int
		maxSize       int
		wantW, wantH  int
	}{
		{"landscape", 200, 100, 50, 50, 25},
		{"portrait", 100, 200, 50, 25, 50},
		{"already small", 40, 30, 50, 40, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.Thumbnail(context.Background(), encodePNG(t, tt.width, tt.height), tt.maxSize)
			require.NoError(t, err)

			cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
		})
	}
}

func TestThumbnail_InvalidImage(t *testing.T) {
	_, err := NewImageService().Thumbnail(context.Background(), []byte("not an image"), 50)
	assert.Error(t, err)
}

func TestThumbnailPath(t *testing.T) {
	got := ThumbnailPath(filepath.Join("/data", "2023-06-15", "epic_1b.png"))
	assert.Equal(t, filepath.Join("/data", "2023-06-15", "thumbs", "epic_1b.jpg"), got)
}

var _ io.Reader = (*contextReader)(nil)
