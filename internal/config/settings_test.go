package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/handiism/epic-downloader/internal/errors"
	"github.com/handiism/epic-downloader/internal/model"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 4, s.MaxConcurrentDownloads)
	assert.Equal(t, 2, s.DownloadMaxRetries)
	assert.Equal(t, 60*time.Second, s.HTTPTimeout)
	assert.Equal(t, model.CollectionNatural, s.Collection)
	assert.Equal(t, "png", s.ImageType)
	assert.False(t, s.SkipExisting)
	assert.False(t, s.Thumbnails.Enabled)
	assert.False(t, s.ArchiveAfterRun)
	assert.False(t, s.Slideshow.Enabled)
	assert.Equal(t, "m3u", s.Slideshow.Format)
	require.NoError(t, s.Validate())
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
max_concurrent_downloads: 8
http_timeout: 15s
skip_existing: true
thumbnails:
  enabled: true
watch:
  interval: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, s.MaxConcurrentDownloads)
	assert.Equal(t, 15*time.Second, s.HTTPTimeout)
	assert.True(t, s.SkipExisting)
	assert.True(t, s.Thumbnails.Enabled)
	assert.Equal(t, 512, s.Thumbnails.MaxSize)
	assert.Equal(t, 30*time.Minute, s.Watch.Interval)
	assert.Equal(t, 2, s.DownloadMaxRetries)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"bad yaml", "max_concurrent_downloads: [", pkgerrors.ErrConfigParse},
		{"zero workers", "max_concurrent_downloads: 0", pkgerrors.ErrConfigValidation},
		{"too many workers", "max_concurrent_downloads: 64", pkgerrors.ErrConfigValidation},
		{"unknown image type", "image_type: gif", pkgerrors.ErrConfigValidation},
		{"bad url", "archive_base_url: not a url", pkgerrors.ErrConfigValidation},
		{"short watch interval", "watch:\n  interval: 10s", pkgerrors.ErrConfigValidation},
		{"unknown slideshow format", "slideshow:\n  format: wpl", pkgerrors.ErrConfigValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, strings.HasPrefix(err.Error(), tt.wantErr.Error()+": "), err.Error())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := DefaultSettings()
	s.ImageType = "jpg"
	s.DownloadRetryCooldown = 1.5
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestToArchiveConfig(t *testing.T) {
	s := DefaultSettings()
	s.ImageType = "thumbs"

	cfg := s.ToArchiveConfig("KEY")
	assert.Equal(t, s.ArchiveBaseURL, cfg.BaseURL)
	assert.Equal(t, model.ImageTypeThumbs, cfg.ImageType)
	assert.Equal(t, "KEY", cfg.APIKey)
}

func TestRetryCooldown(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 500*time.Millisecond, s.RetryCooldown(0))
	assert.Equal(t, time.Second, s.RetryCooldown(1))
	assert.Equal(t, 2*time.Second, s.RetryCooldown(2))
}

func TestLoadAPIKey(t *testing.T) {
	t.Run("from environment", func(t *testing.T) {
		t.Setenv("EPIC_TEST_KEY", " abc123 ")
		key, err := LoadAPIKey("EPIC_TEST_KEY", "")
		require.NoError(t, err)
		assert.Equal(t, "abc123", key)
	})

	t.Run("from dotenv file", func(t *testing.T) {
		t.Setenv("EPIC_TEST_DOTENV_KEY", "")
		os.Unsetenv("EPIC_TEST_DOTENV_KEY")

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("EPIC_TEST_DOTENV_KEY=from-file\n"), 0644))

		key, err := LoadAPIKey("EPIC_TEST_DOTENV_KEY", path)
		require.NoError(t, err)
		assert.Equal(t, "from-file", key)
		os.Unsetenv("EPIC_TEST_DOTENV_KEY")
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv("EPIC_TEST_MISSING_KEY", "")
		_, err := LoadAPIKey("EPIC_TEST_MISSING_KEY", "")
		assert.ErrorIs(t, err, pkgerrors.ErrMissingAPIKey)
	})

	t.Run("missing dotenv file", func(t *testing.T) {
		_, err := LoadAPIKey("EPIC_TEST_KEY", filepath.Join(t.TempDir(), "absent.env"))
		assert.Error(t, err)
	})
}
