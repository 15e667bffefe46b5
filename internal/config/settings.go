package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	pkgerrors "github.com/handiism/epic-downloader/internal/errors"
	"github.com/handiism/epic-downloader/internal/model"
)

// DefaultAPIKeyEnv is the environment variable holding the API key.
const DefaultAPIKeyEnv = "NASA_EPIC_API_KEY"

var validate = validator.New()

// Settings holds all configuration options.
type Settings struct {
	// Provider endpoints
	APIBaseURL     string `yaml:"api_base_url" validate:"required,url"`
	ArchiveBaseURL string `yaml:"archive_base_url" validate:"required,url"`
	Collection     string `yaml:"collection" validate:"required,oneof=natural enhanced aerosol cloud"`
	ImageType      string `yaml:"image_type" validate:"required,oneof=png jpg thumbs"`
	APIKeyEnv      string `yaml:"api_key_env" validate:"required"`
	UserAgent      string `yaml:"user_agent" validate:"required"`

	// Download settings
	MaxConcurrentDownloads int           `yaml:"max_concurrent_downloads" validate:"min=1,max=16"`
	DownloadMaxRetries     int           `yaml:"download_max_retries" validate:"min=0,max=10"`
	DownloadRetryCooldown  float64       `yaml:"download_retry_cooldown" validate:"gte=0"`
	DownloadRetryExponent  float64       `yaml:"download_retry_exponent" validate:"gte=1"`
	HTTPTimeout            time.Duration `yaml:"http_timeout" validate:"gt=0"`
	BreakerThreshold       uint32        `yaml:"breaker_threshold" validate:"min=1"`
	SkipExisting           bool          `yaml:"skip_existing"`

	// Post-processing
	Thumbnails      ThumbnailSettings `yaml:"thumbnails"`
	Slideshow       SlideshowSettings `yaml:"slideshow"`
	ArchiveAfterRun bool              `yaml:"archive_after_run"`

	// Watch mode
	Watch WatchSettings `yaml:"watch"`

	// Logging
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`
}

// ThumbnailSettings controls the optional thumbnail pass.
type ThumbnailSettings struct {
	Enabled bool `yaml:"enabled"`
	MaxSize int  `yaml:"max_size" validate:"min=16,max=4096"`
}

// SlideshowSettings controls the playlist written next to the images.
type SlideshowSettings struct {
	Enabled      bool   `yaml:"enabled"`
	Format       string `yaml:"format" validate:"oneof=m3u pls"`
	FrameSeconds int    `yaml:"frame_seconds" validate:"min=1,max=60"`
}

// WatchSettings controls the periodic watch mode.
type WatchSettings struct {
	Interval   time.Duration `yaml:"interval" validate:"min=1m"`
	StatusAddr string        `yaml:"status_addr"`
	History    int           `yaml:"history" validate:"min=1"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		APIBaseURL:     "https://epic.gsfc.nasa.gov/api",
		ArchiveBaseURL: "https://api.nasa.gov/EPIC/archive",
		Collection:     model.CollectionNatural,
		ImageType:      string(model.ImageTypePNG),
		APIKeyEnv:      DefaultAPIKeyEnv,
		UserAgent:      "epic-downloader",

		MaxConcurrentDownloads: 4,
		DownloadMaxRetries:     2,
		DownloadRetryCooldown:  0.5,
		DownloadRetryExponent:  2.0,
		HTTPTimeout:            60 * time.Second,
		BreakerThreshold:       10,
		SkipExisting:           false,

		Thumbnails: ThumbnailSettings{
			Enabled: false,
			MaxSize: 512,
		},
		Slideshow: SlideshowSettings{
			Enabled:      false,
			Format:       "m3u",
			FrameSeconds: 1,
		},
		ArchiveAfterRun: false,

		Watch: WatchSettings{
			Interval:   6 * time.Hour,
			StatusAddr: "",
			History:    50,
		},

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads settings from a YAML file.
//
// A missing file yields the defaults; keys absent from the file keep their
// default values.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to read config file %s", path)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, pkgerrors.Classify(pkgerrors.ErrConfigParse, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a YAML file.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks every field against its constraints.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return pkgerrors.Classify(pkgerrors.ErrConfigValidation, err)
	}
	return nil
}

// ToArchiveConfig converts settings to the URL-building ArchiveConfig.
func (s *Settings) ToArchiveConfig(apiKey string) *model.ArchiveConfig {
	return &model.ArchiveConfig{
		BaseURL:    s.ArchiveBaseURL,
		Collection: s.Collection,
		ImageType:  model.ImageType(s.ImageType),
		APIKey:     apiKey,
	}
}

// RetryCooldown returns the wait before retry number tries (0-based).
func (s *Settings) RetryCooldown(tries int) time.Duration {
	cooldown := s.DownloadRetryCooldown
	for i := 0; i < tries; i++ {
		cooldown *= s.DownloadRetryExponent
	}
	return time.Duration(cooldown * float64(time.Second))
}

// LoadAPIKey returns the API key from the environment variable envName.
//
// If dotenvPath is set, that file is loaded first; otherwise a .env file in
// the working directory is loaded when present. Variables already set in the
// environment take precedence over the file.
func LoadAPIKey(envName, dotenvPath string) (string, error) {
	if envName == "" {
		envName = DefaultAPIKeyEnv
	}

	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil {
			return "", pkgerrors.Wrapf(err, "failed to load %s", dotenvPath)
		}
	} else {
		// A missing .env is the normal case.
		_ = godotenv.Load()
	}

	key := strings.TrimSpace(os.Getenv(envName))
	if key == "" {
		return "", pkgerrors.Wrapf(pkgerrors.ErrMissingAPIKey, "set %s", envName)
	}
	return key, nil
}
