// Package config provides configuration management for epic-downloader.
//
// This package handles:
//   - Loading and saving settings from YAML files
//   - Default configuration values
//   - Validation of settings
//   - Resolving the API key from the environment (and an optional .env file)
//   - Conversion to the ArchiveConfig used to build image URLs
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// 4 concurrent downloads, 2 retries, 60s per-request timeout
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	// A missing file yields the defaults
//
// # API Key
//
// The key is read once at start-up and passed explicitly to the components
// that need it:
//
//	key, err := config.LoadAPIKey(settings.APIKeyEnv, "")
//	archive := settings.ToArchiveConfig(key)
package config
