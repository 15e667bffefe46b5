package epic

import (
	"context"
	"encoding/json"

	"github.com/handiism/epic-downloader/internal/epic/dto"
	pkgerrors "github.com/handiism/epic-downloader/internal/errors"
	"github.com/handiism/epic-downloader/internal/logger"
	"github.com/handiism/epic-downloader/internal/model"
)

// Fetcher retrieves the image listing for a date and derives download tasks.
type Fetcher struct {
	client  Getter
	api     APIConfig
	archive *model.ArchiveConfig
}

// NewFetcher creates a Fetcher.
func NewFetcher(client Getter, api APIConfig, archive *model.ArchiveConfig) *Fetcher {
	return &Fetcher{client: client, api: api, archive: archive}
}

// Fetch returns one DownloadTask per listed image, in API order.
//
// URLs are built from date, never from the records. Transport failures and
// non-2xx responses are classified as ErrManifestFetch. A payload that is
// not a JSON array yields no tasks and no error; records without an image
// name are skipped.
func (f *Fetcher) Fetch(ctx context.Context, date model.Date) ([]model.DownloadTask, error) {
	body, err := f.client.Get(ctx, f.api.DateURL(date))
	if err != nil {
		return nil, pkgerrors.Classify(pkgerrors.ErrManifestFetch, err)
	}

	entries := ParseManifest(body, date)

	tasks := make([]model.DownloadTask, 0, len(entries))
	for i, entry := range entries {
		tasks = append(tasks, model.NewDownloadTask(i, entry, f.archive))
	}

	logger.Debug("Fetched image manifest", logger.Fields{
		"date":   date.String(),
		"images": len(tasks),
	})

	return tasks, nil
}

// ParseManifest decodes a per-date listing into manifest entries.
//
// Each record is decoded on its own so a single malformed record is dropped
// without losing its siblings.
func ParseManifest(body []byte, date model.Date) []model.ManifestEntry {
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		logger.Warn("Image manifest is not a list, treating as empty", logger.Fields{
			"date":  date.String(),
			"error": err.Error(),
		})
		return nil
	}

	var entries []model.ManifestEntry
	for i, raw := range records {
		var record dto.JSONImage
		if err := json.Unmarshal(raw, &record); err != nil {
			logger.Warn("Skipping malformed manifest record", logger.Fields{
				"date":     date.String(),
				"position": i,
				"error":    err.Error(),
			})
			continue
		}

		entry, ok := record.ToManifestEntry(date)
		if !ok {
			logger.Warn("Skipping manifest record without image name", logger.Fields{
				"date":     date.String(),
				"position": i,
			})
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}
