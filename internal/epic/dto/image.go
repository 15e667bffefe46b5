package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/handiism/epic-downloader/internal/model"
)

// EPICTime is a custom time type that handles the API's timestamp format.
//
// Unparseable values decode to the zero time instead of failing, so one
// odd record never spoils a whole listing.
type EPICTime struct {
	time.Time
}

// UnmarshalJSON parses the API's date format: "2023-06-15 00:13:03"
func (et *EPICTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		et.Time = time.Time{}
		return nil
	}

	formats := []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			et.Time = t
			return nil
		}
	}

	et.Time = time.Time{}
	return nil
}

// JSONImage is one record of the per-date image listing.
type JSONImage struct {
	Identifier string   `json:"identifier"`
	Image      string   `json:"image"`
	Caption    string   `json:"caption"`
	Version    string   `json:"version"`
	Date       EPICTime `json:"date"`
}

// ToManifestEntry converts the record into a ManifestEntry for date.
//
// The image name is the identifier used in archive URLs. It returns false
// if the record carries no image name.
func (ji *JSONImage) ToManifestEntry(date model.Date) (model.ManifestEntry, bool) {
	name := strings.TrimSpace(ji.Image)
	if name == "" {
		return model.ManifestEntry{}, false
	}

	return model.ManifestEntry{
		Identifier: name,
		Date:       date,
		Caption:    ji.Caption,
		Taken:      ji.Date.Time,
	}, true
}
