package model

import (
	"sort"
	"time"
)

// StoredImage is an image file written (or kept) on disk.
type StoredImage struct {
	Index      int    `json:"-"`
	Identifier string `json:"identifier"`
	Path       string `json:"path"`
	Size       int64  `json:"size"`

	// Skipped is true when an existing file was kept instead of downloaded.
	Skipped bool `json:"skipped,omitempty"`
}

// Failure is a per-image error recorded in a report.
type Failure struct {
	Index      int    `json:"-"`
	Identifier string `json:"identifier"`
	URL        string `json:"-"`
	Reason     string `json:"reason"`
}

// RunReport is the terminal state of a run that got past manifest fetching.
type RunReport struct {
	RunID        string        `json:"run_id"`
	Date         Date          `json:"date"`
	Folder       string        `json:"folder"`
	Total        int           `json:"total"`
	SuccessCount int           `json:"success_count"`
	Stored       []StoredImage `json:"stored"`
	Failures     []Failure     `json:"failures"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`

	// Thumbnails is the number of thumbnails written, if enabled.
	Thumbnails int `json:"thumbnails,omitempty"`

	// SlideshowPath is the playlist written into the folder, if enabled.
	SlideshowPath string `json:"slideshow_path,omitempty"`

	// ArchivePath is the tarball written after the run, if enabled.
	ArchivePath string `json:"archive_path,omitempty"`
}

// Partial reports whether at least one image failed.
func (r *RunReport) Partial() bool {
	return len(r.Failures) > 0
}

// SkippedCount returns how many stored images were kept from a previous run.
func (r *RunReport) SkippedCount() int {
	n := 0
	for _, s := range r.Stored {
		if s.Skipped {
			n++
		}
	}
	return n
}

// Sort orders stored images and failures by manifest position.
func (r *RunReport) Sort() {
	sort.SliceStable(r.Stored, func(i, j int) bool { return r.Stored[i].Index < r.Stored[j].Index })
	sort.SliceStable(r.Failures, func(i, j int) bool { return r.Failures[i].Index < r.Failures[j].Index })
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
