// Package errors defines the error taxonomy of the EPIC download pipeline.
//
// Pipeline-fatal errors abort a run before any partial output is produced:
//   - ErrResolution: no date could be determined
//   - ErrFolderCreation: the destination folder could not be created
//   - ErrManifestFetch: the per-date image listing could not be retrieved
//
// ErrDownload marks a per-image failure. It is recorded in the run report and
// never stops sibling downloads.
//
// Use errors.Is from the standard library to classify an error:
//
//	if errors.Is(err, pkgerrors.ErrResolution) {
//	    // no date, nothing was written
//	}
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrResolution is returned when no date can be determined for a run.
	ErrResolution = fmt.Errorf("no available date could be determined")

	// ErrFolderCreation is returned when the destination folder cannot be created.
	ErrFolderCreation = fmt.Errorf("could not create destination folder")

	// ErrManifestFetch is returned when the per-date image listing cannot be retrieved.
	ErrManifestFetch = fmt.Errorf("could not fetch image manifest")

	// ErrDownload is matched by every DownloadError.
	ErrDownload = fmt.Errorf("download failed")

	// ErrInvalidDate is returned for dates that are not YYYY-MM-DD calendar dates.
	ErrInvalidDate = fmt.Errorf("invalid date")

	// ErrUnexpectedStatus is returned for non-2xx HTTP responses.
	ErrUnexpectedStatus = fmt.Errorf("unexpected status code")

	// ErrCircuitOpen is returned when a host's circuit breaker rejects a request.
	ErrCircuitOpen = fmt.Errorf("circuit breaker open")

	// ErrStorage marks a local write failure. Retrying the request cannot fix it.
	ErrStorage = fmt.Errorf("storage failure")

	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = fmt.Errorf("api key is not configured")

	// ErrConfigValidation is returned when settings fail validation.
	ErrConfigValidation = fmt.Errorf("invalid configuration")

	// ErrConfigParse is returned when a settings file cannot be parsed.
	ErrConfigParse = fmt.Errorf("failed to parse config")
)

// DownloadError describes the failure of a single image download.
type DownloadError struct {
	Identifier string
	URL        string
	Err        error
}

// NewDownloadError wraps err as the failure of the image identified by id.
func NewDownloadError(id, url string, err error) *DownloadError {
	return &DownloadError{Identifier: id, URL: url, Err: err}
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.Identifier, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDownload.
func (e *DownloadError) Is(target error) bool {
	return target == ErrDownload
}

// Wrap wraps an error with additional context.
// If err is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Classify wraps cause under the sentinel kind so that both match errors.Is.
func Classify(kind, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// IsFatal reports whether err aborts a whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrResolution) ||
		errors.Is(err, ErrFolderCreation) ||
		errors.Is(err, ErrManifestFetch)
}
