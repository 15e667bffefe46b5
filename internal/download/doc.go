// Package download provides the orchestration logic for fetching a day of
// EPIC images.
//
// # Manager
//
// The Manager coordinates the entire run:
//
//  1. Resolve the date (requested or most recent available)
//  2. Create <target>/<YYYY-MM-DD>
//  3. Fetch the image listing and derive download tasks
//  4. Download images concurrently
//  5. Write thumbnails, a slideshow playlist and an archive (optional)
//  6. Return a RunReport ordered by manifest position
//
// # Basic Usage
//
//	manager := download.NewManager(settings, apiKey, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	report, err := manager.Run(ctx, "/data/epic", "")
//	if err != nil {
//	    log.Fatal(err) // resolution, folder or manifest failure
//	}
//	if report.Partial() {
//	    // some images failed; the rest are on disk
//	}
//
// # Concurrency
//
// Images are downloaded by a fixed pool of MaxConcurrentDownloads workers
// reading from a task channel. Workers never return errors to the group,
// so a failed image never cancels its siblings.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// GetProgress returns byte and file counters for progress bars.
//
// # Retry Logic
//
// Failed requests are retried with exponential backoff by the HTTP client,
// configurable via settings.DownloadMaxRetries and settings.DownloadRetryCooldown.
package download
