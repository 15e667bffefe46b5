// Package http provides the resilient HTTP client used for EPIC API and
// archive requests.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling
//   - Retries with exponential backoff (transport errors, 5xx, 429)
//   - A circuit breaker per host, so a dead archive fails fast
//   - Streaming bodies to a consumer with progress tracking
//
// # Basic Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	// Fetch a JSON document
//	data, err := client.Get(ctx, apiURL)
//
//	// Stream an image
//	err = client.Stream(ctx, imageURL, func(body io.Reader, size int64) error {
//	    _, err := store.WriteFileAtomic(ctx, path, body)
//	    return err
//	})
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(chunk, written int64) { /* update UI */ },
//	}
//
// Use Redact before logging a URL; archive URLs carry the API key in their
// query string.
package http
