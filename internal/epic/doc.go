// Package epic talks to the EPIC (Earth Polychromatic Imaging Camera) API.
//
// The package covers the first two stages of a run:
//
//  1. Resolving the date to download, either the one requested or the most
//     recent date the API reports as available
//  2. Fetching the image listing for that date and turning every record into
//     a DownloadTask with its archive URL
//
// # Date Resolution
//
//	resolver := epic.NewResolver(client, epic.APIConfig{
//	    BaseURL:    "https://epic.gsfc.nasa.gov/api",
//	    Collection: "natural",
//	    APIKey:     key,
//	})
//	date, err := resolver.Resolve(ctx, "") // latest available date
//
// An explicit date is validated and returned without any request.
//
// # Manifest Fetching
//
//	fetcher := epic.NewFetcher(client, apiCfg, settings.ToArchiveConfig(key))
//	tasks, err := fetcher.Fetch(ctx, date)
//	for _, task := range tasks {
//	    fmt.Println(task.Entry.Identifier)
//	}
//
// A listing that cannot be decoded yields no tasks rather than an error;
// only transport failures and non-2xx responses abort the run.
package epic
