// Package model defines the core data structures shared by the EPIC
// download pipeline.
//
// # Date
//
// Date is a validated calendar day in YYYY-MM-DD form. It is used as the
// API query parameter, as the destination folder name and as the source of
// the year/month/day archive path components:
//
//	date, err := model.ParseDate("2023-06-15")
//	fmt.Println(date.Year(), date.Month(), date.Day()) // 2023 06 15
//
// # Tasks
//
// A ManifestEntry is one image listed by the provider for a date. An
// ArchiveConfig turns it into a DownloadTask carrying the full archive URL:
//
//	cfg := &model.ArchiveConfig{BaseURL: "https://api.nasa.gov/EPIC/archive", APIKey: key}
//	task := model.NewDownloadTask(0, entry, cfg)
//	// task.URL = https://api.nasa.gov/EPIC/archive/natural/2023/06/15/png/<id>.png?api_key=<key>
//
// # Reports
//
// RunReport is the terminal state of a completed run: stored images and
// per-image failures in manifest order.
package model
