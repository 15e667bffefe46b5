// Package slideshow writes playlists of the images stored for a date.
//
// Players such as mpv accept image playlists, which turns a day of EPIC
// captures into a rotating-Earth animation:
//
//	creator := slideshow.NewCreator(slideshow.FormatM3U, true, 1)
//	content := creator.Create("2023-06-15", slideshow.Frames(report, tasks))
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
package slideshow
