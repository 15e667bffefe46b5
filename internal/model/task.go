package model

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// ImageType selects the archive rendition of an image.
type ImageType string

const (
	// ImageTypePNG is the full-resolution PNG rendition.
	ImageTypePNG ImageType = "png"

	// ImageTypeJPG is the compressed JPEG rendition.
	ImageTypeJPG ImageType = "jpg"

	// ImageTypeThumbs is the small JPEG thumbnail rendition.
	ImageTypeThumbs ImageType = "thumbs"
)

// Extension returns the file extension served for the image type, without the dot.
func (it ImageType) Extension() string {
	switch it {
	case ImageTypeJPG, ImageTypeThumbs:
		return "jpg"
	default:
		return "png"
	}
}

// CollectionNatural is the natural-color image collection.
const CollectionNatural = "natural"

// ManifestEntry is one image listed by the provider for a date.
type ManifestEntry struct {
	// Identifier is the opaque image name, e.g. "epic_1b_20230615003633".
	Identifier string

	// Date is the resolved date the entry was listed under.
	Date Date

	// Caption is the provider's description, if any.
	Caption string

	// Taken is the acquisition timestamp reported by the provider.
	// It is informational only and never used to build URLs.
	Taken time.Time
}

// ArchiveConfig holds everything needed to turn a ManifestEntry into a URL.
type ArchiveConfig struct {
	// BaseURL is the archive root, e.g. "https://api.nasa.gov/EPIC/archive".
	BaseURL string

	// Collection is the archive collection, "natural" by default.
	Collection string

	// ImageType is the rendition to download, "png" by default.
	ImageType ImageType

	// APIKey is appended to every URL as the api_key query parameter.
	APIKey string
}

// ImageURL builds
// <BaseURL>/<collection>/<yyyy>/<mm>/<dd>/<type>/<identifier>.<ext>?api_key=<key>.
//
// The year, month and day always come from date.
func (c *ArchiveConfig) ImageURL(date Date, identifier string) string {
	collection := c.Collection
	if collection == "" {
		collection = CollectionNatural
	}
	imageType := c.ImageType
	if imageType == "" {
		imageType = ImageTypePNG
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(c.BaseURL, "/"))
	for _, segment := range []string{collection, date.Year(), date.Month(), date.Day(), string(imageType)} {
		b.WriteString("/")
		b.WriteString(segment)
	}
	b.WriteString("/")
	b.WriteString(url.PathEscape(identifier))
	b.WriteString(".")
	b.WriteString(imageType.Extension())

	values := url.Values{}
	values.Set("api_key", c.APIKey)
	b.WriteString("?")
	b.WriteString(values.Encode())

	return b.String()
}

// DownloadTask is a fully resolved source URL plus destination folder.
type DownloadTask struct {
	// Index is the position of the entry in the manifest.
	Index int

	// Entry is the manifest entry the task was derived from.
	Entry ManifestEntry

	// URL is the archive URL, including the api_key query parameter.
	URL string

	// Destination is the folder the image is written into.
	// It is set by the orchestrator once the folder exists.
	Destination string
}

// NewDownloadTask derives the task for entry at manifest position index.
func NewDownloadTask(index int, entry ManifestEntry, cfg *ArchiveConfig) DownloadTask {
	return DownloadTask{
		Index: index,
		Entry: entry,
		URL:   cfg.ImageURL(entry.Date, entry.Identifier),
	}
}

// WithDestination returns a copy of t writing into dir.
func (t DownloadTask) WithDestination(dir string) DownloadTask {
	t.Destination = dir
	return t
}

// FileName returns the last path segment of the URL, without query string.
// It returns an empty string if the URL has no usable segment.
func (t DownloadTask) FileName() string {
	u, err := url.Parse(t.URL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
