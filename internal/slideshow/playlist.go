package slideshow

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/handiism/epic-downloader/internal/model"
)

// Format represents supported playlist file formats.
type Format string

const (
	// FormatM3U creates .m3u files. Extended mode adds #EXTINF lines
	// carrying the frame duration and caption.
	FormatM3U Format = "m3u"

	// FormatPLS creates INI-style .pls files.
	FormatPLS Format = "pls"
)

// Frame is one image of the slideshow.
type Frame struct {
	Path    string
	Caption string
}

// Creator renders the images of a date as a playlist that image-capable
// players show in capture order.
type Creator struct {
	format       Format
	extended     bool
	frameSeconds int
}

// NewCreator creates a Creator. frameSeconds below one is treated as one.
func NewCreator(format Format, extended bool, frameSeconds int) *Creator {
	if frameSeconds < 1 {
		frameSeconds = 1
	}
	return &Creator{
		format:       format,
		extended:     extended,
		frameSeconds: frameSeconds,
	}
}

// FileName returns the playlist name for a date, e.g. "2023-06-15.m3u".
func (c *Creator) FileName(date model.Date) string {
	return date.String() + "." + string(c.format)
}

// Create renders frames. Paths are written relative to the playlist, which
// lives in the date folder next to the images.
func (c *Creator) Create(title string, frames []Frame) string {
	switch c.format {
	case FormatPLS:
		return c.createPLS(title, frames)
	default:
		return c.createM3U(title, frames)
	}
}

// Frames builds the frame list of a report, in manifest order. Captions
// are looked up by manifest index.
func Frames(report *model.RunReport, tasks []model.DownloadTask) []Frame {
	captions := make(map[int]string, len(tasks))
	for _, task := range tasks {
		captions[task.Index] = task.Entry.Caption
	}

	frames := make([]Frame, 0, len(report.Stored))
	for _, img := range report.Stored {
		caption := captions[img.Index]
		if caption == "" {
			caption = img.Identifier
		}
		frames = append(frames, Frame{Path: img.Path, Caption: caption})
	}
	return frames
}

func (c *Creator) createM3U(title string, frames []Frame) string {
	var sb strings.Builder

	if c.extended {
		sb.WriteString("#EXTM3U\n")
		if title != "" {
			fmt.Fprintf(&sb, "#PLAYLIST:%s\n", oneLine(title))
		}
	}

	for _, f := range frames {
		if c.extended {
			fmt.Fprintf(&sb, "#EXTINF:%d,%s\n", c.frameSeconds, oneLine(f.Caption))
		}
		sb.WriteString(filepath.Base(f.Path) + "\n")
	}

	return sb.String()
}

func (c *Creator) createPLS(_ string, frames []Frame) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, f := range frames {
		idx := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", idx, filepath.Base(f.Path))
		fmt.Fprintf(&sb, "Title%d=%s\n", idx, oneLine(f.Caption))
		fmt.Fprintf(&sb, "Length%d=%d\n", idx, c.frameSeconds)
	}

	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(frames))
	sb.WriteString("Version=2\n")

	return sb.String()
}

// oneLine collapses line breaks, which would end an entry early.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
