package slideshow

import (
	"strings"
	"testing"

	"github.com/handiism/epic-downloader/internal/model"
)

func testFrames() []Frame {
	return []Frame{
		{Path: "/epic/2023-06-15/img1.png", Caption: "first"},
		{Path: "/epic/2023-06-15/img2.png", Caption: "second\nline"},
	}
}

func TestCreator_M3U(t *testing.T) {
	creator := NewCreator(FormatM3U, false, 1)

	content := creator.Create("2023-06-15", testFrames())

	if content != "img1.png\nimg2.png\n" {
		t.Errorf("unexpected M3U content %q", content)
	}
}

func TestCreator_M3UExtended(t *testing.T) {
	creator := NewCreator(FormatM3U, true, 2)

	content := creator.Create("2023-06-15", testFrames())

	if !strings.HasPrefix(content, "#EXTM3U\n#PLAYLIST:2023-06-15\n") {
		t.Error("Extended M3U should start with #EXTM3U and the title")
	}
	if !strings.Contains(content, "#EXTINF:2,first\nimg1.png\n") {
		t.Error("Extended M3U should contain #EXTINF before each file")
	}
	if !strings.Contains(content, "#EXTINF:2,second line\n") {
		t.Error("Captions should be collapsed to one line")
	}
}

func TestCreator_PLS(t *testing.T) {
	creator := NewCreator(FormatPLS, false, 0)

	content := creator.Create("", testFrames())

	if !strings.HasPrefix(content, "[playlist]") {
		t.Error("PLS should start with [playlist]")
	}
	if !strings.Contains(content, "File2=img2.png") {
		t.Error("PLS should contain File2=")
	}
	if !strings.Contains(content, "Length1=1") {
		t.Error("frame length should default to one second")
	}
	if !strings.Contains(content, "NumberOfEntries=2") {
		t.Error("PLS should contain NumberOfEntries")
	}
}

func TestCreator_FileName(t *testing.T) {
	date := model.MustParseDate("2023-06-15")

	if got := NewCreator(FormatM3U, true, 1).FileName(date); got != "2023-06-15.m3u" {
		t.Errorf("got %q", got)
	}
	if got := NewCreator(FormatPLS, true, 1).FileName(date); got != "2023-06-15.pls" {
		t.Errorf("got %q", got)
	}
}

func TestFrames_FollowStoredOrderWithCaptions(t *testing.T) {
	report := &model.RunReport{
		Stored: []model.StoredImage{
			{Index: 0, Identifier: "a", Path: "/d/a.png"},
			{Index: 2, Identifier: "c", Path: "/d/c.png"},
		},
	}
	tasks := []model.DownloadTask{
		{Index: 0, Entry: model.ManifestEntry{Identifier: "a", Caption: "caption a"}},
		{Index: 1, Entry: model.ManifestEntry{Identifier: "b", Caption: "caption b"}},
		{Index: 2, Entry: model.ManifestEntry{Identifier: "c"}},
	}

	frames := Frames(report, tasks)

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].Caption != "caption a" {
		t.Errorf("got %q", frames[0].Caption)
	}
	if frames[1].Caption != "c" {
		t.Error("missing caption should fall back to the identifier")
	}
}
