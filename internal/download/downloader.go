package download

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	pkgerrors "github.com/handiism/epic-downloader/internal/errors"
	"github.com/handiism/epic-downloader/internal/http"
	ioutils "github.com/handiism/epic-downloader/internal/io"
	"github.com/handiism/epic-downloader/internal/model"
)

var errNoFileName = errors.New("cannot derive a file name from the image URL")

// Streamer performs a GET request and hands the body to consume.
type Streamer interface {
	Stream(ctx context.Context, rawURL string, consume func(body io.Reader, size int64) error) error
}

// Downloader fetches single images and writes them into their destination.
type Downloader struct {
	client       Streamer
	store        *ioutils.Storage
	skipExisting bool

	// onBytes is called for every chunk received.
	onBytes func(n int64)
}

// NewDownloader creates a Downloader writing through store.
func NewDownloader(client Streamer, store *ioutils.Storage, skipExisting bool) *Downloader {
	return &Downloader{
		client:       client,
		store:        store,
		skipExisting: skipExisting,
	}
}

// OnBytes registers a callback receiving the size of every chunk written.
func (d *Downloader) OnBytes(fn func(n int64)) {
	d.onBytes = fn
}

// Download fetches task.URL into <task.Destination>/<file name>.
//
// An existing file is replaced unless skip-existing is enabled and the file
// is non-empty. Every failure is returned as a *DownloadError.
func (d *Downloader) Download(ctx context.Context, task model.DownloadTask) (model.StoredImage, error) {
	name := FileNameFor(task)
	if name == "" {
		return model.StoredImage{}, d.fail(task, errNoFileName)
	}
	path := filepath.Join(task.Destination, name)

	if d.skipExisting {
		size, ok, err := d.store.Stat(path)
		if err != nil {
			return model.StoredImage{}, d.fail(task, err)
		}
		if ok && size > 0 {
			return model.StoredImage{
				Index:      task.Index,
				Identifier: task.Entry.Identifier,
				Path:       path,
				Size:       size,
				Skipped:    true,
			}, nil
		}
	}

	var written int64
	err := d.client.Stream(ctx, task.URL, func(body io.Reader, size int64) error {
		src := &bodyReader{r: body}

		// Bytes of a failed attempt are taken back.
		var counted int64
		var r io.Reader = src
		if d.onBytes != nil {
			r = io.TeeReader(src, &http.ProgressWriter{
				Writer: io.Discard,
				Total:  size,
				OnUpdate: func(chunk, _ int64) {
					counted += chunk
					d.onBytes(chunk)
				},
			})
		}

		n, err := d.store.WriteFileAtomic(ctx, path, r)
		if err != nil {
			if counted > 0 {
				d.onBytes(-counted)
			}
			if src.err == nil && ctx.Err() == nil {
				return pkgerrors.Classify(pkgerrors.ErrStorage, err)
			}
			return err
		}
		written = n
		return nil
	})
	if err != nil {
		return model.StoredImage{}, d.fail(task, err)
	}

	return model.StoredImage{
		Index:      task.Index,
		Identifier: task.Entry.Identifier,
		Path:       path,
		Size:       written,
	}, nil
}

// bodyReader remembers the last read error so write failures can be told
// apart from a broken response body.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		b.err = err
	}
	return n, err
}

func (d *Downloader) fail(task model.DownloadTask, err error) error {
	return pkgerrors.NewDownloadError(task.Entry.Identifier, http.Redact(task.URL), err)
}

// FileNameFor returns the file name an image is stored under: the last
// segment of its URL path, or the sanitized identifier if the URL has none.
func FileNameFor(task model.DownloadTask) string {
	if name := task.FileName(); name != "" {
		return ioutils.SanitizeFileName(name)
	}
	return ioutils.SanitizeFileName(task.Entry.Identifier)
}
