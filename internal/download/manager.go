package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/epic-downloader/internal/archive"
	"github.com/handiism/epic-downloader/internal/config"
	"github.com/handiism/epic-downloader/internal/epic"
	pkgerrors "github.com/handiism/epic-downloader/internal/errors"
	"github.com/handiism/epic-downloader/internal/http"
	ioutils "github.com/handiism/epic-downloader/internal/io"
	"github.com/handiism/epic-downloader/internal/logger"
	"github.com/handiism/epic-downloader/internal/model"
	"github.com/handiism/epic-downloader/internal/slideshow"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// DateResolver determines the date a run operates on.
type DateResolver interface {
	Resolve(ctx context.Context, requested string) (model.Date, error)
}

// ManifestFetcher lists the images of a date as download tasks.
type ManifestFetcher interface {
	Fetch(ctx context.Context, date model.Date) ([]model.DownloadTask, error)
}

// ImageDownloader stores a single image.
type ImageDownloader interface {
	Download(ctx context.Context, task model.DownloadTask) (model.StoredImage, error)
}

// Archiver packs a folder into an archive file.
type Archiver interface {
	Pack(ctx context.Context, sourceDir, archivePath string) error
}

// Dependencies are the collaborators of a Manager.
type Dependencies struct {
	Resolver   DateResolver
	Fetcher    ManifestFetcher
	Downloader ImageDownloader
	Storage    *ioutils.Storage
	Archiver   Archiver
}

// Plan is what a run would do, computed without touching the file system.
type Plan struct {
	Date   model.Date
	Folder string
	Tasks  []model.DownloadTask
}

// Manager runs the resolve, fetch and download pipeline.
type Manager struct {
	settings     *config.Settings
	deps         Dependencies
	imageService *ioutils.ImageService

	totalFiles      int32
	downloadedFiles int32
	failedFiles     int32
	receivedBytes   int64

	onProgress func(ProgressEvent)
}

// NewManager creates a Manager wired to the EPIC API and the local disk.
func NewManager(settings *config.Settings, apiKey string, onProgress func(ProgressEvent)) *Manager {
	apiClient := http.NewClient(clientOptions(settings))
	imageClient := http.NewClient(imageClientOptions(settings))

	apiCfg := epic.APIConfig{
		BaseURL:    settings.APIBaseURL,
		Collection: settings.Collection,
		APIKey:     apiKey,
	}
	store := ioutils.NewStorage(nil)
	downloader := NewDownloader(imageClient, store, settings.SkipExisting)

	m := NewManagerWith(settings, Dependencies{
		Resolver:   epic.NewResolver(apiClient, apiCfg),
		Fetcher:    epic.NewFetcher(apiClient, apiCfg, settings.ToArchiveConfig(apiKey)),
		Downloader: downloader,
		Storage:    store,
		Archiver:   archive.NewPacker(),
	}, onProgress)

	downloader.OnBytes(m.addReceived)
	return m
}

// clientOptions maps settings to the options of the metadata client.
func clientOptions(settings *config.Settings) http.Options {
	opts := http.DefaultOptions()
	opts.Timeout = settings.HTTPTimeout
	opts.UserAgent = settings.UserAgent
	opts.MaxRetries = settings.DownloadMaxRetries
	opts.RetryCooldown = settings.RetryCooldown(0)
	opts.RetryExponent = settings.DownloadRetryExponent
	opts.BreakerThreshold = settings.BreakerThreshold
	return opts
}

// imageClientOptions is clientOptions without the circuit breaker: a run of
// failing images must not block the images after them.
func imageClientOptions(settings *config.Settings) http.Options {
	opts := clientOptions(settings)
	opts.DisableBreaker = true
	return opts
}

// NewManagerWith creates a Manager from explicit dependencies.
func NewManagerWith(settings *config.Settings, deps Dependencies, onProgress func(ProgressEvent)) *Manager {
	if deps.Storage == nil {
		deps.Storage = ioutils.NewStorage(nil)
	}
	return &Manager{
		settings:     settings,
		deps:         deps,
		imageService: ioutils.NewImageService(),
		onProgress:   onProgress,
	}
}

// Plan resolves the date and lists its images without creating any folder.
func (m *Manager) Plan(ctx context.Context, targetFolder, requested string) (*Plan, error) {
	date, err := m.resolve(ctx, requested)
	if err != nil {
		return nil, err
	}

	folder := date.FolderPath(targetFolder)
	tasks, err := m.fetch(ctx, date)
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		tasks[i] = tasks[i].WithDestination(folder)
	}

	return &Plan{Date: date, Folder: folder, Tasks: tasks}, nil
}

// Run downloads every image of the resolved date into
// <targetFolder>/<YYYY-MM-DD>.
//
// Resolution, folder creation and manifest failures abort the run and are
// returned with a nil report. Per-image failures are collected in the
// report, which is returned with a nil error.
func (m *Manager) Run(ctx context.Context, targetFolder, requested string) (*model.RunReport, error) {
	m.reset()

	report := &model.RunReport{
		RunID:     uuid.NewString(),
		Stored:    []model.StoredImage{},
		Failures:  []model.Failure{},
		StartedAt: time.Now().UTC(),
	}
	log := logger.With(logger.Fields{"run_id": report.RunID})

	date, err := m.resolve(ctx, requested)
	if err != nil {
		log.Error("Date resolution failed", "error", err)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error resolving date: %v", err), Level: LevelError})
		return nil, err
	}
	report.Date = date
	report.Folder = date.FolderPath(targetFolder)
	log = log.With("date", date.String(), "folder", report.Folder)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Date: %s", date), Level: LevelInfo})

	if err := m.deps.Storage.EnsureDir(report.Folder); err != nil {
		err = pkgerrors.Classify(pkgerrors.ErrFolderCreation, err)
		log.Error("Folder creation failed", "error", err)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating directory: %v", err), Level: LevelError})
		return nil, err
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Folder: %s", report.Folder), Level: LevelInfo})

	if n, err := m.deps.Storage.RemoveTempFiles(report.Folder); err != nil {
		log.Warn("Could not remove leftover temporary files", "error", err)
	} else if n > 0 {
		log.Debug("Removed leftover temporary files", "count", n)
	}

	tasks, err := m.fetch(ctx, date)
	if err != nil {
		log.Error("Manifest fetch failed", "error", err)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error fetching image list: %v", err), Level: LevelError})
		return nil, err
	}
	for i := range tasks {
		tasks[i] = tasks[i].WithDestination(report.Folder)
	}
	report.Total = len(tasks)
	atomic.StoreInt32(&m.totalFiles, int32(len(tasks)))

	log.Info("Downloading images", "images", len(tasks), "workers", m.workers(len(tasks)))
	m.progress(ProgressEvent{Message: fmt.Sprintf("Found %d images", len(tasks)), Level: LevelInfo})

	for _, res := range m.downloadAll(ctx, tasks) {
		if res.err != nil {
			report.Failures = append(report.Failures, model.Failure{
				Index:      res.task.Index,
				Identifier: res.task.Entry.Identifier,
				URL:        http.Redact(res.task.URL),
				Reason:     reason(res.err),
			})
			continue
		}
		report.Stored = append(report.Stored, res.image)
	}
	report.SuccessCount = len(report.Stored)
	report.Sort()

	if m.settings.Thumbnails.Enabled && ctx.Err() == nil {
		report.Thumbnails = m.writeThumbnails(ctx, report.Stored)
	}

	if m.settings.Slideshow.Enabled && ctx.Err() == nil && len(report.Stored) > 0 {
		if path, err := m.writeSlideshow(ctx, report, tasks); err != nil {
			log.Warn("Slideshow failed", "error", err)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error writing slideshow: %v", err), Level: LevelWarning})
		} else {
			report.SlideshowPath = path
			m.progress(ProgressEvent{Message: fmt.Sprintf("Wrote slideshow %s", path), Level: LevelVerbose})
		}
	}

	if m.settings.ArchiveAfterRun && m.deps.Archiver != nil && ctx.Err() == nil {
		archivePath := archive.PathFor(targetFolder, report.Folder)
		if err := m.deps.Archiver.Pack(ctx, report.Folder, archivePath); err != nil {
			log.Warn("Archive failed", "error", err)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating archive: %v", err), Level: LevelWarning})
		} else {
			report.ArchivePath = archivePath
			m.progress(ProgressEvent{Message: fmt.Sprintf("Created archive %s", archivePath), Level: LevelSuccess})
		}
	}

	report.FinishedAt = time.Now().UTC()

	if report.Partial() {
		log.Warn("Run finished with failures", "stored", report.SuccessCount, "failed", len(report.Failures))
		m.progress(ProgressEvent{Message: fmt.Sprintf("Finished %s, %d of %d images failed", date, len(report.Failures), report.Total), Level: LevelWarning})
	} else {
		log.Info("Run finished", "stored", report.SuccessCount, "skipped", report.SkippedCount(), "duration", report.Duration().String())
		m.progress(ProgressEvent{Message: fmt.Sprintf("Successfully downloaded %d images for %s", report.SuccessCount, date), Level: LevelSuccess})
	}

	return report, nil
}

// GetProgress returns current download progress.
func (m *Manager) GetProgress() (received int64, filesDone, filesFailed, filesTotal int32) {
	return atomic.LoadInt64(&m.receivedBytes),
		atomic.LoadInt32(&m.downloadedFiles),
		atomic.LoadInt32(&m.failedFiles),
		atomic.LoadInt32(&m.totalFiles)
}

type result struct {
	task  model.DownloadTask
	image model.StoredImage
	err   error
}

// downloadAll feeds tasks to a fixed pool of workers and returns one result
// per task. Workers never return errors, so one failure never cancels
// another download.
func (m *Manager) downloadAll(ctx context.Context, tasks []model.DownloadTask) []result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan model.DownloadTask)
	resultCh := make(chan result, len(tasks))

	var g errgroup.Group
	for i := 0; i < m.workers(len(tasks)); i++ {
		g.Go(func() error {
			for task := range taskCh {
				resultCh <- m.downloadOne(ctx, task)
			}
			return nil
		})
	}

	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	_ = g.Wait()
	close(resultCh)

	results := make([]result, 0, len(tasks))
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}

func (m *Manager) downloadOne(ctx context.Context, task model.DownloadTask) result {
	image, err := m.deps.Downloader.Download(ctx, task)
	if err != nil {
		atomic.AddInt32(&m.failedFiles, 1)
		logger.Warn("Image download failed", logger.Fields{
			"identifier": task.Entry.Identifier,
			"error":      err.Error(),
		})
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading %s: %v", task.Entry.Identifier, err), Level: LevelError})
		return result{task: task, err: err}
	}

	atomic.AddInt32(&m.downloadedFiles, 1)
	if image.Skipped {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping existing: %s", image.Identifier), Level: LevelVerbose})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded: %s", image.Identifier), Level: LevelVerbose})
	}
	return result{task: task, image: image}
}

func (m *Manager) writeThumbnails(ctx context.Context, stored []model.StoredImage) int {
	written := 0
	for _, img := range stored {
		if ctx.Err() != nil {
			break
		}

		thumbPath := ioutils.ThumbnailPath(img.Path)
		if err := m.writeThumbnail(ctx, img.Path, thumbPath); err != nil {
			logger.Warn("Thumbnail failed", logger.Fields{"identifier": img.Identifier, "error": err.Error()})
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating thumbnail for %s: %v", img.Identifier, err), Level: LevelWarning})
			continue
		}
		written++
	}
	return written
}

func (m *Manager) writeThumbnail(ctx context.Context, imagePath, thumbPath string) error {
	data, err := m.deps.Storage.ReadFile(imagePath)
	if err != nil {
		return err
	}

	thumb, err := m.imageService.Thumbnail(ctx, data, m.settings.Thumbnails.MaxSize)
	if err != nil {
		return err
	}

	if err := m.deps.Storage.EnsureDir(filepath.Dir(thumbPath)); err != nil {
		return err
	}
	return m.deps.Storage.WriteFile(ctx, thumbPath, thumb)
}

func (m *Manager) writeSlideshow(ctx context.Context, report *model.RunReport, tasks []model.DownloadTask) (string, error) {
	creator := slideshow.NewCreator(slideshow.Format(m.settings.Slideshow.Format), true, m.settings.Slideshow.FrameSeconds)
	content := creator.Create(report.Date.String(), slideshow.Frames(report, tasks))

	path := filepath.Join(report.Folder, creator.FileName(report.Date))
	if err := m.deps.Storage.WriteFile(ctx, path, []byte(content)); err != nil {
		return "", err
	}
	return path, nil
}

func (m *Manager) resolve(ctx context.Context, requested string) (model.Date, error) {
	date, err := m.deps.Resolver.Resolve(ctx, requested)
	if err != nil && !errors.Is(err, pkgerrors.ErrResolution) {
		err = pkgerrors.Classify(pkgerrors.ErrResolution, err)
	}
	return date, err
}

func (m *Manager) fetch(ctx context.Context, date model.Date) ([]model.DownloadTask, error) {
	tasks, err := m.deps.Fetcher.Fetch(ctx, date)
	if err != nil && !errors.Is(err, pkgerrors.ErrManifestFetch) {
		err = pkgerrors.Classify(pkgerrors.ErrManifestFetch, err)
	}
	return tasks, err
}

func (m *Manager) workers(tasks int) int {
	n := m.settings.MaxConcurrentDownloads
	if n < 1 {
		n = 1
	}
	if tasks > 0 && n > tasks {
		n = tasks
	}
	return n
}

func (m *Manager) reset() {
	atomic.StoreInt32(&m.totalFiles, 0)
	atomic.StoreInt32(&m.downloadedFiles, 0)
	atomic.StoreInt32(&m.failedFiles, 0)
	atomic.StoreInt64(&m.receivedBytes, 0)
}

func (m *Manager) addReceived(n int64) {
	atomic.AddInt64(&m.receivedBytes, n)
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

// reason is the failure text stored in a report.
func reason(err error) string {
	var dlErr *pkgerrors.DownloadError
	if errors.As(err, &dlErr) && dlErr.Err != nil {
		return dlErr.Err.Error()
	}
	return err.Error()
}
