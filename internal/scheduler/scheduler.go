// Package scheduler runs the download pipeline periodically for the most
// recent available date.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/handiism/epic-downloader/internal/logger"
	"github.com/handiism/epic-downloader/internal/model"
	"github.com/handiism/epic-downloader/internal/store"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, targetFolder, requested string) (*model.RunReport, error)
}

// Scheduler periodically downloads the latest EPIC images into a folder.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	runner       Runner
	store        *store.MemoryStore
	targetFolder string
	interval     time.Duration
	timeout      time.Duration
}

// New creates a new Scheduler.
func New(runner Runner, runs *store.MemoryStore, targetFolder string, interval, timeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:    s,
		runner:       runner,
		store:        runs,
		targetFolder: targetFolder,
		interval:     interval,
		timeout:      timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run starts immediately.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().SingletonMode().Do(func() {
		ctx := context.Background()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	logger.Info("Scheduler started", logger.Fields{
		"folder":   s.targetFolder,
		"interval": (time.Duration(minutes) * time.Minute).String(),
	})
	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs a single run and records its outcome.
func (s *Scheduler) RunOnce(ctx context.Context) store.RunRecord {
	started := time.Now().UTC()
	logger.Info("Scheduled run starting", logger.Fields{"folder": s.targetFolder})

	report, err := s.runner.Run(ctx, s.targetFolder, "")

	record := store.RunRecord{
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Report:     report,
	}
	if report != nil {
		record.RunID = report.RunID
	} else {
		record.RunID = uuid.NewString()
	}
	if err != nil {
		record.Error = err.Error()
		logger.Error("Scheduled run failed", logger.Fields{"run_id": record.RunID, "error": err.Error()})
	} else {
		logger.Success("Scheduled run completed", logger.Fields{
			"run_id": record.RunID,
			"date":   report.Date.String(),
			"stored": report.SuccessCount,
			"failed": len(report.Failures),
		})
	}

	s.store.Save(record)
	return record
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
