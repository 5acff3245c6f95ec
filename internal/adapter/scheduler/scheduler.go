package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/simaogato/lotwise-backend/internal/domain"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on standard five-field cron schedules
type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	timeout time.Duration
}

// New creates a new scheduler. Each run gets its own context bounded by timeout.
func New(log zerolog.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		log:     log.With().Str("component", "scheduler").Logger(),
		timeout: timeout,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers job under schedule, e.g. "0 17 * * 1-5" or "@every 1h"
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.RunNow(job) })
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")
	return nil
}

// RunNow executes a job immediately, outside its schedule. Failures are
// logged, never propagated.
func (s *Scheduler) RunNow(job Job) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.log.Debug().Str("job", job.Name()).Msg("Running job")
	if err := job.Run(ctx); err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Msg("Job failed")
		return
	}
	s.log.Debug().Str("job", job.Name()).Msg("Job completed")
}

// SnapshotRecorder is the slice of the portfolio service the snapshot job needs
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context) (*domain.Snapshot, error)
}

// SnapshotJob records one portfolio snapshot per run
type SnapshotJob struct {
	Recorder SnapshotRecorder
	Log      zerolog.Logger
}

func (j *SnapshotJob) Name() string { return "snapshot" }

func (j *SnapshotJob) Run(ctx context.Context) error {
	snapshot, err := j.Recorder.RecordSnapshot(ctx)
	if err != nil {
		return err
	}
	j.Log.Info().
		Time("timestamp", snapshot.Timestamp).
		Str("total_value", snapshot.TotalValue.String()).
		Int("symbols", len(snapshot.Breakdown)).
		Msg("Snapshot recorded")
	return nil
}
