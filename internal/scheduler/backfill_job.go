package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dfryer1193/alttext/internal/auth"
	"github.com/dfryer1193/alttext/media/application"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const jobTimeout = 10 * time.Minute

// BackfillJob runs one backfill batch per tick and remembers where the sweep stopped.
// After a sweep completes the next tick starts again from the beginning.
type BackfillJob struct {
	hooks *application.Hooks
	limit int

	mu     sync.Mutex
	cursor int64
}

func NewBackfillJob(hooks *application.Hooks, limit int) *BackfillJob {
	return &BackfillJob{
		hooks: hooks,
		limit: limit,
	}
}

// Cursor returns the id the next batch starts after
func (j *BackfillJob) Cursor() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cursor
}

// RunOnce processes the next batch as the system actor
func (j *BackfillJob) RunOnce(ctx context.Context) (application.BackfillResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	result, err := j.hooks.OnBackfill(ctx, auth.SystemActor, j.cursor, j.limit)
	if err != nil {
		return result, fmt.Errorf("scheduled backfill from cursor %d: %w", j.cursor, err)
	}

	if result.Done {
		j.cursor = 0
	} else {
		j.cursor = result.NextCursor
	}
	return result, nil
}

// Run satisfies cron.Job
func (j *BackfillJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := j.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled backfill failed")
		return
	}

	log.Info().
		Int("updated", result.Outcome.Updated).
		Int("skipped", result.Outcome.SkippedTotal()).
		Int64("next_cursor", result.NextCursor).
		Bool("done", result.Done).
		Msg("Scheduled backfill batch complete")
}

// Scheduler owns the cron runner for periodic backfill sweeps
type Scheduler struct {
	cron *cron.Cron
}

// New registers job on the given cron schedule; overlapping runs are skipped
func New(schedule string, job cron.Job) (*Scheduler, error) {
	logger := cron.PrintfLogger(&log.Logger)
	c := cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid backfill schedule %q: %w", schedule, err)
	}

	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to return
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("Timed out waiting for scheduled backfill to finish")
	}
}
