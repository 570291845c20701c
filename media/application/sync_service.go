package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfryer1193/alttext/media/domain"
	"github.com/rs/zerolog/log"
)

// DefaultBatchSize bounds one backfill batch so a single request stays responsive.
const DefaultBatchSize = 500

const (
	ModeCreate   = "create"
	ModeSingle   = "single"
	ModeBulk     = "bulk"
	ModeBackfill = "backfill"
)

// OutcomeRecorder receives the outcome of every sync invocation.
type OutcomeRecorder interface {
	RecordOutcome(mode string, outcome domain.SyncOutcome)
}

// StatsCache holds the most recently computed library stats.
type StatsCache interface {
	GetStats(ctx context.Context) (*domain.Stats, bool)
	SetStats(ctx context.Context, stats *domain.Stats) error
	Invalidate(ctx context.Context) error
}

// BackfillResult is the outcome of one backfill batch and where the next batch starts.
type BackfillResult struct {
	Outcome    domain.SyncOutcome
	NextCursor int64
	Done       bool
}

type SyncService struct {
	repo      domain.ImageRepository
	authz     domain.Authorizer
	recorder  OutcomeRecorder
	cache     StatsCache
	batchSize int
}

type SyncOption func(*SyncService)

func WithOutcomeRecorder(r OutcomeRecorder) SyncOption {
	return func(s *SyncService) {
		s.recorder = r
	}
}

func WithStatsCache(c StatsCache) SyncOption {
	return func(s *SyncService) {
		s.cache = c
	}
}

func WithBatchSize(n int) SyncOption {
	return func(s *SyncService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func NewSyncService(repo domain.ImageRepository, authz domain.Authorizer, opts ...SyncOption) *SyncService {
	s := &SyncService{
		repo:      repo,
		authz:     authz,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BatchSize is the backfill batch size used when callers pass no limit.
func (s *SyncService) BatchSize() int {
	return s.batchSize
}

// HandleUpload loads a newly created record and applies SyncOnCreate to it.
func (s *SyncService) HandleUpload(ctx context.Context, id int64) (domain.SyncOutcome, error) {
	img, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return domain.NewSyncOutcome(), fmt.Errorf("failed to load uploaded image %d: %w", id, err)
	}
	return s.SyncOnCreate(ctx, img)
}

// SyncOnCreate derives alt text for a new record unless it already has some.
// It writes at most once, so repeated triggering is a no-op after the first write.
func (s *SyncService) SyncOnCreate(ctx context.Context, img *domain.Image) (domain.SyncOutcome, error) {
	outcome := domain.NewSyncOutcome()
	defer s.finish(ctx, ModeCreate, &outcome)

	if !img.IsImage() {
		outcome.RecordSkip(domain.SkipNotAnImage)
		return outcome, nil
	}

	reason, err := s.apply(ctx, img, false)
	if err != nil {
		return outcome, err
	}
	tally(&outcome, reason)
	return outcome, nil
}

// SyncOne overwrites a record's alt text with the derived text on behalf of actor.
// ErrNotAnImage and ErrForbidden are returned alongside the outcome so callers can reject the request.
func (s *SyncService) SyncOne(ctx context.Context, id int64, actor domain.Actor) (domain.SyncOutcome, error) {
	outcome := domain.NewSyncOutcome()
	defer s.finish(ctx, ModeSingle, &outcome)

	img, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return outcome, fmt.Errorf("failed to load image %d: %w", id, err)
	}

	reason, err := s.overwrite(ctx, img, actor)
	if err != nil {
		return outcome, err
	}
	tally(&outcome, reason)

	switch reason {
	case domain.SkipNotAnImage:
		return outcome, domain.ErrNotAnImage
	case domain.SkipForbidden:
		return outcome, domain.ErrForbidden
	}
	return outcome, nil
}

// SyncBulk applies SyncOne's logic to every id. Missing, forbidden and non-image records are
// counted and skipped; a store failure stops the run and is returned with the partial outcome.
func (s *SyncService) SyncBulk(ctx context.Context, ids []int64, actor domain.Actor) (domain.SyncOutcome, error) {
	outcome := domain.NewSyncOutcome()
	defer s.finish(ctx, ModeBulk, &outcome)

	for _, id := range ids {
		img, err := s.repo.GetImage(ctx, id)
		if errors.Is(err, domain.ErrImageNotFound) {
			outcome.RecordSkip(domain.SkipNotFound)
			continue
		}
		if err != nil {
			return outcome, fmt.Errorf("failed to load image %d: %w", id, err)
		}

		reason, err := s.overwrite(ctx, img, actor)
		if err != nil {
			return outcome, err
		}
		tally(&outcome, reason)
	}

	log.Info().
		Str("actor", actor.ID).
		Int("attempted", outcome.Attempted).
		Int("updated", outcome.Updated).
		Msg("Bulk alt text sync finished")

	return outcome, nil
}

// BackfillMissing processes one batch of records without alt text, starting after cursor.
// Existing alt text is never overwritten, even when the query returned a stale row.
// Requires store-wide admin rights.
func (s *SyncService) BackfillMissing(ctx context.Context, actor domain.Actor, cursor int64, limit int) (BackfillResult, error) {
	result := BackfillResult{
		Outcome:    domain.NewSyncOutcome(),
		NextCursor: cursor,
	}

	if !s.authz.IsAdmin(actor) {
		return result, domain.ErrForbidden
	}
	defer s.finish(ctx, ModeBackfill, &result.Outcome)

	if limit <= 0 {
		limit = s.batchSize
	}

	batch, err := s.repo.FindMissingAltText(ctx, cursor, limit)
	if err != nil {
		return result, fmt.Errorf("failed to find images missing alt text: %w", err)
	}

	for _, img := range batch {
		result.NextCursor = img.ID

		if !img.IsImage() {
			result.Outcome.RecordSkip(domain.SkipNotAnImage)
			continue
		}
		if !s.authz.CanEdit(actor, img) {
			result.Outcome.RecordSkip(domain.SkipForbidden)
			continue
		}

		reason, err := s.apply(ctx, img, false)
		if err != nil {
			return result, err
		}
		tally(&result.Outcome, reason)
	}

	result.Done = len(batch) < limit

	log.Info().
		Str("actor", actor.ID).
		Int64("cursor", cursor).
		Int64("nextCursor", result.NextCursor).
		Int("updated", result.Outcome.Updated).
		Bool("done", result.Done).
		Msg("Backfill batch finished")

	return result, nil
}

// BackfillAll runs backfill batches from the beginning until the sweep is exhausted or ctx ends.
func (s *SyncService) BackfillAll(ctx context.Context, actor domain.Actor, limit int) (domain.SyncOutcome, error) {
	total := domain.NewSyncOutcome()
	var cursor int64

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		result, err := s.BackfillMissing(ctx, actor, cursor, limit)
		total.Merge(result.Outcome)
		if err != nil {
			return total, err
		}
		if result.Done || result.NextCursor == cursor {
			return total, nil
		}
		cursor = result.NextCursor
	}
}

// overwrite is the per-item policy shared by SyncOne and SyncBulk.
func (s *SyncService) overwrite(ctx context.Context, img *domain.Image, actor domain.Actor) (domain.SkipReason, error) {
	if !img.IsImage() {
		return domain.SkipNotAnImage, nil
	}
	if !s.authz.CanEdit(actor, img) {
		return domain.SkipForbidden, nil
	}
	return s.apply(ctx, img, true)
}

// apply derives and writes alt text. An empty reason means the record was updated.
func (s *SyncService) apply(ctx context.Context, img *domain.Image, overwrite bool) (domain.SkipReason, error) {
	if !overwrite && img.HasAltText() {
		return domain.SkipAlreadyHasAlt, nil
	}

	alt := AltTextForFilename(img.Filename)
	if alt == "" {
		return domain.SkipUnresolvable, nil
	}

	if overwrite {
		if err := s.repo.WriteAltText(ctx, img.ID, alt); err != nil {
			return "", fmt.Errorf("failed to write alt text for image %d: %w", img.ID, err)
		}
		img.AltText = alt
		return "", nil
	}

	// img may be a stale read; the store decides whether alt text is still missing.
	written, err := s.repo.WriteAltTextIfMissing(ctx, img.ID, alt)
	if err != nil {
		return "", fmt.Errorf("failed to write alt text for image %d: %w", img.ID, err)
	}
	if !written {
		return domain.SkipAlreadyHasAlt, nil
	}
	img.AltText = alt
	return "", nil
}

func (s *SyncService) finish(ctx context.Context, mode string, outcome *domain.SyncOutcome) {
	if s.recorder != nil {
		s.recorder.RecordOutcome(mode, *outcome)
	}

	if outcome.Updated == 0 || s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Str("mode", mode).Msg("Failed to invalidate stats cache")
	}
}

func tally(outcome *domain.SyncOutcome, reason domain.SkipReason) {
	if reason == "" {
		outcome.RecordUpdate()
		return
	}
	outcome.RecordSkip(reason)
}
