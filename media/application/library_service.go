package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/dfryer1193/alttext/media/domain"
	"github.com/rs/zerolog/log"
)

// DefaultPerPage is the page size of the media library listing.
const DefaultPerPage = 50

// Transactor runs fn inside a single store transaction carried by the context.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// LibraryService registers uploads and serves the stats and listing views.
type LibraryService struct {
	repo    domain.ImageRepository
	tx      Transactor
	hooks   *Hooks
	cache   StatsCache
	perPage int
}

func NewLibraryService(repo domain.ImageRepository, tx Transactor, hooks *Hooks, cache StatsCache) *LibraryService {
	return &LibraryService{
		repo:    repo,
		tx:      tx,
		hooks:   hooks,
		cache:   cache,
		perPage: DefaultPerPage,
	}
}

// Register stores a newly uploaded attachment and fires the upload hook in the same transaction.
func (s *LibraryService) Register(ctx context.Context, img *domain.Image) (domain.SyncOutcome, error) {
	outcome := domain.NewSyncOutcome()

	if img == nil {
		return outcome, fmt.Errorf("%w: image cannot be nil", domain.ErrInvalidImage)
	}
	img.Filename = strings.TrimSpace(img.Filename)
	if img.Filename == "" {
		return outcome, fmt.Errorf("%w: filename cannot be empty", domain.ErrInvalidImage)
	}
	if img.MimeType == "" {
		return outcome, fmt.Errorf("%w: mime type cannot be empty", domain.ErrInvalidImage)
	}

	err := s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		id, err := s.repo.CreateImage(txCtx, img)
		if err != nil {
			return err
		}
		img.ID = id

		outcome, err = s.hooks.OnUpload(txCtx, id)
		if err != nil {
			return err
		}

		stored, err := s.repo.GetImage(txCtx, id)
		if err != nil {
			return err
		}
		*img = *stored
		return nil
	})
	if err != nil {
		return outcome, fmt.Errorf("failed to register upload %q: %w", img.Filename, err)
	}

	s.invalidate(ctx)
	return outcome, nil
}

// Stats returns alt text coverage, served from the cache when possible.
// The counts are read in one transaction so they agree with each other.
func (s *LibraryService) Stats(ctx context.Context) (*domain.Stats, error) {
	if s.cache != nil {
		if stats, ok := s.cache.GetStats(ctx); ok {
			return stats, nil
		}
	}

	stats := &domain.Stats{}
	err := s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		total, err := s.repo.CountImages(txCtx)
		if err != nil {
			return fmt.Errorf("failed to count images: %w", err)
		}

		withAlt, err := s.repo.CountImagesWithAlt(txCtx)
		if err != nil {
			return fmt.Errorf("failed to count images with alt text: %w", err)
		}

		byMime, err := s.repo.CountByMimeType(txCtx)
		if err != nil {
			return fmt.Errorf("failed to count images by mime type: %w", err)
		}

		stats.TotalImages = total
		stats.WithAlt = withAlt
		stats.WithoutAlt = max(0, total-withAlt)
		stats.ByMimeType = byMime
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetStats(ctx, stats); err != nil {
			log.Warn().Err(err).Msg("Failed to cache stats")
		}
	}

	return stats, nil
}

// ListImages returns one page of image attachments, newest first. Pages start at 1.
func (s *LibraryService) ListImages(ctx context.Context, page int) (*domain.ImagePage, error) {
	if page < 1 {
		page = 1
	}

	var (
		total  int
		images []*domain.Image
	)
	// Count and page share one snapshot so Total matches the listed rows.
	err := s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		total, err = s.repo.CountImages(txCtx)
		if err != nil {
			return fmt.Errorf("failed to count images: %w", err)
		}

		images, err = s.repo.ListImages(txCtx, s.perPage, (page-1)*s.perPage)
		if err != nil {
			return fmt.Errorf("failed to list images: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.ImagePage{
		Images:     images,
		Page:       page,
		PerPage:    s.perPage,
		Total:      total,
		TotalPages: max(1, (total+s.perPage-1)/s.perPage),
	}, nil
}

func (s *LibraryService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate stats cache")
	}
}
