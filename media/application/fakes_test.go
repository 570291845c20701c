package application

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/dfryer1193/alttext/media/domain"
)

type fakeImageRepository struct {
	images   map[int64]*domain.Image
	nextID   int64
	writes   []int64
	writeErr error
	getErr   error

	// readsOutsideTx counts CountImages and ListImages calls made without a transaction
	readsOutsideTx int

	// staleMissing makes FindMissingAltText return an outdated snapshot of these IDs
	// with no alt text, as if alt text was written after the query ran
	staleMissing map[int64]bool
}

func newFakeImageRepository(images ...*domain.Image) *fakeImageRepository {
	r := &fakeImageRepository{
		images:       make(map[int64]*domain.Image),
		staleMissing: make(map[int64]bool),
	}
	for _, img := range images {
		copied := *img
		r.images[img.ID] = &copied
		if img.ID > r.nextID {
			r.nextID = img.ID
		}
	}
	return r
}

func (r *fakeImageRepository) CreateImage(_ context.Context, img *domain.Image) (int64, error) {
	r.nextID++
	copied := *img
	copied.ID = r.nextID
	r.images[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeImageRepository) GetImage(_ context.Context, id int64) (*domain.Image, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	img, ok := r.images[id]
	if !ok {
		return nil, domain.ErrImageNotFound
	}
	copied := *img
	return &copied, nil
}

func (r *fakeImageRepository) sortedIDs() []int64 {
	ids := make([]int64, 0, len(r.images))
	for id := range r.images {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *fakeImageRepository) ListImages(ctx context.Context, limit int, offset int) ([]*domain.Image, error) {
	r.noteRead(ctx)
	ids := r.sortedIDs()
	var out []*domain.Image
	for i := len(ids) - 1; i >= 0; i-- {
		img := r.images[ids[i]]
		if img.IsImage() {
			out = append(out, img)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeImageRepository) FindMissingAltText(_ context.Context, afterID int64, limit int) ([]*domain.Image, error) {
	var out []*domain.Image
	for _, id := range r.sortedIDs() {
		if id <= afterID {
			continue
		}
		img := r.images[id]
		if !img.IsImage() {
			continue
		}
		if img.HasAltText() && !r.staleMissing[id] {
			continue
		}
		copied := *img
		if r.staleMissing[id] {
			copied.AltText = ""
		}
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeImageRepository) CountImages(ctx context.Context) (int, error) {
	r.noteRead(ctx)
	n := 0
	for _, img := range r.images {
		if img.IsImage() {
			n++
		}
	}
	return n, nil
}

func (r *fakeImageRepository) noteRead(ctx context.Context) {
	if ctx.Value(fakeTxKey{}) == nil {
		r.readsOutsideTx++
	}
}

func (r *fakeImageRepository) CountImagesWithAlt(_ context.Context) (int, error) {
	n := 0
	for _, img := range r.images {
		if img.IsImage() && img.HasAltText() {
			n++
		}
	}
	return n, nil
}

func (r *fakeImageRepository) CountByMimeType(_ context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, img := range r.images {
		if img.IsImage() {
			out[img.MimeType]++
		}
	}
	return out, nil
}

func (r *fakeImageRepository) WriteAltText(_ context.Context, id int64, text string) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	img, ok := r.images[id]
	if !ok {
		return domain.ErrImageNotFound
	}
	img.AltText = text
	r.writes = append(r.writes, id)
	return nil
}

func (r *fakeImageRepository) WriteAltTextIfMissing(_ context.Context, id int64, text string) (bool, error) {
	if r.writeErr != nil {
		return false, r.writeErr
	}
	img, ok := r.images[id]
	if !ok || !img.IsImage() || img.HasAltText() {
		return false, nil
	}
	img.AltText = text
	r.writes = append(r.writes, id)
	return true, nil
}

// fakeAuthorizer grants edit rights unless the image is listed in deny.
type fakeAuthorizer struct {
	admin bool
	deny  map[int64]bool
}

func (a *fakeAuthorizer) CanEdit(_ domain.Actor, img *domain.Image) bool {
	return !a.deny[img.ID]
}

func (a *fakeAuthorizer) IsAdmin(_ domain.Actor) bool {
	return a.admin
}

type fakeStatsCache struct {
	stats       *domain.Stats
	invalidated int
}

func (c *fakeStatsCache) GetStats(_ context.Context) (*domain.Stats, bool) {
	if c.stats == nil {
		return nil, false
	}
	return c.stats, true
}

func (c *fakeStatsCache) SetStats(_ context.Context, stats *domain.Stats) error {
	c.stats = stats
	return nil
}

func (c *fakeStatsCache) Invalidate(_ context.Context) error {
	c.stats = nil
	c.invalidated++
	return nil
}

type recordedOutcome struct {
	mode    string
	outcome domain.SyncOutcome
}

type fakeRecorder struct {
	calls []recordedOutcome
}

func (r *fakeRecorder) RecordOutcome(mode string, outcome domain.SyncOutcome) {
	r.calls = append(r.calls, recordedOutcome{mode: mode, outcome: outcome})
}

type fakeTxKey struct{}

// passthroughTransactor marks the context so fakes can tell transactional reads apart
type passthroughTransactor struct {
	calls int
}

func (t *passthroughTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(context.WithValue(ctx, fakeTxKey{}, t.calls))
}

type failingTransactor struct{}

func (failingTransactor) RunInTransaction(context.Context, func(ctx context.Context) error) error {
	return errStoreDown
}

var errStoreDown = errors.New("store unavailable")

func image(id int64, filename string, alt string) *domain.Image {
	mime := "image/jpeg"
	if strings.HasSuffix(filename, ".pdf") {
		mime = "application/pdf"
	}
	return &domain.Image{ID: id, Filename: filename, AltText: alt, MimeType: mime}
}
