package application

import (
	"context"

	"github.com/dfryer1193/alttext/media/domain"
)

// Hooks is the dispatch table every transport invokes. It is built once at startup.
type Hooks struct {
	OnUpload       func(ctx context.Context, id int64) (domain.SyncOutcome, error)
	OnSingleAction func(ctx context.Context, id int64, actor domain.Actor) (domain.SyncOutcome, error)
	OnBulkAction   func(ctx context.Context, ids []int64, actor domain.Actor) (domain.SyncOutcome, error)
	OnBackfill     func(ctx context.Context, actor domain.Actor, cursor int64, limit int) (BackfillResult, error)
}

func NewHooks(s *SyncService) *Hooks {
	return &Hooks{
		OnUpload:       s.HandleUpload,
		OnSingleAction: s.SyncOne,
		OnBulkAction:   s.SyncBulk,
		OnBackfill:     s.BackfillMissing,
	}
}
