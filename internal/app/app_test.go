package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dfryer1193/alttext/internal/auth"
	"github.com/dfryer1193/alttext/internal/cache"
	"github.com/dfryer1193/alttext/internal/config"
	"github.com/dfryer1193/alttext/media/domain"
	"github.com/dfryer1193/alttext/shared/db/sqlite"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SQLite:   &sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "app.db")},
		Backfill: config.BackfillConfig{BatchSize: 2},
		Redis:    config.RedisConfig{StatsTTL: time.Minute},
	}
}

func TestNew_WiresServices(t *testing.T) {
	a, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, ok := a.Cache.(*cache.MemoryCache); !ok {
		t.Errorf("Cache = %T, want *cache.MemoryCache without REDIS_ADDR", a.Cache)
	}
	if a.Sync.BatchSize() != 2 {
		t.Errorf("BatchSize() = %d, want 2", a.Sync.BatchSize())
	}

	ctx := context.Background()
	img := &domain.Image{Filename: "harbour_at_dawn.jpg", MimeType: "image/jpeg"}
	if _, err := a.Library.Register(ctx, img); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if img.AltText != "harbour at dawn" {
		t.Errorf("AltText = %q, want %q", img.AltText, "harbour at dawn")
	}

	for _, name := range []string{"one.png", "two.png", "three.png"} {
		if _, err := a.Repo.CreateImage(ctx, &domain.Image{Filename: name, MimeType: "image/png"}); err != nil {
			t.Fatalf("CreateImage() error = %v", err)
		}
	}

	outcome, err := a.Sync.BackfillAll(ctx, auth.SystemActor, 0)
	if err != nil {
		t.Fatalf("BackfillAll() error = %v", err)
	}
	if outcome.Updated != 3 {
		t.Errorf("Updated = %d, want 3", outcome.Updated)
	}

	stats, err := a.Library.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalImages != 4 || stats.WithoutAlt != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestNew_BadDatabasePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "missing", "dir", "app.db")

	if _, err := New(cfg); err == nil {
		t.Error("expected error for unreachable database path")
	}
}
