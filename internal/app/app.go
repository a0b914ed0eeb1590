package app

import (
	"context"
	"fmt"
	"io"

	"shelfmark/internal/util"
	"shelfmark/pkg/domain"
	"shelfmark/pkg/storage"
	"shelfmark/pkg/store"
)

// Cleanup schedules removal of an object from the object store. The
// redis queue implements it in production; tests substitute a recorder.
type Cleanup interface {
	Enqueue(ctx context.Context, objectKey string) error
}

// CleanupFunc adapts a plain function to the Cleanup interface.
type CleanupFunc func(ctx context.Context, objectKey string) error

func (f CleanupFunc) Enqueue(ctx context.Context, objectKey string) error {
	return f(ctx, objectKey)
}

// Upload is an incoming image file, typically a multipart form part.
type Upload struct {
	Filename string
	Reader   io.Reader
	Size     int64
}

type Config struct {
	Store   store.Store
	Objects storage.ObjectStore
	Cleanup Cleanup

	// Categories is the accepted category list. Empty means the built-in
	// default set.
	Categories []string

	// RequireRatingWithReview rejects book writes that carry a review
	// but no rating.
	RequireRatingWithReview bool
}

type App struct {
	store      store.Store
	objects    storage.ObjectStore
	cleanup    Cleanup
	categories map[string]bool

	requireRatingWithReview bool
}

func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("app: store is required")
	}
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = domain.Categories
	}
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return &App{
		store:                   cfg.Store,
		objects:                 cfg.Objects,
		cleanup:                 cfg.Cleanup,
		categories:              set,
		requireRatingWithReview: cfg.RequireRatingWithReview,
	}, nil
}

func (a *App) validCategory(category string) bool {
	return a.categories[category]
}

// scheduleCleanup enqueues object removal, falling back to a direct
// delete when no queue is configured. A missing object key is a no-op.
func (a *App) scheduleCleanup(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return nil
	}
	if a.cleanup != nil {
		return a.cleanup.Enqueue(ctx, objectKey)
	}
	if a.objects != nil {
		return a.objects.Delete(ctx, objectKey)
	}
	return nil
}

// releaseOrphan schedules removal of an image whose owning record never
// made it into the store. Best effort: the failed save is the error that
// matters to the caller.
func (a *App) releaseOrphan(ctx context.Context, objectKey string) {
	if objectKey == "" {
		return
	}
	if err := a.scheduleCleanup(ctx, objectKey); err != nil {
		util.LoggerFromContext(ctx).Warn("orphaned image cleanup not scheduled",
			"object_key", objectKey, "error", err)
	}
}
