package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"movecache/internal/book"
	"movecache/internal/chessrules"
	"movecache/internal/config"
	"movecache/internal/db"
	"movecache/internal/movetree"
)

type App struct {
	cfg    config.Config
	loader *book.Loader

	storeMu sync.Mutex
	store   *db.Store

	closeOnce sync.Once
}

func New(cfg config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	loader, err := book.NewLoader(book.DefaultLoaderSize)
	if err != nil {
		return nil, fmt.Errorf("create book loader: %w", err)
	}
	return &App{cfg: cfg, loader: loader}, nil
}

func (a *App) Config() config.Config {
	return a.cfg
}

type BuildResult struct {
	Path  string
	Depth int
	Stats movetree.Stats
	Size  int64
}

// Build enumerates the configured start position and replaces the artifact.
func (a *App) Build(ctx context.Context) (BuildResult, error) {
	start, err := chessrules.PositionFromFEN(a.cfg.StartFEN)
	if err != nil {
		return BuildResult{}, err
	}

	log.Info().Int("depth", a.cfg.Depth).Str("fen", start.String()).Msg("building book")
	forest, err := book.BuildCache(ctx, chessrules.Rules{}, start, a.cfg.Depth, movetree.WithWorkers(a.cfg.Workers))
	if err != nil {
		return BuildResult{}, fmt.Errorf("build book: %w", err)
	}
	if err := book.SaveCache(forest, a.cfg.ArtifactPath); err != nil {
		return BuildResult{}, fmt.Errorf("save book: %w", err)
	}

	res := BuildResult{Path: a.cfg.ArtifactPath, Depth: a.cfg.Depth, Stats: forest.Stats()}
	if info, err := os.Stat(a.cfg.ArtifactPath); err == nil {
		res.Size = info.Size()
	}
	log.Info().
		Str("path", res.Path).
		Int("nodes", res.Stats.Nodes).
		Int("leaves", res.Stats.Leaves).
		Str("size", humanize.Bytes(uint64(res.Size))).
		Msg("book written")
	return res, nil
}

// Book returns the artifact at the configured path, cached between calls.
func (a *App) Book() (*book.Book, error) {
	return a.loader.Get(a.cfg.ArtifactPath)
}

// Export copies the current artifact into the SQLite export database under
// name and returns the export ID.
func (a *App) Export(ctx context.Context, name string) (int64, error) {
	b, err := a.Book()
	if err != nil {
		return 0, err
	}
	store, err := a.exportStore()
	if err != nil {
		return 0, err
	}
	id, err := store.ExportForest(ctx, name, b.Forest())
	if err != nil {
		return 0, fmt.Errorf("export book: %w", err)
	}
	log.Info().Str("name", name).Int64("id", id).Int("nodes", b.Nodes()).Str("db", a.cfg.ExportDBPath).Msg("book exported")
	return id, nil
}

func (a *App) exportStore() (*db.Store, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	store, err := db.Open(a.cfg.ExportDBPath)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.storeMu.Lock()
		defer a.storeMu.Unlock()
		if a.store != nil {
			if err := a.store.Close(); err != nil {
				log.Warn().Err(err).Msg("close export store")
			}
		}
	})
}
