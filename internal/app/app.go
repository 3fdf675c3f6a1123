package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/five82/marquee/internal/cache"
	"github.com/five82/marquee/internal/catalog"
	"github.com/five82/marquee/internal/config"
	"github.com/five82/marquee/internal/detail"
	"github.com/five82/marquee/internal/logger"
	"github.com/five82/marquee/internal/omdb"
	"github.com/five82/marquee/internal/prefs"
	"github.com/five82/marquee/internal/search"
	"github.com/five82/marquee/internal/ui"
)

// Options configure the Marquee application. Non-zero fields override the
// config file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/marquee/prefs.toml
	FilterMode string
	Debounce   time.Duration
	Query      string // initial query; empty restores the last one
}

// Run boots the Marquee TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.FilterMode != "" {
		cfg.FilterMode = strings.ToLower(strings.TrimSpace(opts.FilterMode))
	}
	if opts.Debounce > 0 {
		cfg.Debounce = opts.Debounce
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closer, err := logger.Open(cfg.Log.File, logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closer.Close()

	svc, err := newServices(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return err
	}
	defer svc.Close()

	prefsPath := opts.PrefsPath
	if strings.TrimSpace(prefsPath) == "" {
		prefsPath = prefs.DefaultPath
	}
	userPrefs := prefs.Load(prefsPath)
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		query = userPrefs.LastQuery
	}
	svc.prime(query)

	log.Info().
		Str("filter_mode", svc.search.Mode().String()).
		Str("cache", cfg.Cache.Backend).
		Dur("debounce", cfg.Debounce).
		Msg("marquee started")

	err = ui.Run(ui.Options{
		Context:   ctx,
		Search:    svc.search,
		Detail:    svc.detail,
		ThemeName: userPrefs.Theme,
		PrefsPath: prefsPath,
		LogPath:   cfg.Log.File,
		Logger:    logger.Named(log, "ui"),
	})
	if err != nil {
		log.Error().Err(err).Msg("ui exited with error")
		return fmt.Errorf("run ui: %w", err)
	}
	log.Info().Msg("marquee stopped")
	return nil
}

// services is the wired object graph behind the UI.
type services struct {
	store  cache.Store
	search *search.Coordinator
	detail *detail.Coordinator
}

func newServices(ctx context.Context, cfg config.Config, log zerolog.Logger) (*services, error) {
	mode, err := search.ParseMode(cfg.FilterMode)
	if err != nil {
		return nil, err
	}

	clientOpts := []omdb.Option{omdb.WithTimeout(cfg.RequestTimeout)}
	if cfg.RequestsPerSecond > 0 {
		clientOpts = append(clientOpts, omdb.WithLimiter(rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)))
	}
	client, err := omdb.New(cfg.APIURL, cfg.APIKey, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("init catalog client: %w", err)
	}

	store, err := openCache(cfg.Cache, logger.Named(log, "cache"))
	if err != nil {
		return nil, err
	}
	repo := catalog.New(client, store, logger.Named(log, "catalog"))

	return &services{
		store: store,
		search: search.New(ctx, repo, search.Options{
			Mode:      mode,
			Debounce:  cfg.Debounce,
			SeedQuery: cfg.SeedQuery,
			Logger:    logger.Named(log, "search"),
		}),
		detail: detail.New(ctx, repo, logger.Named(log, "detail")),
	}, nil
}

// prime issues the first fetch: the seed collection in local mode, then the
// starting query.
func (s *services) prime(query string) {
	if s.search.Mode() == search.ModeLocal {
		s.search.Refresh()
	}
	if strings.TrimSpace(query) != "" {
		s.search.SetQuery(query)
	}
}

func (s *services) Close() error {
	s.search.Close()
	s.detail.Close()
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func openCache(cfg config.CacheConfig, log zerolog.Logger) (cache.Store, error) {
	switch cfg.Backend {
	case "off":
		return nil, nil
	case "", "memory":
		return cache.NewMemory(cfg.TTL), nil
	case "sqlite":
		s, err := cache.OpenSQLite(cfg.Path, cfg.TTL, log)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		if n, err := s.Purge(); err != nil {
			log.Warn().Err(err).Msg("purge expired cache entries failed")
		} else if n > 0 {
			log.Debug().Int64("removed", n).Msg("purged expired cache entries")
		}
		return s, nil
	default:
		return nil, errors.New("open cache: unknown backend " + cfg.Backend)
	}
}
