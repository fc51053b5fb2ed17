package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nhle/taskboard/internal/board"
	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/logging"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// env holds everything a command needs once config is loaded and the
// store is open.
type env struct {
	cfg     *model.AppConfig
	logger  zerolog.Logger
	store   store.Store
	user    model.User
	loader  *board.Loader
	handler *board.Handler

	closers []io.Closer
}

// setup loads config, opens the store (behind the Redis cache when one is
// configured) and resolves the current user. The TUI logs to a file;
// console commands log to stderr.
func setup(configPath string, console bool) (*env, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}
	if console {
		e.logger = logging.NewConsole(cfg.Log.Level)
	} else {
		logger, closer, err := logging.New(cfg.Log)
		if err != nil {
			return nil, err
		}
		e.logger = logger
		e.closers = append(e.closers, closer)
	}

	base, err := openStore(cfg.Database)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.closers = append(e.closers, base)
	e.store = base

	if cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("parsing cache.redis_url: %w", err)
		}
		client := redis.NewClient(opts)
		e.closers = append(e.closers, client)
		e.store = store.NewCache(base, client, cfg.CacheTTL())
		e.logger.Debug().Str("addr", opts.Addr).Msg("board cache enabled")
	}

	e.user, err = e.store.EnsureUser(context.Background(), cfg.Identity.Username, cfg.Identity.DisplayName)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.loader = board.NewLoader(e.store, cfg.Board.Title)
	e.handler = board.NewHandler(e.store, e.loader, board.Options{
		BatchWrites:  cfg.Board.BatchWrites,
		Archiver:     e.store,
		ArchiveAfter: cfg.ArchiveAfter(),
	}, e.logger)

	return e, nil
}

func openStore(cfg model.DatabaseConfig) (*store.SQLStore, error) {
	dsn := cfg.Path
	if cfg.Driver == model.DriverPostgres {
		password, err := credential.DatabasePassword()
		if err != nil {
			return nil, err
		}
		dsn = cfg.PostgresDSN(password)
	}
	return store.Open(cfg.Driver, dsn)
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
