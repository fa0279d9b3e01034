package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/rzbill/revent/internal/config"
	pebblestore "github.com/rzbill/revent/internal/storage/pebble"
	"github.com/rzbill/revent/pkg/log"
	"github.com/rzbill/revent/pkg/repository"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// Logger overrides the config-derived logger when set.
	Logger log.Logger
}

// Runtime wires config, logging, and the repository store for a single-node
// instance. Typed collections are opened through the exposed Store.
type Runtime struct {
	store  *repository.Store
	config cfgpkg.Config
	logger log.Logger
}

// Open builds the logger from config, opens the repository store, and returns
// a Runtime.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		l, err := buildLogger(opts.Config.Log)
		if err != nil {
			return nil, err
		}
		logger = l
	}

	fsync, err := pebblestore.ParseFsyncMode(opts.Config.Storage.Fsync)
	if err != nil {
		return nil, err
	}
	store, err := repository.Open(repository.Options{
		DataDir:       opts.Config.DataDir,
		Fsync:         fsync,
		FsyncInterval: time.Duration(opts.Config.Storage.FsyncIntervalMs) * time.Millisecond,
		Logger:        logger.WithComponent("repository"),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("runtime.open", log.Str("data_dir", opts.Config.DataDir))
	return &Runtime{store: store, config: opts.Config, logger: logger}, nil
}

func buildLogger(cfg cfgpkg.LogConfig) (log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter log.Formatter
	switch cfg.Format {
	case "", "text":
		formatter = &log.TextFormatter{}
	case "json":
		formatter = &log.JSONFormatter{}
	default:
		return nil, errors.New("runtime: unknown log format " + cfg.Format)
	}
	return log.NewLogger(log.WithLevel(level), log.WithFormatter(formatter)), nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// CheckHealth performs a simple storage probe.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("store not open")
	}
	_, err := r.store.Collections()
	return err
}

// Store exposes the repository store for opening typed collections.
func (r *Runtime) Store() *repository.Store { return r.store }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the process logger.
func (r *Runtime) Logger() log.Logger { return r.logger }
