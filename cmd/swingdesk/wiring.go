package main

import (
	"context"
	"fmt"

	"github.com/newthinker/swingdesk/internal/app"
	"github.com/newthinker/swingdesk/internal/collector"
	"github.com/newthinker/swingdesk/internal/collector/yahoo"
	"github.com/newthinker/swingdesk/internal/config"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/llm/factory"
	"github.com/newthinker/swingdesk/internal/logger"
	"github.com/newthinker/swingdesk/internal/metrics"
	"github.com/newthinker/swingdesk/internal/notifier"
	"github.com/newthinker/swingdesk/internal/notifier/telegram"
	"github.com/newthinker/swingdesk/internal/notifier/webhook"
	"github.com/newthinker/swingdesk/internal/storage/archive"
	"github.com/newthinker/swingdesk/internal/storage/signal"
	"go.uber.org/zap"
)

// runtime is everything a command needs, built from the config file.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	app     *app.App
	signals signal.Store
	metrics *metrics.Registry
}

func (rt *runtime) Close() {
	if err := rt.signals.Close(); err != nil {
		rt.log.Warn("closing signal store", zap.Error(err))
	}
	_ = rt.log.Sync()
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
		return config.Defaults(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setup loads config and builds the application with its storage, notifiers
// and optional LLM narrator. CLI commands pass withNotifiers=false so one-off
// runs do not page anyone.
func setup(ctx context.Context, withNotifiers bool) (*runtime, error) {
	log := logger.Must(debug)

	cfg, err := loadConfig(log)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	source, err := newSource(cfg)
	if err != nil {
		return nil, err
	}

	storage, err := newStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating watchlist storage: %w", err)
	}

	signals, err := newSignalStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating signal store: %w", err)
	}

	opts := []app.Option{}
	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		opts = append(opts, app.WithMetrics(reg))
	}

	provider, err := factory.New(cfg.LLM)
	if err != nil {
		signals.Close()
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if provider != nil {
		log.Info("narrative enabled", zap.String("provider", provider.Name()))
		opts = append(opts, app.WithLLM(provider))
	}

	a := app.New(cfg, source, storage, signals, log, opts...)

	if withNotifiers {
		notifiers, err := newNotifiers(cfg)
		if err != nil {
			signals.Close()
			return nil, err
		}
		for _, n := range notifiers {
			if err := a.RegisterNotifier(n); err != nil {
				signals.Close()
				return nil, fmt.Errorf("registering notifier %s: %w", n.Name(), err)
			}
			log.Info("notifier registered", zap.String("notifier", n.Name()))
		}
	}

	if err := a.Load(ctx); err != nil {
		signals.Close()
		return nil, fmt.Errorf("loading watchlists: %w", err)
	}

	return &runtime{cfg: cfg, log: log, app: a, signals: signals, metrics: reg}, nil
}

func newSource(cfg *config.Config) (collector.Source, error) {
	registry := collector.NewRegistry()
	registry.Register(yahoo.New())

	source, err := registry.Source(cfg.Collector.Provider)
	if err != nil {
		return nil, err
	}
	if err := source.Init(collector.Config{Enabled: true, Timeout: cfg.Collector.Timeout}); err != nil {
		return nil, fmt.Errorf("initializing %s collector: %w", source.Name(), err)
	}
	return source, nil
}

func newStorage(cfg *config.Config) (archive.Storage, error) {
	wl := cfg.Storage.Watchlists
	switch wl.Type {
	case "", "localfs":
		return archive.NewLocalFS(wl.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    wl.S3.Bucket,
			Endpoint:  wl.S3.Endpoint,
			Region:    wl.S3.Region,
			AccessKey: wl.S3.AccessKey,
			SecretKey: wl.S3.SecretKey,
			Prefix:    wl.S3.Prefix,
		})
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown storage type %q", wl.Type))
	}
}

func newSignalStore(cfg *config.Config) (signal.Store, error) {
	if dsn := cfg.Storage.Signals.DSN; dsn != "" {
		return signal.NewSQLiteStore(dsn)
	}
	return signal.NewMemoryStore(0), nil
}

func newNotifiers(cfg *config.Config) ([]notifier.Notifier, error) {
	var out []notifier.Notifier
	for name, nc := range cfg.Notifiers {
		if !nc.Enabled {
			continue
		}
		var (
			n   notifier.Notifier
			err error
		)
		switch name {
		case "telegram":
			n, err = telegram.New(nc.BotToken, nc.ChatID)
		case "webhook":
			n, err = webhook.New(nc.URL, nc.Headers)
		default:
			err = core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown notifier %q", name))
		}
		if err != nil {
			return nil, fmt.Errorf("creating notifier %s: %w", name, err)
		}
		out = append(out, n)
	}
	return out, nil
}
