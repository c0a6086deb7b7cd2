package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"deal-radar/internal/config"
	"deal-radar/internal/scheduler"
	"deal-radar/internal/service"
	"deal-radar/internal/social"
	"deal-radar/internal/source"
	"deal-radar/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newAdapters() []source.Adapter {
	adapters := make([]source.Adapter, 0, len(a.Config.Sources))
	for _, src := range a.Config.Sources {
		if src.BaseURL == "" {
			adapters = append(adapters, source.NewStatic(src.Name, source.DemoCatalog(src.Name)))
			continue
		}
		adapters = append(adapters, source.NewHTTP(source.HTTPOptions{
			Name:      src.Name,
			BaseURL:   src.BaseURL,
			Timeout:   src.Timeout,
			UserAgent: src.UserAgent,
		}, a.Logger))
	}
	return adapters
}

func (a *App) newAnnouncer() (social.Announcer, func()) {
	if !a.Config.Social.Enabled {
		return nil, nil
	}
	if !a.Config.Social.Redis.Enabled {
		return social.NewLogAnnouncer(a.Logger), nil
	}

	redisCfg := a.Config.Social.Redis
	announcer := social.NewRedisAnnouncer(social.RedisOptions{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
		QueueKey: redisCfg.QueueKey,
	}, a.Logger)
	closer := func() {
		if err := announcer.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close announcement queue")
		}
	}
	return announcer, closer
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, storage.PoolConfig{
		DSN:          a.Config.Database.DSN,
		MaxOpenConns: a.Config.Database.MaxOpenConns,
		MaxIdleConns: a.Config.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// newService wires a batch service over an open store.
func (a *App) newService(store *storage.Store, announcer social.Announcer) *service.Service {
	return service.New(a.Config, store, store, store, announcer, nil, a.newAdapters(), a.Logger)
}

// Run executes the long-running scheduler with all enabled jobs.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn is required to run the scheduler")
	}
	if closeStore != nil {
		defer closeStore()
	}

	announcer, closeAnnouncer := a.newAnnouncer()
	if closeAnnouncer != nil {
		defer closeAnnouncer()
	}

	svc := a.newService(store, announcer)

	sched := scheduler.New(scheduler.Options{
		RunAtStart:   a.Config.Scheduler.RunAtStart,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	sched.Add(scheduler.Job{
		Name:     "price-watch",
		Interval: a.Config.Scheduler.WatchInterval,
		Run: func(ctx context.Context) error {
			_, err := svc.RunPriceWatch(ctx)
			return err
		},
	})
	sched.Add(scheduler.Job{
		Name:     "deals-radar",
		Interval: a.Config.Scheduler.RadarInterval,
		Run: func(ctx context.Context) error {
			_, err := svc.RunDealsRadar(ctx)
			return err
		},
	})
	sched.Add(scheduler.Job{
		Name:     "trend-finder",
		Interval: a.Config.Scheduler.TrendsInterval,
		Run: func(ctx context.Context) error {
			_, err := svc.RunTrendFinder(ctx)
			return err
		},
	})

	a.Logger.Info().Msg("starting batch scheduler")
	err = sched.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("scheduler terminated with error")
		return err
	}

	a.Logger.Info().Msg("scheduler stopped")
	return nil
}

// ExportOptions hold parameters for exporting trend-signal history.
type ExportOptions struct {
	ProductID string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
