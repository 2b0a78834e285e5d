package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/typecache-go/core/cache"
)

// DefaultCollectInterval is used when Config.CollectInterval is zero.
const DefaultCollectInterval = time.Minute

type Config struct {
	Context context.Context
	Log     *slog.Logger
	ID      string

	// Resolver supplies Options for new stores (default: cache.DefaultOptions).
	Resolver cache.OptionsResolver
	// Metrics, when set, instruments every store.
	Metrics      cache.Metrics
	StoreOptions []cache.StoreOption

	// CollectInterval is how often stale entries are swept from all stores.
	// Zero means DefaultCollectInterval; negative disables sweeping.
	CollectInterval time.Duration
}

// App owns a cache Registry and its background collector.
type App struct {
	ctx       context.Context
	cancelCtx context.CancelFunc
	log       *slog.Logger
	registry  *cache.Registry
	interval  time.Duration

	startOnce sync.Once
	done      chan struct{}
}

func New(config Config) (app *App, err error) {
	app = &App{done: make(chan struct{})}

	if config.ID == "" {
		config.ID = fmt.Sprintf("app-%s", gonanoid.Must(6))
	}

	// === logger ===
	if config.Log == nil {
		config.Log = slog.Default()
	}
	app.log = config.Log.With(slog.String("app", config.ID))

	// === context ===
	if config.Context == nil {
		config.Context = context.Background()
	}
	app.ctx, app.cancelCtx = context.WithCancel(config.Context)

	// === collector ===
	switch {
	case config.CollectInterval == 0:
		app.interval = DefaultCollectInterval
	case config.CollectInterval > 0:
		app.interval = config.CollectInterval
	}

	// === registry ===
	storeOpts := make([]cache.StoreOption, 0, len(config.StoreOptions)+1)
	if config.Metrics != nil {
		storeOpts = append(storeOpts, cache.WithMetrics(config.Metrics))
	}
	storeOpts = append(storeOpts, config.StoreOptions...)

	app.registry = cache.NewRegistry(cache.RegistryOptions{
		ID:           config.ID,
		Log:          config.Log,
		Resolver:     config.Resolver,
		StoreOptions: storeOpts,
	})

	app.log.Debug("creating app", slog.Duration("collect_interval", app.interval))

	return app, nil
}

func (a *App) Registry() *cache.Registry { return a.registry }

// Context is cancelled when the app stops.
func (a *App) Context() context.Context { return a.ctx }

// Run starts the background collector. It returns an error if the app was
// already stopped; calling it again while running is a no-op.
func (a *App) Run() (err error) {
	if err := a.ctx.Err(); err != nil {
		return err
	}

	a.startOnce.Do(func() {
		go func() {
			defer close(a.done)
			a.registry.RunCollector(a.ctx, a.interval)
			<-a.ctx.Done()
		}()
		a.log.Info("app started")
	})

	return nil
}

// Stop cancels the app context. It is safe to call more than once.
func (a *App) Stop() {
	a.cancelCtx()
	// never started: nothing will close done
	a.startOnce.Do(func() { close(a.done) })
}

// Done is closed once the app has stopped.
func (a *App) Done() <-chan struct{} { return a.done }

// Shutdown stops the app and waits for the collector to exit or ctx to end.
func (a *App) Shutdown(ctx context.Context) error {
	a.Stop()
	select {
	case <-a.done:
		a.log.Info("app stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func Run(config Config) (app *App, err error) {
	app, err = New(config)
	if err != nil {
		return nil, err
	}

	err = app.Run()
	if err != nil {
		return nil, err
	}

	return app, nil
}

// GetStore is cache.GetStore on the app's registry.
func GetStore[K comparable, V any](a *App, name string, opts ...cache.StoreOption) (*cache.Store[K, V], error) {
	return cache.GetStore[K, V](a.ctx, a.registry, name, opts...)
}
