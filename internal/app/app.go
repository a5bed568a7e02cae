// Package app wires the session, the REST client, the identity providers, the
// store and its effects into one runnable client.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/99minutos/console-auth/internal/api"
	"github.com/99minutos/console-auth/internal/api/handler"
	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/effects"
	"github.com/99minutos/console-auth/internal/core/ports"
	"github.com/99minutos/console-auth/internal/core/service"
	"github.com/99minutos/console-auth/internal/core/session"
	"github.com/99minutos/console-auth/internal/core/store"
	"github.com/99minutos/console-auth/internal/infrastructure/config"
	mongostore "github.com/99minutos/console-auth/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/console-auth/internal/infrastructure/db/redis"
	"github.com/99minutos/console-auth/internal/infrastructure/httpclient"
	"github.com/99minutos/console-auth/internal/infrastructure/identity"
	"github.com/99minutos/console-auth/internal/infrastructure/navigation"
	"github.com/99minutos/console-auth/internal/infrastructure/rest"
	"github.com/99minutos/console-auth/internal/infrastructure/storage"
	"github.com/99minutos/console-auth/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Options are the process-level hooks the caller supplies.
type Options struct {
	// Opener shows provider consent pages. Nil disables social sign-in.
	Opener identity.Opener
	// OnNavigate is told about view changes.
	OnNavigate navigation.Observer
	// KeyValueStore overrides the configured storage driver.
	KeyValueStore ports.KeyValueStore
}

// App is the assembled client.
type App struct {
	Config   *config.Config
	Session  *session.Manager
	Store    *store.Store
	Service  *service.AuthService
	Views    *navigation.Router
	Identity *identity.Backend

	runner  *effects.Runner
	checks  map[string]handler.Check
	closers []func(context.Context) error
	log     zerolog.Logger
}

// New builds every component. Effects run under ctx until it is cancelled.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, checks: make(map[string]handler.Check), log: log}

	kv := opts.KeyValueStore
	if kv == nil {
		var err error
		if kv, err = a.openStorage(ctx); err != nil {
			return nil, err
		}
	}
	a.checks["storage"] = func(ctx context.Context) error {
		_, _, err := kv.Get(ctx, domain.KeyToken)
		return err
	}

	a.Session = session.NewManager(ctx, kv, logger.Named(log, "session"))

	httpClient := httpclient.NewClient(kv, cfg.HTTPTimeout, logger.Named(log, "interceptor"))
	backend, err := rest.New(cfg.AuthAPI, httpClient, logger.Named(log, "rest"))
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Views = navigation.NewRouter(domain.RouteRoot, opts.OnNavigate, logger.Named(log, "navigation"))
	a.Store = store.New(logger.Named(log, "store"))
	a.Identity = identity.NewBackend(logger.Named(log, "identity"), a.providers(opts.Opener)...)

	a.Service = service.NewAuthService(
		backend,
		a.Session,
		a.Views,
		a.Store,
		logger.Named(log, "auth"),
		service.WithDetailedErrors(cfg.DetailedErrors),
		service.WithIdentity(a.Identity),
	)

	a.runner = effects.NewRunner(a.Store, logger.Named(log, "effects"))
	effects.NewAuthEffects(a.Service, a.Views, logger.Named(log, "effects")).Bind(a.runner)
	a.runner.Start(ctx)
	a.Store.AddListener(a.runner.Handle)

	return a, nil
}

func (a *App) openStorage(ctx context.Context) (ports.KeyValueStore, error) {
	cfg := a.Config
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil
	case config.StorageRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis session store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		a.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return redisstore.NewSessionStore(client, cfg.Redis.Prefix, cfg.Redis.TTL), nil
	case config.StorageMongo:
		db, disconnect, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, fmt.Errorf("open mongo session store: %w", err)
		}
		a.closers = append(a.closers, disconnect)
		a.checks["mongodb"] = func(ctx context.Context) error { return db.Client().Ping(ctx, nil) }
		return mongostore.NewSessionStore(db, cfg.Mongo.Collection), nil
	default:
		fs, err := storage.NewFileStore(cfg.Storage.SessionFile, logger.Named(a.log, "storage"))
		if err != nil {
			return nil, fmt.Errorf("open session file: %w", err)
		}
		a.log.Debug().Str("path", fs.Path()).Msg("using session file")
		return fs, nil
	}
}

func (a *App) providers(open identity.Opener) []*identity.Provider {
	if open == nil {
		return nil
	}
	var out []*identity.Provider
	if g := a.Config.Google; g.Enabled() {
		out = append(out, identity.NewProvider(
			identity.GoogleConfig(g.ClientID, g.ClientSecret, g.CallbackPort), nil, open, a.log))
	}
	if f := a.Config.Facebook; f.Enabled() {
		out = append(out, identity.NewProvider(
			identity.FacebookConfig(f.ClientID, f.ClientSecret, f.CallbackPort), nil, open, a.log))
	}
	return out
}

// Dispatch sends action and waits for one of until, the way a form submit
// would.
func (a *App) Dispatch(ctx context.Context, action domain.Action, until ...domain.ActionType) (domain.Action, error) {
	return a.Store.Await(ctx, action, until...)
}

// Handler builds the agent HTTP API.
func (a *App) Handler() *echo.Echo {
	return api.NewRouter(api.Deps{
		Store:        a.Store,
		AuthService:  a.Service,
		Session:      a.Session,
		Views:        a.Views,
		Checks:       a.checks,
		AwaitTimeout: a.Config.HTTPTimeout * 2,
		Log:          logger.Named(a.log, "agent"),
	})
}

// Serve runs the agent API on Config.AgentAddr until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.AgentAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", srv.Addr).Msg("agent listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("agent server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info().Msg("agent shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close waits for running effects and releases storage connections.
func (a *App) Close(ctx context.Context) error {
	if a.runner != nil {
		a.runner.Wait()
	}
	var errs []error
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
