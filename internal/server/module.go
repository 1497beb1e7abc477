package server

import (
	"context"

	"github.com/matheus3301/counsel/internal/auth"
	"github.com/matheus3301/counsel/internal/config"
	"github.com/matheus3301/counsel/internal/lock"
	"github.com/matheus3301/counsel/internal/logging"
	"github.com/matheus3301/counsel/internal/profile"
	"github.com/matheus3301/counsel/internal/ratelimit"
	"github.com/matheus3301/counsel/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile string
	Config  config.Server
	Debug   bool
}

// Module returns the fx module for counseld, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("counseld",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideLock,
			provideStore,
			provideSigner,
			provideLimiter,
			provideRegistry,
			provideHandlers,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.Profile, "counseld"), p.Profile, "counseld",
		logging.Options{Console: true, Debug: p.Debug})
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.LockPath(p.Profile), p.Config.Listen)
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideStore depends on the lock so the database is only opened by its holder.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.ServerDBPath(p.Profile)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideSigner(p Params) (*auth.Signer, error) {
	return auth.NewSigner(p.Config.JWTSecret, p.Config.TokenTTL.Duration)
}

func provideLimiter(p Params) *ratelimit.PerKey {
	return ratelimit.New(p.Config.SendRate, p.Config.SendBurst)
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func provideHandlers(p Params, db *store.DB, limiter *ratelimit.PerKey, logger *zap.Logger) *ChatHandlers {
	return NewChatHandlers(db, limiter, p.Config.PresenceWindow.Duration, logger)
}

func provideServer(p Params, db *store.DB, signer *auth.Signer, h *ChatHandlers, reg *prometheus.Registry, logger *zap.Logger) (*Server, error) {
	return NewServer(p.Config.Listen, Deps{DB: db, Signer: signer, Handlers: h, Registry: reg, Logger: logger})
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("counseld stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
