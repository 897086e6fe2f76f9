package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/noblesavage/site/internal/cache"
	"github.com/noblesavage/site/internal/config"
	"github.com/noblesavage/site/internal/content"
	"github.com/noblesavage/site/internal/events"
	"github.com/noblesavage/site/internal/handler"
	"github.com/noblesavage/site/internal/metrics"
	"github.com/noblesavage/site/internal/middleware"
	"github.com/noblesavage/site/internal/notify"
	"github.com/noblesavage/site/internal/repository"
	"github.com/noblesavage/site/internal/server"
	"github.com/noblesavage/site/internal/service"
	"github.com/noblesavage/site/internal/site"
)

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the database schema before serving")
	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := initLogger(cfg, os.Stdout)
	logger.Info("starting site",
		"env", cfg.AppEnv,
		"port", cfg.AppPort,
		"database", cfg.HasDatabase(),
		"redis", cfg.HasRedis(),
	)

	var repo *repository.Repository
	if cfg.HasDatabase() {
		repo, err = repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", sanitizeError(err, cfg.DatabaseURL))
			return errors.New("connect to database")
		}
		logger.Info("connected to database", "url", redactURL(cfg.DatabaseURL))

		if migrate {
			if err := repo.Migrate(ctx); err != nil {
				repo.Close()
				return fmt.Errorf("migrate: %w", err)
			}
		}
	} else {
		logger.Warn("DATABASE_URL not set, submissions use the placeholder customer id",
			"placeholder_id", cfg.PlaceholderCustomerID,
		)
	}

	var redisCache *cache.Cache
	if cfg.HasRedis() {
		redisCache, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			if repo != nil {
				repo.Close()
			}
			logger.Error("failed to connect to redis", "error", sanitizeError(err, cfg.RedisURL))
			return errors.New("connect to redis")
		}
		logger.Info("connected to redis", "url", redactURL(cfg.RedisURL))
	}

	a, err := newApp(cfg, logger, repo, redisCache)
	if err != nil {
		return err
	}

	srv := server.New(setupRouter(a), server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	if repo != nil {
		srv.OnShutdown("database", func(context.Context) error {
			repo.Close()
			return nil
		})
	}
	if redisCache != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return redisCache.Close()
		})
	}

	if cfg.HasNotifier() && redisCache != nil {
		sender := notify.NewSender(cfg.NotifyWebhookURL, cfg.NotifyWebhookSecret, nil)
		worker := notify.NewWorker(notify.WorkerConfig{
			Redis:       redisCache.Client(),
			Sender:      sender,
			Logger:      logger,
			Metrics:     a.recorder,
			MaxAttempts: cfg.NotifyMaxAttempts,
		})
		go func() {
			if err := worker.Run(context.WithoutCancel(ctx)); err != nil {
				logger.Error("notify worker stopped", "error", err)
			}
		}()
		// Registered after redis so it stops before the client closes.
		srv.OnShutdown("notifier", worker.Shutdown)
		logger.Info("intake notifications enabled", "target_host", sender.Host())
	}

	return srv.Run(ctx)
}

// app holds everything the router needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pages    *site.Pages
	intakes  *service.IntakeService
	recorder *metrics.InMemoryRecorder
	limiter  middleware.SignupLimiter
	health   []handler.Dependency
}

// newApp wires the services. repo and redisCache may be nil.
func newApp(cfg *config.Config, logger *slog.Logger, repo *repository.Repository, redisCache *cache.Cache) (*app, error) {
	catalog, err := content.Load()
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if cfg.SiteName != "" {
		catalog.Site.Name = cfg.SiteName
	}

	recorder := metrics.NewInMemory()

	intakeCfg := service.IntakeConfig{
		PlaceholderID: cfg.PlaceholderCustomerID,
		Metrics:       recorder,
		Logger:        logger,
	}
	a := &app{
		cfg:      cfg,
		logger:   logger,
		pages:    site.New(catalog),
		recorder: recorder,
	}

	dbDep := handler.Dependency{Name: "database"}
	redisDep := handler.Dependency{Name: "redis"}

	if repo != nil {
		intakeCfg.Store = repo
		dbDep.Checker = repo
	}
	if redisCache != nil {
		intakeCfg.Cache = redisCache
		intakeCfg.Events = events.NewPublisher(redisCache.Client(), logger, recorder)
		redisDep.Checker = redisCache
		a.limiter = redisCache
	}

	a.intakes = service.NewIntakeService(intakeCfg)
	a.health = []handler.Dependency{dbDep, redisDep}

	return a, nil
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(a *app) *chi.Mux {
	r := chi.NewRouter()

	base := handler.New(a.pages, a.logger)
	r.NotFound(base.NotFound)
	r.MethodNotAllowed(base.MethodNotAllowed)

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(a.logger))
	r.Use(middleware.Recoverer(a.logger, a.cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: a.cfg.IsDevelopment(),
	}))
	r.Use(middleware.MaxBodySize(a.cfg.MaxRequestBodySize))

	healthHandler := handler.NewHealthHandler(a.health...)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", handler.NewMetricsHandler(a.recorder).Metrics)
	r.Handle("/static/*", site.Static())

	pageHandler := handler.NewPageHandler(a.pages, a.intakes, a.intakes, a.recorder, a.logger)

	signupLimit := middleware.RateLimitSignup(middleware.RateLimitConfig{
		Logger:    a.logger,
		Limiter:   a.limiter,
		Metrics:   a.recorder,
		Enabled:   a.cfg.RateLimitSignupEnabled,
		RPS:       a.cfg.RateLimitSignupRPS,
		Burst:     a.cfg.RateLimitSignupBurst,
		OnLimited: pageHandler.RateLimited,
	})

	pageHandler.Mount(r, signupLimit)

	apiHandler := handler.NewAPIHandler(a.intakes, a.intakes, a.intakes, a.logger)
	r.Route("/api", func(r chi.Router) {
		r.With(signupLimit).Post("/signup", apiHandler.Signup)
		r.Get("/customer/{"+site.CustomerIDParam+"}", apiHandler.Customer)

		r.Route("/v1", func(r chi.Router) {
			r.Use(middleware.AdminKey(middleware.AdminConfig{
				Logger:  a.logger,
				KeyHash: a.cfg.AdminAPIKeyHash,
			}))
			r.Get("/intakes", apiHandler.ListIntakes)
		})
	})

	return r
}
