package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/quillhq/quill/internal/broadcast"
	"github.com/quillhq/quill/internal/cache"
	"github.com/quillhq/quill/internal/classifier"
	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/external"
	"github.com/quillhq/quill/internal/handler"
	"github.com/quillhq/quill/internal/jobs"
	"github.com/quillhq/quill/internal/metrics"
	"github.com/quillhq/quill/internal/realtime"
	"github.com/quillhq/quill/internal/server"
	"github.com/quillhq/quill/internal/service"
	"github.com/quillhq/quill/internal/validation"
	"github.com/quillhq/quill/internal/vision"
)

// App is the assembled API.
type App struct {
	Handler http.Handler

	stores    *Stores
	cache     *cache.Cache
	broker    *broadcast.Broker
	scheduler *jobs.Scheduler
}

// New connects every backend and builds the router. The scheduler is
// started; call RegisterShutdown to stop everything with the server.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		_ = stores.Close(ctx)
		return nil, err
	}

	a := &App{stores: stores, cache: c}
	if err := a.build(cfg, logger); err != nil {
		_ = c.Close()
		_ = stores.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config, logger *slog.Logger) error {
	if cfg.UsesDevCSRFSecret() {
		logger.Warn("CSRF_SECRET is not set; CSRF tokens are signed with a public development secret and can be forged",
			"env", cfg.Environment)
	}
	recorder := metrics.NewInMemory()

	model, err := loadClassifier(cfg.ClassifierModelPath, logger)
	if err != nil {
		return err
	}
	detector, err := loadDetector(cfg.FaceCascadePath, logger)
	if err != nil {
		return err
	}

	employees, err := external.NewEmployeesClient(external.EmployeesConfig{
		BaseURL: cfg.EmployeesAPIBaseURL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	postSvc := service.NewPostService(a.stores.Posts, recorder)
	authSvc := service.NewAuthService(a.stores.Users, a.cache, service.AuthConfig{TokenTTL: cfg.TokenTTL}, logger, recorder)
	predictionSvc := service.NewPredictionService(model, a.cache, logger, recorder)

	a.broker = broadcast.New(a.cache.Client(), logger)
	rt := realtime.New(realtime.Config{
		Logger:         logger,
		Recorder:       recorder,
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
		APIToken:       cfg.APIToken,
		ClockInterval:  cfg.ClockInterval,
		Broker:         a.broker,
		Detector:       detector,
		FaceQueueSize:  cfg.FaceQueueSize,
	})

	a.scheduler = jobs.NewScheduler(logger)
	if err := a.scheduler.Register("prune-expired-tokens", cfg.TokenPruneSchedule, jobs.PruneTokens(authSvc, logger)); err != nil {
		return err
	}
	a.scheduler.Start()

	deps := append([]handler.Dependency{}, a.stores.Dependencies()...)
	deps = append(deps, handler.Dependency{Name: "redis", Checker: a.cache})

	a.Handler = NewRouter(Deps{
		Config:      cfg,
		Logger:      logger,
		Validator:   validation.Default(),
		Posts:       postSvc,
		Auth:        authSvc,
		Predictions: predictionSvc,
		Employees:   employees,
		Detector:    detector,
		RateLimiter: a.cache,
		Metrics:     recorder,
		Recorder:    recorder,
		Realtime:    rt,
		Health:      deps,
	})
	return nil
}

// RegisterShutdown hooks the components into srv. Hooks run LIFO, so the
// scheduler and broker stop before the cache and stores they use.
func (a *App) RegisterShutdown(srv *server.Server) {
	srv.OnShutdown("stores", a.stores.Close)
	srv.OnShutdown("redis", func(context.Context) error { return a.cache.Close() })
	srv.OnShutdown("chat-broker", a.broker.Shutdown)
	srv.OnShutdown("scheduler", a.scheduler.Shutdown)
}

// Close stops the scheduler and broker, then releases the cache and stores.
// It mirrors the order RegisterShutdown gives the server.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(
		a.scheduler.Shutdown(ctx),
		a.broker.Shutdown(ctx),
		a.cache.Close(),
		a.stores.Close(ctx),
	)
}

// loadClassifier returns nil without a path; predictions then answer 503.
func loadClassifier(path string, logger *slog.Logger) (service.Classifier, error) {
	if path == "" {
		logger.Warn("CLASSIFIER_MODEL_PATH not set, /prediction is disabled")
		return nil, nil
	}
	m, err := classifier.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	logger.Info("classifier loaded", "path", path, "categories", m.CategoryNames())
	return m, nil
}

// loadDetector returns nil without a path; face detection then answers 503.
func loadDetector(path string, logger *slog.Logger) (vision.Detector, error) {
	if path == "" {
		logger.Warn("FACE_CASCADE_PATH not set, face detection is disabled")
		return nil, nil
	}
	d, err := vision.LoadPigoDetector(path, vision.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("load face cascade: %w", err)
	}
	logger.Info("face cascade loaded", "path", path)
	return d, nil
}
