package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/quillhq/quill/internal/auth"
	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/handler"
	"github.com/quillhq/quill/internal/metrics"
	"github.com/quillhq/quill/internal/middleware"
	"github.com/quillhq/quill/internal/realtime"
	"github.com/quillhq/quill/internal/service"
	"github.com/quillhq/quill/internal/validation"
	"github.com/quillhq/quill/internal/vision"
)

// Deps are the collaborators NewRouter wires into handlers.
// Detector, Metrics and Realtime may be nil.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *validation.Validator

	Posts       *service.PostService
	Auth        *service.AuthService
	Predictions handler.Predictor
	Employees   handler.EmployeesLister
	Detector    vision.Detector

	RateLimiter middleware.IPRateLimiter
	Metrics     metrics.Snapshotter
	Recorder    metrics.Recorder
	Realtime    *realtime.Server
	Health      []handler.Dependency
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(d Deps) *chi.Mux {
	cfg, logger := d.Config, d.Logger
	if d.Validator == nil {
		d.Validator = validation.Default()
	}

	h := handler.New()
	healthHandler := handler.NewHealthHandler(d.Health...)
	metricsHandler := handler.NewMetricsHandler(d.Metrics)
	postHandler := handler.NewPostHandler(d.Posts, d.Validator, cfg.MaxPageSize, logger)
	authHandler := handler.NewAuthHandler(d.Auth, d.Validator, handler.CookieConfig{
		Secure: cfg.CookieSecure,
		Domain: cfg.CookieDomain,
	}, logger)
	showcaseHandler := handler.NewShowcaseHandler(d.Validator, cfg.DemoMaxPageSize, logger)
	personHandler := handler.NewPersonHandler(d.Validator, logger)
	predictionHandler := handler.NewPredictionHandler(d.Predictions, d.Validator, logger)
	faceHandler := handler.NewFaceHandler(d.Detector, d.Recorder, logger)
	employeesHandler := handler.NewEmployeesHandler(d.Employees, handler.UpstreamBudget(cfg.WriteTimeout), logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.Debug))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	corsCfg.AllowCredentials = cfg.CORSAllowCredentials
	r.Use(middleware.CORS(corsCfg))

	// Probes and metrics are never rate limited.
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	authCfg := middleware.AuthConfig{Logger: logger, Resolver: d.Auth}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitIP(middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: d.RateLimiter,
			Enabled: cfg.RateLimitEnabled,
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
		}))
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		r.Use(middleware.CSRF(middleware.CSRFConfig{
			Logger:           logger,
			Signer:           auth.NewCSRFSigner(cfg.CSRFSecret),
			SensitiveCookies: []string{middleware.TokenCookieName},
			CookieSecure:     cfg.CookieSecure,
			CookieDomain:     cfg.CookieDomain,
		}))

		r.Get("/", h.Hello)

		// Blog
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.List)
			r.Post("/", postHandler.Create)
			r.Get("/{id}", postHandler.Get)
			r.Patch("/{id}", postHandler.Update)
			r.Delete("/{id}", postHandler.Delete)
			r.Post("/{id}/comments", postHandler.CommentOnPost)
		})
		r.Post("/comments", postHandler.CreateComment)

		// Accounts
		r.Post("/register", authHandler.Register)
		r.Post("/token", authHandler.Token)
		r.Post("/login", authHandler.Login)
		r.Get("/csrf", authHandler.CSRF)
		r.With(middleware.BearerAuth(authCfg)).Get("/protected-route", authHandler.ProtectedRoute)
		r.Group(func(r chi.Router) {
			r.Use(middleware.CookieAuth(authCfg))
			r.Get("/me", authHandler.Me)
			r.Post("/me", authHandler.UpdateMe)
		})

		// Static guards
		r.With(middleware.APIToken(cfg.APIToken)).Get("/api-token/protected-route", h.Hello)
		r.With(middleware.SecretHeader(cfg.SecretHeaderValue)).Get("/secret/protected-route", h.Hello)
		r.Route("/router", func(r chi.Router) {
			r.Use(middleware.SecretHeader(cfg.SecretHeaderValue))
			r.Get("/route1", h.Hello)
			r.Get("/route2", h.Hello)
		})

		// Request handling showcase
		r.Get("/users", showcaseHandler.ListUsers)
		r.Get("/users/{id}", showcaseHandler.UserByID)
		r.Get("/users/{type}/{id}", showcaseHandler.UserByType)
		r.Post("/users/form", showcaseHandler.UserForm)
		r.Post("/users/priority", showcaseHandler.Priority)
		r.Get("/license-plates/{license}", showcaseHandler.LicensePlate)
		r.Get("/items", showcaseHandler.Items)
		r.Get("/things", showcaseHandler.Things)
		r.Get("/headers/hello", showcaseHandler.HelloHeader)
		r.Get("/headers/user-agent", showcaseHandler.UserAgent)
		r.Get("/request", showcaseHandler.RequestPath)
		r.Get("/cookie", showcaseHandler.SetCookie)
		r.Get("/custom-header", showcaseHandler.CustomHeader)
		r.Post("/files", showcaseHandler.UploadFile)
		r.Post("/files/info", showcaseHandler.UploadFileInfo)
		r.Post("/files/multiple", showcaseHandler.UploadFiles)
		r.Get("/redirect", showcaseHandler.Redirect)
		r.Get("/new-url", showcaseHandler.NewURL)
		r.Get("/xml", showcaseHandler.XML)
		r.Get("/cat", showcaseHandler.Cat)
		r.Post("/password", showcaseHandler.Passwords)

		// Validation showcase
		r.Post("/persons", personHandler.CreatePerson)
		r.Post("/registrations", personHandler.Register)
		r.Post("/values", personHandler.Values)

		// Inference and integrations
		r.Post("/prediction", predictionHandler.Predict)
		r.Delete("/cache", predictionHandler.ClearCache)
		r.Post("/face-detection", faceHandler.Detect)
		r.Get("/employees", employeesHandler.List)

		if d.Realtime != nil {
			r.Get("/ws/echo", d.Realtime.Echo)
			r.Get("/ws/greet", d.Realtime.Greet)
			r.Get("/ws/clock", d.Realtime.Clock)
			r.Get("/ws/chat", d.Realtime.Chat)
			r.Get("/ws/face-detection", d.Realtime.FaceDetection)
		}
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
