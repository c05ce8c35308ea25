package main

import (
	"context"
	"net/http"
	"time"

	"certia/internal/notify"
	"certia/internal/objectstore"
	"certia/internal/realtime"
	"certia/internal/render"
	"certia/internal/signature"
	"certia/internal/store"
	"certia/internal/templates"
	"certia/internal/workflow"
	"certia/pkg/authn"
	"certia/pkg/db"
	"certia/pkg/domain"
	"certia/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// ProfileStore is the slice of the persistence layer the auth and admin
// handlers touch directly.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p domain.Profile, passwordHash string) error
	GetProfile(ctx context.Context, id string) (domain.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (domain.Profile, string, error)
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, upd store.ProfileUpdate) (domain.Profile, error)
	DeleteProfileCascade(ctx context.Context, id string) error
	CountRows(ctx context.Context, table, column, value string) (int, error)
	CountSubmissionsByStatus(ctx context.Context) (map[domain.Status]int, error)
	CompanySubmissionStats(ctx context.Context, companyID string) (store.SubmissionStats, error)
}

type app struct {
	cfg      config
	logger   *zap.Logger
	profiles ProfileStore
	engine   *workflow.Engine
	tm       *templates.Manager
	objects  objectstore.Store
	provider signature.Provider
	hub      *realtime.Hub
	mailer   notify.Mailer
}

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	pool := db.MustConnect()
	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	st := store.New(pool)

	objects := objectstore.NewPG(st, cfg.BaseURL)
	provider := signature.NewMock(objects, st, cfg.BaseURL)

	var mailer notify.Mailer = notify.Noop{}
	if cfg.EmailAPIKey != "" {
		mailer = notify.New(cfg.EmailBaseURL, cfg.EmailAPIKey, cfg.EmailFrom)
	} else {
		log.Info("RESEND_API_KEY not set, email notifications disabled")
	}

	a := &app{
		cfg:      cfg,
		logger:   log,
		profiles: st,
		engine:   workflow.NewEngine(st, render.New(), provider, mailer, log, cfg.AppName),
		tm:       templates.NewManager(st),
		objects:  objects,
		provider: provider,
		hub:      realtime.NewHub(),
		mailer:   mailer,
	}

	go a.hub.Listen(context.Background(), pool, log)

	r := newRouter(a)
	log.Info("certia server listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newRouter(a *app) chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger(a.logger))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	registerAuthRoutes(r, a)
	registerFileServeRoutes(r, a)
	registerSigningCallbackRoutes(r, a)

	r.Group(func(api chi.Router) {
		api.Use(authn.Middleware(a.cfg.JWTSecret))
		registerTemplateRoutes(api, a)
		registerSubmissionRoutes(api, a)
		registerFileUploadRoutes(api, a)
		registerAdminRoutes(api, a)
		registerEventRoutes(api, a)
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("took", time.Since(start)))
		})
	}
}
