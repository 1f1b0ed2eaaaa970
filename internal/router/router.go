package router

import (
	"net/http"

	_ "farm-registry/docs"
	"farm-registry/internal/domain/activity"
	"farm-registry/internal/domain/farms"
	"farm-registry/internal/domain/shares"
	"farm-registry/internal/middleware"
	"farm-registry/internal/platform/logger"
	"farm-registry/internal/platform/metrics"
	"farm-registry/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	Logger logger.Logger

	// Registry para /metrics. nil => registry propio (tests en paralelo no chocan).
	Registry *prometheus.Registry

	// Storage vacío => in-memory.
	Storage Storage

	PageSize int
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	store := opts.Storage
	if store.Farms == nil {
		store = MemoryStorage()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	r.Use(middleware.AccessLog(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Services por módulo
	farmsSvc := farms.NewService(store.Farms, farms.Options{
		Logger:   log,
		Metrics:  metrics.New(reg),
		PageSize: opts.PageSize,
	})
	sharesSvc := shares.NewService(store.Shares)
	activitySvc := activity.NewService(store.Activity, farmsSvc)

	// Rutas por módulo
	farms.RegisterRoutes(r, farmsSvc, log)
	shares.RegisterRoutes(r, sharesSvc, farmsSvc)
	activity.RegisterRoutes(r, activitySvc, log)

	return r
}
