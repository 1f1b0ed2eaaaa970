package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"farm-registry/internal/adapters/auth/iam"
	"farm-registry/internal/platform/config"
	"farm-registry/internal/platform/logger"
	"farm-registry/internal/ports/auth"
	"farm-registry/internal/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Verifier devuelve nil (modo dev, X-Debug-User-ID) si no hay IAM configurado.
func Verifier(cfg config.Auth) (auth.AuthVerifier, error) {
	if cfg.IAMBaseURL == "" {
		return nil, nil
	}
	v, err := iam.NewVerifier(iam.Config{
		BaseURL: cfg.IAMBaseURL,
		APIKey:  cfg.IAMAPIKey,
		Timeout: cfg.IAMTimeout,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Run levanta el server HTTP y lo apaga ordenadamente cuando se cancela ctx.
func Run(ctx context.Context, cfg config.Config, log logger.Logger) error {
	verifier, err := Verifier(cfg.Auth)
	if err != nil {
		return err
	}
	if verifier == nil {
		log.Warn("no IAM configured: accepting X-Debug-User-ID", nil)
	}

	store, err := router.OpenStorage(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("closing storage", map[string]any{"error": err.Error()})
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: router.NewRouter(router.Options{
			AuthVerifier: verifier,
			Logger:       log,
			Registry:     reg,
			Storage:      store,
			PageSize:     cfg.Pagination.PageSize,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{"addr": cfg.HTTP.Addr, "driver": cfg.Database.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
