package http

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"reserve/config"
	"reserve/shared/constant"
	"reserve/transport/http/middleware"
	"reserve/transport/http/router"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

type HTTP struct {
	Config     *config.Config
	Router     router.Router
	Middleware middleware.AppMiddleware
	server     *http.Server
	mux        chi.Router
	muxOnce    sync.Once
}

func New(cfg *config.Config, r router.Router, appMiddleware middleware.AppMiddleware) *HTTP {
	return &HTTP{
		Config:     cfg,
		Router:     r,
		Middleware: appMiddleware,
	}
}

// Serve blocks until the process receives SIGINT or SIGTERM, then drains
// in-flight requests within the configured grace period.
func (h *HTTP) Serve() {
	h.server = &http.Server{
		Addr:              net.JoinHostPort(h.Config.Server.Host, h.Config.Server.Port),
		Handler:           h.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})

	go h.respondToSigterm(shutdownDone)

	log.Info().Str("port", h.Config.Server.Port).Msg("Starting up HTTP server.")

	if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Failed to start HTTP server")
	}

	<-shutdownDone
}

// ServeHTTP lets the service run behind serverless adapters that hand over raw
// requests instead of owning a listener.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler().ServeHTTP(w, r)
}

func (h *HTTP) handler() chi.Router {
	h.muxOnce.Do(func() {
		h.mux = h.setupRoutes()
	})

	return h.mux
}

func (h *HTTP) setupRoutes() chi.Router {
	mux := chi.NewRouter()

	if h.Config.App.CORS.Enable {
		mux.Use(cors.Handler(cors.Options{
			AllowCredentials: h.Config.App.CORS.AllowCredentials,
			AllowedHeaders:   h.Config.App.CORS.AllowedHeaders,
			AllowedMethods:   h.Config.App.CORS.AllowedMethods,
			AllowedOrigins:   h.Config.App.CORS.AllowedOrigins,
			MaxAge:           h.Config.App.CORS.MaxAgeSeconds,
		}))
	}

	mux.Use(h.Middleware.Tracing)
	mux.Use(h.Middleware.RateLimit())

	h.Router.SetupRoutes(mux)

	return mux
}

func (h *HTTP) respondToSigterm(done chan struct{}) {
	defer close(done)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh

	if h.Config.Server.Env == constant.ServerEnvDevelopment {
		log.Warn().Msg("Received SIGTERM. Shutting down now.")
		h.shutdown(0)

		return
	}

	gracePeriod := h.Config.Server.Shutdown.GracePeriodSeconds

	log.Info().Msg("Received SIGTERM.")
	log.Info().Int64("seconds", gracePeriod).Msg("Entering grace period.")

	h.shutdown(time.Duration(gracePeriod) * time.Second)

	log.Info().Msg("Cleanup completed. Shutting down now.")
}

func (h *HTTP) shutdown(gracePeriod time.Duration) {
	ctx := context.Background()

	if gracePeriod > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gracePeriod)

		defer cancel()
	}

	if err := h.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down HTTP server cleanly")
	}
}
