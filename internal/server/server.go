package server

import (
	"context"
	"log"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/biggyd143/homebridge-casatunes/internal/api"
	"github.com/biggyd143/homebridge-casatunes/internal/auth"
	"github.com/biggyd143/homebridge-casatunes/internal/bridge"
	"github.com/biggyd143/homebridge-casatunes/internal/casatunes"
	"github.com/biggyd143/homebridge-casatunes/internal/config"
	"github.com/biggyd143/homebridge-casatunes/internal/events"
	"github.com/biggyd143/homebridge-casatunes/internal/registry"
	"github.com/biggyd143/homebridge-casatunes/internal/store"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, wrapped.status, time.Since(start).Round(time.Millisecond))
	})
}

// Options controls server wiring.
type Options struct {
	// DisableRefresh skips the startup discovery cycle and the periodic
	// schedule. Used by tests that drive Refresh directly.
	DisableRefresh bool
}

// NewHandler builds the HTTP handler and returns a shutdown function.
func NewHandler(cfg config.Config, options Options) (http.Handler, func(context.Context) error, error) {
	log.Printf("Using database: %s", cfg.SQLiteDBPath)
	dbPair, err := store.Init(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(requestLoggerMiddleware)
	router.Use(api.RequestIDMiddleware)
	router.Use(api.RecovererMiddleware)
	router.Use(auth.Middleware(cfg))

	registerHealthRoutes(router)

	pairingStore := auth.NewPairingStore(5 * time.Minute)
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	pairingStore.StartCleanup(shutdownCtx, time.Minute)
	auth.RegisterRoutes(router, pairingStore, cfg)

	hub := events.NewHub(nil)
	events.RegisterRoutes(router, hub)

	accessoryRegistry := registry.NewMemory()
	repository := store.NewRepository(dbPair)
	fanout := bridge.MultiRegistry{accessoryRegistry, repository, hub}

	client := casatunes.NewClient(cfg.CasaTunesURI, time.Duration(cfg.CasaTunesTimeoutMs)*time.Millisecond)
	fetcher := bridge.NewFetcher(client, cfg.CasaTunesConfigured(), nil)
	cache := bridge.NewAccessoryCache()
	engine := bridge.NewEngine(client, cache, fanout, nil)

	schedule := cfg.RefreshSchedule
	if options.DisableRefresh {
		schedule = ""
	}
	service := bridge.NewService(fetcher, cache, fanout, repository, schedule, nil)
	if !options.DisableRefresh {
		if err := service.Start(context.Background()); err != nil {
			shutdownCancel()
			dbPair.Close()
			return nil, nil, err
		}
	}
	bridge.RegisterRoutes(router, accessoryRegistry, engine, service)

	shutdown := func(ctx context.Context) error {
		shutdownCancel()
		service.Stop()
		hub.Close()
		if ctx == nil {
			ctx = context.Background()
		}
		return dbPair.Close()
	}

	return router, shutdown, nil
}

func registerHealthRoutes(router chi.Router) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		response := map[string]any{
			"status":    "healthy",
			"service":   "casatunes-bridge",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		return api.WriteJSON(w, http.StatusOK, response)
	}))
	router.Method(http.MethodGet, "/v1/health/live", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}))
	router.Method(http.MethodGet, "/v1/health/ready", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}))
}
