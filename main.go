package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"media-ingest/internal/handlers"
	"media-ingest/internal/logging"
	"media-ingest/internal/memory"
	"media-ingest/internal/middleware"
	"media-ingest/internal/pipeline"
	"media-ingest/internal/startup"
	"media-ingest/internal/thumbnail"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	memory.ConfigureLimit()
	thumbnail.InitVips()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := pipeline.Open(ctx, config)
	if err != nil {
		thumbnail.ShutdownVips()
		logging.Fatal("%v", err)
	}

	if config.WatchMedia {
		go func() {
			if err := p.Importer.Watch(ctx, "files", config.MediaDir, config.WatchDebounce); err != nil {
				logging.Error("Media watcher stopped: %v", err)
			}
		}()
	}

	h := handlers.New(p.Importer, p.DB, p.Thumbnails, p.Hub)
	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // event streams stay open
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan struct{})
	go handleShutdown(srv, p, cancel, done)

	startup.LogServerStarted(config.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logger(config.LogHealthChecks))
	r.Use(middleware.Metrics("/metrics", "/health"))
	h.Register(r)
	return r
}

func handleShutdown(srv *http.Server, p *pipeline.Pipeline, cancel context.CancelFunc, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()

	cancel()

	// Event streams end when the hub closes, so the pipeline goes first.
	p.Close()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	thumbnail.ShutdownVips()
	startup.LogShutdownComplete()
}
