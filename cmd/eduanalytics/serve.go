package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func (a *app) runServe(ctx context.Context, args []string) error {
	fs := newFlagSet("serve")
	port := fs.Int("port", a.settings.MetricsPort, "Port for /metrics and /health")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown metrics server")
		}
	}()

	log.Info().Int("port", *port).Msg("Serving metrics")
	err := server.ListenAndServe()
	cancel()
	<-stopped
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	log.Info().Msg("Metrics server stopped")
	return nil
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := a.engine.Status()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","risk_method":%q,"success_method":%q}`, status.RiskMethod, status.SuccessMethod)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
