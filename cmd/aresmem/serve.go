// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdhender/aresmem/config"
	"github.com/mdhender/aresmem/web/auth"
	"github.com/mdhender/aresmem/web/handlers"
	"github.com/mdhender/aresmem/web/metrics"
	"github.com/mdhender/aresmem/web/middleware"
	"github.com/mdhender/aresmem/web/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func cmdServe() *cobra.Command {
	var timeout time.Duration
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().String("addr", config.DefaultAddr, "HTTP listen address")
		cmd.Flags().String("data-path", config.DefaultDataPath, "path to the JSONL dataset")
		cmd.Flags().Bool("public-mode", true, "serve every endpoint without a key")
		cmd.Flags().String("api-key", "", "API key required when public mode is off")
		cmd.Flags().String("api-key-hash", "", "bcrypt hash of the API key")
		cmd.Flags().Int("rate-limit", 0, "requests per minute per client (0 disables)")
		cmd.Flags().Int("rate-burst", 20, "rate limiter burst size")
		cmd.Flags().Bool("trust-proxy", false, "identify clients by X-Forwarded-For")
		cmd.Flags().Bool("cors", true, "allow cross-origin requests")
		cmd.Flags().Bool("metrics", true, "expose /metrics")
		cmd.Flags().Bool("warm", true, "load the dataset before accepting requests")
		cmd.Flags().DurationVar(&timeout, "timeout", 0, "auto-shutdown after duration (e.g., 5s, 1m)")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "serve",
		Short:        "start the HTTP query service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, timeout)
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, timeout time.Duration) error {
	loader, err := store.NewLoader(cfg.DataPath)
	if err != nil {
		return err
	}
	log.Printf("store: data file %s\n", loader.Path())
	log.Printf("auth: %s\n", cfg.AuthPolicy())

	if cfg.Warm {
		// a missing file is not fatal; queries retry the load and report it
		if _, err := loader.Load(ctx); err != nil {
			log.Printf("store: warm load: %v\n", err)
		}
	}

	handler, err := newHandler(cfg, loader, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	if timeout > 0 {
		go func() {
			log.Printf("server: will auto-shutdown in %v", timeout)
			time.Sleep(timeout)
			log.Printf("server: timeout reached, initiating shutdown")
			shutdown <- os.Interrupt
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case <-shutdown:
	}
	log.Printf("server: shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown error: %w", err)
	}

	log.Printf("server: stopped")
	return nil
}

// newHandler wires the routes and middleware for cfg.
// When metrics are enabled the dataset gauges are registered on reg and
// /metrics serves gatherer, which must be the registry behind reg.
func newHandler(cfg *config.Config, loader *store.Loader, reg prometheus.Registerer, gatherer prometheus.Gatherer) (http.Handler, error) {
	gate := auth.NewGate(cfg.PublicMode, cfg.APIKey, cfg.APIKeyHash)
	h := handlers.New(loader, gate, handlers.Options{Metrics: cfg.Metrics})

	mux := http.NewServeMux()
	if cfg.Metrics {
		if err := metrics.RegisterDataset(reg, loader); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	h.Register(mux)

	var mws []middleware.Middleware
	mws = append(mws, middleware.Logging)
	if cfg.CORS {
		mws = append(mws, middleware.CORS)
	}
	if cfg.RateLimit > 0 {
		mws = append(mws, middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.TrustProxy).Middleware)
	}
	if cfg.Metrics {
		mws = append(mws, metrics.Middleware)
	}
	return middleware.Chain(mux, mws...), nil
}
