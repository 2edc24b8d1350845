package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/duotrip/duotrip/internal/api"
	"github.com/duotrip/duotrip/internal/auth"
	"github.com/duotrip/duotrip/internal/config"
	"github.com/duotrip/duotrip/internal/ledger"
	"github.com/duotrip/duotrip/internal/places"
	"github.com/duotrip/duotrip/internal/realtime"
	"github.com/duotrip/duotrip/internal/service"
	"github.com/duotrip/duotrip/internal/storage/sqlite"
	"github.com/duotrip/duotrip/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	hub := realtime.NewHub()
	ledgers := ledger.NewManager(store, hub)
	defer ledgers.CloseAll()

	server := api.NewServer(
		service.NewTripService(store),
		ledgers,
		auth.NewPasswordAuthenticator(store),
		auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL.Duration),
		hub,
		places.NewFinder(
			places.NewClient(cfg.OverpassURL),
			places.NewCache(cfg.GeoCacheTTL.Duration),
		),
	)

	// h2c lets clients multiplex the SSE stream and API calls over one
	// plaintext HTTP/2 connection; TLS is terminated upstream.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(server.Routes(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
