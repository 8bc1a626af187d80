/*
Package main is the entry point for the room relay.

It is responsible for loading configuration, initializing the global logging system,
starting the relay hub, setting up the HTTP server, and gracefully handling operating
system interrupt signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"roomrelay/internal/app/chat"
	"roomrelay/internal/app/relay"
	"roomrelay/internal/configs"
	"roomrelay/internal/handler"
	"roomrelay/internal/pkg/limiter"
	"roomrelay/internal/pkg/logx"
)

func main() {
	configPath := pflag.String("config", os.Getenv(configs.EnvConfigFile), "path to a YAML config file")
	port := pflag.Int("port", 0, "listen port (overrides config and PORT)")
	pflag.Parse()

	cfg, err := configs.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *port != 0 {
		cfg.Port = *port
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Invalid --port: %v\n", err)
			os.Exit(1)
		}
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("default_room", cfg.DefaultRoom).
		Bool("leave_notices", cfg.LeaveNotices).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := chat.NewSessions()
	hub := relay.NewHub(relay.NewRegistry(), sessions, relay.Options{
		DefaultRoom:     cfg.DefaultRoom,
		LeaveNotices:    cfg.LeaveNotices,
		MaxContentBytes: cfg.MaxContentBytes,
	})

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	var connectLimiter *limiter.IPRateLimiter
	if cfg.ConnectRate > 0 {
		connectLimiter = limiter.NewIPRateLimiter(hubCtx, rate.Limit(cfg.ConnectRate), cfg.ConnectBurst)
	}

	var apiLimiter *limiter.IPRateLimiter
	if cfg.APIRate > 0 {
		apiLimiter = limiter.NewIPRateLimiter(hubCtx, rate.Limit(cfg.APIRate), cfg.APIBurst)
	}

	router := handler.Router(&handler.AppDeps{
		Hub:            hub,
		Sessions:       sessions,
		Config:         cfg,
		ConnectLimiter: connectLimiter,
		APILimiter:     apiLimiter,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info("Room relay starting", "addr", "http://localhost"+serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// hijacked WebSocket connections are not tracked by Shutdown; CloseAll ends them
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	sessions.CloseAll()

	stopHub()
	select {
	case <-hub.Done():
	case <-shutdownCtx.Done():
		logx.Warn("Hub did not stop before the shutdown deadline")
	}

	logx.Info("Server gracefully stopped.")
}
