package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/GoSim-25-26J-441/optimization-center/internal/centerd"
	"github.com/GoSim-25-26J-441/optimization-center/internal/history"
	"github.com/GoSim-25-26J-441/optimization-center/internal/notify"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
)

func main() {
	var configPath string
	var presetsPath string
	var grpcAddr string
	var httpAddr string
	var logLevel string
	var clockResolution time.Duration

	flag.StringVar(&configPath, "config", "", "path to a YAML config file (defaults are used when empty)")
	flag.StringVar(&presetsPath, "presets", "", "path to a YAML presets file")
	flag.StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (overrides config)")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.DurationVar(&clockResolution, "clock-resolution", 5*time.Millisecond, "how often session clocks catch up with the wall clock")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Error("failed to load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if grpcAddr != "" {
		cfg.Server.GRPCAddr = grpcAddr
	}
	if httpAddr != "" {
		cfg.Server.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger.SetDefault(logger.NewText(cfg.LogLevel, os.Stdout))

	var presets []config.Preset
	if presetsPath != "" {
		var err error
		presets, err = config.LoadPresets(presetsPath)
		if err != nil {
			logger.Error("failed to load presets", "path", presetsPath, "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	bus := notify.NewBus()

	var webhooks []*notify.Webhook
	for _, whCfg := range cfg.Webhooks {
		wh, err := notify.NewWebhook(whCfg)
		if err != nil {
			logger.Error("invalid webhook", "url", whCfg.URL, "error", err)
			stop()
			os.Exit(1)
		}
		wh.Attach(bus)
		webhooks = append(webhooks, wh)
	}

	var archive *history.Store
	if cfg.History.Path != "" {
		var err error
		archive, err = history.Open(cfg.History.Path)
		if err != nil {
			logger.Error("failed to open run history", "path", cfg.History.Path, "error", err)
			stop()
			os.Exit(1)
		}
		archive.Attach(bus)
		logger.Info("archiving completed runs", "path", archive.Path())
	}

	store := centerd.NewSessionStore(cfg, bus, centerd.WithClockResolution(clockResolution))

	httpOpts := []centerd.HTTPOption{centerd.WithPresets(presets)}
	if archive != nil {
		httpOpts = append(httpOpts, centerd.WithHistory(archive))
	}

	// TODO: Configure gRPC server security (e.g., TLS, authentication, rate limiting)
	// before using this service in a production environment.
	grpcServer := grpc.NewServer()
	centerd.RegisterOptimizationCenterServer(grpcServer, centerd.NewCenterGRPCServer(store, presets))

	grpcLis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen for gRPC", "addr", cfg.Server.GRPCAddr, "error", err)
		stop()
		os.Exit(1)
	}

	// No WriteTimeout: the events and frames endpoints hold the connection open.
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           centerd.NewHTTPServer(store, httpOpts...).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start servers.
	go func() {
		logger.Info("gRPC server listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(grpcLis); err != nil {
			logger.Error("gRPC server error", "error", err)
			stop()
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Closing the store ends every open stream so both servers can drain.
	store.Close()
	grpcServer.GracefulStop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	for _, wh := range webhooks {
		wh.Wait()
	}
	if archive != nil {
		if err := archive.Close(); err != nil {
			logger.Error("history close error", "error", err)
		}
	}
}
