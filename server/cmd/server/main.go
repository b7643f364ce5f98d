package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"google.golang.org/grpc"

	"github.com/Shiva0457/MQTT-protocol/server/internal/api"
	"github.com/Shiva0457/MQTT-protocol/server/internal/auth"
	"github.com/Shiva0457/MQTT-protocol/server/internal/broker"
	"github.com/Shiva0457/MQTT-protocol/server/internal/config"
	"github.com/Shiva0457/MQTT-protocol/server/internal/ingest"
	"github.com/Shiva0457/MQTT-protocol/server/internal/metrics"
	"github.com/Shiva0457/MQTT-protocol/server/internal/probe"
	"github.com/Shiva0457/MQTT-protocol/server/internal/store"
	"github.com/Shiva0457/MQTT-protocol/server/internal/subscriber"
	"github.com/Shiva0457/MQTT-protocol/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Server.Log.SlogLevel())
	slog.SetDefault(slog.New(newHandler(os.Stdout, cfg.Server.Log.Format, level)))

	slog.Info("sensor-dashboard starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"window", cfg.Server.Window.Capacity,
		"refresh", cfg.Server.RefreshInterval,
		"auth_mode", cfg.Server.Auth.Mode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	window, err := store.New(cfg.Server.Window.Capacity)
	if err != nil {
		slog.Error("failed to allocate sample window", "capacity", cfg.Server.Window.Capacity, "err", err)
		os.Exit(1)
	}
	adapter := ingest.New(window)

	// Optional in-process broker; the subscriber then dials it directly.
	if cfg.MQTT.Embedded.Enabled {
		brk, err := broker.New(cfg.MQTT.Embedded.Address)
		if err != nil {
			slog.Error("failed to create embedded broker", "err", err)
			os.Exit(1)
		}
		if err := brk.Start(); err != nil {
			slog.Error("failed to start embedded broker", "err", err)
			os.Exit(1)
		}
		defer brk.Close() //nolint:errcheck
		cfg.MQTT.Broker = dialable(brk.Addr())
	}

	sub := subscriber.New(cfg.MQTT, adapter.Handle)
	go sub.Run(ctx)

	hub := ws.New(window, cfg.Server.RefreshInterval, time.Local)
	go hub.Run(ctx)

	// gRPC health probe with the same API key as the HTTP surface.
	prb := probe.New(sub)
	interceptor := auth.UnaryInterceptor(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(interceptor))
	prb.Register(grpcSrv)
	go prb.Run(ctx)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		slog.Error("failed to listen on gRPC port", "port", cfg.Server.GRPCPort, "err", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("gRPC health listening", "port", cfg.Server.GRPCPort)
		if err := grpcSrv.Serve(lis); err != nil {
			slog.Error("gRPC server stopped", "err", err)
		}
	}()

	guard := auth.Middleware(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)
	httpMux := http.NewServeMux()
	httpMux.Handle("/", guard(api.New(api.Deps{
		Window:   window,
		Ingest:   adapter,
		MQTT:     sub,
		Refresh:  cfg.Server.RefreshInterval,
		Location: time.Local,
	})))
	httpMux.Handle("/ws/stream", guard(hub))
	httpMux.Handle("/metrics", metrics.Handler(metrics.Sources{
		Window:  window,
		Ingest:  adapter,
		MQTT:    sub,
		Clients: hub,
	}))

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	// Only the log level is hot-reloadable; everything else needs a restart.
	go func() {
		err := config.Watch(ctx, *configPath, func(next *config.Config) {
			if lv := next.Server.Log.SlogLevel(); lv != level.Level() {
				level.Set(lv)
				slog.Info("log level changed", "level", lv.String())
			}
		})
		if err != nil {
			slog.Warn("config watch disabled", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("sensor-dashboard shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	grpcSrv.GracefulStop()
}

// newHandler picks the slog handler for format: tint for "text", JSON otherwise.
func newHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	if format == "text" {
		return tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.TimeOnly})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// dialable turns a listener address such as ":1883" into one a client can dial.
func dialable(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || (host != "" && host != "0.0.0.0" && host != "::") {
		return addr
	}
	return net.JoinHostPort("127.0.0.1", port)
}
