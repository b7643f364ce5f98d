package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/Shiva0457/MQTT-protocol/agent/internal/config"
	"github.com/Shiva0457/MQTT-protocol/agent/internal/publisher"
	"github.com/Shiva0457/MQTT-protocol/agent/internal/sensor"
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
	level.Set(cfg.Agent.Log.SlogLevel())
	slog.SetDefault(slog.New(newHandler(os.Stdout, cfg.Agent.Log.Format, level)))

	slog.Info("sensor-agent starting",
		"config", *configPath,
		"broker", cfg.Agent.Broker,
		"topic", cfg.Agent.Topic,
		"interval", cfg.Agent.PublishInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sens := sensor.New(cfg.Agent.Sensor, time.Now().UnixNano())
	pub := publisher.New(cfg.Agent)
	go pub.Run(ctx)

	// Interval, sensor shape and log level are hot-reloadable; broker
	// settings need a restart.
	intervals := make(chan time.Duration, 1)
	go func() {
		err := config.Watch(ctx, *configPath, func(next *config.Config) {
			level.Set(next.Agent.Log.SlogLevel())
			sens.Reconfigure(next.Agent.Sensor)
			select {
			case <-intervals:
			default:
			}
			intervals <- next.Agent.PublishInterval
		})
		if err != nil {
			slog.Warn("config watch disabled", "err", err)
		}
	}()

	interval := cfg.Agent.PublishInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			published, evicted := pub.Stats()
			slog.Info("sensor-agent shutting down", "published", published, "evicted", evicted)
			return

		case d := <-intervals:
			if d != interval {
				interval = d
				ticker.Reset(d)
				slog.Info("publish interval changed", "interval", d)
			}

		case <-ticker.C:
			r := sens.Read()
			pub.Publish(r)
			slog.Debug("reading taken", "temperature", r.Temperature, "humidity", r.Humidity)
		}
	}
}

// newHandler picks the slog handler for format: tint for "text", JSON otherwise.
func newHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	if format == "text" {
		return tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.TimeOnly})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}
