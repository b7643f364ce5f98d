// Package probe reports subscriber liveness through the standard gRPC health
// service (grpc.health.v1.Health).
//
// Both the overall status ("") and Service follow the MQTT subscription:
// SERVING while it is connected, NOT_SERVING otherwise. The state is polled
// once a second, so a probe can lag a reconnect by up to that long.
package probe

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the named health service for the MQTT subscription.
const Service = "sensor.Subscriber"

// ConnState reports whether the subscription is up.
type ConnState interface {
	Connected() bool
}

// Probe mirrors a ConnState into a gRPC health server.
type Probe struct {
	hs       *health.Server
	conn     ConnState
	interval time.Duration
	serving  bool
}

// New creates a Probe that starts out NOT_SERVING.
func New(conn ConnState) *Probe {
	p := &Probe{hs: health.NewServer(), conn: conn, interval: time.Second}
	p.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return p
}

// Register adds the health service to s.
func (p *Probe) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, p.hs)
}

// Run polls the connection state until ctx is cancelled, then marks every
// service NOT_SERVING so in-flight watchers see the shutdown.
func (p *Probe) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	p.update()
	for {
		select {
		case <-ctx.Done():
			p.hs.Shutdown()
			return
		case <-t.C:
			p.update()
		}
	}
}

func (p *Probe) update() {
	up := p.conn.Connected()
	if up == p.serving {
		return
	}
	p.serving = up
	if up {
		slog.Info("probe: serving")
		p.set(healthpb.HealthCheckResponse_SERVING)
		return
	}
	slog.Warn("probe: not serving, mqtt disconnected")
	p.set(healthpb.HealthCheckResponse_NOT_SERVING)
}

func (p *Probe) set(st healthpb.HealthCheckResponse_ServingStatus) {
	p.hs.SetServingStatus("", st)
	p.hs.SetServingStatus(Service, st)
}
