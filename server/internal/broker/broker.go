// Package broker runs an in-process MQTT broker so sensors can publish
// straight to the dashboard host without a separate broker deployment.
// Every client is allowed to connect; the broker is meant for a private
// network or for tests.
package broker

import (
	"fmt"
	"log/slog"
	"net"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// Broker wraps a mochi MQTT server with a single TCP listener.
type Broker struct {
	srv  *mochi.Server
	addr string
}

// New prepares a broker listening on address (host:port). Port 0 picks a
// free port, which Addr reports after New returns.
func New(address string) (*Broker, error) {
	addr, err := resolve(address)
	if err != nil {
		return nil, fmt.Errorf("broker: %w", err)
	}

	srv := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       slog.Default().With("component", "broker"),
	})
	if err := srv.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("broker: add auth hook: %w", err)
	}

	tcp := listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "tcp",
		Address: addr,
	})
	if err := srv.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("broker: listen on %s: %w", addr, err)
	}

	return &Broker{srv: srv, addr: addr}, nil
}

// Start begins accepting clients. It does not block.
func (b *Broker) Start() error {
	if err := b.srv.Serve(); err != nil {
		return fmt.Errorf("broker: serve: %w", err)
	}
	slog.Info("broker: embedded MQTT broker listening", "addr", b.addr)
	return nil
}

// Addr returns the host:port clients should dial.
func (b *Broker) Addr() string { return b.addr }

// Publish sends payload on topic from the broker's inline client (QoS 0).
func (b *Broker) Publish(topic string, payload []byte) error {
	return b.srv.Publish(topic, payload, false, 0)
}

// Close disconnects all clients and stops the listener.
func (b *Broker) Close() error {
	return b.srv.Close()
}

// resolve replaces a zero port with a free one, on loopback when host is empty.
func resolve(address string) (string, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return "", fmt.Errorf("address %q: %w", address, err)
	}
	if port != "0" {
		return address, nil
	}
	if host == "" {
		host = "127.0.0.1"
	}
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return "", fmt.Errorf("pick free port: %w", err)
	}
	defer l.Close()
	return l.Addr().String(), nil
}
