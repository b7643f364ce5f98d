package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"github.com/Shiva0457/MQTT-protocol/agent/internal/config"
	"github.com/Shiva0457/MQTT-protocol/pkg/backoff"
	"github.com/Shiva0457/MQTT-protocol/pkg/types"
)

const publishTimeout = 10 * time.Second

// dialFunc opens the network connection to the broker.
// Abstracted so tests can inject failures.
type dialFunc func(ctx context.Context, addr string) (net.Conn, error)

// Publisher buffers readings and publishes them to the configured topic.
type Publisher struct {
	cfg      config.AgentConfig
	clientID string
	buf      chan types.Reading
	dialFn   dialFunc
	newBO    func() *backoff.Backoff

	connected atomic.Bool
	published atomic.Uint64
	evicted   atomic.Uint64
}

// New creates a Publisher for cfg. Call Run to start sending.
func New(cfg config.AgentConfig) *Publisher {
	id := cfg.ClientID
	if id == "" {
		id = config.DefaultClientIDPrefix + "-" + uuid.NewString()[:8]
	}
	return &Publisher{
		cfg:      cfg,
		clientID: id,
		buf:      make(chan types.Reading, cfg.BufferSize),
		dialFn:   defaultDial,
		newBO:    backoff.New,
	}
}

// ClientID returns the MQTT client identifier used on CONNECT.
func (p *Publisher) ClientID() string { return p.clientID }

// Connected reports whether a broker session is up.
func (p *Publisher) Connected() bool { return p.connected.Load() }

// Stats returns how many readings were published and how many were dropped
// because the buffer overflowed.
func (p *Publisher) Stats() (published, evicted uint64) {
	return p.published.Load(), p.evicted.Load()
}

// Publish enqueues r. If the buffer is full the oldest reading is evicted.
func (p *Publisher) Publish(r types.Reading) {
	for {
		select {
		case p.buf <- r:
			return
		default:
		}
		select {
		case <-p.buf:
			p.evicted.Add(1)
			slog.Warn("publisher: buffer full, evicted oldest reading",
				"buffer_cap", cap(p.buf))
		default:
		}
	}
}

// Run connects and publishes until ctx is cancelled, reconnecting with
// backoff whenever the session ends.
func (p *Publisher) Run(ctx context.Context) {
	bo := p.newBO()

	for {
		if ctx.Err() != nil {
			return
		}

		err := p.session(ctx, bo)
		if ctx.Err() != nil {
			return
		}

		wait := bo.Next()
		slog.Warn("publisher: connection lost, will reconnect",
			"broker", p.cfg.Broker,
			"err", err,
			"retry_in", wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// session runs one connection from dial to loss. It returns nil only when
// ctx was cancelled.
func (p *Publisher) session(ctx context.Context, bo *backoff.Backoff) error {
	dialCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	conn, err := p.dialFn(dialCtx, p.cfg.Broker)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.cfg.Broker, err)
	}

	lost := make(chan error, 1)
	notify := func(err error) {
		select {
		case lost <- err:
		default:
		}
	}

	client := paho.NewClient(paho.ClientConfig{
		Conn:          conn,
		ClientID:      p.clientID,
		OnClientError: func(err error) { notify(err) },
		OnServerDisconnect: func(d *paho.Disconnect) {
			notify(fmt.Errorf("server disconnect: reason code 0x%02x", d.ReasonCode))
		},
	})

	connCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	ca, err := client.Connect(connCtx, p.connectPacket())
	cancel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("connect: %w", err)
	}
	if ca.ReasonCode >= 0x80 {
		conn.Close()
		return fmt.Errorf("connect: refused with reason code 0x%02x", ca.ReasonCode)
	}

	p.connected.Store(true)
	defer p.connected.Store(false)
	bo.Reset()
	slog.Info("publisher: connected",
		"broker", p.cfg.Broker, "topic", p.cfg.Topic, "client_id", p.clientID)

	for {
		select {
		case <-ctx.Done():
			if err := client.Disconnect(&paho.Disconnect{ReasonCode: 0}); err != nil {
				slog.Debug("publisher: disconnect", "err", err)
			}
			return nil

		case err := <-lost:
			conn.Close()
			if err == nil {
				err = errors.New("connection closed")
			}
			return err

		case r := <-p.buf:
			if err := p.send(ctx, client, r); err != nil {
				// Keep the reading for the next session if there is room.
				select {
				case p.buf <- r:
				default:
				}
				conn.Close()
				return err
			}
		}
	}
}

func (p *Publisher) send(ctx context.Context, client *paho.Client, r types.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if _, err := client.Publish(pubCtx, &paho.Publish{
		Topic:   p.cfg.Topic,
		QoS:     0,
		Payload: payload,
	}); err != nil {
		return fmt.Errorf("publish %q: %w", p.cfg.Topic, err)
	}

	p.published.Add(1)
	slog.Debug("publisher: reading sent",
		"temperature", r.Temperature, "humidity", r.Humidity)
	return nil
}

func (p *Publisher) connectPacket() *paho.Connect {
	pw := p.cfg.Password()
	return &paho.Connect{
		ClientID:     p.clientID,
		CleanStart:   true,
		KeepAlive:    uint16(p.cfg.KeepAlive.Seconds()),
		Username:     p.cfg.Username,
		UsernameFlag: p.cfg.Username != "",
		Password:     []byte(pw),
		PasswordFlag: pw != "",
	}
}

func defaultDial(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}
