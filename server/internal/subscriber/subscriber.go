package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"github.com/Shiva0457/MQTT-protocol/pkg/backoff"
	"github.com/Shiva0457/MQTT-protocol/server/internal/config"
)

// Handler receives the raw payload of each PUBLISH on the subscribed topic.
// It runs on the MQTT delivery goroutine and must return quickly.
type Handler func(payload []byte)

// dialFunc opens the network connection to the broker.
// Abstracted so tests can inject failures.
type dialFunc func(ctx context.Context, addr string) (net.Conn, error)

// Subscriber maintains the broker connection and topic subscription.
type Subscriber struct {
	cfg      config.MQTTConfig
	clientID string
	handle   Handler
	dialFn   dialFunc
	newBO    func() *backoff.Backoff

	connected atomic.Bool
	received  atomic.Uint64
}

// New creates a Subscriber for cfg. Call Run to start it.
func New(cfg config.MQTTConfig, handle Handler) *Subscriber {
	id := cfg.ClientID
	if id == "" {
		id = config.DefaultClientIDPrefix + "-" + uuid.NewString()[:8]
	}
	return &Subscriber{
		cfg:      cfg,
		clientID: id,
		handle:   handle,
		dialFn:   defaultDial,
		newBO:    backoff.New,
	}
}

// ClientID returns the MQTT client identifier used on CONNECT.
func (s *Subscriber) ClientID() string { return s.clientID }

// Connected reports whether the subscription is currently active.
func (s *Subscriber) Connected() bool { return s.connected.Load() }

// Received returns the number of PUBLISH packets delivered so far.
func (s *Subscriber) Received() uint64 { return s.received.Load() }

// Run connects, subscribes and reconnects until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) {
	bo := s.newBO()

	for {
		if ctx.Err() != nil {
			return
		}

		err := s.session(ctx, bo)
		if ctx.Err() != nil {
			return
		}

		wait := bo.Next()
		slog.Warn("subscriber: connection lost, will reconnect",
			"broker", s.cfg.Broker,
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
func (s *Subscriber) session(ctx context.Context, bo *backoff.Backoff) error {
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	conn, err := s.dialFn(dialCtx, s.cfg.Broker)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.cfg.Broker, err)
	}

	lost := make(chan error, 1)
	notify := func(err error) {
		select {
		case lost <- err:
		default:
		}
	}

	client := paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: s.clientID,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				s.received.Add(1)
				s.handle(pr.Packet.Payload)
				return true, nil
			},
		},
		OnClientError: func(err error) { notify(err) },
		OnServerDisconnect: func(d *paho.Disconnect) {
			notify(fmt.Errorf("server disconnect: reason code 0x%02x", d.ReasonCode))
		},
	})

	connCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	ca, err := client.Connect(connCtx, s.connectPacket())
	cancel()
	if err != nil {
		conn.Close()
		if ca != nil {
			return fmt.Errorf("connect: reason code 0x%02x: %w", ca.ReasonCode, err)
		}
		return fmt.Errorf("connect: %w", err)
	}
	if ca.ReasonCode >= 0x80 {
		conn.Close()
		return fmt.Errorf("connect: refused with reason code 0x%02x", ca.ReasonCode)
	}

	subCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	sa, err := client.Subscribe(subCtx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: s.cfg.Topic, QoS: 0}},
	})
	cancel()
	if err == nil && len(sa.Reasons) > 0 && sa.Reasons[0] >= 0x80 {
		err = fmt.Errorf("refused with reason code 0x%02x", sa.Reasons[0])
	}
	if err != nil {
		client.Disconnect(&paho.Disconnect{ReasonCode: 0}) //nolint:errcheck
		return fmt.Errorf("subscribe %q: %w", s.cfg.Topic, err)
	}

	s.connected.Store(true)
	defer s.connected.Store(false)
	bo.Reset()
	slog.Info("subscriber: subscribed",
		"broker", s.cfg.Broker, "topic", s.cfg.Topic, "client_id", s.clientID)

	select {
	case <-ctx.Done():
		if err := client.Disconnect(&paho.Disconnect{ReasonCode: 0}); err != nil {
			slog.Debug("subscriber: disconnect", "err", err)
		}
		return nil
	case err := <-lost:
		conn.Close()
		if err == nil {
			err = errors.New("connection closed")
		}
		return err
	}
}

func (s *Subscriber) connectPacket() *paho.Connect {
	pw := s.cfg.Password()
	return &paho.Connect{
		ClientID:     s.clientID,
		CleanStart:   true,
		KeepAlive:    uint16(s.cfg.KeepAlive.Seconds()),
		Username:     s.cfg.Username,
		UsernameFlag: s.cfg.Username != "",
		Password:     []byte(pw),
		PasswordFlag: pw != "",
	}
}

func defaultDial(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}
