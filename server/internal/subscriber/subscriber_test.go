package subscriber

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shiva0457/MQTT-protocol/pkg/backoff"
	"github.com/Shiva0457/MQTT-protocol/server/internal/broker"
	"github.com/Shiva0457/MQTT-protocol/server/internal/config"
	"github.com/Shiva0457/MQTT-protocol/server/internal/ingest"
	"github.com/Shiva0457/MQTT-protocol/server/internal/store"
)

const topic = "iot/fake/sensors"

func startBroker(t *testing.T, addr string) *broker.Broker {
	t.Helper()
	b, err := broker.New(addr)
	require.NoError(t, err)
	require.NoError(t, b.Start())
	t.Cleanup(func() { b.Close() })
	return b
}

func testConfig(addr string) config.MQTTConfig {
	cfg := config.Defaults().MQTT
	cfg.Broker = addr
	cfg.Topic = topic
	cfg.ConnectTimeout = 2 * time.Second
	return cfg
}

func fastBackoff() *backoff.Backoff {
	return &backoff.Backoff{Initial: 20 * time.Millisecond, Max: 100 * time.Millisecond, Multiplier: 2}
}

// payloads collects handler calls.
type payloads struct {
	mu  sync.Mutex
	got [][]byte
	ch  chan struct{}
}

func newPayloads() *payloads { return &payloads{ch: make(chan struct{}, 64)} }

func (p *payloads) handle(b []byte) {
	p.mu.Lock()
	p.got = append(p.got, append([]byte(nil), b...))
	p.mu.Unlock()
	p.ch <- struct{}{}
}

func (p *payloads) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.ch:
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for payload %d of %d", i+1, n)
		}
	}
}

func runSubscriber(t *testing.T, s *Subscriber) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestNew_GeneratesClientID(t *testing.T) {
	s1 := New(testConfig("localhost:1883"), func([]byte) {})
	s2 := New(testConfig("localhost:1883"), func([]byte) {})
	require.Contains(t, s1.ClientID(), config.DefaultClientIDPrefix)
	require.NotEqual(t, s1.ClientID(), s2.ClientID())

	cfg := testConfig("localhost:1883")
	cfg.ClientID = "fixed-id"
	require.Equal(t, "fixed-id", New(cfg, func([]byte) {}).ClientID())
}

func TestSubscriber_DeliversPayloads(t *testing.T) {
	b := startBroker(t, "127.0.0.1:0")
	p := newPayloads()

	s := New(testConfig(b.Addr()), p.handle)
	runSubscriber(t, s)

	require.Eventually(t, s.Connected, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, b.Publish(topic, []byte(`{"temperature":20.0,"humidity":50}`)))
	require.NoError(t, b.Publish(topic, []byte(`{"temperature":21.0,"humidity":51}`)))
	require.NoError(t, b.Publish("other/topic", []byte(`{"temperature":99,"humidity":99}`)))
	p.wait(t, 2)

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.got, 2)
	require.JSONEq(t, `{"temperature":20.0,"humidity":50}`, string(p.got[0]))
	require.JSONEq(t, `{"temperature":21.0,"humidity":51}`, string(p.got[1]))
	require.EqualValues(t, 2, s.Received())
}

func TestSubscriber_FeedsWindowThroughAdapter(t *testing.T) {
	b := startBroker(t, "127.0.0.1:0")
	w, err := store.New(3)
	require.NoError(t, err)
	a := ingest.New(w)

	p := newPayloads()
	s := New(testConfig(b.Addr()), func(payload []byte) {
		a.Handle(payload)
		p.handle(payload)
	})
	runSubscriber(t, s)
	require.Eventually(t, s.Connected, 3*time.Second, 10*time.Millisecond)

	msgs := []string{
		`{"temperature":20.0,"humidity":50}`,
		`{"temperature":21.0}`, // dropped
		`{"temperature":21.0,"humidity":51}`,
		`{"temperature":22.0,"humidity":52}`,
		`{"temperature":23.0,"humidity":53}`,
	}
	for _, m := range msgs {
		require.NoError(t, b.Publish(topic, []byte(m)))
	}
	p.wait(t, len(msgs))

	snap := w.Snapshot()
	require.Len(t, snap, 3)
	require.Equal(t, 21.0, snap[0].Temperature)
	require.Equal(t, 22.0, snap[1].Temperature)
	require.Equal(t, 23.0, snap[2].Temperature)

	acc, drop := a.Stats()
	require.EqualValues(t, 4, acc)
	require.EqualValues(t, 1, drop)
}

func TestSubscriber_DialFailure_RetriesUntilCancelled(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	s := New(testConfig("127.0.0.1:1"), func([]byte) {})
	s.newBO = fastBackoff
	s.dialFn = func(ctx context.Context, addr string) (net.Conn, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return nil, errors.New("connection refused")
	}

	cancel := runSubscriber(t, s)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts >= 3
	}, 3*time.Second, 10*time.Millisecond)
	require.False(t, s.Connected())
	cancel()
}

func TestSubscriber_ReconnectsAfterBrokerRestart(t *testing.T) {
	first, err := broker.New("127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, first.Start())
	addr := first.Addr()

	p := newPayloads()
	s := New(testConfig(addr), p.handle)
	s.newBO = fastBackoff
	runSubscriber(t, s)
	require.Eventually(t, s.Connected, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return !s.Connected() }, 3*time.Second, 10*time.Millisecond)

	second := startBroker(t, addr)
	require.Eventually(t, s.Connected, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, second.Publish(topic, []byte(`{"temperature":1,"humidity":2}`)))
	p.wait(t, 1)
}

func TestSubscriber_CancelDisconnects(t *testing.T) {
	b := startBroker(t, "127.0.0.1:0")
	s := New(testConfig(b.Addr()), func([]byte) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	require.Eventually(t, s.Connected, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.False(t, s.Connected())
}
