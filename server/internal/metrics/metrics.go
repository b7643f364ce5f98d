// Package metrics exposes the window, ingest and transport counters in the
// Prometheus text format.
package metrics

import (
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/Shiva0457/MQTT-protocol/server/internal/store"
)

const namespace = "sensor"

// Sources are read on every scrape. Any field except Window may be nil.
type Sources struct {
	Window interface{ Stats() store.Stats }
	Ingest interface {
		Stats() (accepted, dropped uint64)
	}
	MQTT interface {
		Connected() bool
		Received() uint64
	}
	Clients interface{ Count() int }
}

// Gather builds the metric families from the current state of src.
func Gather(src Sources) []*dto.MetricFamily {
	st := src.Window.Stats()
	out := []*dto.MetricFamily{
		gauge("window_samples", "Samples currently held in the window.", float64(st.Len)),
		gauge("window_capacity", "Configured window capacity.", float64(st.Capacity)),
		counter("window_appended_total", "Samples appended to the window.", float64(st.Appended)),
		counter("window_evicted_total", "Samples evicted from the window by capacity.", float64(st.Evicted)),
	}
	if !st.LastAppend.IsZero() {
		out = append(out, gauge("window_last_append_timestamp_seconds",
			"Unix time of the newest sample.", float64(st.LastAppend.UnixMilli())/1e3))
	}
	if src.Ingest != nil {
		acc, drop := src.Ingest.Stats()
		out = append(out,
			counter("ingest_accepted_total", "Payloads decoded and stored.", float64(acc)),
			counter("ingest_dropped_total", "Payloads dropped as malformed.", float64(drop)),
		)
	}
	if src.MQTT != nil {
		out = append(out,
			gauge("mqtt_connected", "1 while the MQTT subscription is up.", boolValue(src.MQTT.Connected())),
			counter("mqtt_messages_received_total", "PUBLISH packets received on the sensor topic.", float64(src.MQTT.Received())),
		)
	}
	if src.Clients != nil {
		out = append(out, gauge("ws_clients", "Connected WebSocket clients.", float64(src.Clients.Count())))
	}
	return out
}

// Handler serves Gather(src) as text/plain exposition.
func Handler(src Sources) http.Handler {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", string(format))
		enc := expfmt.NewEncoder(w, format)
		for _, mf := range Gather(src) {
			if err := enc.Encode(mf); err != nil {
				slog.Warn("metrics: encode failed", "family", mf.GetName(), "err", err)
				return
			}
		}
	})
}

// --- helpers ----------------------------------------------------------------

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(namespace + "_" + name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(namespace + "_" + name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}},
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
