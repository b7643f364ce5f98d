package api

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Shiva0457/MQTT-protocol/pkg/types"
	"github.com/Shiva0457/MQTT-protocol/server/internal/series"
	"github.com/Shiva0457/MQTT-protocol/server/internal/store"
)

//go:embed dashboard.html
var dashboardHTML []byte

// Window is the read side of the sample window. *store.Window satisfies it.
type Window interface {
	Snapshot() []types.Sample
	Stats() store.Stats
}

// IngestStats reports accepted and dropped payload counts.
type IngestStats interface {
	Stats() (accepted, dropped uint64)
}

// ConnState reports whether the MQTT subscription is up.
type ConnState interface {
	Connected() bool
}

// Deps wires the handler to the rest of the server.
type Deps struct {
	Window  Window
	Ingest  IngestStats
	MQTT    ConnState
	Refresh time.Duration

	// Location is used for chart labels. Defaults to time.Local.
	Location *time.Location
}

// Handler is the HTTP handler for the dashboard page and /api/v1/* endpoints.
type Handler struct {
	deps   Deps
	reader *series.Reader
	mux    *http.ServeMux
	now    func() time.Time
}

// New creates a Handler and registers all routes.
func New(d Deps) http.Handler {
	if d.Location == nil {
		d.Location = time.Local
	}
	h := &Handler{
		deps:   d,
		reader: series.New(d.Window),
		mux:    http.NewServeMux(),
		now:    time.Now,
	}

	h.mux.HandleFunc("/", h.dashboard)
	h.mux.HandleFunc("/api/v1/series", h.series)
	h.mux.HandleFunc("/api/v1/samples", h.samples)
	h.mux.HandleFunc("/api/v1/charts", h.charts)
	h.mux.HandleFunc("/api/v1/health", h.health)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// dashboard serves the embedded chart page at exactly "/".
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(dashboardHTML) //nolint:errcheck
}

// series returns GET /api/v1/series.
func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.buildSeries())
}

// samples returns GET /api/v1/samples.
func (h *Handler) samples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap := h.deps.Window.Snapshot()
	out := make([]SampleResponse, 0, len(snap))
	for _, s := range snap {
		out = append(out, SampleResponse{
			Temperature: s.Temperature,
			Humidity:    s.Humidity,
			CapturedAt:  s.CapturedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// charts returns GET /api/v1/charts, both figures from one snapshot.
func (h *Handler) charts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s := h.reader.Read()
	jsonResp(w, http.StatusOK, BuildCharts(s, h.deps.Location, h.deps.Refresh))
}

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	st := h.deps.Window.Stats()
	resp := HealthResponse{
		WindowLen:      st.Len,
		WindowCapacity: st.Capacity,
		Appended:       st.Appended,
		Evicted:        st.Evicted,
	}
	if h.deps.Ingest != nil {
		resp.Accepted, resp.Dropped = h.deps.Ingest.Stats()
	}
	if h.deps.MQTT != nil {
		resp.MQTTConnected = h.deps.MQTT.Connected()
	}
	if !st.LastAppend.IsZero() {
		resp.LastSample = st.LastAppend.UTC().Format(time.RFC3339)
	}

	switch {
	case !resp.MQTTConnected:
		resp.State = "disconnected"
	case st.Len == 0:
		resp.State = "waiting"
	default:
		resp.State = "ok"
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- builders ---------------------------------------------------------------

func (h *Handler) buildSeries() SeriesResponse {
	resp := BuildSeries(h.reader.Read(), h.deps.Window.Stats().Capacity, h.deps.Location)
	resp.GeneratedAt = h.now().UTC().Format(time.RFC3339)
	return resp
}

// BuildSeries converts an aligned series to its JSON form. GeneratedAt is
// left for the caller to stamp.
func BuildSeries(s types.Series, capacity int, loc *time.Location) SeriesResponse {
	ts := make([]string, len(s.Timestamps))
	for i, t := range s.Timestamps {
		ts[i] = t.UTC().Format(time.RFC3339Nano)
	}
	return SeriesResponse{
		Timestamps:   ts,
		Labels:       series.Labels(s, loc),
		Temperatures: s.Temperatures,
		Humidities:   s.Humidities,
		Count:        s.Len(),
		Capacity:     capacity,
	}
}

// BuildCharts lays out the temperature and humidity figures.
func BuildCharts(s types.Series, loc *time.Location, refresh time.Duration) ChartsResponse {
	labels := series.Labels(s, loc)
	return ChartsResponse{
		Temperature: figure(labels, s.Temperatures, "Temp (°C)", "Temperature over Time", "°C"),
		Humidity:    figure(labels, s.Humidities, "Humidity (%)", "Humidity over Time", "%"),
		RefreshMs:   refresh.Milliseconds(),
	}
}

func figure(x []string, y []float64, name, title, unit string) Figure {
	return Figure{
		Data: []Trace{{Type: "scatter", Mode: "lines+markers", Name: name, X: x, Y: y}},
		Layout: Layout{
			Title: Title{Text: title},
			XAxis: Axis{Title: Title{Text: "Time"}},
			YAxis: Axis{Title: Title{Text: unit}},
		},
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
