package api

// SeriesResponse is the payload for GET /api/v1/series and the data of every
// WebSocket push. Index i of each array refers to the same sample.
type SeriesResponse struct {
	Timestamps   []string  `json:"timestamps"` // RFC3339Nano, UTC
	Labels       []string  `json:"labels"`     // 15:04:05, server local time
	Temperatures []float64 `json:"temperatures"`
	Humidities   []float64 `json:"humidities"`
	Count        int       `json:"count"`
	Capacity     int       `json:"capacity"`
	GeneratedAt  string    `json:"generated_at"` // RFC3339
}

// SampleResponse is one entry of GET /api/v1/samples.
type SampleResponse struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CapturedAt  string  `json:"captured_at"` // RFC3339Nano, UTC
}

// ChartsResponse is the payload for GET /api/v1/charts.
type ChartsResponse struct {
	Temperature Figure `json:"temperature"`
	Humidity    Figure `json:"humidity"`
	RefreshMs   int64  `json:"refresh_ms"`
}

// Figure is a Plotly figure: traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly scatter trace.
type Trace struct {
	Type string    `json:"type"`
	Mode string    `json:"mode"`
	Name string    `json:"name"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

// Layout holds the chart title and axis titles.
type Layout struct {
	Title Title `json:"title"`
	XAxis Axis  `json:"xaxis"`
	YAxis Axis  `json:"yaxis"`
}

// Axis is a Plotly axis with a title.
type Axis struct {
	Title Title `json:"title"`
}

// Title is a Plotly title object.
type Title struct {
	Text string `json:"text"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is ok | waiting (connected, no samples yet) | disconnected.
	State          string `json:"state"`
	MQTTConnected  bool   `json:"mqtt_connected"`
	WindowLen      int    `json:"window_len"`
	WindowCapacity int    `json:"window_capacity"`
	Appended       uint64 `json:"appended"`
	Evicted        uint64 `json:"evicted"`
	Accepted       uint64 `json:"accepted"`
	Dropped        uint64 `json:"dropped"`
	LastSample     string `json:"last_sample,omitempty"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
