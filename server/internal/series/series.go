// Package series derives chart-ready columns from the sample window.
package series

import (
	"time"

	"github.com/Shiva0457/MQTT-protocol/pkg/types"
)

// LabelLayout is the time-of-capture format used on chart x-axes.
const LabelLayout = "15:04:05"

// Snapshotter is the read side of the window. *store.Window satisfies it.
type Snapshotter interface {
	Snapshot() []types.Sample
}

// Reader turns one window snapshot into aligned series.
type Reader struct {
	window Snapshotter
}

// New creates a Reader over w.
func New(w Snapshotter) *Reader {
	return &Reader{window: w}
}

// Read takes a single snapshot and splits it into columns. Deriving all three
// columns from the same snapshot keeps index i pointing at one sample even
// while appends continue.
func (r *Reader) Read() types.Series {
	return FromSamples(r.window.Snapshot())
}

// FromSamples splits samples into aligned columns. The slices are never nil.
func FromSamples(samples []types.Sample) types.Series {
	s := types.Series{
		Timestamps:   make([]time.Time, len(samples)),
		Temperatures: make([]float64, len(samples)),
		Humidities:   make([]float64, len(samples)),
	}
	for i, smp := range samples {
		s.Timestamps[i] = smp.CapturedAt
		s.Temperatures[i] = smp.Temperature
		s.Humidities[i] = smp.Humidity
	}
	return s
}

// Labels formats the series timestamps in loc for display.
func Labels(s types.Series, loc *time.Location) []string {
	out := make([]string, len(s.Timestamps))
	for i, ts := range s.Timestamps {
		out[i] = ts.In(loc).Format(LabelLayout)
	}
	return out
}
