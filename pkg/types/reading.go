package types

import "time"

// Reading is the JSON payload published by a sensor on the telemetry topic.
type Reading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// Sample is one reading together with the time it reached the server.
// CapturedAt is assigned on arrival; sensors do not carry a clock.
//
// Samples are handled by value. The window stores copies and hands out copies,
// so a Sample never changes after it has been constructed.
type Sample struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	CapturedAt  time.Time `json:"captured_at"`
}

// NewSample stamps r with the arrival time at.
func NewSample(r Reading, at time.Time) Sample {
	return Sample{
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		CapturedAt:  at,
	}
}

// Series is the column view of a window snapshot. Index i of every slice
// refers to the same Sample.
type Series struct {
	Timestamps   []time.Time
	Temperatures []float64
	Humidities   []float64
}

// Len returns the number of aligned points.
func (s Series) Len() int { return len(s.Timestamps) }
