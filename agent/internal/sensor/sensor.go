// Package sensor simulates a DHT-style temperature and humidity sensor.
//
// Each reading takes a bounded random step from the previous value and is
// pulled back toward the configured baseline, so the series wanders like a
// real room instead of drifting off. Values are rounded to 0.1, the DHT22
// resolution, and clamped to the channel range.
package sensor

import (
	"math"
	"math/rand"
	"sync"

	"github.com/Shiva0457/MQTT-protocol/agent/internal/config"
	"github.com/Shiva0457/MQTT-protocol/pkg/types"
)

// revert is the fraction of the distance to baseline recovered per reading.
const revert = 0.1

// Sensor produces readings. It is safe for concurrent use.
type Sensor struct {
	mu   sync.Mutex
	rng  *rand.Rand
	cfg  config.SensorConfig
	temp float64
	hum  float64
}

// New returns a Sensor starting at the configured baselines. seed makes the
// sequence reproducible.
func New(cfg config.SensorConfig, seed int64) *Sensor {
	return &Sensor{
		rng:  rand.New(rand.NewSource(seed)), //nolint:gosec // simulation
		cfg:  cfg,
		temp: cfg.Temperature.Base,
		hum:  cfg.Humidity.Base,
	}
}

// Read advances both channels one step and returns the new reading.
func (s *Sensor) Read() types.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temp = s.step(s.temp, s.cfg.Temperature)
	s.hum = s.step(s.hum, s.cfg.Humidity)
	return types.Reading{Temperature: s.temp, Humidity: s.hum}
}

// Reconfigure swaps the channel settings, keeping the current values so the
// series stays continuous.
func (s *Sensor) Reconfigure(cfg config.SensorConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *Sensor) step(v float64, c config.Channel) float64 {
	v += (c.Base - v) * revert
	v += c.Jitter * (s.rng.Float64()*2 - 1)
	v = math.Round(v*10) / 10
	return math.Min(c.Max, math.Max(c.Min, v))
}
