package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Shiva0457/MQTT-protocol/pkg/types"
)

// ErrDecode is matched by every DecodeError.
var ErrDecode = errors.New("ingest: decode failed")

// DecodeError describes why a payload was rejected.
type DecodeError struct {
	Reason string
	Err    error // underlying parse error, if any
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingest: %s: %v", e.Reason, e.Err)
	}
	return "ingest: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports true for ErrDecode so callers need not know the concrete type.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Appender receives decoded samples. *store.Window satisfies it.
type Appender interface {
	Append(types.Sample)
}

// Adapter decodes payloads and appends them to a window.
type Adapter struct {
	window Appender
	now    func() time.Time // injectable for deterministic tests

	accepted atomic.Uint64
	dropped  atomic.Uint64
}

// New creates an Adapter that appends to w.
func New(w Appender) *Adapter {
	return &Adapter{window: w, now: time.Now}
}

// Handle decodes payload and appends the resulting sample. Malformed payloads
// are logged and dropped.
func (a *Adapter) Handle(payload []byte) {
	r, err := Decode(payload)
	if err != nil {
		a.dropped.Add(1)
		slog.Warn("ingest: dropped payload", "err", err, "bytes", len(payload))
		return
	}

	s := types.NewSample(r, a.now())
	a.window.Append(s)
	a.accepted.Add(1)

	slog.Debug("ingest: sample stored",
		"temperature", s.Temperature,
		"humidity", s.Humidity,
		"captured_at", s.CapturedAt,
	)
}

// Stats returns the number of accepted and dropped payloads so far.
func (a *Adapter) Stats() (accepted, dropped uint64) {
	return a.accepted.Load(), a.dropped.Load()
}

// Decode parses a sensor payload. Both fields must be present JSON numbers.
func Decode(payload []byte) (types.Reading, error) {
	var raw struct {
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return types.Reading{}, &DecodeError{Reason: "malformed payload", Err: err}
	}
	if raw.Temperature == nil {
		return types.Reading{}, &DecodeError{Reason: "missing temperature"}
	}
	if raw.Humidity == nil {
		return types.Reading{}, &DecodeError{Reason: "missing humidity"}
	}
	return types.Reading{Temperature: *raw.Temperature, Humidity: *raw.Humidity}, nil
}
