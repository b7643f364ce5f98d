package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Shiva0457/MQTT-protocol/pkg/types"
)

// DefaultCapacity is the number of samples kept when no capacity is configured.
const DefaultCapacity = 50

// MaxCapacity is the largest window New will allocate.
const MaxCapacity = 1 << 20

var (
	// ErrInvalidCapacity is returned by New for a negative capacity.
	ErrInvalidCapacity = errors.New("store: capacity must not be negative")

	// ErrResourceExhausted is returned by New when the window storage cannot
	// be allocated. Callers should treat it as fatal.
	ErrResourceExhausted = errors.New("store: cannot allocate window storage")
)

// Stats is a consistent view of the window counters.
type Stats struct {
	Len        int
	Capacity   int
	Appended   uint64
	Evicted    uint64
	LastAppend time.Time
}

// Window is a thread-safe, fixed-capacity buffer of samples ordered by arrival.
// When full, each Append overwrites the oldest sample in the same critical
// section, so the window never holds more than Capacity samples and never
// loses two samples for one insert.
type Window struct {
	mu   sync.RWMutex
	buf  []types.Sample
	head int // index of the oldest sample
	n    int

	appended uint64
	evicted  uint64
	last     time.Time
}

// New allocates a Window holding at most capacity samples. A zero capacity is
// valid and yields a window that discards every append.
func New(capacity int) (*Window, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: capacity %d exceeds %d", ErrResourceExhausted, capacity, MaxCapacity)
	}
	return &Window{buf: make([]types.Sample, capacity)}, nil
}

// Append inserts s as the newest sample, evicting the oldest when full.
func (w *Window) Append(s types.Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.appended++
	w.last = s.CapturedAt

	size := len(w.buf)
	if size == 0 {
		w.evicted++
		return
	}
	if w.n < size {
		w.buf[(w.head+w.n)%size] = s
		w.n++
		return
	}
	// Full: the oldest slot becomes the newest.
	w.buf[w.head] = s
	w.head = (w.head + 1) % size
	w.evicted++
}

// Snapshot returns a copy of the window, oldest first. The returned slice is
// owned by the caller and is never touched by later appends.
func (w *Window) Snapshot() []types.Sample {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]types.Sample, w.n)
	size := len(w.buf)
	for i := 0; i < w.n; i++ {
		out[i] = w.buf[(w.head+i)%size]
	}
	return out
}

// Capacity returns the fixed maximum number of samples.
func (w *Window) Capacity() int {
	return len(w.buf) // immutable after New
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.n
}

// Stats returns the current counters.
func (w *Window) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Stats{
		Len:        w.n,
		Capacity:   len(w.buf),
		Appended:   w.appended,
		Evicted:    w.evicted,
		LastAppend: w.last,
	}
}
