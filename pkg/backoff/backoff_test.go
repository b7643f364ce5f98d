package backoff

import (
	"testing"
	"time"
)

func within(d, center time.Duration) bool {
	lo := time.Duration(float64(center) * 0.75)
	hi := time.Duration(float64(center) * 1.25)
	return d >= lo && d <= hi
}

func TestNext_GrowsAndCaps(t *testing.T) {
	b := &Backoff{Initial: 100 * time.Millisecond, Max: 400 * time.Millisecond, Multiplier: 2}
	want := []time.Duration{100, 200, 400, 400, 400}
	for i, w := range want {
		d := b.Next()
		if !within(d, w*time.Millisecond) {
			t.Errorf("Next #%d: got %v, want %v ±25%%", i, d, w*time.Millisecond)
		}
	}
}

func TestReset(t *testing.T) {
	b := New()
	b.Next()
	b.Next()
	b.Next()
	b.Reset()
	if d := b.Next(); !within(d, DefaultInitial) {
		t.Errorf("after Reset: got %v, want %v ±25%%", d, DefaultInitial)
	}
}
