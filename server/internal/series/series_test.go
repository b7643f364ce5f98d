package series

import (
	"sync"
	"testing"
	"time"

	"github.com/Shiva0457/MQTT-protocol/pkg/types"
	"github.com/Shiva0457/MQTT-protocol/server/internal/store"
)

var base = time.Date(2026, 10, 19, 14, 5, 9, 0, time.UTC)

func newWindow(t *testing.T, capacity int) *store.Window {
	t.Helper()
	w, err := store.New(capacity)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return w
}

func TestRead_EmptyWindow(t *testing.T) {
	r := New(newWindow(t, store.DefaultCapacity))
	s := r.Read()

	if s.Timestamps == nil || s.Temperatures == nil || s.Humidities == nil {
		t.Fatal("Read: want non-nil empty slices")
	}
	if s.Len() != 0 || len(s.Temperatures) != 0 || len(s.Humidities) != 0 {
		t.Errorf("Read: got lengths %d/%d/%d, want 0/0/0",
			len(s.Timestamps), len(s.Temperatures), len(s.Humidities))
	}
}

func TestRead_ThreeOfFour(t *testing.T) {
	w := newWindow(t, 3)
	tA, tB, tC, tD := base, base.Add(2*time.Second), base.Add(4*time.Second), base.Add(6*time.Second)
	w.Append(types.Sample{Temperature: 20.0, Humidity: 50, CapturedAt: tA})
	w.Append(types.Sample{Temperature: 21.0, Humidity: 51, CapturedAt: tB})
	w.Append(types.Sample{Temperature: 22.0, Humidity: 52, CapturedAt: tC})
	w.Append(types.Sample{Temperature: 23.0, Humidity: 53, CapturedAt: tD})

	s := New(w).Read()

	wantTS := []time.Time{tB, tC, tD}
	wantT := []float64{21.0, 22.0, 23.0}
	wantH := []float64{51, 52, 53}
	if s.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", s.Len())
	}
	for i := 0; i < 3; i++ {
		if !s.Timestamps[i].Equal(wantTS[i]) {
			t.Errorf("Timestamps[%d]: got %v, want %v", i, s.Timestamps[i], wantTS[i])
		}
		if s.Temperatures[i] != wantT[i] {
			t.Errorf("Temperatures[%d]: got %v, want %v", i, s.Temperatures[i], wantT[i])
		}
		if s.Humidities[i] != wantH[i] {
			t.Errorf("Humidities[%d]: got %v, want %v", i, s.Humidities[i], wantH[i])
		}
	}
}

func TestLabels(t *testing.T) {
	s := FromSamples([]types.Sample{{CapturedAt: base}, {CapturedAt: base.Add(61 * time.Second)}})
	got := Labels(s, time.UTC)
	want := []string{"14:05:09", "14:06:10"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Labels[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

// TestRead_AlignedUnderConcurrentAppends checks that every (timestamp,
// temperature, humidity) triple comes from a single appended sample.
func TestRead_AlignedUnderConcurrentAppends(t *testing.T) {
	w := newWindow(t, 8)
	r := New(w)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			// All three fields encode i.
			w.Append(types.Sample{
				Temperature: float64(i),
				Humidity:    float64(i) + 0.5,
				CapturedAt:  base.Add(time.Duration(i) * time.Millisecond),
			})
		}
	}()

	for k := 0; k < 500; k++ {
		s := r.Read()
		if len(s.Temperatures) != s.Len() || len(s.Humidities) != s.Len() {
			t.Fatalf("misaligned lengths %d/%d/%d", s.Len(), len(s.Temperatures), len(s.Humidities))
		}
		if s.Len() > 8 {
			t.Fatalf("series longer than window: %d", s.Len())
		}
		for i := 0; i < s.Len(); i++ {
			n := s.Temperatures[i]
			if s.Humidities[i] != n+0.5 {
				t.Fatalf("[%d] humidity %v does not match temperature %v", i, s.Humidities[i], n)
			}
			if !s.Timestamps[i].Equal(base.Add(time.Duration(n) * time.Millisecond)) {
				t.Fatalf("[%d] timestamp %v does not match temperature %v", i, s.Timestamps[i], n)
			}
		}
	}
	wg.Wait()
}
