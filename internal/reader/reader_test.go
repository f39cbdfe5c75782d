package reader

import (
	"math/rand"
	"testing"
	"time"
)

func TestScrollDone(t *testing.T) {
	tests := []struct {
		name       string
		viewBottom float64
		pageHeight float64
		step       int
		want       bool
	}{
		{name: "mid page keeps going", viewBottom: 1080, pageHeight: 5000, step: 1, want: false},
		{name: "inside bottom margin stops", viewBottom: 4950, pageHeight: 5000, step: 10, want: true},
		{name: "exactly at margin stops", viewBottom: 4900, pageHeight: 5000, step: 10, want: true},
		{name: "just above margin keeps going", viewBottom: 4899, pageHeight: 5000, step: 10, want: false},
		{name: "step cap stops regardless of position", viewBottom: 1080, pageHeight: 99999, step: maxScrollSteps, want: true},
		{name: "page grew under the reader", viewBottom: 4950, pageHeight: 8000, step: 12, want: false},
		{name: "short page stops immediately", viewBottom: 1080, pageHeight: 900, step: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scrollDone(tt.viewBottom, tt.pageHeight, tt.step, maxScrollSteps); got != tt.want {
				t.Errorf("scrollDone(%v, %v, %d) = %v, want %v",
					tt.viewBottom, tt.pageHeight, tt.step, got, tt.want)
			}
		})
	}
}

// The scroll plan must terminate for any finite page: either the viewport
// reaches the bottom margin or the step cap fires.
func TestScrollPlanTerminates(t *testing.T) {
	const viewport = 1080.0
	pageHeight := 4000.0

	position := 0.0
	steps := 0
	for {
		steps++
		position += scrollStep
		// A page that grows for a while, then settles.
		if steps < 30 {
			pageHeight += 150
		}
		viewBottom := position + viewport
		if viewBottom > pageHeight {
			viewBottom = pageHeight
		}
		if scrollDone(viewBottom, pageHeight, steps, maxScrollSteps) {
			break
		}
		if steps > maxScrollSteps {
			t.Fatalf("loop passed the step cap: %d steps", steps)
		}
	}

	if steps > maxScrollSteps {
		t.Errorf("took %d steps, cap is %d", steps, maxScrollSteps)
	}
}

func TestRandDuration(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		d := randDuration(rng, 1.5, 2.5)
		if d < 1500*time.Millisecond || d > 2500*time.Millisecond {
			t.Fatalf("randDuration(1.5, 2.5) = %v, outside range", d)
		}
	}

	if d := randDuration(rng, 2, 2); d != 2*time.Second {
		t.Errorf("randDuration(2, 2) = %v, want exactly 2s", d)
	}

	// Inverted bounds are swapped, not an error.
	for i := 0; i < 100; i++ {
		d := randDuration(rng, 3, 1)
		if d < time.Second || d > 3*time.Second {
			t.Fatalf("randDuration(3, 1) = %v, outside swapped range", d)
		}
	}
}
