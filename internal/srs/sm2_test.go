package srs

import (
	"errors"
	"math"
	"testing"

	"github.com/mkdmitry/flashka/internal/domain"
)

func TestCompute_PoorRecallResetsInterval(t *testing.T) {
	for _, quality := range []int{1, 2} {
		got, err := Compute(quality, 40, 2.2)
		if err != nil {
			t.Fatalf("quality=%d: %v", quality, err)
		}
		if got.IntervalDays != 1 {
			t.Errorf("quality=%d: interval = %d, want 1", quality, got.IntervalDays)
		}
		if got.EaseFactor != 2.2 {
			t.Errorf("quality=%d: ease = %v, want unchanged 2.2", quality, got.EaseFactor)
		}
	}
}

func TestCompute_FixedEarlyIntervals(t *testing.T) {
	tests := []struct {
		name     string
		quality  int
		interval int
		ease     float64
		want     int
	}{
		{"first success 1->6", 3, 1, 2.5, 6},
		{"first success high ease", 5, 1, 3.0, 6},
		{"second success 6->16", 3, 6, 2.5, 16},
		{"second success low ease", 4, 6, 1.3, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.quality, tt.interval, tt.ease)
			if err != nil {
				t.Fatal(err)
			}
			if got.IntervalDays != tt.want {
				t.Errorf("interval = %d, want %d", got.IntervalDays, tt.want)
			}
		})
	}
}

func TestCompute_GrowthByEaseFactor(t *testing.T) {
	got, err := Compute(5, 20, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if got.IntervalDays != 40 {
		t.Errorf("interval = %d, want floor(20*2.0) = 40", got.IntervalDays)
	}
	if math.Abs(got.EaseFactor-2.1) > 1e-9 {
		t.Errorf("ease = %v, want 2.1", got.EaseFactor)
	}
}

func TestCompute_EaseAdjustment(t *testing.T) {
	// quality=4: delta = 0.1 - 1*(0.08+0.02) = 0
	got, err := Compute(4, 6, 2.6)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.EaseFactor-2.6) > 1e-9 {
		t.Errorf("ease = %v, want 2.6", got.EaseFactor)
	}

	// quality=3: delta = 0.1 - 2*(0.08+0.04) = -0.14
	got, err = Compute(3, 16, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.EaseFactor-2.36) > 1e-9 {
		t.Errorf("ease = %v, want 2.36", got.EaseFactor)
	}
}

func TestCompute_EaseFloorNeverBroken(t *testing.T) {
	// Repeated hard-but-successful reviews converge to the floor.
	ease := 2.5
	interval := 1
	for i := 0; i < 50; i++ {
		got, err := Compute(3, interval, ease)
		if err != nil {
			t.Fatal(err)
		}
		if got.EaseFactor < MinEaseFactor {
			t.Fatalf("iteration %d: ease %v below floor %v", i, got.EaseFactor, MinEaseFactor)
		}
		ease = got.EaseFactor
		interval = got.IntervalDays
	}
	if math.Abs(ease-MinEaseFactor) > 1e-9 {
		t.Errorf("ease = %v, want convergence to %v", ease, MinEaseFactor)
	}
}

func TestCompute_QualityOutOfRange(t *testing.T) {
	for _, quality := range []int{0, -1, 6, 100} {
		_, err := Compute(quality, 1, 2.5)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("quality=%d: err = %v, want ErrValidation", quality, err)
		}
	}
}

func TestCompute_FirstReviewDefaults(t *testing.T) {
	// First review at quality=4 from defaults: 6 days, ease unchanged
	// (the quality=4 delta is exactly zero).
	got, err := Compute(4, DefaultIntervalDays, DefaultEaseFactor)
	if err != nil {
		t.Fatal(err)
	}
	if got.IntervalDays != 6 {
		t.Errorf("interval = %d, want 6", got.IntervalDays)
	}
	if math.Abs(got.EaseFactor-2.5) > 1e-9 {
		t.Errorf("ease = %v, want 2.5", got.EaseFactor)
	}

	// Second review at quality=4 moves 6 -> 16.
	got, err = Compute(4, got.IntervalDays, got.EaseFactor)
	if err != nil {
		t.Fatal(err)
	}
	if got.IntervalDays != 16 {
		t.Errorf("interval = %d, want 16", got.IntervalDays)
	}
}
