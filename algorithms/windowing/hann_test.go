package windowing

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-grabber/internal/testutil"
)

func TestHannSymmetricCoefficients(t *testing.T) {
	const size = 9
	got := NewHann(size, true).GetCoefficients()

	want := make([]float64, size)
	for i := range want {
		want[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-15)

	if got[0] != 0 || math.Abs(got[size-1]) > 1e-15 {
		t.Fatalf("symmetric window should start and end at zero: %v", got)
	}
	if math.Abs(got[size/2]-1) > 1e-15 {
		t.Fatalf("centre coefficient = %v, want 1", got[size/2])
	}
}

func TestHannPeriodicCoefficients(t *testing.T) {
	const size = 8
	got := NewHann(size, false).GetCoefficients()

	for i, c := range got {
		want := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size)))
		if math.Abs(c-want) > 1e-15 {
			t.Fatalf("coefficient %d = %v, want %v", i, c, want)
		}
	}
}

func TestApplyInPlaceLengthMismatch(t *testing.T) {
	h := NewHann(16, true)
	if err := h.ApplyInPlace(make([]float64, 8)); err == nil {
		t.Fatal("expected error for mismatched length")
	}
	if out := h.Apply(make([]float64, 8)); out != nil {
		t.Fatal("Apply should return nil for mismatched length")
	}
}

func TestApplyHannWindow(t *testing.T) {
	samples := testutil.DeterministicNoise(3, 1, 64)
	orig := append([]float64(nil), samples...)

	ApplyHannWindow(samples)

	coeffs := NewHann(64, true).GetCoefficients()
	for i := range samples {
		if want := orig[i] * coeffs[i]; math.Abs(samples[i]-want) > 1e-15 {
			t.Fatalf("sample %d = %v, want %v", i, samples[i], want)
		}
	}

	// empty input is a no-op
	ApplyHannWindow(nil)
}
