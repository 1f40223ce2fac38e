package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/RyanBlaney/sonido-grabber/algorithms/common"
	"github.com/RyanBlaney/sonido-grabber/algorithms/separation"
	"github.com/RyanBlaney/sonido-grabber/audio"
	"github.com/RyanBlaney/sonido-grabber/engine/config"
	"github.com/RyanBlaney/sonido-grabber/internal/testutil"
)

const sampleRate = 44100

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

// progressRecorder collects progress values from concurrent reporters
type progressRecorder struct {
	mu     sync.Mutex
	values []float64
}

func (r *progressRecorder) report(f float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, f)
}

func (r *progressRecorder) check(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.values) == 0 {
		t.Fatal("no progress reported")
	}
	for i, v := range r.values {
		if v < 0 || v > 1 {
			t.Fatalf("progress %v out of range", v)
		}
		if i > 0 && v < r.values[i-1] {
			t.Fatalf("progress went backwards at %d: %v", i, r.values)
		}
	}
	if last := r.values[len(r.values)-1]; last != 1 {
		t.Fatalf("final progress = %v, want 1", last)
	}
}

func stereo(left, right []float64, label string) *audio.Buffer {
	return audio.NewBuffer(testutil.Interleave(left, right), sampleRate, 2, label)
}

func TestNewEngine(t *testing.T) {
	e := newTestEngine(t)
	if e.Config().Pitch.WindowSize != 2048 {
		t.Fatalf("default pitch window = %d", e.Config().Pitch.WindowSize)
	}

	cfg := config.DefaultProcessingConfig()
	cfg.Separation.WindowSize = 1000
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("expected invalid config error")
	}
}

func TestInputValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	bad := audio.NewBuffer(make([]float64, 3), sampleRate, 2, "")

	if _, err := e.DetectNotes(ctx, nil, nil); !errors.Is(err, ErrNilBuffer) {
		t.Errorf("DetectNotes(nil) error = %v", err)
	}
	if _, err := e.SuppressNoise(ctx, bad, nil); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("SuppressNoise(bad) error = %v", err)
	}
	if _, err := e.ExtractStem(ctx, nil, separation.Bass, nil); !errors.Is(err, ErrNilBuffer) {
		t.Errorf("ExtractStem(nil) error = %v", err)
	}
	if _, err := e.SeparateStems(ctx, bad, nil); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("SeparateStems(bad) error = %v", err)
	}

	short := audio.NewBuffer(make([]float64, 1000), sampleRate, 1, "")
	if _, err := e.SuppressNoise(ctx, short, nil); !errors.Is(err, ErrBufferTooShort) {
		t.Errorf("SuppressNoise(short) error = %v", err)
	}
	if _, err := e.ExtractStem(ctx, short, separation.Vocals, nil); !errors.Is(err, ErrBufferTooShort) {
		t.Errorf("ExtractStem(short) error = %v", err)
	}
}

func TestDetectNotesA440(t *testing.T) {
	e := newTestEngine(t)
	rec := &progressRecorder{}

	buf := audio.NewBuffer(testutil.DeterministicSine(440, sampleRate, 0.5, sampleRate), sampleRate, 1, "a440")
	notes, err := e.DetectNotes(context.Background(), buf, rec.report)
	if err != nil {
		t.Fatalf("DetectNotes() error = %v", err)
	}

	if len(notes) != 1 {
		t.Fatalf("got %d notes, want 1", len(notes))
	}
	n := notes[0]
	if n.MIDINote != 69 || n.Name() != "A4" {
		t.Errorf("note = %v, want A4", n)
	}
	if math.Abs(n.Frequency-440) > sampleRate/2048.0 {
		t.Errorf("Frequency = %v, want within one bin of 440", n.Frequency)
	}
	if n.Confidence <= 0.9 || n.Time != 0 {
		t.Errorf("note = %+v", n)
	}
	if want := 83 * 512.0 / sampleRate; math.Abs(n.Duration-want) > 1e-9 {
		t.Errorf("Duration = %v, want %v", n.Duration, want)
	}
	rec.check(t)
}

func TestDetectNotesStereoDownmix(t *testing.T) {
	e := newTestEngine(t)
	tone := testutil.DeterministicSine(440, sampleRate, 0.5, sampleRate)

	notes, err := e.DetectNotes(context.Background(), stereo(tone, tone, ""), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].MIDINote != 69 {
		t.Fatalf("notes = %v", notes)
	}
}

func TestDetectNotesEmptyAndShort(t *testing.T) {
	e := newTestEngine(t)

	for _, n := range []int{0, 1000} {
		notes, err := e.DetectNotes(context.Background(), audio.NewBuffer(make([]float64, n), sampleRate, 1, ""), nil)
		if err != nil {
			t.Fatalf("%d samples: error = %v", n, err)
		}
		if notes == nil || len(notes) != 0 {
			t.Fatalf("%d samples: notes = %v, want empty list", n, notes)
		}
	}
}

func TestSuppressNoiseOnPureNoise(t *testing.T) {
	e := newTestEngine(t)
	rec := &progressRecorder{}

	// the whole buffer is the profiling segment
	noise := testutil.DeterministicNoise(17, 0.3, sampleRate/2)
	buf := audio.NewBuffer(noise, sampleRate, 1, "hiss")

	out, err := e.SuppressNoise(context.Background(), buf, rec.report)
	if err != nil {
		t.Fatalf("SuppressNoise() error = %v", err)
	}

	if len(out.Samples) != len(noise) || out.SampleRate != sampleRate || out.Channels != 1 {
		t.Fatalf("output shape = %d samples, %d Hz, %d ch", len(out.Samples), out.SampleRate, out.Channels)
	}
	if out.Label != "hiss_denoised" {
		t.Errorf("Label = %q", out.Label)
	}

	in, gated := common.RMS(noise), common.RMS(out.Samples)
	if gated >= 0.97*in {
		t.Fatalf("gated RMS %v not materially below input %v", gated, in)
	}
	testutil.RequireFinite(t, out.Samples)
	rec.check(t)
}

func TestSuppressNoiseKeepsChannels(t *testing.T) {
	e := newTestEngine(t)
	left := testutil.Mix(
		testutil.DeterministicSine(600, sampleRate, 0.5, sampleRate),
		testutil.DeterministicNoise(1, 0.02, sampleRate),
	)
	right := testutil.DeterministicNoise(2, 0.02, sampleRate)

	out, err := e.SuppressNoise(context.Background(), stereo(left, right, ""), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Channels != 2 || len(out.Samples) != 2*sampleRate {
		t.Fatalf("output = %d ch, %d samples", out.Channels, len(out.Samples))
	}

	l, _ := audio.ExtractChannel(out, 0)
	r, _ := audio.ExtractChannel(out, 1)
	if testutil.ToneEnergy(l, 600, sampleRate) < 10*testutil.ToneEnergy(r, 600, sampleRate) {
		t.Fatal("channels must be gated independently")
	}
}

func TestExtractStemBandIsolation(t *testing.T) {
	e := newTestEngine(t)
	mix := testutil.Mix(
		testutil.DeterministicSine(100, sampleRate, 0.4, 2*sampleRate),
		testutil.DeterministicSine(5000, sampleRate, 0.4, 2*sampleRate),
	)
	buf := audio.NewBuffer(mix, sampleRate, 1, "mix")

	inLow := testutil.ToneEnergy(mix, 100, sampleRate)
	inHigh := testutil.ToneEnergy(mix, 5000, sampleRate)

	bass, err := e.ExtractStem(context.Background(), buf, separation.Bass, nil)
	if err != nil {
		t.Fatalf("ExtractStem(Bass) error = %v", err)
	}
	if bass.Label != "mix_20-250Hz" {
		t.Errorf("Label = %q", bass.Label)
	}
	if got := testutil.ToneEnergy(bass.Samples, 100, sampleRate); got < 0.5*inLow {
		t.Errorf("bass lost the 100 Hz tone: %v vs %v", got, inLow)
	}
	if got := testutil.ToneEnergy(bass.Samples, 5000, sampleRate); got > 0.01*inHigh {
		t.Errorf("bass kept the 5000 Hz tone: %v vs %v", got, inHigh)
	}

	vocals, err := e.ExtractStem(context.Background(), buf, separation.Vocals, nil)
	if err != nil {
		t.Fatal(err)
	}
	if testutil.ToneEnergy(vocals.Samples, 100, sampleRate) < 0.5*inLow ||
		testutil.ToneEnergy(vocals.Samples, 5000, sampleRate) < 0.5*inHigh {
		t.Error("vocals band must keep both tones")
	}
}

func TestExtractStemDistributesChannels(t *testing.T) {
	e := newTestEngine(t)
	left := testutil.DeterministicSine(150, sampleRate, 0.6, sampleRate)
	right := testutil.DeterministicSine(3000, sampleRate, 0.6, sampleRate)

	for _, stem := range []separation.StemType{separation.Bass, separation.Drums} {
		out, err := e.ExtractStem(context.Background(), stereo(left, right, "duo"), stem, nil)
		if err != nil {
			t.Fatalf("%v: error = %v", stem, err)
		}
		if out.Channels != 2 || out.SampleRate != sampleRate || out.Frames() != sampleRate {
			t.Fatalf("%v: shape = %d ch, %d Hz, %d frames", stem, out.Channels, out.SampleRate, out.Frames())
		}

		l, _ := audio.ExtractChannel(out, 0)
		r, _ := audio.ExtractChannel(out, 1)
		testutil.RequireSliceNearlyEqual(t, l, r, 0)
		testutil.RequireFinite(t, l)
	}
}

func TestNormalizationBound(t *testing.T) {
	e := newTestEngine(t)
	loud := testutil.Mix(
		testutil.DeterministicSine(110, sampleRate, 1, sampleRate),
		testutil.DeterministicSine(220, sampleRate, 1, sampleRate),
		testutil.DeterministicSine(1760, sampleRate, 1, sampleRate),
	)
	buf := audio.NewBuffer(loud, sampleRate, 1, "")
	const bound = 0.95 + 1e-9

	denoised, err := e.SuppressNoise(context.Background(), buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if peak := common.MaxAbs(denoised.Samples); peak > bound {
		t.Errorf("SuppressNoise peak = %v", peak)
	}

	for _, stem := range []separation.StemType{separation.Vocals, separation.Bass, separation.Drums, separation.Other} {
		out, err := e.ExtractStem(context.Background(), buf, stem, nil)
		if err != nil {
			t.Fatalf("%v: %v", stem, err)
		}
		if peak := common.MaxAbs(out.Samples); peak > bound {
			t.Errorf("%v peak = %v", stem, peak)
		}
	}
}

func TestExtractStemOriginal(t *testing.T) {
	e := newTestEngine(t)
	buf := audio.NewBuffer([]float64{0.1, 0.2, 0.3}, sampleRate, 1, "raw")

	out, err := e.ExtractStem(context.Background(), buf, separation.Original, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out == buf {
		t.Fatal("Original must return a copy")
	}
	testutil.RequireSliceNearlyEqual(t, out.Samples, buf.Samples, 0)
	if out.Label != "raw" {
		t.Errorf("Label = %q", out.Label)
	}
}

func TestExtractStemUnknown(t *testing.T) {
	e := newTestEngine(t)
	buf := audio.NewBuffer(make([]float64, 8192), sampleRate, 1, "")

	_, err := e.ExtractStem(context.Background(), buf, separation.StemType(99), nil)
	if !errors.Is(err, ErrUnknownStem) {
		t.Fatalf("ExtractStem(99) error = %v, want ErrUnknownStem", err)
	}
}

func TestExtractStemCancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := audio.NewBuffer(testutil.DeterministicNoise(3, 0.5, sampleRate), sampleRate, 1, "")
	for _, stem := range []separation.StemType{separation.Vocals, separation.Drums} {
		_, err := e.ExtractStem(ctx, buf, stem, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("%v: error = %v", stem, err)
		}
		var opErr *OperationError
		if !errors.As(err, &opErr) || opErr.Op != opExtractStem {
			t.Fatalf("%v: error %v is not an OperationError", stem, err)
		}
	}
}

func TestSeparateStems(t *testing.T) {
	e := newTestEngine(t)
	rec := &progressRecorder{}
	mix := testutil.Mix(
		testutil.DeterministicSine(100, sampleRate, 0.4, sampleRate),
		testutil.DeterministicSine(1000, sampleRate, 0.3, sampleRate),
		testutil.DeterministicNoise(4, 0.05, sampleRate),
	)
	buf := stereo(mix, mix, "song")

	stems, err := e.SeparateStems(context.Background(), buf, rec.report)
	if err != nil {
		t.Fatalf("SeparateStems() error = %v", err)
	}

	count := 0
	for stem, out := range stems.All() {
		count++
		if out == nil {
			t.Fatalf("%v missing", stem)
		}
		if out.Channels != 2 || out.SampleRate != sampleRate || out.Frames() != sampleRate {
			t.Fatalf("%v shape = %d ch, %d Hz, %d frames", stem, out.Channels, out.SampleRate, out.Frames())
		}
		if peak := common.MaxAbs(out.Samples); peak > 0.95+1e-9 {
			t.Fatalf("%v peak = %v", stem, peak)
		}
	}
	if count != 4 {
		t.Fatalf("got %d stems", count)
	}

	drums, _ := stems.Get(separation.Drums)
	if drums.Label != "song_drums" {
		t.Errorf("drums label = %q", drums.Label)
	}

	// matches the single-stem path
	bass, err := e.ExtractStem(context.Background(), buf, separation.Bass, nil)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, stems.Bass.Samples, bass.Samples, 1e-12)

	rec.check(t)
}

func TestSeparateStemsCancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := audio.NewBuffer(make([]float64, sampleRate), sampleRate, 1, "")
	if _, err := e.SeparateStems(ctx, buf, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("SeparateStems() error = %v", err)
	}
}
