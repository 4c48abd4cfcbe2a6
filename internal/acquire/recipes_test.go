package acquire

import (
	"errors"
	"math"
	"testing"

	"github.com/piec-lab/piec/internal/waveform"
)

func TestHysteresisBreakpoints(t *testing.T) {
	h := HysteresisLoop{FrequencyHz: 1000, Amplitude: 1, NCycles: 2}

	bps, err := h.Breakpoints()
	if err != nil {
		t.Fatalf("Breakpoints failed: %v", err)
	}
	// One starting vertex plus four per cycle.
	if len(bps) != 9 {
		t.Fatalf("got %d breakpoints, want 9", len(bps))
	}
	wantY := []float64{0, 1, 0, -1, 0, 1, 0, -1, 0}
	for i, bp := range bps {
		if bp.Y != wantY[i] {
			t.Errorf("breakpoint %d amplitude = %v, want %v", i, bp.Y, wantY[i])
		}
	}
	// Vertices sit at quarter-cycle spacing.
	quarter := 1 / (4 * h.FrequencyHz)
	for i, bp := range bps {
		want := float64(i) * quarter
		if math.Abs(bp.X-want) > 1e-12 {
			t.Errorf("breakpoint %d time = %v, want %v", i, bp.X, want)
		}
	}

	if d := h.Duration(); math.Abs(d-2e-3) > 1e-15 {
		t.Errorf("Duration = %v, want 2e-3", d)
	}
	if g := h.GainVpp(); g != 2 {
		t.Errorf("GainVpp = %v, want 2", g)
	}
}

func TestHysteresisBreakpointsDensify(t *testing.T) {
	h := HysteresisLoop{FrequencyHz: 1000, Amplitude: 1, NCycles: 1}
	bps, err := h.Breakpoints()
	if err != nil {
		t.Fatalf("Breakpoints failed: %v", err)
	}
	dense, err := waveform.Densify(bps, 1000)
	if err != nil {
		t.Fatalf("Densify failed: %v", err)
	}
	if len(dense) != 1000 {
		t.Fatalf("got %d samples, want 1000", len(dense))
	}
	// Peak and trough of the triangle land near the quarter points.
	peak := dense[250]
	trough := dense[750]
	if math.Abs(peak-1) > 0.01 {
		t.Errorf("peak = %v, want about 1", peak)
	}
	if math.Abs(trough+1) > 0.01 {
		t.Errorf("trough = %v, want about -1", trough)
	}
}

func TestHysteresisInvalidParameters(t *testing.T) {
	_, err := HysteresisLoop{FrequencyHz: 0, Amplitude: 1, NCycles: 1}.Breakpoints()
	if !errors.Is(err, waveform.ErrInvalidBreakpoints) {
		t.Errorf("zero frequency: error = %v, want ErrInvalidBreakpoints", err)
	}
	_, err = HysteresisLoop{FrequencyHz: 1000, Amplitude: 1, NCycles: 0}.Breakpoints()
	if !errors.Is(err, waveform.ErrInvalidBreakpoints) {
		t.Errorf("zero cycles: error = %v, want ErrInvalidBreakpoints", err)
	}
}

func TestPUNDBreakpoints(t *testing.T) {
	p := PUNDPulse{
		ResetAmp:   1,
		ResetWidth: 1e-3,
		ResetDelay: 1e-3,
		PUAmp:      1,
		PUWidth:    1e-3,
		PUDelay:    1e-3,
	}

	bps, err := p.Breakpoints()
	if err != nil {
		t.Fatalf("Breakpoints failed: %v", err)
	}
	if len(bps) != 12 {
		t.Fatalf("got %d breakpoints, want 12", len(bps))
	}

	// Reset pulse holds -0.5 (half the combined amplitude), the P and U
	// pulses hold +0.5, with zero-level delays between them.
	if bps[0].Y != -0.5 || bps[1].Y != -0.5 {
		t.Errorf("reset level = %v, %v, want -0.5", bps[0].Y, bps[1].Y)
	}
	if bps[4].Y != 0.5 || bps[5].Y != 0.5 {
		t.Errorf("P pulse level = %v, %v, want 0.5", bps[4].Y, bps[5].Y)
	}
	if bps[8].Y != 0.5 || bps[9].Y != 0.5 {
		t.Errorf("U pulse level = %v, %v, want 0.5", bps[8].Y, bps[9].Y)
	}
	if bps[11].Y != 0 {
		t.Errorf("final level = %v, want 0", bps[11].Y)
	}

	// X must be strictly increasing for densification.
	for i := 1; i < len(bps); i++ {
		if bps[i].X <= bps[i-1].X {
			t.Errorf("breakpoint %d time %v not after %v", i, bps[i].X, bps[i-1].X)
		}
	}

	if d := p.Duration(); math.Abs(d-6e-3) > 1e-15 {
		t.Errorf("Duration = %v, want 6e-3", d)
	}
	if g := p.GainVpp(); g != 2 {
		t.Errorf("GainVpp = %v, want 2", g)
	}
	if f := p.Frequency(); math.Abs(f-1/6e-3) > 1e-9 {
		t.Errorf("Frequency = %v, want %v", f, 1/6e-3)
	}
}

func TestPUNDPolarityInversion(t *testing.T) {
	p := PUNDPulse{
		ResetAmp:   1,
		ResetWidth: 1e-3,
		ResetDelay: 1e-3,
		PUAmp:      -1,
		PUWidth:    1e-3,
		PUDelay:    1e-3,
	}
	bps, err := p.Breakpoints()
	if err != nil {
		t.Fatalf("Breakpoints failed: %v", err)
	}
	// Negative P/U amplitude flips the whole train.
	if bps[0].Y != 0.5 {
		t.Errorf("reset level = %v, want +0.5", bps[0].Y)
	}
	if bps[4].Y != -0.5 {
		t.Errorf("P pulse level = %v, want -0.5", bps[4].Y)
	}
}

func TestPUNDAsymmetricAmplitudes(t *testing.T) {
	p := PUNDPulse{
		ResetAmp:   3,
		ResetWidth: 1e-3,
		ResetDelay: 1e-3,
		PUAmp:      1,
		PUWidth:    1e-3,
		PUDelay:    1e-3,
	}
	bps, err := p.Breakpoints()
	if err != nil {
		t.Fatalf("Breakpoints failed: %v", err)
	}
	if bps[0].Y != -0.75 {
		t.Errorf("reset fraction = %v, want -0.75", bps[0].Y)
	}
	if bps[4].Y != 0.25 {
		t.Errorf("P fraction = %v, want 0.25", bps[4].Y)
	}
	if g := p.GainVpp(); g != 4 {
		t.Errorf("GainVpp = %v, want 4", g)
	}
}

func TestPUNDInvalidParameters(t *testing.T) {
	base := PUNDPulse{ResetAmp: 1, ResetWidth: 1e-3, ResetDelay: 1e-3, PUAmp: 1, PUWidth: 1e-3, PUDelay: 1e-3}

	zeroWidth := base
	zeroWidth.ResetWidth = 0
	if _, err := zeroWidth.Breakpoints(); !errors.Is(err, waveform.ErrInvalidBreakpoints) {
		t.Errorf("zero width: error = %v, want ErrInvalidBreakpoints", err)
	}

	zeroAmp := base
	zeroAmp.PUAmp = 0
	if _, err := zeroAmp.Breakpoints(); !errors.Is(err, waveform.ErrInvalidBreakpoints) {
		t.Errorf("zero amplitude: error = %v, want ErrInvalidBreakpoints", err)
	}
}
