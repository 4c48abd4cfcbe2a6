package acquire

import (
	"fmt"
	"math"

	"github.com/piec-lab/piec/internal/waveform"
)

// Recipe defines a stimulus waveform shape for an acquisition: the
// sparse breakpoint geometry plus the generator amplitude, offset and
// playback rate it should be driven with.
type Recipe interface {
	// Tag identifies the waveform type in exported metadata.
	Tag() string
	// Duration is the nominal stimulus length in seconds.
	Duration() float64
	// Breakpoints returns the sparse (time, amplitude) vertices of the
	// stimulus, strictly increasing in time.
	Breakpoints() ([]waveform.Breakpoint, error)
	// GainVpp is the peak-to-peak amplitude the generator should apply
	// to the normalized table.
	GainVpp() float64
	// Offset is the output offset in volts.
	Offset() float64
	// Frequency is the playback rate of the whole table in Hz.
	Frequency() float64
}

// HysteresisLoop drives a ferroelectric capacitor with a triangle wave
// and captures the switching response. The breakpoint pattern is the
// classic bipolar triangle: 0, +1, 0, -1, 0 over each cycle.
type HysteresisLoop struct {
	FrequencyHz float64 // triangle frequency per cycle
	Amplitude   float64 // peak amplitude in volts
	OffsetV     float64
	NCycles     int
}

func (h HysteresisLoop) Tag() string { return "HYSTERESIS" }

func (h HysteresisLoop) Duration() float64 {
	return float64(h.NCycles) / h.FrequencyHz
}

// Breakpoints lays the triangle vertices at quarter-cycle spacing.
func (h HysteresisLoop) Breakpoints() ([]waveform.Breakpoint, error) {
	if h.FrequencyHz <= 0 {
		return nil, fmt.Errorf("%w: frequency %v Hz", waveform.ErrInvalidBreakpoints, h.FrequencyHz)
	}
	if h.NCycles < 1 {
		return nil, fmt.Errorf("%w: %d cycles", waveform.ErrInvalidBreakpoints, h.NCycles)
	}
	quarter := 1 / (4 * h.FrequencyHz)
	pattern := []float64{1, 0, -1, 0}

	bps := []waveform.Breakpoint{{X: 0, Y: 0}}
	t := 0.0
	for c := 0; c < h.NCycles; c++ {
		for _, y := range pattern {
			t += quarter
			bps = append(bps, waveform.Breakpoint{X: t, Y: y})
		}
	}
	return bps, nil
}

// GainVpp doubles the peak amplitude: the normalized table spans [-1, 1].
func (h HysteresisLoop) GainVpp() float64 { return 2 * h.Amplitude }

func (h HysteresisLoop) Offset() float64 { return h.OffsetV }

// Frequency plays the table so each triangle cycle runs at FrequencyHz.
func (h HysteresisLoop) Frequency() float64 {
	return h.FrequencyHz / float64(h.NCycles)
}

// PUNDPulse drives the positive-up-negative-down pulse train used to
// characterize ferroelectric switching: a reset pulse of one polarity
// followed by two same-polarity measurement pulses (P then U), separated
// by delays at zero volts.
type PUNDPulse struct {
	ResetAmp   float64 // volts; applied with reversed polarity
	ResetWidth float64 // seconds
	ResetDelay float64 // seconds between reset and P pulse
	PUAmp      float64 // volts; sign selects the train's polarity
	PUWidth    float64 // seconds
	PUDelay    float64 // seconds between P and U pulses
	OffsetV    float64
}

func (p PUNDPulse) Tag() string { return "PUND" }

func (p PUNDPulse) Duration() float64 {
	return p.ResetWidth + p.ResetDelay + 2*p.PUWidth + 2*p.PUDelay
}

// Breakpoints builds the pulse-train vertices: each edge is a pair of
// breakpoints at the same cumulative time boundary offset by nothing —
// the densify step turns them into a rise/fall one sample period wide.
// Amplitudes are fractions of the combined amplitude so the scaled table
// reproduces the reset and measurement levels exactly.
func (p PUNDPulse) Breakpoints() ([]waveform.Breakpoint, error) {
	if p.ResetWidth <= 0 || p.PUWidth <= 0 || p.ResetDelay <= 0 || p.PUDelay <= 0 {
		return nil, fmt.Errorf("%w: pulse widths and delays must be positive", waveform.ErrInvalidBreakpoints)
	}
	if p.ResetAmp == 0 || p.PUAmp == 0 {
		return nil, fmt.Errorf("%w: zero pulse amplitude", waveform.ErrInvalidBreakpoints)
	}

	segments := []float64{p.ResetWidth, p.ResetDelay, p.PUWidth, p.PUDelay, p.PUWidth, p.PUDelay}
	cum := make([]float64, len(segments))
	t := 0.0
	for i, d := range segments {
		t += d
		cum[i] = t
	}

	amplitude := math.Abs(p.ResetAmp) + math.Abs(p.PUAmp)
	fracReset := math.Abs(p.ResetAmp) / amplitude
	fracPU := math.Abs(p.PUAmp) / amplitude
	polarity := 1.0
	if p.PUAmp < 0 {
		polarity = -1
	}

	// Edges are squeezed to one densify sample by placing the level
	// change epsilon after the boundary time.
	eps := cum[len(cum)-1] * 1e-9
	bps := []waveform.Breakpoint{
		{X: 0, Y: -fracReset * polarity},
		{X: cum[0], Y: -fracReset * polarity},
		{X: cum[0] + eps, Y: 0},
		{X: cum[1], Y: 0},
		{X: cum[1] + eps, Y: fracPU * polarity},
		{X: cum[2], Y: fracPU * polarity},
		{X: cum[2] + eps, Y: 0},
		{X: cum[3], Y: 0},
		{X: cum[3] + eps, Y: fracPU * polarity},
		{X: cum[4], Y: fracPU * polarity},
		{X: cum[4] + eps, Y: 0},
		{X: cum[5], Y: 0},
	}
	return bps, nil
}

// GainVpp spans from the reset level to the measurement level.
func (p PUNDPulse) GainVpp() float64 {
	return math.Abs(p.ResetAmp) + math.Abs(p.PUAmp)
}

func (p PUNDPulse) Offset() float64 { return p.OffsetV }

// Frequency plays the whole train once per Duration.
func (p PUNDPulse) Frequency() float64 { return 1 / p.Duration() }
