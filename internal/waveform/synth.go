package waveform

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for the synthesis pipeline.
var (
	ErrInvalidBreakpoints = errors.New("invalid breakpoints")
	ErrDegenerateRange    = errors.New("degenerate sample range")
)

// Breakpoint is one vertex of a sparse piecewise-linear waveform
// definition: X is seconds from the start of the stimulus, Y is the
// (unscaled) amplitude at that instant. X values must be non-negative and
// strictly increasing across a sequence.
type Breakpoint struct {
	X, Y float64
}

// Densify converts a sparse breakpoint sequence into an evenly resampled
// table of exactly totalPoints values, suitable for upload to an
// arbitrary waveform generator. Each segment [x_i, x_{i+1}) contributes
// round(totalPoints * (x_{i+1}-x_i) / x_last) linearly interpolated
// samples with the right endpoint excluded, so segments tile without
// duplicated boundary samples.
//
// Per-segment rounding can leave the concatenation short of totalPoints;
// the shortfall is made up by repeating the final sample. This is a
// deliberate tie-break policy: callers must not rely on an exact
// index-to-segment-boundary correspondence. A rounding overshoot is
// truncated to totalPoints for the same reason.
func Densify(breakpoints []Breakpoint, totalPoints int) ([]float64, error) {
	if len(breakpoints) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 breakpoints, got %d", ErrInvalidBreakpoints, len(breakpoints))
	}
	if totalPoints < len(breakpoints) {
		return nil, fmt.Errorf("%w: %d points cannot resolve %d breakpoints", ErrInvalidBreakpoints, totalPoints, len(breakpoints))
	}
	if breakpoints[0].X < 0 {
		return nil, fmt.Errorf("%w: negative start time %v", ErrInvalidBreakpoints, breakpoints[0].X)
	}
	for i := 1; i < len(breakpoints); i++ {
		if breakpoints[i].X <= breakpoints[i-1].X {
			return nil, fmt.Errorf("%w: x values must be strictly increasing (x[%d]=%v, x[%d]=%v)",
				ErrInvalidBreakpoints, i-1, breakpoints[i-1].X, i, breakpoints[i].X)
		}
	}

	// Strictly increasing, so the last x is the span normalizer.
	xLast := breakpoints[len(breakpoints)-1].X

	dense := make([]float64, 0, totalPoints)
	for i := 0; i < len(breakpoints)-1; i++ {
		a, b := breakpoints[i], breakpoints[i+1]
		n := int(math.Round(float64(totalPoints) * (b.X - a.X) / xLast))
		if n <= 0 {
			continue
		}
		step := (b.Y - a.Y) / float64(n)
		for j := 0; j < n; j++ {
			dense = append(dense, a.Y+float64(j)*step)
		}
	}

	// A sequence whose span is a tiny fraction of its end time can leave
	// every per-segment count at zero; seed with the first amplitude so
	// the pad loop has a sample to repeat.
	if len(dense) == 0 {
		dense = append(dense, breakpoints[0].Y)
	}
	// Repeat the final sample to absorb rounding shortfall.
	for len(dense) < totalPoints {
		dense = append(dense, dense[len(dense)-1])
	}
	return dense[:totalPoints], nil
}

// ScaleToDeviceCodes maps an arbitrary-range sample table onto the
// generator's DAC code range: the observed min/max are normalized to
// [-1, 1] and multiplied by fullScaleCode. The normalization uses the
// table's own extrema, never a caller-specified nominal range. A table
// with zero variance cannot be normalized and fails with
// ErrDegenerateRange; constant waveforms must be special-cased by the
// caller (a DC offset, not an arb table).
func ScaleToDeviceCodes(samples []float64, fullScaleCode float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty sample table", ErrDegenerateRange)
	}
	min, max := samples[0], samples[0]
	for _, s := range samples[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	if min == max {
		return nil, fmt.Errorf("%w: all %d samples equal %v", ErrDegenerateRange, len(samples), min)
	}

	span := max - min
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = (2*(s-min)/span - 1) * fullScaleCode
	}
	return out, nil
}
