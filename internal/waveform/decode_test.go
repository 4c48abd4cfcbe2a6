package waveform

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestDecodeByteEndToEnd covers the canonical capture: 4 signed bytes at
// 1 µs per sample with unity vertical calibration.
func TestDecodeByteEndToEnd(t *testing.T) {
	pre, err := ParsePreamble("0,0,4,1,1e-6,0,0,1.0,0.0,0")
	if err != nil {
		t.Fatalf("ParsePreamble failed: %v", err)
	}

	tr, err := Decode(pre, RawBytes([]byte{0, 1, 2, 3}), MSBFirst, Signed)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	wantTime := []float64{0, 1e-6, 2e-6, 3e-6}
	wantVolt := []float64{0, 1, 2, 3}
	if diff := cmp.Diff(wantTime, tr.Time); diff != "" {
		t.Errorf("time axis mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantVolt, tr.Voltage); diff != "" {
		t.Errorf("voltage mismatch (-want +got):\n%s", diff)
	}
}

// TestDecodeLinearScaling checks the scaling law exactly on non-trivial
// calibration constants. No tolerance: the arithmetic is exact on the
// given floats.
func TestDecodeLinearScaling(t *testing.T) {
	pre := Preamble{
		Format:     FormatByte,
		Points:     3,
		Count:      1,
		XIncrement: 2.5e-9,
		XOrigin:    -1e-6,
		YIncrement: 0.03125,
		YOrigin:    -0.5,
	}
	raw := []byte{0x00, 0x7F, 0x80} // signed: 0, 127, -128

	tr, err := Decode(pre, RawBytes(raw), MSBFirst, Signed)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for i, code := range []float64{0, 127, -128} {
		wantT := float64(i)*pre.XIncrement + pre.XOrigin
		wantV := code*pre.YIncrement + pre.YOrigin
		if tr.Time[i] != wantT {
			t.Errorf("time[%d] = %v, want %v", i, tr.Time[i], wantT)
		}
		if tr.Voltage[i] != wantV {
			t.Errorf("voltage[%d] = %v, want %v", i, tr.Voltage[i], wantV)
		}
	}
}

func TestDecodeWordByteOrder(t *testing.T) {
	pre := Preamble{Format: FormatWord, Points: 2, Count: 1, XIncrement: 1e-6, YIncrement: 1}
	buf := []byte{0x01, 0x00, 0xFF, 0x00}

	tests := []struct {
		name  string
		order ByteOrder
		sign  Signedness
		want  []float64
	}{
		{"msb first signed", MSBFirst, Signed, []float64{256, -256}},
		{"lsb first signed", LSBFirst, Signed, []float64{1, 255}},
		{"msb first unsigned", MSBFirst, Unsigned, []float64{256, 65280}},
		{"lsb first unsigned", LSBFirst, Unsigned, []float64{1, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Decode(pre, RawBytes(buf), tt.order, tt.sign)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, tr.Voltage); diff != "" {
				t.Errorf("voltage mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestDecodeAsciiIgnoresHints verifies the ASCII path uses pre-parsed
// floats untouched by byte order or signedness.
func TestDecodeAsciiIgnoresHints(t *testing.T) {
	pre := Preamble{Format: FormatAscii, Points: 3, Count: 1, XIncrement: 1e-3, YIncrement: 2, YOrigin: 1}
	samples := []float64{-0.5, 0, 0.5}

	for _, order := range []ByteOrder{MSBFirst, LSBFirst} {
		for _, sign := range []Signedness{Signed, Unsigned} {
			tr, err := Decode(pre, RawFloats(samples), order, sign)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			want := []float64{0, 1, 2}
			if diff := cmp.Diff(want, tr.Voltage); diff != "" {
				t.Errorf("voltage mismatch (-want +got):\n%s", diff)
			}
		}
	}
}

func TestDecodeCountMismatch(t *testing.T) {
	tests := []struct {
		name string
		pre  Preamble
		raw  RawBuffer
	}{
		{"byte short", Preamble{Format: FormatByte, Points: 4, XIncrement: 1e-6}, RawBytes([]byte{1, 2, 3})},
		{"byte long", Preamble{Format: FormatByte, Points: 2, XIncrement: 1e-6}, RawBytes([]byte{1, 2, 3})},
		{"word odd buffer", Preamble{Format: FormatWord, Points: 2, XIncrement: 1e-6}, RawBytes([]byte{1, 2, 3})},
		{"ascii short", Preamble{Format: FormatAscii, Points: 3, XIncrement: 1e-6}, RawFloats([]float64{1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.pre, tt.raw, MSBFirst, Signed)
			if !errors.Is(err, ErrMalformedPreamble) {
				t.Errorf("Decode error = %v, want ErrMalformedPreamble", err)
			}
		})
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	pre := Preamble{Format: SampleFormat(2), Points: 1, XIncrement: 1e-6}
	_, err := Decode(pre, RawBytes([]byte{0}), MSBFirst, Signed)
	if !errors.Is(err, ErrUnsupportedSampleFormat) {
		t.Errorf("Decode error = %v, want ErrUnsupportedSampleFormat", err)
	}
}
