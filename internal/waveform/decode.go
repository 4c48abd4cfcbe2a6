package waveform

import (
	"encoding/binary"
	"fmt"
)

// ByteOrder selects how 16-bit samples are assembled from the wire. It is
// always supplied explicitly by the caller that configured the instrument;
// the decoder never consults the host platform's endianness.
type ByteOrder int

const (
	MSBFirst ByteOrder = iota // big-endian words (:WAVeform:BYTeorder MSBFirst)
	LSBFirst                  // little-endian words
)

// Signedness selects the integer interpretation of raw BYTE/WORD samples.
// The scope reports it via :WAVeform:UNSigned?.
type Signedness int

const (
	Signed Signedness = iota
	Unsigned
)

// RawBuffer holds the undecoded sample payload of one acquisition. For
// BYTE/WORD formats Bytes carries the raw block payload; for ASCII format
// the transport has already split and parsed the tokens into Floats.
// A buffer is owned exclusively by the acquisition that fetched it.
type RawBuffer struct {
	Bytes  []byte
	Floats []float64
}

// RawBytes wraps a raw binary block payload.
func RawBytes(b []byte) RawBuffer { return RawBuffer{Bytes: b} }

// RawFloats wraps pre-parsed ASCII samples.
func RawFloats(f []float64) RawBuffer { return RawBuffer{Floats: f} }

// Decode converts a preamble plus raw sample buffer into a calibrated
// trace: time[i] = i*XIncrement + XOrigin, voltage[i] = raw[i]*YIncrement
// + YOrigin. The element width and integer interpretation come from the
// preamble format and the explicit hints; for ASCII format both hints are
// ignored since the samples arrive as floats. Decode is pure: no I/O, no
// retained state, deterministic for identical inputs.
func Decode(pre Preamble, raw RawBuffer, order ByteOrder, sign Signedness) (*Trace, error) {
	samples, err := rawSamples(pre, raw, order, sign)
	if err != nil {
		return nil, err
	}

	tr := &Trace{
		Time:    make([]float64, pre.Points),
		Voltage: make([]float64, pre.Points),
		Format:  pre.Format,
		Type:    pre.Type,
	}
	for i, s := range samples {
		tr.Time[i] = float64(i)*pre.XIncrement + pre.XOrigin
		tr.Voltage[i] = s*pre.YIncrement + pre.YOrigin
	}
	return tr, nil
}

func rawSamples(pre Preamble, raw RawBuffer, order ByteOrder, sign Signedness) ([]float64, error) {
	switch pre.Format {
	case FormatByte:
		if len(raw.Bytes) != pre.Points {
			return nil, fmt.Errorf("%w: preamble declares %d points but buffer holds %d bytes",
				ErrMalformedPreamble, pre.Points, len(raw.Bytes))
		}
		out := make([]float64, pre.Points)
		for i, b := range raw.Bytes {
			if sign == Unsigned {
				out[i] = float64(b)
			} else {
				out[i] = float64(int8(b))
			}
		}
		return out, nil

	case FormatWord:
		if len(raw.Bytes) != 2*pre.Points {
			return nil, fmt.Errorf("%w: preamble declares %d points but buffer holds %d bytes",
				ErrMalformedPreamble, pre.Points, len(raw.Bytes))
		}
		var bo binary.ByteOrder = binary.BigEndian
		if order == LSBFirst {
			bo = binary.LittleEndian
		}
		out := make([]float64, pre.Points)
		for i := 0; i < pre.Points; i++ {
			w := bo.Uint16(raw.Bytes[2*i:])
			if sign == Unsigned {
				out[i] = float64(w)
			} else {
				out[i] = float64(int16(w))
			}
		}
		return out, nil

	case FormatAscii:
		if len(raw.Floats) != pre.Points {
			return nil, fmt.Errorf("%w: preamble declares %d points but buffer holds %d samples",
				ErrMalformedPreamble, pre.Points, len(raw.Floats))
		}
		out := make([]float64, pre.Points)
		copy(out, raw.Floats)
		return out, nil
	}
	return nil, fmt.Errorf("%w: format code %d", ErrUnsupportedSampleFormat, int(pre.Format))
}
