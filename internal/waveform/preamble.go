package waveform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for the decode pipeline. Callers match with errors.Is.
var (
	ErrMalformedPreamble       = errors.New("malformed preamble")
	ErrUnsupportedSampleFormat = errors.New("unsupported sample format")
)

// SampleFormat identifies how the instrument encoded each raw sample.
// The numeric codes are the instrument's own (:WAVeform:FORMat mapping).
type SampleFormat int

const (
	FormatByte  SampleFormat = 0 // one signed/unsigned byte per sample
	FormatWord  SampleFormat = 1 // two bytes per sample, explicit byte order
	FormatAscii SampleFormat = 4 // comma-separated floats, already decoded
)

func (f SampleFormat) String() string {
	switch f {
	case FormatByte:
		return "BYTE"
	case FormatWord:
		return "WORD"
	case FormatAscii:
		return "ASCII"
	}
	return fmt.Sprintf("SampleFormat(%d)", int(f))
}

// AcquisitionType identifies the scope acquisition mode the trace was
// captured in. Decoding is identical for all three; the value is carried
// through as trace metadata.
type AcquisitionType int

const (
	AcqNormal     AcquisitionType = 0
	AcqPeakDetect AcquisitionType = 1
	AcqAverage    AcquisitionType = 2
)

func (a AcquisitionType) String() string {
	switch a {
	case AcqNormal:
		return "NORMAL"
	case AcqPeakDetect:
		return "PEAK"
	case AcqAverage:
		return "AVERAGE"
	}
	return fmt.Sprintf("AcquisitionType(%d)", int(a))
}

// preambleFieldCount is fixed by the instrument: the :WAVeform:PREamble?
// response is always format, type, points, count, xinc, xorig, xref,
// yinc, yorig, yref.
const preambleFieldCount = 10

// Preamble is the instrument-supplied metadata record describing how to
// interpret a raw waveform sample buffer. It is constructed fresh per
// acquisition and never mutated.
type Preamble struct {
	Format     SampleFormat
	Type       AcquisitionType
	Points     int     // number of samples in the accompanying buffer
	Count      int     // averages per point; 1 outside average mode
	XIncrement float64 // seconds per sample
	XOrigin    float64 // time of the first sample in seconds
	XReference int     // index of the sample at XOrigin
	YIncrement float64 // volts per LSB
	YOrigin    float64 // voltage at raw code zero
	YReference int     // raw code corresponding to zero volts
}

// ParsePreamble parses the comma-separated 10-field preamble record the
// scope returns from :WAVeform:PREamble?. Field order is fixed. A record
// with the wrong field count or an unparseable field fails with
// ErrMalformedPreamble; a format code the decoder cannot handle fails
// with ErrUnsupportedSampleFormat.
func ParsePreamble(text string) (Preamble, error) {
	var p Preamble

	fields := strings.Split(strings.TrimSpace(text), ",")
	if len(fields) != preambleFieldCount {
		return p, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedPreamble, preambleFieldCount, len(fields))
	}

	ints := make([]int, preambleFieldCount)
	floats := make([]float64, preambleFieldCount)
	for i, raw := range fields {
		field := strings.TrimSpace(raw)
		switch i {
		case 4, 5, 7, 8: // xinc, xorig, yinc, yorig
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return p, fmt.Errorf("%w: field %d %q is not a float", ErrMalformedPreamble, i, field)
			}
			floats[i] = v
		default:
			v, err := strconv.Atoi(field)
			if err != nil {
				return p, fmt.Errorf("%w: field %d %q is not an integer", ErrMalformedPreamble, i, field)
			}
			ints[i] = v
		}
	}

	switch SampleFormat(ints[0]) {
	case FormatByte, FormatWord, FormatAscii:
	default:
		return p, fmt.Errorf("%w: format code %d", ErrUnsupportedSampleFormat, ints[0])
	}
	if ints[2] < 1 {
		return p, fmt.Errorf("%w: point count %d", ErrMalformedPreamble, ints[2])
	}
	if floats[4] <= 0 {
		return p, fmt.Errorf("%w: x increment %v", ErrMalformedPreamble, floats[4])
	}

	p = Preamble{
		Format:     SampleFormat(ints[0]),
		Type:       AcquisitionType(ints[1]),
		Points:     ints[2],
		Count:      ints[3],
		XIncrement: floats[4],
		XOrigin:    floats[5],
		XReference: ints[6],
		YIncrement: floats[7],
		YOrigin:    floats[8],
		YReference: ints[9],
	}
	return p, nil
}
