package waveform

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Trace is the calibrated result of one acquisition: two equal-length
// series where Time[i] is seconds from the trigger reference and
// Voltage[i] is volts. A trace is immutable once produced and owned by
// the measurement recipe that requested it.
type Trace struct {
	Time    []float64
	Voltage []float64

	// Capture metadata carried through from the preamble.
	Format SampleFormat
	Type   AcquisitionType
}

// Len returns the number of samples in the trace.
func (t *Trace) Len() int { return len(t.Time) }

// Duration returns the time span covered by the trace in seconds.
func (t *Trace) Duration() float64 {
	if len(t.Time) == 0 {
		return 0
	}
	return t.Time[len(t.Time)-1] - t.Time[0]
}

// Summary holds basic voltage statistics for a trace.
type Summary struct {
	Min  float64
	Max  float64
	Mean float64
	Vpp  float64
}

// Summarize computes voltage statistics over the whole trace.
func (t *Trace) Summarize() Summary {
	if len(t.Voltage) == 0 {
		return Summary{}
	}
	min := floats.Min(t.Voltage)
	max := floats.Max(t.Voltage)
	return Summary{
		Min:  min,
		Max:  max,
		Mean: stat.Mean(t.Voltage, nil),
		Vpp:  max - min,
	}
}

// csvHeader is the fixed export schema consumed by downstream analysis.
var csvHeader = []string{"time (s)", "voltage (V)"}

// WriteCSV writes the trace as delimited text, one row per sample, with
// the canonical "time (s)", "voltage (V)" header.
func (t *Trace) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range t.Time {
		row := []string{
			strconv.FormatFloat(t.Time[i], 'g', -1, 64),
			strconv.FormatFloat(t.Voltage[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the trace to a file, replacing any existing file at the
// same path. Collision handling is the caller's responsibility.
func (t *Trace) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
