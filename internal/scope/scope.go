// Package scope defines the oscilloscope control surface used by
// acquisition sessions, and the drivers implementing it per instrument
// model. Drivers translate method calls into SCPI commands and validate
// every parameter against the model's limits table before sending.
package scope

import (
	"github.com/piec-lab/piec/internal/waveform"
)

// TimebaseConfig configures the horizontal axis. Zero-valued numeric
// fields and empty strings are skipped rather than sent, mirroring the
// instrument's retain-current-setting behaviour.
type TimebaseConfig struct {
	Mode      string  // MAIN, WINDOW, XY or ROLL; MAIN is required for data capture
	Position  float64 // trigger delay in seconds, moves the capture window in time
	Range     float64 // full horizontal width in seconds
	Scale     float64 // seconds per division
	Reference string  // LEFT, CENTER or RIGHT
	Vernier   bool
}

// ChannelConfig configures one vertical channel.
type ChannelConfig struct {
	Channel          int
	Scale            float64 // volts per division
	Offset           float64 // volts
	Coupling         string  // AC or DC
	ProbeAttenuation float64 // e.g. 1, 10
	Impedance        string  // ONEMEG or FIFTY
	Display          bool
}

// TriggerCharacteristics configures the trigger system's level window and
// sweep mode.
type TriggerCharacteristics struct {
	Source    string // CHANNEL<n>, EXTERNAL, LINE
	LowLevel  float64
	HighLevel float64
	Sweep     string // AUTO or NORMAL
}

// TriggerEdge configures edge triggering.
type TriggerEdge struct {
	Source   string
	Coupling string // AC, DC or LFREJECT
	Slope    string // POSITIVE, NEGATIVE, EITHER or ALTERNATE
}

// TransferConfig selects how waveform data leaves the instrument. The
// same values drive the decode step, so the session never guesses byte
// order or signedness from the host.
type TransferConfig struct {
	Channel int
	Format  waveform.SampleFormat
	Order   waveform.ByteOrder
	Sign    waveform.Signedness
	Points  int // 0 leaves the instrument's record length untouched
}

// Control is the capability surface an acquisition session needs from an
// oscilloscope. One implementation exists per instrument model.
type Control interface {
	// Initialize resets the instrument and clears its status registers.
	Initialize() error
	ConfigureTimebase(cfg TimebaseConfig) error
	ConfigureChannel(cfg ChannelConfig) error
	ConfigureTriggerCharacteristics(cfg TriggerCharacteristics) error
	ConfigureTriggerEdge(cfg TriggerEdge) error
	// Digitize arms a single acquisition on the given channel.
	Digitize(channel int) error
	// SetupTransfer configures the waveform readout path and retains the
	// settings for subsequent fetches.
	SetupTransfer(cfg TransferConfig) error
	// QueryPreamble returns the raw preamble record text.
	QueryPreamble() (string, error)
	// QueryWaveformData fetches the raw sample payload in whatever
	// format SetupTransfer selected.
	QueryWaveformData() (waveform.RawBuffer, error)
	// TransferHints reports the byte order and signedness configured by
	// the last SetupTransfer, for the decode step.
	TransferHints() (waveform.ByteOrder, waveform.Signedness)
}
