// Package awg defines the arbitrary-waveform-generator control surface
// used by acquisition sessions, and the per-model drivers implementing
// it. Drivers own their model's limits table and device resolution
// constants.
package awg

// ArbConfig selects an uploaded arbitrary waveform for playback on a
// channel.
type ArbConfig struct {
	Channel   int
	Name      string  // device waveform name; VOLATILE for an unnamed table
	GainVpp   float64 // peak-to-peak output amplitude in volts
	Offset    float64 // volts
	Frequency float64 // playback rate of the whole table in Hz
}

// TriggerConfig configures the generator's trigger system for one
// channel.
type TriggerConfig struct {
	Channel int
	Source  string // IMMEDIATE, INTERNAL, EXTERNAL or MANUAL
	Mode    string // EDGE or LEVEL; empty leaves the setting untouched
	Slope   string // POSITIVE or NEGATIVE; empty leaves the setting untouched
}

// Control is the capability surface an acquisition session needs from an
// arbitrary waveform generator.
type Control interface {
	// Initialize resets the instrument and clears its status registers.
	Initialize() error
	// UploadArbitrary loads a DAC-code table into volatile memory and,
	// when name is non-empty and a non-volatile slot is free, stores it
	// under that name. It returns the device name the table ended up
	// under; a full non-volatile store is a logged degradation, not an
	// error, and the table stays playable as VOLATILE.
	UploadArbitrary(codes []float64, name string) (string, error)
	// SelectArbitrary points a channel's user function at an uploaded
	// table and sets gain, offset and playback frequency.
	SelectArbitrary(cfg ArbConfig) error
	ConfigureTrigger(cfg TriggerConfig) error
	// CoupleChannels ties the channel settings together so both outputs
	// follow one configuration.
	CoupleChannels() error
	ConfigureImpedance(channel int, sourceOhms, loadOhms string) error
	EnableOutput(channel int, on bool) error
	// SendSoftwareTrigger issues *TRG.
	SendSoftwareTrigger() error

	// FullScaleCode is the DAC code corresponding to full-scale output.
	FullScaleCode() float64
	// TimeResolution is the shortest representable arb sample period in
	// seconds; stimulus synthesis quantizes to it.
	TimeResolution() float64
}
