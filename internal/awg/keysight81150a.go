package awg

import (
	"fmt"
	"math"
	"strings"

	"github.com/piec-lab/piec/internal/limits"
	"github.com/piec-lab/piec/internal/monitoring"
	"github.com/piec-lab/piec/internal/scpi"
)

// Keysight81150A device constants. The 81150A has a 14-bit DAC, so
// signed full scale is ±8191; the arb clock tops out at 2 GSa/s.
const (
	keysight81150AFullScale = 8191
	keysight81150AMinPeriod = 5e-10 // seconds per arb sample at max clock
)

// Keysight81150AProfile holds the model limits for the Keysight 81150A.
type Keysight81150AProfile struct {
	Limits limits.Table
}

// DefaultKeysight81150AProfile returns the stock 81150A limits.
func DefaultKeysight81150AProfile() Keysight81150AProfile {
	return Keysight81150AProfile{
		Limits: limits.Table{
			"channel":        limits.Range(1, 2),
			"voltage":        limits.Range(8e-3, 40), // Vpp
			"offset":         limits.Range(-20, 20),
			"frequency_arb":  limits.Range(1e-6, 120e6),
			"trigger_source": limits.OneOf("IMM", "INT", "INT2", "EXT", "MAN"),
			"trigger_mode":   limits.OneOf("EDGE", "LEV"),
			"trigger_slope":  limits.OneOf("POS", "NEG"),
			"impedance":      limits.OneOf("5", "50", "50.0", "INF"),
		},
	}
}

// Keysight81150A drives a Keysight 81150A pulse function arbitrary
// waveform generator.
type Keysight81150A struct {
	t       scpi.Transport
	profile Keysight81150AProfile
}

// NewKeysight81150A returns a driver bound to the given transport with
// the stock model profile.
func NewKeysight81150A(t scpi.Transport) *Keysight81150A {
	return &Keysight81150A{t: t, profile: DefaultKeysight81150AProfile()}
}

// Identify queries the instrument identification string.
func (g *Keysight81150A) Identify() (string, error) {
	return scpi.Identify(g.t)
}

// Initialize resets the generator and clears the status registers.
func (g *Keysight81150A) Initialize() error {
	return scpi.Initialize(g.t)
}

// FullScaleCode returns the DAC code for full-scale output.
func (g *Keysight81150A) FullScaleCode() float64 { return keysight81150AFullScale }

// TimeResolution returns the shortest representable arb sample period.
func (g *Keysight81150A) TimeResolution() float64 { return keysight81150AMinPeriod }

// UploadArbitrary loads a DAC-code table into volatile memory. When name
// is non-empty it is copied into a non-volatile slot if one is free;
// otherwise the table stays VOLATILE and the degradation is logged, not
// returned as an error.
func (g *Keysight81150A) UploadArbitrary(codes []float64, name string) (string, error) {
	if len(codes) == 0 {
		return "", fmt.Errorf("empty waveform table")
	}

	var sb strings.Builder
	for i, c := range codes {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", int(math.Round(c)))
	}
	if err := g.t.Write(":DATA:DAC VOLATILE, " + sb.String()); err != nil {
		return "", err
	}
	monitoring.Logf("awg: uploaded %d-point table to volatile memory", len(codes))

	if name == "" || strings.EqualFold(name, "VOLATILE") {
		return "VOLATILE", nil
	}

	free, err := scpi.QueryInt(g.t, ":DATA:NVOLatile:FREE?")
	if err != nil {
		return "", err
	}
	if free < 1 {
		monitoring.Logf("awg: no free non-volatile slot for %q, waveform stays volatile", name)
		return "VOLATILE", nil
	}
	if err := g.t.Write(fmt.Sprintf(":DATA:COPY %s, VOLATILE", name)); err != nil {
		return "", err
	}
	monitoring.Logf("awg: stored waveform as %s", name)
	return name, nil
}

// SelectArbitrary points a channel at an uploaded waveform table and
// configures gain, offset and playback frequency.
func (g *Keysight81150A) SelectArbitrary(cfg ArbConfig) error {
	if err := g.profile.Limits.CheckNumber("channel", float64(cfg.Channel)); err != nil {
		return err
	}
	if err := g.profile.Limits.CheckNumber("voltage", cfg.GainVpp); err != nil {
		return err
	}
	if err := g.profile.Limits.CheckNumber("offset", cfg.Offset); err != nil {
		return err
	}
	if err := g.profile.Limits.CheckNumber("frequency_arb", cfg.Frequency); err != nil {
		return err
	}

	name := cfg.Name
	if name == "" {
		name = "VOLATILE"
	}
	ch := cfg.Channel
	cmds := []string{
		fmt.Sprintf(":FUNCtion%d:USER %s", ch, name),
		fmt.Sprintf(":FUNCtion%d USER", ch),
		fmt.Sprintf(":VOLTage%d %G", ch, cfg.GainVpp),
		fmt.Sprintf(":VOLTage%d:OFFSet %G", ch, cfg.Offset),
		fmt.Sprintf(":FREQuency%d %G", ch, cfg.Frequency),
	}
	for _, cmd := range cmds {
		if err := g.t.Write(cmd); err != nil {
			return err
		}
	}
	monitoring.Logf("awg: channel %d playing %s at %G Hz, %G Vpp", ch, name, cfg.Frequency, cfg.GainVpp)
	return nil
}

// ConfigureTrigger configures the arming source for a channel.
func (g *Keysight81150A) ConfigureTrigger(cfg TriggerConfig) error {
	if err := g.profile.Limits.CheckNumber("channel", float64(cfg.Channel)); err != nil {
		return err
	}
	if cfg.Source != "" {
		if err := g.profile.Limits.CheckChoice("trigger_source", cfg.Source); err != nil {
			return err
		}
		if err := g.t.Write(fmt.Sprintf(":ARM:SOURce%d %s", cfg.Channel, cfg.Source)); err != nil {
			return err
		}
	}
	if cfg.Mode != "" {
		if err := g.profile.Limits.CheckChoice("trigger_mode", cfg.Mode); err != nil {
			return err
		}
		if err := g.t.Write(fmt.Sprintf(":ARM:SENSe%d %s", cfg.Channel, cfg.Mode)); err != nil {
			return err
		}
	}
	if cfg.Slope != "" {
		if err := g.profile.Limits.CheckChoice("trigger_slope", cfg.Slope); err != nil {
			return err
		}
		return g.t.Write(fmt.Sprintf(":ARM:SLOPe %s", cfg.Slope))
	}
	return nil
}

// CoupleChannels ties channel 2's settings to channel 1.
func (g *Keysight81150A) CoupleChannels() error {
	return g.t.Write(":TRACk:CHANnel1 ON")
}

// ConfigureImpedance sets the source and expected load impedance for a
// channel. Values are the instrument's mnemonics (ohms or INF).
func (g *Keysight81150A) ConfigureImpedance(channel int, sourceOhms, loadOhms string) error {
	if err := g.profile.Limits.CheckNumber("channel", float64(channel)); err != nil {
		return err
	}
	if err := g.profile.Limits.CheckChoice("impedance", sourceOhms); err != nil {
		return err
	}
	if err := g.t.Write(fmt.Sprintf(":OUTPut%d:IMPedance %s", channel, sourceOhms)); err != nil {
		return err
	}
	if err := g.profile.Limits.CheckChoice("impedance", loadOhms); err != nil {
		return err
	}
	return g.t.Write(fmt.Sprintf(":OUTPut%d:LOAD %s", channel, loadOhms))
}

// EnableOutput switches a channel's front-panel output on or off.
func (g *Keysight81150A) EnableOutput(channel int, on bool) error {
	if err := g.profile.Limits.CheckNumber("channel", float64(channel)); err != nil {
		return err
	}
	state := "OFF"
	if on {
		state = "ON"
	}
	return g.t.Write(fmt.Sprintf(":OUTPut%d %s", channel, state))
}

// SendSoftwareTrigger issues a manual trigger event.
func (g *Keysight81150A) SendSoftwareTrigger() error {
	return g.t.Write("*TRG")
}
