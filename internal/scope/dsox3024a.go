package scope

import (
	"fmt"

	"github.com/piec-lab/piec/internal/limits"
	"github.com/piec-lab/piec/internal/monitoring"
	"github.com/piec-lab/piec/internal/scpi"
	"github.com/piec-lab/piec/internal/waveform"
)

// DSOX3024AProfile holds the model limits for the Keysight DSOX3024A.
// Profiles are explicit per-model data, owned by the driver instance and
// immutable after construction.
type DSOX3024AProfile struct {
	Limits limits.Table
}

// DefaultDSOX3024AProfile returns the stock DSOX3024A limits.
func DefaultDSOX3024AProfile() DSOX3024AProfile {
	return DSOX3024AProfile{
		Limits: limits.Table{
			"channel":          limits.Range(1, 4),
			"voltage_range":    limits.Range(8e-3, 40),
			"voltage_scale":    limits.Range(8e-4, 4),
			"voltage_offset":   limits.Range(-40, 40),
			"time_range":       limits.Range(2e-8, 500),
			"time_scale":       limits.Range(2e-9, 50),
			"timebase_mode":    limits.OneOf("MAIN", "WINDOW", "WIND", "XY", "ROLL"),
			"reference":        limits.OneOf("LEFT", "CENTER", "CENT", "RIGHT"),
			"coupling":         limits.OneOf("AC", "DC"),
			"impedance":        limits.OneOf("ONEMEG", "ONEM", "FIFTY", "FIFT"),
			"sweep":            limits.OneOf("AUTO", "NORM", "NORMAL"),
			"trigger_source":   limits.OneOf("CHAN1", "CHAN2", "CHAN3", "CHAN4", "EXT", "LINE", "WGEN"),
			"trigger_coupling": limits.OneOf("AC", "DC", "LFR"),
			"trigger_slope":    limits.OneOf("POS", "NEG", "EITH", "ALT"),
		},
	}
}

// DSOX3024A drives a Keysight InfiniiVision DSOX3024A oscilloscope.
type DSOX3024A struct {
	t       scpi.Transport
	profile DSOX3024AProfile

	// Transfer settings retained for fetch and decode.
	xferFormat waveform.SampleFormat
	xferOrder  waveform.ByteOrder
	xferSign   waveform.Signedness
}

// NewDSOX3024A returns a driver bound to the given transport with the
// stock model profile.
func NewDSOX3024A(t scpi.Transport) *DSOX3024A {
	return &DSOX3024A{t: t, profile: DefaultDSOX3024AProfile()}
}

// NewDSOX3024AWithProfile returns a driver using a caller-supplied
// profile, for benches with non-stock probe or range configurations.
func NewDSOX3024AWithProfile(t scpi.Transport, p DSOX3024AProfile) *DSOX3024A {
	return &DSOX3024A{t: t, profile: p}
}

// Identify queries the instrument identification string.
func (s *DSOX3024A) Identify() (string, error) {
	return scpi.Identify(s.t)
}

// Initialize resets the scope and clears the status registers.
func (s *DSOX3024A) Initialize() error {
	return scpi.Initialize(s.t)
}

// ConfigureTimebase configures the horizontal axis. MAIN mode is
// required for waveform data capture.
func (s *DSOX3024A) ConfigureTimebase(cfg TimebaseConfig) error {
	if cfg.Mode != "" {
		if err := s.profile.Limits.CheckChoice("timebase_mode", cfg.Mode); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":TIMebase:MODE %s", cfg.Mode)); err != nil {
			return err
		}
	}
	if err := s.t.Write(fmt.Sprintf(":TIMebase:POSition %G", cfg.Position)); err != nil {
		return err
	}
	if cfg.Range != 0 {
		if err := s.profile.Limits.CheckNumber("time_range", cfg.Range); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":TIMebase:RANGe %G", cfg.Range)); err != nil {
			return err
		}
	}
	if cfg.Reference != "" {
		if err := s.profile.Limits.CheckChoice("reference", cfg.Reference); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":TIMebase:REFerence %s", cfg.Reference)); err != nil {
			return err
		}
	}
	if cfg.Scale != 0 {
		if err := s.profile.Limits.CheckNumber("time_scale", cfg.Scale); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":TIMebase:SCALe %G", cfg.Scale)); err != nil {
			return err
		}
	}
	vern := "OFF"
	if cfg.Vernier {
		vern = "ON"
	}
	return s.t.Write(fmt.Sprintf(":TIMebase:VERNier %s", vern))
}

// ConfigureChannel configures one vertical channel.
func (s *DSOX3024A) ConfigureChannel(cfg ChannelConfig) error {
	if err := s.profile.Limits.CheckNumber("channel", float64(cfg.Channel)); err != nil {
		return err
	}
	ch := cfg.Channel
	if cfg.ProbeAttenuation != 0 {
		if err := s.t.Write(fmt.Sprintf(":CHANnel%d:PROBe %G", ch, cfg.ProbeAttenuation)); err != nil {
			return err
		}
	}
	if cfg.Scale != 0 {
		if err := s.profile.Limits.CheckNumber("voltage_scale", cfg.Scale); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":CHANnel%d:SCALe %G", ch, cfg.Scale)); err != nil {
			return err
		}
	}
	if err := s.profile.Limits.CheckNumber("voltage_offset", cfg.Offset); err != nil {
		return err
	}
	if err := s.t.Write(fmt.Sprintf(":CHANnel%d:OFFSet %G", ch, cfg.Offset)); err != nil {
		return err
	}
	if cfg.Coupling != "" {
		if err := s.profile.Limits.CheckChoice("coupling", cfg.Coupling); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":CHANnel%d:COUPling %s", ch, cfg.Coupling)); err != nil {
			return err
		}
	}
	if cfg.Impedance != "" {
		if err := s.profile.Limits.CheckChoice("impedance", cfg.Impedance); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":CHANnel%d:IMPedance %s", ch, cfg.Impedance)); err != nil {
			return err
		}
	}
	disp := "OFF"
	if cfg.Display {
		disp = "ON"
	}
	return s.t.Write(fmt.Sprintf(":CHANnel%d:DISPlay %s", ch, disp))
}

// ConfigureTriggerCharacteristics sets the trigger level window and
// sweep mode.
func (s *DSOX3024A) ConfigureTriggerCharacteristics(cfg TriggerCharacteristics) error {
	if cfg.Sweep != "" {
		if err := s.profile.Limits.CheckChoice("sweep", cfg.Sweep); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":TRIGger:SWEep %s", cfg.Sweep)); err != nil {
			return err
		}
	}
	if cfg.Source != "" {
		if err := s.profile.Limits.CheckChoice("trigger_source", cfg.Source); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":TRIGger:LEVel:LOW %G, %s", cfg.LowLevel, cfg.Source)); err != nil {
			return err
		}
		return s.t.Write(fmt.Sprintf(":TRIGger:LEVel:HIGH %G, %s", cfg.HighLevel, cfg.Source))
	}
	return nil
}

// ConfigureTriggerEdge sets up edge triggering.
func (s *DSOX3024A) ConfigureTriggerEdge(cfg TriggerEdge) error {
	if cfg.Source != "" {
		if err := s.profile.Limits.CheckChoice("trigger_source", cfg.Source); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":TRIGger:EDGE:SOURce %s", cfg.Source)); err != nil {
			return err
		}
	}
	if cfg.Coupling != "" {
		if err := s.profile.Limits.CheckChoice("trigger_coupling", cfg.Coupling); err != nil {
			return err
		}
		if err := s.t.Write(fmt.Sprintf(":TRIGger:EDGE:COUPling %s", cfg.Coupling)); err != nil {
			return err
		}
	}
	if cfg.Slope != "" {
		if err := s.profile.Limits.CheckChoice("trigger_slope", cfg.Slope); err != nil {
			return err
		}
		return s.t.Write(fmt.Sprintf(":TRIGger:EDGE:SLOPe %s", cfg.Slope))
	}
	return nil
}

// Digitize arms a single acquisition on the given channel and sets
// normal acquisition mode.
func (s *DSOX3024A) Digitize(channel int) error {
	if err := s.profile.Limits.CheckNumber("channel", float64(channel)); err != nil {
		return err
	}
	if err := s.t.Write(":ACQuire:TYPE NORMal"); err != nil {
		return err
	}
	return s.t.Write(fmt.Sprintf(":DIGitize CHANnel%d", channel))
}

// SetupTransfer configures the waveform readout path: source channel,
// sample format, byte order, signedness and record length. The settings
// are retained so the decode step uses matching hints.
func (s *DSOX3024A) SetupTransfer(cfg TransferConfig) error {
	if err := s.profile.Limits.CheckNumber("channel", float64(cfg.Channel)); err != nil {
		return err
	}
	if err := s.t.Write(fmt.Sprintf(":WAVeform:SOURce CHANnel%d", cfg.Channel)); err != nil {
		return err
	}

	var format string
	switch cfg.Format {
	case waveform.FormatByte:
		format = "BYTE"
	case waveform.FormatWord:
		format = "WORD"
	case waveform.FormatAscii:
		format = "ASCii"
	default:
		return fmt.Errorf("%w: format code %d", waveform.ErrUnsupportedSampleFormat, int(cfg.Format))
	}
	if err := s.t.Write(fmt.Sprintf(":WAVeform:FORMat %s", format)); err != nil {
		return err
	}

	if cfg.Format == waveform.FormatWord {
		order := "MSBFirst"
		if cfg.Order == waveform.LSBFirst {
			order = "LSBFirst"
		}
		if err := s.t.Write(fmt.Sprintf(":WAVeform:BYTeorder %s", order)); err != nil {
			return err
		}
	}
	if cfg.Format != waveform.FormatAscii {
		unsigned := "0"
		if cfg.Sign == waveform.Unsigned {
			unsigned = "1"
		}
		if err := s.t.Write(fmt.Sprintf(":WAVeform:UNSigned %s", unsigned)); err != nil {
			return err
		}
	}
	if cfg.Points != 0 {
		if err := s.t.Write(fmt.Sprintf(":WAVeform:POINts %d", cfg.Points)); err != nil {
			return err
		}
	}

	s.xferFormat = cfg.Format
	s.xferOrder = cfg.Order
	s.xferSign = cfg.Sign
	monitoring.Logf("scope: transfer path CHAN%d %s", cfg.Channel, format)
	return nil
}

// QueryPreamble returns the raw :WAVeform:PREamble? record.
func (s *DSOX3024A) QueryPreamble() (string, error) {
	return s.t.Query(":WAVeform:PREamble?")
}

// QueryWaveformData fetches the raw sample payload using the transfer
// format configured by SetupTransfer.
func (s *DSOX3024A) QueryWaveformData() (waveform.RawBuffer, error) {
	if s.xferFormat == waveform.FormatAscii {
		samples, err := scpi.QueryASCIIFloats(s.t, ":WAVeform:DATA?")
		if err != nil {
			return waveform.RawBuffer{}, err
		}
		return waveform.RawFloats(samples), nil
	}
	payload, err := s.t.QueryBinaryBlock(":WAVeform:DATA?")
	if err != nil {
		return waveform.RawBuffer{}, err
	}
	return waveform.RawBytes(payload), nil
}

// TransferHints reports the byte order and signedness of the configured
// transfer path.
func (s *DSOX3024A) TransferHints() (waveform.ByteOrder, waveform.Signedness) {
	return s.xferOrder, s.xferSign
}
