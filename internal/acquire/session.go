// Package acquire sequences a generator/oscilloscope pair through a
// stimulus-and-capture cycle: synthesize and upload the stimulus, arm
// and trigger, then fetch and decode the resulting trace. A session owns
// both instrument handles exclusively for its lifetime and never runs
// acquisitions concurrently.
package acquire

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/piec-lab/piec/internal/awg"
	"github.com/piec-lab/piec/internal/monitoring"
	"github.com/piec-lab/piec/internal/scope"
	"github.com/piec-lab/piec/internal/timeutil"
	"github.com/piec-lab/piec/internal/waveform"
)

// Defaults for the capture path. The settle delay is a fixed deadline
// after the software trigger, not a condition wait.
const (
	DefaultSettleDelay = 200 * time.Millisecond
	// DefaultMaxTablePoints caps the dense table at the generator's
	// per-waveform memory.
	DefaultMaxTablePoints = 524288
)

// Config holds the per-session capture parameters.
type Config struct {
	GeneratorChannel int
	ScopeChannel     int

	// VoltageScale is the scope vertical scale in volts per division.
	VoltageScale float64

	// WaveformName requests a named non-volatile store on the generator;
	// empty keeps the table volatile.
	WaveformName string

	// Transfer format for the waveform readout.
	Format waveform.SampleFormat
	Order  waveform.ByteOrder
	Sign   waveform.Signedness

	// SettleDelay overrides DefaultSettleDelay when positive.
	SettleDelay time.Duration

	// MaxTablePoints overrides DefaultMaxTablePoints when positive.
	MaxTablePoints int
}

// Result packages a captured trace with its acquisition metadata.
type Result struct {
	RunID    string
	Tag      string
	Duration float64 // nominal stimulus duration in seconds
	StoredAs string  // device name the stimulus table ended up under
	Captured time.Time
	Trace    *waveform.Trace
}

// Session drives one generator/oscilloscope pair. The zero settle
// behaviour and instrument handles are fixed at construction; a session
// is single-threaded and must not be shared.
type Session struct {
	gen   awg.Control
	scope scope.Control
	cfg   Config

	// clock is swappable so tests do not wait out the settle delay.
	clock timeutil.Clock
}

// NewSession binds a session to its instrument pair.
func NewSession(gen awg.Control, sc scope.Control, cfg Config) *Session {
	if cfg.GeneratorChannel == 0 {
		cfg.GeneratorChannel = 1
	}
	if cfg.ScopeChannel == 0 {
		cfg.ScopeChannel = 1
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.MaxTablePoints <= 0 {
		cfg.MaxTablePoints = DefaultMaxTablePoints
	}
	return &Session{gen: gen, scope: sc, cfg: cfg, clock: timeutil.RealClock{}}
}

// Run executes one full stimulus-and-capture cycle for the recipe. The
// steps are strictly ordered and any failure aborts the remainder: no
// partial trace is ever returned and nothing is retried.
func (s *Session) Run(r Recipe) (*Result, error) {
	runID := uuid.NewString()
	monitoring.Logf("acquire: run %s: %s stimulus, %G s", runID, r.Tag(), r.Duration())

	// 1. Reset and initialize both instruments.
	if err := s.gen.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize generator: %w", err)
	}
	if err := s.scope.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize scope: %w", err)
	}

	// 2. Synthesize the stimulus table.
	bps, err := r.Breakpoints()
	if err != nil {
		return nil, fmt.Errorf("build breakpoints: %w", err)
	}
	prog := NewProgram(bps)
	if err := prog.Densify(s.tablePoints(r, len(bps))); err != nil {
		return nil, fmt.Errorf("densify stimulus: %w", err)
	}
	if err := prog.Scale(s.gen.FullScaleCode()); err != nil {
		return nil, fmt.Errorf("scale stimulus: %w", err)
	}

	// 3. Upload and configure the generator channel.
	if err := prog.Upload(s.gen, s.cfg.WaveformName); err != nil {
		return nil, fmt.Errorf("upload stimulus: %w", err)
	}
	if err := prog.Configure(s.gen, awg.ArbConfig{
		Channel:   s.cfg.GeneratorChannel,
		GainVpp:   r.GainVpp(),
		Offset:    r.Offset(),
		Frequency: r.Frequency(),
	}); err != nil {
		return nil, fmt.Errorf("configure generator: %w", err)
	}
	if err := s.gen.CoupleChannels(); err != nil {
		return nil, fmt.Errorf("couple generator channels: %w", err)
	}
	if err := s.gen.ConfigureImpedance(s.cfg.GeneratorChannel, "50.0", "50"); err != nil {
		return nil, fmt.Errorf("configure generator impedance: %w", err)
	}
	if err := s.gen.ConfigureTrigger(awg.TriggerConfig{
		Channel: s.cfg.GeneratorChannel,
		Source:  "MAN",
	}); err != nil {
		return nil, fmt.Errorf("configure generator trigger: %w", err)
	}
	if err := s.gen.EnableOutput(s.cfg.GeneratorChannel, true); err != nil {
		return nil, fmt.Errorf("enable generator output: %w", err)
	}

	// 4. Configure the scope window around the stimulus duration. The
	// position offset keeps the full pulse train inside the capture,
	// not clipped at the trigger point.
	duration := r.Duration()
	if err := s.scope.ConfigureTimebase(scope.TimebaseConfig{
		Mode:      "MAIN",
		Reference: "CENT",
		Scale:     duration,
		Position:  5 * duration,
	}); err != nil {
		return nil, fmt.Errorf("configure timebase: %w", err)
	}
	if err := s.scope.ConfigureChannel(scope.ChannelConfig{
		Channel:   s.cfg.ScopeChannel,
		Scale:     s.cfg.VoltageScale,
		Impedance: "FIFT",
		Display:   true,
	}); err != nil {
		return nil, fmt.Errorf("configure scope channel: %w", err)
	}
	if err := s.scope.ConfigureTriggerCharacteristics(scope.TriggerCharacteristics{
		Source:    "EXT",
		LowLevel:  0.75,
		HighLevel: 0.95,
		Sweep:     "NORM",
	}); err != nil {
		return nil, fmt.Errorf("configure trigger characteristics: %w", err)
	}
	if err := s.scope.ConfigureTriggerEdge(scope.TriggerEdge{
		Source:   "EXT",
		Coupling: "DC",
	}); err != nil {
		return nil, fmt.Errorf("configure trigger edge: %w", err)
	}
	if err := s.scope.SetupTransfer(scope.TransferConfig{
		Channel: s.cfg.ScopeChannel,
		Format:  s.cfg.Format,
		Order:   s.cfg.Order,
		Sign:    s.cfg.Sign,
	}); err != nil {
		return nil, fmt.Errorf("setup waveform transfer: %w", err)
	}

	// 5. Arm, trigger, settle.
	if err := s.scope.Digitize(s.cfg.ScopeChannel); err != nil {
		return nil, fmt.Errorf("arm acquisition: %w", err)
	}
	if err := s.gen.SendSoftwareTrigger(); err != nil {
		return nil, fmt.Errorf("software trigger: %w", err)
	}
	s.clock.Sleep(s.cfg.SettleDelay)

	// 6. Fetch preamble and raw data, decode.
	preText, err := s.scope.QueryPreamble()
	if err != nil {
		return nil, fmt.Errorf("fetch preamble: %w", err)
	}
	pre, err := waveform.ParsePreamble(preText)
	if err != nil {
		return nil, err
	}
	raw, err := s.scope.QueryWaveformData()
	if err != nil {
		return nil, fmt.Errorf("fetch waveform data: %w", err)
	}
	order, sign := s.scope.TransferHints()
	trace, err := waveform.Decode(pre, raw, order, sign)
	if err != nil {
		return nil, err
	}

	// 7. Package the result.
	monitoring.Logf("acquire: run %s captured %d points", runID, trace.Len())
	return &Result{
		RunID:    runID,
		Tag:      r.Tag(),
		Duration: duration,
		StoredAs: prog.StoredAs(),
		Captured: s.clock.Now(),
		Trace:    trace,
	}, nil
}

// tablePoints quantizes the stimulus duration to the generator's time
// resolution, clamped to the device table memory and the breakpoint
// count.
func (s *Session) tablePoints(r Recipe, nBreakpoints int) int {
	points := int(math.Round(r.Duration() / s.gen.TimeResolution()))
	if points > s.cfg.MaxTablePoints {
		points = s.cfg.MaxTablePoints
	}
	if points < nBreakpoints {
		points = nBreakpoints
	}
	return points
}

// SaveResult writes the trace to a CSV file at path, overwriting any
// existing file. Naming collisions are the caller's concern.
func SaveResult(res *Result, path string) error {
	if res == nil || res.Trace == nil {
		return fmt.Errorf("no trace to save")
	}
	if err := res.Trace.SaveCSV(path); err != nil {
		return err
	}
	monitoring.Logf("acquire: run %s (%s) saved to %s", res.RunID, res.Tag, path)
	return nil
}
