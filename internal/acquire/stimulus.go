package acquire

import (
	"fmt"

	"github.com/piec-lab/piec/internal/awg"
	"github.com/piec-lab/piec/internal/waveform"
)

// Stage tracks a stimulus program through synthesis and upload. Every
// transition is one-way; programming a new waveform requires a fresh
// Program.
type Stage int

const (
	StageIdle Stage = iota
	StageBreakpoints
	StageDensified
	StageScaled
	StageUploadedVolatile
	StageNamed
	StageConfigured
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageBreakpoints:
		return "breakpoints-computed"
	case StageDensified:
		return "densified"
	case StageScaled:
		return "scaled"
	case StageUploadedVolatile:
		return "uploaded-volatile"
	case StageNamed:
		return "named"
	case StageConfigured:
		return "configured-on-channel"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Program carries one stimulus waveform from sparse breakpoints through
// densification, scaling, upload and channel configuration.
type Program struct {
	stage       Stage
	breakpoints []waveform.Breakpoint
	table       []float64
	codes       []float64
	storedAs    string
}

// NewProgram starts a program from a breakpoint sequence.
func NewProgram(breakpoints []waveform.Breakpoint) *Program {
	return &Program{stage: StageBreakpoints, breakpoints: breakpoints}
}

// Stage reports the program's current stage.
func (p *Program) CurrentStage() Stage { return p.stage }

// StoredAs reports the device name the table was uploaded under; empty
// before upload.
func (p *Program) StoredAs() string { return p.storedAs }

// Table returns the dense sample table; nil before densification.
func (p *Program) Table() []float64 { return p.table }

func (p *Program) requireStage(want Stage, op string) error {
	if p.stage != want {
		return fmt.Errorf("stimulus program: %s requires stage %s, currently %s", op, want, p.stage)
	}
	return nil
}

// Densify resamples the breakpoints into a table of totalPoints values.
func (p *Program) Densify(totalPoints int) error {
	if err := p.requireStage(StageBreakpoints, "densify"); err != nil {
		return err
	}
	table, err := waveform.Densify(p.breakpoints, totalPoints)
	if err != nil {
		return err
	}
	p.table = table
	p.stage = StageDensified
	return nil
}

// Scale maps the dense table onto the generator's DAC code range.
func (p *Program) Scale(fullScaleCode float64) error {
	if err := p.requireStage(StageDensified, "scale"); err != nil {
		return err
	}
	codes, err := waveform.ScaleToDeviceCodes(p.table, fullScaleCode)
	if err != nil {
		return err
	}
	p.codes = codes
	p.stage = StageScaled
	return nil
}

// Upload sends the scaled table to the generator. A requested name that
// cannot be stored non-volatilely leaves the program at
// StageUploadedVolatile; a stored name advances it to StageNamed.
func (p *Program) Upload(gen awg.Control, name string) error {
	if err := p.requireStage(StageScaled, "upload"); err != nil {
		return err
	}
	stored, err := gen.UploadArbitrary(p.codes, name)
	if err != nil {
		return err
	}
	p.storedAs = stored
	if stored == "VOLATILE" {
		p.stage = StageUploadedVolatile
	} else {
		p.stage = StageNamed
	}
	return nil
}

// Configure selects the uploaded table for playback on a channel with
// the given gain, offset and frequency.
func (p *Program) Configure(gen awg.Control, cfg awg.ArbConfig) error {
	if p.stage != StageUploadedVolatile && p.stage != StageNamed {
		return fmt.Errorf("stimulus program: configure requires an uploaded table, currently %s", p.stage)
	}
	cfg.Name = p.storedAs
	if err := gen.SelectArbitrary(cfg); err != nil {
		return err
	}
	p.stage = StageConfigured
	return nil
}
