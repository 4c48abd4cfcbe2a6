package acquire

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/piec-lab/piec/internal/awg"
	"github.com/piec-lab/piec/internal/scope"
	"github.com/piec-lab/piec/internal/scpi"
	"github.com/piec-lab/piec/internal/timeutil"
	"github.com/piec-lab/piec/internal/waveform"
)

func newTestGenerator(m *scpi.MockTransport) awg.Control {
	return awg.NewKeysight81150A(m)
}

func testArbConfig() awg.ArbConfig {
	return awg.ArbConfig{Channel: 1, GainVpp: 2, Frequency: 1000}
}

// scriptCapture scripts the scope mock so a Run sees a 4-point BYTE
// readout with unity calibration: voltage equals the raw code, sample
// spacing 1 microsecond.
func scriptCapture(m *scpi.MockTransport) {
	m.Respond(":WAVeform:PREamble?", "0,0,4,1,1e-6,0,0,1.0,0.0,0")
	m.RespondBlock(":WAVeform:DATA?", []byte{0, 1, 2, 3})
}

func newTestSession(genMock, scopeMock *scpi.MockTransport, cfg Config) (*Session, *timeutil.MockClock) {
	s := NewSession(newTestGenerator(genMock), scope.NewDSOX3024A(scopeMock), cfg)
	clock := timeutil.NewMockClock(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))
	s.clock = clock
	return s, clock
}

func TestSessionRun(t *testing.T) {
	genMock := scpi.NewMockTransport()
	scopeMock := scpi.NewMockTransport()
	scriptCapture(scopeMock)

	s, clock := newTestSession(genMock, scopeMock, Config{
		VoltageScale:   0.5,
		Format:         waveform.FormatByte,
		Order:          waveform.MSBFirst,
		Sign:           waveform.Signed,
		MaxTablePoints: 4096,
	})

	recipe := HysteresisLoop{FrequencyHz: 1000, Amplitude: 1, NCycles: 1}
	res, err := s.Run(recipe)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.RunID == "" {
		t.Error("empty run ID")
	}
	if res.Tag != "HYSTERESIS" {
		t.Errorf("Tag = %q, want HYSTERESIS", res.Tag)
	}
	if math.Abs(res.Duration-1e-3) > 1e-15 {
		t.Errorf("Duration = %v, want 1e-3", res.Duration)
	}
	if res.StoredAs != "VOLATILE" {
		t.Errorf("StoredAs = %q, want VOLATILE", res.StoredAs)
	}
	if res.Captured.IsZero() {
		t.Error("zero capture time")
	}

	wantTime := []float64{0, 1e-6, 2e-6, 3e-6}
	wantVolt := []float64{0, 1, 2, 3}
	if diff := cmp.Diff(wantTime, res.Trace.Time); diff != "" {
		t.Errorf("time axis mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantVolt, res.Trace.Voltage); diff != "" {
		t.Errorf("voltage mismatch (-want +got):\n%s", diff)
	}

	if sleeps := clock.Sleeps(); len(sleeps) != 1 || sleeps[0] != DefaultSettleDelay {
		t.Errorf("settle sleeps = %v, want [%v]", sleeps, DefaultSettleDelay)
	}

	// Both instruments were reset before anything else.
	if cmds := genMock.Commands(); len(cmds) == 0 || cmds[0] != "*RST" {
		t.Errorf("generator commands start with %v, want *RST", cmds)
	}
	if cmds := scopeMock.Commands(); len(cmds) == 0 || cmds[0] != "*RST" {
		t.Errorf("scope commands start with %v, want *RST", cmds)
	}

	// The generator saw the upload, the trigger and the output enable;
	// the scope armed before the software trigger fired.
	genCmds := strings.Join(genMock.Commands(), "\n")
	for _, want := range []string{":DATA:DAC VOLATILE", ":ARM:SOURce1 MAN", ":OUTPut1 ON", "*TRG"} {
		if !strings.Contains(genCmds, want) {
			t.Errorf("generator never sent %q", want)
		}
	}
	scopeCmds := strings.Join(scopeMock.Commands(), "\n")
	for _, want := range []string{":DIGitize CHANnel1", ":WAVeform:PREamble?", ":WAVeform:DATA?"} {
		if !strings.Contains(scopeCmds, want) {
			t.Errorf("scope never sent %q", want)
		}
	}
}

func TestSessionRunNamedWaveform(t *testing.T) {
	genMock := scpi.NewMockTransport()
	genMock.Respond(":DATA:NVOLatile:FREE?", "4")
	scopeMock := scpi.NewMockTransport()
	scriptCapture(scopeMock)

	s, _ := newTestSession(genMock, scopeMock, Config{
		VoltageScale:   0.5,
		WaveformName:   "PULSE",
		Format:         waveform.FormatByte,
		Order:          waveform.MSBFirst,
		Sign:           waveform.Signed,
		MaxTablePoints: 4096,
	})

	res, err := s.Run(HysteresisLoop{FrequencyHz: 1000, Amplitude: 1, NCycles: 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.StoredAs != "PULSE" {
		t.Errorf("StoredAs = %q, want PULSE", res.StoredAs)
	}

	genCmds := strings.Join(genMock.Commands(), "\n")
	if !strings.Contains(genCmds, ":DATA:COPY PULSE, VOLATILE") {
		t.Error("generator never copied the table to non-volatile storage")
	}
	if !strings.Contains(genCmds, ":FUNCtion1:USER PULSE") {
		t.Error("channel never pointed at the named table")
	}
}

func TestSessionRunAbortsOnGeneratorFailure(t *testing.T) {
	genMock := scpi.NewMockTransport()
	genMock.WriteError = errors.New("bus stalled")
	scopeMock := scpi.NewMockTransport()
	scriptCapture(scopeMock)

	s, clock := newTestSession(genMock, scopeMock, Config{
		VoltageScale:   0.5,
		Format:         waveform.FormatByte,
		Order:          waveform.MSBFirst,
		Sign:           waveform.Signed,
		MaxTablePoints: 4096,
	})

	_, err := s.Run(HysteresisLoop{FrequencyHz: 1000, Amplitude: 1, NCycles: 1})
	if err == nil {
		t.Fatal("Run succeeded with a failing generator transport")
	}
	// Initialization failed, so the scope was never touched and the
	// settle delay never ran.
	if cmds := scopeMock.Commands(); len(cmds) != 0 {
		t.Errorf("scope received %v after generator failure", cmds)
	}
	if sleeps := clock.Sleeps(); len(sleeps) != 0 {
		t.Errorf("settle delay ran (%v) despite aborted run", sleeps)
	}
}

func TestSessionRunAbortsOnReadoutFailure(t *testing.T) {
	genMock := scpi.NewMockTransport()
	scopeMock := scpi.NewMockTransport()
	// Preamble scripted but no data block: the fetch step must fail.
	scopeMock.Respond(":WAVeform:PREamble?", "0,0,4,1,1e-6,0,0,1.0,0.0,0")

	s, _ := newTestSession(genMock, scopeMock, Config{
		VoltageScale:   0.5,
		Format:         waveform.FormatByte,
		Order:          waveform.MSBFirst,
		Sign:           waveform.Signed,
		MaxTablePoints: 4096,
	})

	res, err := s.Run(HysteresisLoop{FrequencyHz: 1000, Amplitude: 1, NCycles: 1})
	if !errors.Is(err, scpi.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
	if res != nil {
		t.Errorf("got partial result %+v, want nil", res)
	}
}

func TestSessionRunRejectsBadRecipe(t *testing.T) {
	s, _ := newTestSession(scpi.NewMockTransport(), scpi.NewMockTransport(), Config{
		VoltageScale: 0.5,
	})
	_, err := s.Run(HysteresisLoop{FrequencyHz: 0, Amplitude: 1, NCycles: 1})
	if !errors.Is(err, waveform.ErrInvalidBreakpoints) {
		t.Errorf("error = %v, want ErrInvalidBreakpoints", err)
	}
}

func TestSessionTablePointsClamped(t *testing.T) {
	genMock := scpi.NewMockTransport()
	scopeMock := scpi.NewMockTransport()
	scriptCapture(scopeMock)

	s, _ := newTestSession(genMock, scopeMock, Config{
		VoltageScale:   0.5,
		Format:         waveform.FormatByte,
		Order:          waveform.MSBFirst,
		Sign:           waveform.Signed,
		MaxTablePoints: 1000,
	})

	// 1 ms at 500 ps resolution wants 2e6 points; the cap wins.
	if _, err := s.Run(HysteresisLoop{FrequencyHz: 1000, Amplitude: 1, NCycles: 1}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, cmd := range genMock.Commands() {
		if strings.HasPrefix(cmd, ":DATA:DAC VOLATILE, ") {
			n := strings.Count(cmd, ",") // one before the first sample
			if n != 1000 {
				t.Errorf("uploaded %d samples, want 1000", n)
			}
			return
		}
	}
	t.Fatal("no upload command recorded")
}

func TestSaveResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.csv")

	res := &Result{
		RunID: "test-run",
		Tag:   "HYSTERESIS",
		Trace: &waveform.Trace{
			Time:    []float64{0, 1e-6},
			Voltage: []float64{-1, 0},
		},
	}
	if err := SaveResult(res, path); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved trace: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "time (s),voltage (V)" {
		t.Errorf("header = %q", lines[0])
	}

	if err := SaveResult(&Result{}, path); err == nil {
		t.Error("SaveResult accepted a result without a trace")
	}
}
