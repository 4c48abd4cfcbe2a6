// Command hysteresis runs a triangle-wave hysteresis-loop acquisition
// against a generator/oscilloscope pair and exports the captured trace
// as CSV.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/piec-lab/piec/internal/acquire"
	"github.com/piec-lab/piec/internal/awg"
	"github.com/piec-lab/piec/internal/config"
	"github.com/piec-lab/piec/internal/scope"
	"github.com/piec-lab/piec/internal/scpi"
	"github.com/piec-lab/piec/internal/version"
	"github.com/piec-lab/piec/internal/waveform"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "print version and exit")
		configPath  = flag.String("config", "", "bench config JSON file")
		awgRes      = flag.String("awg", "", "VISA resource for the waveform generator")
		scopeRes    = flag.String("scope", "", "VISA resource for the oscilloscope")
		awgSerial   = flag.String("awg-serial", "", "serial port for the generator (overrides -awg)")
		scopeSer    = flag.String("scope-serial", "", "serial port for the oscilloscope (overrides -scope)")
		baud        = flag.Int("baud", 0, "baud rate for serial transports")
		out         = flag.String("out", "hysteresis.csv", "output CSV path (overwritten if present)")
		name        = flag.String("name", "PV", "device name for the stimulus table")
		vdiv        = flag.Float64("vdiv", 0, "scope vertical scale in V/div")
		freq        = flag.Float64("freq", 1000, "triangle frequency in Hz")
		amp         = flag.Float64("amp", 1, "triangle peak amplitude in V")
		offset      = flag.Float64("offset", 0, "stimulus offset in V")
		cycles      = flag.Int("cycles", 2, "number of triangle cycles")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("hysteresis " + version.String())
		return
	}

	bench, err := loadBench(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	genT, err := openTransport(pick(*awgSerial, bench.GetAWGSerial()), pick(*awgRes, bench.GetAWGVisa()), pickInt(*baud, bench.GetBaudRate()))
	if err != nil {
		log.Fatal(err)
	}
	defer genT.Close()
	scopeT, err := openTransport(pick(*scopeSer, bench.GetScopeSerial()), pick(*scopeRes, bench.GetScopeVisa()), pickInt(*baud, bench.GetBaudRate()))
	if err != nil {
		log.Fatal(err)
	}
	defer scopeT.Close()

	gen := awg.NewKeysight81150A(genT)
	osc := scope.NewDSOX3024A(scopeT)

	session := acquire.NewSession(gen, osc, acquire.Config{
		GeneratorChannel: bench.GetGeneratorChannel(),
		ScopeChannel:     bench.GetScopeChannel(),
		VoltageScale:     pickFloat(*vdiv, bench.GetVoltageScale()),
		WaveformName:     *name,
		Format:           waveform.FormatByte,
		Order:            waveform.MSBFirst,
		Sign:             waveform.Signed,
		SettleDelay:      bench.GetSettleDelay(),
		MaxTablePoints:   bench.GetMaxTablePoints(),
	})

	res, err := session.Run(acquire.HysteresisLoop{
		FrequencyHz: *freq,
		Amplitude:   *amp,
		OffsetV:     *offset,
		NCycles:     *cycles,
	})
	if err != nil {
		log.Fatalf("acquisition failed: %v", err)
	}

	if err := acquire.SaveResult(res, *out); err != nil {
		log.Fatalf("save failed: %v", err)
	}
	sum := res.Trace.Summarize()
	log.Printf("run %s: %d points, Vpp %.4f V, written to %s", res.RunID, res.Trace.Len(), sum.Vpp, *out)
}

func loadBench(path string) (*config.BenchConfig, error) {
	if path == "" {
		return &config.BenchConfig{}, nil
	}
	return config.LoadBenchConfig(path)
}

func pick(flagVal, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return cfgVal
}

func pickInt(flagVal, cfgVal int) int {
	if flagVal != 0 {
		return flagVal
	}
	return cfgVal
}

func pickFloat(flagVal, cfgVal float64) float64 {
	if flagVal != 0 {
		return flagVal
	}
	return cfgVal
}

func openTransport(serialPort, visaResource string, baud int) (scpi.Transport, error) {
	if serialPort != "" {
		return scpi.OpenSerial(serialPort, baud)
	}
	return scpi.OpenVisa(visaResource)
}
