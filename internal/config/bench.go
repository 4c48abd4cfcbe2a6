// Package config loads the bench configuration file describing how the
// instruments are attached and how acquisitions should run by default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BenchConfig is the root configuration for an instrument bench. All
// fields are optional; the Get* methods fall back to defaults so a
// partial config file is safe. Command-line flags override whatever the
// file sets.
type BenchConfig struct {
	// Instrument attachment. A serial port, when set, wins over the VISA
	// resource for that instrument.
	AWGVisa     *string `json:"awg_visa,omitempty"`     // e.g. "GPIB0::10::INSTR"
	AWGSerial   *string `json:"awg_serial,omitempty"`   // e.g. "/dev/ttyUSB0"
	ScopeVisa   *string `json:"scope_visa,omitempty"`   // e.g. "GPIB0::1::INSTR"
	ScopeSerial *string `json:"scope_serial,omitempty"` // e.g. "/dev/ttyUSB1"
	BaudRate    *int    `json:"baud_rate,omitempty"`

	// Channel routing.
	GeneratorChannel *int `json:"generator_channel,omitempty"`
	ScopeChannel     *int `json:"scope_channel,omitempty"`

	// Capture parameters.
	VoltageScale *float64 `json:"voltage_scale,omitempty"` // volts per division
	WaveformName *string  `json:"waveform_name,omitempty"`
	SettleDelay  *string  `json:"settle_delay,omitempty"` // duration string like "200ms"
	MaxTablePts  *int     `json:"max_table_points,omitempty"`
}

// LoadBenchConfig loads a BenchConfig from a JSON file. The file must
// have a .json extension and stay under 1MB.
func LoadBenchConfig(path string) (*BenchConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &BenchConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are coherent.
func (c *BenchConfig) Validate() error {
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}
	if c.GeneratorChannel != nil && *c.GeneratorChannel < 1 {
		return fmt.Errorf("generator_channel must be at least 1, got %d", *c.GeneratorChannel)
	}
	if c.ScopeChannel != nil && *c.ScopeChannel < 1 {
		return fmt.Errorf("scope_channel must be at least 1, got %d", *c.ScopeChannel)
	}
	if c.VoltageScale != nil && *c.VoltageScale <= 0 {
		return fmt.Errorf("voltage_scale must be positive, got %f", *c.VoltageScale)
	}
	if c.SettleDelay != nil && *c.SettleDelay != "" {
		if _, err := time.ParseDuration(*c.SettleDelay); err != nil {
			return fmt.Errorf("invalid settle_delay '%s': %w", *c.SettleDelay, err)
		}
	}
	if c.MaxTablePts != nil && *c.MaxTablePts < 2 {
		return fmt.Errorf("max_table_points must be at least 2, got %d", *c.MaxTablePts)
	}
	return nil
}

// GetAWGVisa returns the awg_visa value or the default.
func (c *BenchConfig) GetAWGVisa() string {
	if c.AWGVisa == nil {
		return "GPIB0::10::INSTR"
	}
	return *c.AWGVisa
}

// GetAWGSerial returns the awg_serial value, empty if unset.
func (c *BenchConfig) GetAWGSerial() string {
	if c.AWGSerial == nil {
		return ""
	}
	return *c.AWGSerial
}

// GetScopeVisa returns the scope_visa value or the default.
func (c *BenchConfig) GetScopeVisa() string {
	if c.ScopeVisa == nil {
		return "GPIB0::1::INSTR"
	}
	return *c.ScopeVisa
}

// GetScopeSerial returns the scope_serial value, empty if unset.
func (c *BenchConfig) GetScopeSerial() string {
	if c.ScopeSerial == nil {
		return ""
	}
	return *c.ScopeSerial
}

// GetBaudRate returns the baud_rate value or the default.
func (c *BenchConfig) GetBaudRate() int {
	if c.BaudRate == nil {
		return 115200
	}
	return *c.BaudRate
}

// GetGeneratorChannel returns the generator_channel value or the default.
func (c *BenchConfig) GetGeneratorChannel() int {
	if c.GeneratorChannel == nil {
		return 1
	}
	return *c.GeneratorChannel
}

// GetScopeChannel returns the scope_channel value or the default.
func (c *BenchConfig) GetScopeChannel() int {
	if c.ScopeChannel == nil {
		return 1
	}
	return *c.ScopeChannel
}

// GetVoltageScale returns the voltage_scale value or the default.
func (c *BenchConfig) GetVoltageScale() float64 {
	if c.VoltageScale == nil {
		return 0.5
	}
	return *c.VoltageScale
}

// GetWaveformName returns the waveform_name value, empty if unset.
func (c *BenchConfig) GetWaveformName() string {
	if c.WaveformName == nil {
		return ""
	}
	return *c.WaveformName
}

// GetSettleDelay parses and returns the settle_delay as a time.Duration.
func (c *BenchConfig) GetSettleDelay() time.Duration {
	if c.SettleDelay == nil || *c.SettleDelay == "" {
		return 200 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.SettleDelay)
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}

// GetMaxTablePoints returns the max_table_points value or the default.
func (c *BenchConfig) GetMaxTablePoints() int {
	if c.MaxTablePts == nil {
		return 524288
	}
	return *c.MaxTablePts
}
