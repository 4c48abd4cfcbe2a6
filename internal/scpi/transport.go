// Package scpi provides the command transport used by the instrument
// drivers: a narrow write/query interface with VISA and serial backends,
// plus decoding helpers for the block and ASCII response formats SCPI
// instruments use for bulk data.
package scpi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTransport marks a command that did not complete at the transport
// level. Backend errors are opaque to callers; the driver layers never
// retry them.
var ErrTransport = errors.New("transport failure")

// Transport is the single abstraction the instrument drivers depend on.
// Every call is a blocking round trip; the connection itself is opened
// and owned outside the drivers.
type Transport interface {
	// Write sends one command with no response expected.
	Write(cmd string) error
	// Query sends one command and returns the single-line response with
	// the terminator stripped.
	Query(cmd string) (string, error)
	// QueryBinaryBlock sends one command and returns the payload of the
	// IEEE 488.2 definite-length block response.
	QueryBinaryBlock(cmd string) ([]byte, error)
	// Close releases the underlying connection.
	Close() error
}

// QueryFloat queries and parses a single float64 response.
func QueryFloat(t Transport, cmd string) (float64, error) {
	resp, err := t.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q response %q: %w", cmd, resp, err)
	}
	return v, nil
}

// QueryInt queries and parses a single integer response.
func QueryInt(t Transport, cmd string) (int, error) {
	resp, err := t.Query(cmd)
	if err != nil {
		return 0, err
	}
	// Instruments often report integers in exponent notation (+1.00000E+03).
	f, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q response %q: %w", cmd, resp, err)
	}
	return int(f), nil
}

// QueryASCIIFloats queries and parses a comma-separated float response,
// the :WAVeform:DATA? payload in ASCII format.
func QueryASCIIFloats(t Transport, cmd string) ([]float64, error) {
	resp, err := t.Query(cmd)
	if err != nil {
		return nil, err
	}
	return ParseASCIIFloats(resp)
}

// ParseASCIIFloats splits a comma-separated response into float64 values.
// A leading definite-length block header, which some instruments prepend
// even in ASCII mode, is stripped first.
func ParseASCIIFloats(resp string) ([]float64, error) {
	resp = strings.TrimSpace(resp)
	if strings.HasPrefix(resp, "#") {
		payload, err := ParseBlock([]byte(resp))
		if err != nil {
			return nil, err
		}
		resp = strings.TrimSpace(string(payload))
	}
	if resp == "" {
		return nil, nil
	}
	parts := strings.Split(resp, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("ascii sample %d %q: %w", i, p, err)
		}
		out[i] = v
	}
	return out, nil
}

// ParseBlock extracts the payload from an IEEE 488.2 definite-length
// block: '#', one digit giving the length of the decimal byte count, the
// byte count, then the payload. Trailing terminator bytes after the
// payload are ignored.
func ParseBlock(buf []byte) ([]byte, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("block response too short: %d bytes", len(buf))
	}
	if buf[0] != '#' {
		return nil, fmt.Errorf("block response starts with %q, expected '#'", buf[0])
	}
	nDigits := int(buf[1] - '0')
	if nDigits < 1 || nDigits > 9 {
		return nil, fmt.Errorf("block length digit %q out of range", buf[1])
	}
	if len(buf) < 2+nDigits {
		return nil, fmt.Errorf("block response truncated in byte count")
	}
	n, err := strconv.Atoi(string(buf[2 : 2+nDigits]))
	if err != nil {
		return nil, fmt.Errorf("block byte count: %w", err)
	}
	payload := buf[2+nDigits:]
	if len(payload) < n {
		return nil, fmt.Errorf("block payload truncated: declared %d bytes, have %d", n, len(payload))
	}
	return payload[:n], nil
}

// blockTotalSize reports the full length of a definite-length block
// response (header, byte count and payload), so streaming readers know
// how many bytes the instrument still owes when the block arrives in
// chunks. It needs only the header bytes to be present.
func blockTotalSize(buf []byte) (int, error) {
	if len(buf) < 2 {
		return 0, fmt.Errorf("block response too short: %d bytes", len(buf))
	}
	if buf[0] != '#' {
		return 0, fmt.Errorf("block response starts with %q, expected '#'", buf[0])
	}
	nDigits := int(buf[1] - '0')
	if nDigits < 1 || nDigits > 9 {
		return 0, fmt.Errorf("block length digit %q out of range", buf[1])
	}
	if len(buf) < 2+nDigits {
		return 0, fmt.Errorf("block response truncated in byte count")
	}
	n, err := strconv.Atoi(string(buf[2 : 2+nDigits]))
	if err != nil {
		return 0, fmt.Errorf("block byte count: %w", err)
	}
	return 2 + nDigits + n, nil
}

// Common IEEE 488.2 operations shared by every instrument.

// Identify returns the instrument's *IDN? response.
func Identify(t Transport) (string, error) {
	return t.Query("*IDN?")
}

// Reset restores the instrument's default parameters.
func Reset(t Transport) error {
	return t.Write("*RST")
}

// Initialize resets the instrument and clears its status registers.
func Initialize(t Transport) error {
	if err := t.Write("*RST"); err != nil {
		return err
	}
	return t.Write("*CLS")
}
