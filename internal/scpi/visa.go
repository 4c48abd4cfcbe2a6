//go:build cgo

package scpi

import (
	"fmt"
	"strings"

	vi "github.com/jpoirier/visa"
)

// Read sizes for VISA round trips. Plain query responses are one short
// line; block responses are read in chunks of this size until the
// header-declared byte count is satisfied.
const (
	visaLineSize  = 512
	visaBlockSize = 131072
)

// VisaTransport speaks SCPI over a VISA session (GPIB, USB-TMC or LXI,
// whichever the resource string names). It requires the vendor VISA
// runtime on the host.
type VisaTransport struct {
	rm    vi.Session
	instr vi.Object
	res   string
}

// OpenVisa opens a VISA session to the given resource string, e.g.
// "GPIB0::10::INSTR" or "TCPIP::192.168.1.70::INSTR".
func OpenVisa(resource string) (*VisaTransport, error) {
	rm, status := vi.OpenDefaultRM()
	if status < vi.SUCCESS {
		return nil, fmt.Errorf("%w: could not open a session to the VISA resource manager (status %d)", ErrTransport, status)
	}
	instr, status := rm.Open(resource, vi.NULL, vi.NULL)
	if status < vi.SUCCESS {
		rm.Close()
		return nil, fmt.Errorf("%w: open %s (status %d)", ErrTransport, resource, status)
	}
	return &VisaTransport{rm: rm, instr: instr, res: resource}, nil
}

// Close releases the instrument session and the resource manager.
func (v *VisaTransport) Close() error {
	v.instr.Close()
	v.rm.Close()
	return nil
}

// Write sends one command to the instrument.
func (v *VisaTransport) Write(cmd string) error {
	b := []byte(cmd + "\n")
	_, status := v.instr.Write(b, uint32(len(b)))
	if status < vi.SUCCESS {
		return fmt.Errorf("%w: write %q to %s (status %d)", ErrTransport, cmd, v.res, status)
	}
	return nil
}

func (v *VisaTransport) read(size uint32) ([]byte, error) {
	b, _, status := v.instr.Read(size)
	if status < vi.SUCCESS {
		return nil, fmt.Errorf("%w: read from %s (status %d)", ErrTransport, v.res, status)
	}
	return b, nil
}

// Query sends one command and returns the first response line.
func (v *VisaTransport) Query(cmd string) (string, error) {
	if err := v.Write(cmd); err != nil {
		return "", err
	}
	b, err := v.read(visaLineSize)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(b), "\n")
	return strings.TrimRight(line, "\r"), nil
}

// QueryBinaryBlock sends one command and returns the definite-length
// block payload from the response. Long records arrive across several
// reads, so it keeps reading until the header-declared byte count is in
// hand.
func (v *VisaTransport) QueryBinaryBlock(cmd string) ([]byte, error) {
	if err := v.Write(cmd); err != nil {
		return nil, err
	}
	buf, err := v.read(visaBlockSize)
	if err != nil {
		return nil, err
	}
	total, err := blockTotalSize(buf)
	if err != nil {
		return nil, fmt.Errorf("read block from %s: %w", v.res, err)
	}
	for len(buf) < total {
		chunk, err := v.read(visaBlockSize)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return nil, fmt.Errorf("%w: short block from %s: declared %d bytes, got %d", ErrTransport, v.res, total, len(buf))
		}
		buf = append(buf, chunk...)
	}
	return ParseBlock(buf)
}
