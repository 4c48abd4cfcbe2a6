package scpi

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"
)

// SerialTransport speaks SCPI over a serial line, for bench instruments
// attached through USB-serial bridges or GPIB-serial adapters.
type SerialTransport struct {
	port serial.Port
	rd   *bufio.Reader
	name string
}

// OpenSerial opens the named serial port with the usual instrument
// framing (8N1) at the given baud rate.
func OpenSerial(portName string, baud int) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrTransport, portName, err)
	}
	return &SerialTransport{port: port, rd: bufio.NewReader(port), name: portName}, nil
}

// Close closes the serial port.
func (s *SerialTransport) Close() error {
	return s.port.Close()
}

// Write sends one command to the instrument.
func (s *SerialTransport) Write(cmd string) error {
	if _, err := s.port.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("%w: write %q to %s: %v", ErrTransport, cmd, s.name, err)
	}
	return nil
}

// Query sends one command and reads the newline-terminated response.
func (s *SerialTransport) Query(cmd string) (string, error) {
	if err := s.Write(cmd); err != nil {
		return "", err
	}
	line, err := s.rd.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("%w: read from %s: %v", ErrTransport, s.name, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// QueryBinaryBlock sends one command and reads a definite-length block
// response, sized from its own header rather than a terminator.
func (s *SerialTransport) QueryBinaryBlock(cmd string) ([]byte, error) {
	if err := s.Write(cmd); err != nil {
		return nil, err
	}
	header := make([]byte, 2)
	if _, err := io.ReadFull(s.rd, header); err != nil {
		return nil, fmt.Errorf("%w: read block header from %s: %v", ErrTransport, s.name, err)
	}
	if header[0] != '#' {
		return nil, fmt.Errorf("block response starts with %q, expected '#'", header[0])
	}
	nDigits := int(header[1] - '0')
	if nDigits < 1 || nDigits > 9 {
		return nil, fmt.Errorf("block length digit %q out of range", header[1])
	}
	count := make([]byte, nDigits)
	if _, err := io.ReadFull(s.rd, count); err != nil {
		return nil, fmt.Errorf("%w: read block count from %s: %v", ErrTransport, s.name, err)
	}
	n := 0
	for _, c := range count {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("block byte count contains %q", c)
		}
		n = n*10 + int(c-'0')
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(s.rd, payload); err != nil {
		return nil, fmt.Errorf("%w: read block payload from %s: %v", ErrTransport, s.name, err)
	}
	// Consume the trailing terminator if the instrument sends one.
	if b, err := s.rd.Peek(1); err == nil && (b[0] == '\n' || b[0] == '\r') {
		s.rd.ReadByte()
	}
	return payload, nil
}
