//go:build !cgo

package scpi

import "fmt"

// VisaTransport speaks SCPI over a VISA session. The real implementation
// wraps the vendor VISA runtime through cgo; this build was made without
// cgo, so every session open fails.
type VisaTransport struct{}

// OpenVisa always fails in a non-cgo build: the VISA backend needs the
// vendor runtime, which is only reachable through cgo.
func OpenVisa(resource string) (*VisaTransport, error) {
	return nil, fmt.Errorf("%w: open %s: VISA support requires a cgo build with the vendor VISA runtime", ErrTransport, resource)
}

// Close releases the instrument session and the resource manager.
func (v *VisaTransport) Close() error { return nil }

// Write sends one command to the instrument.
func (v *VisaTransport) Write(cmd string) error {
	return fmt.Errorf("%w: VISA support requires a cgo build with the vendor VISA runtime", ErrTransport)
}

// Query sends one command and returns the first response line.
func (v *VisaTransport) Query(cmd string) (string, error) {
	return "", fmt.Errorf("%w: VISA support requires a cgo build with the vendor VISA runtime", ErrTransport)
}

// QueryBinaryBlock sends one command and returns the definite-length
// block payload from the response.
func (v *VisaTransport) QueryBinaryBlock(cmd string) ([]byte, error) {
	return nil, fmt.Errorf("%w: VISA support requires a cgo build with the vendor VISA runtime", ErrTransport)
}
