package scpi

import (
	"fmt"
	"sync"
)

// MockTransport implements Transport with scripted responses for testing
// drivers and sessions without instrument hardware. Responses are looked
// up by command; every command sent is recorded in order.
type MockTransport struct {
	mu sync.Mutex

	// Responses maps a query command to its scripted response line.
	Responses map[string]string

	// BlockResponses maps a command to a scripted binary block payload.
	BlockResponses map[string][]byte

	// Sent records every command written or queried, in order.
	Sent []string

	// WriteError, if set, is returned by every Write call.
	WriteError error

	// QueryError, if set, is returned by every Query call.
	QueryError error

	closed bool
}

// NewMockTransport returns a mock with empty response tables.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Responses:      make(map[string]string),
		BlockResponses: make(map[string][]byte),
	}
}

// Respond scripts a response line for a query command.
func (m *MockTransport) Respond(cmd, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[cmd] = response
}

// RespondBlock scripts a binary block payload for a command.
func (m *MockTransport) RespondBlock(cmd string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BlockResponses[cmd] = payload
}

// Commands returns a copy of everything sent so far.
func (m *MockTransport) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// Write records the command.
func (m *MockTransport) Write(cmd string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	m.Sent = append(m.Sent, cmd)
	return nil
}

// Query records the command and returns its scripted response.
func (m *MockTransport) Query(cmd string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryError != nil {
		return "", m.QueryError
	}
	m.Sent = append(m.Sent, cmd)
	resp, ok := m.Responses[cmd]
	if !ok {
		return "", fmt.Errorf("%w: no scripted response for %q", ErrTransport, cmd)
	}
	return resp, nil
}

// QueryBinaryBlock records the command and returns its scripted payload.
func (m *MockTransport) QueryBinaryBlock(cmd string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.Sent = append(m.Sent, cmd)
	payload, ok := m.BlockResponses[cmd]
	if !ok {
		return nil, fmt.Errorf("%w: no scripted block response for %q", ErrTransport, cmd)
	}
	return payload, nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
