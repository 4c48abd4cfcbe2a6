package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("awg: uploaded %d-point table", 4096)

	if got != "awg: uploaded 4096-point table" {
		t.Errorf("custom logger saw %q", got)
	}
}

func TestSetLoggerNilMutes(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("probe")
	if !called {
		t.Fatal("custom logger was not called")
	}

	called = false
	SetLogger(nil)
	Logf("probe") // must not panic
	if called {
		t.Error("nil logger still forwarded to the previous one")
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf nil by default")
	}
	Logf("scope: %s", "armed") // must not panic
}
