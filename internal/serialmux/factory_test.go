package serialmux

import (
	"testing"
)

func TestNewRealSerialMux(t *testing.T) {
	// We can't open a real serial port in a unit test, but a
	// nonexistent device path should fail cleanly.
	mux, err := NewRealSerialMux("/dev/nonexistent-serial-port-12345", PortOptions{})
	if err == nil {
		t.Error("Expected error when opening non-existent serial port")
		if mux != nil {
			mux.Close()
		}
	}

	if err != nil && mux != nil {
		t.Error("Expected nil mux when error is returned")
	}
}

func TestNewRealSerialMux_InvalidOptions(t *testing.T) {
	// An invalid PortOptions should fail before ever touching the
	// filesystem for the device path.
	mux, err := NewRealSerialMux("/dev/nonexistent-serial-port-12345", PortOptions{DataBits: 4})
	if err == nil {
		t.Error("Expected error for invalid port options")
		if mux != nil {
			mux.Close()
		}
	}
}
