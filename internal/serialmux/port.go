package serialmux

import "io"

// SerialPorter is the minimal surface SerialMux needs from a serial
// connection. Modeling it as an interface rather than a concrete
// go.bug.st/serial.Port lets tests exercise Monitor/Subscribe/Close
// against an in-memory fake instead of real hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}
