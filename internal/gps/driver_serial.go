package gps

import (
	"context"
	"fmt"
	"strconv"

	"go.bug.st/serial"

	"github.com/kismetwireless/kismet-core/internal/serialmux"
)

// serialMuxConn adapts internal/serialmux.SerialMux's Subscribe/Monitor
// fan-out to the single-consumer Conn a GPS Driver expects: one
// Monitor loop per open serial GPS, its lines pulled off a dedicated
// Subscribe channel.
type serialMuxConn struct {
	mux        *serialmux.SerialMux[serial.Port]
	subID      string
	lines      <-chan string
	monitorErr chan error
}

func dialSerial(ctx context.Context, def Definition) (Conn, error) {
	device, ok := def.Options["device"]
	if !ok {
		return nil, fmt.Errorf("serial gps definition requires device=")
	}
	baud := 4800 // common default for NMEA serial GPS receivers
	if v, ok := def.Options["baud"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			baud = n
		}
	}

	mux, err := serialmux.NewRealSerialMux(device, serialmux.PortOptions{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial gps %s: %w", device, err)
	}

	id, ch := mux.Subscribe()
	errCh := make(chan error, 1)
	go func() {
		errCh <- mux.Monitor(ctx)
	}()

	return &serialMuxConn{mux: mux, subID: id, lines: ch, monitorErr: errCh}, nil
}

func (c *serialMuxConn) ReadLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", fmt.Errorf("serial gps: subscriber channel closed")
		}
		return line, nil
	case err := <-c.monitorErr:
		if err == nil {
			err = fmt.Errorf("serial gps: monitor loop exited")
		}
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *serialMuxConn) Close() error {
	c.mux.Unsubscribe(c.subID)
	return c.mux.Close()
}
