// Package gps implements the GPS subsystem: an ordered
// tracker of live drivers, each running the closed→connecting→open→
// {reading↔idle}→closed state machine, feeding a shared geo.Location.
package gps

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/config"
	"github.com/kismetwireless/kismet-core/internal/geo"
	"github.com/kismetwireless/kismet-core/internal/monitoring"
)

var logf = monitoring.Component("gps")

// State is a GPS driver's connection state.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateReading
	StateIdle
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReading:
		return "reading"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Definition is a parsed driver open-string, e.g.
// "serial:device=/dev/ttyUSB0,baud=4800,name=gps0,reconnect=true".
type Definition struct {
	Scheme    string
	Name      string
	Reconnect bool
	DataOnly  bool
	Options   map[string]string
}

// ParseDefinition splits "scheme:key=val,key=val,..." into a Definition.
// Unrecognized driver-specific keys are kept in Options for the
// concrete driver to consume.
func ParseDefinition(raw string) (Definition, error) {
	scheme, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return Definition{}, fmt.Errorf("gps definition %q: missing scheme", raw)
	}
	def := Definition{Scheme: scheme, Options: make(map[string]string)}
	if rest == "" {
		return def, nil
	}
	for _, kv := range strings.Split(rest, ",") {
		if kv == "" {
			continue
		}
		k, v, hasVal := strings.Cut(kv, "=")
		if !hasVal {
			def.Options[k] = ""
			continue
		}
		switch k {
		case "name":
			def.Name = v
		case "reconnect":
			def.Reconnect, _ = strconv.ParseBool(v)
		case "data_only":
			def.DataOnly, _ = strconv.ParseBool(v)
		default:
			def.Options[k] = v
		}
	}
	return def, nil
}

// Conn is what a concrete driver's transport provides: a stream of raw
// lines/frames and a way to tear the transport down. Drivers that speak
// JSON (gpsd, web) decode their own framing and call feedFunc directly
// instead of going through Conn; Conn exists for the line-oriented
// transports (serial, tcp).
type Conn interface {
	// ReadLine blocks for the next line (without trailing newline), or
	// returns an error (including context cancellation) when the
	// connection is unusable.
	ReadLine(ctx context.Context) (string, error)
	Close() error
}

// Dialer opens a Conn for a Definition. Each line-oriented driver
// (serial, tcp) supplies one.
type Dialer func(ctx context.Context, def Definition) (Conn, error)

// Driver runs the state machine for one GPS source, decoding NMEA
// lines from a Conn into locations. Grounded on
// internal/serialmux.SerialMux.Monitor's producer-loop/reconnect
// pattern (single-consumer here rather than fan-out).
type Driver struct {
	def     Definition
	dial    Dialer
	decoder *Decoder
	cfg     *config.TuningConfig

	mu           sync.RWMutex
	state        State
	current      geo.Location
	previous     geo.Location
	havePrevious bool
	lastRxTime   time.Time
	producerUUID uuid.UUID

	stop chan struct{}
	done chan struct{}
}

// NewDriver constructs a line-oriented NMEA driver over a Dialer. The
// serial and tcp drivers supply their own Dialer; gpsd, virtual, web
// and meta bypass Driver entirely and implement Source directly.
func NewDriver(def Definition, dial Dialer, cfg *config.TuningConfig, producerUUID uuid.UUID) *Driver {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Driver{
		def:          def,
		dial:         dial,
		decoder:      NewDecoder(),
		cfg:          cfg,
		state:        StateClosed,
		producerUUID: producerUUID,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Name returns the driver's configured name, or its scheme if unnamed.
func (d *Driver) Name() string {
	if d.def.Name != "" {
		return d.def.Name
	}
	return d.def.Scheme
}

// DataOnly reports whether this driver's locations should be excluded
// from best_location() while still being visible for inspection:
// best_location only considers sources whose location_valid() is true
// and data_only is false.
func (d *Driver) DataOnly() bool { return d.def.DataOnly }

// State returns the driver's current connection state.
func (d *Driver) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Location returns the most recent decoded location.
func (d *Driver) Location() geo.Location {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// LocationValid implements : fix>=2 and age under the
// configured validity window (a looser one for the web driver).
func (d *Driver) LocationValid(now time.Time) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	maxAge := d.cfg.GetGPSValidAge()
	if d.def.Scheme == "web" {
		maxAge = d.cfg.GetGPSWebValidAge()
	}
	return d.current.Valid(now, maxAge)
}

// Run drives the state machine until ctx is canceled or Close is
// called. Intended to run in its own goroutine, one per registered
// driver.
func (d *Driver) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.setState(StateClosed)
			return
		case <-d.stop:
			d.setState(StateClosed)
			return
		default:
		}

		d.setState(StateConnecting)
		conn, err := d.dial(ctx, d.def)
		if err != nil {
			logf("driver %s: connect failed: %v", d.Name(), err)
			if !d.waitReconnect(ctx) {
				return
			}
			continue
		}
		d.setState(StateOpen)
		d.readLoop(ctx, conn)
		_ = conn.Close()

		if !d.waitReconnect(ctx) {
			return
		}
	}
}

func (d *Driver) waitReconnect(ctx context.Context) bool {
	if !d.def.Reconnect {
		d.setState(StateClosed)
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-d.stop:
		return false
	case <-time.After(d.cfg.GetGPSReconnectDelay()):
		return true
	}
}

// readLoop reads lines until a read error or a 30s no-usable-data
// timeout, toggling state between reading/idle per incoming traffic.
func (d *Driver) readLoop(ctx context.Context, conn Conn) {
	noDataTimeout := d.cfg.GetGPSIdleReopenDelay()
	d.setState(StateIdle)

	type lineResult struct {
		line string
		err  error
	}
	lineCh := make(chan lineResult, 1)

	for {
		go func() {
			line, err := conn.ReadLine(ctx)
			select {
			case lineCh <- lineResult{line, err}:
			case <-ctx.Done():
			}
		}()

		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case <-time.After(noDataTimeout):
			logf("driver %s: %v", d.Name(), ErrNoUsableData)
			return
		case res := <-lineCh:
			if res.err != nil {
				logf("driver %s: read error: %v", d.Name(), res.err)
				return
			}
			d.setState(StateReading)
			d.ingest(res.line)
			d.setState(StateIdle)
		}
	}
}

// ingest feeds one line through the NMEA decoder, updates the current
// location (including bearing inference), and records the receive
// time so the idle/no-data timeout can fire.
func (d *Driver) ingest(line string) {
	sample, ok, err := d.decoder.Feed(line)
	if err != nil {
		logf("driver %s: %v", d.Name(), err)
		return
	}
	if !ok {
		return
	}
	now := time.Now()

	loc := geo.Location{
		Lat: sample.Lat, Lon: sample.Lon, Alt: sample.Alt,
		SpeedMps:        sample.SpeedKmh / 3.6,
		HeadingTrue:     sample.HeadingTrue,
		HeadingMagnetic: sample.HeadingMagnetic,
		Fix:             geo.Fix(sample.Fix),
		Time:            now,
		ProducerUUID:    d.producerUUID,
		ProducerName:    d.Name(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if loc.HeadingTrue == 0 && d.havePrevious && !d.previous.Time.IsZero() {
		if gap := now.Sub(d.previous.Time); gap >= d.cfg.GetGPSBearingMinGap() {
			if brg, ok := bearing(d.previous.Lat, d.previous.Lon, loc.Lat, loc.Lon); ok {
				loc.HeadingTrue = brg
			}
		}
	}

	d.previous = d.current
	d.havePrevious = true
	d.current = loc
	d.lastRxTime = now
}

// Close stops Run and waits for it to exit.
func (d *Driver) Close() {
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}
	<-d.done
}
