package gps

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/config"
	"github.com/kismetwireless/kismet-core/internal/geo"
)

// gpsdTPV is a gpsd JSON "TPV" (time-position-velocity) report.
type gpsdTPV struct {
	Class string  `json:"class"`
	Mode  int     `json:"mode"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Alt   float64 `json:"alt"`
	Track float64 `json:"track"`
	Speed float64 `json:"speed"` // m/s in JSON mode
}

// gpsdATT is a gpsd JSON "ATT" (attitude) report, the only source of
// heading on receivers that don't report track in TPV.
type gpsdATT struct {
	Class   string  `json:"class"`
	Heading float64 `json:"heading"`
	Yaw     float64 `json:"yaw"`
}

type gpsdClassProbe struct {
	Class string `json:"class"`
}

// GpsdSource speaks the gpsd wire protocol: negotiate
// JSON mode with ?WATCH, parse TPV/ATT; on older servers that don't
// answer JSON, fall back to the legacy L/O/P textual protocol, and as
// a last resort treat the stream as raw NMEA.
type GpsdSource struct {
	name         string
	def          Definition
	cfg          *config.TuningConfig
	producerUUID uuid.UUID
	decoder      *Decoder

	mu           sync.RWMutex
	state        State
	current      geo.Location
	havePrevious bool
	previous     geo.Location

	conn net.Conn
	stop chan struct{}
	done chan struct{}
}

// NewGpsdSource builds a GpsdSource; call Run to connect and start
// reading.
func NewGpsdSource(def Definition, cfg *config.TuningConfig, producerUUID uuid.UUID) *GpsdSource {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	name := def.Name
	if name == "" {
		name = "gpsd"
	}
	return &GpsdSource{
		name:         name,
		def:          def,
		cfg:          cfg,
		producerUUID: producerUUID,
		decoder:      NewDecoder(),
		state:        StateClosed,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Run connects to host:port (default 2947), negotiates JSON watch
// mode, and reads reports until ctx is canceled.
func (g *GpsdSource) Run(ctx context.Context) {
	defer close(g.done)
	def := g.def

	host := def.Options["host"]
	if host == "" {
		host = "localhost"
	}
	port := def.Options["port"]
	if port == "" {
		port = "2947"
	}
	addr := net.JoinHostPort(host, port)

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.stop:
			return
		default:
		}

		g.setState(StateConnecting)
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			logf("gpsd %s: connect failed: %v", g.name, err)
			if !g.waitReconnect(ctx, def) {
				return
			}
			continue
		}

		g.mu.Lock()
		g.conn = conn
		g.mu.Unlock()
		g.setState(StateOpen)

		if _, err := conn.Write([]byte(`?WATCH={"enable":true,"json":true}` + "\r\n")); err != nil {
			logf("gpsd %s: watch negotiation failed: %v", g.name, err)
		}

		g.readLoop(ctx, conn)
		_ = conn.Close()

		if !g.waitReconnect(ctx, def) {
			return
		}
	}
}

func (g *GpsdSource) waitReconnect(ctx context.Context, def Definition) bool {
	if !def.Reconnect {
		g.setState(StateClosed)
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-g.stop:
		return false
	case <-time.After(g.cfg.GetGPSReconnectDelay()):
		return true
	}
}

func (g *GpsdSource) readLoop(ctx context.Context, conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	noDataTimeout := g.cfg.GetGPSIdleReopenDelay()

	type lineResult struct {
		line string
		ok   bool
	}
	lineCh := make(chan lineResult, 1)

	for {
		go func() {
			ok := scanner.Scan()
			select {
			case lineCh <- lineResult{scanner.Text(), ok}:
			case <-ctx.Done():
			}
		}()

		select {
		case <-ctx.Done():
			return
		case <-g.stop:
			return
		case <-time.After(noDataTimeout):
			logf("gpsd %s: %v", g.name, ErrNoUsableData)
			return
		case res := <-lineCh:
			if !res.ok {
				return
			}
			g.setState(StateReading)
			g.ingest(res.line)
			g.setState(StateIdle)
		}
	}
}

// ingest dispatches one gpsd line: JSON reports first, then the legacy
// O/P textual records, then a raw-NMEA fallback.
func (g *GpsdSource) ingest(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if line[0] == '{' {
		g.ingestJSON(line)
		return
	}
	if strings.HasPrefix(line, "GPSD,O=") || strings.HasPrefix(line, "GPSD,P=") {
		g.ingestLegacy(line)
		return
	}
	if line[0] == '$' {
		sample, ok, err := g.decoder.Feed(line)
		if err != nil {
			logf("gpsd %s: %v", g.name, err)
			return
		}
		if ok {
			g.applyLocation(geo.Location{
				Lat: sample.Lat, Lon: sample.Lon, Alt: sample.Alt,
				SpeedMps:    sample.SpeedKmh / 3.6,
				HeadingTrue: sample.HeadingTrue,
				Fix:         geo.Fix(sample.Fix),
			})
		}
	}
}

func (g *GpsdSource) ingestJSON(line string) {
	var probe gpsdClassProbe
	if err := json.Unmarshal([]byte(line), &probe); err != nil {
		return
	}
	switch probe.Class {
	case "TPV":
		var tpv gpsdTPV
		if err := json.Unmarshal([]byte(line), &tpv); err != nil {
			return
		}
		if tpv.Mode < 2 {
			return
		}
		g.applyLocation(geo.Location{
			Lat: tpv.Lat, Lon: tpv.Lon, Alt: tpv.Alt,
			SpeedMps:    tpv.Speed,
			HeadingTrue: tpv.Track,
			Fix:         geo.Fix(tpv.Mode),
		})
	case "ATT":
		var att gpsdATT
		if err := json.Unmarshal([]byte(line), &att); err != nil {
			return
		}
		heading := att.Heading
		if heading == 0 {
			heading = att.Yaw
		}
		g.mu.Lock()
		g.current.HeadingTrue = heading
		g.mu.Unlock()
	}
}

// ingestLegacy parses the pre-JSON "O=" textual report, a
// space-delimited record: tag time lat lon alt ... track speed ... mode.
// Fields we don't need are skipped positionally.
func (g *GpsdSource) ingestLegacy(line string) {
	_, payload, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	fields := strings.Fields(payload)
	if len(fields) < 5 {
		return
	}
	lat, errLat := strconv.ParseFloat(fields[2], 64)
	lon, errLon := strconv.ParseFloat(fields[3], 64)
	if errLat != nil || errLon != nil {
		return
	}
	var alt float64
	if len(fields) > 4 {
		alt, _ = strconv.ParseFloat(fields[4], 64)
	}
	var speedKnots float64
	if len(fields) > 9 {
		speedKnots, _ = strconv.ParseFloat(fields[9], 64)
	}
	g.applyLocation(geo.Location{
		Lat: lat, Lon: lon, Alt: alt,
		SpeedMps: speedKnots * 0.514444, // legacy O= report is in knots
		Fix:      geo.Fix2D,
	})
}

func (g *GpsdSource) applyLocation(loc geo.Location) {
	loc.Time = time.Now()
	loc.ProducerUUID = g.producerUUID
	loc.ProducerName = g.name

	g.mu.Lock()
	defer g.mu.Unlock()
	if loc.HeadingTrue == 0 && g.havePrevious {
		if gap := loc.Time.Sub(g.previous.Time); gap >= g.cfg.GetGPSBearingMinGap() {
			if brg, ok := bearing(g.previous.Lat, g.previous.Lon, loc.Lat, loc.Lon); ok {
				loc.HeadingTrue = brg
			}
		}
	}
	g.previous = g.current
	g.havePrevious = true
	g.current = loc
}

func (g *GpsdSource) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *GpsdSource) Name() string   { return g.name }
func (g *GpsdSource) DataOnly() bool { return false }
func (g *GpsdSource) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}
func (g *GpsdSource) Location() geo.Location {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}
func (g *GpsdSource) LocationValid(now time.Time) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current.Valid(now, g.cfg.GetGPSValidAge())
}
func (g *GpsdSource) Close() {
	select {
	case <-g.stop:
	default:
		close(g.stop)
	}
	g.mu.RLock()
	conn := g.conn
	g.mu.RUnlock()
	if conn != nil {
		_ = conn.Close()
	}
	<-g.done
}
