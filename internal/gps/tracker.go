package gps

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/config"
	"github.com/kismetwireless/kismet-core/internal/eventbus"
	"github.com/kismetwireless/kismet-core/internal/geo"
)

// LocationEvent is published on the Tracker's bus every second: each
// second the tracker publishes a GpsLocation event.
type LocationEvent struct {
	Location geo.Location
	Valid    bool
}

// entry pairs a live Source with the priority it was registered at and
// whatever goroutine-runner it needs (line-oriented drivers and gpsd
// run their own Run loop; virtual/web/meta need none).
type entry struct {
	source   Source
	priority int
	cancel   context.CancelFunc
}

// Tracker holds the ordered vector of live GPS sources and exposes
// best_location(). Grounded on internal/serialmux.SerialMux's
// subscriber registries for the add/remove-under-lock shape,
// generalized to sorted-by-priority rather than unordered.
type Tracker struct {
	mu      sync.RWMutex
	entries []*entry
	cfg     *config.TuningConfig
	events  *eventbus.Bus[LocationEvent]
	stop    chan struct{}
}

// NewTracker constructs an empty Tracker.
func NewTracker(cfg *config.TuningConfig) *Tracker {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Tracker{
		cfg:    cfg,
		events: eventbus.New[LocationEvent](),
		stop:   make(chan struct{}),
	}
}

// Events returns the per-second location event bus.
func (t *Tracker) Events() *eventbus.Bus[LocationEvent] { return t.events }

// Open parses a definition string, builds the matching built-in
// driver, registers it at the given priority (lower runs first in
// best_location()'s search order), and starts it.
func (t *Tracker) Open(ctx context.Context, raw string, priority int, producerUUID uuid.UUID) (Source, error) {
	def, err := ParseDefinition(raw)
	if err != nil {
		return nil, err
	}

	var src Source
	var run func(context.Context)

	switch def.Scheme {
	case "serial":
		d := NewDriver(def, dialSerial, t.cfg, producerUUID)
		src, run = d, d.Run
	case "tcp":
		d := NewDriver(def, dialTCP, t.cfg, producerUUID)
		src, run = d, d.Run
	case "gpsd":
		g := NewGpsdSource(def, t.cfg, producerUUID)
		src, run = g, g.Run
	case "virtual":
		v, err := NewVirtualSource(def, producerUUID)
		if err != nil {
			return nil, err
		}
		src = v
	case "web":
		src = NewWebSource(def, t.cfg, producerUUID)
	case "meta":
		src = NewMetaSource(def, t.cfg, producerUUID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, def.Scheme)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if run != nil {
		go run(runCtx)
	} else {
		cancel() // nothing to cancel; keep it tidy for Remove's symmetry
	}

	t.mu.Lock()
	t.entries = append(t.entries, &entry{source: src, priority: priority, cancel: cancel})
	sort.SliceStable(t.entries, func(i, j int) bool { return t.entries[i].priority < t.entries[j].priority })
	t.mu.Unlock()

	return src, nil
}

// Remove stops and drops a source.
func (t *Tracker) Remove(src Source) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.entries {
		if e.source == src {
			e.cancel()
			e.source.Close()
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// Sources returns a priority-ordered snapshot of registered sources.
func (t *Tracker) Sources() []Source {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Source, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.source
	}
	return out
}

// BestLocation returns the first live location from a source whose
// LocationValid is true and DataOnly is false, in priority order.
func (t *Tracker) BestLocation(now time.Time) (geo.Location, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.entries {
		if e.source.DataOnly() {
			continue
		}
		if e.source.LocationValid(now) {
			return e.source.Location(), true
		}
	}
	return geo.Location{}, false
}

// LocationForPacket implements the packet-chain hook:
// a packet that already carries a location, or carries the "no gps"
// marker, is left untouched; otherwise it's stamped with the current
// best_location(), if any source has one.
func (t *Tracker) LocationForPacket(now time.Time, alreadyHasLocation, noGPSMarker bool) *geo.Location {
	if alreadyHasLocation || noGPSMarker {
		return nil
	}
	loc, ok := t.BestLocation(now)
	if !ok {
		return nil
	}
	return &loc
}

// Run publishes a LocationEvent once a second until ctx is canceled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case now := <-ticker.C:
			loc, ok := t.BestLocation(now)
			t.events.Publish(LocationEvent{Location: loc, Valid: ok})
		}
	}
}

// Close stops Run and every registered source.
func (t *Tracker) Close() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		e.cancel()
		e.source.Close()
	}
	t.entries = nil
}
