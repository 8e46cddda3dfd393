package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/config"
	"github.com/kismetwireless/kismet-core/internal/devicetracker"
	"github.com/kismetwireless/kismet-core/internal/eventbus"
)

// NewDataSourceEvent is published the first time a UUID is merged into
// the tracker. Re-opening a previously-closed source
// restores its old number and does not republish.
type NewDataSourceEvent struct {
	Source *Source
}

// Tracker is the data-source tracker: driver registry, open/probe
// dispatch, source numbering, channel-hop coordination, and startup
// staggering.
type Tracker struct {
	registry *Registry
	cfg      *config.TuningConfig
	engine   *devicetracker.Engine
	events   *eventbus.Bus[NewDataSourceEvent]

	mu         sync.Mutex
	sources    map[uuid.UUID]*Source
	numbers    map[uuid.UUID]int
	nextNumber int
	probeID    uint64

	pendingCleanup []func()
	cleanupArmed   bool
}

// NewTracker builds a tracker. engine may be nil in tests that don't
// need the device-tracker's seenby view wired up.
func NewTracker(cfg *config.TuningConfig, engine *devicetracker.Engine) *Tracker {
	return &Tracker{
		registry: NewRegistry(),
		cfg:      cfg,
		engine:   engine,
		events:   eventbus.New[NewDataSourceEvent](),
		sources:  make(map[uuid.UUID]*Source),
		numbers:  make(map[uuid.UUID]int),
	}
}

// Events returns the NewDataSource event bus.
func (t *Tracker) Events() *eventbus.Bus[NewDataSourceEvent] { return t.events }

// RegisterDriver adds a capture driver to the tracker's registry.
func (t *Tracker) RegisterDriver(d Driver) error { return t.registry.RegisterDriver(d) }

// ListInterfaces merges list_interfaces across every list-capable
// registered driver.
func (t *Tracker) ListInterfaces(ctx context.Context) []Interface {
	return t.registry.ListInterfaces(ctx)
}

// sourceUUID derives a stable UUID for a locally-opened definition, so
// that re-opening the same interface under the same driver class
// restores its original source number. Numbers are kept in memory, so
// they are stable within one process but not across restarts.
// Remote sources instead carry an explicit UUID from their handshake
// record and bypass this derivation.
func sourceUUID(driverClass string, def Definition) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(driverClass+":"+def.Iface))
}

// probeResult carries one driver's ProbeInterface outcome back to Open.
type probeResult struct {
	driver Driver
	ok     bool
	err    error
}

// Open opens a source definition, auto-probing across every registered
// driver when the definition has no explicit type=. cb is
// invoked exactly once with the outcome.
func (t *Tracker) Open(ctx context.Context, raw string, cb func(ok bool, err error, src *Source)) {
	def, err := ParseDefinition(raw)
	if err != nil {
		cb(false, err, nil)
		return
	}

	if def.Type != "" && def.Type != "auto" {
		d, ok := t.registry.Lookup(def.Type)
		if !ok {
			cb(false, fmt.Errorf("%w: %s", ErrUnknownType, def.Type), nil)
			return
		}
		t.openWithDriver(ctx, def, d, cb)
		return
	}

	candidates := t.registry.Candidates()
	if len(candidates) == 0 {
		cb(false, ErrProbeFailed, nil)
		return
	}

	id := atomic.AddUint64(&t.probeID, 1)
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)

	winnerCh := make(chan Driver, 1)
	doneCh := make(chan struct{})
	var wg sync.WaitGroup
	for _, d := range candidates {
		wg.Add(1)
		go func(d Driver) {
			defer wg.Done()
			ok, err := d.ProbeInterface(probeCtx, def)
			if err != nil {
				logf("probe %d: driver %s: %v", id, d.Class(), err)
			}
			if ok {
				select {
				case winnerCh <- d:
				default:
				}
			}
		}(d)
	}
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	select {
	case winner := <-winnerCh:
		// First successful claim wins; stragglers are cancelled and
		// swept by the cleanup sweeper rather than waited on.
		cancel()
		t.scheduleCleanup(func() { <-doneCh })
		t.openWithDriver(ctx, def, winner, cb)
	case <-doneCh:
		cancel()
		// The last prober may have claimed the interface just before
		// doneCh closed; a queued winner still wins.
		select {
		case winner := <-winnerCh:
			t.openWithDriver(ctx, def, winner, cb)
		default:
			cb(false, ErrProbeFailed, nil)
		}
	case <-probeCtx.Done():
		cancel()
		t.scheduleCleanup(func() { <-doneCh })
		cb(false, ErrProbeFailed, nil)
	}
}

func (t *Tracker) openWithDriver(ctx context.Context, def Definition, driver Driver, cb func(ok bool, err error, src *Source)) {
	handle, openErr := driver.OpenInterface(ctx, def)

	key := sourceUUID(driver.Class(), def)
	src, rejected := t.merge(key, def, driver, handle)
	if rejected {
		cb(false, fmt.Errorf("%w: %s", ErrDuplicateUUID, key), nil)
		return
	}

	if openErr != nil {
		src.setError(openErr)
		cb(false, openErr, src)
		return
	}

	src.setState(SourceRunning)
	t.coordinateChannelHop(src)
	cb(true, nil, src)
}

// merge assigns (or restores) a source number for key and installs the
// new Source, closing out any stale running entry under the same UUID
// (: "UUIDs must be unique"). rejected is true when an
// already-running source holds the UUID; in that case the incoming
// source is discarded and the existing one is force-closed, so the
// next attempt against that UUID starts clean.
func (t *Tracker) merge(key uuid.UUID, def Definition, driver Driver, handle *Handle) (src *Source, rejected bool) {
	t.mu.Lock()

	if existing, ok := t.sources[key]; ok && existing.State() != SourceClosed {
		delete(t.sources, key)
		t.mu.Unlock()
		existing.setState(SourceClosed)
		if existing.remoteConn != nil {
			_ = existing.remoteConn.Close()
		}
		return nil, true
	}

	number, exists := t.numbers[key]
	if !exists {
		number = t.nextNumber
		t.nextNumber++
		t.numbers[key] = number
	}

	src = &Source{
		UUID:       key,
		Number:     number,
		Definition: def,
		Driver:     driver,
		Handle:     handle,
		openedAt:   time.Now(),
	}
	t.sources[key] = src
	t.mu.Unlock()

	if !exists {
		t.events.Publish(NewDataSourceEvent{Source: src})
		if t.engine != nil {
			t.engine.CreateSeenByView(key)
		}
	}
	return src, false
}

// mergeRemote installs a source whose UUID is supplied externally (by
// a remote-capture handshake) rather than derived from its definition.
func (t *Tracker) mergeRemote(key uuid.UUID, def Definition, driver Driver, handle *Handle, conn remoteConn) (*Source, bool) {
	src, rejected := t.merge(key, def, driver, handle)
	if rejected {
		return nil, true
	}
	src.mu.Lock()
	src.remoteConn = conn
	src.mu.Unlock()
	return src, false
}

func sameChannelSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, c := range a {
		set[c] = struct{}{}
	}
	for _, c := range b {
		if _, ok := set[c]; !ok {
			return false
		}
	}
	return true
}

// coordinateChannelHop partitions a shared channel list round-robin
// across every running source of the same driver class with an
// identical channel set, when split_same_source_channels is enabled
//. Source i of n (ordered by source number) takes every n-th
// channel of the full list starting at offset i, so N radios sweeping the same band divide the work
// instead of duplicating it.
func (t *Tracker) coordinateChannelHop(newSrc *Source) {
	if !t.cfg.GetSplitSameSourceChannels() {
		return
	}
	if newSrc.Handle == nil || len(newSrc.Handle.Channels) == 0 || !newSrc.Handle.HopCapable {
		return
	}

	t.mu.Lock()
	var group []*Source
	for _, s := range t.sources {
		if s.State() == SourceClosed {
			continue
		}
		if s.Driver.Class() != newSrc.Driver.Class() {
			continue
		}
		if s.Handle == nil || !sameChannelSet(s.Handle.Channels, newSrc.Handle.Channels) {
			continue
		}
		group = append(group, s)
	}
	t.mu.Unlock()

	sort.Slice(group, func(i, j int) bool { return group[i].Number < group[j].Number })

	channels := newSrc.Handle.Channels
	n := len(group)
	rate := t.cfg.GetDefaultHopRate()
	for i, s := range group {
		var assigned []string
		for idx := i; idx < len(channels); idx += n {
			assigned = append(assigned, channels[idx])
		}
		s.SetHop(rate)
		s.mu.Lock()
		s.assignedChannels = assigned
		s.mu.Unlock()
	}
}

// Find returns the source tracked under id.
func (t *Tracker) Find(id uuid.UUID) (*Source, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sources[id]
	return s, ok
}

// Sources returns every currently tracked source.
func (t *Tracker) Sources() []*Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Source, 0, len(t.sources))
	for _, s := range t.sources {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Remove detaches id from the live-source set without closing its
// transport, retaining its assigned number for a future re-merge.
func (t *Tracker) Remove(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sources[id]; !ok {
		return false
	}
	delete(t.sources, id)
	return true
}

// Close closes and removes id, tearing down its remote transport if it
// has one.
func (t *Tracker) Close(id uuid.UUID) bool {
	t.mu.Lock()
	src, ok := t.sources[id]
	if !ok {
		t.mu.Unlock()
		return false
	}
	delete(t.sources, id)
	t.mu.Unlock()

	src.setState(SourceClosed)
	if src.remoteConn != nil {
		_ = src.remoteConn.Close()
	}
	return true
}

// scheduleCleanup defers fn to the next cleanup sweep, coalescing many
// calls arriving within one sweep interval into a single timer: the
// complete vector is swept by a one-shot cleanup timer.
func (t *Tracker) scheduleCleanup(fn func()) {
	t.mu.Lock()
	t.pendingCleanup = append(t.pendingCleanup, fn)
	armed := t.cleanupArmed
	t.cleanupArmed = true
	t.mu.Unlock()

	if armed {
		return
	}
	delay := t.cfg.GetCleanupSweepInterval()
	go func() {
		time.Sleep(delay)
		t.mu.Lock()
		fns := t.pendingCleanup
		t.pendingCleanup = nil
		t.cleanupArmed = false
		t.mu.Unlock()
		for _, f := range fns {
			f()
		}
	}()
}

// OpenAll launches a batch of definitions at startup, staggering into
// source_launch_group-sized groups spaced source_launch_delay apart
// once the batch exceeds source_stagger_threshold. Below
// the threshold every definition launches in one ungated batch.
func (t *Tracker) OpenAll(ctx context.Context, defs []string, cb func(raw string, ok bool, err error, src *Source)) {
	if len(defs) == 0 {
		return
	}

	launch := func(raw string) {
		t.Open(ctx, raw, func(ok bool, err error, src *Source) { cb(raw, ok, err, src) })
	}

	if len(defs) <= t.cfg.GetSourceStaggerThreshold() {
		for _, raw := range defs {
			launch(raw)
		}
		return
	}

	groupSize := t.cfg.GetSourceLaunchGroup()
	if groupSize <= 0 {
		groupSize = 1
	}
	delayUnit := t.cfg.GetSourceLaunchDelay()

	var groups [][]string
	for i := 0; i < len(defs); i += groupSize {
		end := i + groupSize
		if end > len(defs) {
			end = len(defs)
		}
		groups = append(groups, defs[i:end])
	}

	var wg sync.WaitGroup
	for gi, group := range groups {
		wg.Add(1)
		go func(gi int, group []string) {
			defer wg.Done()
			select {
			case <-time.After(time.Duration(gi) * delayUnit):
			case <-ctx.Done():
				return
			}
			var gwg sync.WaitGroup
			for _, raw := range group {
				gwg.Add(1)
				go func(raw string) {
					defer gwg.Done()
					launch(raw)
				}(raw)
			}
			gwg.Wait()
		}(gi, group)
	}
	wg.Wait()
}
