package devicetracker

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/entity"
)

// ViewPredicate decides whether a device belongs in a view. The
// new-device predicate gates insertion; the update predicate re-runs on
// every change and, returning false, evicts the device from the view.
type ViewPredicate func(*Device) bool

// View is a filtered, named projection of the device inventory.
type View struct {
	ID string

	newPred    ViewPredicate
	updatePred ViewPredicate

	mu          sync.RWMutex
	members     map[entity.DeviceKey]*Device
	lastChanged map[entity.DeviceKey]time.Time
}

func newView(id string, newPred, updatePred ViewPredicate) *View {
	return &View{
		ID:          id,
		newPred:     newPred,
		updatePred:  updatePred,
		members:     make(map[entity.DeviceKey]*Device),
		lastChanged: make(map[entity.DeviceKey]time.Time),
	}
}

// Snapshot returns every current member.
func (v *View) Snapshot() []*Device {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*Device, 0, len(v.members))
	for _, d := range v.members {
		out = append(out, d)
	}
	return out
}

// SnapshotSince returns members whose last membership change is after
// epoch, backing the "/last-time/<epoch>/devices" delta endpoint.
func (v *View) SnapshotSince(epoch time.Time) []*Device {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*Device, 0, len(v.members))
	for key, d := range v.members {
		if v.lastChanged[key].After(epoch) {
			out = append(out, d)
		}
	}
	return out
}

func (v *View) tryAdd(dev *Device, now time.Time) {
	if v.newPred == nil || !v.newPred(dev) {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.members[dev.Key] = dev
	v.lastChanged[dev.Key] = now
}

// tryUpdate re-evaluates membership for an already-present device;
// a false updatePred evicts it from the view.
func (v *View) tryUpdate(dev *Device, now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, present := v.members[dev.Key]; !present {
		return
	}
	if v.updatePred != nil && !v.updatePred(dev) {
		delete(v.members, dev.Key)
		delete(v.lastChanged, dev.Key)
		return
	}
	v.lastChanged[dev.Key] = now
}

func (v *View) remove(key entity.DeviceKey) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.members, key)
	delete(v.lastChanged, key)
}

// AddDirect inserts dev bypassing predicates, for views driven entirely
// by an external module.
func (v *View) AddDirect(dev *Device, now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.members[dev.Key] = dev
	v.lastChanged[dev.Key] = now
}

// RemoveDirect evicts key bypassing predicates.
func (v *View) RemoveDirect(key entity.DeviceKey) {
	v.remove(key)
}

// DoDeviceWork snapshots the view's members and runs fn against each
// under its own write lock, for workers that mutate devices.
func (v *View) DoDeviceWork(fn func(*Device)) {
	for _, dev := range v.Snapshot() {
		dev.WithLock(true, func() { fn(dev) })
	}
}

// DoReadonlyDeviceWork is DoDeviceWork's read-locked counterpart.
func (v *View) DoReadonlyDeviceWork(fn func(*Device)) {
	for _, dev := range v.Snapshot() {
		dev.WithLock(false, func() { fn(dev) })
	}
}

// Match runs a MatchWorker against the view's members
// instead of the whole inventory.
func (v *View) Match(worker MatchWorker) []*Device {
	snapshot := v.Snapshot()
	out := make([]*Device, 0, len(snapshot))
	for _, dev := range snapshot {
		if worker(dev) {
			out = append(out, dev)
		}
	}
	return out
}

// Engine owns the set of concrete views: "all", one
// "phy-<name>" per registered phy, and one "seenby-<uuid>" per data
// source. It implements ViewNotifier so a Tracker can drive it without
// importing it back.
type Engine struct {
	mu    sync.RWMutex
	views map[string]*View
}

// NewEngine returns an Engine pre-populated with the always-true "all"
// view.
func NewEngine() *Engine {
	e := &Engine{views: make(map[string]*View)}
	e.views["all"] = newView("all", func(*Device) bool { return true }, func(*Device) bool { return true })
	return e
}

// View returns the named view, if it exists.
func (e *Engine) View(id string) (*View, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.views[id]
	return v, ok
}

// AllViews returns a snapshot of every registered view.
func (e *Engine) AllViews() []*View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*View, 0, len(e.views))
	for _, v := range e.views {
		out = append(out, v)
	}
	return out
}

// CreateView registers a new predicate-driven view, replacing any
// existing view with the same ID.
func (e *Engine) CreateView(id string, newPred, updatePred ViewPredicate) *View {
	v := newView(id, newPred, updatePred)
	e.mu.Lock()
	e.views[id] = v
	e.mu.Unlock()
	return v
}

// CreateSeenByView creates the "seenby-<uuid>" view for a newly
// registered data source, membership driven by whether a
// device's SeenBy map names that source.
func (e *Engine) CreateSeenByView(sourceUUID uuid.UUID) *View {
	pred := func(d *Device) bool {
		d.mu.RLock()
		defer d.mu.RUnlock()
		_, ok := d.SeenBy[sourceUUID]
		return ok
	}
	return e.CreateView("seenby-"+sourceUUID.String(), pred, pred)
}

func (e *Engine) NotifyNewPhy(info *PhyInfo) {
	pred := func(d *Device) bool { return d.PhyName == info.Name }
	e.CreateView("phy-"+info.Name, pred, pred)
}

func (e *Engine) NotifyNewDevice(dev *Device) {
	now := time.Now()
	for _, v := range e.AllViews() {
		v.tryAdd(dev, now)
	}
}

func (e *Engine) NotifyUpdateDevice(dev *Device) {
	now := time.Now()
	for _, v := range e.AllViews() {
		v.tryUpdate(dev, now)
	}
}

func (e *Engine) NotifyRemoveDevice(key entity.DeviceKey) {
	for _, v := range e.AllViews() {
		v.remove(key)
	}
}
