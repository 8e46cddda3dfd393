package devicetracker

import "sync/atomic"

// PhyHandler is the minimal contract a radio-family classifier (a
// "phy") must satisfy to register with the tracker. Concrete phys
// (Wi-Fi, Bluetooth, ...) live outside this core and are out of scope
// here.
type PhyHandler interface {
	Name() string
}

// PhyCounters are the per-phy counters allocated on registration.
type PhyCounters struct {
	Packets     atomic.Uint64
	DataPackets atomic.Uint64
	Errors      atomic.Uint64
	Filtered    atomic.Uint64
}

// PhyInfo is the tracker's record of a registered phy.
type PhyInfo struct {
	ID       int
	Name     string
	Handler  PhyHandler
	Counters *PhyCounters
}

// RegisterPhy registers a new phy handler, allocating it a
// monotonically increasing id and its own counters, notifying the view
// notifier (the Engine creates a "phy-<name>" view), and publishing a
// NewPhy event. Re-registering an already-registered
// class name fails with ErrDuplicatePhy.
func (t *Tracker) RegisterPhy(h PhyHandler) (*PhyInfo, error) {
	t.mu.Lock()
	if _, exists := t.physByName[h.Name()]; exists {
		t.mu.Unlock()
		return nil, ErrDuplicatePhy
	}

	id := t.nextPhyID
	t.nextPhyID++
	info := &PhyInfo{ID: id, Name: h.Name(), Handler: h, Counters: &PhyCounters{}}
	t.physByName[h.Name()] = info
	t.physByID[id] = info
	t.mu.Unlock()

	if t.notifier != nil {
		t.notifier.NotifyNewPhy(info)
	}
	t.events.Publish(Event{Kind: EventNewPhy, PhyInfo: info})
	return info, nil
}

// PhyByName returns the registered phy info for name, if any.
func (t *Tracker) PhyByName(name string) (*PhyInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.physByName[name]
	return info, ok
}

// AllPhys returns a snapshot of every registered phy.
func (t *Tracker) AllPhys() []*PhyInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*PhyInfo, 0, len(t.physByID))
	for _, info := range t.physByID {
		out = append(out, info)
	}
	return out
}
