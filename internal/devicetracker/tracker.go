package devicetracker

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/config"
	"github.com/kismetwireless/kismet-core/internal/entity"
	"github.com/kismetwireless/kismet-core/internal/eventbus"
	"github.com/kismetwireless/kismet-core/internal/geo"
	"github.com/kismetwireless/kismet-core/internal/monitoring"
)

var logf = monitoring.Component("devicetracker")

// CommonInfo is the packet-classification summary handed to
// UpdateCommonDevice by a phy classifier.
type CommonInfo struct {
	Timestamp      time.Time
	DataSize       int
	Channel        string
	Frequency      float64
	RadioFrequency float64 // radio-layer reading; 0 means "not present"
	HasRadioFreq   bool
	IsData         bool
	IsLLC          bool
	IsError        bool
	CryptSet       uint64
	Signal         float64
	HasSignal      bool
	Location       *geo.Location
	SourceUUID     uuid.UUID
	HasSource      bool
}

// Tracker is the in-memory device inventory. The inventory
// lock guards the index structures (vec/byKey/byMac/phy registry); each
// device is separately locked for its own mutation, per the root->leaf
// lock order in .
type Tracker struct {
	mu sync.RWMutex // inventory lock (root)

	reg        *entity.Registry
	cfg        *config.TuningConfig
	serverUUID uuid.UUID
	store      NameTagStore
	notifier   ViewNotifier
	events     *eventbus.Bus[Event]

	physByName map[string]*PhyInfo
	physByID   map[int]*PhyInfo
	nextPhyID  int

	manuf *ManufLookup

	vec      []*Device // nil slots preserved on removal; index == InternalID
	byKey    map[entity.DeviceKey]*Device
	byMac    map[[6]byte][]*Device

	generation uint64 // bumped on every removal, per 

	stopSweepers chan struct{}
}

// New constructs a Tracker. notifier may be nil (NopNotifier is used);
// store may be nil (persistence becomes a no-op, per ).
func New(reg *entity.Registry, cfg *config.TuningConfig, serverUUID uuid.UUID, store NameTagStore, notifier ViewNotifier) *Tracker {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	if store == nil {
		store = noopStore{}
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Tracker{
		reg:        reg,
		cfg:        cfg,
		serverUUID: serverUUID,
		store:      store,
		notifier:   notifier,
		events:     eventbus.New[Event](),
		physByName: make(map[string]*PhyInfo),
		physByID:   make(map[int]*PhyInfo),
		byKey:      make(map[entity.DeviceKey]*Device),
		byMac:      make(map[[6]byte][]*Device),
		manuf:      NewManufLookup(),
	}
}

// SetManufLookup installs the OUI manufacturer table used to populate
// newly created devices' Manuf field.
func (t *Tracker) SetManufLookup(m *ManufLookup) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.manuf = m
}

// Events returns the tracker's event bus (NewPhy/NewDevice), .
func (t *Tracker) Events() *eventbus.Bus[Event] { return t.events }

// Generation returns the current "full refresh" generation counter,
// bumped on every device removal.
func (t *Tracker) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.generation
}

// Find returns the device for key, if present.
func (t *Tracker) Find(key entity.DeviceKey) (*Device, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.byKey[key]
	return d, ok
}

// FindByMac returns every device sharing mac across every phy
// ("per-mac" multimap, ).
func (t *Tracker) FindByMac(mac entity.MAC) []*Device {
	t.mu.RLock()
	defer t.mu.RUnlock()
	devs := t.byMac[mac.Addr]
	out := make([]*Device, len(devs))
	copy(out, devs)
	return out
}

// Snapshot returns a copy of the live device vector (nil slots
// included), used by view/worker scans under the inventory lock before
// they iterate without holding it.
func (t *Tracker) Snapshot() []*Device {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Device, len(t.vec))
	copy(out, t.vec)
	return out
}

// UpdateCommonDevice is the hot path: look up or create
// the device for (phyID, mac), then mutate it under its own lock.
// Returns nil if absent and UpdateExistingOnly is set.
func (t *Tracker) UpdateCommonDevice(phy *PhyInfo, mac entity.MAC, info CommonInfo, flags UpdateFlags, defaultType string) *Device {
	key := entity.DeviceKey{PhyHash: entity.PhyHash(phy.Name), Mac: mac.Addr}

	t.mu.Lock()
	dev, existed := t.byKey[key]
	var isNew bool
	if !existed {
		if flags.has(UpdateExistingOnly) {
			t.mu.Unlock()
			return nil
		}
		dev = newDevice(key, phy.Name, phy.ID, mac, info.Timestamp, t.serverUUID, defaultType)
		dev.Manuf = t.manuf.Lookup(mac.Addr)
		if name, ok := t.store.LoadName(key); ok {
			dev.Name = name
		}
		if tags := t.store.LoadTags(key); tags != nil {
			dev.Tags = tags
		}
		dev.InternalID = len(t.vec)
		t.vec = append(t.vec, dev)
		t.byKey[key] = dev
		t.byMac[mac.Addr] = append(t.byMac[mac.Addr], dev)
		isNew = true
	}
	t.mu.Unlock()

	dev.mu.Lock()
	applyCommonUpdate(dev, info, flags)
	dev.mu.Unlock()

	phy.Counters.Packets.Add(1)
	if info.IsData {
		phy.Counters.DataPackets.Add(1)
	}
	if info.IsError {
		phy.Counters.Errors.Add(1)
	}

	if isNew {
		t.notifier.NotifyNewDevice(dev)
		t.events.Publish(Event{Kind: EventNewDevice, Device: dev})
	} else {
		t.notifier.NotifyUpdateDevice(dev)
	}
	return dev
}

// applyCommonUpdate executes steps 4-10 of  under the
// device's own lock, which the caller already holds.
func applyCommonUpdate(dev *Device, info CommonInfo, flags UpdateFlags) {
	dev.ModTime = info.Timestamp
	if info.Timestamp.After(dev.LastSeen) {
		dev.LastSeen = info.Timestamp
	}

	if flags.has(UpdatePackets) {
		dev.Counters.Total++
		if info.IsData {
			dev.Counters.Data++
			dev.Counters.DataBytes += uint64(info.DataSize)
		}
		if info.IsLLC {
			dev.Counters.LLC++
		}
		if info.IsError {
			dev.Counters.Error++
		}
		if info.CryptSet != 0 {
			dev.Counters.Crypt++
		}
		dev.SizeHist.Add(info.DataSize)
	}

	if flags.has(UpdateFrequencies) {
		freq := info.Frequency
		if info.HasRadioFreq {
			freq = info.RadioFrequency
		}
		if freq != 0 {
			dev.Frequency = freq
			dev.FreqHist[freq]++
		}
		if info.Channel != "" {
			dev.Channel = info.Channel
		}
		if info.HasSignal {
			dev.Signal.Add(info.Signal)
		}
	}

	wantLocation := flags.has(UpdateLocation) || (flags.has(UpdateEmptyLocation) && dev.Location == nil)
	if wantLocation && info.Location != nil {
		dev.Location = info.Location
		if info.Location.Fix >= 2 && info.Timestamp.Sub(dev.lastLocationInsert) >= time.Second {
			dev.LocationHistory = append(dev.LocationHistory, info.Location)
			dev.lastLocationInsert = info.Timestamp
		}
	}

	if flags.has(UpdateSeenBy) && info.HasSource {
		sb, ok := dev.SeenBy[info.SourceUUID]
		if !ok {
			sb = &SeenBySource{SourceUUID: info.SourceUUID, FirstSeen: info.Timestamp, Signal: newSignalStats()}
			dev.SeenBy[info.SourceUUID] = sb
		}
		sb.LastSeen = info.Timestamp
		sb.NumPackets++
		if info.HasSignal {
			sb.Signal.Add(info.Signal)
		}
	}
}

// Remove deletes the device for key from every index and notifies the
// view engine; it backs the explicit HTTP remove path. The eviction
// sweepers (eviction.go) remove through removeLocked and notify the
// view engine the same way.
func (t *Tracker) Remove(key entity.DeviceKey) bool {
	t.mu.Lock()
	dev, ok := t.byKey[key]
	if !ok {
		t.mu.Unlock()
		return false
	}
	t.removeLocked(dev)
	t.mu.Unlock()

	t.notifier.NotifyRemoveDevice(key)
	return true
}

// removeLocked assumes t.mu is held for writing.
func (t *Tracker) removeLocked(dev *Device) {
	delete(t.byKey, dev.Key)
	macList := t.byMac[dev.Key.Mac]
	for i, d := range macList {
		if d == dev {
			t.byMac[dev.Key.Mac] = append(macList[:i], macList[i+1:]...)
			break
		}
	}
	// Null, don't shift: InternalID stays equal to vector index for
	// every surviving device.
	if dev.InternalID >= 0 && dev.InternalID < len(t.vec) && t.vec[dev.InternalID] == dev {
		t.vec[dev.InternalID] = nil
	}
	t.generation++
}
