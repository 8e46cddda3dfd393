// Package devicetracker is the in-memory device inventory:
// indexed by (phy, mac) composite keys, populated by update_common_device,
// with per-device mutation discipline and idle/overflow eviction.
package devicetracker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/kismetwireless/kismet-core/internal/entity"
	"github.com/kismetwireless/kismet-core/internal/geo"
)

// SizeHistogram buckets packet sizes by size:
// <=250, <=500, <=1000, <=1500, jumbo.
type SizeHistogram struct {
	Under250  uint64
	Under500  uint64
	Under1000 uint64
	Under1500 uint64
	Jumbo     uint64
}

func (h *SizeHistogram) Add(size int) {
	switch {
	case size <= 250:
		h.Under250++
	case size <= 500:
		h.Under500++
	case size <= 1000:
		h.Under1000++
	case size <= 1500:
		h.Under1500++
	default:
		h.Jumbo++
	}
}

// PacketCounters mirrors the device's packet/byte counters.
type PacketCounters struct {
	Total     uint64
	Data      uint64
	LLC       uint64
	Error     uint64
	Crypt     uint64
	DataBytes uint64
}

// SignalStats keeps a bounded signal-sample window and exposes mean and
// standard deviation computed with gonum/stat.
type SignalStats struct {
	samples    []float64
	maxSamples int
	Last       float64
	Max        float64
	Min        float64
}

func newSignalStats() *SignalStats {
	return &SignalStats{maxSamples: 256, Min: 0}
}

// Add records one signal sample (dBm, typically negative).
func (s *SignalStats) Add(v float64) {
	if len(s.samples) == 0 || v > s.Max {
		s.Max = v
	}
	if len(s.samples) == 0 || v < s.Min {
		s.Min = v
	}
	s.Last = v
	s.samples = append(s.samples, v)
	if len(s.samples) > s.maxSamples {
		s.samples = s.samples[len(s.samples)-s.maxSamples:]
	}
}

// MeanStdDev returns the running mean and standard deviation of the
// retained sample window.
func (s *SignalStats) MeanStdDev() (mean, stddev float64) {
	if len(s.samples) == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(s.samples, nil)
}

// SeenBySource is the per-source counters attached to a device
// describing which source(s) saw it, when, and how strongly ("seen-by").
type SeenBySource struct {
	SourceUUID uuid.UUID
	FirstSeen  time.Time
	LastSeen   time.Time
	NumPackets uint64
	Signal     *SignalStats
}

// Device is one entry in the inventory: a composite-keyed record
// mutated only under its own lock.
type Device struct {
	mu sync.RWMutex

	InternalID int // vector-slot index; stable while the device survives
	Key        entity.DeviceKey
	UUID       uuid.UUID

	PhyName    string
	PhyID      int
	Mac        entity.MAC
	TypeString string

	FirstSeen time.Time
	LastSeen  time.Time
	ModTime   time.Time

	Counters PacketCounters
	SizeHist SizeHistogram

	Channel   string
	Frequency float64
	FreqHist  map[float64]uint64

	Signal *SignalStats

	Location             *geo.Location
	LocationHistory      []*geo.Location
	lastLocationInsert   time.Time

	SeenBy map[uuid.UUID]*SeenBySource

	Manuf string
	Name  string
	Tags  map[string]string

	// PhyFields holds phy-classifier-attached sub-maps, keyed by the
	// classifier's own namespace (: "Phy-specific fields are
	// attached by phy classifiers as additional sub-maps").
	PhyFields map[string]*entity.Element
}

func newDevice(key entity.DeviceKey, phyName string, phyID int, mac entity.MAC, now time.Time, serverUUID uuid.UUID, typeString string) *Device {
	return &Device{
		Key:        key,
		UUID:       uuid.New(),
		PhyName:    phyName,
		PhyID:      phyID,
		Mac:        mac,
		TypeString: typeString,
		FirstSeen:  now,
		LastSeen:   now,
		ModTime:    now,
		FreqHist:   make(map[float64]uint64),
		Signal:     newSignalStats(),
		SeenBy:     make(map[uuid.UUID]*SeenBySource),
		Tags:       make(map[string]string),
		PhyFields:  make(map[string]*entity.Element),
	}
}

// WithLock runs fn while holding the device's own lock, exclusively if
// write is true. HTTP handlers and workers use this instead of reaching
// into Device fields directly, so lock discipline can't be forgotten at
// a call site (: "never hold a per-item lock while taking the
// tracker-list lock" — the converse, holding this lock correctly, is
// centralized here).
func (d *Device) WithLock(write bool, fn func()) {
	if write {
		d.mu.Lock()
		defer d.mu.Unlock()
	} else {
		d.mu.RLock()
		defer d.mu.RUnlock()
	}
	fn()
}

// Resolve implements entity.Resolver so phy-classifier-registered
// aliases can be resolved against a device's field tree.
func (d *Device) Resolve(path string) (*entity.Element, bool) {
	if el, ok := d.PhyFields[path]; ok {
		return el, true
	}
	return nil, false
}

// AttachPhyField installs or replaces a phy-specific sub-map under name
// (e.g. "dot11.device"), called by phy classifiers after
// update_common_device creates or returns the device.
func (d *Device) AttachPhyField(name string, el *entity.Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PhyFields[name] = el
}
