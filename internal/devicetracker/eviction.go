package devicetracker

import (
	"sort"
	"time"

	"github.com/kismetwireless/kismet-core/internal/entity"
)

// RunSweepers starts the idle and overflow eviction goroutines. Both
// run until stop is closed. A zero idle timeout disables idle
// eviction; MaxDevices<=0 disables overflow eviction, following the
// "0 means disabled" convention used throughout TuningConfig.
func (t *Tracker) RunSweepers(stop <-chan struct{}) {
	idleEvery := t.cfg.GetIdleSweepInterval()
	overflowEvery := t.cfg.GetOverflowSweepInterval()

	go t.idleSweepLoop(stop, idleEvery)
	go t.overflowSweepLoop(stop, overflowEvery)
}

func (t *Tracker) idleSweepLoop(stop <-chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			t.sweepIdle(now)
		}
	}
}

func (t *Tracker) overflowSweepLoop(stop <-chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.sweepOverflow()
		}
	}
}

// sweepIdle removes devices whose LastSeen is older than the configured
// idle timeout. Devices below the configured minimum packet count are
// exempt, so a device that has barely been seen isn't reaped before it
// has a chance to accumulate traffic.
func (t *Tracker) sweepIdle(now time.Time) {
	timeout := t.cfg.GetDeviceIdleTimeout()
	if timeout <= 0 {
		return
	}
	minPackets := uint64(t.cfg.GetDeviceIdleMinPackets())

	// Views are notified after the inventory lock is released.
	var removed []entity.DeviceKey
	defer func() {
		for _, key := range removed {
			t.notifier.NotifyRemoveDevice(key)
		}
	}()

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, dev := range t.vec {
		if dev == nil {
			continue
		}
		dev.mu.RLock()
		stale := now.Sub(dev.LastSeen) > timeout && dev.Counters.Total >= minPackets
		dev.mu.RUnlock()
		if stale {
			t.removeLocked(dev)
			removed = append(removed, dev.Key)
			logf("idle eviction: %s", dev.Key)
		}
	}
}

// sweepOverflow enforces the hard device-count cap by evicting the
// least-recently-seen devices first, until the inventory is back at or
// under MaxDevices.
func (t *Tracker) sweepOverflow() {
	max := t.cfg.GetMaxDevices()
	if max <= 0 {
		return
	}

	var removed []entity.DeviceKey
	defer func() {
		for _, key := range removed {
			t.notifier.NotifyRemoveDevice(key)
		}
	}()

	t.mu.Lock()
	defer t.mu.Unlock()

	type candidate struct {
		dev      *Device
		lastSeen time.Time
	}
	live := make([]candidate, 0, len(t.vec))
	for _, dev := range t.vec {
		if dev == nil {
			continue
		}
		dev.mu.RLock()
		lastSeen := dev.LastSeen
		dev.mu.RUnlock()
		live = append(live, candidate{dev: dev, lastSeen: lastSeen})
	}
	if len(live) <= max {
		return
	}

	sort.Slice(live, func(i, j int) bool {
		return live[i].lastSeen.Before(live[j].lastSeen)
	})

	overflow := len(live) - max
	for _, c := range live[:overflow] {
		t.removeLocked(c.dev)
		removed = append(removed, c.dev.Key)
	}
	logf("overflow eviction: removed %d devices (cap %d)", overflow, max)
}
