package devicetracker

import (
	"regexp"
	"strings"

	"github.com/kismetwireless/kismet-core/internal/entity"
)

// MatchWorker is one matching strategy offered to do_device_work-style
// scans. A worker may be called concurrently from
// multiple goroutines and must not mutate dev.
type MatchWorker func(dev *Device) bool

// PredicateWorker wraps an arbitrary caller-supplied predicate,
// e.g. "last_seen after X" or "type_string == Y".
func PredicateWorker(pred func(*Device) bool) MatchWorker {
	return MatchWorker(pred)
}

// RegexWorker matches a compiled regular expression against a single
// resolved field path on the device ('s "regex worker").
func RegexWorker(reg *entity.Registry, fieldPath string, re *regexp.Regexp) MatchWorker {
	return func(dev *Device) bool {
		dev.mu.RLock()
		defer dev.mu.RUnlock()
		el, ok := dev.Resolve(fieldPath)
		if !ok {
			return false
		}
		s := el.String()
		return re.MatchString(s)
	}
}

// SubstringWorker performs a case-sensitive substring match on a
// resolved field path.
func SubstringWorker(fieldPath, needle string) MatchWorker {
	return func(dev *Device) bool {
		dev.mu.RLock()
		defer dev.mu.RUnlock()
		el, ok := dev.Resolve(fieldPath)
		if !ok {
			return false
		}
		s := el.String()
		return strings.Contains(s, needle)
	}
}

// CaseInsensitiveSubstringWorker is SubstringWorker's case-folding
// variant, additionally treating needle as a MAC prefix when it parses
// as one: a partial MAC like "DE:AD:BE" matches any device whose MAC
// starts with that prefix ('s partial_mac_match behavior).
func CaseInsensitiveSubstringWorker(fieldPath, needle string) MatchWorker {
	lowerNeedle := strings.ToLower(needle)
	partial, macErr := entity.NewMAC(needle)

	return func(dev *Device) bool {
		if macErr == nil && partial.MaskLen < 6 {
			dev.mu.RLock()
			mac := dev.Mac
			dev.mu.RUnlock()
			if partial.HasPrefix(mac) {
				return true
			}
		}

		dev.mu.RLock()
		defer dev.mu.RUnlock()
		el, ok := dev.Resolve(fieldPath)
		if !ok {
			return false
		}
		s := el.String()
		return strings.Contains(strings.ToLower(s), lowerNeedle)
	}
}

// MatchOnDevices runs worker against every live device in the tracker,
// returning those that match. The inventory lock is held
// only long enough to snapshot the vector; workers run unlocked against
// a stable slice so a slow regex can't stall update_common_device.
func (t *Tracker) MatchOnDevices(worker MatchWorker) []*Device {
	snapshot := t.Snapshot()
	out := make([]*Device, 0, len(snapshot))
	for _, dev := range snapshot {
		if dev == nil {
			continue
		}
		if worker(dev) {
			out = append(out, dev)
		}
	}
	return out
}
