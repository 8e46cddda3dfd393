package devicetracker

import "github.com/kismetwireless/kismet-core/internal/entity"

// EventKind tags the payload carried on the tracker's event bus.
type EventKind int

const (
	EventNewPhy EventKind = iota
	EventNewDevice
)

// Event is published on the tracker's internal event bus for both
// new-phy registration and new-device creation, consumed the same way
// by HTTP long-poll or log-streaming consumers outside this core.
type Event struct {
	Kind     EventKind
	PhyInfo  *PhyInfo
	Device   *Device
}

// ViewNotifier decouples the tracker from the device view engine, so a
// Tracker can be built with or without one. Implemented by Engine
// (view.go).
type ViewNotifier interface {
	NotifyNewPhy(*PhyInfo)
	NotifyNewDevice(*Device)
	NotifyUpdateDevice(*Device)
	NotifyRemoveDevice(entity.DeviceKey)
}

// NopNotifier discards every notification; used when no view engine is
// wired yet (e.g. in isolated tracker tests).
type NopNotifier struct{}

func (NopNotifier) NotifyNewPhy(*PhyInfo)               {}
func (NopNotifier) NotifyNewDevice(*Device)             {}
func (NopNotifier) NotifyUpdateDevice(*Device)          {}
func (NopNotifier) NotifyRemoveDevice(entity.DeviceKey) {}
