package datasource

import (
	"context"
	"fmt"
	"sync"
)

// Interface describes one capture-capable interface a driver's lister
// found, surfaced via list_interfaces ('s public contract).
type Interface struct {
	Name        string
	Description string
	DriverClass string
}

// Handle is what a driver's OpenInterface hands back: the live
// per-source state the tracker wraps in a Source.
type Handle struct {
	Channels    []string
	HopCapable  bool
	DataDefault string
}

// Driver is a capture-source driver ('s register_driver
// contract). Class identifies the driver for DuplicateDriver checks
// and definition "type=" matching.
type Driver interface {
	Class() string

	// ProbeInterface claims a definition during auto-probing: it
	// returns true if this driver recognizes the interface enough to
	// open it. Probing must respect ctx cancellation (the 10s probe
	// timer in ).
	ProbeInterface(ctx context.Context, def Definition) (bool, error)

	// OpenInterface performs the real open after a probe claim (or
	// after an explicit type= match).
	OpenInterface(ctx context.Context, def Definition) (*Handle, error)

	// SupportsList reports whether ListInterfaces is meaningful for
	// this driver; SupportsRemote reports whether it can back a
	// remote-capture session ('s "sourcetype ... advertises
	// remote capability").
	SupportsList() bool
	SupportsRemote() bool

	// ListInterfaces enumerates interfaces this driver can see, when
	// SupportsList is true.
	ListInterfaces(ctx context.Context) ([]Interface, error)
}

// Registry holds every registered driver, keyed by class.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
	order   []string // registration order, for list_interfaces merge order
}

// NewRegistry returns an empty driver registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

// RegisterDriver adds a driver, failing with ErrDuplicateDriver if its
// class is already registered.
func (r *Registry) RegisterDriver(d Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.drivers[d.Class()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDriver, d.Class())
	}
	r.drivers[d.Class()] = d
	r.order = append(r.order, d.Class())
	return nil
}

// Lookup returns the driver registered for class, if any.
func (r *Registry) Lookup(class string) (Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[class]
	return d, ok
}

// Candidates returns every registered driver in registration order,
// for auto-probe's candidate list.
func (r *Registry) Candidates() []Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Driver, 0, len(r.order))
	for _, class := range r.order {
		out = append(out, r.drivers[class])
	}
	return out
}

// ListInterfaces merges list_interfaces results from every
// list-capable driver ('s public contract).
func (r *Registry) ListInterfaces(ctx context.Context) []Interface {
	var out []Interface
	for _, d := range r.Candidates() {
		if !d.SupportsList() {
			continue
		}
		ifaces, err := d.ListInterfaces(ctx)
		if err != nil {
			logf("list_interfaces: driver %s: %v", d.Class(), err)
			continue
		}
		out = append(out, ifaces...)
	}
	return out
}

// RemoteCapable returns the first registered driver whose class
// matches sourcetype and that advertises remote capability, mirroring
// open_remote's driver search.
func (r *Registry) RemoteCapable(sourcetype string) (Driver, bool) {
	d, ok := r.Lookup(sourcetype)
	if !ok || !d.SupportsRemote() {
		return nil, false
	}
	return d, true
}
