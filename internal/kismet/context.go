// Package kismet wires every tracked subsystem into one running
// server: the device tracker, device view engine, data-
// source tracker, stream tracker, GPS subsystem, IPC tracker, entity
// registry, and the HTTP surface that fronts them. It replaces the
// teacher's single-struct-of-everything Globalreg with a plain Context
// value built once at startup and threaded through explicitly, the way
// internal/serialmux and internal/db are each handed their
// dependencies directly rather than reaching into a global.
package kismet

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/config"
	"github.com/kismetwireless/kismet-core/internal/datasource"
	"github.com/kismetwireless/kismet-core/internal/devicestore"
	"github.com/kismetwireless/kismet-core/internal/devicetracker"
	"github.com/kismetwireless/kismet-core/internal/entity"
	"github.com/kismetwireless/kismet-core/internal/gps"
	"github.com/kismetwireless/kismet-core/internal/httpapi"
	"github.com/kismetwireless/kismet-core/internal/ipctracker"
	"github.com/kismetwireless/kismet-core/internal/monitoring"
	"github.com/kismetwireless/kismet-core/internal/streamtracker"
)

var logf = monitoring.Component("kismet")

// Context is the fully-wired server: every subsystem tracker plus the
// HTTP surface built over them. Zero value is not usable; build one
// with New.
type Context struct {
	ServerUUID uuid.UUID
	Config     *config.TuningConfig
	Registry   *entity.Registry

	Store   *devicestore.Store
	db      *devicestore.DB
	Devices *devicetracker.Tracker
	Views   *devicetracker.Engine
	Sources *datasource.Tracker
	Streams *streamtracker.Tracker
	GPS     *gps.Tracker
	IPC     *ipctracker.Tracker

	HTTP *httpapi.Server

	stop     chan struct{}
	stopOnce sync.Once
}

// Options configures New. DatabasePath and ConfigPath may be empty to
// use an in-memory/defaults fallback (handy for tests and the
// zero-config quickstart).
type Options struct {
	ConfigPath     string
	DatabasePath   string
	ServerUUIDPath string
}

// New builds a Context: loads tuning config, opens the name/tag store,
// constructs every tracker, and wires the device tracker's seenby view
// to the data-source tracker and the HTTP server over all of it.
// Nothing is started yet — call Run.
func New(opts Options) (*Context, error) {
	cfg := config.EmptyTuningConfig()
	if opts.ConfigPath != "" {
		loaded, err := config.LoadTuningConfig(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load tuning config: %w", err)
		}
		cfg = loaded
	}

	serverUUID, err := loadOrCreateServerUUID(opts.ServerUUIDPath)
	if err != nil {
		return nil, fmt.Errorf("server uuid: %w", err)
	}

	reg := entity.NewRegistry()
	registerWellKnownFields(reg)

	var store *devicestore.Store
	var db *devicestore.DB
	var nameTagStore devicetracker.NameTagStore
	if opts.DatabasePath != "" {
		db, err = devicestore.Open(opts.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open device store: %w", err)
		}
		store = devicestore.New(db)
		nameTagStore = store
	}

	views := devicetracker.NewEngine()
	devices := devicetracker.New(reg, cfg, serverUUID, nameTagStore, views)
	sources := datasource.NewTracker(cfg, views)
	streams := streamtracker.New()
	gpsTracker := gps.NewTracker(cfg)
	ipc := ipctracker.New(cfg)

	httpServer := httpapi.NewServer(sources, devices, views, streams, gpsTracker, reg)

	return &Context{
		ServerUUID: serverUUID,
		Config:     cfg,
		Registry:   reg,
		Store:      store,
		db:         db,
		Devices:    devices,
		Views:      views,
		Sources:    sources,
		Streams:    streams,
		GPS:        gpsTracker,
		IPC:        ipc,
		HTTP:       httpServer,
		stop:       make(chan struct{}),
	}, nil
}

// Run starts every subsystem's background loop (device eviction
// sweeps, the IPC reaper, the GPS per-second location publisher) and
// blocks until ctx is canceled or Close is called.
func (c *Context) Run(ctx context.Context) {
	c.Devices.RunSweepers(c.stop)
	c.IPC.RunReaper(c.stop)
	go c.GPS.Run(ctx)

	select {
	case <-ctx.Done():
	case <-c.stop:
	}
}

// Close stops every background loop, closes open sources/GPS/streams,
// and releases the device store's database handle.
func (c *Context) Close() {
	c.stopOnce.Do(func() { close(c.stop) })

	for _, src := range c.Sources.Sources() {
		c.Sources.Close(src.UUID)
	}
	c.GPS.Close()
	c.Streams.CancelStreams()
	c.IPC.ShutdownAll(c.Config.GetIPCSoftKillDelay(), c.Config.GetIPCMaxKillDelay())

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			logf("close device store: %v", err)
		}
	}
}

// loadOrCreateServerUUID persists the server's identity UUID (handed to
// the device tracker at construction) across restarts.
// An empty path means "ephemeral" — a fresh random UUID every run,
// which is fine for tests and one-shot invocations.
func loadOrCreateServerUUID(path string) (uuid.UUID, error) {
	if path == "" {
		return uuid.New(), nil
	}
	data, err := os.ReadFile(path)
	if err == nil {
		id, err := uuid.Parse(strings.TrimSpace(string(data)))
		if err == nil {
			return id, nil
		}
		logf("ignoring unparsable server uuid file %s: %v", path, err)
	}

	id := uuid.New()
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0o644); err != nil {
		return uuid.UUID{}, fmt.Errorf("persist server uuid: %w", err)
	}
	return id, nil
}

// registerWellKnownFields seeds the entity registry with the field
// names the device tracker's own JSON view surfaces,
// so /system/tracked_fields has content even before any device exists.
func registerWellKnownFields(reg *entity.Registry) {
	fields := []struct {
		name string
		kind entity.Kind
		desc string
	}{
		{"kismet.device.base.macaddr", entity.KindString, "device MAC address"},
		{"kismet.device.base.phyname", entity.KindString, "owning phy name"},
		{"kismet.device.base.type", entity.KindString, "classified device type"},
		{"kismet.device.base.channel", entity.KindString, "last-seen channel"},
		{"kismet.device.base.frequency", entity.KindF64, "last-seen frequency"},
		{"kismet.device.base.manuf", entity.KindString, "OUI manufacturer"},
		{"kismet.device.base.first_time", entity.KindI64, "first-seen timestamp"},
		{"kismet.device.base.last_time", entity.KindI64, "last-seen timestamp"},
		{"kismet.device.base.packets.total", entity.KindU64, "total packet count"},
		{"kismet.device.base.signal.last", entity.KindF64, "last signal reading (dBm)"},
	}
	for _, f := range fields {
		if _, err := reg.Register(f.name, f.kind, f.desc); err != nil {
			logf("register field %s: %v", f.name, err)
		}
	}
}
