// Package ipctracker supervises child processes spawned by capture
// sources and other subsystems: registration, soft/hard
// kill, and a periodic WNOHANG-style reaper.
package ipctracker

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/kismetwireless/kismet-core/internal/config"
	"github.com/kismetwireless/kismet-core/internal/monitoring"
)

var logf = monitoring.Component("ipctracker")

// ErrDuplicatePid is returned by Register when pid is already tracked.
var ErrDuplicatePid = errors.New("ipctracker: duplicate pid")

// CloseFunc is invoked once, with a human-readable reason, when the
// tracker asks a child to shut down (soft_kill_all). The reaper does not
// call it.
type CloseFunc func(reason string)

// ErrorFunc is invoked by the reaper when a tracked child has exited.
// The process listing carries no exit status, so status is always -1.
type ErrorFunc func(status int)

type entry struct {
	pid     int
	closeFn CloseFunc
	errorFn ErrorFunc
}

// Tracker is the process-wide registry of supervised child pids.
type Tracker struct {
	mu      sync.Mutex
	entries map[int]*entry
	cfg     *config.TuningConfig

	reaperEnabled bool
	stop          chan struct{}
}

func New(cfg *config.TuningConfig) *Tracker {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Tracker{
		entries:       make(map[int]*entry),
		cfg:           cfg,
		reaperEnabled: true,
	}
}

// Register adds pid to supervision. Returns ErrDuplicatePid if pid is
// already tracked.
func (t *Tracker) Register(pid int, closeFn CloseFunc, errorFn ErrorFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[pid]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicatePid, pid)
	}
	t.entries[pid] = &entry{pid: pid, closeFn: closeFn, errorFn: errorFn}
	return nil
}

// Remove drops pid from supervision without signaling it.
func (t *Tracker) Remove(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, pid)
}

// SoftKillAll calls every registered close_fn with "shutting down" and
// sends SIGTERM to each pid.
func (t *Tracker) SoftKillAll() {
	for _, e := range t.snapshot() {
		e.closeFn("shutting down")
		if err := syscall.Kill(e.pid, syscall.SIGTERM); err != nil {
			logf("SIGTERM to pid %d failed: %v", e.pid, err)
		}
	}
}

// HardKillAll sends SIGKILL to every registered pid.
func (t *Tracker) HardKillAll() {
	for _, e := range t.snapshot() {
		if err := syscall.Kill(e.pid, syscall.SIGKILL); err != nil {
			logf("SIGKILL to pid %d failed: %v", e.pid, err)
		}
	}
}

func (t *Tracker) snapshot() []*entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

// ShutdownAll implements 's shutdown_all: disable the reaper,
// reap exited children as they appear, escalate to HardKillAll after
// softDelay, and give up after maxDelay regardless of outcome.
func (t *Tracker) ShutdownAll(softDelay, maxDelay time.Duration) {
	t.mu.Lock()
	t.reaperEnabled = false
	t.mu.Unlock()

	deadline := time.Now().Add(maxDelay)
	softDeadline := time.Now().Add(softDelay)
	hardKilled := false

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		t.reapExited()

		t.mu.Lock()
		remaining := len(t.entries)
		t.mu.Unlock()
		if remaining == 0 {
			return
		}

		now := time.Now()
		if now.After(deadline) {
			logf("shutdown_all: max delay exceeded with %d processes still alive", remaining)
			return
		}
		if !hardKilled && now.After(softDeadline) {
			logf("shutdown_all: soft delay exceeded, escalating to SIGKILL")
			t.HardKillAll()
			hardKilled = true
		}
		<-ticker.C
	}
}

// RunReaper starts the periodic reaper goroutine (: every 1s,
// WNOHANG-reap exited children). Stops when stop is closed.
func (t *Tracker) RunReaper(stop <-chan struct{}) {
	every := t.cfg.GetIPCReaperInterval()
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.reapIfEnabled()
			}
		}
	}()
}

func (t *Tracker) reapIfEnabled() {
	t.mu.Lock()
	enabled := t.reaperEnabled
	t.mu.Unlock()
	if enabled {
		t.reapExited()
	}
}

// reapExited checks each tracked pid for liveness via go-ps (a portable
// stand-in for WNOHANG waitpid across the pack's target platforms) and
// invokes error_fn for anything no longer running.
func (t *Tracker) reapExited() {
	var toReap []*entry
	t.mu.Lock()
	for pid, e := range t.entries {
		proc, err := ps.FindProcess(pid)
		if err != nil || proc == nil {
			toReap = append(toReap, e)
			delete(t.entries, pid)
		}
	}
	t.mu.Unlock()

	for _, e := range toReap {
		if e.errorFn != nil {
			e.errorFn(-1)
		}
		logf("reaped exited process %d", e.pid)
	}
}

// Count returns the number of currently supervised processes.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
