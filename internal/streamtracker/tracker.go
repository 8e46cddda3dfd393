// Package streamtracker manages named, capped data streams — live
// pcap-ng export chief among them — exposed over HTTP for inspection
// and cancellation.
package streamtracker

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/monitoring"
)

var logf = monitoring.Component("streamtracker")

// ErrNoSuchStream is returned by Remove/Info for an unknown stream id.
var ErrNoSuchStream = errors.New("streamtracker: no such stream")

// Agent is the contract a stream implementation must satisfy so the
// tracker can stop it and enforce size/packet caps: an agent must
// expose check_over_size() and check_over_packets() semantics.
type Agent interface {
	StopStream() error
	CheckOverSize() bool
	CheckOverPackets() bool
}

// Stream is one registered, queryable data stream.
type Stream struct {
	ID          string
	Name        string
	Type        string
	Path        string
	Description string
	Agent       Agent

	Packets    atomic.Uint64
	Bytes      atomic.Uint64
	MaxPackets uint64
	MaxBytes   uint64

	mu     sync.Mutex
	paused bool
}

// Info is the read-only snapshot served at
// /streams/by-id/<id>/stream_info and /streams/all_streams.
type Info struct {
	ID          string
	Name        string
	Type        string
	Path        string
	Description string
	Packets     uint64
	Bytes       uint64
	MaxPackets  uint64
	MaxBytes    uint64
	Paused      bool
}

func (s *Stream) info() Info {
	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()
	return Info{
		ID: s.ID, Name: s.Name, Type: s.Type, Path: s.Path, Description: s.Description,
		Packets: s.Packets.Load(), Bytes: s.Bytes.Load(),
		MaxPackets: s.MaxPackets, MaxBytes: s.MaxBytes, Paused: paused,
	}
}

// Pause/Resume toggle delivery without tearing the stream down.
func (s *Stream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *Stream) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *Stream) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// RecordPacket accounts one delivered packet of n bytes, returning
// whether either cap has now been exceeded (callers close the stream
// at the cap via the agent's own CheckOverSize/CheckOverPackets).
func (s *Stream) RecordPacket(n int) (overSize, overPackets bool) {
	s.Packets.Add(1)
	s.Bytes.Add(uint64(n))
	if s.MaxPackets > 0 {
		overPackets = s.Packets.Load() >= s.MaxPackets || s.Agent.CheckOverPackets()
	} else {
		overPackets = s.Agent.CheckOverPackets()
	}
	if s.MaxBytes > 0 {
		overSize = s.Bytes.Load() >= s.MaxBytes || s.Agent.CheckOverSize()
	} else {
		overSize = s.Agent.CheckOverSize()
	}
	return overSize, overPackets
}

// Tracker is the process-wide registry of active streams.
type Tracker struct {
	mu      sync.RWMutex
	streams map[string]*Stream
}

func New() *Tracker {
	return &Tracker{streams: make(map[string]*Stream)}
}

// Register creates and indexes a new stream, returning its id.
func (t *Tracker) Register(agent Agent, name, typ, path, description string) string {
	id := uuid.New().String()
	s := &Stream{ID: id, Name: name, Type: typ, Path: path, Description: description, Agent: agent}

	t.mu.Lock()
	t.streams[id] = s
	t.mu.Unlock()

	logf("registered stream %s (%s, %s)", id, name, typ)
	return id
}

// Remove asks the agent to stop, then drops the record regardless of
// whether StopStream succeeded (a wedged agent should not pin the
// record forever).
func (t *Tracker) Remove(id string) error {
	t.mu.Lock()
	s, ok := t.streams[id]
	if ok {
		delete(t.streams, id)
	}
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchStream, id)
	}
	if err := s.Agent.StopStream(); err != nil {
		logf("stream %s stop_stream failed: %v", id, err)
	}
	return nil
}

// CancelStreams calls stop_stream on every active stream, used at
// shutdown.
func (t *Tracker) CancelStreams() {
	t.mu.Lock()
	ids := make([]string, 0, len(t.streams))
	for id := range t.streams {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	for _, id := range ids {
		if err := t.Remove(id); err != nil {
			logf("cancel_streams: %v", err)
		}
	}
}

// Info returns the read-only snapshot for id.
func (t *Tracker) Info(id string) (Info, error) {
	t.mu.RLock()
	s, ok := t.streams[id]
	t.mu.RUnlock()
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNoSuchStream, id)
	}
	return s.info(), nil
}

// AllStreams returns a snapshot of every active stream's info.
func (t *Tracker) AllStreams() []Info {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Info, 0, len(t.streams))
	for _, s := range t.streams {
		out = append(out, s.info())
	}
	return out
}

// Stream returns the live Stream record for id, e.g. so a handler can
// Pause/Resume it.
func (t *Tracker) Stream(id string) (*Stream, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.streams[id]
	return s, ok
}
