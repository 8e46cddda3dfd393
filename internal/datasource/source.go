// Package datasource implements the data-source tracker:
// driver registry, probe-based auto-detection of a capture interface,
// source numbering, channel-hop coordination across same-class
// sources, and remote-capture acceptance over TCP/WebSocket.
package datasource

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/monitoring"
)

var logf = monitoring.Component("datasource")

// SourceState mirrors a source's lifecycle, mostly for HTTP/debug
// surfacing ('s per-source pause/resume/close contract).
type SourceState int

const (
	SourceOpening SourceState = iota
	SourceRunning
	SourcePaused
	SourceError
	SourceClosed
)

// Source is one open capture source.
type Source struct {
	UUID       uuid.UUID
	Number     int
	Definition Definition
	Driver     Driver
	Handle     *Handle

	mu               sync.RWMutex
	state            SourceState
	channel          string
	hopRate          float64
	hopping          bool
	assignedChannels []string
	errorText        string
	openedAt         time.Time
	remoteConn       remoteConn
}

// remoteConn is implemented by the TCP/WebSocket session backing a
// remote source, so Source.Close can tear down its transport too.
type remoteConn interface {
	Close() error
}

func (s *Source) State() SourceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Source) setState(st SourceState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// SetChannel implements the per-source set_channel HTTP operation
// ('s public contract), disabling hop mode.
func (s *Source) SetChannel(channel string) {
	s.mu.Lock()
	s.channel = channel
	s.hopping = false
	s.mu.Unlock()
}

// SetHop implements set_hop: enables channel hopping at the given
// rate (channels/sec), overriding the tracker's default hop rate for
// this source.
func (s *Source) SetHop(rate float64) {
	s.mu.Lock()
	s.hopping = true
	s.hopRate = rate
	s.mu.Unlock()
}

// Pause/Resume implement the per-source pause/resume HTTP operations.
func (s *Source) Pause()  { s.setState(SourcePaused) }
func (s *Source) Resume() { s.setState(SourceRunning) }

// Channel returns the currently assigned channel and whether hopping
// is enabled.
func (s *Source) Channel() (channel string, hopping bool, hopRate float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel, s.hopping, s.hopRate
}

func (s *Source) setError(err error) {
	s.mu.Lock()
	s.state = SourceError
	s.errorText = err.Error()
	s.mu.Unlock()
}

// AssignedChannels returns this source's slice of the round-robin
// channel partition, when channel-hop coordination applies to it.
func (s *Source) AssignedChannels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assignedChannels
}

// ErrorText returns the last error recorded against this source, if
// its state is SourceError.
func (s *Source) ErrorText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorText
}

// OpenedAt returns the time this source was first merged into the
// tracker.
func (s *Source) OpenedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openedAt
}
