package streamtracker

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PcapNgAgent is a live pcap-ng writer stream, grounded on the
// gopacket-based capture handling in internal/lidar/network/pcap.go,
// adapted from reading an offline UDP capture to writing a live one.
type PcapNgAgent struct {
	mu     sync.Mutex
	w      *pcapgo.NgWriter
	closer io.Closer
	closed atomic.Bool

	maxBytes   uint64
	maxPackets uint64
	written    atomic.Uint64
	packets    atomic.Uint64
}

// NewPcapNgAgent opens a pcap-ng writer on w (typically an *os.File),
// writing an interface description for linkType before any packets.
func NewPcapNgAgent(w io.WriteCloser, linkType layers.LinkType, snapLen int, maxBytes, maxPackets uint64) (*PcapNgAgent, error) {
	ngw, err := pcapgo.NewNgWriter(w, linkType)
	if err != nil {
		return nil, fmt.Errorf("open pcap-ng writer: %w", err)
	}
	return &PcapNgAgent{w: ngw, closer: w, maxBytes: maxBytes, maxPackets: maxPackets}, nil
}

// WritePacket appends one captured packet and flushes. Returns the
// byte count written, for the caller to feed into Stream.RecordPacket.
func (a *PcapNgAgent) WritePacket(data []byte, capturedAt time.Time) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed.Load() {
		return 0, fmt.Errorf("pcap-ng stream already closed")
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     capturedAt,
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := a.w.WritePacket(ci, data); err != nil {
		return 0, fmt.Errorf("write pcap-ng packet: %w", err)
	}
	if err := a.w.Flush(); err != nil {
		return 0, fmt.Errorf("flush pcap-ng writer: %w", err)
	}
	a.written.Add(uint64(len(data)))
	a.packets.Add(1)
	return len(data), nil
}

// StopStream implements Agent.
func (a *PcapNgAgent) StopStream() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed.Swap(true) {
		return nil
	}
	return a.closer.Close()
}

// CheckOverSize implements Agent.
func (a *PcapNgAgent) CheckOverSize() bool {
	return a.maxBytes > 0 && a.written.Load() >= a.maxBytes
}

// CheckOverPackets implements Agent.
func (a *PcapNgAgent) CheckOverPackets() bool {
	return a.maxPackets > 0 && a.packets.Load() >= a.maxPackets
}
