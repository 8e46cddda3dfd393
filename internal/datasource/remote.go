package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// HandshakeRecord is the decoded remote-capture handshake: the three
// fields {definition, sourcetype, uuid} carried by either framing.
type HandshakeRecord struct {
	Definition string
	SourceType string
	UUID       uuid.UUID
}

// handshakeJSON is the v3 wire shape. The original source frames this
// record in MessagePack; no MessagePack library is available here, so
// remote peers speaking the JSON variant of the same three fields are
// accepted instead.
type handshakeJSON struct {
	Definition string `json:"definition"`
	SourceType string `json:"sourcetype"`
	UUID       string `json:"uuid"`
}

// parseHandshake decodes either framing a remote_handshake session may
// receive: JSON (leading '{') or legacy protobuf.
func parseHandshake(data []byte) (HandshakeRecord, error) {
	if len(data) > 0 && data[0] == '{' {
		return parseHandshakeJSON(data)
	}
	return parseHandshakeProtobuf(data)
}

func parseHandshakeJSON(data []byte) (HandshakeRecord, error) {
	var raw handshakeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return HandshakeRecord{}, fmt.Errorf("%w: %v", ErrMalformedDefinition, err)
	}
	id, err := uuid.Parse(raw.UUID)
	if err != nil {
		return HandshakeRecord{}, fmt.Errorf("%w: bad uuid: %v", ErrMalformedDefinition, err)
	}
	return HandshakeRecord{Definition: raw.Definition, SourceType: raw.SourceType, UUID: id}, nil
}

// legacy NewSource protobuf field numbers: 1=definition, 2=sourcetype,
// 3=uuid, all length-delimited strings.
const (
	legacyFieldDefinition = 1
	legacyFieldSourceType = 2
	legacyFieldUUID       = 3
)

func parseHandshakeProtobuf(data []byte) (HandshakeRecord, error) {
	var rec HandshakeRecord
	var rawUUID string
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return HandshakeRecord{}, fmt.Errorf("%w: bad field tag", ErrMalformedDefinition)
		}
		data = data[n:]

		switch num {
		case legacyFieldDefinition, legacyFieldSourceType, legacyFieldUUID:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return HandshakeRecord{}, fmt.Errorf("%w: bad string field %d", ErrMalformedDefinition, num)
			}
			data = data[n:]
			switch num {
			case legacyFieldDefinition:
				rec.Definition = v
			case legacyFieldSourceType:
				rec.SourceType = v
			case legacyFieldUUID:
				rawUUID = v
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return HandshakeRecord{}, fmt.Errorf("%w: bad field %d", ErrMalformedDefinition, num)
			}
			data = data[n:]
		}
	}
	id, err := uuid.Parse(rawUUID)
	if err != nil {
		return HandshakeRecord{}, fmt.Errorf("%w: bad uuid: %v", ErrMalformedDefinition, err)
	}
	rec.UUID = id
	return rec, nil
}

// packetSink is implemented by remote-capable drivers that want raw
// relayed frames fed back into their own decode path, once a remote
// session's handshake has completed ('s "relayed through
// the normal source IO path").
type packetSink interface {
	FeedRemotePacket(srcUUID uuid.UUID, data []byte)
}

// openRemote implements 's open_remote: reconnect an
// existing UUID against its current device entry, or claim a fresh
// remote-capable driver by sourcetype.
func (t *Tracker) openRemote(ctx context.Context, rec HandshakeRecord, conn remoteConn) (*Source, error) {
	def, err := ParseDefinition(rec.Definition)
	if err != nil {
		return nil, err
	}

	if existing, ok := t.Find(rec.UUID); ok {
		driver, handle := existing.Driver, existing.Handle
		t.Close(rec.UUID)
		src, rejected := t.mergeRemote(rec.UUID, def, driver, handle, conn)
		if rejected {
			return nil, ErrDuplicateUUID
		}
		src.setState(SourceRunning)
		return src, nil
	}

	driver, ok := t.registry.RemoteCapable(rec.SourceType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRemoteDriver, rec.SourceType)
	}
	handle, err := driver.OpenInterface(ctx, def)
	if err != nil {
		return nil, err
	}
	src, rejected := t.mergeRemote(rec.UUID, def, driver, handle, conn)
	if rejected {
		return nil, ErrDuplicateUUID
	}
	src.setState(SourceRunning)
	return src, nil
}

// remoteTCPConn adapts a net.Conn to remoteConn.
type remoteTCPConn struct{ conn net.Conn }

func (c *remoteTCPConn) Close() error { return c.conn.Close() }

// TCPRemoteListener accepts remote-capture sessions over a plain TCP
// socket.
type TCPRemoteListener struct {
	tracker *Tracker
	ln      net.Listener
}

// NewTCPRemoteListener binds addr and returns a listener ready to
// Serve. Binding happens here so callers learn about a bad address
// immediately rather than on the first Serve call.
func NewTCPRemoteListener(tracker *Tracker, addr string) (*TCPRemoteListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("remote capture listen: %w", err)
	}
	return &TCPRemoteListener{tracker: tracker, ln: ln}, nil
}

// Addr returns the bound listener address.
func (l *TCPRemoteListener) Addr() net.Addr { return l.ln.Addr() }

// Serve accepts connections until ctx is cancelled or the listener
// errors.
func (l *TCPRemoteListener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go l.handleConn(ctx, conn)
	}
}

func (l *TCPRemoteListener) handleConn(ctx context.Context, conn net.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 64*1024)
	n, err := conn.Read(buf)
	if err != nil {
		logf("remote handshake: %v", err)
		conn.Close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	rec, err := parseHandshake(buf[:n])
	if err != nil {
		logf("remote handshake: %v", err)
		conn.Close()
		return
	}

	src, err := l.tracker.openRemote(ctx, rec, &remoteTCPConn{conn: conn})
	if err != nil {
		logf("open_remote: %v", err)
		conn.Close()
		return
	}

	l.relay(ctx, conn, src)
}

func (l *TCPRemoteListener) relay(ctx context.Context, conn net.Conn, src *Source) {
	defer conn.Close()
	sink, _ := src.Driver.(packetSink)
	buf := make([]byte, 64*1024)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		if sink != nil {
			sink.FeedRemotePacket(src.UUID, append([]byte(nil), buf[:n]...))
		}
	}
}

// remoteWSConn adapts a websocket.Conn to remoteConn.
type remoteWSConn struct{ conn *websocket.Conn }

func (c *remoteWSConn) Close() error { return c.conn.Close(websocket.StatusNormalClosure, "") }

// HandleWebSocket is an http.HandlerFunc-shaped route for the
// WebSocket remote-capture entry point: the first inbound message is
// the handshake, subsequent binary messages are relayed driver packets.
func (t *Tracker) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logf("remote websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	hctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	_, data, err := conn.Read(hctx)
	cancel()
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, "handshake timeout")
		return
	}

	rec, err := parseHandshake(data)
	if err != nil {
		conn.Close(websocket.StatusUnsupportedData, "malformed handshake")
		return
	}

	src, err := t.openRemote(r.Context(), rec, &remoteWSConn{conn: conn})
	if err != nil {
		conn.Close(websocket.StatusInternalError, err.Error())
		return
	}

	sink, _ := src.Driver.(packetSink)
	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		if sink != nil {
			sink.FeedRemotePacket(src.UUID, data)
		}
	}
}
