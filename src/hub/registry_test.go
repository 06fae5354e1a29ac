package hub

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog"

	"github.com/daybook-app/server/src/types"
)

var (
	errConnClosed = errors.New("connection closed")
	errCloseSent  = errors.New("close frame already sent")
)

// mockConn implements types.Conn for testing without a real WebSocket. Like
// the real transport, it rejects data frames once a close frame went out.
type mockConn struct {
	mu        sync.Mutex
	written   [][]byte
	closeCode int
	readCh    chan []byte
	closed    bool
	closeSent bool
	closedCh  chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{
		readCh:    make(chan []byte, 16),
		closedCh:  make(chan struct{}),
		closeCode: -1,
	}
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	select {
	case p := <-m.readCh:
		return websocket.TextMessage, p, nil
	case <-m.closedCh:
		return 0, nil, errConnClosed
	}
}

func (m *mockConn) WriteMessage(_ int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errConnClosed
	}
	if m.closeSent {
		return errCloseSent
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.written = append(m.written, cp)
	return nil
}

func (m *mockConn) WriteControl(messageType int, data []byte, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if messageType == websocket.CloseMessage && len(data) >= 2 {
		m.closeCode = int(binary.BigEndian.Uint16(data[:2]))
		m.closeSent = true
	}
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closedCh)
	}
	return nil
}

func (m *mockConn) getWritten() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]byte, len(m.written))
	copy(cp, m.written)
	return cp
}

func (m *mockConn) getCloseCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCode
}

// newTestClient creates a client over a mock conn and starts its write pump.
func newTestClient(t *testing.T, id string) (*Client, *mockConn) {
	t.Helper()
	conn := newMockConn()
	client := NewClient(id, conn, 16)
	go client.WritePump()
	t.Cleanup(client.Close)
	return client, conn
}

func TestCloseWithCodeFlushesQueuedFramesFirst(t *testing.T) {
	c, conn := newTestClient(t, "c1")

	if !c.TrySend([]byte(`{"type":"auth.error"}`)) {
		t.Fatal("send queue should accept the frame")
	}
	c.CloseWithCode(types.CloseAuthTimeout, "authentication timeout")
	time.Sleep(50 * time.Millisecond)

	// The queued frame must hit the wire before the close frame: the
	// transport rejects data frames once a close frame has been sent.
	if got := conn.getWritten(); len(got) != 1 {
		t.Fatalf("expected queued frame delivered before close, got %d frames", len(got))
	}
	if code := conn.getCloseCode(); code != types.CloseAuthTimeout {
		t.Fatalf("expected close code %d, got %d", types.CloseAuthTimeout, code)
	}
}

func TestRegistryRegisterAndCount(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	c1, _ := newTestClient(t, "c1")
	c2, _ := newTestClient(t, "c2")
	c3, _ := newTestClient(t, "c3")

	r.Register(c1, "u1")
	r.Register(c2, "u1")
	r.Register(c3, "u2")

	if got := r.CountForUser("u1"); got != 2 {
		t.Fatalf("expected 2 connections for u1, got %d", got)
	}
	if got := r.CountForUser("u2"); got != 1 {
		t.Fatalf("expected 1 connection for u2, got %d", got)
	}
	if got := r.TotalCount(); got != 3 {
		t.Fatalf("expected 3 total connections, got %d", got)
	}

	r.Unregister(c1.ID)
	if got := r.CountForUser("u1"); got != 1 {
		t.Fatalf("expected 1 connection for u1 after unregister, got %d", got)
	}

	r.Unregister(c2.ID)
	if got := r.CountForUser("u1"); got != 0 {
		t.Fatalf("expected 0 connections for u1, got %d", got)
	}

	// The empty group must be removed, not left dangling.
	users := r.ConnectedUsers()
	if len(users) != 1 || users[0] != "u2" {
		t.Fatalf("expected only u2 to remain, got %v", users)
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	c1, _ := newTestClient(t, "c1")
	r.Register(c1, "u1")

	r.Unregister(c1.ID)
	r.Unregister(c1.ID)
	r.Unregister("never-registered")

	if got := r.CountForUser("u1"); got != 0 {
		t.Fatalf("count went negative or stuck: %d", got)
	}
	if got := r.TotalCount(); got != 0 {
		t.Fatalf("expected 0 total, got %d", got)
	}
}

func TestBroadcastDeliversIdenticalBytes(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	c1, conn1 := newTestClient(t, "c1")
	c2, conn2 := newTestClient(t, "c2")
	r.Register(c1, "u1")
	r.Register(c2, "u1")

	r.BroadcastToUser("u1", map[string]any{"type": "event.todo.created", "data": map[string]any{"title": "x"}})
	time.Sleep(50 * time.Millisecond)

	w1, w2 := conn1.getWritten(), conn2.getWritten()
	if len(w1) != 1 || len(w2) != 1 {
		t.Fatalf("expected 1 frame each, got %d and %d", len(w1), len(w2))
	}
	if !bytes.Equal(w1[0], w2[0]) {
		t.Fatalf("broadcast bytes differ: %q vs %q", w1[0], w2[0])
	}
	if !json.Valid(w1[0]) {
		t.Fatalf("broadcast frame is not valid JSON: %q", w1[0])
	}
}

func TestBroadcastToUnknownUserIsNoop(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	c1, conn1 := newTestClient(t, "c1")
	r.Register(c1, "u1")

	r.BroadcastToUser("nobody", map[string]string{"hello": "world"})
	time.Sleep(20 * time.Millisecond)

	if got := conn1.getWritten(); len(got) != 0 {
		t.Fatalf("expected no frames, got %d", len(got))
	}
}

func TestBroadcastSkipsClosedClients(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	c1, conn1 := newTestClient(t, "c1")
	c2, conn2 := newTestClient(t, "c2")
	r.Register(c1, "u1")
	r.Register(c2, "u1")

	c2.Close()
	time.Sleep(20 * time.Millisecond)

	r.BroadcastToUser("u1", map[string]string{"k": "v"})
	time.Sleep(50 * time.Millisecond)

	if got := conn1.getWritten(); len(got) != 1 {
		t.Fatalf("open client should receive the frame, got %d", len(got))
	}
	if got := conn2.getWritten(); len(got) != 0 {
		t.Fatalf("closed client should be skipped, got %d frames", len(got))
	}
	// Still registered: removal happens only via the close/error path.
	if got := r.CountForUser("u1"); got != 2 {
		t.Fatalf("broadcast must not evict clients, count %d", got)
	}
}

func TestSnapshotReportsConnectionMetadata(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	c1, _ := newTestClient(t, "c1")

	before := time.Now()
	r.Register(c1, "u1")

	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(snap))
	}
	info := snap[0]
	if info.ClientID != "c1" || info.UserID != "u1" {
		t.Fatalf("unexpected identity %s/%s", info.ClientID, info.UserID)
	}
	if info.ConnectedAt.IsZero() || info.AuthenticatedAt.Before(before) {
		t.Fatalf("timestamps not recorded: connected=%v authenticated=%v", info.ConnectedAt, info.AuthenticatedAt)
	}

	r.Unregister(c1.ID)
	if got := r.Snapshot(); len(got) != 0 {
		t.Fatalf("expected empty snapshot after unregister, got %d", len(got))
	}
}

func TestSendToSingleClient(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	c1, conn1 := newTestClient(t, "c1")
	c2, conn2 := newTestClient(t, "c2")
	r.Register(c1, "u1")
	r.Register(c2, "u1")

	r.SendTo(c1, map[string]string{"only": "c1"})
	time.Sleep(50 * time.Millisecond)

	if got := conn1.getWritten(); len(got) != 1 {
		t.Fatalf("expected 1 frame for c1, got %d", len(got))
	}
	if got := conn2.getWritten(); len(got) != 0 {
		t.Fatalf("expected no frames for c2, got %d", len(got))
	}
}
