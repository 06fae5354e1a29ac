package bridge

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-app/server/src/hub"
	"github.com/daybook-app/server/src/types"
)

type recorderConn struct {
	mu      sync.Mutex
	written [][]byte
}

func (r *recorderConn) ReadMessage() (int, []byte, error) { select {} }
func (r *recorderConn) WriteMessage(_ int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	r.written = append(r.written, cp)
	return nil
}
func (r *recorderConn) WriteControl(int, []byte, time.Time) error { return nil }
func (r *recorderConn) Close() error                              { return nil }

func (r *recorderConn) getWritten() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([][]byte, len(r.written))
	copy(cp, r.written)
	return cp
}

func TestBroadcastReachesIdleConnection(t *testing.T) {
	registry := hub.NewRegistry(zerolog.Nop())
	b := NewLocal(registry, zerolog.Nop())

	userID := uuid.New()
	conn := &recorderConn{}
	client := hub.NewClient("c1", conn, 16)
	go client.WritePump()
	t.Cleanup(client.Close)
	registry.Register(client, userID.String())

	// A mutation arriving outside the socket (e.g. via REST) still notifies
	// the user's live connection.
	b.BroadcastToUser(userID, types.EventDiaryCreated, map[string]string{"rawText": "hello"})
	time.Sleep(50 * time.Millisecond)

	written := conn.getWritten()
	require.Len(t, written, 1)

	var event struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(written[0], &event))
	assert.Equal(t, types.EventDiaryCreated, event.Type)
	assert.Equal(t, "hello", event.Data["rawText"])
}

func TestBroadcastToOfflineUserIsNoop(t *testing.T) {
	registry := hub.NewRegistry(zerolog.Nop())
	b := NewLocal(registry, zerolog.Nop())

	// No connections registered; must not panic or error.
	b.BroadcastToUser(uuid.New(), types.EventMoodLogged, map[string]int{"moodScore": 3})
}
