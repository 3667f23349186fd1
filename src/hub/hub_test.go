package hub_test

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escaperoom/backoffice/src/hub"
	"github.com/escaperoom/backoffice/src/types"
)

// mockConn implements types.Conn for testing without a real WebSocket.
type mockConn struct {
	mu       sync.Mutex
	written  []types.Message
	readCh   chan types.Message
	closed   bool
	closedCh chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{
		readCh:   make(chan types.Message, 16),
		closedCh: make(chan struct{}),
	}
}

func (m *mockConn) WriteJSON(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := v.(types.Message); ok {
		m.written = append(m.written, msg)
	}
	return nil
}

func (m *mockConn) ReadJSON(v any) error {
	select {
	case msg := <-m.readCh:
		if ptr, ok := v.(*types.Message); ok {
			*ptr = msg
		}
		return nil
	case <-m.closedCh:
		return &closeError{}
	}
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

func (m *mockConn) getWritten() []types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Message(nil), m.written...)
}

type closeError struct{}

func (e *closeError) Error() string { return "connection closed" }

// newTestHub creates a hub and starts its event loop in a goroutine.
func newTestHub(t *testing.T) *hub.Hub {
	t.Helper()
	h := hub.New(zerolog.Nop())
	go h.Run()
	t.Cleanup(func() { h.Stop() })
	return h
}

// connectClient creates, registers, and starts a mock client.
func connectClient(t *testing.T, h *hub.Hub, id, kind, name string) (*hub.Client, *mockConn) {
	t.Helper()
	conn := newMockConn()
	client := hub.NewClient(id, kind, name, conn, h)
	h.Register(client)
	go client.WritePump()
	go client.ReadPump()
	// Allow registration to process.
	time.Sleep(20 * time.Millisecond)
	return client, conn
}

func TestRegisterAndUnregister(t *testing.T) {
	h := newTestHub(t)

	connectClient(t, h, "client-1", "", "")
	connectClient(t, h, "client-2", "", "")
	assert.Equal(t, 2, h.ClientCount())

	c3, _ := connectClient(t, h, "client-3", "", "")
	h.Unregister(c3)
	time.Sleep(20 * time.Millisecond)

	assert.Nil(t, h.ClientInfo("client-3"))
	assert.NotNil(t, h.ClientInfo("client-1"))
}

func TestHandlerDispatchByEvent(t *testing.T) {
	h := newTestHub(t)

	var mu sync.Mutex
	var from string
	var got types.Message
	h.RegisterHandler("state:update", func(clientID string, msg types.Message) error {
		mu.Lock()
		defer mu.Unlock()
		from = clientID
		got = msg
		return nil
	})

	_, conn := connectClient(t, h, "game-1", "", "")
	conn.readCh <- types.Message{Event: "state:update", Data: map[string]any{"phase": 2}}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "game-1", from, "hub stamps the sender's connection id")
	assert.Equal(t, map[string]any{"phase": 2}, got.Data)
}

func TestPublishToChannel(t *testing.T) {
	h := newTestHub(t)
	_, conn1 := connectClient(t, h, "c1", "", "")
	_, conn2 := connectClient(t, h, "c2", "", "")

	require.True(t, h.Subscribe("screen", "c1"))

	h.Publish("screen", types.Message{Event: "screen:display_message"})
	time.Sleep(50 * time.Millisecond)

	assert.Len(t, conn1.getWritten(), 1)
	assert.Empty(t, conn2.getWritten(), "unsubscribed client must not receive")
}

func TestBroadcastAllReachesEveryClient(t *testing.T) {
	h := newTestHub(t)
	_, conn1 := connectClient(t, h, "c1", "", "")
	_, conn2 := connectClient(t, h, "c2", "screen", "")

	h.BroadcastAll(types.Message{Event: "games_updated"})
	time.Sleep(50 * time.Millisecond)

	assert.Len(t, conn1.getWritten(), 1)
	assert.Len(t, conn2.getWritten(), 1)
}

func TestSendToClient(t *testing.T) {
	h := newTestHub(t)
	_, conn := connectClient(t, h, "target", "", "")

	require.True(t, h.SendToClient("target", types.Message{Event: "command"}))
	time.Sleep(20 * time.Millisecond)

	require.Len(t, conn.getWritten(), 1)
	assert.Equal(t, "command", conn.getWritten()[0].Event)

	assert.False(t, h.SendToClient("nonexistent", types.Message{Event: "command"}))
}

func TestSubscribeUnknownClient(t *testing.T) {
	h := newTestHub(t)
	assert.False(t, h.Subscribe("screen", "nobody"))
}

func TestChannelCleanupOnDisconnect(t *testing.T) {
	h := newTestHub(t)
	c1, _ := connectClient(t, h, "c1", "", "")
	h.Subscribe("screen", "c1")

	h.Unregister(c1)
	time.Sleep(20 * time.Millisecond)

	_, ok := h.Channels()["screen"]
	assert.False(t, ok, "empty channels are removed")
}

func TestFindClientsByKindAndName(t *testing.T) {
	h := newTestHub(t)
	connectClient(t, h, "cam-1", hub.KindCamera, "Entrance")
	connectClient(t, h, "cam-2", hub.KindCamera, "Vault")
	connectClient(t, h, "op-1", hub.KindOperator, "")

	assert.ElementsMatch(t, []string{"cam-1", "cam-2"}, h.FindClients(hub.KindCamera, ""))
	assert.Equal(t, []string{"cam-1"}, h.FindClients(hub.KindCamera, "Entrance"))
	assert.Empty(t, h.FindClients(hub.KindCamera, "Basement"))
}

func TestConnectionCallbacks(t *testing.T) {
	h := newTestHub(t)

	var mu sync.Mutex
	var connected, disconnected string
	h.OnConnection(func(id string) {
		mu.Lock()
		defer mu.Unlock()
		connected = id
	})
	h.OnDisconnection(func(id string) {
		mu.Lock()
		defer mu.Unlock()
		disconnected = id
	})

	client, _ := connectClient(t, h, "cb-client", "", "")
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, "cb-client", connected)
	mu.Unlock()

	h.Unregister(client)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, "cb-client", disconnected)
	mu.Unlock()
}

func TestDisconnectViaReadError(t *testing.T) {
	h := newTestHub(t)
	_, conn := connectClient(t, h, "dropper", "", "")

	conn.Close()
	time.Sleep(50 * time.Millisecond)

	assert.Nil(t, h.ClientInfo("dropper"), "read error unregisters the client")
}
