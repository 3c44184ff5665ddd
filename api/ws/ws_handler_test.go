package ws

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mzeile/inkroom/models"
	pubsubmocks "github.com/mzeile/inkroom/pubsub/mocks"
	"github.com/mzeile/inkroom/service"
	"github.com/mzeile/inkroom/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// setupHandler wires a handler onto a real store and a mock broker. The hub
// runs for real so blocking subscribes complete; broker fan-out stays mocked,
// so client.Send only ever carries unicasts (acks and recovery payloads).
func setupHandler(t *testing.T) (*Handler, *Client, *memstore.Store) {
	t.Helper()

	mockBroker := new(pubsubmocks.MockBroker)
	mockBroker.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockBroker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomStore := memstore.NewStore()
	svc := service.NewService(roomStore, mockBroker)

	hub := NewHub(mockBroker)
	go hub.Run()

	handler := NewHandler(svc, hub)
	client := NewClient(hub, nil, "sock-test", handler.HandleWsMessage, handler.handleDisconnect)
	return handler, client, roomStore
}

func nextMessage(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case msg := <-client.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound message")
		return nil
	}
}

func assertNoMessage(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.Send:
		t.Fatalf("unexpected outbound message: %s", msg)
	default:
	}
}

type ackEnvelope struct {
	Type string  `json:"type"`
	Data ackData `json:"data"`
}

func createRoom(t *testing.T, handler *Handler, client *Client) ackData {
	t.Helper()
	handler.HandleWsMessage(client, websocket.TextMessage, []byte(`{"type":"create-room","data":{"profile":{"displayName":"Host"}}}`))

	var env ackEnvelope
	require.NoError(t, json.Unmarshal(nextMessage(t, client), &env))
	require.Equal(t, "create-room:ack", env.Type)
	require.True(t, env.Data.Success)
	return env.Data
}

func TestHandleWsMessage_InvalidJSON(t *testing.T) {
	handler, client, _ := setupHandler(t)

	handler.HandleWsMessage(client, websocket.TextMessage, []byte(`{"type":`))
	assertNoMessage(t, client)
}

func TestHandleWsMessage_UnknownType(t *testing.T) {
	handler, client, _ := setupHandler(t)

	handler.HandleWsMessage(client, websocket.TextMessage, []byte(`{"type":"teleport","data":{}}`))
	assertNoMessage(t, client)
}

func TestCreateRoom_AckAndSubscription(t *testing.T) {
	handler, client, _ := setupHandler(t)

	ack := createRoom(t, handler, client)
	assert.Len(t, ack.RoomCode, 6)
	assert.True(t, ack.IsHost)
	require.Len(t, ack.Members, 1)
	require.NotNil(t, ack.Self)
	assert.Equal(t, "Host", ack.Self.DisplayName)

	assert.Contains(t, client.Rooms(), ack.RoomCode)
}

func TestJoinRoom_RoomNotFound(t *testing.T) {
	handler, client, _ := setupHandler(t)

	handler.HandleWsMessage(client, websocket.TextMessage, []byte(`{"type":"join-room","data":{"code":"zzzzzz"}}`))

	var env ackEnvelope
	require.NoError(t, json.Unmarshal(nextMessage(t, client), &env))
	assert.Equal(t, "join-room:ack", env.Type)
	assert.False(t, env.Data.Success)
	assert.Equal(t, "Room not found", env.Data.Error)
	assert.Empty(t, client.Rooms())
}

func TestJoinRoom_LateJoinerGetsHistory(t *testing.T) {
	handler, host, _ := setupHandler(t)
	ack := createRoom(t, handler, host)

	strokeMsg := fmt.Sprintf(`{"type":"canvas:stroke","data":{"roomCode":%q,"stroke":{"id":"s1","tool":"pen","color":"#fff","width":4,"points":[{"x":0,"y":0},{"x":10,"y":10}]}}}`, ack.RoomCode)
	handler.HandleWsMessage(host, websocket.TextMessage, []byte(strokeMsg))
	assertNoMessage(t, host)

	joiner := NewClient(handler.Hub, nil, "sock-joiner", handler.HandleWsMessage, handler.handleDisconnect)
	joinMsg := fmt.Sprintf(`{"type":"join-room","data":{"code":%q,"profile":{"displayName":"Guest"}}}`, ack.RoomCode)
	handler.HandleWsMessage(joiner, websocket.TextMessage, []byte(joinMsg))

	var env ackEnvelope
	require.NoError(t, json.Unmarshal(nextMessage(t, joiner), &env))
	require.Equal(t, "join-room:ack", env.Type)
	require.True(t, env.Data.Success)
	assert.False(t, env.Data.IsHost)
	assert.Len(t, env.Data.Members, 2)

	var recovery struct {
		Type string          `json:"type"`
		Data []models.Stroke `json:"data"`
	}
	require.NoError(t, json.Unmarshal(nextMessage(t, joiner), &recovery))
	assert.Equal(t, service.EventHistory, recovery.Type)
	require.Len(t, recovery.Data, 1)
	assert.Equal(t, "s1", recovery.Data[0].ID)
	// Pressure was defaulted during normalization.
	assert.Equal(t, 0.5, recovery.Data[0].Points[0].Pressure)
}

func TestRequestSnapshot_NothingToRecover(t *testing.T) {
	handler, client, _ := setupHandler(t)
	ack := createRoom(t, handler, client)

	reqMsg := fmt.Sprintf(`{"type":"canvas:request-snapshot","data":{"roomCode":%q}}`, ack.RoomCode)
	handler.HandleWsMessage(client, websocket.TextMessage, []byte(reqMsg))
	assertNoMessage(t, client)
}

func TestUndo_ThenRequestSnapshotReturnsNothing(t *testing.T) {
	handler, client, _ := setupHandler(t)
	ack := createRoom(t, handler, client)

	strokeMsg := fmt.Sprintf(`{"type":"canvas:stroke","data":{"code":%q,"stroke":{"id":"s1","width":4,"points":[{"x":1,"y":1}]}}}`, ack.RoomCode)
	handler.HandleWsMessage(client, websocket.TextMessage, []byte(strokeMsg))

	undoMsg := fmt.Sprintf(`{"type":"canvas:undo","data":{"code":%q,"strokeId":"s1"}}`, ack.RoomCode)
	handler.HandleWsMessage(client, websocket.TextMessage, []byte(undoMsg))

	reqMsg := fmt.Sprintf(`{"type":"canvas:request-snapshot","data":{"code":%q}}`, ack.RoomCode)
	handler.HandleWsMessage(client, websocket.TextMessage, []byte(reqMsg))
	assertNoMessage(t, client)
}

func TestSaveSnapshot_ThenRequestReturnsIt(t *testing.T) {
	handler, client, _ := setupHandler(t)
	ack := createRoom(t, handler, client)

	saveMsg := fmt.Sprintf(`{"type":"canvas:save-snapshot","data":{"roomCode":%q,"snapshot":"{\"v\":1}"}}`, ack.RoomCode)
	handler.HandleWsMessage(client, websocket.TextMessage, []byte(saveMsg))

	reqMsg := fmt.Sprintf(`{"type":"canvas:request-snapshot","data":{"roomCode":%q}}`, ack.RoomCode)
	handler.HandleWsMessage(client, websocket.TextMessage, []byte(reqMsg))

	var recovery struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(nextMessage(t, client), &recovery))
	assert.Equal(t, service.EventSnapshot, recovery.Type)
	assert.Equal(t, `{"v":1}`, recovery.Data)
}

func TestInvalidStroke_SilentlyDropped(t *testing.T) {
	handler, client, roomStore := setupHandler(t)
	ack := createRoom(t, handler, client)

	// No points: dropped without any signal to the sender.
	strokeMsg := fmt.Sprintf(`{"type":"canvas:stroke","data":{"roomCode":%q,"stroke":{"id":"s1","width":4,"points":[]}}}`, ack.RoomCode)
	handler.HandleWsMessage(client, websocket.TextMessage, []byte(strokeMsg))
	assertNoMessage(t, client)

	_, history, err := roomStore.RecoveryState(ack.RoomCode)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLeaveRoom_RemovesMembershipAndSubscription(t *testing.T) {
	handler, client, roomStore := setupHandler(t)
	ack := createRoom(t, handler, client)

	leaveMsg := fmt.Sprintf(`{"type":"leave-room","data":{"roomCode":%q}}`, ack.RoomCode)
	handler.HandleWsMessage(client, websocket.TextMessage, []byte(leaveMsg))

	members, err := roomStore.MembersSnapshot(ack.RoomCode)
	require.NoError(t, err)
	assert.Empty(t, members)

	assert.Eventually(t, func() bool {
		for _, code := range client.Rooms() {
			if code == ack.RoomCode {
				return false
			}
		}
		return true
	}, time.Second, 10*time.Millisecond)
}

func TestDisconnect_RemovesMembership(t *testing.T) {
	handler, client, roomStore := setupHandler(t)
	ack := createRoom(t, handler, client)

	handler.handleDisconnect(client)

	members, err := roomStore.MembersSnapshot(ack.RoomCode)
	require.NoError(t, err)
	assert.Empty(t, members)

	// The room row persists until the sweep evicts it.
	_, err = roomStore.GetRoom(ack.RoomCode)
	assert.NoError(t, err)
}
