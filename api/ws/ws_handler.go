package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"
	"github.com/mzeile/inkroom/models"
	"github.com/mzeile/inkroom/profile"
	"github.com/mzeile/inkroom/service"
)

type Handler struct {
	Service *service.Service
	Hub     *Hub
}

func NewHandler(svc *service.Service, hub *Hub) *Handler {
	return &Handler{
		Service: svc,
		Hub:     hub,
	}
}

func (h *Handler) NewWsUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
		Subprotocols: []string{"inkroom-v1"},
	}
}

// ServeWS handles websocket requests from the peer. Connections are
// anonymous; identity arrives later with create-room/join-room payloads.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade ws connection: %v", err)
		return
	}

	socketID := uuid.Must(uuid.NewV7()).String()
	client := NewClient(h.Hub, conn, socketID, h.HandleWsMessage, h.handleDisconnect)

	h.Hub.OpenCh <- client

	// Start pumps
	go client.ReadPump()
	go client.WritePump(shutdownCtx)
}

// Websocket message structs
type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// roomRef accepts the room code under either of its historical keys.
type roomRef struct {
	RoomCode string `json:"roomCode"`
	Code     string `json:"code"`
}

func (r roomRef) roomCode() string {
	if r.RoomCode != "" {
		return r.RoomCode
	}
	return r.Code
}

type createRoomMessage struct {
	Password string        `json:"password"`
	Profile  profile.Input `json:"profile"`
}

type joinRoomMessage struct {
	Code     string        `json:"code"`
	Password string        `json:"password"`
	Profile  profile.Input `json:"profile"`
}

type strokeMessage struct {
	roomRef
	Stroke service.StrokeInput `json:"stroke"`
}

type undoMessage struct {
	roomRef
	StrokeID string `json:"strokeId"`
}

type snapshotMessage struct {
	roomRef
	Snapshot string `json:"snapshot"`
}

type ackData struct {
	Success  bool                    `json:"success"`
	Error    string                  `json:"error,omitempty"`
	RoomCode string                  `json:"roomCode,omitempty"`
	IsHost   bool                    `json:"isHost"`
	Members  []models.MemberSnapshot `json:"members,omitempty"`
	Self     *models.Member          `json:"self,omitempty"`
}

type responseMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (h *Handler) HandleWsMessage(client *Client, messageType int, messageBytes []byte) {
	var msg message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		log.Printf("Invalid JSON: %v", err)
		return
	}

	switch msg.Type {
	case "create-room":
		var createMsg createRoomMessage
		if err := json.Unmarshal(msg.Data, &createMsg); err != nil {
			log.Printf("Invalid create-room data: %v", err)
			return
		}
		h.handleCreateRoom(client, createMsg)

	case "join-room":
		var joinMsg joinRoomMessage
		if err := json.Unmarshal(msg.Data, &joinMsg); err != nil {
			log.Printf("Invalid join-room data: %v", err)
			return
		}
		h.handleJoinRoom(client, joinMsg)

	case "leave-room":
		var leaveMsg roomRef
		if err := json.Unmarshal(msg.Data, &leaveMsg); err != nil {
			log.Printf("Invalid leave-room data: %v", err)
			return
		}
		h.handleLeaveRoom(client, leaveMsg)

	case "canvas:stroke":
		var strokeMsg strokeMessage
		if err := json.Unmarshal(msg.Data, &strokeMsg); err != nil {
			log.Printf("Invalid stroke data: %v", err)
			return
		}
		h.handleStroke(client, strokeMsg)

	case "canvas:undo":
		var undoMsg undoMessage
		if err := json.Unmarshal(msg.Data, &undoMsg); err != nil {
			log.Printf("Invalid undo data: %v", err)
			return
		}
		h.handleUndo(client, undoMsg)

	case "canvas:request-snapshot":
		var reqMsg roomRef
		if err := json.Unmarshal(msg.Data, &reqMsg); err != nil {
			log.Printf("Invalid request-snapshot data: %v", err)
			return
		}
		h.handleRequestSnapshot(client, reqMsg)

	case "canvas:save-snapshot":
		var saveMsg snapshotMessage
		if err := json.Unmarshal(msg.Data, &saveMsg); err != nil {
			log.Printf("Invalid save-snapshot data: %v", err)
			return
		}
		h.handleSaveSnapshot(client, saveMsg)

	default:
		log.Printf("Unknown message type: %v", msg.Type)
	}
}

func (h *Handler) handleCreateRoom(client *Client, createMsg createRoomMessage) {
	ctx := context.Background()

	result, err := h.Service.CreateRoom(ctx, createMsg.Password, createMsg.Profile, client.socketID)
	if err != nil {
		log.Printf("Create room failed: %v", err)
		h.sendAck(client, "create-room:ack", ackData{Success: false, Error: "Failed to create room"})
		return
	}

	h.Hub.Subscribe(client, result.RoomCode)

	if err := h.Service.BroadcastMembers(ctx, result.RoomCode); err != nil {
		log.Printf("Failed to broadcast members for room %s: %v", result.RoomCode, err)
	}

	h.sendAck(client, "create-room:ack", ackData{
		Success:  true,
		RoomCode: result.RoomCode,
		IsHost:   result.Self.IsHost,
		Members:  result.Members,
		Self:     &result.Self,
	})
}

func (h *Handler) handleJoinRoom(client *Client, joinMsg joinRoomMessage) {
	ctx := context.Background()

	result, err := h.Service.JoinRoom(ctx, joinMsg.Code, joinMsg.Password, joinMsg.Profile, client.socketID)
	if err != nil {
		h.sendAck(client, "join-room:ack", ackData{Success: false, Error: err.Error()})
		return
	}

	h.Hub.Subscribe(client, result.RoomCode)

	if err := h.Service.BroadcastMembers(ctx, result.RoomCode); err != nil {
		log.Printf("Failed to broadcast members for room %s: %v", result.RoomCode, err)
	}

	h.sendAck(client, "join-room:ack", ackData{
		Success:  true,
		RoomCode: result.RoomCode,
		IsHost:   result.Self.IsHost,
		Members:  result.Members,
		Self:     &result.Self,
	})

	// Late-joiner recovery: snapshot beats history, nothing when the room is
	// still blank.
	recovery, err := h.Service.RecoveryEvent(result.RoomCode)
	if err != nil {
		log.Printf("Failed to build recovery event for room %s: %v", result.RoomCode, err)
		return
	}
	if recovery != nil {
		client.Send <- recovery
	}
}

// handleLeaveRoom is the explicit counterpart of a transport disconnect for a
// single room: the member is removed, the rest of the room learns, and the
// socket stops receiving the room's broadcasts.
func (h *Handler) handleLeaveRoom(client *Client, leaveMsg roomRef) {
	code := leaveMsg.roomCode()
	if code == "" {
		return
	}
	h.Service.Disconnect(context.Background(), client.socketID, []string{code})
	h.Hub.Unsubscribe(client, code)
}

func (h *Handler) handleStroke(client *Client, strokeMsg strokeMessage) {
	code := strokeMsg.roomCode()
	if code == "" {
		return
	}
	// Fire-and-forget: a missing room or an invalid stroke is dropped without
	// signalling the sender.
	if _, err := h.Service.AppendStroke(context.Background(), code, strokeMsg.Stroke); err != nil {
		log.Printf("Stroke dropped for room %s: %v", code, err)
	}
}

func (h *Handler) handleUndo(client *Client, undoMsg undoMessage) {
	code := undoMsg.roomCode()
	if code == "" {
		return
	}
	if err := h.Service.UndoStroke(context.Background(), code, undoMsg.StrokeID); err != nil {
		log.Printf("Undo dropped for room %s: %v", code, err)
	}
}

func (h *Handler) handleRequestSnapshot(client *Client, reqMsg roomRef) {
	code := reqMsg.roomCode()
	if code == "" {
		return
	}
	recovery, err := h.Service.RecoveryEvent(code)
	if err != nil {
		log.Printf("Snapshot request dropped for room %s: %v", code, err)
		return
	}
	if recovery != nil {
		client.Send <- recovery
	}
}

func (h *Handler) handleSaveSnapshot(client *Client, saveMsg snapshotMessage) {
	code := saveMsg.roomCode()
	if code == "" {
		return
	}
	if err := h.Service.SaveSnapshot(context.Background(), code, saveMsg.Snapshot); err != nil {
		log.Printf("Snapshot dropped for room %s: %v", code, err)
	}
}

func (h *Handler) handleDisconnect(client *Client) {
	h.Service.Disconnect(context.Background(), client.socketID, client.Rooms())
}

func (h *Handler) sendAck(client *Client, ackType string, data ackData) {
	respBytes, err := json.Marshal(responseMessage{Type: ackType, Data: data})
	if err != nil {
		log.Printf("Error marshaling ack JSON: %v", err)
		return
	}
	client.Send <- respBytes
}
