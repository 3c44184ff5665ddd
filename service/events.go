package service

import (
	"encoding/json"

	"github.com/mzeile/inkroom/models"
)

// Outbound event names. Inbound names live in the websocket handler; these
// are shared because the service publishes fully-formed envelopes to the
// broker and the hub relays them to sockets untouched.
const (
	EventMembers  = "room:members"
	EventStroke   = "canvas:stroke"
	EventUndo     = "canvas:undo"
	EventSnapshot = "canvas:snapshot"
	EventHistory  = "canvas:history"
)

// Event is the wire envelope for every server-to-client message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type MembersData struct {
	Members []models.MemberSnapshot `json:"members"`
}

type UndoData struct {
	StrokeID string `json:"strokeId"`
}

func marshalEvent(eventType string, data any) ([]byte, error) {
	return json.Marshal(Event{Type: eventType, Data: data})
}
