package rest

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/mzeile/inkroom/service"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

type createRoomRequest struct {
	Password string `json:"password"`
}

type createRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

// HandleCreateRoom is the REST convenience entry point for room creation.
// The creator still joins over websocket with the returned code.
func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createRoomRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	room, err := h.Service.NewRoom(r.Context(), req.Password)
	if err != nil {
		log.Printf("Create room failed: %v", err)
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, createRoomResponse{RoomCode: room.Code})
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
