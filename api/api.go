package api

import (
	"context"
	"net/http"
	"time"

	"github.com/mzeile/inkroom/api/rest"
	"github.com/mzeile/inkroom/api/ws"
	"github.com/mzeile/inkroom/pubsub"
	"github.com/mzeile/inkroom/service"
	"github.com/mzeile/inkroom/store"
	"github.com/mzeile/inkroom/worker"
)

type InkroomAPI struct {
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
}

func NewInkroomAPI(
	roomStore store.RoomStore,
	broker pubsub.Broker,
	roomTTL time.Duration,
	sweepInterval time.Duration,
	shutdownCtx context.Context,
) *InkroomAPI {
	wsHub := ws.NewHub(broker)
	go wsHub.Run()

	roomSweeper := worker.NewRoomSweeper(roomStore, sweepInterval, roomTTL)
	go roomSweeper.Run(shutdownCtx)

	svc := service.NewService(roomStore, broker)

	restHandler := rest.NewHandler(svc)
	wsHandler := ws.NewHandler(svc, wsHub)

	return &InkroomAPI{
		restHandler: restHandler,
		wsHandler:   wsHandler,
		shutdownCtx: shutdownCtx,
	}
}

func (inkroomAPI *InkroomAPI) RegisterRoutes(mux *http.ServeMux, allowedOrigin string) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/rooms", inkroomAPI.restHandler.HandleCreateRoom)

	wsUpgrader := inkroomAPI.wsHandler.NewWsUpgrader(allowedOrigin)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		inkroomAPI.wsHandler.ServeWS(wsUpgrader, w, r, inkroomAPI.shutdownCtx)
	})
}
