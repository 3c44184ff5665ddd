package worker

import (
	"context"
	"log"
	"time"

	"github.com/mzeile/inkroom/store"
)

// RoomSweeper deletes rooms idle past their TTL. Emptying a room never
// deletes it on its own; this timed sweep is the only eviction path.
type RoomSweeper struct {
	roomStore store.RoomStore
	interval  time.Duration
	roomTTL   time.Duration
}

func NewRoomSweeper(roomStore store.RoomStore, interval, roomTTL time.Duration) *RoomSweeper {
	return &RoomSweeper{
		roomStore: roomStore,
		interval:  interval,
		roomTTL:   roomTTL,
	}
}

func (w *RoomSweeper) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if deleted := w.roomStore.CleanupInactiveRooms(w.roomTTL); deleted > 0 {
				log.Printf("Swept %d inactive room(s)", deleted)
			}

		case <-shutdownCtx.Done():
			return
		}
	}
}
