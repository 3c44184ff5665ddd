package ws

import (
	"context"
	"log"

	"github.com/mzeile/inkroom/pubsub"
)

type subscription struct {
	client   *Client
	roomCode string
	done     chan struct{}
}

type delivery struct {
	roomCode string
	message  []byte
}

// Hub maintains the set of active clients and relays room broadcasts from the
// broker to every local socket joined to the room. One broker subscription
// exists per room code with local members, shared by all of them.
type Hub struct {
	broker                 pubsub.Broker
	OpenCh                 chan *Client
	CloseCh                chan *Client
	SubscribeCh            chan subscription
	UnsubscribeCh          chan subscription
	DeliverCh              chan delivery
	clients                map[*Client]struct{}
	roomToClients          map[string]map[*Client]struct{}
	roomToSubscriberCancel map[string]context.CancelFunc
}

func NewHub(broker pubsub.Broker) *Hub {
	return &Hub{
		broker:                 broker,
		OpenCh:                 make(chan *Client, 256),
		CloseCh:                make(chan *Client, 256),
		SubscribeCh:            make(chan subscription, 1024),
		UnsubscribeCh:          make(chan subscription, 1024),
		DeliverCh:              make(chan delivery, 1024),
		clients:                make(map[*Client]struct{}),
		roomToClients:          make(map[string]map[*Client]struct{}),
		roomToSubscriberCancel: make(map[string]context.CancelFunc),
	}
}

const (
	maxConnections        = 4096
	maxRoomsPerConnection = 50
)

// Subscribe joins the client to the room's topic and returns once the hub has
// processed the request, so a broadcast published right after is delivered.
func (h *Hub) Subscribe(client *Client, roomCode string) {
	done := make(chan struct{})
	h.SubscribeCh <- subscription{client: client, roomCode: roomCode, done: done}
	<-done
}

func (h *Hub) Unsubscribe(client *Client, roomCode string) {
	h.UnsubscribeCh <- subscription{client: client, roomCode: roomCode}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.OpenCh:
			if len(h.clients) >= maxConnections {
				log.Printf("Connection limit reached (%d), rejecting socket %s", maxConnections, client.socketID)
				close(client.Send)
				continue
			}
			h.clients[client] = struct{}{}

		case client := <-h.CloseCh:
			for _, room := range client.Rooms() {
				h.dropFromRoom(client, room)
			}
			delete(h.clients, client)

		case sub := <-h.SubscribeCh:
			h.subscribe(sub)
			close(sub.done)

		case unsub := <-h.UnsubscribeCh:
			h.dropFromRoom(unsub.client, unsub.roomCode)

		case d := <-h.DeliverCh:
			for client := range h.roomToClients[d.roomCode] {
				client.Send <- d.message
			}
		}
	}
}

func (h *Hub) subscribe(sub subscription) {
	if sub.client.roomCount() >= maxRoomsPerConnection {
		log.Printf("Socket %s reached max joined rooms (%d)", sub.client.socketID, maxRoomsPerConnection)
		return
	}
	if h.roomToClients[sub.roomCode] == nil {
		ctx, cancel := context.WithCancel(context.Background())
		roomCode := sub.roomCode
		topic := pubsub.RoomTopic(roomCode)

		// The broker invokes the handler from its own goroutine; hand the
		// message back to the hub loop, which owns the room membership maps.
		err := h.broker.Subscribe(ctx, topic, func(messageBytes []byte) {
			h.DeliverCh <- delivery{roomCode: roomCode, message: messageBytes}
		})
		if err != nil {
			log.Printf("Failed to create broker sub for topic %s: %v", topic, err)
			cancel()
			return
		}

		h.roomToClients[sub.roomCode] = make(map[*Client]struct{})
		h.roomToSubscriberCancel[sub.roomCode] = cancel
	}
	h.roomToClients[sub.roomCode][sub.client] = struct{}{}
	sub.client.trackRoom(sub.roomCode)
}

func (h *Hub) dropFromRoom(client *Client, roomCode string) {
	delete(h.roomToClients[roomCode], client)
	client.forgetRoom(roomCode)
	if len(h.roomToClients[roomCode]) == 0 {
		if cancel, ok := h.roomToSubscriberCancel[roomCode]; ok {
			cancel()
			delete(h.roomToSubscriberCancel, roomCode)
		}
		delete(h.roomToClients, roomCode)
	}
}
