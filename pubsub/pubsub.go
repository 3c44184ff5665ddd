package pubsub

import "context"

// Broker is the fan-out primitive behind room broadcasts: one topic per room
// code. Subscribe delivers every message published to the topic, in publish
// order, until the context is cancelled.
type Broker interface {
	Publish(ctx context.Context, topic string, message []byte) error
	Subscribe(ctx context.Context, topic string, handler func(message []byte)) error
}

// RoomTopic names the broadcast topic for a room code.
func RoomTopic(code string) string {
	return "room:" + code
}
