package redis

import (
	"context"
	"crypto/tls"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisBroker backs the room broadcast fabric with redis pub/sub, so fan-out
// keeps working when more than one server instance is running.
type RedisBroker struct {
	client redis.UniversalClient
}

func NewRedisBroker(ctx context.Context, devMode bool, redisEndpoint string) (*RedisBroker, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
			// Managed redis endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisBroker{client: client}, nil
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, message []byte) error {
	return b.client.Publish(ctx, topic, message).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, topic string, handler func(message []byte)) error {
	pubsub := b.client.Subscribe(ctx, topic)
	// Ensure subscription is established
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		log.Printf("Pubsub topic closed: %s", topic)
		return err
	}

	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}
