package service

import (
	"github.com/mzeile/inkroom/pubsub"
	"github.com/mzeile/inkroom/store"
)

type Service struct {
	Store  store.RoomStore
	Broker pubsub.Broker
}

func NewService(roomStore store.RoomStore, broker pubsub.Broker) *Service {
	return &Service{
		Store:  roomStore,
		Broker: broker,
	}
}
