package service

import (
	"context"
	"errors"
	"log"

	"github.com/mzeile/inkroom/models"
	"github.com/mzeile/inkroom/profile"
	"github.com/mzeile/inkroom/pubsub"
	"github.com/mzeile/inkroom/store"
	"golang.org/x/crypto/bcrypt"
)

// JoinResult is what create/join acks carry back to the caller: the room
// code, the caller's own normalized identity and the current member list.
type JoinResult struct {
	RoomCode string
	Self     models.Member
	Members  []models.MemberSnapshot
}

// NewRoom registers an empty room, optionally password-protected. Used by
// the REST convenience endpoint; the creator joins over websocket afterwards.
func (s *Service) NewRoom(ctx context.Context, password string) (models.Room, error) {
	passwordHash := ""
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.Room{}, err
		}
		passwordHash = string(hash)
	}
	return s.Store.CreateRoom(passwordHash)
}

// CreateRoom creates a room, optionally password-protected, and seats the
// caller as its host.
func (s *Service) CreateRoom(ctx context.Context, password string, in profile.Input, socketID string) (JoinResult, error) {
	room, err := s.NewRoom(ctx, password)
	if err != nil {
		return JoinResult{}, err
	}

	return s.seatMember(room.Code, in, socketID, true)
}

// JoinRoom verifies the room code and password and seats the caller as a
// regular member. The caller only becomes host when the room has none.
func (s *Service) JoinRoom(ctx context.Context, code, password string, in profile.Input, socketID string) (JoinResult, error) {
	room, err := s.Store.GetRoom(code)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return JoinResult{}, ErrRoomNotFound
		}
		return JoinResult{}, err
	}

	if room.HasPassword() {
		// Note: verification happens outside any store lock, so two joins can
		// both pass here concurrently. That is benign: UpsertMember is atomic
		// and never seats two members on one socket or two hosts.
		if bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)) != nil {
			return JoinResult{}, ErrInvalidPassword
		}
	}

	return s.seatMember(room.Code, in, socketID, false)
}

func (s *Service) seatMember(code string, in profile.Input, socketID string, asHost bool) (JoinResult, error) {
	p := profile.Normalize(in)

	self, err := s.Store.UpsertMember(code, store.MemberInput{
		SocketID:    socketID,
		ClientID:    p.ClientID,
		DisplayName: p.DisplayName,
		Avatar:      p.Avatar,
		IsHost:      asHost,
	})
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return JoinResult{}, ErrRoomNotFound
		}
		return JoinResult{}, err
	}

	members, err := s.Store.MembersSnapshot(code)
	if err != nil {
		return JoinResult{}, err
	}

	return JoinResult{RoomCode: code, Self: self, Members: members}, nil
}

// BroadcastMembers publishes the current member list to the room's topic.
func (s *Service) BroadcastMembers(ctx context.Context, code string) error {
	members, err := s.Store.MembersSnapshot(code)
	if err != nil {
		return err
	}

	msg, err := marshalEvent(EventMembers, MembersData{Members: members})
	if err != nil {
		return err
	}
	return s.Broker.Publish(ctx, pubsub.RoomTopic(code), msg)
}

// Disconnect removes the socket's member from each of the given rooms and
// broadcasts the updated member list wherever a removal actually happened.
// A socket that never joined a room is a no-op.
func (s *Service) Disconnect(ctx context.Context, socketID string, roomCodes []string) {
	for _, code := range roomCodes {
		if _, err := s.Store.RemoveMemberBySocketID(code, socketID); err != nil {
			continue
		}
		if err := s.BroadcastMembers(ctx, code); err != nil {
			log.Printf("Failed to broadcast members for room %s after disconnect: %v", code, err)
		}
	}
}
