package store

import (
	"errors"
	"time"

	"github.com/mzeile/inkroom/models"
)

// MemberInput carries the fields needed to add or refresh a room member.
type MemberInput struct {
	SocketID    string
	ClientID    string
	DisplayName string
	Avatar      string
	IsHost      bool
}

// RoomStore owns the authoritative table of live rooms. Implementations must
// make every call atomic with respect to the others and update a room's
// LastActive timestamp on every mutating call.
type RoomStore interface {
	CreateRoom(passwordHash string) (models.Room, error)
	GetRoom(code string) (models.Room, error)

	// UpsertMember updates the member with the given socket id in place, or
	// inserts a new one. A new member becomes host iff the room currently has
	// no host; an existing member is never implicitly demoted.
	UpsertMember(code string, input MemberInput) (models.Member, error)

	// RemoveMemberBySocketID removes the member and, when the removed member
	// was host and others remain, promotes the remaining member with the
	// earliest JoinedAt.
	RemoveMemberBySocketID(code, socketID string) (models.Member, error)

	MembersSnapshot(code string) ([]models.MemberSnapshot, error)

	// AppendStroke appends to the room's history, evicting the oldest entry
	// once the history cap is exceeded.
	AppendStroke(code string, stroke models.Stroke) error

	// RemoveStroke removes the first history entry with the given id and
	// clears a structured canvas snapshot, which may now be stale relative to
	// history. It reports whether a stroke was actually removed.
	RemoveStroke(code, strokeID string) (bool, error)

	SaveSnapshot(code string, snap models.CanvasSnapshot) error

	// RecoveryState returns the stored snapshot and a copy of the history
	// log; callers send the snapshot when present, else the history.
	RecoveryState(code string) (models.CanvasSnapshot, []models.Stroke, error)

	// CleanupInactiveRooms deletes every room idle for longer than the given
	// duration and returns how many were deleted.
	CleanupInactiveRooms(olderThan time.Duration) int
}

var (
	ErrRoomNotFound       = errors.New("room does not exist")
	ErrMemberNotFound     = errors.New("member does not exist")
	ErrCodeSpaceExhausted = errors.New("room code space exhausted")
)
