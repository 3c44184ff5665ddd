// Package memstore is the authoritative in-memory room table. Rooms live only
// for the lifetime of the process; an inactivity sweep is the sole path that
// deletes them.
package memstore

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/mzeile/inkroom/models"
	"github.com/mzeile/inkroom/store"
)

const (
	codeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	codeLength   = 6

	// The code space (36^6) dwarfs any plausible number of live rooms, so
	// hitting this bound means the random source is broken, not the table full.
	maxCodeAttempts = 50

	historyCap = 5000
)

type room struct {
	models.Room
	members []*models.Member
	history []models.Stroke
	canvas  models.CanvasSnapshot
}

// Store implements store.RoomStore with a mutex-guarded map keyed by room
// code. Every exported call is atomic.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*room)}
}

func (s *Store) CreateRoom(passwordHash string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.uniqueCodeLocked()
	if err != nil {
		return models.Room{}, err
	}

	now := time.Now().UnixMilli()
	r := &room{
		Room: models.Room{
			Code:         code,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			LastActive:   now,
		},
	}
	s.rooms[code] = r
	return r.Room, nil
}

func (s *Store) GetRoom(code string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return models.Room{}, store.ErrRoomNotFound
	}
	return r.Room, nil
}

func (s *Store) UpsertMember(code string, input store.MemberInput) (models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return models.Member{}, store.ErrRoomNotFound
	}

	now := time.Now().UnixMilli()
	r.LastActive = now

	for _, m := range r.members {
		if m.SocketID != input.SocketID {
			continue
		}
		m.ClientID = input.ClientID
		m.DisplayName = input.DisplayName
		m.Avatar = input.Avatar
		m.Status = models.StatusOnline
		m.LastSeen = now
		// Host is only ever upgraded here, never implicitly demoted.
		if input.IsHost {
			m.IsHost = true
		}
		return *m, nil
	}

	m := &models.Member{
		MemberID:    uuid.Must(uuid.NewV7()).String(),
		SocketID:    input.SocketID,
		ClientID:    input.ClientID,
		DisplayName: input.DisplayName,
		Avatar:      input.Avatar,
		IsHost:      input.IsHost || !hasHost(r),
		JoinedAt:    now,
		Status:      models.StatusOnline,
		LastSeen:    now,
	}
	r.members = append(r.members, m)
	return *m, nil
}

func (s *Store) RemoveMemberBySocketID(code, socketID string) (models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return models.Member{}, store.ErrRoomNotFound
	}

	idx := -1
	for i, m := range r.members {
		if m.SocketID == socketID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Member{}, store.ErrMemberNotFound
	}

	removed := *r.members[idx]
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	r.LastActive = time.Now().UnixMilli()

	if removed.IsHost && len(r.members) > 0 {
		promoteEarliest(r)
	}
	return removed, nil
}

// promoteEarliest hands host to the remaining member with the smallest
// JoinedAt; ties resolve to join order because the scan keeps the first hit.
func promoteEarliest(r *room) {
	next := r.members[0]
	for _, m := range r.members[1:] {
		if m.JoinedAt < next.JoinedAt {
			next = m
		}
	}
	next.IsHost = true
}

func (s *Store) MembersSnapshot(code string) ([]models.MemberSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return nil, store.ErrRoomNotFound
	}

	snapshot := make([]models.MemberSnapshot, 0, len(r.members))
	for _, m := range r.members {
		snapshot = append(snapshot, m.Snapshot())
	}
	return snapshot, nil
}

func (s *Store) AppendStroke(code string, stroke models.Stroke) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return store.ErrRoomNotFound
	}

	r.history = append(r.history, stroke)
	if len(r.history) > historyCap {
		r.history = r.history[len(r.history)-historyCap:]
	}
	r.LastActive = time.Now().UnixMilli()
	return nil
}

func (s *Store) RemoveStroke(code, strokeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return false, store.ErrRoomNotFound
	}

	removed := false
	for i, stroke := range r.history {
		if stroke.ID == strokeID {
			r.history = append(r.history[:i], r.history[i+1:]...)
			removed = true
			break
		}
	}

	// A structured snapshot may now be stale relative to history. A raster
	// snapshot is kept; clients falling back to it redraw strokes on top.
	if r.canvas.Kind == models.SnapshotStructured {
		r.canvas = models.CanvasSnapshot{}
	}
	r.LastActive = time.Now().UnixMilli()
	return removed, nil
}

func (s *Store) SaveSnapshot(code string, snap models.CanvasSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return store.ErrRoomNotFound
	}

	r.canvas = snap
	r.LastActive = time.Now().UnixMilli()
	return nil
}

func (s *Store) RecoveryState(code string) (models.CanvasSnapshot, []models.Stroke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[code]
	if !ok {
		return models.CanvasSnapshot{}, nil, store.ErrRoomNotFound
	}

	history := make([]models.Stroke, len(r.history))
	copy(history, r.history)
	return r.canvas, history, nil
}

func (s *Store) CleanupInactiveRooms(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	deleted := 0
	for code, r := range s.rooms {
		if now-r.LastActive > olderThan.Milliseconds() {
			delete(s.rooms, code)
			deleted++
		}
	}
	return deleted
}

func (s *Store) uniqueCodeLocked() (string, error) {
	buf := make([]byte, codeLength)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for i := range buf {
			buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
		}
		code := string(buf)
		if _, exists := s.rooms[code]; !exists {
			return code, nil
		}
	}
	return "", store.ErrCodeSpaceExhausted
}

func hasHost(r *room) bool {
	for _, m := range r.members {
		if m.IsHost {
			return true
		}
	}
	return false
}
