package mocks

import (
	"time"

	"github.com/mzeile/inkroom/models"
	"github.com/mzeile/inkroom/store"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateRoom(passwordHash string) (models.Room, error) {
	args := m.Called(passwordHash)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *MockStore) GetRoom(code string) (models.Room, error) {
	args := m.Called(code)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *MockStore) UpsertMember(code string, input store.MemberInput) (models.Member, error) {
	args := m.Called(code, input)
	return args.Get(0).(models.Member), args.Error(1)
}

func (m *MockStore) RemoveMemberBySocketID(code, socketID string) (models.Member, error) {
	args := m.Called(code, socketID)
	return args.Get(0).(models.Member), args.Error(1)
}

func (m *MockStore) MembersSnapshot(code string) ([]models.MemberSnapshot, error) {
	args := m.Called(code)
	var snapshot []models.MemberSnapshot
	if args.Get(0) != nil {
		snapshot = args.Get(0).([]models.MemberSnapshot)
	}
	return snapshot, args.Error(1)
}

func (m *MockStore) AppendStroke(code string, stroke models.Stroke) error {
	args := m.Called(code, stroke)
	return args.Error(0)
}

func (m *MockStore) RemoveStroke(code, strokeID string) (bool, error) {
	args := m.Called(code, strokeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) SaveSnapshot(code string, snap models.CanvasSnapshot) error {
	args := m.Called(code, snap)
	return args.Error(0)
}

func (m *MockStore) RecoveryState(code string) (models.CanvasSnapshot, []models.Stroke, error) {
	args := m.Called(code)
	var history []models.Stroke
	if args.Get(1) != nil {
		history = args.Get(1).([]models.Stroke)
	}
	return args.Get(0).(models.CanvasSnapshot), history, args.Error(2)
}

func (m *MockStore) CleanupInactiveRooms(olderThan time.Duration) int {
	args := m.Called(olderThan)
	return args.Int(0)
}
