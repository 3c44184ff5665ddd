package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mzeile/inkroom/models"
	"github.com/mzeile/inkroom/profile"
	pubsubmocks "github.com/mzeile/inkroom/pubsub/mocks"
	"github.com/mzeile/inkroom/service"
	"github.com/mzeile/inkroom/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Helper to set up the service on a real in-memory store with a mock broker
func setupService(t *testing.T) (*service.Service, *memstore.Store, *pubsubmocks.MockBroker) {
	t.Helper()
	mockBroker := new(pubsubmocks.MockBroker)
	roomStore := memstore.NewStore()
	return service.NewService(roomStore, mockBroker), roomStore, mockBroker
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// capturePublishes records every broker publish so tests can decode them
func capturePublishes(mockBroker *pubsubmocks.MockBroker, published *[][]byte) {
	mockBroker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		*published = append(*published, args.Get(2).([]byte))
	})
}

func TestCreateRoom_SeatsCallerAsHost(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	result, err := svc.CreateRoom(ctx, "", profile.Input{DisplayName: "Alice", Avatar: "🦊", ClientID: "client-alice"}, "sock-a")
	require.NoError(t, err)

	assert.Len(t, result.RoomCode, 6)
	assert.True(t, result.Self.IsHost)
	assert.Equal(t, "Alice", result.Self.DisplayName)
	assert.Equal(t, "🦊", result.Self.Avatar)
	assert.Equal(t, "client-alice", result.Self.ClientID)
	assert.Equal(t, models.StatusOnline, result.Self.Status)
	require.Len(t, result.Members, 1)
	assert.Equal(t, result.Self.MemberID, result.Members[0].MemberID)
}

func TestCreateRoom_EmptyProfileSelfSanitizes(t *testing.T) {
	svc, _, _ := setupService(t)

	result, err := svc.CreateRoom(context.Background(), "", profile.Input{}, "sock-a")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Self.ClientID)
	assert.NotEmpty(t, result.Self.DisplayName)
	assert.NotEmpty(t, result.Self.Avatar)
}

func TestCreateRoom_PasswordIsHashed(t *testing.T) {
	svc, roomStore, _ := setupService(t)

	result, err := svc.CreateRoom(context.Background(), "secret", profile.Input{}, "sock-a")
	require.NoError(t, err)

	room, err := roomStore.GetRoom(result.RoomCode)
	require.NoError(t, err)
	assert.True(t, room.HasPassword())
	assert.NotContains(t, room.PasswordHash, "secret")
}

func TestJoinRoom_PasswordScenario(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, "secret", profile.Input{DisplayName: "Host"}, "sock-a")
	require.NoError(t, err)

	joined, err := svc.JoinRoom(ctx, created.RoomCode, "secret", profile.Input{DisplayName: "Guest"}, "sock-b")
	require.NoError(t, err)
	assert.False(t, joined.Self.IsHost)
	assert.Len(t, joined.Members, 2)

	_, err = svc.JoinRoom(ctx, created.RoomCode, "wrong", profile.Input{}, "sock-c")
	assert.ErrorIs(t, err, service.ErrInvalidPassword)
	assert.EqualError(t, err, "Invalid password")

	_, err = svc.JoinRoom(ctx, "zzzzzz", "secret", profile.Input{}, "sock-c")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	assert.EqualError(t, err, "Room not found")
}

func TestJoinRoom_UnprotectedRoomIgnoresPassword(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, "", profile.Input{}, "sock-a")
	require.NoError(t, err)

	_, err = svc.JoinRoom(ctx, created.RoomCode, "whatever", profile.Input{}, "sock-b")
	assert.NoError(t, err)
}

func TestJoinRoom_SameSocketDoesNotDuplicate(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, "", profile.Input{}, "sock-a")
	require.NoError(t, err)

	first, err := svc.JoinRoom(ctx, created.RoomCode, "", profile.Input{DisplayName: "Guest"}, "sock-b")
	require.NoError(t, err)

	second, err := svc.JoinRoom(ctx, created.RoomCode, "", profile.Input{DisplayName: "Guest Renamed"}, "sock-b")
	require.NoError(t, err)

	assert.Equal(t, first.Self.MemberID, second.Self.MemberID)
	assert.Equal(t, "Guest Renamed", second.Self.DisplayName)
	assert.Len(t, second.Members, 2)
}

func TestBroadcastMembers_PublishesSafeProjection(t *testing.T) {
	svc, _, mockBroker := setupService(t)
	ctx := context.Background()

	var published [][]byte
	capturePublishes(mockBroker, &published)

	created, err := svc.CreateRoom(ctx, "", profile.Input{DisplayName: "Alice"}, "sock-a")
	require.NoError(t, err)

	require.NoError(t, svc.BroadcastMembers(ctx, created.RoomCode))

	mockBroker.AssertCalled(t, "Publish", mock.Anything, "room:"+created.RoomCode, mock.Anything)
	require.Len(t, published, 1)

	var env envelope
	require.NoError(t, json.Unmarshal(published[0], &env))
	assert.Equal(t, service.EventMembers, env.Type)

	var data service.MembersData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Members, 1)
	assert.Equal(t, "Alice", data.Members[0].DisplayName)
	assert.True(t, data.Members[0].IsHost)

	// The socket id never leaves the server.
	assert.False(t, strings.Contains(string(published[0]), "sock-a"))
}

func TestBroadcastMembers_RoomMissing(t *testing.T) {
	svc, _, _ := setupService(t)

	err := svc.BroadcastMembers(context.Background(), "zzzzzz")
	assert.Error(t, err)
}

func TestDisconnect_PromotesNextHostAndBroadcasts(t *testing.T) {
	svc, roomStore, mockBroker := setupService(t)
	ctx := context.Background()

	var published [][]byte
	capturePublishes(mockBroker, &published)

	created, err := svc.CreateRoom(ctx, "", profile.Input{DisplayName: "A"}, "sock-a")
	require.NoError(t, err)
	_, err = svc.JoinRoom(ctx, created.RoomCode, "", profile.Input{DisplayName: "B"}, "sock-b")
	require.NoError(t, err)

	svc.Disconnect(ctx, "sock-a", []string{created.RoomCode})

	members, err := roomStore.MembersSnapshot(created.RoomCode)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "B", members[0].DisplayName)
	assert.True(t, members[0].IsHost)

	// The membership change reached the room topic, and the broadcast itself
	// carries the promoted host.
	require.NotEmpty(t, published)
	var env envelope
	require.NoError(t, json.Unmarshal(published[len(published)-1], &env))
	assert.Equal(t, service.EventMembers, env.Type)

	var data service.MembersData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Members, 1)
	assert.True(t, data.Members[0].IsHost)
}

func TestDisconnect_SocketWithoutMembershipIsNoOp(t *testing.T) {
	svc, _, mockBroker := setupService(t)

	svc.Disconnect(context.Background(), "sock-x", []string{"zzzzzz"})
	assert.Empty(t, mockBroker.Calls)
}
