package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dormhop/api"
	"dormhop/models"
)

func TestKnockLifecycleRoundTrip(t *testing.T) {
	b := newFakeBackend()
	board := NewKnockBoard(b, nil, zap.NewNop())
	ctx := context.Background()

	var created models.Knock
	var sentAtCallback []int
	err := board.SendKnock(ctx, 9, func(k models.Knock) {
		created = k
		sentAtCallback = knockIDs(board.Sent())
	})
	require.NoError(t, err)
	assert.Equal(t, 9, created.ToRoom.ID)
	assert.Equal(t, []int{created.ID}, sentAtCallback)

	sent := board.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, models.KnockPending, sent[0].Status)
	assert.Equal(t, 9, sent[0].ToRoom.ID)
	assert.Nil(t, sent[0].Contacts)

	// The same knock arrives on the other side.
	b.received = append(b.received, models.Knock{ID: created.ID, ToRoom: models.Room{ID: 9}, Status: models.KnockPending})
	require.NoError(t, board.Load(ctx))
	require.Len(t, board.Received(), 1)

	require.NoError(t, board.AcceptKnock(ctx, created.ID))
	got := board.Received()[0]
	assert.True(t, got.IsAccepted())
	require.NotNil(t, got.Contacts)
	assert.Equal(t, "a@tamu.edu", got.Contacts.FromEmail)
	require.NotNil(t, got.AcceptedAt)

	mine := board.Sent()[0]
	assert.True(t, mine.IsAccepted())
	require.NotNil(t, mine.Contacts)
	assert.Equal(t, "b@tamu.edu", mine.Contacts.ToEmail)

	require.NoError(t, board.DeleteKnock(ctx, created.ID))
	assert.Empty(t, board.Sent())
	assert.Empty(t, board.Received())
	assert.Empty(t, board.Error())
}

func TestKnockLoadKeepsBothListsWhenOneFails(t *testing.T) {
	b := newFakeBackend()
	b.sent = []models.Knock{{ID: 1, Status: models.KnockPending}}
	b.received = []models.Knock{{ID: 2, Status: models.KnockPending}}
	board := NewKnockBoard(b, nil, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, board.Load(ctx))

	b.sent = append(b.sent, models.Knock{ID: 3, Status: models.KnockPending})
	b.receivedErr = &api.NetworkError{Op: "list received knocks"}
	require.Error(t, board.Load(ctx))

	assert.Equal(t, []int{1}, knockIDs(board.Sent()))
	assert.Equal(t, []int{2}, knockIDs(board.Received()))
	assert.Equal(t, "Failed to load knocks: Network error, check your connection", board.Error())
}

func TestKnockFailureLeavesStateAndSetsError(t *testing.T) {
	b := newFakeBackend()
	b.received = []models.Knock{{ID: 1, Status: models.KnockPending}}
	board := NewKnockBoard(b, nil, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, board.Load(ctx))
	loads := b.callCount("ListReceivedKnocks")

	b.acceptErr = &api.ServerError{Op: "accept knock", StatusCode: 403, Message: "Not your knock"}
	require.Error(t, board.AcceptKnock(ctx, 1))
	assert.Equal(t, "Accept failed: 403 Not your knock", board.Error())
	assert.Equal(t, models.KnockPending, board.Received()[0].Status)
	assert.Equal(t, loads, b.callCount("ListReceivedKnocks"))

	b.deleteErr = &api.NetworkError{Op: "delete knock"}
	require.Error(t, board.DeleteKnock(ctx, 1))
	assert.Equal(t, "Delete failed: Network error, check your connection", board.Error())
	assert.Len(t, board.Received(), 1)

	b.knockErr = &api.ServerError{Op: "send knock", StatusCode: 400, Message: "Cannot knock on your own room"}
	called := false
	require.Error(t, board.SendKnock(ctx, 9, func(models.Knock) { called = true }))
	assert.False(t, called)
	assert.Equal(t, "Failed to knock: 400 Cannot knock on your own room", board.Error())
}

func TestKnockSendRejectsInvalidRoom(t *testing.T) {
	b := newFakeBackend()
	board := NewKnockBoard(b, nil, zap.NewNop())

	require.Error(t, board.SendKnock(context.Background(), 0, nil))
	assert.Zero(t, b.callCount("SendKnock"))
}

func TestKnockLoadFailureKeepsLists(t *testing.T) {
	b := newFakeBackend()
	b.sent = []models.Knock{{ID: 1}}
	board := NewKnockBoard(b, nil, zap.NewNop())
	require.NoError(t, board.Load(context.Background()))

	b.listKnockErr = &api.ServerError{Op: "list sent knocks", StatusCode: 500}
	require.Error(t, board.Load(context.Background()))

	v := board.View()
	assert.Equal(t, []int{1}, knockIDs(v.Sent))
	assert.Equal(t, "Failed to load knocks: 500 Internal Server Error", v.Error)
	assert.False(t, v.Loading)
}

func TestKnockBoardPublishesViews(t *testing.T) {
	b := newFakeBackend()
	board := NewKnockBoard(b, nil, zap.NewNop())

	var views []KnockView
	stop := board.Subscribe(func(v KnockView) { views = append(views, v) })
	defer stop()

	require.NoError(t, board.SendKnock(context.Background(), 3, nil))

	require.NotEmpty(t, views)
	last := views[len(views)-1]
	assert.Len(t, last.Sent, 1)
	assert.False(t, last.Loading)
}
