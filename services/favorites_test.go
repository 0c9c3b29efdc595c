package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dormhop/api"
)

func TestFavoritesSaveFailureLeavesSetUntouched(t *testing.T) {
	b := newFakeBackend()
	b.savedIDs = []int{5}
	b.saveErr = &api.ServerError{Op: "save room", StatusCode: 500, Message: "db down"}
	f := NewFavorites(b, nil, zap.NewNop())
	require.NoError(t, f.Load(context.Background()))

	saved, err := f.ToggleSave(context.Background(), 7)

	require.Error(t, err)
	assert.False(t, saved)
	assert.Equal(t, map[int]struct{}{5: {}}, f.IDs())
	assert.Equal(t, "Failed to update saved rooms: 500 db down", f.Error())
	assert.False(t, f.Pending(7))
}

func TestFavoritesAppliesOnlyAfterConfirmation(t *testing.T) {
	b := newFakeBackend()
	f := NewFavorites(b, nil, zap.NewNop())

	var seen []bool
	f.Subscribe(func() { seen = append(seen, f.IsSaved(3)) })

	saved, err := f.ToggleSave(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.True(t, f.IsSaved(3))
	assert.Equal(t, []bool{true}, seen)

	saved, err = f.ToggleSave(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.False(t, f.IsSaved(3))
	assert.Equal(t, 1, b.callCount("SaveRoom"))
	assert.Equal(t, 1, b.callCount("UnsaveRoom"))
}

func TestFavoritesSetSavedNoOpWhenAlreadyInState(t *testing.T) {
	b := newFakeBackend()
	b.savedIDs = []int{1}
	f := NewFavorites(b, nil, zap.NewNop())
	require.NoError(t, f.Load(context.Background()))

	require.NoError(t, f.SetSaved(context.Background(), 1, true))
	require.NoError(t, f.SetSaved(context.Background(), 2, false))
	assert.Zero(t, b.callCount("SaveRoom"))
	assert.Zero(t, b.callCount("UnsaveRoom"))
}

func TestFavoritesRejectsConcurrentMutationOfSameRoom(t *testing.T) {
	gate := make(chan struct{})
	src := &blockingSaved{fakeBackend: newFakeBackend(), gate: gate}
	f := NewFavorites(src, nil, zap.NewNop())

	done := make(chan error)
	go func() { done <- f.SetSaved(context.Background(), 4, true) }()
	require.Eventually(t, func() bool { return f.Pending(4) }, time.Second, time.Millisecond)

	assert.ErrorIs(t, f.SetSaved(context.Background(), 4, true), ErrMutationInFlight)

	close(gate)
	require.NoError(t, <-done)
	assert.True(t, f.IsSaved(4))
}

func TestFavoritesLoadFailureKeepsPreviousSet(t *testing.T) {
	b := newFakeBackend()
	b.savedIDs = []int{1, 2}
	f := NewFavorites(b, nil, zap.NewNop())
	require.NoError(t, f.Load(context.Background()))

	b.savedErr = &api.NetworkError{Op: "list saved rooms"}
	require.Error(t, f.Load(context.Background()))

	assert.Len(t, f.IDs(), 2)
	assert.Equal(t, "Failed to load saved rooms: Network error, check your connection", f.Error())

	f.ClearError()
	assert.Empty(t, f.Error())
}

type blockingSaved struct {
	*fakeBackend
	gate chan struct{}
}

func (b *blockingSaved) SaveRoom(ctx context.Context, roomID int) error {
	<-b.gate
	return b.fakeBackend.SaveRoom(ctx, roomID)
}
