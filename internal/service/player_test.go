package service

import (
	"context"
	"testing"

	"arena-ladder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlayerSlotsByPoints(t *testing.T) {
	e := newTestEnv(t)

	a := e.createPlayer(t, "Alice", 100)
	b := e.createPlayer(t, "Bob", 50)
	assert.Equal(t, 1, a.Rank)
	assert.Equal(t, 2, b.Rank)

	// a newcomer with more points than everyone lands at the top
	c := e.createPlayer(t, "Cara", 200)
	assert.Equal(t, 1, c.Rank)
	assert.Equal(t, 200, c.PeakPoints)
	assert.Equal(t, 2, e.getPlayer(t, a.ID).Rank)
	assert.Equal(t, 3, e.getPlayer(t, b.ID).Rank)
	requireDenseRanks(t, e)
}

func TestCreatePlayerValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.players.Create(ctx, "   ", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	p, err := e.players.Create(ctx, "  Dana  ", 0)
	require.NoError(t, err)
	assert.Equal(t, "Dana", p.Name)
	assert.Equal(t, 0, p.PeakPoints)
}

func TestUpdatePointsResweeps(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a := e.createPlayer(t, "Alice", 100)
	b := e.createPlayer(t, "Bob", 50)

	pts := 150
	updated, err := e.players.Update(ctx, b.ID, &PlayerPatch{Points: &pts})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Rank)
	assert.Equal(t, 150, updated.PeakPoints)
	assert.Equal(t, 2, e.getPlayer(t, a.ID).Rank)
	requireDenseRanks(t, e)
}

func TestUpdateNameOnlySkipsSweep(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a := e.createPlayer(t, "Alice", 100)
	e.createPlayer(t, "Bob", 50)

	name := "Alicia"
	updated, err := e.players.Update(ctx, a.ID, &PlayerPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Name)
	assert.Equal(t, 1, updated.Rank)
}

func TestUpdateValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a := e.createPlayer(t, "Alice", 100)

	blank := "  "
	_, err := e.players.Update(ctx, a.ID, &PlayerPatch{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrValidation)

	neg := -1
	_, err = e.players.Update(ctx, a.ID, &PlayerPatch{Wins: &neg})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.players.Update(ctx, a.ID, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	pts := 10
	_, err = e.players.Update(ctx, 9999, &PlayerPatch{Points: &pts})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetireFlipResweeps(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a := e.createPlayer(t, "Alice", 100)
	b := e.createPlayer(t, "Bob", 50)
	c := e.createPlayer(t, "Cara", 25)

	retired := true
	_, err := e.players.Update(ctx, a.ID, &PlayerPatch{IsRetired: &retired})
	require.NoError(t, err)

	// remaining actives close the gap
	assert.Equal(t, 1, e.getPlayer(t, b.ID).Rank)
	assert.Equal(t, 2, e.getPlayer(t, c.ID).Rank)
	requireDenseRanks(t, e)

	dir, err := e.players.List(ctx)
	require.NoError(t, err)
	require.Len(t, dir.Active, 2)
	require.Len(t, dir.Retired, 1)
	assert.Equal(t, a.ID, dir.Retired[0].ID)
	assert.Equal(t, "Hall of Famer", dir.Retired[0].Title)

	// un-retiring puts the player back on the board
	active := false
	_, err = e.players.Update(ctx, a.ID, &PlayerPatch{IsRetired: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, e.getPlayer(t, a.ID).Rank)
	requireDenseRanks(t, e)
}

func TestRetiredOrderedByPeakPoints(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a := e.createPlayer(t, "Alice", 100)
	b := e.createPlayer(t, "Bob", 200)

	// cut Bob's current points below Alice's; his peak stays at 200
	low := 10
	_, err := e.players.Update(ctx, b.ID, &PlayerPatch{Points: &low})
	require.NoError(t, err)

	retired := true
	_, err = e.players.Update(ctx, a.ID, &PlayerPatch{IsRetired: &retired})
	require.NoError(t, err)
	_, err = e.players.Update(ctx, b.ID, &PlayerPatch{IsRetired: &retired})
	require.NoError(t, err)

	dir, err := e.players.List(ctx)
	require.NoError(t, err)
	require.Len(t, dir.Retired, 2)
	assert.Equal(t, b.ID, dir.Retired[0].ID)
	assert.Equal(t, a.ID, dir.Retired[1].ID)
}

func TestDeletePlayerKeepsRanksDense(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	e.createPlayer(t, "Alice", 100)
	b := e.createPlayer(t, "Bob", 50)
	c := e.createPlayer(t, "Cara", 25)

	deleted, err := e.players.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 2, e.getPlayer(t, c.ID).Rank)
	requireDenseRanks(t, e)

	deleted, err = e.players.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestForcedRerankRepairsRanks(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a := e.createPlayer(t, "Alice", 100)
	e.createPlayer(t, "Bob", 50)

	// corrupt the stored rank directly, then ask for a repair sweep
	_, err := e.db.Exec(`UPDATE players SET rank = 42 WHERE id = ?`, a.ID)
	require.NoError(t, err)

	require.NoError(t, e.players.Rerank(ctx))
	assert.Equal(t, 1, e.getPlayer(t, a.ID).Rank)
	requireDenseRanks(t, e)
}

func TestHistoryUnknownPlayer(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.players.History(context.Background(), 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetDecoratesPlayer(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a := e.createPlayer(t, "Alice", 120)
	e.createPlayer(t, "Bob", 10)

	got, err := e.players.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Champion", got.Title)
	assert.Equal(t, "gold", got.Badge)

	_, err = e.players.Get(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
