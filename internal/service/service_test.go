package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"arena-ladder/internal/config"
	"arena-ladder/internal/database"
	"arena-ladder/internal/domain"
	"arena-ladder/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db      *sql.DB
	players *PlayerService
	matches *MatchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "ladder.db")}
	logger := zerolog.Nop()

	db, err := database.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	playerRepo := repository.NewPlayerRepository(db, logger)
	matchupRepo := repository.NewMatchupRepository(db, logger)
	historyRepo := repository.NewRankHistoryRepository(db, logger)
	ranker := NewReranker(playerRepo, logger)

	return &testEnv{
		db:      db,
		players: NewPlayerService(db, playerRepo, historyRepo, ranker, logger),
		matches: NewMatchService(db, playerRepo, matchupRepo, historyRepo, ranker, logger),
	}
}

// createPlayer is a shorthand that fails the test on error.
func (e *testEnv) createPlayer(t *testing.T, name string, points int) *domain.Player {
	t.Helper()
	p, err := e.players.Create(context.Background(), name, points)
	require.NoError(t, err)
	return p
}

func (e *testEnv) getPlayer(t *testing.T, id int64) *domain.Player {
	t.Helper()
	p, err := e.players.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

// requireDenseRanks asserts the active set holds exactly ranks 1..N.
func requireDenseRanks(t *testing.T, e *testEnv) {
	t.Helper()
	dir, err := e.players.List(context.Background())
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, p := range dir.Active {
		require.False(t, seen[p.Rank], "duplicate rank %d", p.Rank)
		seen[p.Rank] = true
	}
	for r := 1; r <= len(dir.Active); r++ {
		require.True(t, seen[r], "missing rank %d", r)
	}
}
