package service

import (
	"context"
	"sync"

	"arena-ladder/internal/domain"
	"arena-ladder/internal/ranking"
	"arena-ladder/internal/repository"

	"github.com/rs/zerolog"
)

// Reranker owns the single-writer discipline for rank sweeps. Every "read
// active set, sort, rewrite ranks" pass runs under mu so two concurrent
// sweeps can never interleave and produce a non-dense assignment. Per-player
// counter updates from a match run inside the same lock and transaction as
// the sweep they trigger.
type Reranker struct {
	mu      sync.Mutex
	players *repository.PlayerRepository
	logger  zerolog.Logger
}

func NewReranker(players *repository.PlayerRepository, logger zerolog.Logger) *Reranker {
	return &Reranker{players: players, logger: logger}
}

// sweep recomputes dense ranks over the active set using the given
// repository handle (normally bound to the caller's transaction). The caller
// must hold mu. Returns the active set in rank order.
func (r *Reranker) sweep(ctx context.Context, players *repository.PlayerRepository) ([]*domain.Player, error) {
	active, err := players.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	ranked := ranking.Standings(active)
	if err := players.UpdateRanks(ctx, ranked); err != nil {
		return nil, err
	}

	r.logger.Debug().Int("active_players", len(ranked)).Msg("rank sweep completed")
	return ranked, nil
}
