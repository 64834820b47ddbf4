package fx

import (
	"arena-ladder/internal/api"
	"arena-ladder/internal/auth"
	"arena-ladder/internal/config"
	"arena-ladder/internal/database"
	"arena-ladder/internal/logger"
	"arena-ladder/internal/repository"
	"arena-ladder/internal/server"
	"arena-ladder/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewMatchupRepository),
	fx.Provide(repository.NewRankHistoryRepository),
	fx.Provide(repository.NewUserRepository),
	// external prediction client
	fx.Provide(api.NewPredictClient),
	// svc
	fx.Provide(service.NewReranker),
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewMatchService),
	fx.Provide(auth.NewService),
	// server
	fx.Provide(server.NewLadderServer),
)
