package biz

import (
	"fmt"
	"log/slog"

	"github.com/summonlabs/summoner/internal/biz/repo"
	"github.com/summonlabs/summoner/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Pool    *usecase.PoolUsecase
	State   *usecase.StateUsecase
	Summon  *usecase.SummonUsecase
	Cleanup *usecase.CleanupUsecase
}

// Repos are the repositories the usecases run on
type Repos struct {
	Message repo.MessageRepo
	State   repo.StateRepo
	History repo.HistoryRepo
	Chat    repo.ChatRepo
}

// NewUsecases creates all usecases and loads the message pool and bot state
func NewUsecases(
	repos Repos,
	waiter usecase.ReactionWaiter,
	summonCfg usecase.SummonConfig,
	cleanupCfg usecase.CleanupConfig,
	logger *slog.Logger,
) (*Usecases, error) {
	pool := usecase.NewPoolUsecase(repos.Message, logger)
	if err := pool.Load(); err != nil {
		return nil, fmt.Errorf("load message pool: %w", err)
	}
	state := usecase.NewStateUsecase(repos.State, logger)
	if err := state.Load(); err != nil {
		return nil, fmt.Errorf("load bot state: %w", err)
	}

	return &Usecases{
		Pool:    pool,
		State:   state,
		Summon:  usecase.NewSummonUsecase(pool, state, repos.Chat, repos.History, summonCfg, logger),
		Cleanup: usecase.NewCleanupUsecase(repos.Chat, waiter, cleanupCfg, logger),
	}, nil
}
