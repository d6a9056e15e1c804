package usecase

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"
)

// StateUsecase owns the in-memory BotState and writes it through on every mutation
type StateUsecase struct {
	repo   repo.StateRepo
	logger *slog.Logger

	mu    sync.Mutex
	state domain.BotState
}

// NewStateUsecase creates a new state usecase
func NewStateUsecase(stateRepo repo.StateRepo, logger *slog.Logger) *StateUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateUsecase{
		repo:   stateRepo,
		logger: logger.With("component", "state"),
	}
}

// Load reads the persisted state
func (uc *StateUsecase) Load() error {
	state, err := uc.repo.Load()
	if err != nil {
		return err
	}
	uc.mu.Lock()
	uc.state = *state
	uc.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current state
func (uc *StateUsecase) Snapshot() domain.BotState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

// Update applies fn to the state and persists the whole state
func (uc *StateUsecase) Update(fn func(s *domain.BotState)) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	fn(&uc.state)
	if err := uc.repo.Save(&uc.state); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// Flush persists the current state unchanged
func (uc *StateUsecase) Flush() error {
	return uc.Update(func(*domain.BotState) {})
}
