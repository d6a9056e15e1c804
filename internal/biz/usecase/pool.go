package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"
)

// ErrEmptyPool is returned when no summoning message is loaded
var ErrEmptyPool = errors.New("message pool is empty")

// PoolUsecase keeps the message pool and the used set in memory
// The used set is written through to the repository on every change.
type PoolUsecase struct {
	repo   repo.MessageRepo
	logger *slog.Logger
	intn   func(n int) int

	mu       sync.Mutex
	messages []domain.Message
	used     map[int]struct{}
}

// NewPoolUsecase creates a new pool usecase
func NewPoolUsecase(messageRepo repo.MessageRepo, logger *slog.Logger) *PoolUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &PoolUsecase{
		repo:   messageRepo,
		logger: logger.With("component", "pool"),
		intn:   rand.IntN,
		used:   make(map[int]struct{}),
	}
}

// Load loads the pool (cache first, then flat sources) and the used set
func (uc *PoolUsecase) Load() error {
	msgs, err := uc.repo.LoadPool()
	if err != nil {
		return err
	}
	used, err := uc.repo.LoadUsed()
	if err != nil {
		return err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.messages = msgs
	uc.used = pruneUsed(used, msgs)

	phrases, haikus := domain.CountKinds(msgs)
	uc.logger.Info("message pool loaded", "total", len(msgs), "phrases", phrases, "haikus", haikus, "used", len(uc.used))
	return nil
}

// PickUnused returns a random message not yet used, resetting the used set when exhausted
func (uc *PoolUsecase) PickUnused() (domain.Message, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if len(uc.messages) == 0 {
		return domain.Message{}, ErrEmptyPool
	}

	available := make([]domain.Message, 0, len(uc.messages))
	for _, m := range uc.messages {
		if _, ok := uc.used[m.ID]; !ok {
			available = append(available, m)
		}
	}
	if len(available) == 0 {
		uc.logger.Info("all messages used, resetting used set")
		uc.used = make(map[int]struct{})
		available = uc.messages
	}

	msg := available[uc.intn(len(available))]
	uc.used[msg.ID] = struct{}{}
	if err := uc.repo.SaveUsed(uc.used); err != nil {
		// In-memory rotation stays correct; the file catches up on the next pick
		uc.logger.Error("failed to persist used set", "error", err)
	}
	return msg, nil
}

// Reload re-reads the flat sources, persists them as the pool and clears the used set
func (uc *PoolUsecase) Reload() (domain.PoolStats, error) {
	msgs, err := uc.repo.LoadSources()
	if err != nil {
		return domain.PoolStats{}, err
	}
	if err := uc.repo.SavePool(msgs); err != nil {
		return domain.PoolStats{}, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.messages = msgs
	uc.used = make(map[int]struct{})
	if err := uc.repo.SaveUsed(uc.used); err != nil {
		return domain.PoolStats{}, err
	}
	uc.logger.Info("message pool reloaded", "total", len(msgs))
	return uc.statsLocked(), nil
}

// ForceReload deletes the cached pool and used set files, then reloads
func (uc *PoolUsecase) ForceReload() (domain.PoolStats, error) {
	if err := uc.repo.DeleteCache(); err != nil {
		return domain.PoolStats{}, fmt.Errorf("delete cache: %w", err)
	}
	return uc.Reload()
}

// ResetUsed clears the used set
func (uc *PoolUsecase) ResetUsed() error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.used = make(map[int]struct{})
	return uc.repo.SaveUsed(uc.used)
}

// Stats summarizes the pool
func (uc *PoolUsecase) Stats() domain.PoolStats {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.statsLocked()
}

func (uc *PoolUsecase) statsLocked() domain.PoolStats {
	phrases, haikus := domain.CountKinds(uc.messages)
	return domain.PoolStats{
		Total:   len(uc.messages),
		Phrases: phrases,
		Haikus:  haikus,
		Used:    len(uc.used),
	}
}

// Sample returns the first n messages in pool order
func (uc *PoolUsecase) Sample(n int) []domain.Message {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if n > len(uc.messages) {
		n = len(uc.messages)
	}
	out := make([]domain.Message, n)
	copy(out, uc.messages[:n])
	return out
}

// pruneUsed drops ids that are no longer in the pool
func pruneUsed(used map[int]struct{}, msgs []domain.Message) map[int]struct{} {
	ids := make(map[int]struct{}, len(msgs))
	for _, m := range msgs {
		ids[m.ID] = struct{}{}
	}
	pruned := make(map[int]struct{}, len(used))
	for id := range used {
		if _, ok := ids[id]; ok {
			pruned[id] = struct{}{}
		}
	}
	return pruned
}
