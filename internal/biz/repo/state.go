package repo

import "github.com/summonlabs/summoner/internal/biz/domain"

// StateRepo persists BotState as a whole
type StateRepo interface {
	Load() (*domain.BotState, error)
	Save(state *domain.BotState) error
}
