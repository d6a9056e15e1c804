package repo

import (
	"github.com/summonlabs/summoner/internal/biz/domain"
)

// MessageRepo is the summoning message store interface
// Responsible for persisting the message pool and the used set (JSON files + flat CSV sources)
type MessageRepo interface {
	// LoadPool loads the cached pool, or the flat sources when no cache exists
	LoadPool() ([]domain.Message, error)

	// LoadSources reads the flat sources, ignoring any cached pool
	// Falls back to the built-in sample messages if neither source yields a row
	LoadSources() ([]domain.Message, error)

	// SavePool overwrites the cached pool
	SavePool(msgs []domain.Message) error

	// LoadUsed loads the used id set (empty if none persisted)
	LoadUsed() (map[int]struct{}, error)

	// SaveUsed overwrites the persisted used id set
	SaveUsed(used map[int]struct{}) error

	// DeleteCache removes the cached pool and used set files
	DeleteCache() error
}
