package data

import (
	"log/slog"

	"github.com/summonlabs/summoner/internal/biz/repo"
	"github.com/summonlabs/summoner/internal/infra/discord"
)

// Repositories contains all repositories
type Repositories struct {
	Message repo.MessageRepo
	State   repo.StateRepo
	History repo.HistoryRepo
	Chat    repo.ChatRepo
}

// Paths locates every file the repositories persist to
type Paths struct {
	Messages  MessagePaths
	StateFile string
	HistoryDB string
}

// NewRepositories creates all repositories
func NewRepositories(
	discordClient *discord.Client,
	paths Paths,
	watchedUserID string,
	logger *slog.Logger,
) (*Repositories, error) {
	historyRepo, err := NewHistoryRepo(paths.HistoryDB)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Message: NewMessageRepo(paths.Messages, watchedUserID, logger),
		State:   NewStateRepo(paths.StateFile, logger),
		History: historyRepo,
		Chat:    NewDiscordRepo(discordClient),
	}, nil
}

// Close releases repositories holding resources
func (r *Repositories) Close() error {
	if r.History != nil {
		return r.History.Close()
	}
	return nil
}
