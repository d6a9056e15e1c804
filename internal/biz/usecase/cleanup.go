package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/summonlabs/summoner/internal/biz/repo"
)

// ErrConfirmationTimeout is returned when a destructive command is not confirmed in time
var ErrConfirmationTimeout = errors.New("confirmation timed out")

// ReactionWaiter blocks until a given user adds a given emoji to a message
// Returns ctx.Err() if the context ends first.
type ReactionWaiter interface {
	WaitReaction(ctx context.Context, channelID, messageID, userID, emoji string) error
}

// CleanupConfig configures bot message cleanup
type CleanupConfig struct {
	DeletePause    time.Duration // pause between deletes
	ConfirmTimeout time.Duration // how long to wait for a confirmation reaction
}

// DefaultCleanupConfig returns the default cleanup settings
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		DeletePause:    500 * time.Millisecond,
		ConfirmTimeout: 30 * time.Second,
	}
}

// CleanupUsecase deletes the bot's own messages from a channel
type CleanupUsecase struct {
	chat   repo.ChatRepo
	waiter ReactionWaiter
	config CleanupConfig
	logger *slog.Logger
}

// NewCleanupUsecase creates a new cleanup usecase
func NewCleanupUsecase(chat repo.ChatRepo, waiter ReactionWaiter, config CleanupConfig, logger *slog.Logger) *CleanupUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupUsecase{
		chat:   chat,
		waiter: waiter,
		config: config,
		logger: logger.With("component", "cleanup"),
	}
}

// DeleteBotMessages deletes every bot message among the last scanLimit messages except the newest one
// scanLimit <= 0 scans the whole channel. Returns how many messages were deleted.
func (uc *CleanupUsecase) DeleteBotMessages(ctx context.Context, channelID string, scanLimit int) (int, error) {
	history, err := uc.chat.History(ctx, channelID, scanLimit)
	if err != nil {
		return 0, fmt.Errorf("read channel history: %w", err)
	}

	botID := uc.chat.BotUserID()
	var own []repo.ChatMessage
	for _, m := range history {
		if m.AuthorID == botID {
			own = append(own, m)
		}
	}
	if len(own) <= 1 {
		return 0, nil
	}

	sort.SliceStable(own, func(i, j int) bool {
		return own[i].CreatedAt.After(own[j].CreatedAt)
	})

	deleted := 0
	for _, m := range own[1:] {
		err := uc.chat.DeleteMessage(ctx, channelID, m.ID)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, repo.ErrNotFound):
			// already gone
		case errors.Is(err, repo.ErrForbidden):
			return deleted, err
		default:
			uc.logger.Error("error deleting message", "message_id", m.ID, "error", err)
		}

		if err := sleepCtx(ctx, uc.config.DeletePause); err != nil {
			return deleted, err
		}
	}

	uc.logger.Info("deleted bot messages", "channel_id", channelID, "count", deleted)
	return deleted, nil
}

// AwaitConfirmation waits for userID to react with emoji on the message
func (uc *CleanupUsecase) AwaitConfirmation(ctx context.Context, channelID, messageID, userID, emoji string) error {
	waitCtx, cancel := context.WithTimeout(ctx, uc.config.ConfirmTimeout)
	defer cancel()

	err := uc.waiter.WaitReaction(waitCtx, channelID, messageID, userID, emoji)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return ErrConfirmationTimeout
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
