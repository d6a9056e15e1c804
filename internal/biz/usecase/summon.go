package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"
)

var (
	// ErrNotOffline aborts an automatic summon because the watched user is back
	ErrNotOffline = errors.New("watched user is not offline")

	// ErrQuietHours aborts an automatic summon inside the quiet-hours window
	ErrQuietHours = errors.New("quiet hours active")

	// ErrChannelNotFound means no destination channel exists in any guild
	ErrChannelNotFound = errors.New("destination channel not found")

	// ErrTargetNotFound means the manual summon target cannot be resolved
	ErrTargetNotFound = errors.New("target user not found")
)

// NotOfflineError carries the live status that aborted an automatic summon
// errors.Is(err, ErrNotOffline) holds for it.
type NotOfflineError struct {
	Status domain.RichStatus
}

func (e *NotOfflineError) Error() string {
	return fmt.Sprintf("watched user is %s", e.Status)
}

// Is matches ErrNotOffline
func (e *NotOfflineError) Is(target error) bool {
	return target == ErrNotOffline
}

// SummonConfig configures summon delivery
type SummonConfig struct {
	WatchedUserID string
	Channel       string // destination channel name, matched case-insensitively
	Quiet         domain.QuietHours
	Banners       domain.Banners
	Now           func() time.Time // defaults to time.Now
}

// SummonResult describes a delivered summon
type SummonResult struct {
	Message   domain.Message
	Text      string
	ChannelID string
	MessageID string
	Warned    bool // quiet-hours warning appended (manual only)
}

// SummonUsecase composes and delivers summons
type SummonUsecase struct {
	pool    *PoolUsecase
	state   *StateUsecase
	chat    repo.ChatRepo
	history repo.HistoryRepo
	config  SummonConfig
	logger  *slog.Logger
}

// NewSummonUsecase creates a new summon usecase
func NewSummonUsecase(
	pool *PoolUsecase,
	state *StateUsecase,
	chat repo.ChatRepo,
	history repo.HistoryRepo,
	config SummonConfig,
	logger *slog.Logger,
) *SummonUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &SummonUsecase{
		pool:    pool,
		state:   state,
		chat:    chat,
		history: history,
		config:  config,
		logger:  logger.With("component", "summon"),
	}
}

// QuietHours returns the configured window
func (uc *SummonUsecase) QuietHours() domain.QuietHours {
	return uc.config.Quiet
}

// WatchedUserID returns the watched user's ID
func (uc *SummonUsecase) WatchedUserID() string {
	return uc.config.WatchedUserID
}

// WatchedStatus queries the watched user's live status
func (uc *SummonUsecase) WatchedStatus(ctx context.Context) (domain.RichStatus, error) {
	return uc.chat.MemberStatus(ctx, uc.config.WatchedUserID)
}

// SendAuto delivers one automatic summon
// Returns ErrNotOffline when the watched user is no longer offline; the caller must stop summoning.
func (uc *SummonUsecase) SendAuto(ctx context.Context) (*SummonResult, error) {
	status, err := uc.WatchedStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("query watched status: %w", err)
	}
	if !status.IsOffline() {
		uc.logger.Info("watched user no longer offline, stopping summons", "status", status)
		return nil, &NotOfflineError{Status: status}
	}

	now := uc.config.Now()
	if uc.config.Quiet.IsSuppressed(now) {
		uc.logger.Info("attempted summon during quiet hours, skipping", "window", uc.config.Quiet.String())
		return nil, ErrQuietHours
	}

	channel, ok := uc.chat.FindTextChannel(ctx, uc.config.Channel)
	if !ok {
		uc.logger.Warn("destination channel not found in any guild", "channel", uc.config.Channel)
		return nil, ErrChannelNotFound
	}

	msg, err := uc.pool.PickUnused()
	if err != nil {
		return nil, err
	}

	snapshot := uc.state.Snapshot()
	offlineFor, known := snapshot.OfflineFor(now)
	text := uc.config.Banners.FormatAuto(msg, domain.MentionFor(uc.config.WatchedUserID), offlineFor, known)

	result, err := uc.deliver(ctx, channel, msg, text, false)
	if err != nil {
		return nil, err
	}

	sentAt := uc.config.Now()
	if err := uc.state.Update(func(s *domain.BotState) { s.MarkSent(sentAt) }); err != nil {
		uc.logger.Error("failed to persist last message time", "error", err)
	}
	return result, nil
}

// SendManual delivers a manual summon, ignoring presence and quiet hours
// targetUserID defaults to the watched user; channelID defaults to the destination channel.
func (uc *SummonUsecase) SendManual(ctx context.Context, targetUserID, channelID string) (*SummonResult, error) {
	if targetUserID == "" {
		targetUserID = uc.config.WatchedUserID
	}
	target, err := uc.chat.LookupUser(ctx, targetUserID)
	if err != nil {
		uc.logger.Warn("manual summon target not found", "user_id", targetUserID, "error", err)
		return nil, ErrTargetNotFound
	}

	channel := &repo.Channel{ID: channelID}
	if channelID == "" {
		var ok bool
		channel, ok = uc.chat.FindTextChannel(ctx, uc.config.Channel)
		if !ok {
			return nil, ErrChannelNotFound
		}
	}

	msg, err := uc.pool.PickUnused()
	if err != nil {
		return nil, err
	}

	text := uc.config.Banners.FormatManual(msg, domain.ReplaceMentions(msg.Text, target.FormatMention()))
	now := uc.config.Now()
	warned := false
	if uc.config.Quiet.IsSuppressed(now) {
		text += "\n\n" + uc.config.Banners.FormatQuietWarning(uc.config.Quiet, now)
		warned = true
	}

	result, err := uc.deliver(ctx, channel, msg, text, true)
	if err != nil {
		return nil, err
	}
	result.Warned = warned
	uc.logger.Info("manual summon", "target", target.FormatDisplay(), "summon_id", msg.ID)
	return result, nil
}

// deliver sends the text and records it in the history log
func (uc *SummonUsecase) deliver(ctx context.Context, channel *repo.Channel, msg domain.Message, text string, manual bool) (*SummonResult, error) {
	msgID, err := uc.chat.SendText(ctx, channel.ID, text)
	if err != nil {
		if errors.Is(err, repo.ErrForbidden) {
			uc.logger.Warn("no permission to send messages", "channel", channel.Name, "channel_id", channel.ID)
		} else {
			uc.logger.Error("error sending message", "channel_id", channel.ID, "error", err)
		}
		return nil, err
	}
	uc.logger.Info("sent summoning message", "summon_id", msg.ID, "kind", msg.Kind, "channel", channel.Name, "manual", manual)

	if uc.history != nil {
		rec := &domain.SummonRecord{
			MessageID: msgID,
			ChannelID: channel.ID,
			SummonID:  msg.ID,
			Kind:      msg.Kind,
			Manual:    manual,
			SentAt:    uc.config.Now(),
		}
		if err := uc.history.Record(ctx, rec); err != nil {
			uc.logger.Error("failed to record summon", "error", err)
		}
	}

	return &SummonResult{
		Message:   msg,
		Text:      text,
		ChannelID: channel.ID,
		MessageID: msgID,
	}, nil
}

// Counts returns the history log totals, zero counts when the log is unavailable
func (uc *SummonUsecase) Counts(ctx context.Context) domain.SummonCounts {
	if uc.history == nil {
		return domain.SummonCounts{}
	}
	counts, err := uc.history.Counts(ctx)
	if err != nil {
		uc.logger.Error("failed to read summon history", "error", err)
		return domain.SummonCounts{}
	}
	return counts
}
