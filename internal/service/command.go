package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"
	"github.com/summonlabs/summoner/internal/biz/usecase"
)

const (
	defaultCleanupLimit = 10
	maxCleanupLimit     = 50
	cleanupScanWindow   = 100
	confirmEmoji        = "✅"
	noticeLifetime      = 5 * time.Second
	debugSampleSize     = 3
	debugTextLimit      = 100
)

// CommandRequest is a parsed chat command
type CommandRequest struct {
	Name       string // command name without prefix, lower case
	Args       []string
	ChannelID  string
	MessageID  string // invoking message
	AuthorID   string
	MentionIDs []string
}

type commandHandler struct {
	privileged bool
	run        func(ctx context.Context, req *CommandRequest) error
}

// CommandService implements the chat command surface
type CommandService struct {
	pool      *usecase.PoolUsecase
	state     *usecase.StateUsecase
	summon    *usecase.SummonUsecase
	cleanup   *usecase.CleanupUsecase
	chat      repo.ChatRepo
	scheduler *SummonScheduler
	tracker   *PresenceTracker
	clock     Clock
	logger    *slog.Logger

	commands map[string]commandHandler
}

// NewCommandService creates a new command service
func NewCommandService(
	pool *usecase.PoolUsecase,
	state *usecase.StateUsecase,
	summon *usecase.SummonUsecase,
	cleanup *usecase.CleanupUsecase,
	chat repo.ChatRepo,
	scheduler *SummonScheduler,
	tracker *PresenceTracker,
	clock Clock,
	logger *slog.Logger,
) *CommandService {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &CommandService{
		pool:      pool,
		state:     state,
		summon:    summon,
		cleanup:   cleanup,
		chat:      chat,
		scheduler: scheduler,
		tracker:   tracker,
		clock:     clock,
		logger:    logger.With("component", "commands"),
	}
	s.commands = map[string]commandHandler{
		"summon":             {run: s.handleSummon},
		"summon_stats":       {run: s.handleStats},
		"cleanup":            {run: s.handleCleanup},
		"cleanup_all":        {run: s.handleCleanupAll},
		"watched_status":     {run: s.handleStatus},
		"quiet_hours":        {run: s.handleQuietHours},
		"reload_messages":    {privileged: true, run: s.handleReload},
		"force_csv_reload":   {privileged: true, run: s.handleForceReload},
		"debug_messages":     {privileged: true, run: s.handleDebug},
		"reset_summons":      {privileged: true, run: s.handleReset},
		"force_summon_check": {privileged: true, run: s.handleRecheck},
		"stop_summoning":     {privileged: true, run: s.handleStop},
	}
	return s
}

// Commands returns the known command names, sorted
func (s *CommandService) Commands() []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle runs a command; unknown commands are ignored
func (s *CommandService) Handle(ctx context.Context, req *CommandRequest) error {
	cmd, ok := s.commands[req.Name]
	if !ok {
		return nil
	}
	s.logger.Info("command", "name", req.Name, "author", req.AuthorID, "channel_id", req.ChannelID)

	if cmd.privileged {
		admin, err := s.chat.IsAdmin(ctx, req.AuthorID, req.ChannelID)
		if err != nil {
			s.logger.Warn("permission check failed", "command", req.Name, "error", err)
		}
		if !admin {
			return s.reply(ctx, req, "❌ You need administrator permission to use this command.")
		}
	}

	if err := cmd.run(ctx, req); err != nil {
		s.logger.Error("command failed", "name", req.Name, "error", err)
		return err
	}
	if cmd.privileged && req.Name != "debug_messages" {
		s.deleteInvocation(ctx, req)
	}
	return nil
}

func (s *CommandService) handleSummon(ctx context.Context, req *CommandRequest) error {
	target := ""
	if len(req.MentionIDs) > 0 {
		target = req.MentionIDs[0]
	} else if len(req.Args) > 0 {
		target = strings.Trim(req.Args[0], "<@!>")
	}

	_, err := s.Summon(ctx, target, req.ChannelID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrTargetNotFound):
		return s.reply(ctx, req, "❌ Could not find the target user!")
	case errors.Is(err, repo.ErrForbidden):
		return nil
	default:
		return err
	}
}

func (s *CommandService) handleStats(ctx context.Context, req *CommandRequest) error {
	return s.reply(ctx, req, FormatStats(s.Stats(ctx)))
}

func (s *CommandService) handleStatus(ctx context.Context, req *CommandRequest) error {
	report, err := s.Status(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return s.reply(ctx, req, "❌ Could not find the watched user!")
		}
		return err
	}
	return s.reply(ctx, req, FormatStatus(report))
}

func (s *CommandService) handleQuietHours(ctx context.Context, req *CommandRequest) error {
	return s.reply(ctx, req, FormatQuietHours(s.QuietHours()))
}

func (s *CommandService) handleCleanup(ctx context.Context, req *CommandRequest) error {
	limit := defaultCleanupLimit
	if len(req.Args) > 0 {
		n, err := strconv.Atoi(req.Args[0])
		if err != nil {
			return s.reply(ctx, req, "❌ Limit must be a number.")
		}
		limit = n
	}
	if limit > maxCleanupLimit {
		return s.reply(ctx, req, fmt.Sprintf("❌ Limit too high! Maximum %d messages at once.", maxCleanupLimit))
	}

	// The limit only gates the request; the scan always covers the last cleanupScanWindow messages
	deleted, err := s.cleanup.DeleteBotMessages(ctx, req.ChannelID, cleanupScanWindow)
	if err != nil {
		return s.replyCleanupError(ctx, req, "❌ Error deleting messages: %v", err)
	}

	if deleted > 0 {
		s.flashNotice(ctx, req.ChannelID, fmt.Sprintf("🗑️ Deleted %d bot messages (kept the latest one)!", deleted))
	} else if err := s.reply(ctx, req, "ℹ️ No bot messages found to delete."); err != nil {
		return err
	}
	s.deleteInvocation(ctx, req)
	return nil
}

func (s *CommandService) handleCleanupAll(ctx context.Context, req *CommandRequest) error {
	confirmID, err := s.chat.SendText(ctx, req.ChannelID,
		"⚠️ This will delete ALL bot messages except the latest one in this channel. React with ✅ to confirm (30 second timeout)")
	if err != nil {
		return s.replyCleanupError(ctx, req, "❌ Error during cleanup: %v", err)
	}
	if err := s.chat.AddReaction(ctx, req.ChannelID, confirmID, confirmEmoji); err != nil {
		s.logger.Warn("failed to add confirmation reaction", "error", err)
	}

	if err := s.cleanup.AwaitConfirmation(ctx, req.ChannelID, confirmID, req.AuthorID, confirmEmoji); err != nil {
		if errors.Is(err, usecase.ErrConfirmationTimeout) {
			return s.chat.EditText(ctx, req.ChannelID, confirmID, "❌ Cleanup cancelled (timeout)")
		}
		return err
	}
	if err := s.chat.DeleteMessage(ctx, req.ChannelID, confirmID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.logger.Warn("failed to delete confirmation message", "error", err)
	}

	deleted, err := s.cleanup.DeleteBotMessages(ctx, req.ChannelID, 0)
	if err != nil {
		return s.replyCleanupError(ctx, req, "❌ Error during cleanup: %v", err)
	}
	s.flashNotice(ctx, req.ChannelID, fmt.Sprintf("🗑️ Cleanup complete! Deleted %d bot messages (kept the latest one).", deleted))
	s.deleteInvocation(ctx, req)
	return nil
}

func (s *CommandService) replyCleanupError(ctx context.Context, req *CommandRequest, format string, err error) error {
	if errors.Is(err, repo.ErrForbidden) {
		return s.reply(ctx, req, "❌ Bot doesn't have permission to delete messages in this channel.")
	}
	s.logger.Error("cleanup failed", "error", err)
	return s.reply(ctx, req, fmt.Sprintf(format, err))
}

func (s *CommandService) handleReload(ctx context.Context, req *CommandRequest) error {
	report, err := s.Reload(false)
	if err != nil {
		return s.reply(ctx, req, fmt.Sprintf("❌ **Error reloading messages:** %v", err))
	}
	return s.reply(ctx, req, FormatReload(report))
}

func (s *CommandService) handleForceReload(ctx context.Context, req *CommandRequest) error {
	report, err := s.Reload(true)
	if err != nil {
		return s.reply(ctx, req, fmt.Sprintf("❌ **Error during force reload:** %v", err))
	}
	return s.reply(ctx, req, FormatReload(report))
}

func (s *CommandService) handleDebug(ctx context.Context, req *CommandRequest) error {
	return s.reply(ctx, req, FormatSample(s.pool.Sample(debugSampleSize)))
}

func (s *CommandService) handleReset(ctx context.Context, req *CommandRequest) error {
	if err := s.ResetUsed(); err != nil {
		return err
	}
	return s.reply(ctx, req, "🔄 **Summoning messages reset!** All messages are now available again.")
}

func (s *CommandService) handleRecheck(ctx context.Context, req *CommandRequest) error {
	report, err := s.Recheck(ctx)
	if err != nil {
		return err
	}
	return s.reply(ctx, req, FormatRecheck(report))
}

func (s *CommandService) handleStop(ctx context.Context, req *CommandRequest) error {
	s.StopScheduler()
	return s.reply(ctx, req, "🛑 **Automatic summoning stopped!** "+domain.MentionFor(s.summon.WatchedUserID())+" is safe... for now.")
}

func (s *CommandService) reply(ctx context.Context, req *CommandRequest, text string) error {
	_, err := s.chat.SendText(ctx, req.ChannelID, text)
	if errors.Is(err, repo.ErrForbidden) {
		s.logger.Warn("no permission to reply", "channel_id", req.ChannelID)
		return nil
	}
	return err
}

// flashNotice posts a notice and removes it after a few seconds
func (s *CommandService) flashNotice(ctx context.Context, channelID, text string) {
	id, err := s.chat.SendText(ctx, channelID, text)
	if err != nil {
		s.logger.Warn("failed to send notice", "error", err)
		return
	}
	if err := s.clock.Sleep(ctx, noticeLifetime); err != nil {
		return
	}
	if err := s.chat.DeleteMessage(ctx, channelID, id); err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.logger.Warn("failed to delete notice", "error", err)
	}
}

// deleteInvocation removes the invoking command message
func (s *CommandService) deleteInvocation(ctx context.Context, req *CommandRequest) {
	if req.MessageID == "" {
		return
	}
	err := s.chat.DeleteMessage(ctx, req.ChannelID, req.MessageID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.logger.Warn("error deleting command message", "error", err)
	}
}
