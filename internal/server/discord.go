package server

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/infra/discord"
	"github.com/summonlabs/summoner/internal/service"
)

const seenTTL = 5 * time.Minute

// Gateway is the event source and connection lifecycle of the chat platform
type Gateway interface {
	OnMessage(handler discord.MessageHandler)
	OnPresence(handler discord.PresenceHandler)
	OnReaction(handler discord.ReactionHandler)
	OnReady(handler discord.ReadyHandler)
	Start() error
	Stop() error
}

// CommandHandler runs parsed chat commands
type CommandHandler interface {
	Handle(ctx context.Context, req *service.CommandRequest) error
}

// PresenceSink receives watched user presence
type PresenceSink interface {
	Init(ctx context.Context) (domain.RichStatus, error)
	OnPresence(userID string, status domain.RichStatus)
}

// Scheduler is the lifecycle of the summon loop
type Scheduler interface {
	Start(ctx context.Context)
	Stop()
}

// DiscordServer routes gateway events to the presence tracker, the command surface and reaction waiters
type DiscordServer struct {
	gateway   Gateway
	commands  CommandHandler
	presence  PresenceSink
	scheduler Scheduler
	waiters   *ReactionWaiters
	prefix    string
	logger    *slog.Logger

	ctx context.Context

	// Message deduplication cache, gateway resumes may replay events
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time
}

// NewDiscordServer creates a new Discord server
func NewDiscordServer(
	gateway Gateway,
	commands CommandHandler,
	presence PresenceSink,
	scheduler Scheduler,
	waiters *ReactionWaiters,
	prefix string,
	logger *slog.Logger,
) *DiscordServer {
	if logger == nil {
		logger = slog.Default()
	}
	if waiters == nil {
		waiters = NewReactionWaiters()
	}
	return &DiscordServer{
		gateway:   gateway,
		commands:  commands,
		presence:  presence,
		scheduler: scheduler,
		waiters:   waiters,
		prefix:    prefix,
		logger:    logger.With("component", "server"),
		ctx:       context.Background(),
		seenMsgs:  make(map[string]time.Time),
	}
}

// Start starts the scheduler and opens the gateway
// Handlers are bound before the connection opens.
func (s *DiscordServer) Start(ctx context.Context) error {
	s.ctx = ctx
	s.scheduler.Start(ctx)

	s.gateway.OnMessage(s.handleMessage)
	s.gateway.OnPresence(s.handlePresence)
	s.gateway.OnReaction(s.waiters.Dispatch)
	s.gateway.OnReady(s.handleReady)
	return s.gateway.Start()
}

// Stop stops the scheduler, waiting for its loop, then closes the gateway
func (s *DiscordServer) Stop() {
	s.scheduler.Stop()
	if err := s.gateway.Stop(); err != nil {
		s.logger.Warn("failed to close gateway", "error", err)
	}
}

func (s *DiscordServer) handleReady() {
	status, err := s.presence.Init(s.ctx)
	if err != nil {
		s.logger.Error("initial status check failed", "error", err)
		return
	}
	s.logger.Info("ready", "watched_status", status)
}

func (s *DiscordServer) handlePresence(ev *discord.PresenceEvent) {
	s.presence.OnPresence(ev.UserID, domain.ParseRichStatus(ev.Status))
}

// handleMessage parses prefixed commands; discordgo already runs each event on its own goroutine
func (s *DiscordServer) handleMessage(msg *discord.Message) {
	if msg.AuthorIsBot {
		return
	}
	name, args, ok := ParseCommand(s.prefix, msg.Content)
	if !ok {
		return
	}
	if s.isMessageSeen(msg.ID) {
		s.logger.Debug("duplicate message ignored", "message_id", msg.ID)
		return
	}
	s.markMessageSeen(msg.ID)

	req := &service.CommandRequest{
		Name:       name,
		Args:       args,
		ChannelID:  msg.ChannelID,
		MessageID:  msg.ID,
		AuthorID:   msg.AuthorID,
		MentionIDs: msg.MentionIDs,
	}
	if err := s.commands.Handle(s.ctx, req); err != nil {
		s.logger.Error("command error", "command", name, "author", msg.AuthorName, "error", err)
	}
}

// ParseCommand splits "<prefix>name arg..." into a lower-case name and its arguments
func ParseCommand(prefix, content string) (name string, args []string, ok bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func (s *DiscordServer) isMessageSeen(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	_, exists := s.seenMsgs[msgID]
	return exists
}

// markMessageSeen records msgID and drops records older than seenTTL
func (s *DiscordServer) markMessageSeen(msgID string) {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	now := time.Now()
	s.seenMsgs[msgID] = now

	cutoff := now.Add(-seenTTL)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}
