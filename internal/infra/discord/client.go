// Package discord wraps the discordgo gateway session for the rest of the bot.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Message represents a received Discord message
type Message struct {
	ID          string
	ChannelID   string
	GuildID     string
	AuthorID    string
	AuthorName  string
	AuthorIsBot bool
	Content     string
	MentionIDs  []string // Mentioned user IDs, in message order
	CreatedAt   time.Time
}

// PresenceEvent is a presence change for one member in one guild
type PresenceEvent struct {
	GuildID string
	UserID  string
	Status  string // online, idle, dnd, invisible, offline
}

// ReactionEvent is a reaction added to a message
type ReactionEvent struct {
	ChannelID string
	MessageID string
	UserID    string
	Emoji     string
}

// TextChannel is a guild text channel known to the session state
type TextChannel struct {
	ID      string
	GuildID string
	Name    string
}

// HistoryMessage is a message read from channel history
type HistoryMessage struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// User is a resolved Discord user
type User struct {
	ID   string
	Name string
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// PresenceHandler is the callback for presence updates
type PresenceHandler func(ev *PresenceEvent)

// ReactionHandler is the callback for added reactions
type ReactionHandler func(ev *ReactionEvent)

// ReadyHandler is called once the gateway session is ready and guild state is populated
type ReadyHandler func()

// Client is the Discord API client
type Client struct {
	token   string
	session *discordgo.Session
	logger  *slog.Logger

	mu         sync.RWMutex
	onMessage  MessageHandler
	onPresence PresenceHandler
	onReaction ReactionHandler
	onReady    ReadyHandler
	readyOnce  sync.Once
}

// NewClient creates a new Discord client
func NewClient(token string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent
	session.StateEnabled = true
	session.State.TrackPresences = true
	session.State.TrackMembers = true

	return &Client{
		token:   token,
		session: session,
		logger:  logger.With("component", "discord"),
	}, nil
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = handler
}

// OnPresence sets the presence handler
func (c *Client) OnPresence(handler PresenceHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPresence = handler
}

// OnReaction sets the reaction handler
func (c *Client) OnReaction(handler ReactionHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReaction = handler
}

// OnReady sets the ready handler, called once per process
func (c *Client) OnReady(handler ReadyHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReady = handler
}

// Start opens the gateway connection
// Event handlers are registered before opening so no early event is lost.
func (c *Client) Start() error {
	c.session.AddHandler(c.handleReady)
	c.session.AddHandler(c.handleMessageCreate)
	c.session.AddHandler(c.handlePresenceUpdate)
	c.session.AddHandler(c.handleReactionAdd)

	c.logger.Info("opening gateway connection")
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Stop closes the gateway connection
func (c *Client) Stop() error {
	return c.session.Close()
}

// BotUserID returns the bot's own user ID, empty before ready
func (c *Client) BotUserID() string {
	c.session.State.RLock()
	defer c.session.State.RUnlock()
	if c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

func (c *Client) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	c.logger.Info("connected", "user", r.User.Username, "guilds", len(r.Guilds))

	c.mu.RLock()
	handler := c.onReady
	c.mu.RUnlock()
	if handler == nil {
		return
	}
	// Guild state arrives in GUILD_CREATE after READY; give it a moment before the status scan.
	c.readyOnce.Do(func() {
		go func() {
			time.Sleep(3 * time.Second)
			handler()
		}()
	})
}

func (c *Client) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	msg := &Message{
		ID:          m.ID,
		ChannelID:   m.ChannelID,
		GuildID:     m.GuildID,
		AuthorID:    m.Author.ID,
		AuthorName:  m.Author.Username,
		AuthorIsBot: m.Author.Bot,
		Content:     m.Content,
		CreatedAt:   m.Timestamp,
	}
	for _, u := range m.Mentions {
		msg.MentionIDs = append(msg.MentionIDs, u.ID)
	}

	c.mu.RLock()
	handler := c.onMessage
	c.mu.RUnlock()
	if handler != nil {
		handler(msg)
	}
}

func (c *Client) handlePresenceUpdate(_ *discordgo.Session, p *discordgo.PresenceUpdate) {
	if p.User == nil {
		return
	}
	ev := &PresenceEvent{
		GuildID: p.GuildID,
		UserID:  p.User.ID,
		Status:  string(p.Status),
	}

	c.mu.RLock()
	handler := c.onPresence
	c.mu.RUnlock()
	if handler != nil {
		handler(ev)
	}
}

func (c *Client) handleReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.MessageReaction == nil {
		return
	}
	ev := &ReactionEvent{
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
	}

	c.mu.RLock()
	handler := c.onReaction
	c.mu.RUnlock()
	if handler != nil {
		handler(ev)
	}
}

// MemberStatus scans guilds in state order for the user and returns the first match's status
// found is false when no guild has the member.
func (c *Client) MemberStatus(userID string) (status string, found bool) {
	for _, guildID := range c.guildIDs() {
		if _, err := c.session.State.Member(guildID, userID); err != nil {
			continue
		}
		presence, err := c.session.State.Presence(guildID, userID)
		if err != nil || presence == nil {
			// Discord does not send presences for offline members.
			return string(discordgo.StatusOffline), true
		}
		return string(presence.Status), true
	}
	return "", false
}

// GetUser resolves a user from state, falling back to the REST API
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	for _, guildID := range c.guildIDs() {
		if m, err := c.session.State.Member(guildID, userID); err == nil && m.User != nil {
			return &User{ID: m.User.ID, Name: displayName(m)}, nil
		}
	}
	u, err := c.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &User{ID: u.ID, Name: u.Username}, nil
}

// TextChannels lists text channels, guilds in state order and channels by position
func (c *Client) TextChannels() []TextChannel {
	c.session.State.RLock()
	defer c.session.State.RUnlock()

	var result []TextChannel
	for _, g := range c.session.State.Guilds {
		var channels []*discordgo.Channel
		for _, ch := range g.Channels {
			if ch.Type == discordgo.ChannelTypeGuildText {
				channels = append(channels, ch)
			}
		}
		sort.SliceStable(channels, func(i, j int) bool {
			return channels[i].Position < channels[j].Position
		})
		for _, ch := range channels {
			result = append(result, TextChannel{ID: ch.ID, GuildID: g.ID, Name: ch.Name})
		}
	}
	return result
}

// SendText sends a text message
func (c *Client) SendText(ctx context.Context, channelID, text string) (string, error) {
	msg, err := c.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// EditText edits a message's content
func (c *Client) EditText(ctx context.Context, channelID, msgID, text string) error {
	_, err := c.session.ChannelMessageEdit(channelID, msgID, text, discordgo.WithContext(ctx))
	return err
}

// DeleteMessage deletes a message
func (c *Client) DeleteMessage(ctx context.Context, channelID, msgID string) error {
	return c.session.ChannelMessageDelete(channelID, msgID, discordgo.WithContext(ctx))
}

// AddReaction adds an emoji reaction to a message
func (c *Client) AddReaction(ctx context.Context, channelID, msgID, emoji string) error {
	return c.session.MessageReactionAdd(channelID, msgID, emoji, discordgo.WithContext(ctx))
}

// maxHistoryPage is the API limit for one history request
const maxHistoryPage = 100

// History pages backwards through a channel, newest first
// limit <= 0 reads the whole channel.
func (c *Client) History(ctx context.Context, channelID string, limit int) ([]HistoryMessage, error) {
	var result []HistoryMessage
	beforeID := ""
	for {
		page := maxHistoryPage
		if limit > 0 && limit-len(result) < page {
			page = limit - len(result)
		}
		if page <= 0 {
			break
		}

		msgs, err := c.session.ChannelMessages(channelID, page, beforeID, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return result, err
		}
		for _, m := range msgs {
			authorID := ""
			if m.Author != nil {
				authorID = m.Author.ID
			}
			result = append(result, HistoryMessage{
				ID:        m.ID,
				ChannelID: m.ChannelID,
				AuthorID:  authorID,
				Content:   m.Content,
				CreatedAt: m.Timestamp,
			})
		}
		if len(msgs) < page {
			break
		}
		beforeID = msgs[len(msgs)-1].ID

		if err := ctx.Err(); err != nil {
			return result, err
		}
	}
	return result, nil
}

// IsAdmin checks the administrator permission of a user in a channel
func (c *Client) IsAdmin(ctx context.Context, userID, channelID string) (bool, error) {
	perms, err := c.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return false, err
	}
	return perms&discordgo.PermissionAdministrator != 0, nil
}

// GuildCount returns the number of guilds in session state
func (c *Client) GuildCount() int {
	c.session.State.RLock()
	defer c.session.State.RUnlock()
	return len(c.session.State.Guilds)
}

func (c *Client) guildIDs() []string {
	c.session.State.RLock()
	defer c.session.State.RUnlock()
	ids := make([]string, 0, len(c.session.State.Guilds))
	for _, g := range c.session.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

func displayName(m *discordgo.Member) string {
	if strings.TrimSpace(m.Nick) != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

// ErrorKind classifies a REST error
type ErrorKind int

const (
	ErrorOther ErrorKind = iota
	ErrorForbidden
	ErrorNotFound
)

// ClassifyError maps discordgo REST errors to forbidden / not found
func ClassifyError(err error) ErrorKind {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return ErrorOther
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return ErrorForbidden
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownUser:
			return ErrorNotFound
		}
	}
	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case 403:
			return ErrorForbidden
		case 404:
			return ErrorNotFound
		}
	}
	return ErrorOther
}
