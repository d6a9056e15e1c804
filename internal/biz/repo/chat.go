package repo

import (
	"context"
	"time"

	"github.com/summonlabs/summoner/internal/biz/domain"
)

// Channel is a text channel the bot can see
type Channel struct {
	ID      string
	GuildID string
	Name    string
}

// ChatMessage is a message read from channel history
type ChatMessage struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// ChatRepo is the chat platform interface
// Guild and channel iteration order is the platform's order and must be stable.
type ChatRepo interface {
	// BotUserID returns the bot's own user ID
	BotUserID() string

	// MemberStatus returns the watched user's status from the first guild that has the member
	// Returns StatusOffline if no guild has the member, StatusUnknown before any guild state is known.
	MemberStatus(ctx context.Context, userID string) (domain.RichStatus, error)

	// LookupUser resolves a user for mentioning
	LookupUser(ctx context.Context, userID string) (*domain.Member, error)

	// FindTextChannel finds the first text channel named name (case-insensitive) across guilds
	FindTextChannel(ctx context.Context, name string) (*Channel, bool)

	// SendText sends a text message and returns the platform message ID
	SendText(ctx context.Context, channelID, text string) (string, error)

	// EditText replaces the content of a message
	EditText(ctx context.Context, channelID, msgID, text string) error

	// DeleteMessage deletes a message
	DeleteMessage(ctx context.Context, channelID, msgID string) error

	// AddReaction adds an emoji reaction
	AddReaction(ctx context.Context, channelID, msgID, emoji string) error

	// History returns up to limit messages newest first; limit <= 0 means the whole channel
	History(ctx context.Context, channelID string, limit int) ([]ChatMessage, error)

	// IsAdmin checks whether a user holds administrator permission in a channel
	IsAdmin(ctx context.Context, userID, channelID string) (bool, error)
}
