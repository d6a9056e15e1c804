package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"
	"github.com/summonlabs/summoner/internal/infra/discord"
)

// discordRepo implements ChatRepo over the Discord client
type discordRepo struct {
	client *discord.Client
}

// NewDiscordRepo creates a new Discord repository
func NewDiscordRepo(client *discord.Client) repo.ChatRepo {
	return &discordRepo{client: client}
}

// BotUserID returns the bot's own user ID
func (r *discordRepo) BotUserID() string {
	return r.client.BotUserID()
}

// MemberStatus returns the status from the first guild that has the member
func (r *discordRepo) MemberStatus(_ context.Context, userID string) (domain.RichStatus, error) {
	if r.client.GuildCount() == 0 {
		// Guild state not received yet
		return domain.StatusUnknown, nil
	}
	status, found := r.client.MemberStatus(userID)
	if !found {
		return domain.StatusOffline, nil
	}
	return domain.ParseRichStatus(status), nil
}

// LookupUser resolves a user for mentioning
func (r *discordRepo) LookupUser(ctx context.Context, userID string) (*domain.Member, error) {
	u, err := r.client.GetUser(ctx, userID)
	if err != nil {
		return nil, classifyError("lookup user", err)
	}
	return &domain.Member{UserID: u.ID, Name: u.Name}, nil
}

// FindTextChannel finds the first text channel named name (case-insensitive)
func (r *discordRepo) FindTextChannel(_ context.Context, name string) (*repo.Channel, bool) {
	for _, ch := range r.client.TextChannels() {
		if strings.EqualFold(ch.Name, name) {
			return &repo.Channel{ID: ch.ID, GuildID: ch.GuildID, Name: ch.Name}, true
		}
	}
	return nil, false
}

// SendText sends a text message
func (r *discordRepo) SendText(ctx context.Context, channelID, text string) (string, error) {
	id, err := r.client.SendText(ctx, channelID, text)
	if err != nil {
		return "", classifyError("send message", err)
	}
	return id, nil
}

// EditText replaces the content of a message
func (r *discordRepo) EditText(ctx context.Context, channelID, msgID, text string) error {
	if err := r.client.EditText(ctx, channelID, msgID, text); err != nil {
		return classifyError("edit message", err)
	}
	return nil
}

// DeleteMessage deletes a message
func (r *discordRepo) DeleteMessage(ctx context.Context, channelID, msgID string) error {
	if err := r.client.DeleteMessage(ctx, channelID, msgID); err != nil {
		return classifyError("delete message", err)
	}
	return nil
}

// AddReaction adds an emoji reaction
func (r *discordRepo) AddReaction(ctx context.Context, channelID, msgID, emoji string) error {
	if err := r.client.AddReaction(ctx, channelID, msgID, emoji); err != nil {
		return classifyError("add reaction", err)
	}
	return nil
}

// History returns channel history newest first
func (r *discordRepo) History(ctx context.Context, channelID string, limit int) ([]repo.ChatMessage, error) {
	msgs, err := r.client.History(ctx, channelID, limit)
	if err != nil {
		return nil, classifyError("read history", err)
	}
	result := make([]repo.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		result = append(result, repo.ChatMessage{
			ID:        m.ID,
			ChannelID: m.ChannelID,
			AuthorID:  m.AuthorID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return result, nil
}

// IsAdmin checks administrator permission in a channel
func (r *discordRepo) IsAdmin(ctx context.Context, userID, channelID string) (bool, error) {
	ok, err := r.client.IsAdmin(ctx, userID, channelID)
	if err != nil {
		return false, classifyError("check permissions", err)
	}
	return ok, nil
}

// classifyError wraps platform errors with the repo sentinels so callers can use errors.Is
func classifyError(op string, err error) error {
	switch discord.ClassifyError(err) {
	case discord.ErrorForbidden:
		return fmt.Errorf("%s: %w: %v", op, repo.ErrForbidden, err)
	case discord.ErrorNotFound:
		return fmt.Errorf("%s: %w: %v", op, repo.ErrNotFound, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
