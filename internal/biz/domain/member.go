package domain

import (
	"fmt"
	"regexp"
)

// Member represents a guild member (value object)
type Member struct {
	UserID string
	Name   string
}

// FormatMention formats the platform mention syntax
func (m *Member) FormatMention() string {
	return MentionFor(m.UserID)
}

// FormatDisplay formats for display
func (m *Member) FormatDisplay() string {
	return fmt.Sprintf("%s (user_id: %s)", m.Name, m.UserID)
}

// MentionFor formats a user ID as a mention
func MentionFor(userID string) string {
	return "<@" + userID + ">"
}

var mentionPattern = regexp.MustCompile(`<@!?\d+>`)

// ReplaceMentions replaces every user mention in text with the given mention
func ReplaceMentions(text, mention string) string {
	return mentionPattern.ReplaceAllLiteralString(text, mention)
}
