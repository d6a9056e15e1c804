package domain

import (
	"fmt"
	"time"
)

// BotState is the persisted bot state, saved as a whole on every mutation
type BotState struct {
	LastMessageTime *time.Time `json:"last_message_time"`
	OfflineSince    *time.Time `json:"watched_offline_since"`
	LastKnownStatus RichStatus `json:"watched_status,omitempty"`
}

// MarkOffline records the start of an offline period
func (s *BotState) MarkOffline(now time.Time) {
	t := now
	s.OfflineSince = &t
	s.LastKnownStatus = StatusOffline
}

// MarkOnline clears the offline period
func (s *BotState) MarkOnline(status RichStatus) {
	s.OfflineSince = nil
	s.LastKnownStatus = status
}

// MarkSent records a successful summon send
func (s *BotState) MarkSent(now time.Time) {
	t := now
	s.LastMessageTime = &t
}

// OfflineFor returns how long the watched user has been offline, false if unknown
func (s *BotState) OfflineFor(now time.Time) (time.Duration, bool) {
	if s.OfflineSince == nil {
		return 0, false
	}
	return now.Sub(*s.OfflineSince), true
}

// FormatHoursMinutes formats a duration as "Xh Ym", or "Ym" when under an hour
func FormatHoursMinutes(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
