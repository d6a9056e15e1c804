package data

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"
	"github.com/summonlabs/summoner/internal/fsstore"
)

// Accepted timestamp layouts; zone-less forms are read as local time
var stateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// stateFile is the on-disk form of BotState, timestamps kept as raw strings
type stateFile struct {
	LastMessageTime *string `json:"last_message_time"`
	OfflineSince    *string `json:"watched_offline_since"`
	LastKnownStatus string  `json:"watched_status"`
}

// stateRepo implements the BotState repository as a single JSON file
type stateRepo struct {
	path   string
	logger *slog.Logger
}

// NewStateRepo creates a new state repository
func NewStateRepo(path string, logger *slog.Logger) repo.StateRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &stateRepo{path: path, logger: logger.With("component", "state_store")}
}

// Load loads the state
// A missing or undecodable file yields zero state; an unparseable timestamp is dropped.
func (r *stateRepo) Load() (*domain.BotState, error) {
	var f stateFile
	if _, err := fsstore.ReadJSON(r.path, &f); err != nil {
		if errors.Is(err, fsstore.ErrDecodeFailed) {
			r.logger.Warn("bot state unreadable, starting from zero state", "path", r.path, "error", err)
			return &domain.BotState{}, nil
		}
		return nil, fmt.Errorf("failed to load bot state: %w", err)
	}

	state := &domain.BotState{
		LastMessageTime: r.parseTime("last_message_time", f.LastMessageTime),
		OfflineSince:    r.parseTime("watched_offline_since", f.OfflineSince),
	}
	if f.LastKnownStatus != "" {
		state.LastKnownStatus = domain.ParseRichStatus(f.LastKnownStatus)
	}
	return state, nil
}

func (r *stateRepo) parseTime(field string, raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	t, err := ParseStateTime(*raw)
	if err != nil {
		r.logger.Warn("ignoring bad timestamp in bot state", "field", field, "value", *raw)
		return nil
	}
	return &t
}

// ParseStateTime parses RFC3339, falling back to zone-less ISO forms in local time
func ParseStateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range stateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Save overwrites the state file
func (r *stateRepo) Save(state *domain.BotState) error {
	if err := fsstore.WriteJSONAtomic(r.path, state); err != nil {
		return fmt.Errorf("failed to save bot state: %w", err)
	}
	return nil
}
