package service

import (
	"context"
	"time"

	"github.com/summonlabs/summoner/internal/biz/domain"
)

// StatsReport is the summon statistics snapshot
type StatsReport struct {
	Total           int        `json:"total"`
	Phrases         int        `json:"phrases"`
	Haikus          int        `json:"haikus"`
	Used            int        `json:"used"`
	Remaining       int        `json:"remaining"`
	LastAutoSummon  *time.Time `json:"last_auto_summon,omitempty"`
	AutoSent        int        `json:"auto_sent"`
	ManualSent      int        `json:"manual_sent"`
	QuietHours      string     `json:"quiet_hours"`
	QuietHoursStart int        `json:"quiet_hours_start"`
	QuietHoursEnd   int        `json:"quiet_hours_end"`
	QuietActive     bool       `json:"quiet_active"`
}

// StatusReport is the watched user status snapshot
type StatusReport struct {
	UserID          string            `json:"user_id"`
	Name            string            `json:"name,omitempty"`
	Status          domain.RichStatus `json:"status"`
	OfflineFor      string            `json:"offline_for,omitempty"`
	SchedulerActive bool              `json:"scheduler_active"`
	QuietActive     bool              `json:"quiet_active"`
	NextAllowed     string            `json:"next_allowed,omitempty"`
}

// QuietReport is the quiet-hours snapshot
type QuietReport struct {
	Window      string `json:"window"`
	Active      bool   `json:"active"`
	NextAllowed string `json:"next_allowed"`
	Remaining   string `json:"remaining,omitempty"`
}

// RecheckReport is the result of a forced status check
type RecheckReport struct {
	Previous        domain.RichStatus `json:"previous"`
	Current         domain.RichStatus `json:"current"`
	SchedulerActive bool              `json:"scheduler_active"`
}

// ReloadReport is the result of a message reload
type ReloadReport struct {
	Total   int  `json:"total"`
	Phrases int  `json:"phrases"`
	Haikus  int  `json:"haikus"`
	Forced  bool `json:"forced"`
}

// SummonReport is the result of a manual summon
type SummonReport struct {
	SummonID  int         `json:"summon_id"`
	Kind      domain.Kind `json:"kind"`
	ChannelID string      `json:"channel_id"`
	MessageID string      `json:"message_id"`
	Warned    bool        `json:"quiet_hours_warning"`
}

// Stats builds the statistics report
func (s *CommandService) Stats(ctx context.Context) *StatsReport {
	pool := s.pool.Stats()
	counts := s.summon.Counts(ctx)
	state := s.state.Snapshot()
	quiet := s.summon.QuietHours()

	return &StatsReport{
		Total:           pool.Total,
		Phrases:         pool.Phrases,
		Haikus:          pool.Haikus,
		Used:            pool.Used,
		Remaining:       pool.Remaining(),
		LastAutoSummon:  state.LastMessageTime,
		AutoSent:        counts.Auto,
		ManualSent:      counts.Manual,
		QuietHours:      quiet.String(),
		QuietHoursStart: quiet.Start,
		QuietHoursEnd:   quiet.End,
		QuietActive:     quiet.IsSuppressed(s.clock.Now()),
	}
}

// Status builds the watched user status report
func (s *CommandService) Status(ctx context.Context) (*StatusReport, error) {
	userID := s.summon.WatchedUserID()
	member, err := s.chat.LookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	status, err := s.summon.WatchedStatus(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	report := &StatusReport{
		UserID:          userID,
		Name:            member.Name,
		Status:          status,
		SchedulerActive: s.scheduler.IsActive(),
	}
	if status.IsOffline() {
		state := s.state.Snapshot()
		if d, ok := state.OfflineFor(now); ok {
			report.OfflineFor = domain.FormatHoursMinutes(d)
		}
	}
	quiet := s.summon.QuietHours()
	if quiet.IsSuppressed(now) {
		report.QuietActive = true
		report.NextAllowed = quiet.NextAllowed(now).Format("15:04")
	}
	return report, nil
}

// QuietHours builds the quiet-hours report
func (s *CommandService) QuietHours() *QuietReport {
	now := s.clock.Now()
	quiet := s.summon.QuietHours()
	report := &QuietReport{
		Window:      quiet.String(),
		Active:      quiet.IsSuppressed(now),
		NextAllowed: quiet.NextAllowed(now).Format("15:04"),
	}
	if report.Active {
		report.Remaining = domain.FormatHoursMinutes(quiet.Until(now))
	}
	return report
}

// Summon sends a manual summon; empty targetUserID means the watched user
func (s *CommandService) Summon(ctx context.Context, targetUserID, channelID string) (*SummonReport, error) {
	result, err := s.summon.SendManual(ctx, targetUserID, channelID)
	if err != nil {
		return nil, err
	}
	return &SummonReport{
		SummonID:  result.Message.ID,
		Kind:      result.Message.Kind,
		ChannelID: result.ChannelID,
		MessageID: result.MessageID,
		Warned:    result.Warned,
	}, nil
}

// Reload reloads the message pool from the flat sources; force deletes the cache files first
func (s *CommandService) Reload(force bool) (*ReloadReport, error) {
	var stats domain.PoolStats
	var err error
	if force {
		stats, err = s.pool.ForceReload()
	} else {
		stats, err = s.pool.Reload()
	}
	if err != nil {
		return nil, err
	}
	return &ReloadReport{Total: stats.Total, Phrases: stats.Phrases, Haikus: stats.Haikus, Forced: force}, nil
}

// ResetUsed clears the used set
func (s *CommandService) ResetUsed() error {
	return s.pool.ResetUsed()
}

// StopScheduler disarms automatic summoning until the next offline transition or recheck
func (s *CommandService) StopScheduler() {
	s.scheduler.Disarm("stopped by operator")
}

// Recheck re-queries the watched user's status and reconciles the scheduler
func (s *CommandService) Recheck(ctx context.Context) (*RecheckReport, error) {
	previous, current, err := s.tracker.Recheck(ctx)
	if err != nil {
		return nil, err
	}
	return &RecheckReport{
		Previous:        previous,
		Current:         current,
		SchedulerActive: s.scheduler.IsActive(),
	}, nil
}
