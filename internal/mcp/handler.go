package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler implements the MCP tools on top of the admin API client
// Tool failures are reported in the output's error field rather than as protocol errors.
type Handler struct {
	client *Client
}

// NewHandler creates a new MCP handler
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// EmptyInput is the input of tools without arguments
type EmptyInput struct{}

// StatsOutput is the output of summon_stats
type StatsOutput struct {
	Total          int    `json:"total"`
	Phrases        int    `json:"phrases"`
	Haikus         int    `json:"haikus"`
	Used           int    `json:"used"`
	Remaining      int    `json:"remaining"`
	LastAutoSummon string `json:"last_auto_summon"`
	AutoSent       int    `json:"auto_sent"`
	ManualSent     int    `json:"manual_sent"`
	QuietHours     string `json:"quiet_hours"`
	QuietActive    bool   `json:"quiet_active"`
	Error          string `json:"error,omitempty"`
}

// SummonStats handles summon_stats
func (h *Handler) SummonStats(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, StatsOutput, error) {
	r, err := h.client.GetStats(ctx)
	if err != nil {
		return nil, StatsOutput{Error: err.Error()}, nil
	}
	last := "never"
	if r.LastAutoSummon != nil {
		last = r.LastAutoSummon.Format(time.RFC3339)
	}
	return nil, StatsOutput{
		Total:          r.Total,
		Phrases:        r.Phrases,
		Haikus:         r.Haikus,
		Used:           r.Used,
		Remaining:      r.Remaining,
		LastAutoSummon: last,
		AutoSent:       r.AutoSent,
		ManualSent:     r.ManualSent,
		QuietHours:     r.QuietHours,
		QuietActive:    r.QuietActive,
	}, nil
}

// StatusOutput is the output of watched_status
type StatusOutput struct {
	UserID          string `json:"user_id,omitempty"`
	Name            string `json:"name,omitempty"`
	Status          string `json:"status,omitempty"`
	OfflineFor      string `json:"offline_for,omitempty"`
	SchedulerActive bool   `json:"scheduler_active"`
	QuietActive     bool   `json:"quiet_active"`
	NextAllowed     string `json:"next_allowed,omitempty"`
	Error           string `json:"error,omitempty"`
}

// WatchedStatus handles watched_status
func (h *Handler) WatchedStatus(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, StatusOutput, error) {
	r, err := h.client.GetStatus(ctx)
	if err != nil {
		return nil, StatusOutput{Error: err.Error()}, nil
	}
	return nil, StatusOutput{
		UserID:          r.UserID,
		Name:            r.Name,
		Status:          string(r.Status),
		OfflineFor:      r.OfflineFor,
		SchedulerActive: r.SchedulerActive,
		QuietActive:     r.QuietActive,
		NextAllowed:     r.NextAllowed,
	}, nil
}

// QuietOutput is the output of quiet_hours
type QuietOutput struct {
	Window      string `json:"window,omitempty"`
	Active      bool   `json:"active"`
	NextAllowed string `json:"next_allowed,omitempty"`
	Remaining   string `json:"remaining,omitempty"`
	Error       string `json:"error,omitempty"`
}

// QuietHours handles quiet_hours
func (h *Handler) QuietHours(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, QuietOutput, error) {
	r, err := h.client.GetQuietHours(ctx)
	if err != nil {
		return nil, QuietOutput{Error: err.Error()}, nil
	}
	return nil, QuietOutput{Window: r.Window, Active: r.Active, NextAllowed: r.NextAllowed, Remaining: r.Remaining}, nil
}

// ManualSummonInput is the input of manual_summon
type ManualSummonInput struct {
	UserID    string `json:"user_id,omitempty" jsonschema:"The user ID to summon. Defaults to the watched user."`
	ChannelID string `json:"channel_id,omitempty" jsonschema:"The channel ID to post in. Defaults to the destination channel."`
}

// ManualSummonOutput is the output of manual_summon
type ManualSummonOutput struct {
	Success   bool   `json:"success"`
	SummonID  int    `json:"summon_id,omitempty"`
	Kind      string `json:"kind,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Warned    bool   `json:"quiet_hours_warning,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ManualSummon handles manual_summon
func (h *Handler) ManualSummon(ctx context.Context, req *mcp.CallToolRequest, input ManualSummonInput) (*mcp.CallToolResult, ManualSummonOutput, error) {
	r, err := h.client.Summon(ctx, input.UserID, input.ChannelID)
	if err != nil {
		return nil, ManualSummonOutput{Error: err.Error()}, nil
	}
	return nil, ManualSummonOutput{
		Success:   true,
		SummonID:  r.SummonID,
		Kind:      string(r.Kind),
		MessageID: r.MessageID,
		Warned:    r.Warned,
	}, nil
}

// ReloadInput is the input of reload_messages
type ReloadInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Delete the cached message and used files before reloading."`
}

// ReloadOutput is the output of reload_messages
type ReloadOutput struct {
	Success bool   `json:"success"`
	Total   int    `json:"total,omitempty"`
	Phrases int    `json:"phrases,omitempty"`
	Haikus  int    `json:"haikus,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReloadMessages handles reload_messages
func (h *Handler) ReloadMessages(ctx context.Context, req *mcp.CallToolRequest, input ReloadInput) (*mcp.CallToolResult, ReloadOutput, error) {
	r, err := h.client.Reload(ctx, input.Force)
	if err != nil {
		return nil, ReloadOutput{Error: err.Error()}, nil
	}
	return nil, ReloadOutput{Success: true, Total: r.Total, Phrases: r.Phrases, Haikus: r.Haikus}, nil
}

// ActionOutput is the output of tools that only report success
type ActionOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ResetUsed handles reset_used
func (h *Handler) ResetUsed(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, ActionOutput, error) {
	if err := h.client.ResetUsed(ctx); err != nil {
		return nil, ActionOutput{Error: err.Error()}, nil
	}
	return nil, ActionOutput{Success: true}, nil
}

// StopScheduler handles stop_scheduler
func (h *Handler) StopScheduler(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, ActionOutput, error) {
	if err := h.client.StopScheduler(ctx); err != nil {
		return nil, ActionOutput{Error: err.Error()}, nil
	}
	return nil, ActionOutput{Success: true}, nil
}

// RecheckOutput is the output of recheck_status
type RecheckOutput struct {
	Previous        string `json:"previous,omitempty"`
	Current         string `json:"current,omitempty"`
	SchedulerActive bool   `json:"scheduler_active"`
	Error           string `json:"error,omitempty"`
}

// RecheckStatus handles recheck_status
func (h *Handler) RecheckStatus(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, RecheckOutput, error) {
	r, err := h.client.Recheck(ctx)
	if err != nil {
		return nil, RecheckOutput{Error: err.Error()}, nil
	}
	return nil, RecheckOutput{
		Previous:        string(r.Previous),
		Current:         string(r.Current),
		SchedulerActive: r.SchedulerActive,
	}, nil
}
