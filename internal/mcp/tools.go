package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server exposes the summoner tools over MCP stdio
type Server struct {
	server  *mcp.Server
	handler *Handler
}

// NewServer creates a new MCP server whose tools relay to the admin API
func NewServer(handler *Handler, version string) *Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "summoner-tools",
		Version: version,
	}, nil)

	s := &Server{server: server, handler: handler}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	h := s.handler

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summon_stats",
		Description: "Get summoning statistics: message totals, used and remaining messages, last auto-summon and history counts.",
	}, h.SummonStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "watched_status",
		Description: "Get the watched user's current status, how long they have been offline and whether auto-summoning is active.",
	}, h.WatchedStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "quiet_hours",
		Description: "Get the quiet-hours window and whether automatic summons are currently suppressed.",
	}, h.QuietHours)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "manual_summon",
		Description: "Send a manual summon now. Works during quiet hours. Defaults to the watched user in the destination channel.",
	}, h.ManualSummon)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reload_messages",
		Description: "Reload summoning messages from the CSV files and reset the used list. Set force to delete the cache files first.",
	}, h.ReloadMessages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reset_used",
		Description: "Make every summoning message available again.",
	}, h.ResetUsed)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stop_scheduler",
		Description: "Stop automatic summoning until the watched user next goes offline or a status recheck runs.",
	}, h.StopScheduler)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recheck_status",
		Description: "Re-query the watched user's status and start or stop auto-summoning to match.",
	}, h.RecheckStatus)
}

// ToolNames returns the registered tool names
func ToolNames() []string {
	return []string{
		"summon_stats", "watched_status", "quiet_hours", "manual_summon",
		"reload_messages", "reset_used", "stop_scheduler", "recheck_status",
	}
}

// Run starts the MCP server with stdio transport
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetServer returns the underlying MCP server
func (s *Server) GetServer() *mcp.Server {
	return s.server
}
