package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/summonlabs/summoner/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the summoner tools over MCP stdio, relaying to a running bot's admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL := strings.TrimSpace(viper.GetString("mcp.api_url"))
			if apiURL == "" {
				apiURL = fmt.Sprintf("http://127.0.0.1:%d", viper.GetInt("api.port"))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := mcp.NewServer(mcp.NewHandler(mcp.NewClient(apiURL)), version)
			return server.Run(ctx)
		},
	}

	cmd.Flags().String("api-url", "", "Admin API base URL (default http://127.0.0.1:<api.port>).")
	_ = viper.BindPFlag("mcp.api_url", cmd.Flags().Lookup("api-url"))
	return cmd
}
