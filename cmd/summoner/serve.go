package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/summonlabs/summoner/internal/api"
	"github.com/summonlabs/summoner/internal/biz"
	"github.com/summonlabs/summoner/internal/biz/usecase"
	"github.com/summonlabs/summoner/internal/conf"
	"github.com/summonlabs/summoner/internal/data"
	"github.com/summonlabs/summoner/internal/infra/discord"
	"github.com/summonlabs/summoner/internal/server"
	"github.com/summonlabs/summoner/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and run the summoning bot",
		RunE:  runServe,
	}

	cmd.Flags().Int("api-port", 0, "Admin API port on 127.0.0.1 (0 disables).")
	_ = viper.BindPFlag("api.port", cmd.Flags().Lookup("api-port"))
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := loggerFromViper()
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfg, err := conf.LoadFromViper(viper.GetViper())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize clients
	discordClient, err := discord.NewClient(cfg.Discord.Token, logger)
	if err != nil {
		return err
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(discordClient, cfg.DataPaths(), cfg.Watch.UserID, logger)
	if err != nil {
		return fmt.Errorf("create repositories: %w", err)
	}
	defer repos.Close()

	// Initialize usecase layer
	waiters := server.NewReactionWaiters()
	ucs, err := biz.NewUsecases(
		biz.Repos{Message: repos.Message, State: repos.State, History: repos.History, Chat: repos.Chat},
		waiters,
		usecase.SummonConfig{
			WatchedUserID: cfg.Watch.UserID,
			Channel:       cfg.Summon.Channel,
			Quiet:         cfg.QuietHours(),
			Banners:       cfg.Templates.Banners(),
		},
		usecase.DefaultCleanupConfig(),
		logger,
	)
	if err != nil {
		return err
	}

	// Initialize service layer
	clock := service.RealClock()
	scheduler := service.NewSummonScheduler(ucs.Summon, ucs.State, cfg.QuietHours(), cfg.SummonInterval(), clock, logger)
	tracker := service.NewPresenceTracker(cfg.Watch.UserID, ucs.Summon, scheduler, logger)
	scheduler.SetBackOnlineCallback(tracker.Observe)
	commands := service.NewCommandService(ucs.Pool, ucs.State, ucs.Summon, ucs.Cleanup, repos.Chat, scheduler, tracker, clock, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Admin API for the MCP tools
	var apiServer *api.Server
	if cfg.API.Port > 0 {
		apiServer = api.NewServer(commands, cfg.API.Port, logger)
		logger.Info("admin API enabled", "addr", fmt.Sprintf("127.0.0.1:%d", apiServer.GetPort()))
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("API server error", "error", err)
			}
		}()
	}

	srv := server.NewDiscordServer(discordClient, commands, tracker, scheduler, waiters, cfg.Command.Prefix, logger)
	logger.Info("starting summoner",
		"watched_user_id", cfg.Watch.UserID,
		"channel", cfg.Summon.Channel,
		"interval", cfg.SummonInterval(),
		"quiet_hours", cfg.QuietHours().String(),
		"templates", cfg.Templates.Source,
		"prefix", cfg.Command.Prefix,
		"commands", commands.Commands())
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")

	srv.Stop()
	if err := ucs.State.Flush(); err != nil {
		logger.Error("failed to flush bot state", "error", err)
	}
	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("API server shutdown", "error", err)
		}
	}
	return nil
}
