package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/usecase"
)

// Phase is the scheduler state
type Phase int

const (
	// PhaseIdle means no offline period is tracked and no loop runs
	PhaseIdle Phase = iota
	// PhaseActive means the watched user is believed offline and the summon loop is armed
	PhaseActive
)

// String returns the phase name
func (p Phase) String() string {
	if p == PhaseActive {
		return "active"
	}
	return "idle"
}

// AutoSender delivers one automatic summon
type AutoSender interface {
	SendAuto(ctx context.Context) (*usecase.SummonResult, error)
}

// SummonScheduler owns the repeating summon loop that runs while the watched user is offline
//
// At most one loop is alive: every Arm cancels the previous loop first. Each loop carries the
// generation it was armed with and stops acting once phase or generation moved on.
type SummonScheduler struct {
	sender   AutoSender
	state    *usecase.StateUsecase
	quiet    domain.QuietHours
	interval time.Duration
	clock    Clock
	logger   *slog.Logger

	// Called with the live status when a fire finds the watched user back online
	onBack func(status domain.RichStatus)

	mu      sync.Mutex
	baseCtx context.Context
	phase   Phase
	gen     uint64
	cancel  context.CancelFunc
	stopped bool
	arms    int
	wg      sync.WaitGroup
}

// NewSummonScheduler creates a new summon scheduler
func NewSummonScheduler(
	sender AutoSender,
	state *usecase.StateUsecase,
	quiet domain.QuietHours,
	interval time.Duration,
	clock Clock,
	logger *slog.Logger,
) *SummonScheduler {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SummonScheduler{
		sender:   sender,
		state:    state,
		quiet:    quiet,
		interval: interval,
		clock:    clock,
		logger:   logger.With("component", "scheduler"),
		baseCtx:  context.Background(),
	}
}

// SetBackOnlineCallback sets the callback used when a fire finds the watched user online
func (s *SummonScheduler) SetBackOnlineCallback(callback func(status domain.RichStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onBack = callback
}

// Start binds loops to ctx
func (s *SummonScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseCtx = ctx
	s.logger.Info("started", "interval", s.interval, "quiet_hours", s.quiet.String())
}

// Stop cancels the loop and waits for it to exit
func (s *SummonScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.disarmLocked("shutdown")
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("stopped")
}

// Phase returns the current phase
func (s *SummonScheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// IsActive reports whether the summon loop is armed
func (s *SummonScheduler) IsActive() bool {
	return s.Phase() == PhaseActive
}

// Arms returns how many times a loop has been armed
func (s *SummonScheduler) Arms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arms
}

// OnTransition handles a binary presence flip of the watched user
func (s *SummonScheduler) OnTransition(from, to domain.Presence, status domain.RichStatus) {
	s.logger.Info("watched user status changed", "from", from, "to", to, "status", status)
	now := s.clock.Now()

	switch {
	case to == domain.PresenceOffline && from != domain.PresenceOffline:
		s.persist(func(st *domain.BotState) { st.MarkOffline(now) })
		s.Arm("watched user went offline")
	case to != domain.PresenceOffline && from == domain.PresenceOffline:
		s.persist(func(st *domain.BotState) { st.MarkOnline(status) })
		s.Disarm("watched user came online")
	}
}

// Reconcile aligns the scheduler with a freshly observed status, keeping a known offlineSince
// StatusUnknown falls back to the persisted status.
func (s *SummonScheduler) Reconcile(current domain.RichStatus) {
	snapshot := s.state.Snapshot()
	if current == domain.StatusUnknown && snapshot.LastKnownStatus != "" {
		current = snapshot.LastKnownStatus
	}
	now := s.clock.Now()

	if current.IsOffline() {
		if snapshot.OfflineSince == nil {
			s.persist(func(st *domain.BotState) { st.MarkOffline(now) })
		} else {
			s.logger.Info("watched user still offline, resuming summons", "offline_since", snapshot.OfflineSince.Format(time.RFC3339))
			s.persist(func(st *domain.BotState) { st.LastKnownStatus = domain.StatusOffline })
		}
		s.Arm("reconcile: offline")
		return
	}

	s.persist(func(st *domain.BotState) { st.MarkOnline(current) })
	s.Disarm("reconcile: not offline")
}

// Arm enters Active and starts a fresh loop, cancelling any previous one
func (s *SummonScheduler) Arm(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.phase = PhaseActive
	s.arms++

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	gen := s.gen

	s.wg.Add(1)
	go s.loop(ctx, gen)

	s.logger.Info("summoning armed", "reason", reason, "generation", gen)
}

// Disarm enters Idle and cancels the loop
func (s *SummonScheduler) Disarm(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked(reason)
}

func (s *SummonScheduler) disarmLocked(reason string) {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.phase == PhaseActive {
		s.logger.Info("summoning disarmed", "reason", reason, "generation", s.gen)
	}
	s.gen++
	s.phase = PhaseIdle
}

// current reports whether the loop of generation gen may still act
func (s *SummonScheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseActive && s.gen == gen
}

// loop waits one interval, then fires every interval while Active, deferring fires out of quiet hours
func (s *SummonScheduler) loop(ctx context.Context, gen uint64) {
	defer s.wg.Done()

	if err := s.clock.Sleep(ctx, s.interval); err != nil {
		return
	}

	for s.current(gen) {
		now := s.clock.Now()
		if s.quiet.IsSuppressed(now) {
			next := s.quiet.NextAllowed(now)
			wait := next.Sub(now)
			s.logger.Info("quiet hours active, deferring summon",
				"wait", wait.Round(time.Minute), "until", next.Format("15:04"))
			if err := s.clock.Sleep(ctx, wait); err != nil {
				return
			}
			continue
		}

		s.fire(ctx, gen)
		if !s.current(gen) {
			return
		}

		if err := s.clock.Sleep(ctx, s.interval); err != nil {
			return
		}
	}
}

func (s *SummonScheduler) fire(ctx context.Context, gen uint64) {
	_, err := s.sender.SendAuto(ctx)
	if err == nil {
		return
	}

	var notOffline *usecase.NotOfflineError
	switch {
	case errors.As(err, &notOffline):
		s.backOnline(gen, notOffline.Status)
	case errors.Is(err, usecase.ErrQuietHours), errors.Is(err, usecase.ErrChannelNotFound):
		// already logged, skip this cycle
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Error("summon failed", "error", err)
	}
}

// backOnline stops this loop's generation and reports the live status
func (s *SummonScheduler) backOnline(gen uint64, status domain.RichStatus) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.disarmLocked("watched user no longer offline")
	callback := s.onBack
	s.mu.Unlock()

	if callback != nil {
		callback(status)
		return
	}
	s.persist(func(st *domain.BotState) { st.MarkOnline(status) })
}

func (s *SummonScheduler) persist(fn func(st *domain.BotState)) {
	if err := s.state.Update(fn); err != nil {
		s.logger.Error("failed to persist bot state", "error", err)
	}
}
