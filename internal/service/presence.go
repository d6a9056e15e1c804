package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/summonlabs/summoner/internal/biz/domain"
)

// StatusQuerier queries the watched user's live status
type StatusQuerier interface {
	WatchedStatus(ctx context.Context) (domain.RichStatus, error)
}

// TransitionHandler receives binary presence flips and full reconciliations
type TransitionHandler interface {
	OnTransition(from, to domain.Presence, status domain.RichStatus)
	Reconcile(current domain.RichStatus)
}

// PresenceTracker collapses platform presence updates for the watched user into offline/not-offline
// Only a flip of the binary value reaches the TransitionHandler.
type PresenceTracker struct {
	watchedUserID string
	querier       StatusQuerier
	handler       TransitionHandler
	logger        *slog.Logger

	mu    sync.Mutex
	last  domain.Presence
	rich  domain.RichStatus
	known bool
}

// NewPresenceTracker creates a new presence tracker
func NewPresenceTracker(watchedUserID string, querier StatusQuerier, handler TransitionHandler, logger *slog.Logger) *PresenceTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresenceTracker{
		watchedUserID: watchedUserID,
		querier:       querier,
		handler:       handler,
		logger:        logger.With("component", "presence"),
		rich:          domain.StatusUnknown,
	}
}

// Init queries the current status and reconciles the scheduler with it
func (t *PresenceTracker) Init(ctx context.Context) (domain.RichStatus, error) {
	status, err := t.querier.WatchedStatus(ctx)
	if err != nil {
		return domain.StatusUnknown, err
	}
	t.logger.Info("initial watched user status", "status", status)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.set(status)
	t.handler.Reconcile(status)
	return status, nil
}

// Current returns the last observed rich status
func (t *PresenceTracker) Current() domain.RichStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rich
}

// OnPresence handles a platform presence update for any user
func (t *PresenceTracker) OnPresence(userID string, status domain.RichStatus) {
	if userID != t.watchedUserID {
		return
	}
	t.Observe(status)
}

// Observe feeds a new rich status, comparing against the last observed binary value
// Only a flip of the binary value reaches the handler; the first observation reconciles.
func (t *PresenceTracker) Observe(status domain.RichStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.known {
		t.set(status)
		t.handler.Reconcile(status)
		return
	}
	old := t.last
	t.set(status)
	if old == t.last {
		t.logger.Debug("watched user status churn ignored", "status", status)
		return
	}
	t.handler.OnTransition(old, t.last, status)
}

// Recheck re-queries the live status and forces a reconciliation
func (t *PresenceTracker) Recheck(ctx context.Context) (previous, current domain.RichStatus, err error) {
	status, err := t.querier.WatchedStatus(ctx)
	if err != nil {
		return "", "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	previous = t.rich
	t.set(status)
	t.handler.Reconcile(status)
	return previous, status, nil
}

func (t *PresenceTracker) set(status domain.RichStatus) {
	t.rich = status
	t.last = status.Collapse()
	t.known = true
}
