package service

import (
	"context"
	"testing"

	"github.com/summonlabs/summoner/internal/biz/domain"
)

type transition struct {
	from, to domain.Presence
}

type mockTransitionHandler struct {
	transitions []transition
	reconciled  []domain.RichStatus
}

func (m *mockTransitionHandler) OnTransition(from, to domain.Presence, status domain.RichStatus) {
	m.transitions = append(m.transitions, transition{from, to})
}

func (m *mockTransitionHandler) Reconcile(current domain.RichStatus) {
	m.reconciled = append(m.reconciled, current)
}

type fixedQuerier struct {
	status domain.RichStatus
}

func (q *fixedQuerier) WatchedStatus(ctx context.Context) (domain.RichStatus, error) {
	return q.status, nil
}

func TestPresenceTracker_OnPresence_OnlyBinaryFlips(t *testing.T) {
	handler := &mockTransitionHandler{}
	tracker := NewPresenceTracker("42", &fixedQuerier{status: domain.StatusOnline}, handler, nil)
	if _, err := tracker.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tracker.OnPresence("42", domain.StatusIdle)
	tracker.OnPresence("42", domain.StatusDND)
	if len(handler.transitions) != 0 {
		t.Fatalf("Expected no transitions for rich-status churn, got %v", handler.transitions)
	}

	tracker.OnPresence("42", domain.StatusOffline)
	tracker.OnPresence("42", domain.StatusInvisible)
	tracker.OnPresence("42", domain.StatusOnline)
	want := []transition{
		{domain.PresenceNotOffline, domain.PresenceOffline},
		{domain.PresenceOffline, domain.PresenceNotOffline},
	}
	if len(handler.transitions) != len(want) {
		t.Fatalf("Expected %d transitions, got %v", len(want), handler.transitions)
	}
	for i := range want {
		if handler.transitions[i] != want[i] {
			t.Errorf("Transition %d = %v, want %v", i, handler.transitions[i], want[i])
		}
	}
}

func TestPresenceTracker_OnPresence_IgnoresOtherUsers(t *testing.T) {
	handler := &mockTransitionHandler{}
	tracker := NewPresenceTracker("42", &fixedQuerier{}, handler, nil)

	tracker.OnPresence("7", domain.StatusOffline)
	if len(handler.reconciled)+len(handler.transitions) != 0 {
		t.Fatal("Expected other users ignored")
	}

	// First observation reconciles, later ones compare with the last binary value
	tracker.OnPresence("42", domain.StatusOnline)
	tracker.OnPresence("42", domain.StatusIdle)
	tracker.OnPresence("42", domain.StatusOffline)
	if len(handler.reconciled) != 1 || handler.reconciled[0] != domain.StatusOnline {
		t.Errorf("Expected one reconcile with online, got %v", handler.reconciled)
	}
	if len(handler.transitions) != 1 || handler.transitions[0].to != domain.PresenceOffline {
		t.Errorf("Expected one offline transition, got %v", handler.transitions)
	}
}

func TestPresenceTracker_InitAndRecheck(t *testing.T) {
	handler := &mockTransitionHandler{}
	querier := &fixedQuerier{status: domain.StatusOffline}
	tracker := NewPresenceTracker("42", querier, handler, nil)

	status, err := tracker.Init(context.Background())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if status != domain.StatusOffline || tracker.Current() != domain.StatusOffline {
		t.Errorf("Expected offline, got %s", status)
	}

	querier.status = domain.StatusDND
	previous, current, err := tracker.Recheck(context.Background())
	if err != nil {
		t.Fatalf("Recheck() error = %v", err)
	}
	if previous != domain.StatusOffline || current != domain.StatusDND {
		t.Errorf("Recheck() = %s, %s", previous, current)
	}
	if len(handler.reconciled) != 2 {
		t.Errorf("Expected Init and Recheck to reconcile, got %v", handler.reconciled)
	}
}
